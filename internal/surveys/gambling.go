package surveys

import (
	"github.com/DawPlus/healing-server-sub000/internal/fieldmap"
	"github.com/DawPlus/healing-server-sub000/internal/module"
	"github.com/DawPlus/healing-server-sub000/internal/roster"
)

type gamblingRow struct {
	ID                     string
	Checked                bool
	Name                   string
	Sex                    string
	Age                    string
	Residence              string
	Job                    string
	Period                 string
	Agency                 string
	AgencyID               string
	OpenDay                string
	EvalDate               string
	PastGamblingExperience string
}

type gamblingForm struct {
	*sheet[gamblingRow]
}

func newGambling() Form {
	return &gamblingForm{newSheet(module.Gambling, codec[gamblingRow]{
		decode: func(row fieldmap.Row) (gamblingRow, error) {
			id, err := required(row, "ID")
			if err != nil {
				return gamblingRow{}, err
			}
			name := row.String("NAME")
			if name == "" {
				name = row.String("name")
			}
			past := row.String("PAST_GAMBLING_EXPERIENCE")
			if past == "" {
				past = "none"
			}
			return gamblingRow{
				ID:                     id,
				Name:                   name,
				Sex:                    row.String("SEX"),
				Age:                    row.String("AGE"),
				Residence:              row.String("RESIDENCE"),
				Job:                    row.String("JOB"),
				Period:                 row.String("PARTICIPATION_PERIOD"),
				Agency:                 row.String("AGENCY"),
				AgencyID:               row.String("AGENCY_ID"),
				OpenDay:                row.String("OPENDAY"),
				EvalDate:               row.String("EVAL_DATE"),
				PastGamblingExperience: past,
			}, nil
		},
		encode: func(r gamblingRow) fieldmap.Row {
			return fieldmap.Row{
				"ID": r.ID, "CHK": r.Checked,
				"NAME": r.Name, "name": r.Name, "SEX": r.Sex, "AGE": r.Age,
				"RESIDENCE": r.Residence, "JOB": r.Job, "PARTICIPATION_PERIOD": r.Period,
				"AGENCY": r.Agency, "AGENCY_ID": r.AgencyID,
				"OPENDAY": r.OpenDay, "EVAL_DATE": r.EvalDate,
				"PAST_GAMBLING_EXPERIENCE": r.PastGamblingExperience,
			}
		},
		key: func(r gamblingRow) string { return r.ID },
		participant: func(r gamblingRow) roster.Participant {
			return person(r.ID, r.Name, r.Sex, r.Age, r.Residence, r.Job, r.Period)
		},
	})}
}

func (f *gamblingForm) ReplaceAllRows(rows []fieldmap.Row) bool {
	return f.replaceAll(rows)
}
