package surveys

import (
	"github.com/DawPlus/healing-server-sub000/internal/fieldmap"
	"github.com/DawPlus/healing-server-sub000/internal/module"
	"github.com/DawPlus/healing-server-sub000/internal/roster"
)

type preventionRow struct {
	ID                   string
	Checked              bool
	Name                 string
	Sex                  string
	Age                  string
	Residence            string
	Job                  string
	Period               string
	Agency               string
	AgencyID             string
	OpenDay              string
	EvalDate             string
	PastStressExperience string
}

type preventionForm struct {
	*sheet[preventionRow]
}

func newPrevention() Form {
	return &preventionForm{newSheet(module.Prevention, codec[preventionRow]{
		decode: func(row fieldmap.Row) (preventionRow, error) {
			id, err := required(row, "id")
			if err != nil {
				return preventionRow{}, err
			}
			past := row.String("past_stress_experience")
			if past == "" {
				past = "none"
			}
			return preventionRow{
				ID:                   id,
				Name:                 row.String("name"),
				Sex:                  row.String("sex"),
				Age:                  row.String("age"),
				Residence:            row.String("residence"),
				Job:                  row.String("job"),
				Period:               row.String("participation_period"),
				Agency:               row.String("agency"),
				AgencyID:             row.String("agency_id"),
				OpenDay:              row.String("openday"),
				EvalDate:             row.String("eval_date"),
				PastStressExperience: past,
			}, nil
		},
		encode: func(r preventionRow) fieldmap.Row {
			return fieldmap.Row{
				"id": r.ID, "chk": r.Checked,
				"name": r.Name, "sex": r.Sex, "age": r.Age,
				"residence": r.Residence, "job": r.Job, "participation_period": r.Period,
				"agency": r.Agency, "agency_id": r.AgencyID,
				"openday": r.OpenDay, "eval_date": r.EvalDate,
				"past_stress_experience": r.PastStressExperience,
			}
		},
		key: func(r preventionRow) string { return r.ID },
		participant: func(r preventionRow) roster.Participant {
			return person(r.ID, r.Name, r.Sex, r.Age, r.Residence, r.Job, r.Period)
		},
	})}
}

func (f *preventionForm) ReplaceAllRows(rows []fieldmap.Row) bool {
	return f.replaceAll(rows)
}
