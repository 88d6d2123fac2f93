package surveys

import (
	"github.com/DawPlus/healing-server-sub000/internal/fieldmap"
	"github.com/DawPlus/healing-server-sub000/internal/module"
	"github.com/DawPlus/healing-server-sub000/internal/roster"
)

type facilityRow struct {
	Idx       string
	Checked   bool
	Name      string
	Sex       string
	Age       string
	Residence string
	Job       string
	Agency    string
	AgencyID  string
	OpenDay   string
	EvalDate  string
}

// facilityForm only edits one row at a time.
type facilityForm struct {
	*sheet[facilityRow]
}

func newFacility() Form {
	return &facilityForm{newSheet(module.Facility, codec[facilityRow]{
		decode: func(row fieldmap.Row) (facilityRow, error) {
			idx, err := required(row, "idx")
			if err != nil {
				return facilityRow{}, err
			}
			return facilityRow{
				Idx:       idx,
				Name:      row.String("NAME"),
				Sex:       row.String("SEX"),
				Age:       row.String("AGE"),
				Residence: row.String("RESIDENCE"),
				Job:       row.String("JOB"),
				Agency:    row.String("AGENCY"),
				AgencyID:  row.String("AGENCY_ID"),
				OpenDay:   row.String("OPENDAY"),
				EvalDate:  row.String("EVAL_DATE"),
			}, nil
		},
		encode: func(r facilityRow) fieldmap.Row {
			return fieldmap.Row{
				"idx": r.Idx, "chk": r.Checked,
				"NAME": r.Name, "SEX": r.Sex, "AGE": r.Age,
				"RESIDENCE": r.Residence, "JOB": r.Job,
				"AGENCY": r.Agency, "AGENCY_ID": r.AgencyID,
				"OPENDAY": r.OpenDay, "EVAL_DATE": r.EvalDate,
			}
		},
		key: func(r facilityRow) string { return r.Idx },
		participant: func(r facilityRow) roster.Participant {
			return person(r.Idx, r.Name, r.Sex, r.Age, r.Residence, r.Job, "")
		},
	})}
}

func (f *facilityForm) SetRow(rowID string, rows []fieldmap.Row) bool {
	return f.setRow(rowID, rows)
}
