package surveys

import (
	"github.com/DawPlus/healing-server-sub000/internal/fieldmap"
	"github.com/DawPlus/healing-server-sub000/internal/module"
	"github.com/DawPlus/healing-server-sub000/internal/roster"
)

// programRow is one line of the program satisfaction survey.
type programRow struct {
	ID        string
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
	Program   string
	// Scores are the 1-5 answers; the roster never fills them.
	Scores []int
}

type programForm struct {
	*sheet[programRow]
}

func newProgram() Form {
	return &programForm{newSheet(module.Program, codec[programRow]{
		decode: func(row fieldmap.Row) (programRow, error) {
			id, err := required(row, "id")
			if err != nil {
				return programRow{}, err
			}
			name := row.String("NAME")
			if name == "" {
				name = row.String("name")
			}
			return programRow{
				ID:        id,
				Name:      name,
				Sex:       row.String("SEX"),
				Age:       row.String("AGE"),
				Residence: row.String("RESIDENCE"),
				Job:       row.String("JOB"),
				Agency:    row.String("AGENCY"),
				AgencyID:  row.String("AGENCY_ID"),
				OpenDay:   row.String("OPENDAY"),
				EvalDate:  row.String("EVAL_DATE"),
				Program:   row.String("PROGRAM_NAME"),
			}, nil
		},
		encode: func(r programRow) fieldmap.Row {
			return fieldmap.Row{
				"id": r.ID, "chk": r.Checked,
				"NAME": r.Name, "name": r.Name, "SEX": r.Sex, "AGE": r.Age,
				"RESIDENCE": r.Residence, "JOB": r.Job,
				"AGENCY": r.Agency, "AGENCY_ID": r.AgencyID,
				"OPENDAY": r.OpenDay, "EVAL_DATE": r.EvalDate, "PROGRAM_NAME": r.Program,
				"SCORES": append([]int(nil), r.Scores...),
			}
		},
		key: func(r programRow) string { return r.ID },
		participant: func(r programRow) roster.Participant {
			return person(r.ID, r.Name, r.Sex, r.Age, r.Residence, r.Job, "")
		},
	})}
}

func (f *programForm) ReplaceAllRows(rows []fieldmap.Row) bool {
	return f.replaceAll(rows)
}
