package surveys

import (
	"strconv"

	"github.com/DawPlus/healing-server-sub000/internal/fieldmap"
	"github.com/DawPlus/healing-server-sub000/internal/module"
	"github.com/DawPlus/healing-server-sub000/internal/roster"
)

type counselRow struct {
	RowID     string
	Selected  bool
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
	SessionNo int
}

type counselForm struct {
	*sheet[counselRow]
}

func newCounsel() Form {
	return &counselForm{newSheet(module.Counsel, codec[counselRow]{
		decode: func(row fieldmap.Row) (counselRow, error) {
			id, err := required(row, "rowId")
			if err != nil {
				return counselRow{}, err
			}
			session, err := strconv.Atoi(row.String("sessionNo"))
			if err != nil || session < 1 {
				session = 1
			}
			return counselRow{
				RowID:     id,
				Name:      row.String("participantName"),
				Sex:       row.String("participantSex"),
				Age:       row.String("participantAge"),
				Residence: row.String("participantResidence"),
				Job:       row.String("participantJob"),
				Agency:    row.String("agencyName"),
				AgencyID:  row.String("agencyId"),
				OpenDay:   row.String("openDay"),
				EvalDate:  row.String("evalDate"),
				Program:   row.String("programName"),
				SessionNo: session,
			}, nil
		},
		encode: func(r counselRow) fieldmap.Row {
			return fieldmap.Row{
				"rowId": r.RowID, "selected": r.Selected,
				"participantName": r.Name, "participantSex": r.Sex, "participantAge": r.Age,
				"participantResidence": r.Residence, "participantJob": r.Job,
				"agencyName": r.Agency, "agencyId": r.AgencyID,
				"openDay": r.OpenDay, "evalDate": r.EvalDate, "programName": r.Program,
				"sessionNo": r.SessionNo,
			}
		},
		key: func(r counselRow) string { return r.RowID },
		participant: func(r counselRow) roster.Participant {
			return person(r.RowID, r.Name, r.Sex, r.Age, r.Residence, r.Job, "")
		},
	})}
}

func (f *counselForm) SetRow(rowID string, rows []fieldmap.Row) bool {
	return f.setRow(rowID, rows)
}
