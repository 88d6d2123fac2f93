package surveys

import (
	"github.com/DawPlus/healing-server-sub000/internal/fieldmap"
	"github.com/DawPlus/healing-server-sub000/internal/module"
	"github.com/DawPlus/healing-server-sub000/internal/roster"
)

// measurementRow is shared by the HRV and vibra instruments. Both record a
// pre/post round per participant.
type measurementRow struct {
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
	Round     string
}

func measurementCodec() codec[measurementRow] {
	return codec[measurementRow]{
		decode: func(row fieldmap.Row) (measurementRow, error) {
			id, err := required(row, "id")
			if err != nil {
				return measurementRow{}, err
			}
			round := row.String("measurement_round")
			if round != "post" {
				round = "pre"
			}
			return measurementRow{
				ID:        id,
				Name:      row.String("name"),
				Sex:       row.String("sex"),
				Age:       row.String("age"),
				Residence: row.String("residence"),
				Job:       row.String("job"),
				Agency:    row.String("agency"),
				AgencyID:  row.String("agency_id"),
				OpenDay:   row.String("openday"),
				EvalDate:  row.String("eval_date"),
				Round:     round,
			}, nil
		},
		encode: func(r measurementRow) fieldmap.Row {
			return fieldmap.Row{
				"id": r.ID, "chk": r.Checked,
				"name": r.Name, "sex": r.Sex, "age": r.Age,
				"residence": r.Residence, "job": r.Job,
				"agency": r.Agency, "agency_id": r.AgencyID,
				"openday": r.OpenDay, "eval_date": r.EvalDate,
				"measurement_round": r.Round,
			}
		},
		key: func(r measurementRow) string { return r.ID },
		participant: func(r measurementRow) roster.Participant {
			return person(r.ID, r.Name, r.Sex, r.Age, r.Residence, r.Job, "")
		},
	}
}

type hrvForm struct {
	*rawSheet[measurementRow]
}

func newHRV() Form {
	return &hrvForm{newRawSheet(module.HRV, measurementCodec())}
}

func (f *hrvForm) RowsSlot() *[]fieldmap.Row {
	return f.slot()
}

// vibraForm exposes no update operation and only listens on the bus.
type vibraForm struct {
	*sheet[measurementRow]
}

func newVibra() Form {
	s := newSheet(module.Vibra, measurementCodec())
	s.selfServe = true
	return &vibraForm{s}
}
