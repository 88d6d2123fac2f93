package surveys

import (
	"github.com/DawPlus/healing-server-sub000/internal/fieldmap"
	"github.com/DawPlus/healing-server-sub000/internal/module"
	"github.com/DawPlus/healing-server-sub000/internal/roster"
)

type healingRow struct {
	ID        string
	Name      string
	Sex       string
	Age       string
	Residence string
	Job       string
	Period    string
}

// healingForm binds its table straight to a row slice and exposes that slice.
type healingForm struct {
	*rawSheet[healingRow]
}

func newHealing() Form {
	return &healingForm{newRawSheet(module.Healing, codec[healingRow]{
		decode: func(row fieldmap.Row) (healingRow, error) {
			id, err := required(row, "id")
			if err != nil {
				return healingRow{}, err
			}
			return healingRow{
				ID:        id,
				Name:      row.String("name"),
				Sex:       row.String("sex"),
				Age:       row.String("age"),
				Residence: row.String("residence"),
				Job:       row.String("job"),
				Period:    row.String("participation_period"),
			}, nil
		},
		participant: func(r healingRow) roster.Participant {
			return person(r.ID, r.Name, r.Sex, r.Age, r.Residence, r.Job, r.Period)
		},
	})}
}

func (f *healingForm) RowsSlot() *[]fieldmap.Row {
	return f.slot()
}
