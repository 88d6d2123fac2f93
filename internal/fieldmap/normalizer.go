package fieldmap

import (
	"fmt"
	"sort"
	"strings"

	"github.com/DawPlus/healing-server-sub000/internal/roster"
)

// Row is one normalized row in a module's own field spelling.
type Row map[string]any

// ID returns the row identifier stored under key, or "".
func (r Row) ID(key string) string {
	return r.String(key)
}

// String returns the value under key rendered as text.
func (r Row) String(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Clone copies the row so callers may mutate it freely.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Normalizer renders canonical data for a given module.
type Normalizer struct {
	tables Tables
}

// New builds a Normalizer over the given tables.
func New(tables Tables) *Normalizer {
	if tables.Modules == nil {
		tables.Modules = map[string]Table{}
	}
	return &Normalizer{tables: tables}
}

// NewBuiltin builds a Normalizer over the embedded tables.
func NewBuiltin() (*Normalizer, error) {
	tables, err := Builtin()
	if err != nil {
		return nil, err
	}
	return New(tables), nil
}

// Table returns the table used for moduleID, falling back to the generic one.
func (n *Normalizer) Table(moduleID string) Table {
	if n != nil {
		if table, ok := n.tables.Modules[moduleID]; ok {
			return table
		}
	}
	return genericTable()
}

// HasTable reports whether moduleID has a declared table.
func (n *Normalizer) HasTable(moduleID string) bool {
	_, ok := n.tables.Modules[moduleID]
	return ok
}

// ModuleIDs lists modules with declared tables, sorted.
func (n *Normalizer) ModuleIDs() []string {
	ids := make([]string, 0, len(n.tables.Modules))
	for id := range n.tables.Modules {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Tables returns the underlying configuration.
func (n *Normalizer) Tables() Tables {
	return n.tables
}

// Normalize renders one participant plus context for moduleID. It never
// fails: absent optional values become "" and an undeclared module gets the
// generic table.
func (n *Normalizer) Normalize(moduleID string, p roster.Participant, ctx roster.OrganizationContext) Row {
	table := n.Table(moduleID)
	values := canonicalValues(p, ctx)

	row := make(Row, len(table.Fields)+len(table.Defaults)+2)
	for name, v := range table.Defaults {
		row[name] = v
	}
	for k, spellings := range table.Fields {
		v := values[k]
		for _, spelling := range spellings {
			row[spelling] = v
		}
	}
	row[table.RowID] = p.ID
	row[table.Selected] = false
	return row
}

// NormalizeRoster renders every participant in roster order.
func (n *Normalizer) NormalizeRoster(moduleID string, r roster.Roster, ctx roster.OrganizationContext) []Row {
	rows := make([]Row, 0, len(r))
	for _, p := range r {
		rows = append(rows, n.Normalize(moduleID, p, ctx))
	}
	return rows
}

// Denormalize is the reverse mapping for the participant half of a row: it
// reads the first spelling present for each participant key.
func (n *Normalizer) Denormalize(moduleID string, row Row) roster.Participant {
	table := n.Table(moduleID)
	read := func(k Key) string {
		for _, spelling := range table.Fields[k] {
			if _, ok := row[spelling]; ok {
				return row.String(spelling)
			}
		}
		return ""
	}
	return roster.Participant{
		ID: row.ID(table.RowID),
		Personal: roster.Personal{
			Name:                read(KeyName),
			Sex:                 roster.Sex(read(KeySex)),
			Age:                 read(KeyAge),
			Residence:           roster.Residence(read(KeyResidence)),
			Job:                 roster.Job(read(KeyJob)),
			ParticipationPeriod: roster.ParticipationPeriod(read(KeyParticipationPeriod)),
		},
	}
}

func canonicalValues(p roster.Participant, ctx roster.OrganizationContext) map[Key]any {
	var agencyID any = ""
	if ctx.AgencyID != nil {
		agencyID = *ctx.AgencyID
	}
	return map[Key]any{
		KeyName:                p.Personal.Name,
		KeySex:                 string(p.Personal.Sex),
		KeyAge:                 strings.TrimSpace(p.Personal.Age),
		KeyResidence:           string(p.Personal.Residence),
		KeyJob:                 string(p.Personal.Job),
		KeyParticipationPeriod: string(p.Personal.ParticipationPeriod),
		KeyAgency:              ctx.Agency,
		KeyAgencyID:            agencyID,
		KeyOpenDay:             ctx.OpenDay,
		KeyEvalDate:            ctx.EvalDate,
		KeyProgram:             ctx.Program,
	}
}
