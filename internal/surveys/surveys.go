// Package surveys holds the eight data-entry modules that consume the shared
// roster. Each keeps rows in its own private schema and exposes only the
// update operation its form supports, so the bridge has to probe them.
package surveys

import (
	"errors"
	"fmt"
	"sync"

	"github.com/DawPlus/healing-server-sub000/internal/bus"
	"github.com/DawPlus/healing-server-sub000/internal/fieldmap"
	"github.com/DawPlus/healing-server-sub000/internal/module"
	"github.com/DawPlus/healing-server-sub000/internal/roster"
)

var errMissingID = errors.New("row has no identifier")

// Form is a mounted survey module.
type Form interface {
	ID() module.ID
	// Rows renders the current rows in the module's own spelling.
	Rows() []fieldmap.Row
	// Participants reads the rows back into roster form.
	Participants() roster.Roster
	// Observed lists the participant ids of the last payload seen on the bus.
	Observed() []string
	OnBroadcast(p bus.Payload)
}

var factories = map[module.ID]func() Form{
	module.Program:    newProgram,
	module.Facility:   newFacility,
	module.Prevention: newPrevention,
	module.Healing:    newHealing,
	module.Counsel:    newCounsel,
	module.HRV:        newHRV,
	module.Vibra:      newVibra,
	module.Gambling:   newGambling,
}

// New builds a fresh, empty form for id.
func New(id module.ID) (Form, error) {
	factory, ok := factories[id]
	if !ok {
		return nil, fmt.Errorf("surveys: unknown module %q", id)
	}
	return factory(), nil
}

// Handle is what a form registers with the bridge: the form itself, or nil
// when it exposes no update operation and only follows the bus.
func Handle(f Form) module.Handle {
	if module.Probe(f) == module.CapabilityNone {
		return nil
	}
	return f
}

// NewAll builds one form per id, in order.
func NewAll(ids []module.ID) ([]Form, error) {
	forms := make([]Form, 0, len(ids))
	for _, id := range ids {
		f, err := New(id)
		if err != nil {
			return nil, err
		}
		forms = append(forms, f)
	}
	return forms, nil
}

// codec is a module's private mapping between its typed row and the wire row.
type codec[R any] struct {
	decode      func(fieldmap.Row) (R, error)
	encode      func(R) fieldmap.Row
	key         func(R) string
	participant func(R) roster.Participant
}

// sheet stores typed rows. Modules expose its operations under the method
// names their form supports.
type sheet[R any] struct {
	id    module.ID
	codec codec[R]
	// selfServe modules mount without a handle and load rows from the bus.
	selfServe bool

	mu       sync.RWMutex
	rows     []R
	observed []string
}

func newSheet[R any](id module.ID, c codec[R]) *sheet[R] {
	return &sheet[R]{id: id, codec: c}
}

func (s *sheet[R]) ID() module.ID { return s.id }

func (s *sheet[R]) Rows() []fieldmap.Row {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]fieldmap.Row, 0, len(s.rows))
	for _, r := range s.rows {
		out = append(out, s.codec.encode(r))
	}
	return out
}

func (s *sheet[R]) Participants() roster.Roster {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(roster.Roster, 0, len(s.rows))
	for _, r := range s.rows {
		out = append(out, s.codec.participant(r))
	}
	return out
}

func (s *sheet[R]) Observed() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.observed...)
}

func (s *sheet[R]) OnBroadcast(p bus.Payload) {
	if p.ModuleID != s.id {
		return
	}
	s.mu.Lock()
	s.observed = p.Roster.IDs()
	s.mu.Unlock()
	if s.selfServe {
		s.replaceAll(p.NormalizedRows)
	}
}

// replaceAll swaps every row. Nothing changes if any row fails to decode.
func (s *sheet[R]) replaceAll(rows []fieldmap.Row) bool {
	next := make([]R, 0, len(rows))
	for _, row := range rows {
		r, err := s.codec.decode(row)
		if err != nil {
			return false
		}
		next = append(next, r)
	}
	s.mu.Lock()
	s.rows = next
	s.mu.Unlock()
	return true
}

// setRow upserts rowID from rows and drops rows no longer present in rows.
func (s *sheet[R]) setRow(rowID string, rows []fieldmap.Row) bool {
	if rowID == "" {
		return false
	}
	var (
		found  bool
		update R
		keep   = make(map[string]struct{}, len(rows))
		order  = make([]string, 0, len(rows))
	)
	for _, row := range rows {
		r, err := s.codec.decode(row)
		if err != nil {
			return false
		}
		k := s.codec.key(r)
		keep[k] = struct{}{}
		order = append(order, k)
		if k == rowID {
			update, found = r, true
		}
	}
	if !found {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	byKey := make(map[string]R, len(s.rows)+1)
	for _, r := range s.rows {
		if _, ok := keep[s.codec.key(r)]; ok {
			byKey[s.codec.key(r)] = r
		}
	}
	byKey[rowID] = update
	next := make([]R, 0, len(byKey))
	for _, k := range order {
		if r, ok := byKey[k]; ok {
			next = append(next, r)
		}
	}
	s.rows = next
	return true
}

// rawSheet keeps the wire rows as-is and decodes on read.
type rawSheet[R any] struct {
	id    module.ID
	codec codec[R]

	mu       sync.RWMutex
	raw      []fieldmap.Row
	observed []string
}

func newRawSheet[R any](id module.ID, c codec[R]) *rawSheet[R] {
	return &rawSheet[R]{id: id, codec: c}
}

func (s *rawSheet[R]) ID() module.ID { return s.id }

func (s *rawSheet[R]) Rows() []fieldmap.Row {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]fieldmap.Row, len(s.raw))
	for i, row := range s.raw {
		out[i] = row.Clone()
	}
	return out
}

func (s *rawSheet[R]) Participants() roster.Roster {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(roster.Roster, 0, len(s.raw))
	for _, row := range s.raw {
		if r, err := s.codec.decode(row); err == nil {
			out = append(out, s.codec.participant(r))
		}
	}
	return out
}

func (s *rawSheet[R]) Observed() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.observed...)
}

func (s *rawSheet[R]) OnBroadcast(p bus.Payload) {
	if p.ModuleID != s.id {
		return
	}
	s.mu.Lock()
	s.observed = p.Roster.IDs()
	s.mu.Unlock()
}

// slot hands out the backing slice for direct assignment. Writers hold the
// sheet lock through Lock and Unlock.
func (s *rawSheet[R]) slot() *[]fieldmap.Row {
	return &s.raw
}

func (s *rawSheet[R]) Lock()   { s.mu.Lock() }
func (s *rawSheet[R]) Unlock() { s.mu.Unlock() }

func required(row fieldmap.Row, key string) (string, error) {
	v := row.String(key)
	if v == "" {
		return "", fmt.Errorf("%w: %s", errMissingID, key)
	}
	return v, nil
}

func person(id, name, sex, age, residence, job, period string) roster.Participant {
	return roster.NewParticipantWithID(id, roster.Personal{
		Name:                name,
		Sex:                 roster.ParseSex(sex),
		Age:                 age,
		Residence:           roster.ParseResidence(residence),
		Job:                 roster.ParseJob(job),
		ParticipationPeriod: roster.ParsePeriod(period),
	})
}
