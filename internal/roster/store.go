package roster

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Field selects a Personal attribute for UnifyFromTemplate.
type Field string

const (
	FieldSex                 Field = "sex"
	FieldAge                 Field = "age"
	FieldResidence           Field = "residence"
	FieldJob                 Field = "job"
	FieldParticipationPeriod Field = "participationPeriod"
)

// Store owns the session roster and context. Only the entity-owner UI
// mutates it; the sync bridge reads snapshots. Mutations never trigger a
// broadcast on their own.
type Store struct {
	mu        sync.RWMutex
	roster    Roster
	context   OrganizationContext
	directory AgencyDirectory
}

// NewStore creates an empty store. directory may be nil when agency lookup
// is not available.
func NewStore(directory AgencyDirectory, now time.Time) *Store {
	return &Store{
		context:   NewContext(now),
		directory: directory,
	}
}

// Roster returns a snapshot of the roster.
func (s *Store) Roster() Roster {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.roster.Clone()
}

// Context returns a copy of the organization context.
func (s *Store) Context() OrganizationContext {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ctx := s.context
	if ctx.AgencyID != nil {
		id := *ctx.AgencyID
		ctx.AgencyID = &id
	}
	return ctx
}

// Len returns the number of participants.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.roster)
}

// Add appends a participant. Duplicate or empty ids are rejected.
func (s *Store) Add(p Participant) error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("roster: participant id is required")
	}
	p.Personal.Normalize()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.roster.IndexOf(p.ID) >= 0 {
		return fmt.Errorf("roster: participant %s already present", p.ID)
	}
	s.roster = append(s.roster, p)
	return nil
}

// AddBlank appends a participant with a new id and no personal data.
func (s *Store) AddBlank() Participant {
	p := NewParticipant(Personal{})
	s.mu.Lock()
	s.roster = append(s.roster, p)
	s.mu.Unlock()
	return p
}

// Replace swaps the whole roster, e.g. after importing a file.
func (s *Store) Replace(r Roster) error {
	seen := make(map[string]struct{}, len(r))
	next := make(Roster, 0, len(r))
	for _, p := range r {
		if strings.TrimSpace(p.ID) == "" {
			return fmt.Errorf("roster: participant id is required")
		}
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("roster: participant %s already present", p.ID)
		}
		seen[p.ID] = struct{}{}
		p.Personal.Normalize()
		next = append(next, p)
	}
	s.mu.Lock()
	s.roster = next
	s.mu.Unlock()
	return nil
}

// Remove deletes the participant with id. It reports whether anything changed.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.roster.IndexOf(id)
	if idx < 0 {
		return false
	}
	s.roster = append(s.roster[:idx:idx], s.roster[idx+1:]...)
	return true
}

// Update edits the personal record of id in place. The id itself cannot change.
func (s *Store) Update(id string, edit func(*Personal)) error {
	if edit == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.roster.IndexOf(id)
	if idx < 0 {
		return fmt.Errorf("roster: participant %s not found", id)
	}
	personal := s.roster[idx].Personal
	edit(&personal)
	personal.Normalize()
	s.roster[idx].Personal = personal
	return nil
}

// UnifyFromTemplate copies the chosen fields of the first participant onto
// every other participant. An unknown field rejects the call before any row
// changes.
func (s *Store) UnifyFromTemplate(fields ...Field) error {
	for _, f := range fields {
		if !f.unifiable() {
			return fmt.Errorf("roster: field %q cannot be unified", f)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.roster) == 0 {
		return &ValidationError{Kind: MissingParticipant, Index: -1}
	}
	tpl := s.roster[0].Personal
	for i := 1; i < len(s.roster); i++ {
		p := &s.roster[i].Personal
		for _, f := range fields {
			switch f {
			case FieldSex:
				p.Sex = tpl.Sex
			case FieldAge:
				p.Age = tpl.Age
			case FieldResidence:
				p.Residence = tpl.Residence
			case FieldJob:
				p.Job = tpl.Job
			case FieldParticipationPeriod:
				p.ParticipationPeriod = tpl.ParticipationPeriod
			}
		}
	}
	return nil
}

func (f Field) unifiable() bool {
	switch f {
	case FieldSex, FieldAge, FieldResidence, FieldJob, FieldParticipationPeriod:
		return true
	}
	return false
}

// SetContext edits the organization context. Agency name/id consistency is
// the caller's concern here; use SelectAgency to pick by id.
func (s *Store) SetContext(edit func(*OrganizationContext)) error {
	if edit == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.context
	edit(&next)
	next.normalize()
	if err := next.Validate(); err != nil {
		return err
	}
	s.context = next
	return nil
}

// SelectAgency sets the agency id and overwrites the name from the directory.
func (s *Store) SelectAgency(id int) error {
	if s.directory == nil {
		return fmt.Errorf("%w: no agency directory configured", ErrUnknownAgency)
	}
	agency, ok := s.directory.LookupAgency(id)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownAgency, id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	agencyID := agency.ID
	s.context.AgencyID = &agencyID
	s.context.Agency = agency.Name
	return nil
}

// ClearAgency removes both agency id and name.
func (s *Store) ClearAgency() {
	s.mu.Lock()
	s.context.AgencyID = nil
	s.context.Agency = ""
	s.mu.Unlock()
}
