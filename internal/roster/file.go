package roster

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// File is the on-disk form of a session: the organization context plus the
// participants in order.
type File struct {
	Context      OrganizationContext `yaml:"context"`
	Participants Roster              `yaml:"participants"`
}

// LoadFile reads a session file. Participants without an id get a fresh one.
func LoadFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("roster: read %s: %w", path, err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("roster: parse %s: %w", path, err)
	}
	for i := range f.Participants {
		p := &f.Participants[i]
		p.Personal.Sex = ParseSex(string(p.Personal.Sex))
		if p.Personal.Residence != "" {
			p.Personal.Residence = ParseResidence(string(p.Personal.Residence))
		}
		if p.Personal.Job != "" {
			p.Personal.Job = ParseJob(string(p.Personal.Job))
		}
		p.Personal.ParticipationPeriod = ParsePeriod(string(p.Personal.ParticipationPeriod))
		if p.ID == "" {
			*p = NewParticipant(p.Personal)
		}
		p.Personal.Normalize()
	}
	f.Context.normalize()
	if err := f.Context.Validate(); err != nil {
		return File{}, err
	}
	return f, nil
}

// LoadFileIfExists is LoadFile that reports ok=false for a missing file.
func LoadFileIfExists(path string) (File, bool, error) {
	f, err := LoadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return File{}, false, nil
	}
	if err != nil {
		return File{}, false, err
	}
	return f, true, nil
}

// SaveFile writes f to path, creating parent directories.
func SaveFile(path string, f File) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("roster: ensure %s: %w", filepath.Dir(path), err)
	}
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("roster: encode: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Snapshot captures the store as a File.
func (s *Store) Snapshot() File {
	return File{Context: s.Context(), Participants: s.Roster()}
}

// Load replaces roster and context with f. When f names an agency id but no
// agency, the name is resolved from the directory.
func (s *Store) Load(f File) error {
	if err := s.Replace(f.Participants); err != nil {
		return err
	}
	ctx := f.Context
	if err := s.SetContext(func(c *OrganizationContext) {
		*c = ctx
		if ctx.AgencyID != nil {
			id := *ctx.AgencyID
			c.AgencyID = &id
		}
	}); err != nil {
		return err
	}
	if ctx.AgencyID != nil && ctx.Agency == "" {
		return s.SelectAgency(*ctx.AgencyID)
	}
	return nil
}
