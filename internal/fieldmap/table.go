// Package fieldmap translates the canonical roster and context into the
// field spelling each survey module expects. The tables are configuration
// owned here, not by the modules.
package fieldmap

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Key is a canonical field name.
type Key string

const (
	KeyName                Key = "name"
	KeySex                 Key = "sex"
	KeyAge                 Key = "age"
	KeyResidence           Key = "residence"
	KeyJob                 Key = "job"
	KeyParticipationPeriod Key = "participationPeriod"
	KeyAgency              Key = "agency"
	KeyAgencyID            Key = "agencyId"
	KeyOpenDay             Key = "openDay"
	KeyEvalDate            Key = "evalDate"
	KeyProgram             Key = "program"
)

// Keys lists the canonical vocabulary, participant keys first.
func Keys() []Key {
	return []Key{
		KeyName, KeySex, KeyAge, KeyResidence, KeyJob, KeyParticipationPeriod,
		KeyAgency, KeyAgencyID, KeyOpenDay, KeyEvalDate, KeyProgram,
	}
}

func isCanonical(k Key) bool {
	for _, known := range Keys() {
		if k == known {
			return true
		}
	}
	return false
}

//go:embed fields.yaml
var builtinYAML []byte

// Table is one module's field map.
type Table struct {
	RowID    string           `yaml:"row_id" validate:"required"`
	Selected string           `yaml:"selected" validate:"required"`
	Fields   map[Key][]string `yaml:"fields" validate:"required,min=1,dive,min=1,dive,required"`
	Defaults map[string]any   `yaml:"defaults,omitempty"`
}

// Spellings returns the keys emitted for canonical key k (nil if not requested).
func (t Table) Spellings(k Key) []string {
	return append([]string(nil), t.Fields[k]...)
}

func (t *Table) normalize() {
	t.RowID = strings.TrimSpace(t.RowID)
	t.Selected = strings.TrimSpace(t.Selected)
	for k, spellings := range t.Fields {
		cleaned := make([]string, 0, len(spellings))
		for _, s := range spellings {
			if s = strings.TrimSpace(s); s != "" {
				cleaned = append(cleaned, s)
			}
		}
		t.Fields[k] = cleaned
	}
}

func (t Table) validate() error {
	if err := tableValidator().Struct(t); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return fmt.Errorf("%s failed %q", fieldErrs[0].Namespace(), fieldErrs[0].Tag())
		}
		return err
	}
	owner := map[string]string{t.RowID: "row_id"}
	if prev, dup := owner[t.Selected]; dup {
		return fmt.Errorf("selected key %q collides with %s", t.Selected, prev)
	}
	owner[t.Selected] = "selected"
	for _, k := range sortedKeys(t.Fields) {
		if !isCanonical(k) {
			return fmt.Errorf("unknown canonical key %q", k)
		}
		for _, spelling := range t.Fields[k] {
			if prev, dup := owner[spelling]; dup {
				return fmt.Errorf("spelling %q for %s collides with %s", spelling, k, prev)
			}
			owner[spelling] = string(k)
		}
	}
	for name := range t.Defaults {
		if prev, dup := owner[name]; dup {
			return fmt.Errorf("default %q collides with %s", name, prev)
		}
	}
	return nil
}

// genericTable serves module ids with no declared table: canonical spellings,
// "id" and "selected".
func genericTable() Table {
	fields := make(map[Key][]string, len(Keys()))
	for _, k := range Keys() {
		fields[k] = []string{string(k)}
	}
	return Table{RowID: "id", Selected: "selected", Fields: fields}
}

// Tables is the full configuration file.
type Tables struct {
	Version int              `yaml:"version"`
	Modules map[string]Table `yaml:"modules"`
}

// Builtin returns the embedded tables.
func Builtin() (Tables, error) {
	return Parse(builtinYAML)
}

// Parse decodes and validates YAML tables.
func Parse(data []byte) (Tables, error) {
	var parsed Tables
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return Tables{}, fmt.Errorf("fieldmap: parse: %w", err)
	}
	if parsed.Version == 0 {
		parsed.Version = 1
	}
	if err := parsed.normalizeAndValidate(); err != nil {
		return Tables{}, err
	}
	return parsed, nil
}

// LoadFile reads tables from path.
func LoadFile(path string) (Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Tables{}, fmt.Errorf("fieldmap: read %s: %w", path, err)
	}
	return Parse(data)
}

// Merge overlays other on t; a module present in other replaces t's table.
func (t Tables) Merge(other Tables) Tables {
	merged := Tables{Version: t.Version, Modules: make(map[string]Table, len(t.Modules)+len(other.Modules))}
	for id, table := range t.Modules {
		merged.Modules[id] = table
	}
	for id, table := range other.Modules {
		merged.Modules[id] = table
	}
	return merged
}

// Marshal renders tables as YAML. When only is non-empty the output is
// limited to that module.
func (t Tables) Marshal(only string) ([]byte, error) {
	out := t
	if only != "" {
		table, ok := t.Modules[only]
		if !ok {
			return nil, fmt.Errorf("fieldmap: no table for module %q", only)
		}
		out = Tables{Version: t.Version, Modules: map[string]Table{only: table}}
	}
	return yaml.Marshal(out)
}

func (t *Tables) normalizeAndValidate() error {
	if t.Version < 1 {
		return fmt.Errorf("fieldmap: version must be >= 1")
	}
	for id, table := range t.Modules {
		table.normalize()
		if err := table.validate(); err != nil {
			return fmt.Errorf("fieldmap: modules[%s]: %w", id, err)
		}
		t.Modules[id] = table
	}
	return nil
}

func sortedKeys(m map[Key][]string) []Key {
	keys := make([]Key, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func tableValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}
