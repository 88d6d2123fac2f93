package module

import (
	"fmt"
	"strings"
)

// ID names one survey module. The set is closed; Parse rejects anything else.
type ID string

const (
	Program    ID = "program"
	Facility   ID = "facility"
	Prevention ID = "prevention"
	Healing    ID = "healing"
	Counsel    ID = "counsel"
	HRV        ID = "hrv"
	Vibra      ID = "vibra"
	Gambling   ID = "gambling"
)

var all = []ID{Program, Facility, Prevention, Healing, Counsel, HRV, Vibra, Gambling}

// All returns every module id in broadcast order.
func All() []ID {
	return append([]ID{}, all...)
}

// Valid reports whether id belongs to the closed set.
func (id ID) Valid() bool {
	for _, known := range all {
		if id == known {
			return true
		}
	}
	return false
}

func (id ID) String() string { return string(id) }

// Parse normalizes and validates a module id.
func Parse(value string) (ID, error) {
	id := ID(strings.ToLower(strings.TrimSpace(value)))
	if !id.Valid() {
		return "", fmt.Errorf("module: unknown id %q", value)
	}
	return id, nil
}

// ParseList parses ids, rejecting unknown and repeated entries.
func ParseList(values []string) ([]ID, error) {
	ids := make([]ID, 0, len(values))
	seen := make(map[ID]struct{}, len(values))
	for _, v := range values {
		id, err := Parse(v)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("module: %s listed twice", id)
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}
