package roster

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// ErrValidation matches every ValidationError via errors.Is.
var ErrValidation = errors.New("roster: validation failed")

// ValidationKind names why a roster cannot be broadcast.
type ValidationKind string

const (
	MissingParticipant ValidationKind = "missing-participant"
	MissingName        ValidationKind = "missing-name"
)

// ValidationError blocks an entire broadcast.
type ValidationError struct {
	Kind          ValidationKind
	Index         int
	ParticipantID string
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case MissingParticipant:
		return "roster: at least one participant is required"
	case MissingName:
		return fmt.Sprintf("roster: participant %d (%s) has no name", e.Index+1, e.ParticipantID)
	default:
		return fmt.Sprintf("roster: invalid roster (%s)", e.Kind)
	}
}

// Is lets callers match with errors.Is(err, ErrValidation).
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ValidateForBroadcast fails on an empty roster or on the first participant
// whose name is blank. Holding such a roster is fine; broadcasting it is not.
func ValidateForBroadcast(r Roster) error {
	if len(r) == 0 {
		return &ValidationError{Kind: MissingParticipant, Index: -1}
	}
	for i, p := range r {
		if strings.TrimSpace(p.Personal.Name) == "" {
			return &ValidationError{Kind: MissingName, Index: i, ParticipantID: p.ID}
		}
	}
	return nil
}

// ComputeFingerprint digests participant ids in order. Each id is length
// prefixed so ["ab","c"] and ["a","bc"] differ.
func ComputeFingerprint(r Roster) string {
	h := sha256.New()
	var size [8]byte
	binary.BigEndian.PutUint64(size[:], uint64(len(r)))
	h.Write(size[:])
	for _, p := range r {
		binary.BigEndian.PutUint64(size[:], uint64(len(p.ID)))
		h.Write(size[:])
		h.Write([]byte(p.ID))
	}
	return hex.EncodeToString(h.Sum(nil))
}
