// Package roster holds the canonical participant roster and organization
// context shared by every survey module, plus the pure helpers the sync
// bridge needs to gate and fingerprint a broadcast.
package roster

import (
	"strings"

	"github.com/google/uuid"
)

// Sex is the participant's recorded sex.
type Sex string

const (
	SexMale        Sex = "male"
	SexFemale      Sex = "female"
	SexUnspecified Sex = "unspecified"
)

// ParseSex maps free-form input onto a known value. Unknown input is unspecified.
func ParseSex(value string) Sex {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "male", "m", "남", "남자":
		return SexMale
	case "female", "f", "여", "여자":
		return SexFemale
	default:
		return SexUnspecified
	}
}

// Residence is a region code.
type Residence string

const ResidenceUnspecified Residence = "unspecified"

var residences = []Residence{
	"Seoul", "Busan", "Daegu", "Incheon", "Gwangju", "Daejeon", "Ulsan", "Sejong",
	"Gyeonggi", "Gangwon", "Chungbuk", "Chungnam", "Jeonbuk", "Jeonnam",
	"Gyeongbuk", "Gyeongnam", "Jeju",
}

// Residences lists the known region codes in display order.
func Residences() []Residence {
	return append([]Residence{}, residences...)
}

// ParseResidence matches a region code case-insensitively.
func ParseResidence(value string) Residence {
	value = strings.TrimSpace(value)
	for _, r := range residences {
		if strings.EqualFold(string(r), value) {
			return r
		}
	}
	return ResidenceUnspecified
}

// Job is a job category.
type Job string

const JobUnspecified Job = "unspecified"

var jobs = []Job{
	"student", "teacher", "office-worker", "public-servant", "self-employed",
	"professional", "homemaker", "retired", "unemployed", "other",
}

// Jobs lists the known job categories.
func Jobs() []Job {
	return append([]Job{}, jobs...)
}

// ParseJob matches a job category case-insensitively.
func ParseJob(value string) Job {
	value = strings.TrimSpace(value)
	for _, j := range jobs {
		if strings.EqualFold(string(j), value) {
			return j
		}
	}
	return JobUnspecified
}

// ParticipationPeriod describes how long the participant stays. Empty is allowed.
type ParticipationPeriod string

var periods = []ParticipationPeriod{"day-trip", "one-night", "two-nights", "long-stay"}

// Periods lists the known participation periods.
func Periods() []ParticipationPeriod {
	return append([]ParticipationPeriod{}, periods...)
}

// ParsePeriod matches a period case-insensitively; unknown input is empty.
func ParsePeriod(value string) ParticipationPeriod {
	value = strings.TrimSpace(value)
	for _, p := range periods {
		if strings.EqualFold(string(p), value) {
			return p
		}
	}
	return ""
}

// Personal is the editable part of a participant.
type Personal struct {
	Name                string              `json:"name" yaml:"name"`
	Sex                 Sex                 `json:"sex" yaml:"sex"`
	Age                 string              `json:"age" yaml:"age"`
	Residence           Residence           `json:"residence" yaml:"residence"`
	Job                 Job                 `json:"job" yaml:"job"`
	ParticipationPeriod ParticipationPeriod `json:"participationPeriod" yaml:"participation_period"`
}

// Normalize fills enum defaults and trims text fields.
func (p *Personal) Normalize() {
	if p == nil {
		return
	}
	p.Name = strings.TrimSpace(p.Name)
	p.Age = strings.TrimSpace(p.Age)
	if p.Sex == "" {
		p.Sex = SexUnspecified
	}
	if p.Residence == "" {
		p.Residence = ResidenceUnspecified
	}
	if p.Job == "" {
		p.Job = JobUnspecified
	}
}

// Participant is one roster entry. ID is assigned once and never reused;
// Store only hands out mutable access to Personal.
type Participant struct {
	ID       string   `json:"id" yaml:"id"`
	Personal Personal `json:"personal" yaml:"personal"`
}

// NewParticipant creates a participant with a freshly generated id.
func NewParticipant(personal Personal) Participant {
	return NewParticipantWithID(uuid.NewString(), personal)
}

// NewParticipantWithID creates a participant with a caller supplied id, used
// when importing an existing roster.
func NewParticipantWithID(id string, personal Personal) Participant {
	personal.Normalize()
	return Participant{ID: strings.TrimSpace(id), Personal: personal}
}

// Roster is the ordered participant list. Index 0 is the template row.
type Roster []Participant

// Clone returns a copy that shares no backing array with r.
func (r Roster) Clone() Roster {
	if r == nil {
		return nil
	}
	return append(Roster{}, r...)
}

// IDs returns participant ids in roster order.
func (r Roster) IDs() []string {
	ids := make([]string, 0, len(r))
	for _, p := range r {
		ids = append(ids, p.ID)
	}
	return ids
}

// IndexOf returns the position of id, or -1.
func (r Roster) IndexOf(id string) int {
	for i, p := range r {
		if p.ID == id {
			return i
		}
	}
	return -1
}
