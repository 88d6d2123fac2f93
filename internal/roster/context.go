package roster

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

// DateLayout is the ISO calendar date format used for open and eval dates.
const DateLayout = "2006-01-02"

// ErrUnknownAgency is returned when an agency id cannot be resolved.
var ErrUnknownAgency = errors.New("roster: unknown agency")

// OrganizationContext is the session-wide context every module receives.
type OrganizationContext struct {
	Agency   string `json:"agency" yaml:"agency"`
	AgencyID *int   `json:"agencyId" yaml:"agency_id"`
	OpenDay  string `json:"openDay" yaml:"open_day" validate:"omitempty,datetime=2006-01-02"`
	EvalDate string `json:"evalDate" yaml:"eval_date" validate:"omitempty,datetime=2006-01-02"`
	Program  string `json:"program" yaml:"program"`
}

// NewContext returns an empty context whose eval date defaults to today.
func NewContext(now time.Time) OrganizationContext {
	if now.IsZero() {
		now = time.Now()
	}
	return OrganizationContext{EvalDate: now.Format(DateLayout)}
}

// AgencyIDString renders the agency id, or "" when unset.
func (c OrganizationContext) AgencyIDString() string {
	if c.AgencyID == nil {
		return ""
	}
	return strconv.Itoa(*c.AgencyID)
}

// Validate checks that dates, when present, are ISO calendar dates.
func (c OrganizationContext) Validate() error {
	if err := contextValidator().Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return fmt.Errorf("roster: context %s must be a %s date", fieldErrs[0].Field(), DateLayout)
		}
		return fmt.Errorf("roster: context: %w", err)
	}
	return nil
}

func (c *OrganizationContext) normalize() {
	c.Agency = strings.TrimSpace(c.Agency)
	c.OpenDay = strings.TrimSpace(c.OpenDay)
	c.EvalDate = strings.TrimSpace(c.EvalDate)
	c.Program = strings.TrimSpace(c.Program)
}

// Agency is one selectable organization.
type Agency struct {
	ID   int    `yaml:"id" validate:"required,gt=0"`
	Name string `yaml:"name" validate:"required"`
}

// AgencyDirectory resolves agency ids to names. The real catalog lives in the
// remote data store; tests and the CLI use StaticDirectory.
type AgencyDirectory interface {
	LookupAgency(id int) (Agency, bool)
}

// StaticDirectory is an in-memory AgencyDirectory.
type StaticDirectory map[int]Agency

// NewStaticDirectory indexes the given agencies by id.
func NewStaticDirectory(agencies ...Agency) StaticDirectory {
	dir := make(StaticDirectory, len(agencies))
	for _, a := range agencies {
		dir[a.ID] = a
	}
	return dir
}

// LookupAgency implements AgencyDirectory.
func (d StaticDirectory) LookupAgency(id int) (Agency, bool) {
	a, ok := d[id]
	return a, ok
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func contextValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}
