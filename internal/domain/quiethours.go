package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// The DefaultQuietHours* constants give the window used when no
// QuietHours row exists for an account: disabled, with a default overnight window that would apply
// were it ever enabled without the caller specifying times.
const (
	DefaultQuietHoursStart = "22:00"
	DefaultQuietHoursEnd   = "08:00"
	DefaultQuietHoursZone  = "UTC"
)

var hhmmPattern = regexp.MustCompile(`^([01]?\d|2[0-3]):[0-5]\d$`)

// QuietHoursConfig is the per-account quiet-hours window, as persisted
// by the QuietHours entity.
type QuietHoursConfig struct {
	TenantID  string
	AccountID string
	Enabled   bool
	StartTime string // HH:MM
	EndTime   string // HH:MM
	Timezone  string // IANA zone name
}

// DefaultQuietHoursConfig returns the config used when no row exists:
// disabled, with the documented default window.
func DefaultQuietHoursConfig(tenantID, accountID string) QuietHoursConfig {
	return QuietHoursConfig{
		TenantID:  tenantID,
		AccountID: accountID,
		Enabled:   false,
		StartTime: DefaultQuietHoursStart,
		EndTime:   DefaultQuietHoursEnd,
		Timezone:  DefaultQuietHoursZone,
	}
}

// ValidateHHMM rejects any string not matching /^([01]?\d|2[0-3]):[0-5]\d$/.
// Used to validate administrative writes to quiet-hours config.
func ValidateHHMM(s string) error {
	if !hhmmPattern.MatchString(s) {
		return NewErrValidation("time", fmt.Sprintf("%q is not a valid HH:MM time", s))
	}
	return nil
}

// IsValidTimezone reports whether name loads as an IANA zone.
func IsValidTimezone(name string) bool {
	_, err := time.LoadLocation(name)
	return err == nil
}

// QuietHoursEngine is a pure temporal predicate: no I/O, no stored
// state, just arithmetic over a config and an instant.
type QuietHoursEngine struct{}

func NewQuietHoursEngine() *QuietHoursEngine {
	return &QuietHoursEngine{}
}

// IsInQuietHours decides whether atInstant falls within config's window,
// evaluated in config.Timezone. An unloadable timezone falls back to UTC
// for evaluation (administrative writes must still reject it - see
// ValidateHHMM / IsValidTimezone, enforced by the preference handler).
func (e *QuietHoursEngine) IsInQuietHours(config QuietHoursConfig, atInstant time.Time) bool {
	if !config.Enabled {
		return false
	}

	loc, err := time.LoadLocation(config.Timezone)
	if err != nil {
		loc = time.UTC
	}

	local := atInstant.In(loc)
	current := local.Hour()*60 + local.Minute()

	start, errStart := parseHHMMMinutes(config.StartTime)
	end, errEnd := parseHHMMMinutes(config.EndTime)
	if errStart != nil || errEnd != nil {
		return false
	}

	if start > end {
		// Overnight window: inclusive start, exclusive end, wrapping midnight.
		return current >= start || current < end
	}
	return current >= start && current < end
}

// NextEndInstant returns the next wall-clock occurrence of config.EndTime
// in config.Timezone strictly after fromInstant (an instant exactly at
// EndTime yields the next day's occurrence), or nil if quiet hours are
// disabled.
func (e *QuietHoursEngine) NextEndInstant(config QuietHoursConfig, fromInstant time.Time) *time.Time {
	if !config.Enabled {
		return nil
	}

	loc, err := time.LoadLocation(config.Timezone)
	if err != nil {
		loc = time.UTC
	}

	endMinutes, err := parseHHMMMinutes(config.EndTime)
	if err != nil {
		return nil
	}

	local := fromInstant.In(loc)
	candidate := time.Date(local.Year(), local.Month(), local.Day(), endMinutes/60, endMinutes%60, 0, 0, loc)
	if !candidate.After(local) {
		candidate = candidate.AddDate(0, 0, 1)
	}
	result := candidate.In(fromInstant.Location())
	return &result
}

func parseHHMMMinutes(hhmm string) (int, error) {
	parts := strings.SplitN(hhmm, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("malformed HH:MM: %q", hhmm)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, err
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, err
	}
	return h*60 + m, nil
}

// QuietHoursResult wraps a read-side QuietHoursStore lookup with an
// explicit fallback flag, matching PreferenceResult's shape.
type QuietHoursResult struct {
	Config       QuietHoursConfig
	FallbackUsed bool
}
