// Package types contains common types used across the application
package types

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownDimension is returned when a dimension name cannot be parsed.
var ErrUnknownDimension = errors.New("unknown dimension")

// ErrUnknownSeverity is returned when a severity name cannot be parsed.
var ErrUnknownSeverity = errors.New("unknown severity")

// Dimension is one of the five independently tracked fitness facets.
type Dimension int

// Dimensions in their canonical order. The order is used for deterministic
// iteration and for tie-breaking.
const (
	Efficiency Dimension = iota
	PowerProfile
	Cardio
	Strength
	Flexibility
)

// DimensionCount is the number of tracked dimensions.
const DimensionCount = 5

var dimensionNames = [DimensionCount]string{
	Efficiency:   "efficiency",
	PowerProfile: "power_profile",
	Cardio:       "cardio",
	Strength:     "strength",
	Flexibility:  "flexibility",
}

// AllDimensions returns every dimension in canonical order.
func AllDimensions() []Dimension {
	return []Dimension{Efficiency, PowerProfile, Cardio, Strength, Flexibility}
}

// Valid reports whether d is one of the known dimensions.
func (d Dimension) Valid() bool {
	return d >= Efficiency && d <= Flexibility
}

func (d Dimension) String() string {
	if !d.Valid() {
		return fmt.Sprintf("dimension(%d)", int(d))
	}
	return dimensionNames[d]
}

// MarshalText encodes the dimension by name so it can be used as a JSON map key.
func (d Dimension) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownDimension, int(d))
	}
	return []byte(d.String()), nil
}

// UnmarshalText decodes a dimension name.
func (d *Dimension) UnmarshalText(b []byte) error {
	parsed, err := ParseDimension(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseDimension parses a dimension name. A few common aliases are accepted.
func ParseDimension(s string) (Dimension, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "efficiency", "ef":
		return Efficiency, nil
	case "power_profile", "power", "powerprofile":
		return PowerProfile, nil
	case "cardio", "cardio_efficiency", "hr":
		return Cardio, nil
	case "strength", "volume_load":
		return Strength, nil
	case "flexibility", "rom":
		return Flexibility, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownDimension, s)
}

// Severity classifies how far a dimension lags behind the others.
type Severity int

// Severity tiers, from least to most severe.
const (
	SeverityNone Severity = iota
	SeverityMinor
	SeverityModerate
	SeverityMajor
	SeverityCritical
)

var severityNames = [...]string{
	SeverityNone:     "none",
	SeverityMinor:    "minor",
	SeverityModerate: "moderate",
	SeverityMajor:    "major",
	SeverityCritical: "critical",
}

func (s Severity) String() string {
	if s < SeverityNone || s > SeverityCritical {
		return fmt.Sprintf("severity(%d)", int(s))
	}
	return severityNames[s]
}

// Priority ranks severities for sorting: none=1 ... critical=5.
func (s Severity) Priority() int {
	return int(s) + 1
}

// MarshalText encodes the severity by name.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a severity name.
func (s *Severity) UnmarshalText(b []byte) error {
	parsed, err := ParseSeverity(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseSeverity parses a severity name.
func ParseSeverity(s string) (Severity, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range severityNames {
		if n == name {
			return Severity(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownSeverity, s)
}

// Entry represents a progress leaderboard entry
type Entry struct {
	Rank       int     `json:"rank"`
	AthleteID  string  `json:"athlete_id"`
	Score      float64 `json:"score"`
	Bottleneck string  `json:"bottleneck"`
}
