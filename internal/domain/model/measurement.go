package model

import (
	"fmt"
	"time"
)

// Measurement is one ingested observation for an athlete. Any subset of the
// snapshots may be set; FTP and Weight update the current WPR inputs.
type Measurement struct {
	ID        string    `json:"id"`
	AthleteID string    `json:"athlete_id"`
	Snapshots Snapshots `json:"snapshots"`
	FTP       int       `json:"ftp,omitempty"`
	Weight    float64   `json:"weight,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// HasWPRUpdate reports whether the measurement carries a new FTP and weight.
func (m Measurement) HasWPRUpdate() bool {
	return m.FTP > 0 && m.Weight > 0
}

// Validate checks that the measurement identifies an athlete and carries valid data.
func (m Measurement) Validate() error {
	if m.AthleteID == "" {
		return fmt.Errorf("%w: athlete_id is required", ErrInvalidValue)
	}
	if m.FTP < 0 || m.Weight < 0 {
		return fmt.Errorf("%w: ftp and weight must be positive", ErrInvalidValue)
	}
	if m.Snapshots.Count() == 0 && !m.HasWPRUpdate() {
		return fmt.Errorf("%w: measurement carries no data", ErrInvalidValue)
	}
	return m.Snapshots.Validate()
}
