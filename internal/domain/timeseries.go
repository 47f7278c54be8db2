package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// DefaultTimezone is applied to series created without one.
const DefaultTimezone = "UTC"

// DataPoint is one stored sample. TS keeps the string exactly as submitted.
type DataPoint struct {
	TS    string   `json:"ts"`
	Value *float64 `json:"value"`
}

// DatedPoint is a DataPoint whose timestamp has been resolved in a zone.
type DatedPoint struct {
	TS    time.Time `json:"ts"`
	Value float64   `json:"value"`
}

// SynthesisOrigin records the inputs of a series derived from an IDF table.
type SynthesisOrigin struct {
	IDFTableID        int64   `json:"idf_table"`
	TemporalPatternID int64   `json:"temporal_pattern"`
	DurationMins      float64 `json:"duration_in_mins"`
	Frequency         string  `json:"frequency"`
	TotalDepth        float64 `json:"total_depth"`
}

// TimeSeries is an ordered list of timestamped values in one timezone.
type TimeSeries struct {
	ID           int64            `json:"id"`
	ProjectID    int64            `json:"project"`
	Name         string           `json:"name"`
	LocationName string           `json:"location_name,omitempty"`
	Source       string           `json:"source"`
	Notes        string           `json:"notes,omitempty"`
	Timezone     string           `json:"timezone"`
	Data         []DataPoint      `json:"data"`
	Origin       *SynthesisOrigin `json:"origin,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// UnmarshalJSON applies the default timezone when the field is absent.
func (s *TimeSeries) UnmarshalJSON(data []byte) error {
	type plain TimeSeries
	decoded := plain{Timezone: DefaultTimezone}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*s = TimeSeries(decoded)
	return nil
}

func (s *TimeSeries) Validate() error {
	var errs ValidationErrors

	if strings.TrimSpace(s.Name) == "" {
		errs.add("name", "This field is required.")
	}
	if _, err := LoadLocation(s.Timezone); err != nil {
		errs.add("timezone", err.(*ValidationError).Message)
	}

	for _, p := range s.Data {
		if p.TS == "" || p.Value == nil {
			errs.add("data", "The {ts, value} fields are required in each data point.")
			break
		}
		if _, _, err := ParseTimestamp(p.TS); err != nil {
			errs.add("data", "All timestamps must be in ISO 8601 format.")
			break
		}
	}

	return errs.err()
}

// DataWithDatetimes resolves every point in the series timezone. The wall
// clock of each stored timestamp is kept and any offset in the string is
// discarded.
func (s *TimeSeries) DataWithDatetimes() ([]DatedPoint, error) {
	loc, err := LoadLocation(s.Timezone)
	if err != nil {
		return nil, err
	}
	out := make([]DatedPoint, 0, len(s.Data))
	for i, p := range s.Data {
		if p.Value == nil {
			return nil, invalid("data", "The {ts, value} fields are required in each data point.")
		}
		ts, _, err := ParseTimestamp(p.TS)
		if err != nil {
			return nil, invalid("data", "All timestamps must be in ISO 8601 format.")
		}
		out = append(out, DatedPoint{TS: inZone(ts, loc), Value: *s.Data[i].Value})
	}
	return out, nil
}

// NormalizedData returns the points with RFC 3339 timestamps in the series zone.
func (s *TimeSeries) NormalizedData() ([]DataPoint, error) {
	dated, err := s.DataWithDatetimes()
	if err != nil {
		return nil, err
	}
	out := make([]DataPoint, len(dated))
	for i, p := range dated {
		v := p.Value
		out[i] = DataPoint{TS: p.TS.Format(time.RFC3339Nano), Value: &v}
	}
	return out, nil
}

func (s *TimeSeries) Touch() {
	now := Now()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
}

// Float returns a pointer to v, for building data points.
func Float(v float64) *float64 { return &v }
