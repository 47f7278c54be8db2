package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// SynthesisRequest selects the IDF row and column a design storm is built from.
type SynthesisRequest struct {
	DurationMins      float64 `json:"duration_in_mins"`
	Frequency         string  `json:"frequency"`
	TemporalPatternID int64   `json:"temporal_pattern"`
	Name              string  `json:"name,omitempty"`
	Timezone          string  `json:"timezone,omitempty"`
	// Start is the ISO-8601 time of the first point; empty means the Unix epoch.
	// A value with an offset or a trailing "Z" is an instant; otherwise it is
	// wall-clock time in Timezone.
	Start string `json:"start,omitempty"`
}

func (r SynthesisRequest) Validate() error {
	var errs ValidationErrors
	if r.DurationMins <= 0 || math.IsNaN(r.DurationMins) || math.IsInf(r.DurationMins, 0) {
		errs.add("duration_in_mins", "must be a positive number of minutes")
	} else if r.DurationMins > MaxDurationMins {
		errs.add("duration_in_mins", fmt.Sprintf("must be at most %g minutes", MaxDurationMins))
	}
	if _, err := LookupFrequency(r.Frequency); err != nil {
		errs.add("frequency", err.(*ValidationError).Message)
	}
	if r.TemporalPatternID <= 0 {
		errs.add("temporal_pattern", "This field is required.")
	}
	if r.Timezone != "" {
		if _, err := LoadLocation(r.Timezone); err != nil {
			errs.add("timezone", err.(*ValidationError).Message)
		}
	}
	if r.Start != "" {
		if _, _, err := ParseInstant(r.Start); err != nil {
			errs.add("start", "All timestamps must be in ISO 8601 format.")
		}
	}
	return errs.err()
}

// Synthesize builds a design-storm series: the table's depth for the chosen
// duration and frequency is spread over the pattern's sub-intervals.
//
// An N-value pattern yields N+1 points spaced duration*60/N seconds apart.
// Point i carries total*p[i]; the final point repeats p[N-1] so the series
// closes at start+duration.
func Synthesize(table *IDFTable, pattern *TemporalPattern, req SynthesisRequest) (*TimeSeries, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := pattern.Validate(); err != nil {
		return nil, err
	}
	total, err := table.DepthFor(req.DurationMins, req.Frequency)
	if err != nil {
		return nil, err
	}

	tz := req.Timezone
	if tz == "" {
		tz = DefaultTimezone
	}
	loc, err := LoadLocation(tz)
	if err != nil {
		return nil, err
	}

	start := time.Unix(0, 0)
	if req.Start != "" {
		ts, hasOffset, err := ParseInstant(req.Start)
		if err != nil {
			return nil, invalid("start", "All timestamps must be in ISO 8601 format.")
		}
		if !hasOffset {
			ts = inZone(ts, loc)
		}
		start = ts
	}

	proportions := pattern.Proportions()
	n := len(proportions)
	step := time.Duration(math.Round(req.DurationMins * 60 / float64(n) * float64(time.Second)))

	data := make([]DataPoint, 0, n+1)
	for i := 0; i <= n; i++ {
		p := proportions[min(i, n-1)]
		ts := start.Add(time.Duration(i) * step).In(loc)
		data = append(data, DataPoint{TS: ts.Format(time.RFC3339Nano), Value: Float(total * p)})
	}

	freq, _ := LookupFrequency(req.Frequency)
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = fmt.Sprintf("%s %s %gmin %s", table.LocationName, freq.Label, req.DurationMins, pattern.Name)
	}

	return &TimeSeries{
		ProjectID:    table.ProjectID,
		Name:         name,
		LocationName: table.LocationName,
		Source:       table.Source,
		Timezone:     tz,
		Data:         data,
		Origin: &SynthesisOrigin{
			IDFTableID:        table.ID,
			TemporalPatternID: pattern.ID,
			DurationMins:      req.DurationMins,
			Frequency:         req.Frequency,
			TotalDepth:        total,
		},
	}, nil
}
