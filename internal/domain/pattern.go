package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// PatternKind tells whether a temporal pattern is written as fractions or percentages.
type PatternKind string

const (
	PatternProportion PatternKind = "proportion"
	PatternPercentage PatternKind = "percentage"
)

const (
	proportionTolerance = 1e-6
	percentageTolerance = 1e-4
)

// TemporalPattern distributes a storm's total depth across equal sub-intervals.
type TemporalPattern struct {
	ID        int64       `json:"id"`
	ProjectID int64       `json:"project"`
	Name      string      `json:"name"`
	Source    string      `json:"source"`
	Notes     string      `json:"notes,omitempty"`
	Pattern   []float64   `json:"pattern"`
	Kind      PatternKind `json:"kind"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// InferKind fills an empty Kind from the pattern's sum: anything that totals
// more than 1.5 is read as percentages.
func (p *TemporalPattern) InferKind() {
	if p.Kind != "" {
		return
	}
	p.Kind = PatternProportion
	if sum(p.Pattern) > 1.5 {
		p.Kind = PatternPercentage
	}
}

func (p *TemporalPattern) Validate() error {
	var errs ValidationErrors

	if strings.TrimSpace(p.Name) == "" {
		errs.add("name", "This field is required.")
	}
	if strings.TrimSpace(p.Source) == "" {
		errs.add("source", "This field is required.")
	}

	var target, tolerance float64
	switch p.Kind {
	case PatternProportion, "":
		target, tolerance = 1, proportionTolerance
	case PatternPercentage:
		target, tolerance = 100, percentageTolerance
	default:
		errs.add("kind", fmt.Sprintf("unknown pattern kind %q (expected proportion or percentage)", string(p.Kind)))
		return errs.err()
	}

	if len(p.Pattern) == 0 {
		errs.add("pattern", "The temporal pattern must contain at least one value.")
		return errs.err()
	}
	for i, v := range p.Pattern {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			errs.add("pattern", fmt.Sprintf("value at index %d must be a non-negative number", i))
			return errs.err()
		}
	}
	if math.Abs(sum(p.Pattern)-target) > tolerance {
		if target == 1 {
			errs.add("pattern", "The temporal pattern must sum to 1. For example: [0.3, 0.4, 0.3, 0.2]")
		} else {
			errs.add("pattern", "The temporal pattern must sum to 100. For example: [30, 40, 30]")
		}
	}

	return errs.err()
}

// Proportions returns the pattern as fractions of the total depth.
func (p *TemporalPattern) Proportions() []float64 {
	out := make([]float64, len(p.Pattern))
	scale := 1.0
	if p.Kind == PatternPercentage {
		scale = 100
	}
	for i, v := range p.Pattern {
		out[i] = v / scale
	}
	return out
}

func (p *TemporalPattern) Touch() {
	now := Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
}

func sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}
