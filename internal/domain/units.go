package domain

import (
	"fmt"
	"strings"
)

// DepthUnit names the unit rainfall depths were published in.
type DepthUnit string

const (
	Millimeters DepthUnit = "mm"
	Centimeters DepthUnit = "cm"
	Inches      DepthUnit = "in"
)

// depthFactors converts one unit of depth into millimeters.
var depthFactors = map[DepthUnit]float64{
	Millimeters: 1,
	Centimeters: 10,
	Inches:      25.4,
}

// ParseDepthUnit normalizes a unit string. Empty input means millimeters.
func ParseDepthUnit(s string) (DepthUnit, error) {
	u := DepthUnit(strings.ToLower(strings.TrimSpace(s)))
	if u == "" {
		return Millimeters, nil
	}
	if _, ok := depthFactors[u]; !ok {
		return "", invalid("original_units", fmt.Sprintf("unsupported depth unit %q (expected mm, cm or in)", s))
	}
	return u, nil
}

// MillimeterFactor returns the multiplier from u to millimeters.
func (u DepthUnit) MillimeterFactor() (float64, error) {
	f, ok := depthFactors[u]
	if !ok {
		return 0, invalid("original_units", fmt.Sprintf("unsupported depth unit %q", string(u)))
	}
	return f, nil
}

// ConvertUnits rescales every populated depth column to millimeters.
// The UnitsConverted flag makes the call idempotent: a converted table is
// never scaled twice, whatever its OriginalUnits say.
func (t *IDFTable) ConvertUnits() error {
	if t.UnitsConverted {
		return nil
	}
	unit, err := ParseDepthUnit(string(t.OriginalUnits))
	if err != nil {
		return err
	}
	t.OriginalUnits = unit

	factor, err := unit.MillimeterFactor()
	if err != nil {
		return err
	}
	if factor != 1 {
		for key, column := range t.Depths {
			scaled := make([]float64, len(column))
			for i, v := range column {
				scaled[i] = v * factor
			}
			t.Depths[key] = scaled
		}
	}

	t.SavedUnits = Millimeters
	t.UnitsConverted = true
	return nil
}
