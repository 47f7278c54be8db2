package domain

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/paulmach/orb"
)

// IDFTable is an Intensity-Duration-Frequency table for one location.
// Each populated column in Depths holds one depth per entry of DurationsInMins.
type IDFTable struct {
	ID        int64
	ProjectID int64

	LocationName string
	// Location is the site as a WGS84 lon/lat point; nil until supplied or geocoded.
	Location         *orb.Point
	FormattedAddress string
	GeoSource        string // "supplied", "forward", "reverse", "failed"

	Source string
	Notes  string

	DurationsInMins []float64
	Depths          map[string][]float64

	OriginalUnits  DepthUnit
	SavedUnits     DepthUnit
	UnitsConverted bool

	SelectedDurations   []float64
	SelectedFrequencies []string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewIDFTable returns an empty table with millimeter units.
func NewIDFTable() *IDFTable {
	return &IDFTable{
		Depths:        make(map[string][]float64),
		OriginalUnits: Millimeters,
		SavedUnits:    Millimeters,
	}
}

func (t *IDFTable) String() string { return t.LocationName }

// Column returns the depths of a frequency column, or nil if unpopulated.
func (t *IDFTable) Column(key string) []float64 {
	return t.Depths[key]
}

// PopulatedFrequencies returns the keys of populated columns in table order.
func (t *IDFTable) PopulatedFrequencies() []string {
	var keys []string
	for _, f := range frequencies {
		if _, ok := t.Depths[f.Key]; ok {
			keys = append(keys, f.Key)
		}
	}
	return keys
}

// Validate checks the table's metadata and that its frequency columns form a
// rectangular array aligned with DurationsInMins.
func (t *IDFTable) Validate() error {
	var errs ValidationErrors

	if strings.TrimSpace(t.LocationName) == "" {
		errs.add("location_name", "This field is required.")
	}
	if strings.TrimSpace(t.Source) == "" {
		errs.add("source", "This field is required.")
	}
	if t.Location == nil {
		errs.add("location_geom", "This field is required.")
	} else {
		if lon, lat := t.Location.Lon(), t.Location.Lat(); lon < -180 || lon > 180 || lat < -90 || lat > 90 {
			errs.add("location_geom", fmt.Sprintf("point (%g %g) is outside WGS84 bounds", lon, lat))
		}
	}
	if _, err := ParseDepthUnit(string(t.OriginalUnits)); err != nil {
		errs.add("original_units", err.(*ValidationError).Message)
	}
	if t.SavedUnits != "" && t.SavedUnits != Millimeters && t.UnitsConverted {
		errs.add("saved_units", "converted tables are stored in mm")
	}

	t.validateDurations(&errs)
	t.validateColumns(&errs)
	t.validateSelection(&errs)

	return errs.err()
}

// MaxDurationMins caps storm durations at one hundred years.
const MaxDurationMins = 100 * 365.25 * 24 * 60

func (t *IDFTable) validateDurations(errs *ValidationErrors) {
	for i, d := range t.DurationsInMins {
		if d <= 0 || math.IsNaN(d) || math.IsInf(d, 0) {
			errs.add("durations_in_mins", fmt.Sprintf("duration at index %d must be a positive number of minutes", i))
			return
		}
		if d > MaxDurationMins {
			errs.add("durations_in_mins", fmt.Sprintf("duration at index %d exceeds %g minutes", i, MaxDurationMins))
			return
		}
		if i > 0 && d <= t.DurationsInMins[i-1] {
			errs.add("durations_in_mins", "durations must be strictly increasing")
			return
		}
	}
}

func (t *IDFTable) validateColumns(errs *ValidationErrors) {
	lengths := make(map[int]struct{})
	for key, column := range t.Depths {
		if _, ok := frequencyIndex[key]; !ok {
			errs.add(key, "unknown frequency column")
			continue
		}
		if column == nil {
			errs.add(key, fmt.Sprintf("JSON field %s is not a list.", key))
			continue
		}
		for i, v := range column {
			if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
				errs.add(key, fmt.Sprintf("depth at index %d must be a non-negative number", i))
				break
			}
		}
		lengths[len(column)] = struct{}{}
	}

	if len(lengths) > 1 {
		errs.add("", "All durations must be lists of the same length.")
		return
	}
	if len(lengths) == 0 {
		return
	}
	if len(t.DurationsInMins) == 0 {
		errs.add("durations_in_mins", "durations are required when frequency columns are populated")
		return
	}
	for n := range lengths {
		if n != len(t.DurationsInMins) {
			errs.add("durations_in_mins", fmt.Sprintf("frequency columns have %d rows but %d durations are listed", n, len(t.DurationsInMins)))
		}
	}
}

func (t *IDFTable) validateSelection(errs *ValidationErrors) {
	for _, d := range t.SelectedDurations {
		if t.durationRow(d) < 0 {
			errs.add("selected_durations", fmt.Sprintf("duration %g is not listed in durations_in_mins", d))
		}
	}
	for _, key := range t.SelectedFrequencies {
		if _, ok := frequencyIndex[key]; !ok {
			errs.add("selected_frequencies", fmt.Sprintf("unknown frequency column %q", key))
			continue
		}
		if _, ok := t.Depths[key]; !ok {
			errs.add("selected_frequencies", fmt.Sprintf("frequency column %q is not populated", key))
		}
	}
}

func (t *IDFTable) durationRow(minutes float64) int {
	for i, d := range t.DurationsInMins {
		if d == minutes {
			return i
		}
	}
	return -1
}

// DepthFor returns the depth recorded for the given duration and frequency column.
func (t *IDFTable) DepthFor(durationMins float64, frequencyKey string) (float64, error) {
	if _, err := LookupFrequency(frequencyKey); err != nil {
		return 0, err
	}
	column, ok := t.Depths[frequencyKey]
	if !ok {
		return 0, invalid("frequency", fmt.Sprintf("frequency column %q is not populated", frequencyKey))
	}
	row := t.durationRow(durationMins)
	if row < 0 {
		return 0, invalid("duration", fmt.Sprintf("duration %g minutes is not listed in durations_in_mins", durationMins))
	}
	if row >= len(column) {
		return 0, invalid(frequencyKey, "column is shorter than durations_in_mins")
	}
	return column[row], nil
}

// Touch stamps the audit fields; CreatedAt is only set on first save.
func (t *IDFTable) Touch() {
	now := Now()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
}
