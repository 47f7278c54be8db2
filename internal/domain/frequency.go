package domain

import (
	"fmt"
	"math"
)

// FrequencyKind tells how a column's frequency was published.
type FrequencyKind string

const (
	// KindEY columns are expressed as exceedances per year (12EY, 0.5EY, ...).
	KindEY FrequencyKind = "ey"
	// KindAEP columns are expressed as annual exceedance probability in percent.
	KindAEP FrequencyKind = "aep"
)

// Frequency describes one recurrence column of an IDF table.
type Frequency struct {
	Key   string        `json:"key"`
	Label string        `json:"label"`
	Kind  FrequencyKind `json:"kind"`
	// Value is the events-per-year figure for KindEY and the AEP percentage for KindAEP.
	Value float64 `json:"value"`
}

// frequencies lists the recurrence columns in table order, most frequent first.
var frequencies = []Frequency{
	{Key: "ey_12", Label: "12EY", Kind: KindEY, Value: 12},
	{Key: "ey_6", Label: "6EY", Kind: KindEY, Value: 6},
	{Key: "ey_4", Label: "4EY", Kind: KindEY, Value: 4},
	{Key: "ey_3", Label: "3EY", Kind: KindEY, Value: 3},
	{Key: "ey_2", Label: "2EY", Kind: KindEY, Value: 2},
	{Key: "ey_1", Label: "1EY", Kind: KindEY, Value: 1},
	{Key: "percent_50", Label: "50%", Kind: KindAEP, Value: 50},
	{Key: "ey_0_5", Label: "0.5EY", Kind: KindEY, Value: 0.5},
	{Key: "percent_20", Label: "20%", Kind: KindAEP, Value: 20},
	{Key: "ey_0_2", Label: "0.2EY", Kind: KindEY, Value: 0.2},
	{Key: "percent_10", Label: "10%", Kind: KindAEP, Value: 10},
	{Key: "percent_5", Label: "5%", Kind: KindAEP, Value: 5},
	{Key: "percent_4", Label: "4%", Kind: KindAEP, Value: 4},
	{Key: "percent_2", Label: "2%", Kind: KindAEP, Value: 2},
	{Key: "percent_1", Label: "1%", Kind: KindAEP, Value: 1},
	{Key: "percent_0_5", Label: "0.5%", Kind: KindAEP, Value: 0.5},
	{Key: "percent_0_2", Label: "0.2%", Kind: KindAEP, Value: 0.2},
	// The three rarest keys predate their labels; values follow the 1000, 2000
	// and 5000 year recurrence intervals the columns were created for.
	{Key: "percent_0_01", Label: "0.1%", Kind: KindAEP, Value: 0.1},
	{Key: "percent_0_05", Label: "0.05%", Kind: KindAEP, Value: 0.05},
	{Key: "percent_0_002", Label: "0.02%", Kind: KindAEP, Value: 0.02},
}

var frequencyIndex = func() map[string]int {
	idx := make(map[string]int, len(frequencies))
	for i, f := range frequencies {
		idx[f.Key] = i
	}
	return idx
}()

// Frequencies returns a copy of the column catalogue in table order.
func Frequencies() []Frequency {
	out := make([]Frequency, len(frequencies))
	copy(out, frequencies)
	return out
}

// FrequencyKeys returns the column keys in table order.
func FrequencyKeys() []string {
	keys := make([]string, len(frequencies))
	for i, f := range frequencies {
		keys[i] = f.Key
	}
	return keys
}

// LookupFrequency resolves a column key such as "percent_10".
func LookupFrequency(key string) (Frequency, error) {
	i, ok := frequencyIndex[key]
	if !ok {
		return Frequency{}, invalid("frequency", fmt.Sprintf("unknown frequency column %q", key))
	}
	return frequencies[i], nil
}

// AEP returns the column's annual exceedance probability in percent.
func (f Frequency) AEP() float64 {
	if f.Kind == KindAEP {
		return f.Value
	}
	aep, _ := AEPFromARI(1 / f.Value)
	return aep
}

// ARI returns the column's average recurrence interval in years.
func (f Frequency) ARI() float64 {
	if f.Kind == KindEY {
		return 1 / f.Value
	}
	ari, _ := ARIFromAEP(f.Value)
	return ari
}

// ARIFromAEP converts an annual exceedance probability (percent) to an
// average recurrence interval in years: ARI = -1 / ln(1 - AEP/100).
func ARIFromAEP(aep float64) (float64, error) {
	// An AEP of exactly 100% has no finite logarithm, so it is rejected with the rest.
	if aep >= 100 {
		return 0, invalid("aep", "AEP should be less than 100%")
	}
	if aep <= 0 || math.IsNaN(aep) {
		return 0, invalid("aep", "AEP must be greater than 0%")
	}
	return -1 / math.Log(1-aep/100), nil
}

// AEPFromARI converts an average recurrence interval in years to an annual
// exceedance probability in percent: AEP = 100 × (1 - e^(-1/ARI)).
func AEPFromARI(ari float64) (float64, error) {
	if ari <= 0 || math.IsNaN(ari) {
		return 0, invalid("ari", "ARI must be greater than 0 years")
	}
	return 100 * (1 - math.Exp(-1/ari)), nil
}
