// Command validate checks a hydrology fixture file end to end: every record
// must decode through the API wire decoders, pass record validation, convert
// to millimeters exactly once, and every listed design storm must synthesize
// with the expected shape.
//
// Usage:
//
//	go run ./cmd/validate -fixture data/mock/hydrology.yaml
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/couchcryptid/storm-hydrology-service/internal/domain"
	"github.com/couchcryptid/storm-hydrology-service/internal/fixture"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

// records is the decoded content of a fixture.
type records struct {
	tables   []*domain.IDFTable
	patterns []*domain.TemporalPattern
	series   []*domain.TimeSeries
}

func main() {
	path := flag.String("fixture", "", "path to a YAML or JSON fixture written by genmock")
	flag.Parse()

	if *path == "" {
		flag.Usage()
		os.Exit(1)
	}
	os.Exit(run(*path))
}

func run(path string) int {
	fmt.Println("=== Hydrology Fixture Validation ===")
	fmt.Println()

	set, err := fixture.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load fixture: %v\n", err)
		return 1
	}

	decodePhase, recs := decodeRecords(set)
	phases := []*phase{
		decodePhase,
		validateRecords(recs),
		validateConversion(recs.tables),
		validateSynthesis(set.Synthesis, recs),
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d IDF tables, %d temporal patterns, %d time series, %d design storms\n",
		len(recs.tables), len(recs.patterns), len(recs.series), len(set.Synthesis))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Phase 1: Decoding ──

func decodeRecords(set *fixture.Set) (*phase, records) {
	p := &phase{name: "Phase 1: Decoding (wire form)"}
	var recs records

	for i, raw := range set.IDFTables {
		var t domain.IDFTable
		if err := json.Unmarshal(raw, &t); err != nil {
			p.errorf("idf table %d: %v", i, err)
			recs.tables = append(recs.tables, nil)
			continue
		}
		recs.tables = append(recs.tables, &t)
	}
	for i, raw := range set.TemporalPatterns {
		var tp domain.TemporalPattern
		if err := json.Unmarshal(raw, &tp); err != nil {
			p.errorf("temporal pattern %d: %v", i, err)
			recs.patterns = append(recs.patterns, nil)
			continue
		}
		tp.InferKind()
		recs.patterns = append(recs.patterns, &tp)
	}
	for i, raw := range set.TimeSeries {
		var ts domain.TimeSeries
		if err := json.Unmarshal(raw, &ts); err != nil {
			p.errorf("time series %d: %v", i, err)
			continue
		}
		recs.series = append(recs.series, &ts)
	}
	return p, recs
}

// ── Phase 2: Record rules ──

func validateRecords(recs records) *phase {
	p := &phase{name: "Phase 2: Record Rules (validation)"}
	for i, t := range recs.tables {
		if t == nil {
			continue
		}
		if err := t.Validate(); err != nil {
			p.errorf("idf table %d (%s): %v", i, t.LocationName, err)
		}
	}
	for i, tp := range recs.patterns {
		if tp == nil {
			continue
		}
		if err := tp.Validate(); err != nil {
			p.errorf("temporal pattern %d (%s): %v", i, tp.Name, err)
		}
	}
	for i, ts := range recs.series {
		if err := ts.Validate(); err != nil {
			p.errorf("time series %d (%s): %v", i, ts.Name, err)
			continue
		}
		if _, err := ts.DataWithDatetimes(); err != nil {
			p.errorf("time series %d (%s): datetimes: %v", i, ts.Name, err)
		}
	}
	return p
}

// ── Phase 3: Unit conversion ──

func validateConversion(tables []*domain.IDFTable) *phase {
	p := &phase{name: "Phase 3: Unit Conversion (mm, once)"}
	for i, t := range tables {
		if t == nil {
			continue
		}
		before := copyDepths(t.Depths)
		factor, err := t.OriginalUnits.MillimeterFactor()
		if err != nil {
			p.errorf("idf table %d: %v", i, err)
			continue
		}
		wasConverted := t.UnitsConverted
		if err := t.ConvertUnits(); err != nil {
			p.errorf("idf table %d: convert: %v", i, err)
			continue
		}
		if t.SavedUnits != domain.Millimeters || !t.UnitsConverted {
			p.errorf("idf table %d: saved_units=%q units_converted=%t after conversion", i, t.SavedUnits, t.UnitsConverted)
		}
		if wasConverted {
			factor = 1
		}
		checkScaled(p, i, before, t.Depths, factor)

		converted := copyDepths(t.Depths)
		if err := t.ConvertUnits(); err != nil {
			p.errorf("idf table %d: second convert: %v", i, err)
			continue
		}
		checkScaled(p, i, converted, t.Depths, 1)
	}
	return p
}

func checkScaled(p *phase, i int, before, after map[string][]float64, factor float64) {
	for key, column := range before {
		for row, v := range column {
			if got := after[key][row]; !floatEq(got, v*factor) {
				p.errorf("idf table %d: %s[%d]: expected %g, got %g", i, key, row, v*factor, got)
			}
		}
	}
}

// ── Phase 4: Synthesis ──

func validateSynthesis(storms []fixture.Synthesis, recs records) *phase {
	p := &phase{name: "Phase 4: Synthesis (design storms)"}
	for i, st := range storms {
		if st.IDFTable < 0 || st.IDFTable >= len(recs.tables) || recs.tables[st.IDFTable] == nil {
			p.errorf("storm %d: idf table index %d out of range", i, st.IDFTable)
			continue
		}
		if st.TemporalPattern < 0 || st.TemporalPattern >= len(recs.patterns) || recs.patterns[st.TemporalPattern] == nil {
			p.errorf("storm %d: temporal pattern index %d out of range", i, st.TemporalPattern)
			continue
		}
		table, pattern := recs.tables[st.IDFTable], recs.patterns[st.TemporalPattern]

		ts, err := domain.Synthesize(table, pattern, domain.SynthesisRequest{
			DurationMins:      st.DurationMins,
			Frequency:         st.Frequency,
			TemporalPatternID: max(pattern.ID, 1),
			Timezone:          st.Timezone,
			Start:             st.Start,
		})
		if err != nil {
			p.errorf("storm %d: %v", i, err)
			continue
		}
		checkStorm(p, i, st, ts, len(pattern.Pattern))
	}
	return p
}

func checkStorm(p *phase, i int, st fixture.Synthesis, ts *domain.TimeSeries, n int) {
	if len(ts.Data) != n+1 {
		p.errorf("storm %d: expected %d points, got %d", i, n+1, len(ts.Data))
		return
	}
	if st.Points != 0 && st.Points != len(ts.Data) {
		p.errorf("storm %d: fixture lists %d points, synthesized %d", i, st.Points, len(ts.Data))
	}

	dated, err := ts.DataWithDatetimes()
	if err != nil {
		p.errorf("storm %d: %v", i, err)
		return
	}
	step := time.Duration(math.Round(st.DurationMins * 60 / float64(n) * float64(time.Second)))
	for j := 1; j < len(dated); j++ {
		if got := dated[j].TS.Sub(dated[j-1].TS); got != step {
			p.errorf("storm %d: points %d and %d are %s apart, expected %s", i, j-1, j, got, step)
		}
	}

	var total float64
	for _, pt := range dated[:n] {
		total += pt.Value
	}
	if !floatEq(total, ts.Origin.TotalDepth) {
		p.errorf("storm %d: interval depths sum to %g, expected %g", i, total, ts.Origin.TotalDepth)
	}
}

// ── Helpers ──

func copyDepths(in map[string][]float64) map[string][]float64 {
	out := make(map[string][]float64, len(in))
	for k, v := range in {
		out[k] = append([]float64(nil), v...)
	}
	return out
}

func floatEq(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
