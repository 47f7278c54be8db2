package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestARIFromAEP(t *testing.T) {
	tests := []struct {
		aep, wantARI float64
	}{
		{62.3, 1},
		{50, 1.44},
		{10, 10},
		{1, 100},
		{0.1, 1000},
	}
	for _, tt := range tests {
		got, err := ARIFromAEP(tt.aep)
		require.NoError(t, err)
		assert.InEpsilon(t, tt.wantARI, got, 0.1, "aep=%v", tt.aep)
	}
}

func TestAEPFromARI(t *testing.T) {
	tests := []struct {
		ari, wantAEP float64
	}{
		{1, 62.3},
		{2, 40},
		{10, 10},
		{25, 4},
		{100, 1},
		{1000, 0.1},
	}
	for _, tt := range tests {
		got, err := AEPFromARI(tt.ari)
		require.NoError(t, err)
		assert.InEpsilon(t, tt.wantAEP, got, 0.1, "ari=%v", tt.ari)
	}
}

func TestARIFromAEP_Rejects(t *testing.T) {
	for _, aep := range []float64{100, 100.5, 250, 0, -3} {
		_, err := ARIFromAEP(aep)
		require.Error(t, err, "aep=%v", aep)
		assert.True(t, errors.Is(err, ErrValidation))
	}

	_, err := ARIFromAEP(101)
	assert.EqualError(t, err, "aep: AEP should be less than 100%")
}

func TestAEPFromARI_RejectsNonPositive(t *testing.T) {
	_, err := AEPFromARI(0)
	assert.ErrorIs(t, err, ErrValidation)
	_, err = AEPFromARI(-1)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestFrequencies_Catalogue(t *testing.T) {
	freqs := Frequencies()
	require.Len(t, freqs, 20)
	assert.Equal(t, "ey_12", freqs[0].Key)
	assert.Equal(t, "percent_0_002", freqs[19].Key)

	// Mutating the copy leaves the catalogue intact.
	freqs[0].Key = "changed"
	assert.Equal(t, "ey_12", FrequencyKeys()[0])
}

func TestFrequency_ARIAndAEP(t *testing.T) {
	tests := []struct {
		key     string
		wantARI float64
		wantAEP float64
	}{
		{"ey_12", 1.0 / 12, 99.9994},
		{"ey_1", 1, 63.2},
		{"ey_0_5", 2, 39.3},
		{"percent_50", 1.44, 50},
		{"percent_10", 9.49, 10},
		{"percent_1", 99.5, 1},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			f, err := LookupFrequency(tt.key)
			require.NoError(t, err)
			assert.InEpsilon(t, tt.wantARI, f.ARI(), 0.01)
			assert.InEpsilon(t, tt.wantAEP, f.AEP(), 0.01)
		})
	}
}

func TestLookupFrequency_Unknown(t *testing.T) {
	_, err := LookupFrequency("percent_33")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, map[string][]string{"frequency": {`unknown frequency column "percent_33"`}}, FieldErrors(err))
}
