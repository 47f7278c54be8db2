// Package domain models the hydrology records of a flood-modelling project:
// IDF tables, temporal patterns and rainfall time series.
//
// # Frequency Columns
//
// An IDF table stores one depth column per design frequency. Columns are
// keyed the way they appear on the wire:
//
//	ey_12 … ey_0_2         exceedances per year (EY); ey_0_5 = 0.5 EY
//	percent_50 … percent_0_002   annual exceedance probability (AEP) in percent
//
// The "_" in a key stands for a decimal point. percent_0_01 is labelled
// 0.1% for compatibility with stored data. See [Frequencies].
//
// AEP and average recurrence interval (ARI) are related by
//
//	ARI = -1 / ln(1 - AEP/100)
//	AEP = 100 × (1 - e^(-1/ARI))
//
// # Units
//
// Depths are entered in mm, cm or inches and stored in millimeters. The
// UnitsConverted flag records that a table has been rescaled so it is never
// scaled twice.
//
// # Timestamps
//
// Time series keep each point's timestamp as submitted. Reads resolve every
// timestamp in the series' IANA zone, keeping the wall clock and discarding
// any offset in the string. See [ParseTimestamp] for the accepted forms.
//
// # Synthesis
//
// A design storm is the depth of one IDF row and column spread over the
// equal sub-intervals of a temporal pattern. See [Synthesize].
package domain
