package domain

import (
	"context"
	"log/slog"

	"github.com/paulmach/orb"
)

// Values written to IDFTable.GeoSource.
const (
	GeoSupplied = "supplied"
	GeoForward  = "forward"
	GeoReverse  = "reverse"
	GeoFailed   = "failed"
)

// LocateIDFTable fills in whichever half of a table's location is missing.
// A table without a point is forward geocoded from its location name; a table
// with a point but no formatted address is reverse geocoded. Provider failures
// are logged and recorded in GeoSource, never returned.
func LocateIDFTable(ctx context.Context, table *IDFTable, geocoder Geocoder, logger *slog.Logger) {
	if table.Location != nil && table.GeoSource == "" {
		table.GeoSource = GeoSupplied
	}
	if geocoder == nil {
		return
	}

	if table.Location == nil {
		if table.LocationName == "" {
			return
		}
		result, err := geocoder.ForwardGeocode(ctx, table.LocationName)
		if err != nil {
			logger.Warn("forward geocoding failed",
				"idf_table_id", table.ID,
				"location", table.LocationName,
				"error", err,
			)
			table.GeoSource = GeoFailed
			return
		}
		if result.Lat == 0 && result.Lon == 0 {
			logger.Info("no geocoding match", "location", table.LocationName)
			return
		}
		p := orb.Point{result.Lon, result.Lat}
		table.Location = &p
		table.FormattedAddress = result.FormattedAddress
		table.GeoSource = GeoForward
		return
	}

	if table.FormattedAddress != "" {
		return
	}
	result, err := geocoder.ReverseGeocode(ctx, table.Location.Lat(), table.Location.Lon())
	if err != nil {
		logger.Warn("reverse geocoding failed",
			"idf_table_id", table.ID,
			"lat", table.Location.Lat(),
			"lon", table.Location.Lon(),
			"error", err,
		)
		table.GeoSource = GeoFailed
		return
	}
	if result.FormattedAddress != "" {
		table.FormattedAddress = result.FormattedAddress
		table.GeoSource = GeoReverse
	}
}
