// Package era5 holds the ERA5 domain model: the monthly download units,
// the retrieval request layout for surface-level data, and summaries of
// downloaded NetCDF files.
//
// # Months
//
// ERA5 is fetched one calendar month at a time. A Month knows its day
// count, its CDS date range and the canonical name of its file:
//
//	m := era5.Month{Year: 2008, Month: time.February}
//	m.Days()      // 29
//	m.DateRange() // "2008-02-01/2008-02-29"
//	m.FileName()  // "ERA5_surface_200802.nc"
//
// # Requests
//
// SurfaceRequest builds the request document the CDS API expects for one
// month of hourly single-level data over a snapped bounding box.
package era5
