package era5

import (
	"fmt"

	"github.com/cwester/era5fetch/internal/cds"
	"github.com/cwester/era5fetch/internal/grid"
)

// Dataset is the CDS dataset identifier for ERA5 single-level data.
const Dataset = "reanalysis-era5-single-levels"

// DefaultVariables is the hourly surface forcing set: winds, temperature,
// humidity, pressure, precipitation and downward radiation.
var DefaultVariables = []string{
	"10m_u_component_of_wind",
	"10m_v_component_of_wind",
	"2m_dewpoint_temperature",
	"2m_temperature",
	"mean_surface_downward_long_wave_radiation_flux",
	"mean_surface_downward_short_wave_radiation_flux",
	"mean_total_precipitation_rate",
	"surface_pressure",
}

var gridStep = fmt.Sprintf("%v/%v", grid.Resolution, grid.Resolution)

// Hours returns the 24 hourly time entries of a full ERA5 day,
// "00:00" through "23:00".
func Hours() []string {
	hours := make([]string, 24)
	for i := range hours {
		hours[i] = fmt.Sprintf("%02d:00", i)
	}
	return hours
}

// SurfaceRequest builds the retrieval request for one month of hourly
// surface data over box. A nil or empty variable list selects
// DefaultVariables.
func SurfaceRequest(box grid.Box, m Month, variables []string) cds.Request {
	if len(variables) == 0 {
		variables = DefaultVariables
	}
	return cds.Request{
		ProductType: "reanalysis",
		Format:      "netcdf",
		Variables:   variables,
		Date:        m.DateRange(),
		Time:        Hours(),
		Area:        box.Area(),
		Grid:        gridStep,
	}
}
