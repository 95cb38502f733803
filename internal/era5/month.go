package era5

import (
	"fmt"
	"time"
)

// Month identifies one calendar month of ERA5 data.
type Month struct {
	Year  int
	Month time.Month
}

// Days returns the number of days in the month, leap years included.
func (m Month) Days() int {
	// Day zero of the next month normalizes to the last day of this one.
	return time.Date(m.Year, m.Month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// DateRange returns the date span of the month in CDS request form,
// e.g. "2008-02-01/2008-02-29".
func (m Month) DateRange() string {
	return fmt.Sprintf("%04d-%02d-01/%04d-%02d-%02d", m.Year, m.Month, m.Year, m.Month, m.Days())
}

// FileName returns the canonical object name for the month,
// e.g. "ERA5_surface_200802.nc".
func (m Month) FileName() string {
	return fmt.Sprintf("ERA5_surface_%04d%02d.nc", m.Year, m.Month)
}

// String implements fmt.Stringer.
func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, m.Month)
}

// MonthsBetween returns every month from January of startYear through
// December of endYear, in chronological order. An inverted range yields
// nil.
func MonthsBetween(startYear, endYear int) []Month {
	if endYear < startYear {
		return nil
	}
	months := make([]Month, 0, (endYear-startYear+1)*12)
	for year := startYear; year <= endYear; year++ {
		for m := time.January; m <= time.December; m++ {
			months = append(months, Month{Year: year, Month: m})
		}
	}
	return months
}
