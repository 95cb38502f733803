package era5

import (
	"fmt"
	"time"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"
)

// TZ=UTC date --date="1900-01-01 00:00:00" +%s
const unixSecs1900 = -2208988800

// knownVariables are the short names the service uses inside its NetCDF
// files for common surface variables, in display order. The first eight
// correspond to DefaultVariables.
var knownVariables = []string{
	"u10", "v10", "d2m", "t2m", "msdwlwrf", "msdwswrf", "mtpr", "sp",
	"tp", "sf", "tcc",
}

// Summary describes the contents of one downloaded month file.
type Summary struct {
	Path       string
	Latitudes  int
	Longitudes int
	Steps      int
	Start      time.Time
	End        time.Time
	Variables  []string
}

// Summarize opens the NetCDF file at path and reports its grid shape,
// its time span, and which of the known surface variables it carries.
func Summarize(path string) (*Summary, error) {
	nc, err := netcdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer nc.Close()

	lats, err := dimValues[float32](nc, "latitude")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	lons, err := dimValues[float32](nc, "longitude")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	hours, err := dimValues[int32](nc, "time")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(hours) == 0 {
		return nil, fmt.Errorf("%s: empty time dimension", path)
	}

	s := &Summary{
		Path:       path,
		Latitudes:  len(lats),
		Longitudes: len(lons),
		Steps:      len(hours),
		Start:      hourSince1900(hours[0]),
		End:        hourSince1900(hours[len(hours)-1]),
	}

	for _, name := range knownVariables {
		if _, err := nc.GetVarGetter(name); err == nil {
			s.Variables = append(s.Variables, name)
		}
	}

	return s, nil
}

// hourSince1900 converts an ERA5 time value (hours since 1900-01-01) to
// a UTC timestamp.
func hourSince1900(h int32) time.Time {
	return time.Unix(int64(h)*3600+unixSecs1900, 0).UTC()
}

func dimValues[T int32 | float32](nc api.Group, dimName string) ([]T, error) {
	dim, err := nc.GetVarGetter(dimName)
	if err != nil {
		return nil, fmt.Errorf("get dimension %s: %w", dimName, err)
	}
	v, err := dim.Values()
	if err != nil {
		return nil, fmt.Errorf("read dimension %s: %w", dimName, err)
	}
	vals, ok := v.([]T)
	if !ok {
		return nil, fmt.Errorf("dimension %s: unexpected type %T", dimName, v)
	}
	return vals, nil
}
