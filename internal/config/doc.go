// Package config loads the control file that drives a download run.
//
// Control files are plain text, one setting per line:
//
//	# ERA5 download control file
//	root_path          | /data/hydrology       # base path for domain data
//	domain_name        | bow_at_banff
//	forcing_raw_path   | default               # or an explicit directory/bucket URL
//	forcing_raw_time   | 2008,2013             # startYear,endYear
//	forcing_raw_space  | 51.6/-116.4/51.1/-115.6  # lat_max/lon_min/lat_min/lon_max
//
// The first non-comment line containing a setting name wins; the value is
// the text between the first '|' and an optional '#'. Missing settings
// surface as ErrSettingNotFound.
//
// CDS credentials never live in the control file. They come from the
// CDSAPI_URL and CDSAPI_KEY environment variables, falling back to the
// ~/.cdsapirc file the service's own client uses.
package config
