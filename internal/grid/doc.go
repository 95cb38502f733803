// Package grid handles geographic bounding boxes on the ERA5 0.25 degree
// grid: parsing the control-file box format, snapping boxes outward to
// grid lines, and formatting CDS area strings.
package grid
