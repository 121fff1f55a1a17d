package geo

// Point is a geographic coordinate in decimal degrees. It is a value type
// and is never mutated by anything in this module.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}
