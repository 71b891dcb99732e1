package models

// Product is one row of the cached product reference data.
type Product struct {
	Barcode string
	Name    string
	Stock   float64
	Value   float64
}
