package rate

import "errors"

var (
	// ErrInvalidInput is returned for shipments that cannot be quoted:
	// negative or non-numeric dimensions/weight, or a missing destination.
	ErrInvalidInput = errors.New("invalid shipment input")

	// ErrReferenceData is returned when coverage, tariff or discount records
	// cannot be loaded or are malformed.
	ErrReferenceData = errors.New("reference data unavailable")

	// ErrInvalidRecord marks a reference row rejected by a record constructor.
	ErrInvalidRecord = errors.New("invalid reference record")

	// ErrProductNotFound is returned by a Catalog for an unknown product id.
	ErrProductNotFound = errors.New("product not found")
)
