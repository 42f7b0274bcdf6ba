package rate

import (
	"context"
	"fmt"
	"strings"
)

// Product is a catalog item with stored package dimensions.
type Product struct {
	ID       string
	LengthCM float64
	WidthCM  float64
	HeightCM float64
	WeightKG float64
	VolumeM3 *float64
}

// Catalog looks up products by id. Unknown ids return ErrProductNotFound.
type Catalog interface {
	Product(ctx context.Context, id string) (Product, error)
}

// ShipmentInput describes p sent to destination.
func (p Product) ShipmentInput(destination string) ShipmentInput {
	return ShipmentInput{
		LengthCM:    p.LengthCM,
		WidthCM:     p.WidthCM,
		HeightCM:    p.HeightCM,
		WeightKG:    p.WeightKG,
		Destination: destination,
		VolumeM3:    p.VolumeM3,
	}
}

// ProductRecord is a product row as read from a store, before validation.
type ProductRecord struct {
	ID       any
	LengthCM any
	WidthCM  any
	HeightCM any
	WeightKG any
	VolumeM3 any
}

// NewProduct validates r. Dimensions and weight are required; a missing
// volume is derived from the dimensions when the product is quoted.
func NewProduct(r ProductRecord) (Product, error) {
	p := Product{ID: strings.TrimSpace(AsText(r.ID)), VolumeM3: optionalNumber(r.VolumeM3)}
	if p.ID == "" {
		return Product{}, fmt.Errorf("%w: product id is required", ErrInvalidRecord)
	}
	fields := []struct {
		name string
		raw  any
		dst  *float64
	}{
		{"length_cm", r.LengthCM, &p.LengthCM},
		{"width_cm", r.WidthCM, &p.WidthCM},
		{"height_cm", r.HeightCM, &p.HeightCM},
		{"weight_kg", r.WeightKG, &p.WeightKG},
	}
	for _, f := range fields {
		v, ok := ParseNumber(f.raw)
		if !ok || v < 0 {
			return Product{}, fmt.Errorf("%w: product %q: %s must be a non-negative number", ErrInvalidRecord, p.ID, f.name)
		}
		*f.dst = v
	}
	if p.VolumeM3 != nil && *p.VolumeM3 < 0 {
		return Product{}, fmt.Errorf("%w: product %q: volume_m3 must not be negative", ErrInvalidRecord, p.ID)
	}
	return p, nil
}
