package rate

import (
	"fmt"
	"math"
	"strings"
)

const (
	// DefaultVolumetricDivisor converts cm³ into volumetric kilograms.
	DefaultVolumetricDivisor = 5000.0
	// DefaultPostalCodeWidth is the zero-padded width of numeric destination codes.
	DefaultPostalCodeWidth = 5

	cm3PerM3 = 1_000_000.0
)

// Units controls how derived shipment metrics are computed.
type Units struct {
	VolumetricDivisor float64
	PostalCodeWidth   int
}

// DefaultUnits returns the units used when none are configured.
func DefaultUnits() Units {
	return Units{VolumetricDivisor: DefaultVolumetricDivisor, PostalCodeWidth: DefaultPostalCodeWidth}
}

func (u Units) withDefaults() Units {
	if u.VolumetricDivisor <= 0 {
		u.VolumetricDivisor = DefaultVolumetricDivisor
	}
	if u.PostalCodeWidth <= 0 {
		u.PostalCodeWidth = DefaultPostalCodeWidth
	}
	return u
}

// ShipmentInput is the caller-supplied description of a package.
type ShipmentInput struct {
	LengthCM    float64
	WidthCM     float64
	HeightCM    float64
	WeightKG    float64
	Destination string
	// VolumeM3, when set, replaces the volume derived from the dimensions.
	// Catalog products carry a measured volume.
	VolumeM3 *float64
}

// Shipment is a validated package with its derived metrics. The zero value is
// not useful; build one with NewShipment.
type Shipment struct {
	length, width, height float64
	realWeight            float64
	destination           string
	volume                float64
	volumetricWeight      float64
	postalWidth           int
}

// NewShipment validates in and derives volume and volumetric weight.
func NewShipment(in ShipmentInput, units Units) (Shipment, error) {
	units = units.withDefaults()
	fields := []struct {
		name  string
		value float64
	}{
		{"length_cm", in.LengthCM},
		{"width_cm", in.WidthCM},
		{"height_cm", in.HeightCM},
		{"weight_kg", in.WeightKG},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return Shipment{}, fmt.Errorf("%w: %s is not a number", ErrInvalidInput, f.name)
		}
		if f.value < 0 {
			return Shipment{}, fmt.Errorf("%w: %s must not be negative", ErrInvalidInput, f.name)
		}
	}
	if in.VolumeM3 != nil {
		if v := *in.VolumeM3; math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return Shipment{}, fmt.Errorf("%w: volume_m3 must be a non-negative number", ErrInvalidInput)
		}
	}
	dest := NormalizePostalCode(in.Destination, units.PostalCodeWidth)
	if dest == "" {
		return Shipment{}, fmt.Errorf("%w: destination is required", ErrInvalidInput)
	}
	cubic := in.LengthCM * in.WidthCM * in.HeightCM
	volume := cubic / cm3PerM3
	if in.VolumeM3 != nil {
		volume = *in.VolumeM3
	}
	return Shipment{
		length:           in.LengthCM,
		width:            in.WidthCM,
		height:           in.HeightCM,
		realWeight:       in.WeightKG,
		destination:      dest,
		volume:           volume,
		volumetricWeight: cubic / units.VolumetricDivisor,
		postalWidth:      units.PostalCodeWidth,
	}, nil
}

func (s Shipment) Length() float64 { return s.length }
func (s Shipment) Width() float64 { return s.width }
func (s Shipment) Height() float64 { return s.height }
func (s Shipment) RealWeight() float64 { return s.realWeight }
func (s Shipment) Destination() string { return s.destination }
func (s Shipment) Volume() float64 { return s.volume }
func (s Shipment) VolumetricWeight() float64 { return s.volumetricWeight }

// BillingWeight returns the weight used to match tariffs of type t: real
// weight for m3 tariffs, max(real, volumetric) for volumetric tariffs.
func (s Shipment) BillingWeight(t TariffType) float64 {
	if t == TariffVolumetric {
		return math.Max(s.realWeight, s.volumetricWeight)
	}
	return s.realWeight
}

// NormalizePostalCode trims code and left-pads all-digit codes with zeros up
// to width.
func NormalizePostalCode(code string, width int) string {
	code = strings.TrimSpace(code)
	if code == "" || len(code) >= width {
		return code
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return code
		}
	}
	return strings.Repeat("0", width-len(code)) + code
}
