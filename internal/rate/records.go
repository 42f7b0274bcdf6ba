package rate

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ValidationMode selects which limits of a CoverageRule apply.
type ValidationMode string

const (
	ModeDimensions ValidationMode = "DIMENSIONS"
	ModeVolume     ValidationMode = "VOLUME"
)

// ParseValidationMode maps stored mode names onto a ValidationMode. An empty
// value means DIMENSIONS.
func ParseValidationMode(v string) (ValidationMode, error) {
	switch strings.ToUpper(strings.TrimSpace(v)) {
	case "", "DIMENSIONS", "DIMENSIONES":
		return ModeDimensions, nil
	case "VOLUME", "VOLUMEN":
		return ModeVolume, nil
	default:
		return "", fmt.Errorf("unknown validation mode %q", v)
	}
}

// TariffType is the pricing structure of a TariffRule.
type TariffType string

const (
	TariffVolumetric TariffType = "volumetric"
	TariffM3         TariffType = "m3"
)

// ParseTariffType maps stored tariff type names onto a TariffType.
func ParseTariffType(v string) (TariffType, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "volumetric", "volumetrico", "volumétrico":
		return TariffVolumetric, nil
	case "m3":
		return TariffM3, nil
	default:
		return "", fmt.Errorf("unknown tariff type %q", v)
	}
}

// CoverageRule states that a carrier serves a destination within a zone, up
// to the limits of its validation mode. Nil limits never match.
type CoverageRule struct {
	Carrier     string
	Zone        string
	Mode        ValidationMode
	Destination string
	MaxLength   *float64
	MaxWidth    *float64
	MaxHeight   *float64
	MaxWeight   *float64
	MaxVolume   *float64
	Periodicity string
}

// TariffRule is one priced tier of a carrier/zone tariff table. Nil range
// bounds and a nil volume cap are unconstrained.
type TariffRule struct {
	Carrier          string
	Zone             string
	Type             TariffType
	RangeMin         *float64
	RangeMax         *float64
	VolumeCap        *float64
	BasePrice        decimal.Decimal
	OverageThreshold *float64
	OverageUnitCost  decimal.Decimal
}

// Discount is a negotiated fraction taken off a user's price for a carrier.
// An empty Zone applies to every zone of the carrier.
type Discount struct {
	UserID   string
	Carrier  string
	Zone     string
	Fraction float64
}

// Limit returns a pointer to v, for building rules in code.
func Limit(v float64) *float64 { return &v }

// CoverageRecord is a coverage row as read from a store, before validation.
type CoverageRecord struct {
	Carrier     any
	Zone        any
	Mode        any
	Destination any
	MaxLength   any
	MaxWidth    any
	MaxHeight   any
	MaxWeight   any
	MaxVolume   any
	Periodicity any
}

// NewCoverageRule validates r and coerces its numeric columns.
func NewCoverageRule(r CoverageRecord) (CoverageRule, error) {
	rule := CoverageRule{
		Carrier:     strings.TrimSpace(AsText(r.Carrier)),
		Zone:        strings.TrimSpace(AsText(r.Zone)),
		Destination: strings.TrimSpace(AsText(r.Destination)),
		MaxLength:   optionalNumber(r.MaxLength),
		MaxWidth:    optionalNumber(r.MaxWidth),
		MaxHeight:   optionalNumber(r.MaxHeight),
		MaxWeight:   optionalNumber(r.MaxWeight),
		MaxVolume:   optionalNumber(r.MaxVolume),
		Periodicity: strings.TrimSpace(AsText(r.Periodicity)),
	}
	if rule.Carrier == "" {
		return CoverageRule{}, fmt.Errorf("%w: coverage carrier is required", ErrInvalidRecord)
	}
	if rule.Zone == "" {
		return CoverageRule{}, fmt.Errorf("%w: coverage zone is required for carrier %q", ErrInvalidRecord, rule.Carrier)
	}
	if rule.Destination == "" {
		return CoverageRule{}, fmt.Errorf("%w: coverage destination is required for carrier %q", ErrInvalidRecord, rule.Carrier)
	}
	mode, err := ParseValidationMode(AsText(r.Mode))
	if err != nil {
		return CoverageRule{}, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	rule.Mode = mode
	return rule, nil
}

// TariffRecord is a tariff row as read from a store, before validation.
type TariffRecord struct {
	Carrier          any
	Zone             any
	Type             any
	RangeMin         any
	RangeMax         any
	VolumeCap        any
	BasePrice        any
	OverageThreshold any
	OverageUnitCost  any
}

// NewTariffRule validates r. Empty or non-numeric range bounds, caps and
// thresholds are unset; a missing base price is an error.
func NewTariffRule(r TariffRecord) (TariffRule, error) {
	rule := TariffRule{
		Carrier:          strings.TrimSpace(AsText(r.Carrier)),
		Zone:             strings.TrimSpace(AsText(r.Zone)),
		RangeMin:         optionalNumber(r.RangeMin),
		RangeMax:         optionalNumber(r.RangeMax),
		VolumeCap:        optionalNumber(r.VolumeCap),
		OverageThreshold: optionalNumber(r.OverageThreshold),
	}
	if rule.Carrier == "" || rule.Zone == "" {
		return TariffRule{}, fmt.Errorf("%w: tariff carrier and zone are required", ErrInvalidRecord)
	}
	t, err := ParseTariffType(AsText(r.Type))
	if err != nil {
		return TariffRule{}, fmt.Errorf("%w: %s/%s: %v", ErrInvalidRecord, rule.Carrier, rule.Zone, err)
	}
	rule.Type = t
	base, ok := ParseNumber(r.BasePrice)
	if !ok || base < 0 {
		return TariffRule{}, fmt.Errorf("%w: %s/%s: base price must be a non-negative number", ErrInvalidRecord, rule.Carrier, rule.Zone)
	}
	rule.BasePrice = decimal.NewFromFloat(base)
	if rule.OverageThreshold != nil {
		cost, ok := ParseNumber(r.OverageUnitCost)
		if !ok {
			return TariffRule{}, fmt.Errorf("%w: %s/%s: overage threshold set without overage cost", ErrInvalidRecord, rule.Carrier, rule.Zone)
		}
		rule.OverageUnitCost = decimal.NewFromFloat(cost)
	}
	return rule, nil
}

// DiscountRecord is a discount row as read from a store, before validation.
type DiscountRecord struct {
	UserID   any
	Carrier  any
	Zone     any
	Fraction any
}

// NewDiscount validates r. The fraction must lie in [0,1).
func NewDiscount(r DiscountRecord) (Discount, error) {
	d := Discount{
		UserID:  strings.TrimSpace(AsText(r.UserID)),
		Carrier: strings.TrimSpace(AsText(r.Carrier)),
		Zone:    strings.TrimSpace(AsText(r.Zone)),
	}
	if d.UserID == "" || d.Carrier == "" {
		return Discount{}, fmt.Errorf("%w: discount user and carrier are required", ErrInvalidRecord)
	}
	f, ok := ParseNumber(r.Fraction)
	if !ok || f < 0 || f >= 1 {
		return Discount{}, fmt.Errorf("%w: discount for %q must be in [0,1)", ErrInvalidRecord, d.Carrier)
	}
	d.Fraction = f
	return d, nil
}

// optionalNumber returns nil for an absent, blank or non-numeric value.
func optionalNumber(v any) *float64 {
	f, ok := ParseNumber(v)
	if !ok {
		return nil
	}
	return &f
}

// ParseNumber coerces the loosely typed numbers found in driver rows and
// request payloads. NaN and infinities are rejected.
func ParseNumber(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case nil:
		return 0, false
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int32:
		f = float64(t)
	case int64:
		f = float64(t)
	case *float64:
		if t == nil {
			return 0, false
		}
		f = *t
	case json.Number:
		n, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = n
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		f = n
	case []byte:
		return ParseNumber(string(t))
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// AsText renders identifiers that some stores keep as numbers (zone 1 vs "1").
func AsText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case *string:
		if t == nil {
			return ""
		}
		return *t
	default:
		return fmt.Sprint(t)
	}
}
