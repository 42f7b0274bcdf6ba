package rate

import (
	"fmt"
	"math"
	"sort"

	"github.com/shopspring/decimal"
)

// QuoteOption is one priced way of shipping a package.
type QuoteOption struct {
	Carrier       string
	Zone          string
	TariffType    TariffType
	BasePrice     decimal.Decimal
	Price         decimal.Decimal
	Discount      float64
	Discounted    bool
	Periodicity   string
	Mode          ValidationMode
	BillingWeight float64
}

// Warning describes a data-quality problem noticed while resolving a quote.
type Warning struct {
	Code    string
	Carrier string
	Zone    string
	Message string
}

const (
	WarnOverlappingTiers  = "overlapping_volumetric_tiers"
	WarnDuplicateDiscount = "duplicate_discount"
)

// PriceCandidate prices c under every tariff type it has rules for. It
// returns zero or more volumetric options and at most one m3 option.
func PriceCandidate(c Candidate, s Shipment, tariffs []TariffRule) ([]QuoteOption, []Warning) {
	key := newLookupKey(c.Carrier, c.Zone)
	var volumetric, m3 []TariffRule
	for _, t := range tariffs {
		if newLookupKey(t.Carrier, t.Zone) != key {
			continue
		}
		switch t.Type {
		case TariffVolumetric:
			volumetric = append(volumetric, t)
		case TariffM3:
			m3 = append(m3, t)
		}
	}

	var warnings []Warning
	options := priceVolumetric(c, s, volumetric)
	if len(options) > 1 {
		warnings = append(warnings, Warning{
			Code:    WarnOverlappingTiers,
			Carrier: c.Carrier,
			Zone:    c.Zone,
			Message: fmt.Sprintf("%d volumetric tiers match billing weight %.3f kg", len(options), s.BillingWeight(TariffVolumetric)),
		})
	}
	if opt, ok := priceM3(c, s, m3); ok {
		options = append(options, opt)
	}
	return options, warnings
}

func priceVolumetric(c Candidate, s Shipment, rules []TariffRule) []QuoteOption {
	weight := s.BillingWeight(TariffVolumetric)
	var out []QuoteOption
	for _, t := range rules {
		if !inRange(t.RangeMin, t.RangeMax, weight) {
			continue
		}
		price := t.BasePrice
		if t.OverageThreshold != nil && weight > *t.OverageThreshold {
			extra := decimal.NewFromFloat(weight - *t.OverageThreshold)
			price = price.Add(extra.Mul(t.OverageUnitCost))
		}
		out = append(out, newOption(c, TariffVolumetric, price, weight))
	}
	return out
}

func priceM3(c Candidate, s Shipment, rules []TariffRule) (QuoteOption, bool) {
	sorted := make([]TariffRule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool {
		return lowerBound(sorted[i].RangeMin) < lowerBound(sorted[j].RangeMin)
	})
	weight := s.BillingWeight(TariffM3)
	for _, t := range sorted {
		if !inRange(t.RangeMin, t.RangeMax, weight) {
			continue
		}
		if t.VolumeCap != nil && s.volume > *t.VolumeCap {
			continue
		}
		return newOption(c, TariffM3, t.BasePrice.Round(2), weight), true
	}
	return QuoteOption{}, false
}

func newOption(c Candidate, t TariffType, price decimal.Decimal, weight float64) QuoteOption {
	return QuoteOption{
		Carrier:       c.Carrier,
		Zone:          c.Zone,
		TariffType:    t,
		BasePrice:     price,
		Price:         price,
		Periodicity:   c.Periodicity,
		Mode:          c.Mode,
		BillingWeight: weight,
	}
}

// inRange reports min <= v <= max with unset bounds treated as open.
func inRange(min, max *float64, v float64) bool {
	if min != nil && v < *min {
		return false
	}
	if max != nil && v > *max {
		return false
	}
	return true
}

// lowerBound orders m3 tiers by minimum weight. Tiers without a minimum
// sort after all others.
func lowerBound(min *float64) float64 {
	if min == nil {
		return math.Inf(1)
	}
	return *min
}
