// Package refdata loads coverage, tariff and discount snapshots for the rate
// engine from the configured store.
package refdata

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"shiprate/internal/rate"
)

// scanner is satisfied by pgx.Rows, pgx.Row, *sql.Rows and *sql.Row.
type scanner interface {
	Scan(dest ...any) error
}

func scanCoverage(s scanner) (rate.CoverageRule, error) {
	var r rate.CoverageRecord
	if err := s.Scan(&r.Carrier, &r.Zone, &r.Destination, &r.Mode,
		&r.MaxLength, &r.MaxWidth, &r.MaxHeight, &r.MaxWeight, &r.MaxVolume, &r.Periodicity); err != nil {
		return rate.CoverageRule{}, fmt.Errorf("scan coverage rule: %w", err)
	}
	return rate.NewCoverageRule(r)
}

func scanTariff(s scanner) (rate.TariffRecord, error) {
	var r rate.TariffRecord
	if err := s.Scan(&r.Carrier, &r.Zone, &r.Type, &r.RangeMin, &r.RangeMax,
		&r.VolumeCap, &r.BasePrice, &r.OverageThreshold, &r.OverageUnitCost); err != nil {
		return rate.TariffRecord{}, fmt.Errorf("scan tariff rule: %w", err)
	}
	return r, nil
}

// buildTariffs validates the tariff rows of carriers that cover the
// shipment. Rows of other carriers are not inspected.
func buildTariffs(records []rate.TariffRecord, coverage []rate.CoverageRule) ([]rate.TariffRule, error) {
	carriers := coveredCarriers(coverage)
	var out []rate.TariffRule
	for _, r := range records {
		if !slices.Contains(carriers, rate.NormalizeName(rate.AsText(r.Carrier))) {
			continue
		}
		rule, err := rate.NewTariffRule(r)
		if err != nil {
			return nil, err
		}
		out = append(out, rule)
	}
	return out, nil
}

func scanDiscount(s scanner) (rate.Discount, error) {
	var r rate.DiscountRecord
	if err := s.Scan(&r.UserID, &r.Carrier, &r.Zone, &r.Fraction); err != nil {
		return rate.Discount{}, fmt.Errorf("scan discount: %w", err)
	}
	return rate.NewDiscount(r)
}

func scanProduct(s scanner) (rate.Product, error) {
	var r rate.ProductRecord
	if err := s.Scan(&r.ID, &r.LengthCM, &r.WidthCM, &r.HeightCM, &r.WeightKG, &r.VolumeM3); err != nil {
		return rate.Product{}, err
	}
	return rate.NewProduct(r)
}

// coveredCarriers returns the normalized names of the carriers in rules.
func coveredCarriers(rules []rate.CoverageRule) []string {
	var names []string
	for _, r := range rules {
		name := rate.NormalizeName(r.Carrier)
		if !slices.Contains(names, name) {
			names = append(names, name)
		}
	}
	return names
}

// Static serves a fixed snapshot and product list. It is used for tests and
// for embedding a small rate card without a database.
type Static struct {
	snap     rate.Snapshot
	products map[string]rate.Product
}

// NewStatic copies snap so later changes by the caller are not visible.
func NewStatic(snap rate.Snapshot) *Static {
	return &Static{snap: rate.Snapshot{
		Coverage:  slices.Clone(snap.Coverage),
		Tariffs:   slices.Clone(snap.Tariffs),
		Discounts: slices.Clone(snap.Discounts),
	}, products: make(map[string]rate.Product)}
}

// WithProducts adds products to the catalog served by s.
func (s *Static) WithProducts(products ...rate.Product) *Static {
	for _, p := range products {
		s.products[strings.TrimSpace(p.ID)] = p
	}
	return s
}

func (s *Static) Product(_ context.Context, id string) (rate.Product, error) {
	p, ok := s.products[strings.TrimSpace(id)]
	if !ok {
		return rate.Product{}, rate.ErrProductNotFound
	}
	return p, nil
}

// Snapshot returns the fixed snapshot; the engine filters by destination and
// user itself.
func (s *Static) Snapshot(_ context.Context, _, _ string) (rate.Snapshot, error) {
	return rate.Snapshot{
		Coverage:  slices.Clone(s.snap.Coverage),
		Tariffs:   slices.Clone(s.snap.Tariffs),
		Discounts: slices.Clone(s.snap.Discounts),
	}, nil
}
