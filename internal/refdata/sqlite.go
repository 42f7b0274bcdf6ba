package refdata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"shiprate/internal/rate"
)

const (
	sqliteCoverageQuery = `
        SELECT carrier, zone, destination_code, validation_mode,
               max_length_cm, max_width_cm, max_height_cm,
               max_weight_kg, max_volume_m3, periodicity
        FROM coverage_rules
        WHERE ltrim(trim(destination_code), '0') = ltrim(?, '0')
        ORDER BY id`

	sqliteTariffQuery = `
        SELECT carrier, zone, tariff_type,
               weight_min_kg, weight_max_kg, volume_cap_m3,
               base_price, overage_threshold_kg, overage_cost_per_kg
        FROM tariff_rules
        ORDER BY id`

	sqliteDiscountQuery = `
        SELECT user_id, carrier, zone, discount_fraction
        FROM user_discounts
        WHERE CAST(user_id AS TEXT) = ?
        ORDER BY id`

	sqliteProductQuery = `
        SELECT product_id, length_cm, width_cm, height_cm, weight_kg, volume_m3
        FROM products
        WHERE product_id = ?`
)

// SQLite reads reference data from a database/sql handle opened with
// db.OpenSQLite.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(db *sql.DB) *SQLite {
	return &SQLite{db: db}
}

// Snapshot reads all three tables inside one transaction.
func (s *SQLite) Snapshot(ctx context.Context, destination, userID string) (rate.Snapshot, error) {
	if s == nil || s.db == nil {
		return rate.Snapshot{}, fmt.Errorf("sqlite reference store is not configured")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return rate.Snapshot{}, fmt.Errorf("begin snapshot: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var snap rate.Snapshot
	snap.Coverage, err = sqlCollect(ctx, tx, scanCoverage, sqliteCoverageQuery, destination)
	if err != nil {
		return rate.Snapshot{}, fmt.Errorf("load coverage: %w", err)
	}
	if len(snap.Coverage) == 0 {
		return snap, nil
	}
	tariffs, err := sqlCollect(ctx, tx, scanTariff, sqliteTariffQuery)
	if err != nil {
		return rate.Snapshot{}, fmt.Errorf("load tariffs: %w", err)
	}
	if snap.Tariffs, err = buildTariffs(tariffs, snap.Coverage); err != nil {
		return rate.Snapshot{}, fmt.Errorf("load tariffs: %w", err)
	}
	if userID != "" {
		snap.Discounts, err = sqlCollect(ctx, tx, scanDiscount, sqliteDiscountQuery, userID)
		if err != nil {
			return rate.Snapshot{}, fmt.Errorf("load discounts: %w", err)
		}
	}
	return snap, tx.Commit()
}

// Product looks up a catalog product by id.
func (s *SQLite) Product(ctx context.Context, id string) (rate.Product, error) {
	if s == nil || s.db == nil {
		return rate.Product{}, fmt.Errorf("sqlite reference store is not configured")
	}
	p, err := scanProduct(s.db.QueryRowContext(ctx, sqliteProductQuery, strings.TrimSpace(id)))
	if errors.Is(err, sql.ErrNoRows) {
		return rate.Product{}, rate.ErrProductNotFound
	}
	if err != nil {
		return rate.Product{}, fmt.Errorf("load product %q: %w", id, err)
	}
	return p, nil
}

func sqlCollect[T any](ctx context.Context, tx *sql.Tx, scan func(scanner) (T, error), query string, args ...any) ([]T, error) {
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
