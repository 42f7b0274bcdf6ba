package refdata

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"shiprate/internal/rate"
)

const (
	pgCoverageQuery = `
        SELECT carrier, zone::text, destination_code, validation_mode,
               max_length_cm::float8, max_width_cm::float8, max_height_cm::float8,
               max_weight_kg::float8, max_volume_m3::float8, periodicity
        FROM coverage_rules
        WHERE ltrim(trim(destination_code), '0') = ltrim($1, '0')
        ORDER BY id`

	pgTariffQuery = `
        SELECT carrier, zone::text, tariff_type,
               weight_min_kg::float8, weight_max_kg::float8, volume_cap_m3::float8,
               base_price::float8, overage_threshold_kg::float8, overage_cost_per_kg::float8
        FROM tariff_rules
        ORDER BY id`

	pgDiscountQuery = `
        SELECT user_id::text, carrier, zone::text, discount_fraction::float8
        FROM user_discounts
        WHERE user_id::text = $1
        ORDER BY id`

	pgProductQuery = `
        SELECT product_id::text, length_cm::float8, width_cm::float8, height_cm::float8,
               weight_kg::float8, volume_m3::float8
        FROM products
        WHERE product_id::text = $1`
)

// Postgres reads reference data through a pgx pool.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Snapshot reads all three tables in one repeatable-read, read-only
// transaction so concurrent edits are seen entirely or not at all.
func (p *Postgres) Snapshot(ctx context.Context, destination, userID string) (rate.Snapshot, error) {
	if p == nil || p.pool == nil {
		return rate.Snapshot{}, fmt.Errorf("postgres reference store is not configured")
	}
	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return rate.Snapshot{}, fmt.Errorf("begin snapshot: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var snap rate.Snapshot
	snap.Coverage, err = pgCollect(ctx, tx, scanCoverage, pgCoverageQuery, destination)
	if err != nil {
		return rate.Snapshot{}, fmt.Errorf("load coverage: %w", err)
	}
	if len(snap.Coverage) == 0 {
		return snap, nil
	}
	tariffs, err := pgCollect(ctx, tx, scanTariff, pgTariffQuery)
	if err != nil {
		return rate.Snapshot{}, fmt.Errorf("load tariffs: %w", err)
	}
	if snap.Tariffs, err = buildTariffs(tariffs, snap.Coverage); err != nil {
		return rate.Snapshot{}, fmt.Errorf("load tariffs: %w", err)
	}
	if userID != "" {
		snap.Discounts, err = pgCollect(ctx, tx, scanDiscount, pgDiscountQuery, userID)
		if err != nil {
			return rate.Snapshot{}, fmt.Errorf("load discounts: %w", err)
		}
	}
	return snap, tx.Commit(ctx)
}

// Product looks up a catalog product by id.
func (p *Postgres) Product(ctx context.Context, id string) (rate.Product, error) {
	if p == nil || p.pool == nil {
		return rate.Product{}, fmt.Errorf("postgres reference store is not configured")
	}
	prod, err := scanProduct(p.pool.QueryRow(ctx, pgProductQuery, strings.TrimSpace(id)))
	if errors.Is(err, pgx.ErrNoRows) {
		return rate.Product{}, rate.ErrProductNotFound
	}
	if err != nil {
		return rate.Product{}, fmt.Errorf("load product %q: %w", id, err)
	}
	return prod, nil
}

func pgCollect[T any](ctx context.Context, tx pgx.Tx, scan func(scanner) (T, error), query string, args ...any) ([]T, error) {
	rows, err := tx.Query(ctx, query, args...)
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
