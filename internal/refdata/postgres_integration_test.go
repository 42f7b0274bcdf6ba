package refdata

import (
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shiprate/internal/db"
	"shiprate/internal/rate"
)

func TestPostgresSnapshotIntegration(t *testing.T) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set; skipping integration test")
		return
	}

	pool, err := db.NewPool(t.Context(), dbURL)
	require.NoError(t, err)
	defer pool.Close()

	ddl := []string{
		`CREATE TABLE IF NOT EXISTS coverage_rules (
            id BIGSERIAL PRIMARY KEY, carrier TEXT NOT NULL, zone TEXT NOT NULL,
            destination_code TEXT NOT NULL, validation_mode TEXT,
            max_length_cm NUMERIC, max_width_cm NUMERIC, max_height_cm NUMERIC,
            max_weight_kg NUMERIC, max_volume_m3 NUMERIC, periodicity TEXT)`,
		`CREATE TABLE IF NOT EXISTS tariff_rules (
            id BIGSERIAL PRIMARY KEY, carrier TEXT NOT NULL, zone TEXT NOT NULL,
            tariff_type TEXT NOT NULL, weight_min_kg NUMERIC, weight_max_kg NUMERIC,
            volume_cap_m3 NUMERIC, base_price NUMERIC NOT NULL,
            overage_threshold_kg NUMERIC, overage_cost_per_kg NUMERIC)`,
		`CREATE TABLE IF NOT EXISTS user_discounts (
            id BIGSERIAL PRIMARY KEY, user_id TEXT NOT NULL, carrier TEXT NOT NULL,
            zone TEXT, discount_fraction NUMERIC NOT NULL)`,
		`CREATE TABLE IF NOT EXISTS products (
            product_id TEXT PRIMARY KEY, length_cm NUMERIC NOT NULL, width_cm NUMERIC NOT NULL,
            height_cm NUMERIC NOT NULL, weight_kg NUMERIC NOT NULL, volume_m3 NUMERIC)`,
	}
	for _, stmt := range ddl {
		_, err := pool.Exec(t.Context(), stmt)
		require.NoError(t, err)
	}

	carrier := "IT " + uuid.NewString()[:8]
	dest := "7" + uuid.NewString()[:4]
	user := uuid.NewString()
	_, err = pool.Exec(t.Context(), `INSERT INTO coverage_rules (carrier, zone, destination_code, max_length_cm, max_width_cm, max_height_cm, max_weight_kg, periodicity)
        VALUES ($1, '1', $2, 40, 30, 20, 5, 'daily')`, carrier, dest)
	require.NoError(t, err)
	_, err = pool.Exec(t.Context(), `INSERT INTO tariff_rules (carrier, zone, tariff_type, weight_min_kg, weight_max_kg, base_price)
        VALUES ($1, '1', 'volumetric', 0, 5, 100)`, carrier)
	require.NoError(t, err)
	_, err = pool.Exec(t.Context(), `INSERT INTO user_discounts (user_id, carrier, zone, discount_fraction) VALUES ($1, $2, '1', 0.1)`, user, carrier)
	require.NoError(t, err)
	sku := "SKU-" + uuid.NewString()[:8]
	_, err = pool.Exec(t.Context(), `INSERT INTO products (product_id, length_cm, width_cm, height_cm, weight_kg) VALUES ($1, 30, 20, 15, 2)`, sku)
	require.NoError(t, err)
	defer func() {
		_, _ = pool.Exec(t.Context(), `DELETE FROM coverage_rules WHERE carrier = $1`, carrier)
		_, _ = pool.Exec(t.Context(), `DELETE FROM tariff_rules WHERE carrier = $1`, carrier)
		_, _ = pool.Exec(t.Context(), `DELETE FROM user_discounts WHERE carrier = $1`, carrier)
		_, _ = pool.Exec(t.Context(), `DELETE FROM products WHERE product_id = $1`, sku)
	}()

	snap, err := NewPostgres(pool).Snapshot(t.Context(), dest, user)
	require.NoError(t, err)
	require.Len(t, snap.Coverage, 1)
	require.Len(t, snap.Tariffs, 1)
	require.Len(t, snap.Discounts, 1)
	assert.Equal(t, rate.TariffVolumetric, snap.Tariffs[0].Type)

	p, err := NewPostgres(pool).Product(t.Context(), sku)
	require.NoError(t, err)
	assert.Equal(t, 2.0, p.WeightKG)
	_, err = NewPostgres(pool).Product(t.Context(), sku+"-missing")
	require.ErrorIs(t, err, rate.ErrProductNotFound)
}
