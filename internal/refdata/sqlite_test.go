package refdata

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shiprate/internal/db"
	"shiprate/internal/rate"
)

func openSeeded(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()
	sqlDB, err := db.OpenSQLite(ctx, filepath.Join(t.TempDir(), "ref.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	stmts := []string{
		`INSERT INTO coverage_rules (carrier, zone, destination_code, validation_mode, max_length_cm, max_width_cm, max_height_cm, max_weight_kg, periodicity)
		 VALUES ('PROVEEDOR 1', '1', '1000', 'DIMENSIONES', 40, 30, 20, 5, 'DIARIA')`,
		`INSERT INTO coverage_rules (carrier, zone, destination_code, validation_mode, max_weight_kg, max_volume_m3, periodicity)
		 VALUES ('PROVEEDOR 2', 2, '01000', 'VOLUMEN', 30, 0.5, 'SEMANAL')`,
		`INSERT INTO coverage_rules (carrier, zone, destination_code, max_length_cm, max_width_cm, max_height_cm, max_weight_kg)
		 VALUES ('PROVEEDOR 3', '1', '99999', 40, 30, 20, 5)`,
		`INSERT INTO tariff_rules (carrier, zone, tariff_type, weight_min_kg, weight_max_kg, base_price)
		 VALUES ('Proveedor 1', '1', 'volumetrico', 0, 5, 100)`,
		`INSERT INTO tariff_rules (carrier, zone, tariff_type, weight_min_kg, weight_max_kg, volume_cap_m3, base_price)
		 VALUES ('PROVEEDOR 2', '2', 'm3', 0, 30, 0.5, 85.5)`,
		// malformed, but its carrier never covers 01000
		`INSERT INTO tariff_rules (carrier, zone, tariff_type, base_price)
		 VALUES ('PROVEEDOR 3', '1', 'flat', 1)`,
		`INSERT INTO user_discounts (user_id, carrier, zone, discount_fraction) VALUES ('7', 'PROVEEDOR 1', '1', 0.10)`,
		`INSERT INTO user_discounts (user_id, carrier, zone, discount_fraction) VALUES ('8', 'PROVEEDOR 2', '2', 0.50)`,
		`INSERT INTO products (product_id, length_cm, width_cm, height_cm, weight_kg, volume_m3) VALUES ('SKU-1', 30, 20, 15, 2, 0.009)`,
		`INSERT INTO products (product_id, length_cm, width_cm, height_cm, weight_kg) VALUES ('SKU-2', 30, 20, 15, 2)`,
	}
	for _, stmt := range stmts {
		_, err := sqlDB.ExecContext(ctx, stmt)
		require.NoError(t, err)
	}
	return sqlDB
}

func TestSQLiteSnapshot(t *testing.T) {
	src := NewSQLite(openSeeded(t))
	snap, err := src.Snapshot(context.Background(), "01000", "7")
	require.NoError(t, err)

	require.Len(t, snap.Coverage, 2)
	assert.Equal(t, rate.ModeDimensions, snap.Coverage[0].Mode)
	assert.Equal(t, rate.ModeVolume, snap.Coverage[1].Mode)
	assert.Equal(t, "2", snap.Coverage[1].Zone)
	require.Len(t, snap.Tariffs, 2)
	require.Len(t, snap.Discounts, 1)
	assert.Equal(t, "7", snap.Discounts[0].UserID)
}

func TestSQLiteSnapshotWithoutCoverageSkipsOtherTables(t *testing.T) {
	src := NewSQLite(openSeeded(t))
	snap, err := src.Snapshot(context.Background(), "55555", "7")
	require.NoError(t, err)
	assert.Empty(t, snap.Coverage)
	assert.Empty(t, snap.Tariffs)
	assert.Empty(t, snap.Discounts)
}

func TestSQLiteEndToEndQuote(t *testing.T) {
	svc := rate.NewService(NewSQLite(openSeeded(t)), nil)
	s, err := rate.NewShipment(rate.ShipmentInput{LengthCM: 30, WidthCM: 20, HeightCM: 15, WeightKG: 2, Destination: "1000"}, rate.DefaultUnits())
	require.NoError(t, err)

	res, err := svc.Estimate(context.Background(), rate.Request{UserID: "7", Shipment: s})
	require.NoError(t, err)
	require.Equal(t, rate.OutcomeQuoted, res.Outcome)
	require.Len(t, res.Options, 2)
	assert.Equal(t, "PROVEEDOR 2", res.Options[0].Carrier)
	assert.Equal(t, "85.50", res.Options[0].Price.StringFixed(2))
	assert.False(t, res.Options[0].Discounted)
	assert.Equal(t, "PROVEEDOR 1", res.Options[1].Carrier)
	assert.Equal(t, "90.00", res.Options[1].Price.StringFixed(2))
	assert.True(t, res.Options[1].Discounted)
}

func TestSQLiteSnapshotRejectsMalformedCoveredTariff(t *testing.T) {
	sqlDB := openSeeded(t)
	_, err := sqlDB.Exec(`INSERT INTO tariff_rules (carrier, zone, tariff_type, base_price) VALUES ('PROVEEDOR 1', '1', 'flat', 1)`)
	require.NoError(t, err)

	_, err = NewSQLite(sqlDB).Snapshot(context.Background(), "01000", "7")
	require.ErrorIs(t, err, rate.ErrInvalidRecord)
}

func TestSQLiteNonNumericTariffBoundIsUnbounded(t *testing.T) {
	sqlDB := openSeeded(t)
	_, err := sqlDB.Exec(`UPDATE tariff_rules SET weight_max_kg = 'n/a' WHERE carrier = 'Proveedor 1'`)
	require.NoError(t, err)

	snap, err := NewSQLite(sqlDB).Snapshot(context.Background(), "01000", "7")
	require.NoError(t, err)
	require.Len(t, snap.Tariffs, 2)
	assert.Nil(t, snap.Tariffs[0].RangeMax)
}

func TestSQLiteProduct(t *testing.T) {
	src := NewSQLite(openSeeded(t))

	p, err := src.Product(context.Background(), " SKU-1 ")
	require.NoError(t, err)
	assert.Equal(t, "SKU-1", p.ID)
	assert.Equal(t, 2.0, p.WeightKG)
	require.NotNil(t, p.VolumeM3)
	assert.InDelta(t, 0.009, *p.VolumeM3, 1e-9)

	p, err = src.Product(context.Background(), "SKU-2")
	require.NoError(t, err)
	assert.Nil(t, p.VolumeM3)

	_, err = src.Product(context.Background(), "missing")
	require.ErrorIs(t, err, rate.ErrProductNotFound)
}

func TestSQLiteProductQuote(t *testing.T) {
	sqlDB := openSeeded(t)
	src := NewSQLite(sqlDB)
	p, err := src.Product(context.Background(), "SKU-1")
	require.NoError(t, err)
	s, err := rate.NewShipment(p.ShipmentInput("1000"), rate.DefaultUnits())
	require.NoError(t, err)

	res, err := rate.NewService(src, nil).Estimate(context.Background(), rate.Request{UserID: "7", Shipment: s})
	require.NoError(t, err)
	require.Len(t, res.Options, 2)
	assert.Equal(t, "85.50", res.Options[0].Price.StringFixed(2))
}

func TestSQLiteProductMalformedRow(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	rows := sqlmock.NewRows([]string{"product_id", "length_cm", "width_cm", "height_cm", "weight_kg", "volume_m3"}).
		AddRow("SKU-9", 10, 10, 10, nil, nil)
	mock.ExpectQuery("FROM products").WithArgs("SKU-9").WillReturnRows(rows)

	_, err = NewSQLite(mockDB).Product(context.Background(), "SKU-9")
	require.ErrorIs(t, err, rate.ErrInvalidRecord)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStaticProduct(t *testing.T) {
	src := NewStatic(rate.Snapshot{}).WithProducts(rate.Product{ID: "SKU-1", LengthCM: 1, WidthCM: 1, HeightCM: 1, WeightKG: 1})
	p, err := src.Product(context.Background(), "SKU-1")
	require.NoError(t, err)
	assert.Equal(t, 1.0, p.WeightKG)
	_, err = src.Product(context.Background(), "SKU-2")
	require.ErrorIs(t, err, rate.ErrProductNotFound)
}

func TestSQLiteSnapshotQueryFailure(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	boom := errors.New("disk I/O error")
	mock.ExpectBegin()
	mock.ExpectQuery("FROM coverage_rules").WithArgs("01000").WillReturnError(boom)
	mock.ExpectRollback()

	_, err = NewSQLite(mockDB).Snapshot(context.Background(), "01000", "")
	require.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteSnapshotMalformedCoverageRow(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	rows := sqlmock.NewRows([]string{"carrier", "zone", "destination_code", "validation_mode",
		"max_length_cm", "max_width_cm", "max_height_cm", "max_weight_kg", "max_volume_m3", "periodicity"}).
		AddRow("", "1", "01000", nil, 40, 30, 20, 5, nil, "DIARIA")
	mock.ExpectBegin()
	mock.ExpectQuery("FROM coverage_rules").WillReturnRows(rows)
	mock.ExpectRollback()

	_, err = NewSQLite(mockDB).Snapshot(context.Background(), "01000", "")
	require.ErrorIs(t, err, rate.ErrInvalidRecord)
}

func TestSQLiteSnapshotBeginFailure(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	mock.ExpectBegin().WillReturnError(errors.New("database is locked"))
	_, err = NewSQLite(mockDB).Snapshot(context.Background(), "01000", "")
	require.Error(t, err)
}

func TestStaticSnapshotIsCopied(t *testing.T) {
	rules := []rate.CoverageRule{{Carrier: "A", Zone: "1", Destination: "01000"}}
	src := NewStatic(rate.Snapshot{Coverage: rules})
	rules[0].Carrier = "changed"

	snap, err := src.Snapshot(context.Background(), "01000", "")
	require.NoError(t, err)
	assert.Equal(t, "A", snap.Coverage[0].Carrier)
}
