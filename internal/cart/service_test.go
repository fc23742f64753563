package cart

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Simplici0/teekiosk/internal/db"
	"github.com/Simplici0/teekiosk/internal/migrations"
	"github.com/Simplici0/teekiosk/internal/obs"
	"github.com/Simplici0/teekiosk/internal/pricing"
	"github.com/Simplici0/teekiosk/internal/seed"
)

const session = "7f1d2c9e-5b8a-4f43-9a57-0c1e5d2b7a10"

type fixture struct {
	db      *sql.DB
	svc     *Service
	metrics *obs.PricingMetrics
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	database, err := db.Open(filepath.Join(t.TempDir(), "cart.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	require.NoError(t, migrations.Up(database, "../../migrations"))
	_, err = seed.Run(database, seed.Config{Table: pricing.DefaultTable()})
	require.NoError(t, err)

	calc, err := pricing.NewCalculator(pricing.DefaultTable())
	require.NoError(t, err)

	metrics := obs.NewPricingMetrics("test", prometheus.NewRegistry())
	svc := NewService(NewStore(database), calc, zerolog.Nop(), metrics)
	return fixture{db: database, svc: svc, metrics: metrics}
}

func (f fixture) variantID(t *testing.T, size string, gsm int) int64 {
	t.Helper()
	var id int64
	err := f.db.QueryRow(`SELECT id FROM product_variants WHERE size = ? AND thickness = ? AND color = 'black'`, size, gsm).Scan(&id)
	require.NoError(t, err)
	return id
}

func (f fixture) count(t *testing.T, table string) int {
	t.Helper()
	var n int
	require.NoError(t, f.db.QueryRow(`SELECT COUNT(*) FROM `+table).Scan(&n))
	return n
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestVariants(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	variants, err := f.svc.Variants(ctx)
	require.NoError(t, err)
	require.Len(t, variants, 8)
	assert.Equal(t, 180, variants[0].Thickness)
	assert.Equal(t, pricing.SizeS, variants[0].Size)
	assert.True(t, variants[0].BasePrice.Equal(dec("349")))
	assert.Equal(t, "Forma flow", variants[0].ThicknessName)

	v, err := f.svc.Variant(ctx, variants[7].ID)
	require.NoError(t, err)
	assert.Equal(t, pricing.SizeXL, v.Size)
	assert.Equal(t, 240, v.Thickness)

	_, err = f.svc.Variant(ctx, 9999)
	assert.ErrorIs(t, err, ErrVariantNotFound)
}

func TestAdd_PricesOnServerAndPersists(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	line, err := f.svc.Add(ctx, session, AddItemInput{
		ProductVariantID: f.variantID(t, "M", 180),
		Quantity:         2,
		Front: &pricing.Customization{
			Type:     pricing.TypeAITextImage,
			Prompt:   "a tiger in neon",
			Src:      "/uploads/ai/tiger.png",
			Position: &pricing.Position{X: 80, Y: 120, Width: 165, Height: 244},
		},
	})
	require.NoError(t, err)

	assert.True(t, line.CalculatedUnitPrice.Equal(dec("459")), "unit price %s", line.CalculatedUnitPrice)
	assert.True(t, line.LineTotal.Equal(dec("918")), "line total %s", line.LineTotal)
	assert.Equal(t, pricing.TierQuarter, line.PriceBreakdown.PrintTierFront)
	assert.Empty(t, line.PriceBreakdown.Errors)
	assert.Equal(t, pricing.SizeM, line.Variant.Size)
	assert.False(t, line.CreatedAt.IsZero())

	require.NotNil(t, line.FrontDesign)
	assert.Nil(t, line.BackDesign)
	assert.Equal(t, "a tiger in neon", line.FrontDesign.Prompt)
	require.NotNil(t, line.FrontDesign.Position)
	assert.Equal(t, 165.0, line.FrontDesign.Position.Width)
	assert.True(t, line.FrontDesign.Cost.Equal(dec("60")))

	cart, err := f.svc.Get(ctx, session)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.ItemCount)
	assert.True(t, cart.Total.Equal(dec("918")))
	assert.Equal(t, "INR", cart.Currency)
	assert.True(t, cart.Items[0].PriceBreakdown.TotalUnitPrice.Equal(dec("459")))

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Calculations.WithLabelValues(obs.PathCart, obs.OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.CartLines.WithLabelValues("add")))
}

func TestAdd_IgnoresClientSuppliedPrices(t *testing.T) {
	f := newFixture(t)

	line, err := f.svc.Add(context.Background(), session, AddItemInput{
		ProductVariantID: f.variantID(t, "L", 240),
		Quantity:         1,
		Back: &pricing.Customization{
			Type: pricing.TypeMultiLibrary,
			Elements: []pricing.DesignElement{
				{DesignID: "car1", Src: "/library_designs/carone.png", Price: 0.01, Position: &pricing.Position{Width: 100, Height: 100}},
				{DesignID: "car2", Src: "/library_designs/cartwo.png", Price: 0.01, Position: &pricing.Position{Width: 100, Height: 100}},
			},
		},
	})
	require.NoError(t, err)

	// 499 base, 65.63 print, two stickers.
	assert.True(t, line.CalculatedUnitPrice.Equal(dec("604.63")), "unit price %s", line.CalculatedUnitPrice)
	require.NotNil(t, line.BackDesign)
	require.Len(t, line.BackDesign.Elements, 2)
	assert.Equal(t, "car2", line.BackDesign.Elements[1].DesignID)
}

func TestAdd_LocalPricingErrorsAreStored(t *testing.T) {
	f := newFixture(t)

	line, err := f.svc.Add(context.Background(), session, AddItemInput{
		ProductVariantID: f.variantID(t, "S", 180),
		Quantity:         1,
		Front:            &pricing.Customization{Type: pricing.TypeUploadedImage},
		Back:             &pricing.Customization{Type: pricing.TypeEmbroideryText, Text: "Team"},
	})
	require.NoError(t, err)

	assert.True(t, line.CalculatedUnitPrice.Equal(dec("479")), "unit price %s", line.CalculatedUnitPrice)
	require.Len(t, line.PriceBreakdown.Errors, 1)
	assert.True(t, strings.HasPrefix(line.PriceBreakdown.Errors[0], "front:"))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Calculations.WithLabelValues(obs.PathCart, obs.OutcomeLocalError)))
}

func TestAdd_FatalPricingRollsBack(t *testing.T) {
	f := newFixture(t)

	res, err := f.db.Exec(`
		INSERT INTO product_variants (product_type, size, color, thickness, thickness_name, base_price)
		VALUES ('tshirt', 'M', 'white', 300, 'Heavy', '599.00')
	`)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)

	_, err = f.svc.Add(context.Background(), session, AddItemInput{
		ProductVariantID: id,
		Quantity:         1,
		Front:            &pricing.Customization{Type: pricing.TypeEmbroideryText, Text: "x"},
	})

	var pe *PricingError
	require.True(t, errors.As(err, &pe), "expected PricingError, got %v", err)
	assert.True(t, pe.Breakdown.Fatal())
	assert.Contains(t, pe.Error(), "invalid thickness")
	assert.Equal(t, 0, f.count(t, "cart_items"))
	assert.Equal(t, 0, f.count(t, "customizations"))
}

func TestAdd_RejectsBadInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	variant := f.variantID(t, "M", 180)

	for _, q := range []int{0, -1, MaxQuantity + 1} {
		_, err := f.svc.Add(ctx, session, AddItemInput{ProductVariantID: variant, Quantity: q})
		assert.ErrorIs(t, err, ErrInvalidQuantity, "quantity %d", q)
	}

	_, err := f.svc.Add(ctx, session, AddItemInput{ProductVariantID: 4242, Quantity: 1,
		Front: &pricing.Customization{Type: pricing.TypeSticker}})
	assert.ErrorIs(t, err, ErrVariantNotFound)
	assert.Equal(t, 0, f.count(t, "customizations"))

	_, err = f.svc.Add(ctx, session, AddItemInput{Quantity: 1})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.Add(ctx, session, AddItemInput{ProductVariantID: variant, Quantity: 1,
		Front: &pricing.Customization{Type: pricing.TypeEmbroideryText, Text: strings.Repeat("x", 201)}})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.Add(ctx, "", AddItemInput{ProductVariantID: variant, Quantity: 1})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAdd_UntypedSideIsAbsent(t *testing.T) {
	f := newFixture(t)

	line, err := f.svc.Add(context.Background(), session, AddItemInput{
		ProductVariantID: f.variantID(t, "XL", 240),
		Quantity:         1,
		Front:            &pricing.Customization{Type: " "},
	})
	require.NoError(t, err)

	assert.Nil(t, line.FrontDesign)
	assert.True(t, line.CalculatedUnitPrice.Equal(dec("499")))
	assert.Equal(t, 0, f.count(t, "customizations"))
}

func TestUpdateQuantity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	line, err := f.svc.Add(ctx, session, AddItemInput{ProductVariantID: f.variantID(t, "M", 180), Quantity: 1})
	require.NoError(t, err)

	updated, err := f.svc.UpdateQuantity(ctx, session, line.ID, UpdateQuantityInput{Quantity: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, updated.Quantity)
	assert.True(t, updated.CalculatedUnitPrice.Equal(dec("349")))
	assert.True(t, updated.LineTotal.Equal(dec("1047")))

	_, err = f.svc.UpdateQuantity(ctx, session, line.ID, UpdateQuantityInput{Quantity: 0})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = f.svc.UpdateQuantity(ctx, "other-session", line.ID, UpdateQuantityInput{Quantity: 2})
	assert.ErrorIs(t, err, ErrItemNotFound)

	_, err = f.svc.UpdateQuantity(ctx, session, line.ID+100, UpdateQuantityInput{Quantity: 2})
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestRemoveAndClear(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	variant := f.variantID(t, "M", 240)

	var ids []int64
	for i := 0; i < 3; i++ {
		line, err := f.svc.Add(ctx, session, AddItemInput{
			ProductVariantID: variant,
			Quantity:         1,
			Front:            &pricing.Customization{Type: pricing.TypeLibraryDesign, Src: "/library_designs/swone.png", FlatFeeOnly: true},
		})
		require.NoError(t, err)
		ids = append(ids, line.ID)
	}
	_, err := f.svc.Add(ctx, "another-kiosk", AddItemInput{ProductVariantID: variant, Quantity: 1})
	require.NoError(t, err)

	require.NoError(t, f.svc.Remove(ctx, session, ids[0]))
	assert.ErrorIs(t, f.svc.Remove(ctx, session, ids[0]), ErrItemNotFound)
	assert.Equal(t, 2, f.count(t, "customizations"))

	removed, err := f.svc.Clear(ctx, session)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.Equal(t, 0, f.count(t, "customizations"))

	cart, err := f.svc.Get(ctx, session)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.True(t, cart.Total.IsZero())

	other, err := f.svc.Get(ctx, "another-kiosk")
	require.NoError(t, err)
	assert.Len(t, other.Items, 1)
}

func TestNewSessionIsUnique(t *testing.T) {
	f := newFixture(t)

	a, b := f.svc.NewSession(), f.svc.NewSession()
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 36)
}

func TestUnconfiguredService(t *testing.T) {
	var svc *Service
	_, err := svc.Get(context.Background(), session)
	assert.Error(t, err)
}
