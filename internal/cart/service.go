package cart

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Simplici0/teekiosk/internal/obs"
	"github.com/Simplici0/teekiosk/internal/pricing"
)

// Service encapsulates cart domain operations. The pricing calculator is the
// only source of unit prices.
type Service struct {
	Store    *Store
	Calc     *pricing.Calculator
	Validate *validator.Validate
	Logger   zerolog.Logger
	Metrics  *obs.PricingMetrics
}

// NewService wires a service with a fresh validator.
func NewService(store *Store, calc *pricing.Calculator, logger zerolog.Logger, metrics *obs.PricingMetrics) *Service {
	return &Service{
		Store:    store,
		Calc:     calc,
		Validate: validator.New(validator.WithRequiredStructEnabled()),
		Logger:   logger,
		Metrics:  metrics,
	}
}

func (s *Service) configured() error {
	if s == nil || s.Store == nil || s.Calc == nil {
		return errors.New("cart service not configured")
	}
	return nil
}

// NewSession returns a fresh cart session identifier.
func (s *Service) NewSession() string {
	return uuid.NewString()
}

// Variants lists the catalog.
func (s *Service) Variants(ctx context.Context) ([]Variant, error) {
	if err := s.configured(); err != nil {
		return nil, err
	}
	return s.Store.ListVariants(ctx)
}

// Variant loads one catalog entry.
func (s *Service) Variant(ctx context.Context, id int64) (Variant, error) {
	if err := s.configured(); err != nil {
		return Variant{}, err
	}
	return s.Store.GetVariant(ctx, id)
}

func (s *Service) checkSession(sessionID string) error {
	if err := s.Validate.Var(sessionID, "required,max=64,printascii"); err != nil {
		return fmt.Errorf("%w: cart session id: %v", ErrInvalidInput, err)
	}
	return nil
}

// Add prices the item with the server-side calculator and stores it as a new
// line, together with its customizations, in one transaction. A result with
// no base price is rejected with a *PricingError; other pricing problems are
// logged and the line is stored with the partial price.
func (s *Service) Add(ctx context.Context, sessionID string, in AddItemInput) (Line, error) {
	if err := s.configured(); err != nil {
		return Line{}, err
	}
	if err := s.checkSession(sessionID); err != nil {
		return Line{}, err
	}
	if !validQuantity(in.Quantity) {
		return Line{}, fmt.Errorf("%w: must be between 1 and %d", ErrInvalidQuantity, MaxQuantity)
	}
	if err := s.Validate.Struct(in); err != nil {
		return Line{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	in.normalize()

	var line Line
	err := s.Store.WithTx(ctx, func(tx *sql.Tx) error {
		variant, err := getVariant(ctx, tx, in.ProductVariantID)
		if err != nil {
			return err
		}

		breakdown := s.Calc.Compute(pricing.Item{
			Size:      variant.Size,
			Thickness: variant.Thickness,
			Color:     variant.Color,
			Quantity:  in.Quantity,
			Front:     in.Front,
			Back:      in.Back,
		})
		s.Metrics.ObserveCalculation(obs.PathCart, len(breakdown.Errors), breakdown.Fatal())
		if breakdown.Fatal() {
			return &PricingError{Breakdown: breakdown}
		}
		if len(breakdown.Errors) > 0 {
			s.Logger.Warn().
				Str("cart_session_id", sessionID).
				Int64("product_variant_id", variant.ID).
				Strs("errors", breakdown.Errors).
				Str("unit_price", breakdown.TotalUnitPrice.StringFixed(2)).
				Msg("pricing_warnings")
		}

		row := newLine{
			sessionID: sessionID,
			variantID: variant.ID,
			quantity:  in.Quantity,
			breakdown: breakdown,
		}
		if in.Front != nil {
			cost := breakdown.EmbroideryCostFront.Add(breakdown.PrintingCostFront)
			id, err := insertCustomization(ctx, tx, in.Front, cost)
			if err != nil {
				return err
			}
			row.frontID = sql.NullInt64{Int64: id, Valid: true}
		}
		if in.Back != nil {
			cost := breakdown.EmbroideryCostBack.Add(breakdown.PrintingCostBack)
			id, err := insertCustomization(ctx, tx, in.Back, cost)
			if err != nil {
				return err
			}
			row.backID = sql.NullInt64{Int64: id, Valid: true}
		}

		id, err := insertLine(ctx, tx, row)
		if err != nil {
			return err
		}
		line, err = getLine(ctx, tx, sessionID, id)
		return err
	})
	if err != nil {
		return Line{}, err
	}

	s.Metrics.ObserveCartLine("add")
	s.Logger.Info().
		Str("cart_session_id", sessionID).
		Int64("cart_item_id", line.ID).
		Int("quantity", line.Quantity).
		Str("unit_price", line.CalculatedUnitPrice.StringFixed(2)).
		Msg("cart_item_added")
	return line, nil
}

// Get returns the session's lines and the cart total.
func (s *Service) Get(ctx context.Context, sessionID string) (Cart, error) {
	if err := s.configured(); err != nil {
		return Cart{}, err
	}
	if err := s.checkSession(sessionID); err != nil {
		return Cart{}, err
	}

	lines, err := s.Store.ListLines(ctx, sessionID)
	if err != nil {
		return Cart{}, err
	}

	cart := Cart{
		SessionID: sessionID,
		Items:     lines,
		Total:     decimal.Zero,
		Currency:  s.Calc.Table().Currency,
	}
	for _, l := range lines {
		cart.ItemCount += l.Quantity
		cart.Total = cart.Total.Add(l.LineTotal)
	}
	return cart, nil
}

// UpdateQuantity changes a line's quantity and returns the updated line.
func (s *Service) UpdateQuantity(ctx context.Context, sessionID string, id int64, in UpdateQuantityInput) (Line, error) {
	if err := s.configured(); err != nil {
		return Line{}, err
	}
	if err := s.checkSession(sessionID); err != nil {
		return Line{}, err
	}
	if !validQuantity(in.Quantity) {
		return Line{}, fmt.Errorf("%w: must be between 1 and %d", ErrInvalidQuantity, MaxQuantity)
	}

	if err := s.Store.UpdateQuantity(ctx, sessionID, id, in.Quantity); err != nil {
		return Line{}, err
	}
	s.Metrics.ObserveCartLine("update")
	return s.Store.GetLine(ctx, sessionID, id)
}

// Remove deletes one line.
func (s *Service) Remove(ctx context.Context, sessionID string, id int64) error {
	if err := s.configured(); err != nil {
		return err
	}
	if err := s.checkSession(sessionID); err != nil {
		return err
	}
	if err := s.Store.DeleteLine(ctx, sessionID, id); err != nil {
		return err
	}
	s.Metrics.ObserveCartLine("delete")
	return nil
}

// Clear empties the cart, as done after checkout.
func (s *Service) Clear(ctx context.Context, sessionID string) (int, error) {
	if err := s.configured(); err != nil {
		return 0, err
	}
	if err := s.checkSession(sessionID); err != nil {
		return 0, err
	}
	n, err := s.Store.Clear(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.Metrics.ObserveCartLine("clear")
		s.Logger.Info().Str("cart_session_id", sessionID).Int("removed", n).Msg("cart_cleared")
	}
	return n, nil
}
