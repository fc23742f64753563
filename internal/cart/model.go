package cart

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Simplici0/teekiosk/internal/pricing"
)

var (
	// ErrVariantNotFound indicates the requested product variant does not exist.
	ErrVariantNotFound = errors.New("product variant not found")
	// ErrItemNotFound indicates the cart line does not exist in the session.
	ErrItemNotFound = errors.New("cart item not found")
	// ErrInvalidQuantity is returned for quantities outside 1..MaxQuantity.
	ErrInvalidQuantity = errors.New("invalid quantity")
	// ErrInvalidInput is returned when a payload fails validation.
	ErrInvalidInput = errors.New("invalid input")
)

// MaxQuantity caps a single cart line.
const MaxQuantity = 100

// PricingError is returned when the engine could not establish a price for
// the line. The breakdown is kept so callers can show the reasons.
type PricingError struct {
	Breakdown pricing.Breakdown
}

func (e *PricingError) Error() string {
	return "price calculation failed: " + strings.Join(e.Breakdown.Errors, "; ")
}

func (e *PricingError) Unwrap() error {
	return e.Breakdown.Err()
}

// Variant is a purchasable garment configuration.
type Variant struct {
	ID            int64           `json:"id"`
	ProductType   string          `json:"productType"`
	Size          pricing.Size    `json:"size"`
	Color         string          `json:"color"`
	Thickness     int             `json:"thickness"`
	ThicknessName string          `json:"thicknessName"`
	BasePrice     decimal.Decimal `json:"basePrice"`
}

// Design is a stored side customization.
type Design struct {
	ID int64 `json:"id"`
	pricing.Customization
	Cost decimal.Decimal `json:"cost"`
}

// Line is one cart item with its frozen unit price.
type Line struct {
	ID                  int64             `json:"id"`
	CartSessionID       string            `json:"cartSessionId"`
	ProductVariantID    int64             `json:"productVariantId"`
	Quantity            int               `json:"quantity"`
	CalculatedUnitPrice decimal.Decimal   `json:"calculatedUnitPrice"`
	LineTotal           decimal.Decimal   `json:"lineTotal"`
	PriceBreakdown      pricing.Breakdown `json:"priceBreakdown"`
	Variant             Variant           `json:"variant"`
	FrontDesign         *Design           `json:"frontDesign,omitempty"`
	BackDesign          *Design           `json:"backDesign,omitempty"`
	CreatedAt           time.Time         `json:"createdAt"`
	UpdatedAt           time.Time         `json:"updatedAt"`
}

// Cart is the content of one kiosk session.
type Cart struct {
	SessionID string          `json:"cartSessionId"`
	Items     []Line          `json:"items"`
	ItemCount int             `json:"itemCount"`
	Total     decimal.Decimal `json:"total"`
	Currency  string          `json:"currency"`
}

// AddItemInput is the add-to-cart payload sent by the kiosk.
type AddItemInput struct {
	ProductVariantID int64                  `json:"productVariantId" validate:"required,gt=0"`
	Quantity         int                    `json:"quantity"`
	Front            *pricing.Customization `json:"frontCustomizationData"`
	Back             *pricing.Customization `json:"backCustomizationData"`
}

// UpdateQuantityInput changes the quantity of an existing line.
type UpdateQuantityInput struct {
	Quantity int `json:"quantity"`
}

// normalize drops customizations without a type, which the kiosk sends for an
// untouched side.
func (in *AddItemInput) normalize() {
	if in.Front != nil && strings.TrimSpace(in.Front.Type) == "" {
		in.Front = nil
	}
	if in.Back != nil && strings.TrimSpace(in.Back.Type) == "" {
		in.Back = nil
	}
}

func validQuantity(q int) bool {
	return q >= 1 && q <= MaxQuantity
}
