package pricing

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Side identifies the garment face a customization is placed on.
type Side string

const (
	SideFront Side = "front"
	SideBack  Side = "back"
)

// Position is a placement rectangle in UI pixel space.
type Position struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Area returns the rectangle's pixel area and whether its dimensions are usable.
func (p *Position) Area() (float64, bool) {
	if p == nil {
		return 0, false
	}
	if !finitePositive(p.Width) || !finitePositive(p.Height) {
		return 0, false
	}
	return p.Width * p.Height, true
}

func finitePositive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

// DesignElement is one placed design on a multi-library side.
type DesignElement struct {
	DesignID string    `json:"designId"`
	Src      string    `json:"src"`
	Name     string    `json:"name,omitempty"`
	Price    float64   `json:"price,omitempty"`
	Position *Position `json:"position,omitempty"`
}

// Customization is the design applied to one side of a garment.
type Customization struct {
	Type      string    `json:"type" validate:"max=64"`
	Src       string    `json:"src,omitempty"`
	Prompt    string    `json:"prompt,omitempty" validate:"max=1000"`
	Text      string    `json:"text,omitempty" validate:"max=200"`
	Font      string    `json:"font,omitempty" validate:"max=64"`
	TextColor string    `json:"textColor,omitempty" validate:"max=32"`
	Name      string    `json:"name,omitempty" validate:"max=200"`
	Category  string    `json:"designCategory,omitempty" validate:"max=100"`
	Position  *Position `json:"position,omitempty"`

	// FlatFeeOnly marks a library design charged the sticker fee alone,
	// without a coverage-based print cost.
	FlatFeeOnly bool `json:"flatFeeOnly,omitempty"`

	// Elements is only read for multi_library_design customizations.
	Elements []DesignElement `json:"elements,omitempty" validate:"max=16"`
}

// Item is a configured garment as assembled by the kiosk.
type Item struct {
	Size      Size           `json:"size"`
	Thickness int            `json:"thickness"`
	Color     string         `json:"color,omitempty"`
	Quantity  int            `json:"quantity,omitempty"`
	Front     *Customization `json:"frontCustomization,omitempty"`
	Back      *Customization `json:"backCustomization,omitempty"`
}

// Breakdown contains every line item of a unit price calculation.
type Breakdown struct {
	BaseShirtCost            decimal.Decimal `json:"baseShirtCost"`
	DesignAddonCost          decimal.Decimal `json:"designAddonCost"`
	EmbroideryCostFront      decimal.Decimal `json:"embroideryCostFront"`
	EmbroideryCostBack       decimal.Decimal `json:"embroideryCostBack"`
	PrintingCostFront        decimal.Decimal `json:"printingCostFront"`
	PrintingCostBack         decimal.Decimal `json:"printingCostBack"`
	LibraryDesignStickerCost decimal.Decimal `json:"libraryDesignStickerCost"`
	TotalUnitPrice           decimal.Decimal `json:"totalUnitPrice"`

	PrintTierFront Tier `json:"printTierFront,omitempty"`
	PrintTierBack  Tier `json:"printTierBack,omitempty"`

	Errors []string `json:"errors"`
}

// Fatal reports whether no base price could be established.
func (b Breakdown) Fatal() bool {
	return len(b.Errors) > 0 && b.BaseShirtCost.IsZero()
}

// Err joins the recorded validation messages, or returns nil.
func (b Breakdown) Err() error {
	if len(b.Errors) == 0 {
		return nil
	}
	errs := make([]error, 0, len(b.Errors))
	for _, msg := range b.Errors {
		errs = append(errs, errors.New(msg))
	}
	return errors.Join(errs...)
}

func (b *Breakdown) addError(format string, args ...any) {
	b.Errors = append(b.Errors, fmt.Sprintf(format, args...))
}

func (b *Breakdown) sum() decimal.Decimal {
	return decimal.Sum(
		b.BaseShirtCost,
		b.DesignAddonCost,
		b.EmbroideryCostFront,
		b.EmbroideryCostBack,
		b.PrintingCostFront,
		b.PrintingCostBack,
		b.LibraryDesignStickerCost,
	)
}

func zeroBreakdown() Breakdown {
	return Breakdown{
		BaseShirtCost:            decimal.Zero,
		DesignAddonCost:          decimal.Zero,
		EmbroideryCostFront:      decimal.Zero,
		EmbroideryCostBack:       decimal.Zero,
		PrintingCostFront:        decimal.Zero,
		PrintingCostBack:         decimal.Zero,
		LibraryDesignStickerCost: decimal.Zero,
		TotalUnitPrice:           decimal.Zero,
		Errors:                   []string{},
	}
}

// Calculator prices items against a fixed Table. It is safe for concurrent use.
type Calculator struct {
	table Table
}

// NewCalculator validates t and returns a calculator bound to a copy of it.
func NewCalculator(t Table) (*Calculator, error) {
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("pricing table: %w", err)
	}
	return &Calculator{table: t.Clone()}, nil
}

// Table returns a copy of the calculator's price list.
func (c *Calculator) Table() Table {
	return c.table.Clone()
}

var defaultCalculator = mustDefaultCalculator()

func mustDefaultCalculator() *Calculator {
	c, err := NewCalculator(DefaultTable())
	if err != nil {
		panic(err)
	}
	return c
}

// Calculate prices item against DefaultTable.
func Calculate(item Item) Breakdown {
	return defaultCalculator.Compute(item)
}

// Compute prices a single unit of item. It never fails: validation problems
// are reported in Breakdown.Errors and the affected component is left at zero.
// Only a missing or unknown thickness stops the calculation early.
func (c *Calculator) Compute(item Item) Breakdown {
	b := zeroBreakdown()

	base, ok := c.table.BaseCosts[item.Thickness]
	if item.Thickness == 0 || !ok {
		b.addError("invalid thickness: GSM %d is not set or not offered", item.Thickness)
		return b
	}
	b.BaseShirtCost = base

	front := classOf(item.Front)
	back := classOf(item.Back)

	if front.creative() || back.creative() {
		b.DesignAddonCost = c.table.DesignAddon
	}

	b.EmbroideryCostFront = c.embroideryCost(front)
	b.EmbroideryCostBack = c.embroideryCost(back)

	c.checkElementCap(&b, SideFront, item.Front, front)
	b.PrintingCostFront, b.PrintTierFront = c.printingCost(&b, SideFront, item.Front, front, item.Size)
	c.checkElementCap(&b, SideBack, item.Back, back)
	b.PrintingCostBack, b.PrintTierBack = c.printingCost(&b, SideBack, item.Back, back, item.Size)

	b.LibraryDesignStickerCost = c.stickerCost(item.Front, front, item.Back, back)

	b.TotalUnitPrice = b.sum()
	return b
}

func (c *Calculator) embroideryCost(src Source) decimal.Decimal {
	switch src {
	case SourceEmbroideryText:
		return c.table.EmbroideryText
	case SourceEmbroideryDesign:
		return c.table.EmbroideryDesign
	case SourcePlain, SourceAI, SourceOwnPhoto, SourceLibrary, SourceAIDraw, SourceOther:
		return decimal.Zero
	}
	return decimal.Zero
}

// printingCost derives the coverage-tier price for one side.
func (c *Calculator) printingCost(b *Breakdown, side Side, cust *Customization, src Source, size Size) (decimal.Decimal, Tier) {
	if cust == nil || !src.rasterPrinted() {
		return decimal.Zero, ""
	}
	if src == SourceLibrary && cust.FlatFeeOnly {
		return decimal.Zero, ""
	}

	area, ok := c.pixelArea(b, side, cust)
	if !ok {
		return decimal.Zero, ""
	}

	maxSqIn, ok := c.table.MaxPrintAreaSqIn[size]
	if !ok {
		b.addError("%s: size %q is invalid or not set, print cost skipped", side, size)
		return decimal.Zero, ""
	}

	// The whole guide rectangle maps onto the size's printable area, so the
	// conversion is an area ratio rather than a linear scale.
	factor := c.table.CanvasArea() / maxSqIn
	sqIn := area / factor
	if sqIn > maxSqIn {
		sqIn = maxSqIn
	}

	tier := TierFor(sqIn / maxSqIn)
	price, ok := c.table.PrintCosts[size][tier]
	if !ok {
		b.addError("%s: no print cost for size %q tier %q", side, size, tier)
		return decimal.Zero, ""
	}
	return price, tier
}

// pixelArea returns the placed design area for a side, summing elements on
// multi-library sides.
func (c *Calculator) pixelArea(b *Breakdown, side Side, cust *Customization) (float64, bool) {
	if cust.Type != TypeMultiLibrary {
		area, ok := cust.Position.Area()
		if !ok {
			b.addError("%s: invalid or missing position (width/height in UI pixels), print cost skipped", side)
			return 0, false
		}
		return area, true
	}

	elements := c.cappedElements(cust)
	if len(elements) == 0 {
		b.addError("%s: multi library design has no elements, print cost skipped", side)
		return 0, false
	}

	var total float64
	for i, el := range elements {
		area, ok := el.Position.Area()
		if !ok {
			b.addError("%s: element %d has invalid or missing position, element skipped", side, i+1)
			continue
		}
		total += area
	}
	if total == 0 {
		return 0, false
	}
	return total, true
}

// checkElementCap records, once per side, that a multi-library side carries
// more designs than are priced. Print and sticker costs both use the first
// MaxElements only.
func (c *Calculator) checkElementCap(b *Breakdown, side Side, cust *Customization, src Source) {
	if cust == nil || src != SourceLibrary || cust.Type != TypeMultiLibrary {
		return
	}
	if len(cust.Elements) > c.table.MaxElements {
		b.addError("%s: %d designs placed, only the first %d are priced", side, len(cust.Elements), c.table.MaxElements)
	}
}

func (c *Calculator) cappedElements(cust *Customization) []DesignElement {
	if len(cust.Elements) > c.table.MaxElements {
		return cust.Elements[:c.table.MaxElements]
	}
	return cust.Elements
}

// stickerCost charges the library fee per occurrence. A back occurrence whose
// src equals one placed on the front is not charged again.
func (c *Calculator) stickerCost(front *Customization, frontSrc Source, back *Customization, backSrc Source) decimal.Decimal {
	seen := make(map[string]bool)
	count := 0

	for _, asset := range c.libraryAssets(front, frontSrc) {
		count++
		seen[asset] = true
	}
	for _, asset := range c.libraryAssets(back, backSrc) {
		if seen[asset] {
			continue
		}
		count++
	}

	return c.table.LibrarySticker.Mul(decimal.NewFromInt(int64(count)))
}

func (c *Calculator) libraryAssets(cust *Customization, src Source) []string {
	if cust == nil || src != SourceLibrary {
		return nil
	}
	if cust.Type != TypeMultiLibrary {
		return []string{cust.Src}
	}

	elements := c.cappedElements(cust)
	assets := make([]string, 0, len(elements))
	for _, el := range elements {
		assets = append(assets, el.Src)
	}
	return assets
}
