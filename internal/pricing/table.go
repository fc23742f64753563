package pricing

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
)

// Size is a garment size offered by the kiosk.
type Size string

const (
	SizeS  Size = "S"
	SizeM  Size = "M"
	SizeL  Size = "L"
	SizeXL Size = "XL"
)

// Sizes lists the supported sizes in display order.
var Sizes = []Size{SizeS, SizeM, SizeL, SizeXL}

// Tier is a discrete print-coverage bracket.
type Tier string

const (
	TierQuarter      Tier = "1/4"
	TierHalf         Tier = "1/2"
	TierThreeQuarter Tier = "3/4"
	TierFull         Tier = "Full"
)

// Tiers lists the coverage brackets from smallest to largest.
var Tiers = []Tier{TierQuarter, TierHalf, TierThreeQuarter, TierFull}

// TierFor maps a coverage ratio to its bracket. Upper bounds are inclusive.
func TierFor(coverage float64) Tier {
	switch {
	case coverage <= 0.25:
		return TierQuarter
	case coverage <= 0.50:
		return TierHalf
	case coverage <= 0.75:
		return TierThreeQuarter
	default:
		return TierFull
	}
}

// Table is the full set of prices the calculator works from. A Table handed to
// NewCalculator is copied, so later changes by the caller have no effect.
type Table struct {
	Version  string `json:"version"`
	Currency string `json:"currency"`

	// BaseCosts is keyed by fabric weight in GSM.
	BaseCosts        map[int]decimal.Decimal `json:"baseCosts"`
	DesignAddon      decimal.Decimal         `json:"designAddon"`
	EmbroideryText   decimal.Decimal         `json:"embroideryText"`
	EmbroideryDesign decimal.Decimal         `json:"embroideryDesign"`
	LibrarySticker   decimal.Decimal         `json:"librarySticker"`

	// CanvasWidth and CanvasHeight are the UI pixel dimensions of the outer
	// printable guide. Its area corresponds to MaxPrintAreaSqIn for every size.
	CanvasWidth      float64                           `json:"canvasWidth"`
	CanvasHeight     float64                           `json:"canvasHeight"`
	MaxPrintAreaSqIn map[Size]float64                  `json:"maxPrintAreaSqIn"`
	PrintCosts       map[Size]map[Tier]decimal.Decimal `json:"printCosts"`

	// MaxElements caps the designs on one multi-library side.
	MaxElements int `json:"maxElements"`
}

// DefaultTable returns the reference kiosk price list.
func DefaultTable() Table {
	return Table{
		Version:  "2024-kiosk-1",
		Currency: "INR",
		BaseCosts: map[int]decimal.Decimal{
			180: decimal.RequireFromString("349.00"),
			240: decimal.RequireFromString("499.00"),
		},
		DesignAddon:      decimal.RequireFromString("50.00"),
		EmbroideryText:   decimal.RequireFromString("80.00"),
		EmbroideryDesign: decimal.RequireFromString("50.00"),
		LibrarySticker:   decimal.RequireFromString("20.00"),
		CanvasWidth:      330,
		CanvasHeight:     488,
		MaxPrintAreaSqIn: map[Size]float64{
			SizeS:  448.5,
			SizeM:  480.0,
			SizeL:  525.0,
			SizeXL: 572.0,
		},
		PrintCosts: map[Size]map[Tier]decimal.Decimal{
			SizeS:  tierPrices("56.06", "112.13", "168.19", "224.25"),
			SizeM:  tierPrices("60.00", "120.00", "180.00", "240.00"),
			SizeL:  tierPrices("65.63", "131.25", "196.88", "262.50"),
			SizeXL: tierPrices("71.50", "143.00", "214.50", "286.00"),
		},
		MaxElements: 4,
	}
}

func tierPrices(quarter, half, threeQuarter, full string) map[Tier]decimal.Decimal {
	return map[Tier]decimal.Decimal{
		TierQuarter:      decimal.RequireFromString(quarter),
		TierHalf:         decimal.RequireFromString(half),
		TierThreeQuarter: decimal.RequireFromString(threeQuarter),
		TierFull:         decimal.RequireFromString(full),
	}
}

// LoadTable reads a JSON price list from path and validates it.
func LoadTable(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("read pricing table: %w", err)
	}

	var t Table
	if err := json.Unmarshal(data, &t); err != nil {
		return Table{}, fmt.Errorf("parse pricing table: %w", err)
	}
	if err := t.Validate(); err != nil {
		return Table{}, fmt.Errorf("invalid pricing table: %w", err)
	}
	return t, nil
}

// CanvasArea is the pixel area of the outer printable guide.
func (t Table) CanvasArea() float64 {
	return t.CanvasWidth * t.CanvasHeight
}

// Validate reports every structural problem with the table.
func (t Table) Validate() error {
	var errs []error

	if len(t.BaseCosts) == 0 {
		errs = append(errs, errors.New("baseCosts is required"))
	}
	for gsm, cost := range t.BaseCosts {
		if gsm <= 0 {
			errs = append(errs, fmt.Errorf("baseCosts: GSM %d must be positive", gsm))
		}
		if !cost.IsPositive() {
			errs = append(errs, fmt.Errorf("baseCosts: GSM %d must have a positive cost", gsm))
		}
	}

	for name, fee := range map[string]decimal.Decimal{
		"designAddon":      t.DesignAddon,
		"embroideryText":   t.EmbroideryText,
		"embroideryDesign": t.EmbroideryDesign,
		"librarySticker":   t.LibrarySticker,
	} {
		if fee.IsNegative() {
			errs = append(errs, fmt.Errorf("%s must not be negative", name))
		}
	}

	if t.CanvasWidth <= 0 || t.CanvasHeight <= 0 {
		errs = append(errs, errors.New("canvasWidth and canvasHeight must be positive"))
	}
	if t.MaxElements <= 0 {
		errs = append(errs, errors.New("maxElements must be positive"))
	}

	if len(t.MaxPrintAreaSqIn) == 0 {
		errs = append(errs, errors.New("maxPrintAreaSqIn is required"))
	}
	for size, area := range t.MaxPrintAreaSqIn {
		if area <= 0 {
			errs = append(errs, fmt.Errorf("maxPrintAreaSqIn: size %q must be positive", size))
		}
		prices, ok := t.PrintCosts[size]
		if !ok {
			errs = append(errs, fmt.Errorf("printCosts: size %q is missing", size))
			continue
		}
		for _, tier := range Tiers {
			price, ok := prices[tier]
			if !ok {
				errs = append(errs, fmt.Errorf("printCosts: size %q has no %q price", size, tier))
				continue
			}
			if price.IsNegative() {
				errs = append(errs, fmt.Errorf("printCosts: size %q tier %q must not be negative", size, tier))
			}
		}
	}

	return errors.Join(errs...)
}

// Clone returns a deep copy of the table.
func (t Table) Clone() Table {
	out := t

	out.BaseCosts = make(map[int]decimal.Decimal, len(t.BaseCosts))
	for gsm, cost := range t.BaseCosts {
		out.BaseCosts[gsm] = cost
	}

	out.MaxPrintAreaSqIn = make(map[Size]float64, len(t.MaxPrintAreaSqIn))
	for size, area := range t.MaxPrintAreaSqIn {
		out.MaxPrintAreaSqIn[size] = area
	}

	out.PrintCosts = make(map[Size]map[Tier]decimal.Decimal, len(t.PrintCosts))
	for size, prices := range t.PrintCosts {
		cp := make(map[Tier]decimal.Decimal, len(prices))
		for tier, price := range prices {
			cp[tier] = price
		}
		out.PrintCosts[size] = cp
	}

	return out
}
