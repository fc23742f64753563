package seed

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/Simplici0/teekiosk/internal/pricing"
)

const (
	defaultProductType = "tshirt"
	defaultColor       = "black"
)

var thicknessNames = map[int]string{
	180: "Forma flow",
	240: "Forma dense",
}

// Config contains the values required by startup seed.
type Config struct {
	// Table supplies the offered thicknesses and their base prices.
	Table pricing.Table
	// Colors defaults to black when empty.
	Colors []string
}

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
	Updates int
}

// Run ensures a product variant exists for every size, thickness and color, with
// the base price from the table. It is idempotent.
func Run(db *sql.DB, cfg Config) (Stats, error) {
	if len(cfg.Table.BaseCosts) == 0 {
		return Stats{}, errors.New("seed: pricing table has no base costs")
	}
	colors := cfg.Colors
	if len(colors) == 0 {
		colors = []string{defaultColor}
	}

	gsms := make([]int, 0, len(cfg.Table.BaseCosts))
	for gsm := range cfg.Table.BaseCosts {
		gsms = append(gsms, gsm)
	}
	sort.Ints(gsms)

	tx, err := db.Begin()
	if err != nil {
		return Stats{}, fmt.Errorf("begin seed transaction: %w", err)
	}

	stats := Stats{}
	for _, color := range colors {
		for _, size := range pricing.Sizes {
			for _, gsm := range gsms {
				v := variant{
					size:      string(size),
					color:     color,
					thickness: gsm,
					basePrice: cfg.Table.BaseCosts[gsm].StringFixed(2),
				}
				if err := ensureVariant(tx, v, &stats); err != nil {
					_ = tx.Rollback()
					return Stats{}, err
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("commit seed transaction: %w", err)
	}

	return stats, nil
}

type variant struct {
	size      string
	color     string
	thickness int
	basePrice string
}

func thicknessName(gsm int) string {
	if name, ok := thicknessNames[gsm]; ok {
		return name
	}
	return fmt.Sprintf("%d GSM", gsm)
}

func ensureVariant(tx *sql.Tx, v variant, stats *Stats) error {
	var (
		id    int64
		price string
	)
	err := tx.QueryRow(`
		SELECT id, base_price
		FROM product_variants
		WHERE product_type = ? AND size = ? AND color = ? AND thickness = ?
	`, defaultProductType, v.size, v.color, v.thickness).Scan(&id, &price)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := tx.Exec(`
			INSERT INTO product_variants (product_type, size, color, thickness, thickness_name, base_price)
			VALUES (?, ?, ?, ?, ?, ?)
		`, defaultProductType, v.size, v.color, v.thickness, thicknessName(v.thickness), v.basePrice); err != nil {
			return fmt.Errorf("insert variant %s/%s/%d: %w", v.size, v.color, v.thickness, err)
		}
		stats.Inserts++
		return nil
	case err != nil:
		return fmt.Errorf("check variant %s/%s/%d existence: %w", v.size, v.color, v.thickness, err)
	}

	if price == v.basePrice {
		return nil
	}
	if _, err := tx.Exec(`UPDATE product_variants SET base_price = ? WHERE id = ?`, v.basePrice, id); err != nil {
		return fmt.Errorf("update variant %d base price: %w", id, err)
	}
	stats.Updates++
	return nil
}
