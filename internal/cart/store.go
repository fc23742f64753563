package cart

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Simplici0/teekiosk/internal/pricing"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store is the SQLite persistence for variants, customizations and cart lines.
type Store struct {
	db *sql.DB
}

// NewStore wraps an open database. The schema must already be migrated.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// WithTx runs fn in a transaction, rolling back on any error.
func (s *Store) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

const variantColumns = `id, product_type, size, color, thickness, thickness_name, base_price`

type scanner interface {
	Scan(dest ...any) error
}

func scanVariant(row scanner) (Variant, error) {
	var (
		v     Variant
		size  string
		price string
	)
	if err := row.Scan(&v.ID, &v.ProductType, &size, &v.Color, &v.Thickness, &v.ThicknessName, &price); err != nil {
		return Variant{}, err
	}
	v.Size = pricing.Size(size)
	p, err := decimal.NewFromString(price)
	if err != nil {
		return Variant{}, fmt.Errorf("variant %d base price %q: %w", v.ID, price, err)
	}
	v.BasePrice = p
	return v, nil
}

// ListVariants returns every variant ordered by thickness then size.
func (s *Store) ListVariants(ctx context.Context) ([]Variant, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+variantColumns+`
		FROM product_variants
		ORDER BY thickness, CASE size WHEN 'S' THEN 1 WHEN 'M' THEN 2 WHEN 'L' THEN 3 WHEN 'XL' THEN 4 ELSE 5 END, color, id
	`)
	if err != nil {
		return nil, fmt.Errorf("query variants: %w", err)
	}
	defer rows.Close()

	variants := make([]Variant, 0)
	for rows.Next() {
		v, err := scanVariant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan variant: %w", err)
		}
		variants = append(variants, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate variants: %w", err)
	}
	return variants, nil
}

// GetVariant loads one variant or returns ErrVariantNotFound.
func (s *Store) GetVariant(ctx context.Context, id int64) (Variant, error) {
	return getVariant(ctx, s.db, id)
}

func getVariant(ctx context.Context, q querier, id int64) (Variant, error) {
	v, err := scanVariant(q.QueryRowContext(ctx, `SELECT `+variantColumns+` FROM product_variants WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Variant{}, ErrVariantNotFound
	}
	if err != nil {
		return Variant{}, fmt.Errorf("load variant %d: %w", id, err)
	}
	return v, nil
}

func insertCustomization(ctx context.Context, q querier, c *pricing.Customization, cost decimal.Decimal) (int64, error) {
	position, err := nullJSON(c.Position, c.Position != nil)
	if err != nil {
		return 0, fmt.Errorf("encode position: %w", err)
	}
	elements, err := nullJSON(c.Elements, len(c.Elements) > 0)
	if err != nil {
		return 0, fmt.Errorf("encode elements: %w", err)
	}

	res, err := q.ExecContext(ctx, `
		INSERT INTO customizations (
			type, src, prompt, text, font, text_color,
			design_name, design_category, flat_fee_only,
			position_data, elements_data, cost
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.Type, c.Src, c.Prompt, c.Text, c.Font, c.TextColor,
		c.Name, c.Category, c.FlatFeeOnly,
		position, elements, cost.StringFixed(2))
	if err != nil {
		return 0, fmt.Errorf("insert customization: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("customization id: %w", err)
	}
	return id, nil
}

func nullJSON(v any, present bool) (sql.NullString, error) {
	if !present {
		return sql.NullString{}, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(raw), Valid: true}, nil
}

func getDesign(ctx context.Context, q querier, id int64) (*Design, error) {
	var (
		d        Design
		position sql.NullString
		elements sql.NullString
		cost     string
	)
	err := q.QueryRowContext(ctx, `
		SELECT id, type, src, prompt, text, font, text_color,
			design_name, design_category, flat_fee_only,
			position_data, elements_data, cost
		FROM customizations
		WHERE id = ?
	`, id).Scan(&d.ID, &d.Type, &d.Src, &d.Prompt, &d.Text, &d.Font, &d.TextColor,
		&d.Name, &d.Category, &d.FlatFeeOnly, &position, &elements, &cost)
	if err != nil {
		return nil, fmt.Errorf("load customization %d: %w", id, err)
	}

	if position.Valid {
		d.Position = &pricing.Position{}
		if err := json.Unmarshal([]byte(position.String), d.Position); err != nil {
			return nil, fmt.Errorf("decode customization %d position: %w", id, err)
		}
	}
	if elements.Valid {
		if err := json.Unmarshal([]byte(elements.String), &d.Elements); err != nil {
			return nil, fmt.Errorf("decode customization %d elements: %w", id, err)
		}
	}
	if d.Cost, err = decimal.NewFromString(cost); err != nil {
		return nil, fmt.Errorf("decode customization %d cost: %w", id, err)
	}
	return &d, nil
}

type newLine struct {
	sessionID string
	variantID int64
	quantity  int
	frontID   sql.NullInt64
	backID    sql.NullInt64
	breakdown pricing.Breakdown
}

func insertLine(ctx context.Context, q querier, l newLine) (int64, error) {
	breakdown, err := json.Marshal(l.breakdown)
	if err != nil {
		return 0, fmt.Errorf("encode price breakdown: %w", err)
	}

	res, err := q.ExecContext(ctx, `
		INSERT INTO cart_items (
			cart_session_id, product_variant_id, quantity,
			front_customization_id, back_customization_id,
			calculated_unit_price, price_breakdown
		)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, l.sessionID, l.variantID, l.quantity, l.frontID, l.backID,
		l.breakdown.TotalUnitPrice.StringFixed(2), string(breakdown))
	if err != nil {
		return 0, fmt.Errorf("insert cart item: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("cart item id: %w", err)
	}
	return id, nil
}

const lineQuery = `
	SELECT ci.id, ci.cart_session_id, ci.quantity,
		ci.front_customization_id, ci.back_customization_id,
		ci.calculated_unit_price, ci.price_breakdown,
		ci.created_at, ci.updated_at,
		v.id, v.product_type, v.size, v.color, v.thickness, v.thickness_name, v.base_price
	FROM cart_items ci
	JOIN product_variants v ON v.id = ci.product_variant_id
`

type lineRow struct {
	line    Line
	frontID sql.NullInt64
	backID  sql.NullInt64
}

func scanLine(row scanner) (lineRow, error) {
	var (
		r                    lineRow
		unitPrice, breakdown string
		created, updated     string
		size, basePrice      string
	)
	l := &r.line
	if err := row.Scan(&l.ID, &l.CartSessionID, &l.Quantity, &r.frontID, &r.backID,
		&unitPrice, &breakdown, &created, &updated,
		&l.Variant.ID, &l.Variant.ProductType, &size, &l.Variant.Color,
		&l.Variant.Thickness, &l.Variant.ThicknessName, &basePrice); err != nil {
		return lineRow{}, err
	}

	var err error
	if l.CalculatedUnitPrice, err = decimal.NewFromString(unitPrice); err != nil {
		return lineRow{}, fmt.Errorf("cart item %d unit price: %w", l.ID, err)
	}
	if l.Variant.BasePrice, err = decimal.NewFromString(basePrice); err != nil {
		return lineRow{}, fmt.Errorf("cart item %d base price: %w", l.ID, err)
	}
	if err := json.Unmarshal([]byte(breakdown), &l.PriceBreakdown); err != nil {
		return lineRow{}, fmt.Errorf("cart item %d breakdown: %w", l.ID, err)
	}
	l.CreatedAt = parseTimestamp(created)
	l.UpdatedAt = parseTimestamp(updated)
	l.Variant.Size = pricing.Size(size)
	l.ProductVariantID = l.Variant.ID
	l.LineTotal = l.CalculatedUnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
	return r, nil
}

func parseTimestamp(v string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return t
}

// attachDesigns loads the stored customizations referenced by a line.
func attachDesigns(ctx context.Context, q querier, r *lineRow) error {
	if r.frontID.Valid {
		d, err := getDesign(ctx, q, r.frontID.Int64)
		if err != nil {
			return err
		}
		r.line.FrontDesign = d
	}
	if r.backID.Valid {
		d, err := getDesign(ctx, q, r.backID.Int64)
		if err != nil {
			return err
		}
		r.line.BackDesign = d
	}
	return nil
}

func getLine(ctx context.Context, q querier, sessionID string, id int64) (Line, error) {
	r, err := scanLine(q.QueryRowContext(ctx, lineQuery+` WHERE ci.cart_session_id = ? AND ci.id = ?`, sessionID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Line{}, ErrItemNotFound
	}
	if err != nil {
		return Line{}, fmt.Errorf("load cart item %d: %w", id, err)
	}
	if err := attachDesigns(ctx, q, &r); err != nil {
		return Line{}, err
	}
	return r.line, nil
}

// GetLine loads one line of a session or returns ErrItemNotFound.
func (s *Store) GetLine(ctx context.Context, sessionID string, id int64) (Line, error) {
	return getLine(ctx, s.db, sessionID, id)
}

// ListLines returns the lines of a session in insertion order.
func (s *Store) ListLines(ctx context.Context, sessionID string) ([]Line, error) {
	rows, err := s.db.QueryContext(ctx, lineQuery+` WHERE ci.cart_session_id = ? ORDER BY ci.id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query cart items: %w", err)
	}

	var pending []lineRow
	for rows.Next() {
		r, err := scanLine(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		pending = append(pending, r)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate cart items: %w", err)
	}
	rows.Close()

	lines := make([]Line, 0, len(pending))
	for i := range pending {
		if err := attachDesigns(ctx, s.db, &pending[i]); err != nil {
			return nil, err
		}
		lines = append(lines, pending[i].line)
	}
	return lines, nil
}

// UpdateQuantity changes a line's quantity. The unit price is not recomputed.
func (s *Store) UpdateQuantity(ctx context.Context, sessionID string, id int64, quantity int) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE cart_items
		SET quantity = ?, updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')
		WHERE cart_session_id = ? AND id = ?
	`, quantity, sessionID, id)
	if err != nil {
		return fmt.Errorf("update cart item %d: %w", id, err)
	}
	return requireAffected(res, id)
}

// DeleteLine removes a line and its customizations.
func (s *Store) DeleteLine(ctx context.Context, sessionID string, id int64) error {
	return s.WithTx(ctx, func(tx *sql.Tx) error {
		var front, back sql.NullInt64
		err := tx.QueryRowContext(ctx, `
			SELECT front_customization_id, back_customization_id
			FROM cart_items
			WHERE cart_session_id = ? AND id = ?
		`, sessionID, id).Scan(&front, &back)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrItemNotFound
		}
		if err != nil {
			return fmt.Errorf("load cart item %d: %w", id, err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete cart item %d: %w", id, err)
		}
		return deleteCustomizations(ctx, tx, front, back)
	})
}

// Clear removes every line of a session and returns how many were removed.
func (s *Store) Clear(ctx context.Context, sessionID string) (int, error) {
	removed := 0
	err := s.WithTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `
			SELECT front_customization_id, back_customization_id
			FROM cart_items
			WHERE cart_session_id = ?
		`, sessionID)
		if err != nil {
			return fmt.Errorf("query cart items: %w", err)
		}
		var ids []sql.NullInt64
		for rows.Next() {
			var front, back sql.NullInt64
			if err := rows.Scan(&front, &back); err != nil {
				rows.Close()
				return fmt.Errorf("scan cart item: %w", err)
			}
			ids = append(ids, front, back)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return fmt.Errorf("iterate cart items: %w", err)
		}
		rows.Close()

		res, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_session_id = ?`, sessionID)
		if err != nil {
			return fmt.Errorf("clear cart %s: %w", sessionID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("clear cart %s: %w", sessionID, err)
		}
		removed = int(n)
		return deleteCustomizations(ctx, tx, ids...)
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

func deleteCustomizations(ctx context.Context, q querier, ids ...sql.NullInt64) error {
	for _, id := range ids {
		if !id.Valid {
			continue
		}
		if _, err := q.ExecContext(ctx, `DELETE FROM customizations WHERE id = ?`, id.Int64); err != nil {
			return fmt.Errorf("delete customization %d: %w", id.Int64, err)
		}
	}
	return nil
}

func requireAffected(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("cart item %d rows affected: %w", id, err)
	}
	if n == 0 {
		return ErrItemNotFound
	}
	return nil
}
