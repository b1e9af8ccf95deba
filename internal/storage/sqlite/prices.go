package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hetulpatel/arbhunter/internal/models"
	"github.com/hetulpatel/arbhunter/internal/storage"
)

// PriceStore implements storage.PriceStore.
type PriceStore struct {
	db *sql.DB
}

var _ storage.PriceStore = (*PriceStore)(nil)

func (s *PriceStore) AppendPrices(ctx context.Context, records []models.PriceRecord) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO market_prices (venue, market_id, event_name, outcome, price, observed_at) VALUES (?,?,?,?,?,?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, r.Venue, r.MarketID, r.EventName, string(r.Outcome), r.Price, toUnix(r.ObservedAt)); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert price %s/%s: %w", r.Venue, r.MarketID, err)
		}
	}
	return tx.Commit()
}

func (s *PriceStore) LatestPrices(ctx context.Context, venue string, limit int) ([]models.PriceRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT venue, market_id, event_name, outcome, price, observed_at FROM market_prices
		WHERE venue = ? ORDER BY observed_at DESC, id DESC LIMIT ?`,
		venue, limitArg(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("latest prices: %w", err)
	}
	defer rows.Close()

	var out []models.PriceRecord
	for rows.Next() {
		var (
			r       models.PriceRecord
			event   sql.NullString
			outcome string
			ts      int64
		)
		if err := rows.Scan(&r.Venue, &r.MarketID, &event, &outcome, &r.Price, &ts); err != nil {
			return nil, err
		}
		r.EventName = event.String
		r.Outcome = models.Outcome(outcome)
		r.ObservedAt = fromUnix(ts)
		out = append(out, r)
	}
	return out, rows.Err()
}
