package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/hetulpatel/arbhunter/internal/models"
	"github.com/hetulpatel/arbhunter/internal/storage"
)

// PositionStore implements storage.PositionStore.
type PositionStore struct {
	db *sql.DB
}

var _ storage.PositionStore = (*PositionStore)(nil)

const positionColumns = `position_id, opportunity_id, event_name, platform_a, platform_b,
	amount_bet_a, amount_bet_b, entry_price_a, entry_price_b, target_profit, target_profit_pct,
	expiration_date, market_type, state, created_at, last_checked, actual_profit, resolved_at`

func (s *PositionStore) Insert(ctx context.Context, p *models.Position) error {
	if p == nil || p.PositionID == "" {
		return storage.ErrInvalidInput
	}
	var actual sql.NullFloat64
	if p.ActualProfit != nil {
		actual = sql.NullFloat64{Float64: *p.ActualProfit, Valid: true}
	}
	var resolved sql.NullInt64
	if p.ResolvedAt != nil {
		resolved = nullableUnix(*p.ResolvedAt)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO positions (`+positionColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		p.PositionID,
		p.OpportunityID,
		p.EventName,
		p.PlatformA,
		p.PlatformB,
		p.AmountBetA,
		p.AmountBetB,
		p.EntryPriceA,
		p.EntryPriceB,
		p.TargetProfit,
		p.TargetProfitPct,
		toUnix(p.ExpirationDate),
		string(p.MarketType),
		string(p.State),
		toUnix(p.CreatedAt),
		toUnix(p.LastChecked),
		actual,
		resolved,
	)
	return mapErr(err)
}

func (s *PositionStore) Get(ctx context.Context, positionID string) (*models.Position, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+positionColumns+` FROM positions WHERE position_id = ?`, positionID)
	p, err := scanPosition(row)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PositionStore) ListByStates(ctx context.Context, states ...models.PositionState) ([]models.Position, error) {
	query := `SELECT ` + positionColumns + ` FROM positions`
	var args []any
	if len(states) > 0 {
		in, stateArgs := stateIn(states)
		query += ` WHERE state IN ` + in
		args = stateArgs
	}
	query += ` ORDER BY created_at ASC, position_id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list positions: %w", err)
	}
	defer rows.Close()

	var out []models.Position
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PositionStore) Transition(ctx context.Context, positionID string, from []models.PositionState, upd models.PositionUpdate) (bool, error) {
	if len(from) == 0 {
		return false, storage.ErrInvalidInput
	}
	var actual sql.NullFloat64
	if upd.ActualProfit != nil {
		actual = sql.NullFloat64{Float64: *upd.ActualProfit, Valid: true}
	}
	var resolved sql.NullInt64
	if upd.ResolvedAt != nil {
		resolved = nullableUnix(*upd.ResolvedAt)
	}
	in, stateArgs := stateIn(from)
	args := []any{string(upd.State), toUnix(upd.LastChecked), actual, resolved, positionID}
	args = append(args, stateArgs...)

	res, err := s.db.ExecContext(ctx,
		`UPDATE positions SET
			state = ?,
			last_checked = ?,
			actual_profit = COALESCE(?, actual_profit),
			resolved_at = COALESCE(?, resolved_at)
		WHERE position_id = ? AND state IN `+in,
		args...,
	)
	if err != nil {
		return false, fmt.Errorf("transition position %s: %w", positionID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *PositionStore) Touch(ctx context.Context, positionID string, states []models.PositionState, at time.Time) error {
	if len(states) == 0 {
		return storage.ErrInvalidInput
	}
	in, stateArgs := stateIn(states)
	args := append([]any{toUnix(at), positionID}, stateArgs...)
	_, err := s.db.ExecContext(ctx,
		`UPDATE positions SET last_checked = ? WHERE position_id = ? AND state IN `+in,
		args...,
	)
	return err
}

func (s *PositionStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM positions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count positions: %w", err)
	}
	return n, nil
}

func (s *PositionStore) AggregateByMarketType(ctx context.Context) ([]storage.MarketTypeAggregate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT market_type,
			COUNT(*),
			SUM(CASE WHEN target_profit > 0 THEN 1 ELSE 0 END),
			AVG(target_profit_pct)
		FROM positions
		GROUP BY market_type
		ORDER BY market_type`)
	if err != nil {
		return nil, fmt.Errorf("aggregate positions: %w", err)
	}
	defer rows.Close()

	var out []storage.MarketTypeAggregate
	for rows.Next() {
		var (
			agg storage.MarketTypeAggregate
			mt  string
			avg sql.NullFloat64
		)
		if err := rows.Scan(&mt, &agg.Count, &agg.Profitable, &avg); err != nil {
			return nil, err
		}
		agg.MarketType = models.MarketType(mt)
		agg.AvgProfitPct = avg.Float64
		out = append(out, agg)
	}
	return out, rows.Err()
}

func stateIn(states []models.PositionState) (string, []any) {
	args := make([]any, len(states))
	for i, st := range states {
		args[i] = string(st)
	}
	return "(" + strings.TrimSuffix(strings.Repeat("?,", len(states)), ",") + ")", args
}

func scanPosition(r rowScanner) (models.Position, error) {
	var (
		p           models.Position
		oppID       sql.NullString
		expiration  int64
		marketType  string
		state       string
		createdAt   int64
		lastChecked int64
		actual      sql.NullFloat64
		resolved    sql.NullInt64
	)
	err := r.Scan(
		&p.PositionID,
		&oppID,
		&p.EventName,
		&p.PlatformA,
		&p.PlatformB,
		&p.AmountBetA,
		&p.AmountBetB,
		&p.EntryPriceA,
		&p.EntryPriceB,
		&p.TargetProfit,
		&p.TargetProfitPct,
		&expiration,
		&marketType,
		&state,
		&createdAt,
		&lastChecked,
		&actual,
		&resolved,
	)
	if err != nil {
		return p, mapErr(err)
	}
	p.OpportunityID = oppID.String
	p.ExpirationDate = fromUnix(expiration)
	p.MarketType = models.MarketType(marketType)
	p.State = models.PositionState(state)
	p.CreatedAt = fromUnix(createdAt)
	p.LastChecked = fromUnix(lastChecked)
	if actual.Valid {
		v := actual.Float64
		p.ActualProfit = &v
	}
	if resolved.Valid {
		t := fromUnix(resolved.Int64)
		p.ResolvedAt = &t
	}
	return p, nil
}
