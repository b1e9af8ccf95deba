package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hetulpatel/arbhunter/internal/models"
	"github.com/hetulpatel/arbhunter/internal/storage"
)

// OpportunityStore implements storage.OpportunityStore.
type OpportunityStore struct {
	db *sql.DB
}

var _ storage.OpportunityStore = (*OpportunityStore)(nil)

func (s *OpportunityStore) ExpireBefore(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE opportunities SET status = ? WHERE status = ? AND detected_at < ?`,
		string(models.OpportunityExpired), string(models.OpportunityActive), toUnix(cutoff),
	)
	if err != nil {
		return 0, fmt.Errorf("expire opportunities: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

const opportunityUpsertSQL = `
INSERT INTO opportunities (
	opportunity_id, event_name, platform_a, platform_b, market_id_a, market_id_b,
	platform_a_outcome, platform_b_outcome, platform_a_price, platform_b_price,
	bet_amount_a, bet_amount_b, total_investment, guaranteed_payout, profit,
	profit_percentage, combined_probability, expires_at, detected_at, status
) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
ON CONFLICT(opportunity_id) DO UPDATE SET
	event_name=excluded.event_name,
	platform_a=excluded.platform_a,
	platform_b=excluded.platform_b,
	market_id_a=excluded.market_id_a,
	market_id_b=excluded.market_id_b,
	platform_a_outcome=excluded.platform_a_outcome,
	platform_b_outcome=excluded.platform_b_outcome,
	platform_a_price=excluded.platform_a_price,
	platform_b_price=excluded.platform_b_price,
	bet_amount_a=excluded.bet_amount_a,
	bet_amount_b=excluded.bet_amount_b,
	total_investment=excluded.total_investment,
	guaranteed_payout=excluded.guaranteed_payout,
	profit=excluded.profit,
	profit_percentage=excluded.profit_percentage,
	combined_probability=excluded.combined_probability,
	expires_at=excluded.expires_at,
	detected_at=excluded.detected_at,
	status=excluded.status;
`

func (s *OpportunityStore) Upsert(ctx context.Context, o *models.Opportunity) error {
	if o == nil || o.OpportunityID == "" {
		return storage.ErrInvalidInput
	}
	_, err := s.db.ExecContext(ctx, opportunityUpsertSQL,
		o.OpportunityID,
		o.EventName,
		o.PlatformA,
		o.PlatformB,
		o.MarketIDA,
		o.MarketIDB,
		string(o.PlatformAOutcome),
		string(o.PlatformBOutcome),
		o.PlatformAPrice,
		o.PlatformBPrice,
		o.BetAmountA,
		o.BetAmountB,
		o.TotalInvestment,
		o.GuaranteedPayout,
		o.Profit,
		o.ProfitPercentage,
		o.CombinedProbability,
		nullableUnix(o.ExpiresAt),
		toUnix(o.DetectedAt),
		string(o.Status),
	)
	return mapErr(err)
}

const opportunityColumns = `opportunity_id, event_name, platform_a, platform_b, market_id_a, market_id_b,
	platform_a_outcome, platform_b_outcome, platform_a_price, platform_b_price,
	bet_amount_a, bet_amount_b, total_investment, guaranteed_payout, profit,
	profit_percentage, combined_probability, expires_at, detected_at, status`

func (s *OpportunityStore) ListActive(ctx context.Context, since time.Time, limit int) ([]models.Opportunity, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+opportunityColumns+` FROM opportunities
		WHERE status = ? AND detected_at >= ?
		ORDER BY profit_percentage DESC, opportunity_id ASC
		LIMIT ?`,
		string(models.OpportunityActive), toUnix(since), limitArg(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("list active opportunities: %w", err)
	}
	defer rows.Close()

	var out []models.Opportunity
	for rows.Next() {
		o, err := scanOpportunity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func scanOpportunity(r rowScanner) (models.Opportunity, error) {
	var (
		o                  models.Opportunity
		marketA, marketB   sql.NullString
		outcomeA, outcomeB string
		status             string
		expiresAt          sql.NullInt64
		detectedAt         int64
	)
	err := r.Scan(
		&o.OpportunityID,
		&o.EventName,
		&o.PlatformA,
		&o.PlatformB,
		&marketA,
		&marketB,
		&outcomeA,
		&outcomeB,
		&o.PlatformAPrice,
		&o.PlatformBPrice,
		&o.BetAmountA,
		&o.BetAmountB,
		&o.TotalInvestment,
		&o.GuaranteedPayout,
		&o.Profit,
		&o.ProfitPercentage,
		&o.CombinedProbability,
		&expiresAt,
		&detectedAt,
		&status,
	)
	if err != nil {
		return o, mapErr(err)
	}
	o.MarketIDA = marketA.String
	o.MarketIDB = marketB.String
	o.PlatformAOutcome = models.Outcome(outcomeA)
	o.PlatformBOutcome = models.Outcome(outcomeB)
	o.Status = models.OpportunityStatus(status)
	o.ExpiresAt = fromNullableUnix(expiresAt)
	o.DetectedAt = fromUnix(detectedAt)
	return o, nil
}
