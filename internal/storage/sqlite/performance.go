package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hetulpatel/arbhunter/internal/models"
	"github.com/hetulpatel/arbhunter/internal/storage"
)

// PerformanceStore implements storage.PerformanceStore.
type PerformanceStore struct {
	db *sql.DB
}

var _ storage.PerformanceStore = (*PerformanceStore)(nil)

func (s *PerformanceStore) Upsert(ctx context.Context, p *models.MarketTypePerformance) error {
	if p == nil || p.MarketType == "" {
		return storage.ErrInvalidInput
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO market_type_performance (
	market_type, opportunities_found, profitable_arbs, avg_profit_pct, success_rate, last_updated
) VALUES (?,?,?,?,?,?)
ON CONFLICT(market_type) DO UPDATE SET
	opportunities_found=excluded.opportunities_found,
	profitable_arbs=excluded.profitable_arbs,
	avg_profit_pct=excluded.avg_profit_pct,
	success_rate=excluded.success_rate,
	last_updated=excluded.last_updated;`,
		string(p.MarketType),
		p.OpportunitiesFound,
		p.ProfitableArbs,
		p.AvgProfitPct,
		p.SuccessRate,
		toUnix(p.LastUpdated),
	)
	return mapErr(err)
}

func (s *PerformanceStore) List(ctx context.Context) ([]models.MarketTypePerformance, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT market_type, opportunities_found, profitable_arbs, avg_profit_pct, success_rate, last_updated
		FROM market_type_performance
		ORDER BY market_type`)
	if err != nil {
		return nil, fmt.Errorf("list performance: %w", err)
	}
	defer rows.Close()

	var out []models.MarketTypePerformance
	for rows.Next() {
		var (
			p       models.MarketTypePerformance
			mt      string
			updated int64
		)
		if err := rows.Scan(&mt, &p.OpportunitiesFound, &p.ProfitableArbs, &p.AvgProfitPct, &p.SuccessRate, &updated); err != nil {
			return nil, err
		}
		p.MarketType = models.MarketType(mt)
		p.LastUpdated = fromUnix(updated)
		out = append(out, p)
	}
	return out, rows.Err()
}
