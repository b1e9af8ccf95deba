package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hetulpatel/arbhunter/internal/models"
	"github.com/hetulpatel/arbhunter/internal/storage"
)

// TaskLogStore implements storage.TaskLogStore.
type TaskLogStore struct {
	db *sql.DB
}

var _ storage.TaskLogStore = (*TaskLogStore)(nil)

func (s *TaskLogStore) Append(ctx context.Context, e *models.TaskLogEntry) error {
	if e == nil || e.TaskID == "" || e.Action == "" {
		return storage.ErrInvalidInput
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO task_log (task_id, action, status, details, error, timestamp) VALUES (?,?,?,?,?,?)`,
		e.TaskID, e.Action, string(e.Status), e.Details, e.Error, toUnix(e.Timestamp),
	)
	return mapErr(err)
}

func (s *TaskLogStore) Recent(ctx context.Context, limit int) ([]models.TaskLogEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT task_id, action, status, details, error, timestamp FROM task_log
		ORDER BY timestamp DESC, rowid DESC LIMIT ?`,
		limitArg(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("recent tasks: %w", err)
	}
	defer rows.Close()

	var out []models.TaskLogEntry
	for rows.Next() {
		e, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *TaskLogStore) First(ctx context.Context) (*models.TaskLogEntry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT task_id, action, status, details, error, timestamp FROM task_log
		ORDER BY timestamp ASC, rowid ASC LIMIT 1`)
	e, err := scanTask(row)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *TaskLogStore) Count(ctx context.Context, action string, status models.TaskStatus) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM task_log WHERE action = ? AND status = ?`,
		action, string(status),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count tasks: %w", err)
	}
	return n, nil
}

func scanTask(r rowScanner) (models.TaskLogEntry, error) {
	var (
		e       models.TaskLogEntry
		status  string
		details sql.NullString
		errText sql.NullString
		ts      int64
	)
	if err := r.Scan(&e.TaskID, &e.Action, &status, &details, &errText, &ts); err != nil {
		return e, mapErr(err)
	}
	e.Status = models.TaskStatus(status)
	e.Details = details.String
	e.Error = errText.String
	e.Timestamp = fromUnix(ts)
	return e, nil
}
