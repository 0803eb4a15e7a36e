package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"workdiary.app/server/internal/model"
)

type snapshotStore struct {
	pool *pgxpool.Pool
}

func newSnapshotStore(pool *pgxpool.Pool) SnapshotStore {
	return &snapshotStore{pool: pool}
}

const snapshotColumns = `id, user_id, days, period_start, period_end, view, created_at`

func (s *snapshotStore) GetByID(ctx context.Context, id int64) (*model.AnalysisSnapshot, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+snapshotColumns+` FROM analysis_snapshots WHERE id = $1`, id)
	return scanSnapshot(row)
}

func (s *snapshotStore) GetLatestByUser(ctx context.Context, userID int64) (*model.AnalysisSnapshot, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+snapshotColumns+` FROM analysis_snapshots
		WHERE user_id = $1 ORDER BY created_at DESC LIMIT 1`, userID)
	return scanSnapshot(row)
}

func (s *snapshotStore) Create(ctx context.Context, snap *model.AnalysisSnapshot) error {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO analysis_snapshots (id, user_id, days, period_start, period_end, view)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+snapshotColumns,
		snap.ID, snap.UserID, snap.Days, snap.PeriodStart, snap.PeriodEnd, snap.View)
	created, err := scanSnapshot(row)
	if err != nil {
		return err
	}
	*snap = *created
	return nil
}

func (s *snapshotStore) ListByUser(ctx context.Context, userID int64, limit int) ([]model.AnalysisSnapshot, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+snapshotColumns+` FROM analysis_snapshots
		WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snaps []model.AnalysisSnapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, *snap)
	}
	return snaps, rows.Err()
}

func (s *snapshotStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM analysis_snapshots WHERE created_at < $1`, cutoff)
	return err
}

func scanSnapshot(row pgx.Row) (*model.AnalysisSnapshot, error) {
	var snap model.AnalysisSnapshot
	err := row.Scan(&snap.ID, &snap.UserID, &snap.Days, &snap.PeriodStart, &snap.PeriodEnd,
		&snap.View, &snap.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &snap, nil
}
