package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"workdiary.app/server/internal/model"
)

type nudgeStore struct {
	pool *pgxpool.Pool
}

func newNudgeStore(pool *pgxpool.Pool) NudgeStore {
	return &nudgeStore{pool: pool}
}

const nudgeColumns = `id, user_id, snapshot_id, message, status, error, delivered_at, created_at`

func (s *nudgeStore) GetByID(ctx context.Context, id int64) (*model.Nudge, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+nudgeColumns+` FROM nudges WHERE id = $1`, id)
	return scanNudge(row)
}

func (s *nudgeStore) Create(ctx context.Context, nudge *model.Nudge) error {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO nudges (id, user_id, snapshot_id, message, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+nudgeColumns,
		nudge.ID, nudge.UserID, nudge.SnapshotID, nudge.Message, nudge.Status)
	created, err := scanNudge(row)
	if err != nil {
		return err
	}
	*nudge = *created
	return nil
}

func (s *nudgeStore) MarkDelivered(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE nudges SET status = $2, delivered_at = now(), error = NULL
		WHERE id = $1`, id, model.NudgeStatusDelivered)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *nudgeStore) MarkFailed(ctx context.Context, id int64, reason string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE nudges SET status = $2, error = $3
		WHERE id = $1`, id, model.NudgeStatusFailed, reason)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *nudgeStore) ListByUser(ctx context.Context, userID int64, limit int) ([]model.Nudge, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+nudgeColumns+` FROM nudges
		WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var nudges []model.Nudge
	for rows.Next() {
		nudge, err := scanNudge(rows)
		if err != nil {
			return nil, err
		}
		nudges = append(nudges, *nudge)
	}
	return nudges, rows.Err()
}

func scanNudge(row pgx.Row) (*model.Nudge, error) {
	var n model.Nudge
	err := row.Scan(&n.ID, &n.UserID, &n.SnapshotID, &n.Message, &n.Status, &n.Error,
		&n.DeliveredAt, &n.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &n, nil
}
