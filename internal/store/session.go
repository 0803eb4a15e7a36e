package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"workdiary.app/server/internal/model"
)

type sessionStore struct {
	pool *pgxpool.Pool
}

func newSessionStore(pool *pgxpool.Pool) SessionStore {
	return &sessionStore{pool: pool}
}

const sessionColumns = `id, user_id, workos_session_id, expires_at, created_at`

func (s *sessionStore) GetByID(ctx context.Context, id int64) (*model.Session, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id)
	return scanSession(row)
}

func (s *sessionStore) GetValid(ctx context.Context, id int64) (*model.Session, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = $1 AND expires_at > now()`, id)
	return scanSession(row)
}

func (s *sessionStore) Create(ctx context.Context, session *model.Session) error {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO sessions (id, user_id, workos_session_id, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING `+sessionColumns,
		session.ID, session.UserID, session.WorkOSSessionID, session.ExpiresAt)
	created, err := scanSession(row)
	if err != nil {
		return err
	}
	*session = *created
	return nil
}

func (s *sessionStore) Delete(ctx context.Context, id int64) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	return err
}

func (s *sessionStore) DeleteByUser(ctx context.Context, userID int64) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID)
	return err
}

func (s *sessionStore) DeleteExpired(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= now()`)
	return err
}

func scanSession(row pgx.Row) (*model.Session, error) {
	var sess model.Session
	err := row.Scan(&sess.ID, &sess.UserID, &sess.WorkOSSessionID, &sess.ExpiresAt, &sess.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &sess, nil
}
