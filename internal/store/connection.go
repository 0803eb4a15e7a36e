package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"workdiary.app/server/internal/model"
)

type connectionStore struct {
	pool *pgxpool.Pool
}

func newConnectionStore(pool *pgxpool.Pool) ConnectionStore {
	return &connectionStore{pool: pool}
}

const connectionColumns = `id, user_id, platform, encrypted_token, encrypted_refresh,
	token_expires_at, external_account_id, scopes, created_at, updated_at`

func (s *connectionStore) GetByID(ctx context.Context, id int64) (*model.Connection, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+connectionColumns+` FROM connections WHERE id = $1`, id)
	return scanConnection(row)
}

func (s *connectionStore) GetByUserAndPlatform(ctx context.Context, userID int64, platform model.Platform) (*model.Connection, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+connectionColumns+` FROM connections WHERE user_id = $1 AND platform = $2`,
		userID, platform)
	return scanConnection(row)
}

// Upsert replaces any existing connection for the same user and platform.
// Reconnecting a platform overwrites the stored tokens in place.
func (s *connectionStore) Upsert(ctx context.Context, conn *model.Connection) error {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO connections (id, user_id, platform, encrypted_token, encrypted_refresh,
			token_expires_at, external_account_id, scopes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id, platform) DO UPDATE SET
			encrypted_token = EXCLUDED.encrypted_token,
			encrypted_refresh = EXCLUDED.encrypted_refresh,
			token_expires_at = EXCLUDED.token_expires_at,
			external_account_id = EXCLUDED.external_account_id,
			scopes = EXCLUDED.scopes,
			updated_at = now()
		RETURNING `+connectionColumns,
		conn.ID, conn.UserID, conn.Platform, conn.EncryptedToken, conn.EncryptedRefresh,
		conn.TokenExpiresAt, conn.ExternalAccountID, conn.Scopes)
	upserted, err := scanConnection(row)
	if err != nil {
		return err
	}
	*conn = *upserted
	return nil
}

func (s *connectionStore) UpdateTokens(ctx context.Context, id int64, encryptedToken, encryptedRefresh []byte, expiresAt *time.Time) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE connections
		SET encrypted_token = $2, encrypted_refresh = $3, token_expires_at = $4, updated_at = now()
		WHERE id = $1`,
		id, encryptedToken, encryptedRefresh, expiresAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *connectionStore) Delete(ctx context.Context, id int64) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM connections WHERE id = $1`, id)
	return err
}

func (s *connectionStore) ListByUser(ctx context.Context, userID int64) ([]model.Connection, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+connectionColumns+` FROM connections WHERE user_id = $1 ORDER BY platform`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var conns []model.Connection
	for rows.Next() {
		conn, err := scanConnection(rows)
		if err != nil {
			return nil, err
		}
		conns = append(conns, *conn)
	}
	return conns, rows.Err()
}

func scanConnection(row pgx.Row) (*model.Connection, error) {
	var c model.Connection
	err := row.Scan(&c.ID, &c.UserID, &c.Platform, &c.EncryptedToken, &c.EncryptedRefresh,
		&c.TokenExpiresAt, &c.ExternalAccountID, &c.Scopes, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}
