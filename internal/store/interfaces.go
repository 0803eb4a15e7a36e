package store

import (
	"context"
	"errors"
	"time"

	"workdiary.app/server/internal/model"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// UserStore defines the contract for user data access
type UserStore interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Create(ctx context.Context, user *model.User) error
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id int64) error
}

// SessionStore defines the contract for session data access
type SessionStore interface {
	GetByID(ctx context.Context, id int64) (*model.Session, error)
	GetValid(ctx context.Context, id int64) (*model.Session, error) // checks expiry
	Create(ctx context.Context, session *model.Session) error
	Delete(ctx context.Context, id int64) error
	DeleteByUser(ctx context.Context, userID int64) error
	DeleteExpired(ctx context.Context) error
}

// ConnectionStore defines the contract for platform connection data access.
// A user has at most one connection per platform.
type ConnectionStore interface {
	GetByID(ctx context.Context, id int64) (*model.Connection, error)
	GetByUserAndPlatform(ctx context.Context, userID int64, platform model.Platform) (*model.Connection, error)
	Upsert(ctx context.Context, conn *model.Connection) error
	UpdateTokens(ctx context.Context, id int64, encryptedToken, encryptedRefresh []byte, expiresAt *time.Time) error
	Delete(ctx context.Context, id int64) error
	ListByUser(ctx context.Context, userID int64) ([]model.Connection, error)
}

// SnapshotStore defines the contract for analysis snapshot data access
type SnapshotStore interface {
	GetByID(ctx context.Context, id int64) (*model.AnalysisSnapshot, error)
	GetLatestByUser(ctx context.Context, userID int64) (*model.AnalysisSnapshot, error)
	Create(ctx context.Context, snap *model.AnalysisSnapshot) error
	ListByUser(ctx context.Context, userID int64, limit int) ([]model.AnalysisSnapshot, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) error
}

// NudgeStore defines the contract for nudge data access
type NudgeStore interface {
	GetByID(ctx context.Context, id int64) (*model.Nudge, error)
	Create(ctx context.Context, nudge *model.Nudge) error
	MarkDelivered(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64, reason string) error
	ListByUser(ctx context.Context, userID int64, limit int) ([]model.Nudge, error)
}
