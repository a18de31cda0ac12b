package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"match-service/internal/models"
)

var ErrConnectionNotFound = errors.New("connection not found")

// ConnectionRepository persists the durable artifacts of completed
// sessions. The core never deletes connections.
type ConnectionRepository interface {
	CreateConnection(ctx context.Context, conn models.Connection) (models.Connection, error)
	UpdateConnectionNote(ctx context.Context, connectionID int, userID string, note string) error
	ListConnections(ctx context.Context, userID string) ([]models.Connection, error)
	GetConnection(ctx context.Context, connectionID int) (models.Connection, error)
}

// ConnectionRepo is a sqlx-backed repository.
type ConnectionRepo struct {
	db *sqlx.DB
}

// NewConnectionRepo constructs ConnectionRepo.
func NewConnectionRepo(db *sqlx.DB) *ConnectionRepo {
	return &ConnectionRepo{db: db}
}

const connectionColumns = `id, user_id, partner_id, lab_id, shared_skills, note, contact_shared, created_at`

// CreateConnection stores a completed introduction.
func (r *ConnectionRepo) CreateConnection(ctx context.Context, conn models.Connection) (models.Connection, error) {
	var out models.Connection
	err := r.db.QueryRowxContext(ctx, `INSERT INTO connections (user_id, partner_id, lab_id, shared_skills, note, contact_shared)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING `+connectionColumns,
		conn.UserID, conn.PartnerID, conn.LabID, pq.StringArray(conn.SharedSkills), conn.Note, conn.ContactShared).
		StructScan(&out)
	return out, err
}

// UpdateConnectionNote edits the private note; only the owner may.
func (r *ConnectionRepo) UpdateConnectionNote(ctx context.Context, connectionID int, userID string, note string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE connections SET note=$3 WHERE id=$1 AND user_id=$2`, connectionID, userID, note)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrConnectionNotFound
	}
	return nil
}

// ListConnections returns the user's connections, newest first.
func (r *ConnectionRepo) ListConnections(ctx context.Context, userID string) ([]models.Connection, error) {
	var conns []models.Connection
	err := r.db.SelectContext(ctx, &conns, `SELECT `+connectionColumns+` FROM connections WHERE user_id=$1 ORDER BY created_at DESC`, userID)
	return conns, err
}

// GetConnection fetches a connection by id.
func (r *ConnectionRepo) GetConnection(ctx context.Context, connectionID int) (models.Connection, error) {
	var conn models.Connection
	err := r.db.GetContext(ctx, &conn, `SELECT `+connectionColumns+` FROM connections WHERE id=$1`, connectionID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Connection{}, ErrConnectionNotFound
	}
	return conn, err
}
