package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"match-service/internal/models"
)

var ErrPresenceNotFound = errors.New("presence record not found")

// PresenceRepository abstracts check-in state persistence.
type PresenceRepository interface {
	CheckIn(ctx context.Context, rec models.PresenceRecord) (models.PresenceRecord, error)
	CheckOut(ctx context.Context, userID string) error
	UpdateVisibility(ctx context.Context, userID string, visibility models.Visibility) error
	UpdateSkills(ctx context.Context, userID string, skills []string) error
	GetByUser(ctx context.Context, userID string) (models.PresenceRecord, error)
	ListByLab(ctx context.Context, labID string) ([]models.PresenceRecord, error)
	ExpireStale(ctx context.Context, olderThan time.Duration) ([]ExpiredPresence, error)
}

// ExpiredPresence identifies a record removed by the stale sweep.
type ExpiredPresence struct {
	UserID string  `db:"user_id"`
	LabID  *string `db:"lab_id"`
}

// PresenceRepo is a sqlx implementation of PresenceRepository.
type PresenceRepo struct {
	db *sqlx.DB
}

// NewPresenceRepo constructs a PresenceRepo.
func NewPresenceRepo(db *sqlx.DB) *PresenceRepo {
	return &PresenceRepo{db: db}
}

const presenceColumns = `user_id, display_name, skills, lab_id, visibility, checked_in_at, last_seen_at`

// CheckIn creates or replaces the user's presence record. A second
// check-in moves the user to the new lab.
func (r *PresenceRepo) CheckIn(ctx context.Context, rec models.PresenceRecord) (models.PresenceRecord, error) {
	var out models.PresenceRecord
	err := r.db.QueryRowxContext(ctx, `INSERT INTO presence_records (user_id, display_name, skills, lab_id, visibility)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (user_id) DO UPDATE SET
            display_name = EXCLUDED.display_name,
            skills = EXCLUDED.skills,
            lab_id = EXCLUDED.lab_id,
            visibility = EXCLUDED.visibility,
            checked_in_at = NOW(),
            last_seen_at = NOW()
        RETURNING `+presenceColumns,
		rec.UserID, rec.DisplayName, pq.StringArray(rec.Skills), rec.LabID, rec.Visibility).
		StructScan(&out)
	return out, err
}

// CheckOut removes the user's presence record.
func (r *PresenceRepo) CheckOut(ctx context.Context, userID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM presence_records WHERE user_id=$1`, userID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrPresenceNotFound
	}
	return nil
}

// UpdateVisibility changes the user's visibility status.
func (r *PresenceRepo) UpdateVisibility(ctx context.Context, userID string, visibility models.Visibility) error {
	res, err := r.db.ExecContext(ctx, `UPDATE presence_records SET visibility=$2, last_seen_at=NOW() WHERE user_id=$1`, userID, visibility)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

// UpdateSkills replaces the user's skill list.
func (r *PresenceRepo) UpdateSkills(ctx context.Context, userID string, skills []string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE presence_records SET skills=$2, last_seen_at=NOW() WHERE user_id=$1`, userID, pq.StringArray(skills))
	if err != nil {
		return err
	}
	return checkAffected(res)
}

// GetByUser fetches a single presence record.
func (r *PresenceRepo) GetByUser(ctx context.Context, userID string) (models.PresenceRecord, error) {
	var rec models.PresenceRecord
	err := r.db.GetContext(ctx, &rec, `SELECT `+presenceColumns+` FROM presence_records WHERE user_id=$1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.PresenceRecord{}, ErrPresenceNotFound
	}
	return rec, err
}

// ListByLab returns everyone currently checked in to a lab, oldest
// check-in first so aggregation order is stable.
func (r *PresenceRepo) ListByLab(ctx context.Context, labID string) ([]models.PresenceRecord, error) {
	var recs []models.PresenceRecord
	err := r.db.SelectContext(ctx, &recs, `SELECT `+presenceColumns+` FROM presence_records WHERE lab_id=$1 ORDER BY checked_in_at ASC, user_id ASC`, labID)
	return recs, err
}

// ExpireStale deletes records not seen within the given window and
// returns who was checked out and from where.
func (r *PresenceRepo) ExpireStale(ctx context.Context, olderThan time.Duration) ([]ExpiredPresence, error) {
	rows, err := r.db.QueryxContext(ctx, `DELETE FROM presence_records WHERE last_seen_at < NOW() - make_interval(secs => $1) RETURNING user_id, lab_id`, olderThan.Seconds())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var expired []ExpiredPresence
	for rows.Next() {
		var rec ExpiredPresence
		if err := rows.StructScan(&rec); err != nil {
			return nil, err
		}
		expired = append(expired, rec)
	}
	return expired, rows.Err()
}

func checkAffected(res sql.Result) error {
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrPresenceNotFound
	}
	return nil
}
