package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/classdocs/internal/common"
	"github.com/dmitrijs2005/classdocs/internal/dbx"
	"github.com/dmitrijs2005/classdocs/internal/server/models"
	"github.com/dmitrijs2005/classdocs/internal/server/repositories/reclist"
)

// PostgresRepository implements user storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a user with an empty personal list. The caller assigns ID.
func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query := `
		INSERT INTO users (id, name, role)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`
	if err := r.db.QueryRowContext(ctx, query, user.ID, user.Name, string(user.Role)).Scan(&user.CreatedAt); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	user.PersonalNotes = []models.FileRecord{}
	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `
		SELECT id, name, role, personal_notes, created_at FROM users
		WHERE id = $1
	`
	var (
		user  models.User
		role  string
		notes []byte
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(&user.ID, &user.Name, &role, &notes, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	user.Role = models.Role(role)
	if user.PersonalNotes, err = reclist.Decode(notes); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *PostgresRepository) LockNotes(ctx context.Context, id string) ([]models.FileRecord, error) {
	query := `SELECT personal_notes FROM users WHERE id = $1 FOR UPDATE`

	var notes []byte
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&notes); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return reclist.Decode(notes)
}

func (r *PostgresRepository) SaveNotes(ctx context.Context, id string, notes []models.FileRecord) error {
	raw, err := reclist.Encode(notes)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `UPDATE users SET personal_notes = $2::jsonb WHERE id = $1`, id, raw)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n != 1 {
		return common.ErrorNotFound
	}
	return nil
}
