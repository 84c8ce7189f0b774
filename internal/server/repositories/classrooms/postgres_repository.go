package classrooms

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/classdocs/internal/common"
	"github.com/dmitrijs2005/classdocs/internal/dbx"
	"github.com/dmitrijs2005/classdocs/internal/server/models"
	"github.com/dmitrijs2005/classdocs/internal/server/repositories/reclist"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

// PostgresRepository implements classroom storage over a dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

// Create inserts a classroom with no students and an empty file list.
// A join code collision is reported as common.ErrConflict.
func (r *PostgresRepository) Create(ctx context.Context, c *models.Classroom) (*models.Classroom, error) {
	query := `
		INSERT INTO classrooms (id, name, teacher_id, join_code)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query, c.ID, c.Name, c.TeacherID, c.JoinCode).Scan(&c.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, common.ErrConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	c.Students = []string{}
	c.Files = []models.FileRecord{}
	return c, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Classroom, error) {
	query := `
		SELECT id, name, teacher_id, join_code, files, created_at FROM classrooms
		WHERE id = $1
	`
	return r.get(ctx, query, id)
}

func (r *PostgresRepository) GetByJoinCode(ctx context.Context, code string) (*models.Classroom, error) {
	query := `
		SELECT id, name, teacher_id, join_code, files, created_at FROM classrooms
		WHERE join_code = $1
	`
	return r.get(ctx, query, code)
}

func (r *PostgresRepository) get(ctx context.Context, query string, arg string) (*models.Classroom, error) {
	var (
		c     models.Classroom
		files []byte
	)
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&c.ID, &c.Name, &c.TeacherID, &c.JoinCode, &files, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if c.Files, err = reclist.Decode(files); err != nil {
		return nil, err
	}
	if c.Students, err = r.students(ctx, c.ID); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *PostgresRepository) students(ctx context.Context, classroomID string) ([]string, error) {
	query := `
		SELECT user_id FROM classroom_members
		WHERE classroom_id = $1
		ORDER BY joined_at, user_id
	`
	rows, err := r.db.QueryContext(ctx, query, classroomID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	students := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		students = append(students, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return students, nil
}

// AddStudent is idempotent: joining twice leaves a single membership row.
func (r *PostgresRepository) AddStudent(ctx context.Context, classroomID, userID string) error {
	query := `
		INSERT INTO classroom_members (classroom_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (classroom_id, user_id) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, query, classroomID, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) LockFiles(ctx context.Context, id string) ([]models.FileRecord, error) {
	query := `SELECT files FROM classrooms WHERE id = $1 FOR UPDATE`

	var files []byte
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&files); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return reclist.Decode(files)
}

func (r *PostgresRepository) SaveFiles(ctx context.Context, id string, files []models.FileRecord) error {
	raw, err := reclist.Encode(files)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `UPDATE classrooms SET files = $2::jsonb WHERE id = $1`, id, raw)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOneRow(res)
}

// Delete removes the classroom row; memberships go with it via ON DELETE CASCADE.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM classrooms WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOneRow(res)
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n != 1 {
		return common.ErrorNotFound
	}
	return nil
}
