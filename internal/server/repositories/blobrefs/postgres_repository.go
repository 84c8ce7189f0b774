package blobrefs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/classdocs/internal/common"
	"github.com/dmitrijs2005/classdocs/internal/dbx"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Insert(ctx context.Context, ref string) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO blob_refs (storage_ref, ref_count) VALUES ($1, 1)`, ref)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return common.ErrConflict
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Increment(ctx context.Context, ref string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE blob_refs SET ref_count = ref_count + 1 WHERE storage_ref = $1`, ref)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

// Decrement lowers the count in place while it stays positive and deletes
// the row when the last reference goes away. An absent row counts as zero.
func (r *PostgresRepository) Decrement(ctx context.Context, ref string) (int64, error) {
	query := `
		UPDATE blob_refs SET ref_count = ref_count - 1
		WHERE storage_ref = $1 AND ref_count > 1
		RETURNING ref_count
	`
	var left int64
	err := r.db.QueryRowContext(ctx, query, ref).Scan(&left)
	if err == nil {
		return left, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("db error: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, `DELETE FROM blob_refs WHERE storage_ref = $1`, ref); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return 0, nil
}

func (r *PostgresRepository) Lock(ctx context.Context, ref string) (int64, error) {
	return r.count(ctx, `SELECT ref_count FROM blob_refs WHERE storage_ref = $1 FOR UPDATE`, ref)
}

func (r *PostgresRepository) Count(ctx context.Context, ref string) (int64, error) {
	return r.count(ctx, `SELECT ref_count FROM blob_refs WHERE storage_ref = $1`, ref)
}

func (r *PostgresRepository) count(ctx context.Context, query, ref string) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, query, ref).Scan(&n); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
