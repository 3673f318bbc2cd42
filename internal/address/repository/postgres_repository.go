package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

const addressColumns = `id, user_id, name, phone, province, city, district, detail, postal_code, is_default, created_at, updated_at`

// Repository keeps the address book in the orders database. The table is
// created by the order migrations.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAddress(row rowScanner) (*domain.Address, error) {
	var a domain.Address
	err := row.Scan(&a.ID, &a.UserID, &a.Name, &a.Phone, &a.Province, &a.City, &a.District,
		&a.Detail, &a.PostalCode, &a.IsDefault, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *Repository) ListAddresses(ctx context.Context, userID string) ([]*domain.Address, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+addressColumns+` FROM addresses WHERE user_id = $1
		 ORDER BY is_default DESC, created_at, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("query addresses: %w", err)
	}
	defer rows.Close()

	addresses := make([]*domain.Address, 0)
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, fmt.Errorf("scan address: %w", err)
		}
		addresses = append(addresses, a)
	}
	return addresses, rows.Err()
}

func (r *Repository) GetAddress(ctx context.Context, userID string, id int64) (*domain.Address, error) {
	a, err := scanAddress(r.db.QueryRowContext(ctx,
		`SELECT `+addressColumns+` FROM addresses WHERE id = $1 AND user_id = $2`, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAddressNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get address: %w", err)
	}
	return a, nil
}

func (r *Repository) CountAddresses(ctx context.Context, userID string) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM addresses WHERE user_id = $1`, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count addresses: %w", err)
	}
	return n, nil
}

func clearDefault(ctx context.Context, tx *sql.Tx, userID string, keepID int64) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE addresses SET is_default = FALSE WHERE user_id = $1 AND is_default AND id <> $2`,
		userID, keepID)
	if err != nil {
		return fmt.Errorf("clear default address: %w", err)
	}
	return nil
}

func (r *Repository) CreateAddress(ctx context.Context, a *domain.Address) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if !a.IsDefault {
		var hasDefault bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM addresses WHERE user_id = $1 AND is_default)`,
			a.UserID).Scan(&hasDefault); err != nil {
			return fmt.Errorf("check default address: %w", err)
		}
		a.IsDefault = !hasDefault
	} else if err := clearDefault(ctx, tx, a.UserID, 0); err != nil {
		return err
	}

	now := time.Now().UTC()
	err = tx.QueryRowContext(ctx,
		`INSERT INTO addresses (user_id, name, phone, province, city, district, detail, postal_code,
		                        is_default, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
		 RETURNING id, created_at, updated_at`,
		a.UserID, a.Name, a.Phone, a.Province, a.City, a.District, a.Detail, a.PostalCode,
		a.IsDefault, now).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert address: %w", err)
	}

	return tx.Commit()
}

func (r *Repository) UpdateAddress(ctx context.Context, a *domain.Address) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if a.IsDefault {
		if err := clearDefault(ctx, tx, a.UserID, a.ID); err != nil {
			return err
		}
	}

	err = tx.QueryRowContext(ctx,
		`UPDATE addresses
		 SET name = $3, phone = $4, province = $5, city = $6, district = $7, detail = $8,
		     postal_code = $9, is_default = $10, updated_at = $11
		 WHERE id = $1 AND user_id = $2
		 RETURNING created_at, updated_at`,
		a.ID, a.UserID, a.Name, a.Phone, a.Province, a.City, a.District, a.Detail,
		a.PostalCode, a.IsDefault, time.Now().UTC()).Scan(&a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrAddressNotFound
	}
	if err != nil {
		return fmt.Errorf("update address: %w", err)
	}

	return tx.Commit()
}

func (r *Repository) DeleteAddress(ctx context.Context, userID string, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var wasDefault bool
	err = tx.QueryRowContext(ctx,
		`DELETE FROM addresses WHERE id = $1 AND user_id = $2 RETURNING is_default`,
		id, userID).Scan(&wasDefault)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrAddressNotFound
	}
	if err != nil {
		return fmt.Errorf("delete address: %w", err)
	}

	if wasDefault {
		_, err = tx.ExecContext(ctx,
			`UPDATE addresses SET is_default = TRUE, updated_at = NOW()
			 WHERE id = (SELECT id FROM addresses WHERE user_id = $1 ORDER BY created_at, id LIMIT 1)`,
			userID)
		if err != nil {
			return fmt.Errorf("promote default address: %w", err)
		}
	}

	return tx.Commit()
}
