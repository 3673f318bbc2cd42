package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/money"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "modernc.org/sqlite"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// sqlite allows a single writer
	db.SetMaxOpenConns(1)
	return &Repository{db: db}, nil
}

func (r *Repository) RunMigrations(migrationsPath string) error {
	driver, err := sqlite.WithInstance(r.db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", migrationsPath),
		"sqlite",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

const productColumns = `id, COALESCE(category_id, 0), name, description, detail_html, main_images, tags, spec_options, params`

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(row scanner) (*domain.Product, error) {
	p := &domain.Product{}
	var images, tags, specOptions, params []byte
	if err := row.Scan(&p.ID, &p.CategoryID, &p.Name, &p.Description, &p.DetailHTML, &images, &tags, &specOptions, &params); err != nil {
		return nil, err
	}

	for _, col := range []struct {
		raw  []byte
		dest any
	}{
		{images, &p.MainImages},
		{tags, &p.Tags},
		{specOptions, &p.SpecOptions},
		{params, &p.Params},
	} {
		if len(col.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(col.raw, col.dest); err != nil {
			return nil, fmt.Errorf("decode product %d: %w", p.ID, err)
		}
	}
	return p, nil
}

func scanSku(row scanner) (domain.Sku, error) {
	var s domain.Sku
	var specs []byte
	var price int64
	if err := row.Scan(&s.ID, &s.ProductID, &specs, &price, &s.Stock); err != nil {
		return s, err
	}
	s.UnitPrice = money.Cents(price)
	if len(specs) > 0 {
		if err := json.Unmarshal(specs, &s.Specs); err != nil {
			return s, fmt.Errorf("decode sku %d specs: %w", s.ID, err)
		}
	}
	return s, nil
}

func (r *Repository) skusFor(ctx context.Context, productID int64) ([]domain.Sku, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, product_id, specs, price_cents, stock FROM skus WHERE product_id = ? ORDER BY id`,
		productID)
	if err != nil {
		return nil, fmt.Errorf("failed to query skus: %w", err)
	}
	defer rows.Close()

	var skus []domain.Sku
	for rows.Next() {
		s, err := scanSku(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sku: %w", err)
		}
		skus = append(skus, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return skus, nil
}

func (r *Repository) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = ?`, id)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	p.Skus, err = r.skusFor(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *Repository) GetSku(ctx context.Context, skuID int64) (*domain.Sku, *domain.Product, error) {
	var productID int64
	err := r.db.QueryRowContext(ctx, `SELECT product_id FROM skus WHERE id = ?`, skuID).Scan(&productID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, domain.SkuNotFound(skuID)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query sku: %w", err)
	}

	product, err := r.GetProduct(ctx, productID)
	if err != nil {
		return nil, nil, err
	}
	sku, ok := product.FindSku(skuID)
	if !ok {
		return nil, nil, domain.SkuNotFound(skuID)
	}
	return &sku, product, nil
}

// categorySubtree selects a category id and all of its descendants.
const categorySubtree = `WITH RECURSIVE subtree(id) AS (
		SELECT id FROM categories WHERE id = ?
		UNION ALL
		SELECT c.id FROM categories c JOIN subtree ON c.parent_id = subtree.id
	) SELECT id FROM subtree`

var sortOrder = map[Sort]string{
	SortDefault:   `p.id`,
	SortPriceAsc:  `min_price, p.id`,
	SortPriceDesc: `min_price DESC, p.id`,
	SortNewest:    `p.created_at DESC, p.id DESC`,
}

func (r *Repository) ListProducts(ctx context.Context, q Query) (domain.Page[domain.ProductSummary], error) {
	page, size := domain.NormalizePaging(q.Page, q.PageSize)
	result := domain.Page[domain.ProductSummary]{List: []domain.ProductSummary{}, Page: page, PageSize: size}

	order, ok := sortOrder[q.Sort]
	if !ok {
		return result, fmt.Errorf("%w: %q", ErrInvalidSort, q.Sort)
	}

	var conds []string
	var args []any
	if kw := strings.TrimSpace(q.Keyword); kw != "" {
		conds = append(conds, `(p.name LIKE ? OR p.description LIKE ? OR p.tags LIKE ?)`)
		like := "%" + kw + "%"
		args = append(args, like, like, like)
	}
	if q.CategoryID > 0 {
		conds = append(conds, `p.category_id IN (`+categorySubtree+`)`)
		args = append(args, q.CategoryID)
	}
	filter := ""
	if len(conds) > 0 {
		filter = ` WHERE ` + strings.Join(conds, " AND ")
	}

	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products p`+filter, args...).Scan(&result.Total); err != nil {
		return result, fmt.Errorf("failed to count products: %w", err)
	}

	query := `SELECT p.id, COALESCE(p.category_id, 0), p.name, p.main_images, p.tags, COALESCE(MIN(s.price_cents), 0) AS min_price
		FROM products p LEFT JOIN skus s ON s.product_id = p.id` + filter + `
		GROUP BY p.id ORDER BY ` + order + ` LIMIT ? OFFSET ?`
	args = append(args, size, (page-1)*size)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return result, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s domain.ProductSummary
		var images, tags []byte
		var price int64
		if err := rows.Scan(&s.ID, &s.CategoryID, &s.Name, &images, &tags, &price); err != nil {
			return result, fmt.Errorf("failed to scan product: %w", err)
		}
		s.Price = money.Cents(price)

		var imgs []string
		if len(images) > 0 {
			if err := json.Unmarshal(images, &imgs); err != nil {
				return result, fmt.Errorf("decode product %d images: %w", s.ID, err)
			}
		}
		if len(imgs) > 0 {
			s.ImageURL = imgs[0]
		}
		if len(tags) > 0 {
			if err := json.Unmarshal(tags, &s.Tags); err != nil {
				return result, fmt.Errorf("decode product %d tags: %w", s.ID, err)
			}
		}
		result.List = append(result.List, s)
	}
	if err := rows.Err(); err != nil {
		return result, fmt.Errorf("row iteration error: %w", err)
	}
	return result, nil
}

// ListCategories returns the category tree, siblings in display order.
func (r *Repository) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, COALESCE(parent_id, 0), name FROM categories ORDER BY sort_order, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var flat []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.ParentID, &c.Name); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		flat = append(flat, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return domain.BuildCategoryTree(flat), nil
}

// AllSkus lists every SKU with its catalog stock. Used to seed inventory.
func (r *Repository) AllSkus(ctx context.Context) ([]domain.Sku, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, product_id, specs, price_cents, stock FROM skus ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query skus: %w", err)
	}
	defer rows.Close()

	var skus []domain.Sku
	for rows.Next() {
		s, err := scanSku(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sku: %w", err)
		}
		skus = append(skus, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return skus, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}
