package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/osusume/internal/models"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db   *sql.DB
	path string
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	memory := dbPath == MemoryPath
	if !memory {
		if dir := filepath.Dir(dbPath); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if memory {
		// Each connection to :memory: is its own database.
		db.SetMaxOpenConns(1)
	} else if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db, path: dbPath}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS products (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		price REAL NOT NULL DEFAULT 0,
		rating REAL NOT NULL DEFAULT 0,
		image TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_products_category ON products(category);
	`
	_, err := db.Exec(schema)
	return err
}

const upsertProduct = `
	INSERT INTO products (id, name, category, description, price, rating, image, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		name = excluded.name,
		category = excluded.category,
		description = excluded.description,
		price = excluded.price,
		rating = excluded.rating,
		image = excluded.image,
		updated_at = excluded.updated_at`

const selectProduct = `SELECT id, name, category, description, price, rating, image, created_at, updated_at FROM products`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row scanner) (*models.Product, error) {
	var p models.Product
	if err := row.Scan(&p.ID, &p.Name, &p.Category, &p.Description, &p.Price, &p.Rating, &p.Image,
		&p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateProduct inserts p, replacing the stored fields when the id already exists.
// An existing row's created_at is kept on replace.
func (s *SQLiteStorage) CreateProduct(ctx context.Context, p *models.Product) error {
	now := time.Now()
	_, err := s.db.ExecContext(ctx, upsertProduct,
		p.ID, p.Name, p.Category, p.Description, p.Price, p.Rating, p.Image, now, now)
	if err != nil {
		return fmt.Errorf("failed to save product %d: %w", p.ID, err)
	}
	p.UpdatedAt = now
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	return nil
}

// GetProduct returns a product by id.
func (s *SQLiteStorage) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	p, err := scanProduct(s.db.QueryRowContext(ctx, selectProduct+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// DeleteProduct removes a product by id.
func (s *SQLiteStorage) DeleteProduct(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return nil
}

// ListProducts returns products ordered by id with offset and limit.
func (s *SQLiteStorage) ListProducts(ctx context.Context, offset, limit int) ([]*models.Product, error) {
	if limit <= 0 {
		return []*models.Product{}, nil
	}
	rows, err := s.db.QueryContext(ctx, selectProduct+` ORDER BY id LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

// ListByCategory returns up to limit products in category other than excludeID, ordered by id.
func (s *SQLiteStorage) ListByCategory(ctx context.Context, category string, excludeID int64, limit int) ([]*models.Product, error) {
	if limit <= 0 {
		return []*models.Product{}, nil
	}
	rows, err := s.db.QueryContext(ctx,
		selectProduct+` WHERE category = ? AND id != ? ORDER BY id LIMIT ?`,
		category, excludeID, limit,
	)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

func collect(rows *sql.Rows) ([]*models.Product, error) {
	defer rows.Close()
	products := []*models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// Categories returns the distinct non-empty categories in sorted order.
func (s *SQLiteStorage) Categories(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT category FROM products WHERE category != '' ORDER BY category`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	categories := []string{}
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// Products returns the full catalog ordered by id. It satisfies catalog.Source.
func (s *SQLiteStorage) Products(ctx context.Context) ([]models.Product, error) {
	rows, err := s.db.QueryContext(ctx, selectProduct+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to read products: %w", err)
	}
	ptrs, err := collect(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to read products: %w", err)
	}
	out := make([]models.Product, len(ptrs))
	for i, p := range ptrs {
		out[i] = *p
	}
	return out, nil
}

// UpsertProducts saves products in one transaction.
func (s *SQLiteStorage) UpsertProducts(ctx context.Context, products []models.Product) error {
	return s.batch(ctx, false, products)
}

// ReplaceAll deletes every stored product and inserts products in one transaction.
func (s *SQLiteStorage) ReplaceAll(ctx context.Context, products []models.Product) error {
	return s.batch(ctx, true, products)
}

func (s *SQLiteStorage) batch(ctx context.Context, replace bool, products []models.Product) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if replace {
		if _, err := tx.ExecContext(ctx, `DELETE FROM products`); err != nil {
			return fmt.Errorf("failed to clear products: %w", err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, upsertProduct)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now()
	for i := range products {
		p := &products[i]
		if _, err := stmt.ExecContext(ctx, p.ID, p.Name, p.Category, p.Description, p.Price, p.Rating, p.Image, now, now); err != nil {
			return fmt.Errorf("failed to save product %d: %w", p.ID, err)
		}
	}
	return tx.Commit()
}

// CountProducts returns the total number of products.
func (s *SQLiteStorage) CountProducts(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
