package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"invite-studio/internal/auth/models"
	"invite-studio/internal/auth/service"
)

var (
	ErrNotFound = errors.New("user not found")
	ErrExists   = errors.New("user already exists")
)

const (
	AdminEmail    = "admin@example.com"
	adminPassword = "admin123"
)

// ============================================================
// SQLite Repository
// ============================================================

type Repository struct {
	db *sql.DB
}

func New(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Init запускает миграции и убеждается в наличии admin.
func (r *Repository) Init(ctx context.Context, migrationsPath string) error {
	if err := r.runMigrations(migrationsPath); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	return r.ensureAdmin(ctx)
}

const userColumns = `id, email, password_hash, role, status, must_change_password, created_at`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.Status, &u.MustChangePassword, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT `+userColumns+`
        FROM users
        WHERE email = ?
    `, normalizeEmail(email))
	return scanUser(row)
}

func (r *Repository) GetByID(ctx context.Context, id string) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT `+userColumns+`
        FROM users
        WHERE id = ?
    `, id)
	return scanUser(row)
}

// List returns every user, oldest first.
func (r *Repository) List(ctx context.Context) ([]models.User, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT `+userColumns+`
        FROM users
        ORDER BY created_at, email
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

// Insert stores a new user. An empty ID is filled with a fresh uuid.
func (r *Repository) Insert(ctx context.Context, u *models.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.Email = normalizeEmail(u.Email)

	_, err := r.db.ExecContext(ctx, `
        INSERT INTO users (id, email, password_hash, role, status, must_change_password)
        VALUES (?, ?, ?, ?, ?, ?)
    `, u.ID, u.Email, u.PasswordHash, string(u.Role), string(u.Status), u.MustChangePassword)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return ErrExists
		}
		return fmt.Errorf("insert user: %w", err)
	}

	stored, err := r.GetByEmail(ctx, u.Email)
	if err != nil {
		return err
	}
	u.CreatedAt = stored.CreatedAt
	return nil
}

// Update overwrites every mutable field of the user with the same email.
func (r *Repository) Update(ctx context.Context, u *models.User) error {
	res, err := r.db.ExecContext(ctx, `
        UPDATE users
        SET password_hash = ?, role = ?, status = ?, must_change_password = ?
        WHERE email = ?
    `, u.PasswordHash, string(u.Role), string(u.Status), u.MustChangePassword, normalizeEmail(u.Email))
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return expectOne(res)
}

func (r *Repository) Delete(ctx context.Context, email string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE email = ?`, normalizeEmail(email))
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return expectOne(res)
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ============================================================
// Migrations & Seeding
// ============================================================

func (r *Repository) runMigrations(migrationsPath string) error {
	data, err := os.ReadFile(migrationsPath)
	if err != nil {
		return fmt.Errorf("read migration: %w", err)
	}
	sqlText := string(data)
	_, err = r.db.Exec(sqlText)
	if err != nil {
		return fmt.Errorf("apply migration: %w", err)
	}
	return nil
}

func (r *Repository) ensureAdmin(ctx context.Context) error {
	_, err := r.GetByEmail(ctx, AdminEmail)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrNotFound) {
		return err
	}

	hash, err := service.HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	err = r.Insert(ctx, &models.User{
		ID:           "11111111-1111-1111-1111-111111111111",
		Email:        AdminEmail,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		Status:       models.StatusApproved,
	})
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	return nil
}

// OpenSQLite открывает sqlite по указанному пути.
func OpenSQLite(dbPath string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?cache=shared&mode=rwc&_pragma=busy_timeout=5000", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}
