// Package sqlite stores marketplace user profiles in a SQLite database. The
// enrichment pipeline reads creator and owner profiles from it; every lookup
// by wallet counts as a profile view.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/nftmarket/indexer-query/core/query"
)

var (
	// ErrUserNotFound is returned when no user has the requested wallet.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists is returned when creating a user for a known wallet.
	ErrUserExists = errors.New("user already exists")
)

// Default page request of ListUsers.
const (
	DefaultPage  = 1
	DefaultLimit = 15
)

// dbRunner abstracts the methods shared by *sql.DB and *sql.Tx.
type dbRunner interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Options configures a UserStore.
type Options struct {
	TablePrefix   string
	CreateIndexes bool
	// MaxPageSize bounds ListUsers.
	MaxPageSize int
}

// DefaultOptions returns the default store options.
func DefaultOptions() *Options {
	return &Options{CreateIndexes: true, MaxPageSize: 100}
}

// User is a user profile.
type User struct {
	ID          string    `json:"id"`
	WalletID    string    `json:"walletId"`
	Name        string    `json:"name,omitempty"`
	CustomURL   string    `json:"customUrl,omitempty"`
	Bio         string    `json:"bio,omitempty"`
	Picture     string    `json:"picture,omitempty"`
	TwitterName string    `json:"twitterName,omitempty"`
	PersonalURL string    `json:"personalUrl,omitempty"`
	Verified    bool      `json:"verified"`
	Views       int64     `json:"views"`
	Nonce       string    `json:"-"`
	CreatedAt   time.Time `json:"createdAt"`
}

// UserDTO holds the fields a caller sets when creating a user.
type UserDTO struct {
	WalletID    string `json:"walletId"`
	Name        string `json:"name,omitempty"`
	CustomURL   string `json:"customUrl,omitempty"`
	Bio         string `json:"bio,omitempty"`
	Picture     string `json:"picture,omitempty"`
	TwitterName string `json:"twitterName,omitempty"`
	PersonalURL string `json:"personalUrl,omitempty"`
}

// UsersPage is one page of ListUsers.
type UsersPage struct {
	Users       []User `json:"docs"`
	TotalDocs   int    `json:"totalDocs"`
	Page        int    `json:"page"`
	Limit       int    `json:"limit"`
	TotalPages  int    `json:"totalPages"`
	HasNextPage bool   `json:"hasNextPage"`
	HasPrevPage bool   `json:"hasPrevPage"`
}

// UserStore is the user profile store. It is safe for concurrent use.
type UserStore struct {
	db      *sql.DB
	logger  *zap.Logger
	options *Options
}

// Open opens the database at path, creates the schema and returns the store.
func Open(ctx context.Context, path string, logger *zap.Logger, options *Options) (*UserStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	if strings.Contains(path, ":memory:") {
		// Each connection to an in-memory database is a separate database.
		db.SetMaxOpenConns(1)
	}
	store := NewUserStore(db, logger, options)
	if err := store.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// NewUserStore wraps an open database. Call Migrate before first use.
func NewUserStore(db *sql.DB, logger *zap.Logger, options *Options) *UserStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	if options == nil {
		options = DefaultOptions()
	}
	return &UserStore{db: db, logger: logger, options: options}
}

// Close closes the database.
func (s *UserStore) Close() error {
	return s.db.Close()
}

// CreateUser stores a new user with a fresh nonce.
func (s *UserStore) CreateUser(ctx context.Context, dto UserDTO) (*User, error) {
	if strings.TrimSpace(dto.WalletID) == "" {
		return nil, fmt.Errorf("wallet id is required")
	}

	nonce := uuid.New()
	user := &User{
		ID:          uuid.New().String(),
		WalletID:    dto.WalletID,
		Name:        dto.Name,
		CustomURL:   dto.CustomURL,
		Bio:         dto.Bio,
		Picture:     dto.Picture,
		TwitterName: dto.TwitterName,
		PersonalURL: dto.PersonalURL,
		Nonce:       base64.StdEncoding.EncodeToString(nonce[:]),
		CreatedAt:   time.Now().UTC().Truncate(time.Millisecond),
	}

	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		s.tableName("users"), s.columnList(), placeholders(len(usersColumns)))
	s.logger.Debug("Executing SQL INSERT", zap.String("sql", stmt))

	_, err := s.db.ExecContext(ctx, stmt,
		user.ID, user.WalletID, user.Name, user.CustomURL, user.Bio, user.Picture,
		user.TwitterName, user.PersonalURL, user.Verified, user.Views, user.Nonce,
		user.CreatedAt.UnixMilli())
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return nil, fmt.Errorf("%w: %s", ErrUserExists, dto.WalletID)
		}
		s.logger.Error("Failed to insert user", zap.Error(err))
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// FindUser returns the user owning walletID and counts the lookup as a view.
// The returned record includes the new view.
func (s *UserStore) FindUser(ctx context.Context, walletID string) (*User, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt := fmt.Sprintf("UPDATE %s SET %s = %s + 1 WHERE %s = ?",
		s.tableName("users"), quoteIdentifier("views"), quoteIdentifier("views"), quoteIdentifier("wallet_id"))
	s.logger.Debug("Executing SQL UPDATE", zap.String("sql", stmt))

	result, err := tx.ExecContext(ctx, stmt, walletID)
	if err != nil {
		return nil, fmt.Errorf("failed to count view: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to count view: %w", err)
	}
	if affected == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, walletID)
	}

	users, err := s.selectUsers(ctx, tx, quoteIdentifier("wallet_id")+" = ?", walletID)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, walletID)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit view: %w", err)
	}
	return &users[0], nil
}

// FindUsersByID returns the users with the given ids. Unknown ids are skipped.
func (s *UserStore) FindUsersByID(ctx context.Context, ids []string) ([]User, error) {
	if len(ids) == 0 {
		return []User{}, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	where := fmt.Sprintf("%s IN (%s)", quoteIdentifier("id"), placeholders(len(ids)))
	return s.selectUsers(ctx, s.db, where, args...)
}

// ListUsers returns one page of users, oldest first. Zero or negative page
// and limit use DefaultPage and DefaultLimit.
func (s *UserStore) ListUsers(ctx context.Context, page, limit int) (*UsersPage, error) {
	if page <= 0 {
		page = DefaultPage
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if s.options.MaxPageSize > 0 && limit > s.options.MaxPageSize {
		limit = s.options.MaxPageSize
	}
	window, _ := query.ComputeWindow(query.NewPagination(page, limit), query.WindowBounded, s.options.MaxPageSize)

	var total int
	countStmt := fmt.Sprintf("SELECT COUNT(*) FROM %s", s.tableName("users"))
	if err := s.db.QueryRowContext(ctx, countStmt).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	users, err := s.selectUsers(ctx, s.db,
		fmt.Sprintf("1 = 1 ORDER BY %s, %s LIMIT ? OFFSET ?", quoteIdentifier("created_at"), quoteIdentifier("id")),
		window.First, window.Offset)
	if err != nil {
		return nil, err
	}

	totalPages := (total + limit - 1) / limit
	return &UsersPage{
		Users:       users,
		TotalDocs:   total,
		Page:        page,
		Limit:       limit,
		TotalPages:  totalPages,
		HasNextPage: page < totalPages,
		HasPrevPage: page > 1,
	}, nil
}

func (s *UserStore) selectUsers(ctx context.Context, runner dbRunner, where string, args ...any) ([]User, error) {
	stmt := fmt.Sprintf("SELECT %s FROM %s WHERE %s", s.columnList(), s.tableName("users"), where)
	s.logger.Debug("Executing SQL SELECT", zap.String("sql", stmt), zap.Any("params", args))

	rows, err := runner.QueryContext(ctx, stmt, args...)
	if err != nil {
		s.logger.Error("Failed to execute SELECT query", zap.Error(err), zap.String("sql", stmt))
		return nil, fmt.Errorf("failed to execute SELECT query: %w", err)
	}
	defer rows.Close()
	return readUsers(rows)
}

// readUsers scans rows selected with columnList.
func readUsers(rows *sql.Rows) ([]User, error) {
	users := []User{}
	for rows.Next() {
		var (
			u         User
			verified  int64
			createdAt int64
		)
		if err := rows.Scan(&u.ID, &u.WalletID, &u.Name, &u.CustomURL, &u.Bio, &u.Picture,
			&u.TwitterName, &u.PersonalURL, &verified, &u.Views, &u.Nonce, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		u.Verified = verified != 0
		u.CreatedAt = time.UnixMilli(createdAt).UTC()
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error after scanning rows: %w", err)
	}
	return users, nil
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
