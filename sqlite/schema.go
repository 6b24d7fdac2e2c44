package sqlite

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// column describes one column of the users table.
type column struct {
	name       string
	sqlType    string
	constraint string
}

// usersColumns is the users table, in select order.
var usersColumns = []column{
	{"id", "TEXT", "PRIMARY KEY"},
	{"wallet_id", "TEXT", "NOT NULL UNIQUE"},
	{"name", "TEXT", "NOT NULL DEFAULT ''"},
	{"custom_url", "TEXT", "NOT NULL DEFAULT ''"},
	{"bio", "TEXT", "NOT NULL DEFAULT ''"},
	{"picture", "TEXT", "NOT NULL DEFAULT ''"},
	{"twitter_name", "TEXT", "NOT NULL DEFAULT ''"},
	{"personal_url", "TEXT", "NOT NULL DEFAULT ''"},
	{"verified", "INTEGER", "NOT NULL DEFAULT 0"},
	{"views", "INTEGER", "NOT NULL DEFAULT 0"},
	{"nonce", "TEXT", "NOT NULL"},
	{"created_at", "INTEGER", "NOT NULL"}, // unix milliseconds
}

// quoteIdentifier quotes a table or column name.
func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// tableName applies the configured prefix to a base table name.
func (s *UserStore) tableName(base string) string {
	return quoteIdentifier(s.options.TablePrefix + base)
}

func (s *UserStore) columnList() string {
	names := make([]string, len(usersColumns))
	for i, c := range usersColumns {
		names[i] = quoteIdentifier(c.name)
	}
	return strings.Join(names, ", ")
}

// createTableSQL returns the DDL of the users table and its indexes.
func (s *UserStore) createTableSQL() []string {
	var sb strings.Builder
	sb.WriteString("CREATE TABLE IF NOT EXISTS ")
	sb.WriteString(s.tableName("users"))
	sb.WriteString(" (\n")
	for i, c := range usersColumns {
		sb.WriteString("  ")
		sb.WriteString(quoteIdentifier(c.name))
		sb.WriteString(" ")
		sb.WriteString(c.sqlType)
		if c.constraint != "" {
			sb.WriteString(" ")
			sb.WriteString(c.constraint)
		}
		if i < len(usersColumns)-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	sb.WriteString(")")

	stmts := []string{sb.String()}
	if s.options.CreateIndexes {
		stmts = append(stmts, fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)",
			quoteIdentifier(s.options.TablePrefix+"users_created_at_idx"),
			s.tableName("users"),
			quoteIdentifier("created_at")))
	}
	return stmts
}

// Migrate creates the users table when it does not exist. All statements
// run in one transaction.
func (s *UserStore) Migrate(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin migration: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range s.createTableSQL() {
		s.logger.Debug("Executing DDL", zap.String("sql", stmt))
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute SQL statement '%s': %w", stmt, err)
		}
	}
	return tx.Commit()
}
