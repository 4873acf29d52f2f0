package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/toyz/axon-input/pkg/input"
)

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLConfig describes how an entity is stored in a table
type SQLConfig struct {
	DB    *sql.DB
	Table string
	// Columns lists the selectable columns. Criteria on other columns are rejected.
	Columns []string
	// New returns a fresh pointer to the entity struct each row is hydrated onto
	New func() any
	// Placeholder renders the n-th (1-based) bind parameter. Default: "?".
	Placeholder func(n int) string
	// Hydrator writes a row onto the entity. Default: StructHydrator.
	Hydrator input.Hydrator
	Logger   *slog.Logger
}

// SQL finds entities with a single-row SELECT
type SQL struct {
	db          *sql.DB
	table       string
	columns     []string
	allowed     map[string]string
	newEntity   func() any
	placeholder func(n int) string
	hydrator    input.Hydrator
	logger      *slog.Logger
}

// NewSQL validates cfg and creates the repository
func NewSQL(cfg SQLConfig) (*SQL, error) {
	if cfg.DB == nil {
		return nil, &input.ConfigurationError{Msg: "sql repository: database is required"}
	}
	if cfg.New == nil {
		return nil, &input.ConfigurationError{Msg: "sql repository: New is required"}
	}
	if !identifier.MatchString(cfg.Table) {
		return nil, &input.ConfigurationError{Msg: fmt.Sprintf("sql repository: invalid table name %q", cfg.Table)}
	}
	if len(cfg.Columns) == 0 {
		return nil, &input.ConfigurationError{Msg: fmt.Sprintf("sql repository %s: no columns", cfg.Table)}
	}

	r := &SQL{
		db:          cfg.DB,
		table:       cfg.Table,
		columns:     cfg.Columns,
		allowed:     make(map[string]string, len(cfg.Columns)),
		newEntity:   cfg.New,
		placeholder: cfg.Placeholder,
		hydrator:    cfg.Hydrator,
		logger:      cfg.Logger,
	}
	for _, c := range cfg.Columns {
		if !identifier.MatchString(c) {
			return nil, &input.ConfigurationError{Msg: fmt.Sprintf("sql repository %s: invalid column name %q", cfg.Table, c)}
		}
		r.allowed[strings.ToLower(c)] = c
	}
	if r.placeholder == nil {
		r.placeholder = func(int) string { return "?" }
	}
	if r.hydrator == nil {
		r.hydrator = input.NewStructHydrator()
	}
	if r.logger == nil {
		r.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return r, nil
}

// Query returns the statement and arguments FindOne runs for criteria
func (r *SQL) Query(criteria map[string]any) (string, []any, error) {
	keys := make([]string, 0, len(criteria))
	for k := range criteria {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	conditions := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys))
	for i, k := range keys {
		column, ok := r.allowed[strings.ToLower(k)]
		if !ok {
			return "", nil, &input.ConfigurationError{Msg: fmt.Sprintf("sql repository %s: unknown column %q", r.table, k)}
		}
		conditions = append(conditions, column+" = "+r.placeholder(i+1))
		args = append(args, criteria[k])
	}

	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(r.columns, ", "), r.table)
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	return query + " LIMIT 1", args, nil
}

// FindOne implements input.Repository
func (r *SQL) FindOne(ctx context.Context, criteria map[string]any) (any, error) {
	query, args, err := r.Query(criteria)
	if err != nil {
		return nil, err
	}

	values := make([]any, len(r.columns))
	dest := make([]any, len(r.columns))
	for i := range values {
		dest[i] = &values[i]
	}

	if err := r.db.QueryRowContext(ctx, query, args...).Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.logger.DebugContext(ctx, "no row found", "table", r.table, "criteria", criteria)
			return nil, nil
		}
		return nil, fmt.Errorf("query %s: %w", r.table, err)
	}

	row := make(map[string]any, len(r.columns))
	for i, c := range r.columns {
		if b, ok := values[i].([]byte); ok {
			row[c] = string(b)
			continue
		}
		row[c] = values[i]
	}

	entity, err := r.hydrator.Hydrate(row, r.newEntity())
	if err != nil {
		return nil, fmt.Errorf("hydrate %s row: %w", r.table, err)
	}
	return entity, nil
}
