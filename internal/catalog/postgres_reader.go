package catalog

import (
	"context"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// querier is the subset of *pgxpool.Pool used by PostgresReader.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// PostgresReader reads the product seed from a table with product_id and product_name columns.
type PostgresReader struct {
	db     querier
	table  string
	logger *zap.Logger
}

// NewPostgresReader creates a reader over table, which may be schema-qualified.
func NewPostgresReader(db querier, table string, logger *zap.Logger) (*PostgresReader, error) {
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("invalid product table name %q", table)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostgresReader{db: db, table: table, logger: logger}, nil
}

// ReadProducts implements Reader.
func (r *PostgresReader) ReadProducts(ctx context.Context) (map[string]string, error) {
	if r.db == nil {
		return nil, fmt.Errorf("postgres unavailable")
	}
	rows, err := r.db.Query(ctx, `SELECT product_id, product_name FROM `+r.table)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", r.table, err)
	}
	defer rows.Close()

	products := make(map[string]string)
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("scan %s: %w", r.table, err)
		}
		addSeed(products, id, name, r.logger)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", r.table, err)
	}

	r.logger.Info("catalog.postgres_read", zap.String("table", r.table), zap.Int("count", len(products)))
	return products, nil
}
