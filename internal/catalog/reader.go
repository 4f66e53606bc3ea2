package catalog

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
)

// Reader supplies the initial product mapping.
type Reader interface {
	ReadProducts(ctx context.Context) (map[string]string, error)
}

// Load seeds c from r. A failing reader is logged and leaves the catalog empty,
// so every lookup falls back to DefaultProductName until products are added.
func Load(ctx context.Context, c *Catalog, r Reader) {
	products, err := r.ReadProducts(ctx)
	if err != nil {
		c.logger.Error("catalog.seed_failed: starting with an empty catalog", zap.Error(err))
		return
	}
	c.Seed(products)
}

// FileReader reads a product list CSV: a header line followed by "product_id,product_name" rows.
type FileReader struct {
	path   string
	logger *zap.Logger
}

// NewFileReader creates a reader for the product list at path.
func NewFileReader(path string, logger *zap.Logger) *FileReader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileReader{path: path, logger: logger}
}

// ReadProducts implements Reader.
func (r *FileReader) ReadProducts(ctx context.Context) (map[string]string, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("open product list: %w", err)
	}
	defer f.Close()

	products := make(map[string]string)
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if lineNo == 1 {
			continue // header
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, ",")
		if len(fields) < 2 {
			r.logger.Warn("catalog.seed_line_skipped", zap.Int("line", lineNo), zap.String("content", line))
			continue
		}
		addSeed(products, fields[0], fields[1], r.logger)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read product list: %w", err)
	}

	r.logger.Info("catalog.file_read", zap.String("path", r.path), zap.Int("count", len(products)))
	return products, nil
}

// addSeed trims and stores a seed row. The first occurrence of an id wins.
func addSeed(products map[string]string, id, name string, logger *zap.Logger) {
	id, name = strings.TrimSpace(id), strings.TrimSpace(name)
	if _, dup := products[id]; dup {
		logger.Warn("catalog.seed_duplicate_id", zap.String("product_id", id))
		return
	}
	products[id] = name
}
