package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type failingReader struct{ err error }

func (r failingReader) ReadProducts(ctx context.Context) (map[string]string, error) {
	return nil, r.err
}

type staticReader map[string]string

func (r staticReader) ReadProducts(ctx context.Context) (map[string]string, error) {
	return r, nil
}

func writeProductFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "products.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestFileReader_ReadProducts(t *testing.T) {
	path := writeProductFile(t, "product_id,product_name\n1, Treasury Bills Domestic \n 2 ,Corporate Bonds Domestic\n\n3,REPO Domestic\n")

	products, err := NewFileReader(path, zap.NewNop()).ReadProducts(context.Background())

	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"1": "Treasury Bills Domestic",
		"2": "Corporate Bonds Domestic",
		"3": "REPO Domestic",
	}, products)
}

func TestFileReader_SkipsMalformedAndDuplicateRows(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	path := writeProductFile(t, "product_id,product_name\n1,First\nbroken\n1,Second\n")

	products, err := NewFileReader(path, zap.New(core)).ReadProducts(context.Background())

	require.NoError(t, err)
	assert.Equal(t, map[string]string{"1": "First"}, products)
	assert.Equal(t, 2, logs.FilterLevelExact(zapcore.WarnLevel).Len())
}

func TestFileReader_HeaderOnly(t *testing.T) {
	path := writeProductFile(t, "product_id,product_name\n")

	products, err := NewFileReader(path, nil).ReadProducts(context.Background())

	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestFileReader_MissingFile(t *testing.T) {
	_, err := NewFileReader(filepath.Join(t.TempDir(), "absent.csv"), nil).ReadProducts(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_SeedsCatalog(t *testing.T) {
	c := New(zap.NewNop())

	Load(context.Background(), c, staticReader{"1": "A", "2": "B"})

	assert.Equal(t, 2, c.Len())
	assert.Equal(t, "B", c.Lookup("2"))
}

func TestLoad_FailureLeavesCatalogEmpty(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	c := New(zap.New(core))

	Load(context.Background(), c, failingReader{err: errors.New("disk on fire")})

	assert.Equal(t, 0, c.Len())
	assert.Equal(t, DefaultProductName, c.Lookup("1"))
	assert.Equal(t, 1, logs.FilterMessageSnippet("seed_failed").Len())
}
