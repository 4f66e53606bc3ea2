package trade

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Checker-Finance/trade-enrichment/internal/catalog"
)

func newTestCatalog() *catalog.Catalog {
	c := catalog.New(zap.NewNop())
	c.Seed(map[string]string{
		"1": "Treasury Bills Domestic",
		"2": "Corporate Bonds Domestic",
		"3": "REPO Domestic",
	})
	return c
}

type countingSource struct {
	*catalog.Catalog
	calls int
}

func (s *countingSource) Snapshot() catalog.Snapshot {
	s.calls++
	return s.Catalog.Snapshot()
}

// failingWriter fails the Nth write (1-based) and records the rest.
type failingWriter struct {
	buf    bytes.Buffer
	failOn int
	writes int
}

func (w *failingWriter) Write(p []byte) (int, error) {
	w.writes++
	if w.writes == w.failOn {
		return 0, errors.New("broken pipe")
	}
	return w.buf.Write(p)
}

// flushRecorder captures the content visible after each flush.
type flushRecorder struct {
	pending bytes.Buffer
	flushed []string
}

func (w *flushRecorder) Write(p []byte) (int, error) { return w.pending.Write(p) }

func (w *flushRecorder) Flush() error {
	w.flushed = append(w.flushed, w.pending.String())
	w.pending.Reset()
	return nil
}

func TestEnrich_TradesWithMissingProduct(t *testing.T) {
	e := NewEnricher(newTestCatalog(), nil, zap.NewNop())
	in := "date,product,currency,price\n" +
		"20160101,1,EUR,10.0\n" +
		"20160101,2,EUR,20.1\n" +
		"20160101,3,EUR,30.34\n" +
		"20160101,X,EUR,35.34\n"

	var out bytes.Buffer
	sum := e.Enrich(strings.NewReader(in), &out)

	assert.Equal(t, `date,product_name,currency,price
20160101,Treasury Bills Domestic,EUR,10.0
20160101,Corporate Bonds Domestic,EUR,20.1
20160101,REPO Domestic,EUR,30.34
20160101,Missing Product Name,EUR,35.34
`, out.String())
	assert.Equal(t, 4, sum.Lines)
	assert.Equal(t, 4, sum.Accepted)
	assert.Equal(t, 0, sum.Rejected)
	assert.Equal(t, []string{"X"}, sum.MissingProducts)
	assert.NotEmpty(t, sum.ID)
}

func TestEnrich_InvalidDateDropped(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	e := NewEnricher(newTestCatalog(), NewProcessor(zap.New(core)), zap.NewNop())
	in := "date,product,currency,price\n" +
		"20160101,1,EUR,10.0\n" +
		"20161301,2,EUR,20.1\n" +
		"20160101,3,EUR,30.34\n" +
		"20160101,X,EUR,35.34\n"

	var out bytes.Buffer
	sum := e.Enrich(strings.NewReader(in), &out)

	assert.Equal(t, `date,product_name,currency,price
20160101,Treasury Bills Domestic,EUR,10.0
20160101,REPO Domestic,EUR,30.34
20160101,Missing Product Name,EUR,35.34
`, out.String())
	assert.Equal(t, 1, sum.Rejected)
	assert.Equal(t, 1, logs.FilterMessageSnippet("invalid_date").Len())
}

func TestEnrich_FirstLineAlwaysDiscarded(t *testing.T) {
	e := NewEnricher(newTestCatalog(), nil, nil)

	var out bytes.Buffer
	sum := e.Enrich(strings.NewReader("20160101,1,EUR,10.0\n20160101,2,EUR,20.1"), &out)

	assert.Equal(t, "date,product_name,currency,price\n20160101,Corporate Bonds Domestic,EUR,20.1\n", out.String())
	assert.Equal(t, 1, sum.Lines)
}

func TestEnrich_EmptyInputWritesHeader(t *testing.T) {
	e := NewEnricher(newTestCatalog(), nil, nil)

	var out bytes.Buffer
	sum := e.Enrich(strings.NewReader(""), &out)

	assert.Equal(t, "date,product_name,currency,price\n", out.String())
	assert.Equal(t, 0, sum.Lines)
}

func TestEnrich_CRLFAndBlankLines(t *testing.T) {
	e := NewEnricher(newTestCatalog(), nil, nil)

	var out bytes.Buffer
	sum := e.Enrich(strings.NewReader("h\r\n20160101,1,EUR,10.0\r\n\r\n20160101,2,EUR,1\r\n"), &out)

	assert.Equal(t, "date,product_name,currency,price\n20160101,Treasury Bills Domestic,EUR,10.0\n20160101,Corporate Bonds Domestic,EUR,1\n", out.String())
	assert.Equal(t, 3, sum.Lines)
	assert.Equal(t, 1, sum.Rejected)
}

func TestEnrich_SnapshotTakenOnce(t *testing.T) {
	src := &countingSource{Catalog: newTestCatalog()}
	e := NewEnricher(src, nil, nil)

	var out bytes.Buffer
	e.Enrich(strings.NewReader("h\n20160101,1,EUR,1\n20160101,2,EUR,2\n20160101,3,EUR,3\n"), &out)

	assert.Equal(t, 1, src.calls)
}

func TestEnrich_MidStreamMutationNotVisible(t *testing.T) {
	c := newTestCatalog()
	e := NewEnricher(c, nil, nil)

	pr, pw := io.Pipe()
	go func() {
		_, _ = io.WriteString(pw, "h\n20160101,1,EUR,1\n")
		c.Change("1", "Renamed")
		c.Add("9", "Late Addition")
		_, _ = io.WriteString(pw, "20160101,1,EUR,2\n20160101,9,EUR,3\n")
		_ = pw.Close()
	}()

	var out bytes.Buffer
	e.Enrich(pr, &out)

	assert.Equal(t, `date,product_name,currency,price
20160101,Treasury Bills Domestic,EUR,1
20160101,Treasury Bills Domestic,EUR,2
20160101,Missing Product Name,EUR,3
`, out.String())
	assert.Equal(t, "Renamed", c.Lookup("1"))
}

func TestEnrich_WriteFailureDropsOnlyThatLine(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	e := NewEnricher(newTestCatalog(), nil, zap.New(core))
	w := &failingWriter{failOn: 3} // header, first trade, then the second trade fails

	sum := e.Enrich(strings.NewReader("h\n20160101,1,EUR,1\n20160101,2,EUR,2\n20160101,3,EUR,3\n"), w)

	assert.Equal(t, `date,product_name,currency,price
20160101,Treasury Bills Domestic,EUR,1
20160101,REPO Domestic,EUR,3
`, w.buf.String())
	assert.Equal(t, 3, sum.Accepted)
	assert.Equal(t, 1, sum.WriteFailures)
	assert.Equal(t, 1, logs.FilterMessageSnippet("write_failed").Len())
}

func TestEnrich_FlushesEachLine(t *testing.T) {
	e := NewEnricher(newTestCatalog(), nil, nil)
	w := &flushRecorder{}

	e.Enrich(strings.NewReader("h\n20160101,1,EUR,1\nbad\n20160101,2,EUR,2\n"), w)

	require.Len(t, w.flushed, 3)
	assert.Equal(t, "date,product_name,currency,price\n", w.flushed[0])
	assert.Equal(t, "20160101,Treasury Bills Domestic,EUR,1\n", w.flushed[1])
	assert.Equal(t, "20160101,Corporate Bonds Domestic,EUR,2\n", w.flushed[2])
}

func TestEnrich_BufferedWriterStreams(t *testing.T) {
	e := NewEnricher(newTestCatalog(), nil, nil)
	var sink bytes.Buffer
	bw := bufio.NewWriter(&sink)

	e.Enrich(strings.NewReader("h\n20160101,3,EUR,1\n"), bw)

	assert.Equal(t, 0, bw.Buffered())
	assert.Equal(t, "date,product_name,currency,price\n20160101,REPO Domestic,EUR,1\n", sink.String())
}
