package trade

import (
	"bufio"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Checker-Finance/trade-enrichment/internal/catalog"
	"github.com/Checker-Finance/trade-enrichment/internal/metrics"
)

// SnapshotSource provides point-in-time copies of the product catalog.
type SnapshotSource interface {
	Snapshot() catalog.Snapshot
}

// Summary reports what one enrichment stream did.
type Summary struct {
	ID              string
	Lines           int // input lines after the header
	Accepted        int
	Rejected        int
	WriteFailures   int
	MissingProducts []string
	Duration        time.Duration
}

// Enricher streams trade CSV through the Processor, replacing product ids with names.
type Enricher struct {
	source    SnapshotSource
	processor *Processor
	logger    *zap.Logger
}

func NewEnricher(source SnapshotSource, processor *Processor, logger *zap.Logger) *Enricher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if processor == nil {
		processor = NewProcessor(logger)
	}
	return &Enricher{source: source, processor: processor, logger: logger}
}

// flusher is implemented by buffered sinks such as *bufio.Writer.
type flusher interface {
	Flush() error
}

// Enrich writes the output header, discards the first input line, and writes one enriched
// line per valid trade as soon as it is produced. The catalog snapshot is taken once, before
// the first line is read. Write failures drop the affected line; reading stops at EOF or on
// the first read error.
func (e *Enricher) Enrich(r io.Reader, w io.Writer) Summary {
	start := time.Now()
	sum := Summary{ID: uuid.NewString()}
	log := e.logger.With(zap.String("enrichment_id", sum.ID))

	names := catalog.NewResolver(e.source.Snapshot(), log)

	if !e.writeLine(w, OutputHeader+"\n", log) {
		sum.WriteFailures++
	}

	br := bufio.NewReader(r)
	header := true
	for {
		raw, err := br.ReadString('\n')
		if len(raw) > 0 {
			line := strings.TrimRight(raw, "\r\n")
			if header {
				header = false
			} else {
				sum.Lines++
				if out, ok := e.processor.Process(line, names); ok {
					sum.Accepted++
					if !e.writeLine(w, out, log) {
						sum.WriteFailures++
					}
				} else {
					sum.Rejected++
				}
			}
		}
		if err != nil {
			if err != io.EOF {
				metrics.IncError("enrich", "read_failed")
				log.Error("enrich.read_failed", zap.Error(err))
			}
			break
		}
	}

	sum.MissingProducts = names.MissingIDs()
	sum.Duration = time.Since(start)
	metrics.ObserveDuration(metrics.EnrichmentDuration, start)
	return sum
}

func (e *Enricher) writeLine(w io.Writer, line string, log *zap.Logger) bool {
	if _, err := io.WriteString(w, line); err != nil {
		metrics.IncTrade("write_failed")
		log.Error("enrich.write_failed: dropping line", zap.String("line", strings.TrimSuffix(line, "\n")), zap.Error(err))
		return false
	}
	if f, ok := w.(flusher); ok {
		if err := f.Flush(); err != nil {
			metrics.IncTrade("write_failed")
			log.Error("enrich.flush_failed", zap.Error(err))
			return false
		}
	}
	return true
}
