package trade

import (
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/Checker-Finance/trade-enrichment/internal/metrics"
)

// OutputHeader is the first line of every enriched stream.
const OutputHeader = "date,product_name,currency,price"

// NameLookup resolves a product id to a display name. Implementations never fail.
type NameLookup interface {
	Lookup(id string) string
}

// Processor turns one raw trade line into one enriched output line.
type Processor struct {
	logger *zap.Logger
}

func NewProcessor(logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{logger: logger}
}

// Process returns the enriched line, newline-terminated, and true when line is a valid trade.
// Lines without exactly four fields are dropped silently; lines with an invalid date are
// dropped and logged.
func (p *Processor) Process(line string, names NameLookup) (string, bool) {
	rec, err := ParseRecord(line)
	switch {
	case errors.Is(err, ErrInvalidDate):
		metrics.IncTrade("invalid_date")
		p.logger.Error("trade.invalid_date: ignoring trade", zap.String("line", line))
		return "", false
	case err != nil:
		metrics.IncTrade("invalid_columns")
		return "", false
	}

	metrics.IncTrade("accepted")
	name := names.Lookup(rec.ProductID)
	return strings.Join([]string{rec.Date, name, rec.Currency, rec.Price}, ",") + "\n", true
}
