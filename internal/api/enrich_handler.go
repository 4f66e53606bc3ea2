package api

import (
	"bufio"
	"bytes"
	"io"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/Checker-Finance/trade-enrichment/internal/trade"
)

// TradeEnricher streams trade CSV from r to w.
type TradeEnricher interface {
	Enrich(r io.Reader, w io.Writer) trade.Summary
}

// EnrichHandler serves the streaming trade enrichment endpoint.
type EnrichHandler struct {
	logger   *zap.Logger
	enricher TradeEnricher
}

func NewEnrichHandler(logger *zap.Logger, enricher TradeEnricher) *EnrichHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrichHandler{logger: logger, enricher: enricher}
}

// POST /api/v1/enrich
//
// The response is written by the stream writer after the handler returns. With
// StreamRequestBody enabled the trades are read from the connection while the response is
// written, so input size is not bounded by BodyLimit. Without it the buffered body is
// copied, since fasthttp reuses the request buffer once the handler completes.
func (h *EnrichHandler) Enrich(c *fiber.Ctx) error {
	in := c.Context().RequestBodyStream()
	if in == nil {
		in = bytes.NewReader(bytes.Clone(c.Body()))
	}

	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Status(fiber.StatusOK)
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		sum := h.enricher.Enrich(in, w)
		h.logger.Info("enrich.completed",
			zap.String("enrichment_id", sum.ID),
			zap.Int("lines", sum.Lines),
			zap.Int("accepted", sum.Accepted),
			zap.Int("rejected", sum.Rejected),
			zap.Int("write_failures", sum.WriteFailures),
			zap.Strings("missing_products", sum.MissingProducts),
			zap.Duration("duration", sum.Duration))
	})
	return nil
}
