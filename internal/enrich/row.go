package enrich

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/domain-enrich/internal/model"
)

// RowEnricher adapts one tabular row (name plus free-form location) into an
// engine call and narrows the result for batch callers.
type RowEnricher struct {
	engine *Engine
}

// NewRowEnricher creates a RowEnricher around an engine.
func NewRowEnricher(engine *Engine) *RowEnricher {
	return &RowEnricher{engine: engine}
}

// EnrichRow processes a single company lookup. It never panics past this
// boundary: any fault inside the engine is logged and recorded as a
// processing_error row.
func (r *RowEnricher) EnrichRow(ctx context.Context, companyName, location string) (result model.RowResult) {
	defer func() {
		if rec := recover(); rec != nil {
			zap.L().Error("enrich: row enrichment panicked",
				zap.String("company", companyName),
				zap.Any("panic", rec),
			)
			result = model.RowResult{Status: model.RowStatusProcessingError}
		}
	}()

	req := model.EnrichmentRequest{
		CompanyName: companyName,
		Address:     model.ParseLocation(location),
	}

	return r.engine.Enrich(ctx, req).Narrow()
}
