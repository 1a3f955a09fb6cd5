package vecrec

import (
	domcat "github.com/kailas-cloud/vecrec/internal/domain/catalog"
	"github.com/kailas-cloud/vecrec/internal/domain/need"
	"github.com/kailas-cloud/vecrec/internal/domain/recommendation"
	"github.com/kailas-cloud/vecrec/internal/usecase/ingest"
)

// Public names for the domain types the client exchanges.
type (
	// Need is a structured customer request.
	Need = need.Query
	// Item is one catalog product.
	Item = domcat.Item
	// Result is the output of one recommendation.
	Result = recommendation.Result
	// Surfaced is a recommended item annotated with its budget tier.
	Surfaced = recommendation.Surfaced
	// BudgetInfo describes the price range left out by the budget-first policy.
	BudgetInfo = recommendation.BudgetInfo
	// Policy tunes window sizes and the slightly-above multiplier.
	Policy = recommendation.Policy
	// ReembedReport summarizes one re-embedding pass.
	ReembedReport = ingest.Report
)

// DefaultPolicy returns the stock recommendation policy.
func DefaultPolicy() Policy { return recommendation.DefaultPolicy() }

// LoadCatalogFile reads catalog items from a YAML seed file.
func LoadCatalogFile(path string) ([]Item, error) { return ingest.LoadCatalogFile(path) }
