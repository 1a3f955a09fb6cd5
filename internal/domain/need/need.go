// Package need models a parsed customer request for team apparel.
package need

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Defaults applied when the upstream parser could not extract a value.
// DefaultQuantity and DefaultBudgetPerUnit double as "nothing was said" sentinels.
const (
	DefaultProductType   = "other"
	DefaultQuantity      = 25
	DefaultBudgetPerUnit = 100.0
)

// Field names a need attribute the customer may have left unspecified.
type Field string

const (
	// FieldQuantity is the number of units.
	FieldQuantity Field = "quantity"
	// FieldBudget is the per-unit budget.
	FieldBudget Field = "budget"
)

// Query is the structured representation of a customer request.
type Query struct {
	ProductType       string  `json:"product_type"`
	Quantity          int     `json:"quantity"`
	BudgetPerUnit     float64 `json:"budget_per_unit"`
	DeadlineDays      *int    `json:"deadline_days,omitempty"`
	Activity          string  `json:"activity,omitempty"`
	ExtraNeeds        string  `json:"extra_needs,omitempty"`
	ShowAllOptions    bool    `json:"show_all_options"`
	QuantitySpecified bool    `json:"quantity_specified"`
	BudgetSpecified   bool    `json:"budget_specified"`

	// explicitFlags is set when the *Specified flags came from the caller
	// rather than from value presence.
	explicitFlags bool
}

// wireQuery keeps presence information that Query itself cannot express.
type wireQuery struct {
	ProductType       string   `json:"product_type"`
	Quantity          *int     `json:"quantity"`
	BudgetPerUnit     *float64 `json:"budget_per_unit"`
	DeadlineDays      *int     `json:"deadline_days"`
	Activity          string   `json:"activity"`
	ExtraNeeds        string   `json:"extra_needs"`
	ShowAllOptions    bool     `json:"show_all_options"`
	QuantitySpecified *bool    `json:"quantity_specified"`
	BudgetSpecified   *bool    `json:"budget_specified"`
}

// UnmarshalJSON decodes a query, marking quantity and budget as specified
// when they are present in the payload. Explicit *_specified flags win.
func (q *Query) UnmarshalJSON(data []byte) error {
	var w wireQuery
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("decode needs query: %w", err)
	}

	*q = Query{
		ProductType:    w.ProductType,
		DeadlineDays:   w.DeadlineDays,
		Activity:       w.Activity,
		ExtraNeeds:     w.ExtraNeeds,
		ShowAllOptions: w.ShowAllOptions,
	}
	if w.Quantity != nil {
		q.Quantity = *w.Quantity
		q.QuantitySpecified = true
	}
	if w.BudgetPerUnit != nil {
		q.BudgetPerUnit = *w.BudgetPerUnit
		q.BudgetSpecified = true
	}
	if w.QuantitySpecified != nil {
		q.QuantitySpecified = *w.QuantitySpecified
		q.explicitFlags = true
	}
	if w.BudgetSpecified != nil {
		q.BudgetSpecified = *w.BudgetSpecified
		q.explicitFlags = true
	}
	return nil
}

// Normalize fills defaults and clamps degenerate values. It never fails.
//
// Without explicit flags, a quantity of exactly DefaultQuantity or a budget of
// exactly DefaultBudgetPerUnit counts as "not specified". Any other non-zero
// value counts as specified.
func (q Query) Normalize() Query {
	q.ProductType = strings.TrimSpace(q.ProductType)
	if q.ProductType == "" {
		q.ProductType = DefaultProductType
	}
	q.Activity = strings.TrimSpace(q.Activity)
	q.ExtraNeeds = strings.TrimSpace(q.ExtraNeeds)

	if !q.explicitFlags {
		if !q.QuantitySpecified && q.Quantity != 0 && q.Quantity != DefaultQuantity {
			q.QuantitySpecified = true
		}
		if !q.BudgetSpecified && q.BudgetPerUnit != 0 && q.BudgetPerUnit != DefaultBudgetPerUnit {
			q.BudgetSpecified = true
		}
	}

	switch {
	case q.Quantity == 0 && !q.QuantitySpecified:
		q.Quantity = DefaultQuantity
	case q.Quantity < 1:
		q.Quantity = 1
	}
	switch {
	case q.BudgetPerUnit == 0 && !q.BudgetSpecified:
		q.BudgetPerUnit = DefaultBudgetPerUnit
	case q.BudgetPerUnit < 0:
		q.BudgetPerUnit = 0
	}
	if q.DeadlineDays != nil && *q.DeadlineDays < 0 {
		zero := 0
		q.DeadlineDays = &zero
	}
	return q
}

// SearchText joins product type, activity and extra needs for embedding.
// Empty fields are omitted; the order is fixed.
func (q Query) SearchText() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{q.ProductType, q.Activity, q.ExtraNeeds} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// MissingInfo lists the fields that carry defaults rather than customer input.
func (q Query) MissingInfo() []Field {
	var missing []Field
	if !q.QuantitySpecified {
		missing = append(missing, FieldQuantity)
	}
	if !q.BudgetSpecified {
		missing = append(missing, FieldBudget)
	}
	return missing
}

// HasDeadline reports whether a lead-time constraint applies.
func (q Query) HasDeadline() bool { return q.DeadlineDays != nil }
