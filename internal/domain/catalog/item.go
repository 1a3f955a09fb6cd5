// Package catalog holds the read-only view of catalog items used for matching.
package catalog

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/kailas-cloud/vecrec/internal/domain"
)

// Item is a catalog product. The catalog store owns its lifecycle.
type Item struct {
	ID            string         `json:"id" yaml:"id"`
	Name          string         `json:"name" yaml:"name"`
	Type          string         `json:"type" yaml:"type"`
	Description   string         `json:"description" yaml:"description"`
	Price         float64        `json:"price" yaml:"price"`
	MinQty        int            `json:"min_qty" yaml:"min_qty"`
	MaxQty        int            `json:"max_qty" yaml:"max_qty"`
	LeadTimeDays  int            `json:"lead_time_days" yaml:"lead_time_days"`
	Tags          []string       `json:"tags,omitempty" yaml:"tags"`
	Customization []string       `json:"customization,omitempty" yaml:"customization"`
	Sizes         []string       `json:"sizes,omitempty" yaml:"sizes"`
	Colors        []string       `json:"colors,omitempty" yaml:"colors"`
	Stock         map[string]int `json:"stock,omitempty" yaml:"stock"`
	Embedding     []float32      `json:"-" yaml:"-"`
}

// Validate checks the item invariants the matcher relies on.
func (it *Item) Validate() error {
	switch {
	case strings.TrimSpace(it.ID) == "":
		return fmt.Errorf("%w: id is required", domain.ErrInvalidItem)
	case it.Price < 0:
		return fmt.Errorf("%w: %s: price must be >= 0", domain.ErrInvalidItem, it.ID)
	case it.MinQty > it.MaxQty:
		return fmt.Errorf("%w: %s: min_qty %d > max_qty %d", domain.ErrInvalidItem, it.ID, it.MinQty, it.MaxQty)
	case it.LeadTimeDays < 0:
		return fmt.Errorf("%w: %s: lead_time_days must be >= 0", domain.ErrInvalidItem, it.ID)
	}
	return nil
}

// HasEmbedding reports whether the item is eligible for similarity retrieval.
func (it *Item) HasEmbedding() bool { return len(it.Embedding) > 0 }

// Accepts reports whether an order of quantity units falls within the item's bounds.
func (it *Item) Accepts(quantity int) bool {
	return it.MinQty <= quantity && quantity <= it.MaxQty
}

// DeliversWithin reports whether the lead time fits the deadline. A nil deadline always fits.
func (it *Item) DeliversWithin(deadlineDays *int) bool {
	return deadlineDays == nil || it.LeadTimeDays <= *deadlineDays
}

// EmbeddingText renders the text that represents the item in vector space.
func (it *Item) EmbeddingText() string {
	var b strings.Builder
	b.WriteString(it.Name)
	b.WriteString("\nType: ")
	b.WriteString(it.Type)
	if it.Description != "" {
		b.WriteString("\n")
		b.WriteString(it.Description)
	}
	if len(it.Tags) > 0 {
		b.WriteString("\nTags: ")
		b.WriteString(strings.Join(it.Tags, ", "))
	}
	b.WriteString("\nPrice: ")
	b.WriteString(strconv.FormatFloat(it.Price, 'f', -1, 64))
	b.WriteString("$\nLead time: ")
	b.WriteString(strconv.Itoa(it.LeadTimeDays))
	b.WriteString(" days")
	if len(it.Customization) > 0 {
		b.WriteString("\nCustomization: ")
		b.WriteString(strings.Join(it.Customization, ", "))
	}
	return b.String()
}

// Candidate is an item considered for recommendation.
// Similarity is nil when the item was not ranked against a query vector.
type Candidate struct {
	Item
	Similarity *float64 `json:"similarity,omitempty"`
}

// Ranked wraps an item with a similarity score. NaN scores become 0.
func Ranked(it Item, similarity float64) Candidate {
	if math.IsNaN(similarity) {
		similarity = 0
	}
	return Candidate{Item: it, Similarity: &similarity}
}

// Unranked wraps an item without a similarity score.
func Unranked(it Item) Candidate {
	return Candidate{Item: it}
}

// Score returns the similarity or 0 when absent.
func (c *Candidate) Score() float64 {
	if c.Similarity == nil {
		return 0
	}
	return *c.Similarity
}

// SortBySimilarity orders candidates by similarity descending, cheaper first on ties.
func SortBySimilarity(cands []Candidate) {
	slices.SortStableFunc(cands, func(a, b Candidate) int {
		if c := cmp.Compare(b.Score(), a.Score()); c != 0 {
			return c
		}
		return cmp.Compare(a.Price, b.Price)
	})
}

// SortByPrice orders items by price ascending, then by ID for determinism.
func SortByPrice(items []Item) {
	slices.SortStableFunc(items, func(a, b Item) int {
		if c := cmp.Compare(a.Price, b.Price); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}
