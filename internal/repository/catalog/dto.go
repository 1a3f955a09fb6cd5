package catalog

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/kailas-cloud/vecrec/internal/db/valkey"
	domcat "github.com/kailas-cloud/vecrec/internal/domain/catalog"
)

// Hash field names. Numeric and tag fields are indexed.
const (
	fieldID            = "id"
	fieldName          = "name"
	fieldType          = "type"
	fieldDescription   = "description"
	fieldPrice         = "price"
	fieldMinQty        = "min_qty"
	fieldMaxQty        = "max_qty"
	fieldLeadTime      = "lead_time_days"
	fieldTags          = "tags"
	fieldCustomization = "customization"
	fieldSizes         = "sizes"
	fieldColors        = "colors"
	fieldStock         = "stock"
	fieldHasEmbedding  = "has_embedding"
	fieldVector        = "vector"
)

// returnFields lists every attribute field. The vector blob is never returned by search.
var returnFields = []string{
	fieldID, fieldName, fieldType, fieldDescription,
	fieldPrice, fieldMinQty, fieldMaxQty, fieldLeadTime,
	fieldTags, fieldCustomization, fieldSizes, fieldColors, fieldStock,
}

// buildHashFields flattens an item for HSET. The vector is written only when present
// so that re-upserting attributes keeps an existing embedding.
func buildHashFields(it *domcat.Item) (map[string]string, error) {
	m := map[string]string{
		fieldID:          it.ID,
		fieldName:        it.Name,
		fieldType:        it.Type,
		fieldDescription: it.Description,
		fieldPrice:       strconv.FormatFloat(it.Price, 'f', -1, 64),
		fieldMinQty:      strconv.Itoa(it.MinQty),
		fieldMaxQty:      strconv.Itoa(it.MaxQty),
		fieldLeadTime:    strconv.Itoa(it.LeadTimeDays),
	}
	lists := map[string]any{
		fieldTags:          it.Tags,
		fieldCustomization: it.Customization,
		fieldSizes:         it.Sizes,
		fieldColors:        it.Colors,
		fieldStock:         it.Stock,
	}
	for k, v := range lists {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", k, err)
		}
		m[k] = string(raw)
	}
	if it.HasEmbedding() {
		m[fieldVector] = vectorBytes(it.Embedding)
		m[fieldHasEmbedding] = "true"
	}
	return m, nil
}

// parseHashFields rebuilds an item from a hash or a search reply.
func parseHashFields(id string, m map[string]string) (domcat.Item, error) {
	it := domcat.Item{
		ID:          id,
		Name:        m[fieldName],
		Type:        m[fieldType],
		Description: m[fieldDescription],
	}
	if v, ok := m[fieldID]; ok && v != "" {
		it.ID = v
	}

	var err error
	if it.Price, err = parseFloat(m, fieldPrice); err != nil {
		return domcat.Item{}, err
	}
	if it.MinQty, err = parseInt(m, fieldMinQty); err != nil {
		return domcat.Item{}, err
	}
	if it.MaxQty, err = parseInt(m, fieldMaxQty); err != nil {
		return domcat.Item{}, err
	}
	if it.LeadTimeDays, err = parseInt(m, fieldLeadTime); err != nil {
		return domcat.Item{}, err
	}

	for field, dst := range map[string]any{
		fieldTags:          &it.Tags,
		fieldCustomization: &it.Customization,
		fieldSizes:         &it.Sizes,
		fieldColors:        &it.Colors,
		fieldStock:         &it.Stock,
	} {
		raw := m[field]
		if raw == "" {
			continue
		}
		if err := json.Unmarshal([]byte(raw), dst); err != nil {
			return domcat.Item{}, fmt.Errorf("decode %s: %w", field, err)
		}
	}

	if blob, ok := m[fieldVector]; ok && blob != "" {
		vec, err := valkey.BytesToVector(blob)
		if err != nil {
			return domcat.Item{}, fmt.Errorf("decode %s: %w", fieldVector, err)
		}
		it.Embedding = vec
	}
	return it, nil
}

func parseFloat(m map[string]string, field string) (float64, error) {
	raw, ok := m[field]
	if !ok || raw == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", field, err)
	}
	return f, nil
}

func parseInt(m map[string]string, field string) (int, error) {
	f, err := parseFloat(m, field)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

func vectorBytes(v []float32) string { return valkey.VectorToBytes(v) }
