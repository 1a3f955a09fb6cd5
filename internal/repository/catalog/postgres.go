package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kailas-cloud/vecrec/internal/db"
	"github.com/kailas-cloud/vecrec/internal/db/postgres"
	"github.com/kailas-cloud/vecrec/internal/domain"
	domcat "github.com/kailas-cloud/vecrec/internal/domain/catalog"
)

const pgTable = "catalog_items"

// itemRow is the gorm model. The embedding column is managed with raw SQL
// because gorm has no pgvector type.
type itemRow struct {
	ID            string         `gorm:"column:id;primaryKey"`
	Name          string         `gorm:"column:name;not null"`
	Type          string         `gorm:"column:type;index"`
	Description   string         `gorm:"column:description"`
	Price         float64        `gorm:"column:price;not null;index"`
	MinQty        int            `gorm:"column:min_qty;not null"`
	MaxQty        int            `gorm:"column:max_qty;not null"`
	LeadTimeDays  int            `gorm:"column:lead_time_days;not null"`
	Tags          []string       `gorm:"column:tags;serializer:json;type:jsonb"`
	Customization []string       `gorm:"column:customization;serializer:json;type:jsonb"`
	Sizes         []string       `gorm:"column:sizes;serializer:json;type:jsonb"`
	Colors        []string       `gorm:"column:colors;serializer:json;type:jsonb"`
	Stock         map[string]int `gorm:"column:stock;serializer:json;type:jsonb"`
}

func (itemRow) TableName() string { return pgTable }

// scoredRow is a search hit or a listing row with its embedding text.
type scoredRow struct {
	itemRow       `gorm:"embedded"`
	Similarity    *float64 `gorm:"column:similarity"`
	EmbeddingText *string  `gorm:"column:embedding_text"`
}

func rowFromItem(it *domcat.Item) itemRow {
	return itemRow{
		ID:            it.ID,
		Name:          it.Name,
		Type:          it.Type,
		Description:   it.Description,
		Price:         it.Price,
		MinQty:        it.MinQty,
		MaxQty:        it.MaxQty,
		LeadTimeDays:  it.LeadTimeDays,
		Tags:          it.Tags,
		Customization: it.Customization,
		Sizes:         it.Sizes,
		Colors:        it.Colors,
		Stock:         it.Stock,
	}
}

func (r *itemRow) toItem() domcat.Item {
	return domcat.Item{
		ID:            r.ID,
		Name:          r.Name,
		Type:          r.Type,
		Description:   r.Description,
		Price:         r.Price,
		MinQty:        r.MinQty,
		MaxQty:        r.MaxQty,
		LeadTimeDays:  r.LeadTimeDays,
		Tags:          r.Tags,
		Customization: r.Customization,
		Sizes:         r.Sizes,
		Colors:        r.Colors,
		Stock:         r.Stock,
	}
}

// PGRepo is the Postgres catalog with pgvector similarity.
type PGRepo struct {
	db  *gorm.DB
	dim int
}

// NewPostgres creates a pgvector catalog repository.
func NewPostgres(s *postgres.Store, dim int) *PGRepo {
	return &PGRepo{db: s.DB(), dim: dim}
}

// EnsureIndex migrates the table, the vector column and its HNSW index.
func (r *PGRepo) EnsureIndex(ctx context.Context) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		return &db.Error{Op: db.OpMigrate, Err: fmt.Errorf("pgvector extension: %w", err)}
	}
	if err := tx.AutoMigrate(&itemRow{}); err != nil {
		return &db.Error{Op: db.OpMigrate, Err: err}
	}
	for _, stmt := range migrationDDL(r.dim) {
		if err := tx.Exec(stmt).Error; err != nil {
			return &db.Error{Op: db.OpMigrate, Err: err}
		}
	}
	return nil
}

func migrationDDL(dim int) []string {
	return []string{
		fmt.Sprintf("ALTER TABLE %s ADD COLUMN IF NOT EXISTS embedding vector(%d)", pgTable, dim),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s_embedding_hnsw ON %s USING hnsw (embedding vector_cosine_ops)",
			pgTable, pgTable),
	}
}

// Upsert writes item attributes. Embeddings are written only when present.
func (r *PGRepo) Upsert(ctx context.Context, items []domcat.Item) error {
	if len(items) == 0 {
		return nil
	}
	rows := make([]itemRow, 0, len(items))
	for i := range items {
		if err := items[i].Validate(); err != nil {
			return err
		}
		if items[i].HasEmbedding() && len(items[i].Embedding) != r.dim {
			return fmt.Errorf("%w: %s: got %d, want %d",
				domain.ErrVectorDimMismatch, items[i].ID, len(items[i].Embedding), r.dim)
		}
		rows = append(rows, rowFromItem(&items[i]))
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name", "type", "description", "price", "min_qty", "max_qty",
				"lead_time_days", "tags", "customization", "sizes", "colors", "stock",
			}),
		}).Create(&rows).Error
		if err != nil {
			return err
		}
		for i := range items {
			if !items[i].HasEmbedding() {
				continue
			}
			if err := setEmbedding(tx, items[i].ID, items[i].Embedding); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return &db.Error{Op: db.OpQuery, Err: fmt.Errorf("upsert items: %w", err)}
	}
	return nil
}

// Get loads one item with its embedding.
func (r *PGRepo) Get(ctx context.Context, id string) (domcat.Item, error) {
	var rows []scoredRow
	err := r.db.WithContext(ctx).
		Raw("SELECT *, embedding::text AS embedding_text FROM "+pgTable+" WHERE id = ?", id).
		Scan(&rows).Error
	if err != nil {
		return domcat.Item{}, &db.Error{Op: db.OpQuery, Err: err}
	}
	if len(rows) == 0 {
		return domcat.Item{}, fmt.Errorf("item %s: %w", id, domain.ErrNotFound)
	}
	return rows[0].withEmbedding()
}

// List returns every item with its embedding, ordered by ID.
func (r *PGRepo) List(ctx context.Context) ([]domcat.Item, error) {
	var rows []scoredRow
	err := r.db.WithContext(ctx).
		Raw("SELECT *, embedding::text AS embedding_text FROM " + pgTable + " ORDER BY id").
		Scan(&rows).Error
	if err != nil {
		return nil, &db.Error{Op: db.OpQuery, Err: err}
	}
	items := make([]domcat.Item, 0, len(rows))
	for i := range rows {
		it, err := rows[i].withEmbedding()
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, nil
}

// Delete removes an item.
func (r *PGRepo) Delete(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Delete(&itemRow{}, "id = ?", id).Error; err != nil {
		return &db.Error{Op: db.OpQuery, Err: err}
	}
	return nil
}

// SetEmbedding stores the vector of an existing item.
func (r *PGRepo) SetEmbedding(ctx context.Context, id string, vec []float32) error {
	if len(vec) != r.dim {
		return fmt.Errorf("%w: %s: got %d, want %d", domain.ErrVectorDimMismatch, id, len(vec), r.dim)
	}
	err := setEmbedding(r.db.WithContext(ctx), id, vec)
	if errors.Is(err, domain.ErrNotFound) {
		return err
	}
	if err != nil {
		return &db.Error{Op: db.OpQuery, Err: err}
	}
	return nil
}

func setEmbedding(tx *gorm.DB, id string, vec []float32) error {
	res := tx.Exec("UPDATE "+pgTable+" SET embedding = ?::vector WHERE id = ?", postgres.FormatVector(vec), id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("item %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// SearchSimilar ranks eligible items by cosine similarity using the pgvector <=> operator.
func (r *PGRepo) SearchSimilar(ctx context.Context, q domcat.SimilarQuery) ([]domcat.Candidate, error) {
	if q.Limit <= 0 {
		return nil, nil
	}
	sql, args := similarSQL(q)

	var rows []scoredRow
	if err := r.db.WithContext(ctx).Raw(sql, args...).Scan(&rows).Error; err != nil {
		return nil, &db.Error{Op: db.OpQuery, Err: fmt.Errorf("search similar: %w", err)}
	}

	out := make([]domcat.Candidate, 0, len(rows))
	for i := range rows {
		sim := 0.0
		if rows[i].Similarity != nil {
			sim = *rows[i].Similarity
		}
		out = append(out, domcat.Ranked(rows[i].toItem(), sim))
	}
	domcat.SortBySimilarity(out)
	return out, nil
}

// similarSQL builds the retrieval statement. Every value is a bound parameter.
func similarSQL(q domcat.SimilarQuery) (string, []any) {
	vec := postgres.FormatVector(q.Vector)
	var b strings.Builder
	b.WriteString("SELECT *, 1 - (embedding <=> ?::vector) AS similarity FROM ")
	b.WriteString(pgTable)
	b.WriteString(" WHERE embedding IS NOT NULL AND min_qty <= ? AND max_qty >= ?")
	args := []any{vec, q.Quantity, q.Quantity}
	if q.MaxLeadTimeDays != nil {
		b.WriteString(" AND lead_time_days <= ?")
		args = append(args, *q.MaxLeadTimeDays)
	}
	b.WriteString(" ORDER BY embedding <=> ?::vector ASC, price ASC LIMIT ?")
	args = append(args, vec, q.Limit)
	return b.String(), args
}

// Cheapest returns up to limit items ordered by price.
func (r *PGRepo) Cheapest(ctx context.Context, limit int) ([]domcat.Item, error) {
	if limit <= 0 {
		return nil, nil
	}
	var rows []itemRow
	err := r.db.WithContext(ctx).Order("price ASC").Order("id ASC").Limit(limit).Find(&rows).Error
	if err != nil {
		return nil, &db.Error{Op: db.OpQuery, Err: fmt.Errorf("cheapest: %w", err)}
	}
	items := make([]domcat.Item, 0, len(rows))
	for i := range rows {
		items = append(items, rows[i].toItem())
	}
	return items, nil
}

func (r *scoredRow) withEmbedding() (domcat.Item, error) {
	it := r.toItem()
	if r.EmbeddingText == nil {
		return it, nil
	}
	vec, err := postgres.ParseVector(*r.EmbeddingText)
	if err != nil {
		return domcat.Item{}, fmt.Errorf("item %s: %w", r.ID, err)
	}
	it.Embedding = vec
	return it, nil
}
