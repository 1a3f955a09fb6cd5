package catalog

import (
	"reflect"
	"slices"
	"strings"
	"testing"

	domcat "github.com/kailas-cloud/vecrec/internal/domain/catalog"
)

func TestSimilarSQL_BindsEveryValue(t *testing.T) {
	seven := 7
	sql, args := similarSQL(domcat.SimilarQuery{
		Vector: []float32{0.5, -1}, Quantity: 25, MaxLeadTimeDays: &seven, Limit: 20,
	})

	want := "SELECT *, 1 - (embedding <=> ?::vector) AS similarity FROM catalog_items" +
		" WHERE embedding IS NOT NULL AND min_qty <= ? AND max_qty >= ? AND lead_time_days <= ?" +
		" ORDER BY embedding <=> ?::vector ASC, price ASC LIMIT ?"
	if sql != want {
		t.Errorf("sql =\n%s\nwant\n%s", sql, want)
	}
	if wantArgs := []any{"[0.5,-1]", 25, 25, 7, "[0.5,-1]", 20}; !reflect.DeepEqual(args, wantArgs) {
		t.Errorf("args = %v, want %v", args, wantArgs)
	}
	if strings.Count(sql, "?") != len(args) {
		t.Errorf("%d placeholders, %d args", strings.Count(sql, "?"), len(args))
	}
}

func TestSimilarSQL_WithoutLeadTime(t *testing.T) {
	sql, args := similarSQL(domcat.SimilarQuery{Vector: []float32{1}, Quantity: 3, Limit: 5})
	if strings.Contains(sql, "lead_time_days") {
		t.Errorf("unexpected lead time filter: %s", sql)
	}
	if len(args) != 5 {
		t.Errorf("args = %d, want 5", len(args))
	}
}

func TestMigrationDDL(t *testing.T) {
	ddl := migrationDDL(1024)
	if len(ddl) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(ddl))
	}
	if !strings.Contains(ddl[0], "vector(1024)") {
		t.Errorf("ddl[0] = %s", ddl[0])
	}
	if !strings.Contains(ddl[1], "vector_cosine_ops") {
		t.Errorf("ddl[1] = %s", ddl[1])
	}
}

func TestItemRowRoundTrip(t *testing.T) {
	src := testItem("a", 9.99)
	row := rowFromItem(&src)
	if row.TableName() != "catalog_items" {
		t.Errorf("TableName = %q", row.TableName())
	}
	if got := row.toItem(); !reflect.DeepEqual(got, src) {
		t.Errorf("round trip = %+v, want %+v", got, src)
	}
}

func TestScoredRow_ParsesEmbedding(t *testing.T) {
	text := "[1,0.5]"
	row := scoredRow{itemRow: rowFromItem(&domcat.Item{ID: "a"}), EmbeddingText: &text}
	it, err := row.withEmbedding()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(it.Embedding, []float32{1, 0.5}) {
		t.Errorf("Embedding = %v", it.Embedding)
	}

	bad := "nope"
	row.EmbeddingText = &bad
	if _, err := row.withEmbedding(); err == nil {
		t.Error("expected parse error")
	}
}
