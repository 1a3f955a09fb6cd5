package db

import (
	"strings"
	"testing"
)

func TestIndexBuilder_Catalog(t *testing.T) {
	idx := NewIndex("vecrec:catalog:idx").
		Prefix("vecrec:catalog:").
		Numeric("price", "min_qty", "max_qty", "lead_time_days").
		Tag("type").
		Tag("has_embedding").
		MustBuild()

	if idx.StorageType != StorageHash {
		t.Errorf("storage = %q, want HASH", idx.StorageType)
	}
	if len(idx.Fields) != 6 {
		t.Fatalf("fields count = %d, want 6", len(idx.Fields))
	}
	for i, name := range []string{"price", "min_qty", "max_qty", "lead_time_days"} {
		if idx.Fields[i].Name != name || idx.Fields[i].Type != IndexFieldNumeric {
			t.Errorf("field[%d] = %+v, want %s NUMERIC", i, idx.Fields[i], name)
		}
	}
	if idx.Fields[4].Type != IndexFieldTag {
		t.Errorf("field[4] = %+v, want TAG", idx.Fields[4])
	}
}

func TestIndexBuilder_VectorFlat(t *testing.T) {
	idx := NewIndex("vec-idx").
		Prefix("emb:").
		VectorFlat("vector", 1024, DistanceCosine).
		MustBuild()

	f := idx.Fields[0]
	if f.VectorAlgo != VectorFlat || f.VectorDim != 1024 || f.VectorDistance != DistanceCosine {
		t.Errorf("unexpected vector field: %+v", f)
	}
}

func TestIndexBuilder_VectorHNSW(t *testing.T) {
	idx := NewIndex("hnsw-idx").
		Tag("type").
		VectorHNSW("vector", 768, DistanceCosine, 32, 400).
		MustBuild()

	f := idx.Fields[1]
	if f.VectorAlgo != VectorHNSW {
		t.Errorf("algo = %q, want HNSW", f.VectorAlgo)
	}
	if f.VectorM != 32 || f.VectorEFConstruct != 400 {
		t.Errorf("M/EF = %d/%d, want 32/400", f.VectorM, f.VectorEFConstruct)
	}
}

func TestIndexBuilder_TagOptions(t *testing.T) {
	idx := NewIndex("idx").TagWithOpts("tags", ";", true).MustBuild()
	f := idx.Fields[0]
	if f.TagSeparator != ";" || !f.TagCaseSensitive {
		t.Errorf("unexpected tag options: %+v", f)
	}
}

func TestIndexBuilder_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		builder *IndexBuilder
		wantErr string
	}{
		{"empty name", NewIndex("").Tag("a"), "index name is required"},
		{"invalid name", NewIndex("bad name!").Tag("a"), "invalid characters"},
		{"no fields", NewIndex("idx"), "at least one field"},
		{"zero dim", NewIndex("idx").VectorFlat("v", 0, DistanceCosine), "positive DIM"},
		{"duplicate", NewIndex("idx").Tag("a").Numeric("a"), "duplicate field name"},
		{
			"two vectors",
			NewIndex("idx").VectorFlat("v1", 4, DistanceCosine).VectorFlat("v2", 4, DistanceCosine),
			"at most one vector",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.builder.Build()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestIndexBuilder_MustBuildPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	NewIndex("").MustBuild()
}

func TestIndexDefinition_String(t *testing.T) {
	idx := NewIndex("idx").Prefix("p:").Numeric("price").VectorFlat("vector", 4, DistanceCosine).MustBuild()
	want := "FT.CREATE idx ON HASH PREFIX p: SCHEMA price NUMERIC vector VECTOR FLAT"
	if got := idx.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestIsValidIdentifier(t *testing.T) {
	for s, want := range map[string]bool{
		"vecrec:catalog:idx": true,
		"a-b_c":              true,
		"":                   false,
		"has space":          false,
		"semi;colon":         false,
	} {
		if got := IsValidIdentifier(s); got != want {
			t.Errorf("IsValidIdentifier(%q) = %v, want %v", s, got, want)
		}
	}
}
