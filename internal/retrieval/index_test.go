package retrieval

import (
	"testing"
)

func rec(id string, vec ...float32) Record {
	return Record{ID: id, SourceLabel: "test", Text: "text-" + id, Embedding: vec}
}

func TestSearch_RanksByCosineSimilarity(t *testing.T) {
	ix := NewIndex()
	ix.Add(
		rec("east", 1, 0),
		rec("north", 0, 1),
		rec("northeast", 1, 1),
		rec("west", -1, 0),
	)

	results := ix.Search([]float32{1, 0}, 2)
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}
	if results[0].ID != "east" {
		t.Errorf("results[0].ID = %q, want east", results[0].ID)
	}
	if results[1].ID != "northeast" {
		t.Errorf("results[1].ID = %q, want northeast", results[1].ID)
	}
	if results[0].Score < results[1].Score {
		t.Errorf("scores not descending: %v then %v", results[0].Score, results[1].Score)
	}
}

func TestSearch_TopKLargerThanIndex(t *testing.T) {
	ix := NewIndex()
	ix.Add(rec("a", 1, 0), rec("b", 0, 1))

	results := ix.Search([]float32{1, 1}, 10)
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}
}

func TestSearch_EmptyIndex(t *testing.T) {
	ix := NewIndex()
	if results := ix.Search([]float32{1, 0}, 3); len(results) != 0 {
		t.Fatalf("results = %v, want empty", results)
	}
}

func TestSearch_ZeroQueryVector(t *testing.T) {
	ix := NewIndex()
	ix.Add(rec("a", 1, 0))
	if results := ix.Search([]float32{0, 0}, 3); results != nil {
		t.Fatalf("results = %v, want nil for zero-norm query", results)
	}
}

func TestSearch_DimensionMismatchScoresZero(t *testing.T) {
	ix := NewIndex()
	ix.Add(rec("short", 1))
	ix.Add(rec("match", 0.5, 0.5))

	results := ix.Search([]float32{1, 1}, 2)
	if results[0].ID != "match" {
		t.Errorf("results[0].ID = %q, want match", results[0].ID)
	}
	for _, r := range results {
		if r.ID == "short" && r.Score != 0 {
			t.Errorf("mismatched-dimension record scored %v, want 0", r.Score)
		}
	}
}
