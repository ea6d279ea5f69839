package retrieval

import (
	"context"

	"github.com/google/uuid"
)

// Retriever combines embedding and vector search over one ephemeral Index.
type Retriever struct {
	embedder *Embedder
	index    *Index
}

// NewRetriever creates a Retriever over the given Embedder and Index.
func NewRetriever(embedder *Embedder, index *Index) *Retriever {
	return &Retriever{embedder: embedder, index: index}
}

// BuildIndex embeds the given texts and returns a fresh Index holding one
// record per text, all labeled with sourceLabel. The caller owns the index
// and should let it go out of scope once retrieval is done.
func BuildIndex(ctx context.Context, embedder *Embedder, texts []string, sourceLabel string) (*Index, error) {
	index := NewIndex()
	if len(texts) == 0 {
		return index, nil
	}

	vectors, err := embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, err
	}

	records := make([]Record, len(texts))
	for i, text := range texts {
		records[i] = Record{
			ID:          uuid.New().String(),
			SourceLabel: sourceLabel,
			Text:        text,
			Embedding:   vectors[i],
		}
	}
	index.Add(records...)
	return index, nil
}

// Retrieve embeds the query and returns the top-K most similar records.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int) ([]ScoredRecord, error) {
	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	return r.index.Search(vec, topK), nil
}

// Add embeds a single text and inserts it into the retriever's index.
// Used by the enrichment stage to grow the index after the initial build.
func (r *Retriever) Add(ctx context.Context, text, sourceLabel string) error {
	vec, err := r.embedder.Embed(ctx, text)
	if err != nil {
		return err
	}
	r.index.Add(Record{
		ID:          uuid.New().String(),
		SourceLabel: sourceLabel,
		Text:        text,
		Embedding:   vec,
	})
	return nil
}
