package retrieval

import (
	"container/heap"
	"math"
	"sync"
)

// Record is one embedded text segment held by an Index.
type Record struct {
	ID          string
	SourceLabel string
	Text        string
	Embedding   []float32
}

// ScoredRecord is a Record with a similarity score attached.
type ScoredRecord struct {
	Record
	Score float32
}

// Index is an ephemeral in-memory vector index with brute-force cosine
// similarity search. One Index is built per question-generation request
// and discarded when the request completes; nothing in it is durable.
type Index struct {
	mu      sync.RWMutex
	records []Record
}

// NewIndex creates an empty Index.
func NewIndex() *Index {
	return &Index{}
}

// Add appends records to the index.
func (ix *Index) Add(records ...Record) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.records = append(ix.records, records...)
}

// Len returns the number of records in the index.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.records)
}

// Search returns the topK records most similar to the query vector,
// ordered by score descending.
func (ix *Index) Search(vector []float32, topK int) []ScoredRecord {
	if topK <= 0 {
		return nil
	}
	queryNorm := norm(vector)
	if queryNorm == 0 {
		return nil
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	h := &scoredHeap{}
	heap.Init(h)
	for _, r := range ix.records {
		score := dotProduct(vector, r.Embedding, queryNorm)
		if h.Len() < topK {
			heap.Push(h, ScoredRecord{Record: r, Score: score})
		} else if score > (*h)[0].Score {
			(*h)[0] = ScoredRecord{Record: r, Score: score}
			heap.Fix(h, 0)
		}
	}

	// Drain the min-heap back to front for descending order.
	results := make([]ScoredRecord, h.Len())
	for i := len(results) - 1; i >= 0; i-- {
		results[i] = heap.Pop(h).(ScoredRecord)
	}
	return results
}

// norm returns the L2 norm of a vector.
func norm(v []float32) float32 {
	var sum float64
	for _, f := range v {
		sum += float64(f) * float64(f)
	}
	return float32(math.Sqrt(sum))
}

// dotProduct computes cosine similarity as dot(a,b) / (aNorm * bNorm).
// aNorm is the precomputed L2 norm of vector a.
func dotProduct(a, b []float32, aNorm float32) float32 {
	if len(a) != len(b) {
		return 0
	}
	var dot float64
	var bNormSq float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		bNormSq += float64(b[i]) * float64(b[i])
	}
	bNorm := math.Sqrt(bNormSq)
	if bNorm == 0 {
		return 0
	}
	return float32(dot / (float64(aNorm) * bNorm))
}

// scoredHeap is a min-heap of ScoredRecord ordered by Score.
type scoredHeap []ScoredRecord

func (h scoredHeap) Len() int            { return len(h) }
func (h scoredHeap) Less(i, j int) bool  { return h[i].Score < h[j].Score }
func (h scoredHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *scoredHeap) Push(x interface{}) { *h = append(*h, x.(ScoredRecord)) }
func (h *scoredHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
