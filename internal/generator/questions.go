// Package generator produces comprehension questions and answer feedback
// for lecture videos by driving the transcript, retrieval, and LLM
// collaborators.
package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kalambet/tutord/internal/chunker"
	"github.com/kalambet/tutord/internal/llm"
	"github.com/kalambet/tutord/internal/retrieval"
	"github.com/kalambet/tutord/internal/transcript"
)

// ErrParse is returned when no questions can be parsed from the model response.
var ErrParse = errors.New("could not parse questions from model response")

// Chatter abstracts the chat-completion provider. *llm.Client satisfies it.
type Chatter interface {
	Chat(ctx context.Context, messages []llm.Message) (string, error)
}

// TranscriptProvider abstracts transcript fetching. *transcript.Client satisfies it.
type TranscriptProvider interface {
	Fetch(ctx context.Context, videoURL string) (string, error)
}

// IndexEnricher is an optional pipeline stage that may add records to the
// ephemeral index before retrieval (e.g. Wikipedia background material).
type IndexEnricher interface {
	Enrich(ctx context.Context, retriever *retrieval.Retriever)
}

// QuestionGenerator runs the full RAG pipeline for one video: fetch
// transcript, chunk, embed into an ephemeral index, retrieve the most
// relevant excerpts, and ask the model for five comprehension questions.
type QuestionGenerator struct {
	transcripts TranscriptProvider
	embedder    *retrieval.Embedder
	chatter     Chatter
	enricher    IndexEnricher // optional

	chunkSize    int
	chunkOverlap int
	topK         int
}

// QuestionGeneratorConfig bundles the pipeline knobs.
type QuestionGeneratorConfig struct {
	ChunkSize    int // default chunker.DefaultSize
	ChunkOverlap int // default chunker.DefaultOverlap
	TopK         int // default 3
}

// NewQuestionGenerator wires a QuestionGenerator. enricher may be nil.
func NewQuestionGenerator(
	transcripts TranscriptProvider,
	embedder *retrieval.Embedder,
	chatter Chatter,
	enricher IndexEnricher,
	cfg QuestionGeneratorConfig,
) *QuestionGenerator {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = chunker.DefaultSize
	}
	if cfg.ChunkOverlap < 0 {
		cfg.ChunkOverlap = chunker.DefaultOverlap
	}
	if cfg.TopK <= 0 {
		cfg.TopK = 3
	}
	return &QuestionGenerator{
		transcripts:  transcripts,
		embedder:     embedder,
		chatter:      chatter,
		enricher:     enricher,
		chunkSize:    cfg.ChunkSize,
		chunkOverlap: cfg.ChunkOverlap,
		topK:         cfg.TopK,
	}
}

// Generate returns the generated questions for the video at videoURL, in
// the order the model produced them. The index built along the way is
// scratch state and is dropped when this call returns. No step is retried;
// callers may retry the whole operation.
func (g *QuestionGenerator) Generate(ctx context.Context, videoURL string) ([]string, error) {
	text, err := g.transcripts.Fetch(ctx, videoURL)
	if err != nil {
		return nil, fmt.Errorf("fetching transcript: %w", err)
	}

	chunks := chunker.Split(text, g.chunkSize, g.chunkOverlap)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: transcript is empty", transcript.ErrUnavailable)
	}

	index, err := retrieval.BuildIndex(ctx, g.embedder, chunks, "transcript")
	if err != nil {
		return nil, fmt.Errorf("building index: %w", err)
	}
	retriever := retrieval.NewRetriever(g.embedder, index)

	if g.enricher != nil {
		g.enricher.Enrich(ctx, retriever)
	}

	relevant, err := retriever.Retrieve(ctx, questionPrompt, g.topK)
	if err != nil {
		return nil, fmt.Errorf("retrieving context: %w", err)
	}

	raw, err := g.chatter.Chat(ctx, questionMessages(relevant))
	if err != nil {
		return nil, fmt.Errorf("generating questions: %w", err)
	}

	questions := parseNumberedList(raw)
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrParse, truncate(raw, 200))
	}

	slog.Debug("questions generated",
		"chunks", len(chunks),
		"index_records", index.Len(),
		"questions", len(questions),
	)
	return questions, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
