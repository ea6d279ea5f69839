// Package enrich grows the ephemeral lecture index with background
// material: an LLM extracts the lecture's key terms, and the lead summary
// of each term's Wikipedia article is embedded into the index so question
// retrieval can draw on it.
package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kalambet/tutord/internal/llm"
	"github.com/kalambet/tutord/internal/retrieval"
)

const (
	defaultStageTimeout = 20 * time.Second
	maxTerms            = 5
	keyTermsTopK        = 3
)

// keyTermsPrompt asks for a bare comma-separated keyword list.
const keyTermsPrompt = `Identify and list only the key terms related to the fundamental concepts of the subject discussed in the lecture.
- Focus strictly on core theories, principles, models, and frameworks.
- Do not provide definitions, explanations, or examples.
- Format the output as a comma-separated list of keywords.

Example output:
Neural Networks, Backpropagation, Attention Mechanism, Gradient Descent, Transformer Models`

// Chatter abstracts the chat-completion provider.
type Chatter interface {
	Chat(ctx context.Context, messages []llm.Message) (string, error)
}

// Wiki abstracts Wikipedia lookups.
type Wiki interface {
	Search(ctx context.Context, term string) (string, error)
	Summary(ctx context.Context, title string) (string, error)
}

// Enricher implements the optional index enrichment stage.
type Enricher struct {
	chatter Chatter
	wiki    Wiki
	timeout time.Duration
}

// New creates an Enricher. A non-positive timeout uses the default budget.
func New(chatter Chatter, wiki Wiki, timeout time.Duration) *Enricher {
	if timeout <= 0 {
		timeout = defaultStageTimeout
	}
	return &Enricher{chatter: chatter, wiki: wiki, timeout: timeout}
}

// Enrich extracts key terms from the indexed lecture and adds one Wikipedia
// summary record per term. The stage degrades gracefully: every failure is
// logged and skipped, and the whole stage runs under a bounded budget so a
// slow lookup cannot stall question generation.
func (e *Enricher) Enrich(ctx context.Context, retriever *retrieval.Retriever) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	terms, err := e.keyTerms(ctx, retriever)
	if err != nil {
		slog.Warn("enrichment: key term extraction failed", "error", err)
		return
	}

	added := 0
	for _, term := range terms {
		title, err := e.wiki.Search(ctx, term)
		if err != nil {
			slog.Warn("enrichment: article lookup failed", "term", term, "error", err)
			continue
		}
		summary, err := e.wiki.Summary(ctx, title)
		if err != nil {
			slog.Warn("enrichment: summary fetch failed", "title", title, "error", err)
			continue
		}
		if err := retriever.Add(ctx, summary, "wikipedia:"+title); err != nil {
			slog.Warn("enrichment: indexing summary failed", "title", title, "error", err)
			continue
		}
		added++
	}
	slog.Debug("enrichment complete", "terms", len(terms), "added", added)
}

func (e *Enricher) keyTerms(ctx context.Context, retriever *retrieval.Retriever) ([]string, error) {
	chunks, err := retriever.Retrieve(ctx, keyTermsPrompt, keyTermsTopK)
	if err != nil {
		return nil, fmt.Errorf("retrieving context: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("Lecture excerpts:\n")
	for _, ch := range chunks {
		sb.WriteString("\n" + ch.Text + "\n")
	}

	raw, err := e.chatter.Chat(ctx, []llm.Message{
		{Role: "system", Content: sb.String()},
		{Role: "user", Content: keyTermsPrompt},
	})
	if err != nil {
		return nil, fmt.Errorf("extracting key terms: %w", err)
	}

	terms := splitTerms(raw)
	if len(terms) == 0 {
		return nil, fmt.Errorf("no key terms in response %q", raw)
	}
	return terms, nil
}

// splitTerms parses a comma-separated term list, capping at maxTerms.
func splitTerms(raw string) []string {
	var terms []string
	for _, part := range strings.Split(raw, ",") {
		term := strings.TrimSpace(strings.Trim(strings.TrimSpace(part), ".*"))
		if term == "" || strings.ContainsRune(term, '\n') {
			continue
		}
		terms = append(terms, term)
		if len(terms) == maxTerms {
			break
		}
	}
	return terms
}
