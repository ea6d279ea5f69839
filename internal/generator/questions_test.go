package generator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kalambet/tutord/internal/llm"
	"github.com/kalambet/tutord/internal/retrieval"
	"github.com/kalambet/tutord/internal/transcript"
)

type fakeTranscripts struct {
	text string
	err  error
}

func (f *fakeTranscripts) Fetch(context.Context, string) (string, error) {
	return f.text, f.err
}

type fakeChatter struct {
	response string
	err      error
	lastMsgs []llm.Message
}

func (f *fakeChatter) Chat(_ context.Context, msgs []llm.Message) (string, error) {
	f.lastMsgs = msgs
	return f.response, f.err
}

type constEngine struct{}

func (constEngine) Embed(_ context.Context, text string) ([]float32, error) {
	// Deterministic pseudo-embedding from the text bytes.
	vec := make([]float32, 8)
	for i, b := range []byte(text) {
		vec[i%8] += float32(b) / 255
	}
	return vec, nil
}

const fiveQuestions = `1. What is the main idea behind attention?
2. Why do transformers scale better than RNNs?
3. How would you apply self-attention to images?
4. Compare encoder-only and decoder-only architectures.
5. What happens if positional encoding is removed?`

func newGenerator(tr TranscriptProvider, ch Chatter) *QuestionGenerator {
	embedder := retrieval.NewEmbedder(constEngine{})
	return NewQuestionGenerator(tr, embedder, ch, nil, QuestionGeneratorConfig{})
}

func TestGenerate_FiveQuestions(t *testing.T) {
	chatter := &fakeChatter{response: fiveQuestions}
	g := newGenerator(
		&fakeTranscripts{text: strings.Repeat("attention is all you need ", 200)},
		chatter,
	)

	questions, err := g.Generate(context.Background(), "https://youtu.be/vid1")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(questions) != 5 {
		t.Fatalf("len(questions) = %d, want 5", len(questions))
	}
	if questions[0] != "What is the main idea behind attention?" {
		t.Errorf("questions[0] = %q", questions[0])
	}
	if questions[4] != "What happens if positional encoding is removed?" {
		t.Errorf("questions[4] = %q", questions[4])
	}
	for i, q := range questions {
		if q == "" {
			t.Errorf("questions[%d] is empty", i)
		}
	}

	// The chat request must carry retrieved excerpts as system context.
	if len(chatter.lastMsgs) != 2 || chatter.lastMsgs[0].Role != "system" {
		t.Fatalf("messages = %+v, want system+user", chatter.lastMsgs)
	}
	if !strings.Contains(chatter.lastMsgs[0].Content, "[Excerpt 1]") {
		t.Error("system message missing retrieved excerpts")
	}
}

func TestGenerate_TranscriptUnavailable(t *testing.T) {
	g := newGenerator(
		&fakeTranscripts{err: transcript.ErrUnavailable},
		&fakeChatter{response: fiveQuestions},
	)

	_, err := g.Generate(context.Background(), "https://youtu.be/vid1")
	if !errors.Is(err, transcript.ErrUnavailable) {
		t.Fatalf("error = %v, want ErrUnavailable", err)
	}
}

func TestGenerate_EmptyTranscript(t *testing.T) {
	g := newGenerator(&fakeTranscripts{text: ""}, &fakeChatter{response: fiveQuestions})

	_, err := g.Generate(context.Background(), "https://youtu.be/vid1")
	if !errors.Is(err, transcript.ErrUnavailable) {
		t.Fatalf("error = %v, want ErrUnavailable", err)
	}
}

func TestGenerate_UnparseableResponse(t *testing.T) {
	g := newGenerator(
		&fakeTranscripts{text: "a short lecture about nothing in particular"},
		&fakeChatter{response: "I'm sorry, I cannot help with that."},
	)

	_, err := g.Generate(context.Background(), "https://youtu.be/vid1")
	if !errors.Is(err, ErrParse) {
		t.Fatalf("error = %v, want ErrParse", err)
	}
}

func TestGenerate_ChatError(t *testing.T) {
	g := newGenerator(
		&fakeTranscripts{text: "a short lecture"},
		&fakeChatter{err: errors.New("upstream timeout")},
	)

	_, err := g.Generate(context.Background(), "https://youtu.be/vid1")
	if err == nil || !strings.Contains(err.Error(), "upstream timeout") {
		t.Fatalf("error = %v, want wrapped chat error", err)
	}
}

type recordingEnricher struct {
	called bool
}

func (r *recordingEnricher) Enrich(ctx context.Context, retriever *retrieval.Retriever) {
	r.called = true
	retriever.Add(ctx, "background material", "wikipedia:Attention")
}

func TestGenerate_RunsEnricher(t *testing.T) {
	enricher := &recordingEnricher{}
	embedder := retrieval.NewEmbedder(constEngine{})
	g := NewQuestionGenerator(
		&fakeTranscripts{text: "a short lecture"},
		embedder,
		&fakeChatter{response: fiveQuestions},
		enricher,
		QuestionGeneratorConfig{},
	)

	if _, err := g.Generate(context.Background(), "https://youtu.be/vid1"); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if !enricher.called {
		t.Error("enricher was not invoked")
	}
}
