package generator

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestGenerateFeedback_ReturnsModelTextVerbatim(t *testing.T) {
	const response = "Assessment: solid grasp of the topic.\nStrengths: clear reasoning."
	chatter := &fakeChatter{response: response}
	g := NewFeedbackGenerator(chatter)

	got, err := g.GenerateFeedback(context.Background(), "What is X?", "X is a thing.")
	if err != nil {
		t.Fatalf("GenerateFeedback failed: %v", err)
	}
	if got != response {
		t.Errorf("feedback = %q, want verbatim model response", got)
	}

	// Both the question and the answer must appear in the prompt.
	if len(chatter.lastMsgs) != 2 {
		t.Fatalf("messages = %d, want 2", len(chatter.lastMsgs))
	}
	user := chatter.lastMsgs[1].Content
	if !strings.Contains(user, "What is X?") || !strings.Contains(user, "X is a thing.") {
		t.Errorf("user message missing question or answer: %q", user)
	}
}

func TestGenerateFeedback_WrapsProviderError(t *testing.T) {
	g := NewFeedbackGenerator(&fakeChatter{err: errors.New("rate limited (HTTP 429)")})

	_, err := g.GenerateFeedback(context.Background(), "q", "a")
	if !errors.Is(err, ErrFeedback) {
		t.Fatalf("error = %v, want ErrFeedback", err)
	}
	if !strings.Contains(err.Error(), "rate limited") {
		t.Errorf("error = %v, want underlying message surfaced", err)
	}
}

func TestGenerateFeedback_EmptyResponseIsError(t *testing.T) {
	g := NewFeedbackGenerator(&fakeChatter{response: ""})

	_, err := g.GenerateFeedback(context.Background(), "q", "a")
	if !errors.Is(err, ErrFeedback) {
		t.Fatalf("error = %v, want ErrFeedback for empty response", err)
	}
}
