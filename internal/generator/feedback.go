package generator

import (
	"context"
	"errors"
	"fmt"
)

// ErrFeedback marks a failed feedback generation. The underlying provider
// error message is included; empty feedback is never returned silently.
var ErrFeedback = errors.New("feedback generation failed")

// FeedbackGenerator produces qualitative feedback for a question/answer
// pair with a single chat completion.
type FeedbackGenerator struct {
	chatter Chatter
}

// NewFeedbackGenerator creates a FeedbackGenerator on the given provider.
func NewFeedbackGenerator(chatter Chatter) *FeedbackGenerator {
	return &FeedbackGenerator{chatter: chatter}
}

// GenerateFeedback returns the model's feedback text verbatim.
func (g *FeedbackGenerator) GenerateFeedback(ctx context.Context, question, answer string) (string, error) {
	raw, err := g.chatter.Chat(ctx, feedbackMessages(question, answer))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFeedback, err)
	}
	if raw == "" {
		return "", fmt.Errorf("%w: provider returned empty response", ErrFeedback)
	}
	return raw, nil
}
