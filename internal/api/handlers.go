// Package api exposes the question/answer/feedback lifecycle over HTTP:
// direct JSON endpoints, a tool-call envelope adapter for the voice-agent
// integration, and an MCP server for agent clients.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kalambet/tutord/internal/storage"
	"github.com/kalambet/tutord/internal/transcript"
)

const maxRequestBodySize = 1 << 20 // 1MB

// QuestionGenerator abstracts question generation for the API layer.
type QuestionGenerator interface {
	Generate(ctx context.Context, videoURL string) ([]string, error)
}

// FeedbackGenerator abstracts feedback generation for the API layer.
type FeedbackGenerator interface {
	GenerateFeedback(ctx context.Context, question, answer string) (string, error)
}

// Deps holds the collaborators handlers need. All are constructed at
// startup and injected; handlers hold no hidden state.
type Deps struct {
	Store     *storage.Store
	Questions QuestionGenerator
	Feedback  FeedbackGenerator
}

// NewHandler builds the HTTP router for all endpoints.
func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(CORS)

	r.Get("/health", handleHealth)
	r.Post("/generate-questions", handleGenerateQuestions(deps))
	r.Get("/get-questions", handleGetQuestions(deps))
	r.Get("/get-question/{id}", handleGetQuestion(deps))
	r.Post("/generate-feedback", handleGenerateFeedback(deps))
	r.Get("/get-feedback/{id}", handleGetQuestion(deps))

	// Tool-call envelope transport for the voice-agent orchestrator.
	toolCalls := handleToolCalls(deps)
	r.Post("/get-questions-vapi", toolCalls)
	r.Post("/get-question-vapi", toolCalls)
	r.Post("/create-answer", toolCalls)
	r.Post("/provide-feedback", toolCalls)

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"healthy"}`))
}

type generateQuestionsRequest struct {
	URL string `json:"url"`
}

func handleGenerateQuestions(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req generateQuestionsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if _, err := transcript.ExtractVideoID(req.URL); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid YouTube URL: %q", req.URL)
			return
		}

		questions, err := deps.Questions.Generate(r.Context(), req.URL)
		if err != nil {
			httpError(w, generationStatus(err), "api_error", "generating questions: %v", err)
			return
		}

		// Each successful create is durable on its own; a failure below
		// leaves the earlier interactions in place.
		created := make([]storage.Interaction, 0, len(questions))
		for _, q := range questions {
			inter, err := deps.Store.CreateInteraction(q)
			if err != nil {
				httpError(w, http.StatusInternalServerError, "api_error", "storing question: %v", err)
				return
			}
			created = append(created, inter)
		}

		writeJSON(w, toInteractionList(created))
	}
}

// generationStatus maps generator failures to response codes. The URL was
// validated before generation, so anything left is an upstream failure.
func generationStatus(err error) int {
	if errors.Is(err, transcript.ErrInvalidURL) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func handleGetQuestions(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		interactions, err := deps.Store.ListInteractions(offset, limit)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "listing questions: %v", err)
			return
		}
		writeJSON(w, toInteractionList(interactions))
	}
}

// handleGetQuestion serves both /get-question/{id} and /get-feedback/{id}:
// each returns the full interaction record.
func handleGetQuestion(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid interaction id")
			return
		}

		inter, err := deps.Store.GetInteraction(id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "interaction %d not found", id)
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "loading interaction: %v", err)
			return
		}
		writeJSON(w, toInteractionJSON(inter))
	}
}

type generateFeedbackRequest struct {
	InteractionID int64  `json:"interaction_id"`
	Answer        string `json:"answer"`
}

func handleGenerateFeedback(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req generateFeedbackRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.Answer == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "answer is required")
			return
		}

		inter, err := gradeAnswer(r.Context(), deps, req.InteractionID, req.Answer)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "interaction %d not found", req.InteractionID)
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "%v", err)
			return
		}
		writeJSON(w, toInteractionJSON(inter))
	}
}

// gradeAnswer persists the submitted answer, generates feedback for it,
// persists that too, and returns the updated record. The answer is stored
// before feedback generation so a provider failure never leaves feedback
// for an answer that was not recorded.
func gradeAnswer(ctx context.Context, deps Deps, id int64, answer string) (storage.Interaction, error) {
	inter, err := deps.Store.GetInteraction(id)
	if err != nil {
		return storage.Interaction{}, err
	}

	if err := deps.Store.SetAnswer(id, answer); err != nil {
		return storage.Interaction{}, fmt.Errorf("storing answer: %w", err)
	}

	feedback, err := deps.Feedback.GenerateFeedback(ctx, inter.Question, answer)
	if err != nil {
		return storage.Interaction{}, err
	}
	if err := deps.Store.SetFeedback(id, feedback); err != nil {
		return storage.Interaction{}, fmt.Errorf("storing feedback: %w", err)
	}

	return deps.Store.GetInteraction(id)
}

// interactionJSON is the wire form of an interaction; unset answer and
// feedback serialize as null.
type interactionJSON struct {
	ID        int64     `json:"id"`
	Question  string    `json:"question"`
	Answer    *string   `json:"answer"`
	Feedback  *string   `json:"feedback"`
	CreatedAt time.Time `json:"created_at"`
}

func toInteractionJSON(i storage.Interaction) interactionJSON {
	return interactionJSON{
		ID:        i.ID,
		Question:  i.Question,
		Answer:    i.Answer,
		Feedback:  i.Feedback,
		CreatedAt: i.CreatedAt,
	}
}

func toInteractionList(interactions []storage.Interaction) []interactionJSON {
	out := make([]interactionJSON, len(interactions))
	for i, inter := range interactions {
		out[i] = toInteractionJSON(inter)
	}
	return out
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}
