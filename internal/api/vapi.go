package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/kalambet/tutord/internal/storage"
)

// Tool names the voice-agent platform is configured with. Every tool-call
// endpoint accepts the same envelope; dispatch happens on the name.
const (
	toolGetQuestions    = "get_questions"
	toolGetQuestion     = "get_question"
	toolCreateAnswer    = "create_answer"
	toolProvideFeedback = "provide_feedback"
)

// toolCallEnvelope is the request shape the platform posts for a tool call.
type toolCallEnvelope struct {
	Message struct {
		ToolCalls []toolCall `json:"toolCalls"`
	} `json:"message"`
}

type toolCall struct {
	ID       string `json:"id"`
	Function struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	} `json:"function"`
}

type toolResult struct {
	ToolCallID string `json:"toolCallId"`
	Result     string `json:"result"`
}

type toolResponse struct {
	Results []toolResult `json:"results"`
}

// toolError carries an HTTP status for a tool-call failure so the adapter
// can surface provider and lookup errors with the same codes as the
// direct endpoints.
type toolError struct {
	status  int
	errType string
	msg     string
}

func (e *toolError) Error() string { return e.msg }

func toolErrorf(status int, errType, format string, args ...any) *toolError {
	return &toolError{status: status, errType: errType, msg: fmt.Sprintf(format, args...)}
}

// handleToolCalls serves every tool-call endpoint. The envelope may carry
// several calls; each result is keyed by the call id, and the first
// failure aborts the whole request.
func handleToolCalls(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var env toolCallEnvelope
		if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid tool call envelope: %v", err)
			return
		}
		if len(env.Message.ToolCalls) == 0 {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "envelope has no tool calls")
			return
		}

		resp := toolResponse{Results: make([]toolResult, 0, len(env.Message.ToolCalls))}
		for _, call := range env.Message.ToolCalls {
			result, err := dispatchToolCall(r, deps, call)
			if err != nil {
				var te *toolError
				if errors.As(err, &te) {
					httpError(w, te.status, te.errType, "%s", te.msg)
					return
				}
				httpError(w, http.StatusInternalServerError, "api_error", "tool %s: %v", call.Function.Name, err)
				return
			}
			resp.Results = append(resp.Results, toolResult{ToolCallID: call.ID, Result: result})
		}
		writeJSON(w, resp)
	}
}

func dispatchToolCall(r *http.Request, deps Deps, call toolCall) (string, error) {
	switch call.Function.Name {
	case toolGetQuestions:
		return toolListQuestions(deps, call)
	case toolGetQuestion:
		return toolGetQuestionByID(deps, call)
	case toolCreateAnswer:
		return toolStoreAnswer(deps, call)
	case toolProvideFeedback:
		return toolGradeAnswer(r, deps, call)
	default:
		return "", toolErrorf(http.StatusBadRequest, "invalid_request_error",
			"unsupported tool %q", call.Function.Name)
	}
}

func toolListQuestions(deps Deps, call toolCall) (string, error) {
	var args struct {
		Offset int `json:"offset"`
		Limit  int `json:"limit"`
	}
	if err := decodeToolArguments(call.Function.Arguments, &args); err != nil {
		return "", err
	}

	interactions, err := deps.Store.ListInteractions(args.Offset, args.Limit)
	if err != nil {
		return "", fmt.Errorf("listing questions: %w", err)
	}
	return encodeToolResult(toInteractionList(interactions))
}

func toolGetQuestionByID(deps Deps, call toolCall) (string, error) {
	var args struct {
		ID int64 `json:"id"`
	}
	if err := decodeToolArguments(call.Function.Arguments, &args); err != nil {
		return "", err
	}

	inter, err := deps.Store.GetInteraction(args.ID)
	if errors.Is(err, storage.ErrNotFound) {
		return "", toolErrorf(http.StatusNotFound, "not_found", "interaction %d not found", args.ID)
	}
	if err != nil {
		return "", fmt.Errorf("loading interaction: %w", err)
	}
	return encodeToolResult(toInteractionJSON(inter))
}

func toolStoreAnswer(deps Deps, call toolCall) (string, error) {
	var args struct {
		ID     int64  `json:"id"`
		Answer string `json:"answer"`
	}
	if err := decodeToolArguments(call.Function.Arguments, &args); err != nil {
		return "", err
	}
	if args.Answer == "" {
		return "", toolErrorf(http.StatusBadRequest, "invalid_request_error", "answer is required")
	}

	if err := deps.Store.SetAnswer(args.ID, args.Answer); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", toolErrorf(http.StatusNotFound, "not_found", "interaction %d not found", args.ID)
		}
		return "", fmt.Errorf("storing answer: %w", err)
	}

	inter, err := deps.Store.GetInteraction(args.ID)
	if err != nil {
		return "", fmt.Errorf("loading interaction: %w", err)
	}
	return encodeToolResult(toInteractionJSON(inter))
}

// toolGradeAnswer generates feedback for the answer already stored on the
// interaction; the voice flow submits the answer via create_answer first.
func toolGradeAnswer(r *http.Request, deps Deps, call toolCall) (string, error) {
	var args struct {
		ID int64 `json:"id"`
	}
	if err := decodeToolArguments(call.Function.Arguments, &args); err != nil {
		return "", err
	}

	inter, err := deps.Store.GetInteraction(args.ID)
	if errors.Is(err, storage.ErrNotFound) {
		return "", toolErrorf(http.StatusNotFound, "not_found", "interaction %d not found", args.ID)
	}
	if err != nil {
		return "", fmt.Errorf("loading interaction: %w", err)
	}
	if inter.Answer == nil || *inter.Answer == "" {
		return "", toolErrorf(http.StatusBadRequest, "invalid_request_error",
			"interaction %d has no answer to grade", args.ID)
	}

	updated, err := gradeAnswer(r.Context(), deps, args.ID, *inter.Answer)
	if err != nil {
		return "", err
	}
	return encodeToolResult(toInteractionJSON(updated))
}

// decodeToolArguments accepts arguments either as a JSON object or as a
// JSON-encoded string holding one; the platform sends both depending on
// the model provider.
func decodeToolArguments(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		return nil
	}

	var encoded string
	if err := json.Unmarshal(raw, &encoded); err == nil {
		if encoded == "" {
			return nil
		}
		raw = json.RawMessage(encoded)
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		return toolErrorf(http.StatusBadRequest, "invalid_request_error",
			"invalid tool arguments: %v", err)
	}
	return nil
}

func encodeToolResult(v any) (string, error) {
	bytes, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encoding tool result: %w", err)
	}
	return string(bytes), nil
}
