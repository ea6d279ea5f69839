package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func toolCallBody(id, name string, args any) string {
	raw, _ := json.Marshal(args)
	body, _ := json.Marshal(map[string]any{
		"message": map[string]any{
			"toolCalls": []map[string]any{
				{
					"id": id,
					"function": map[string]any{
						"name":      name,
						"arguments": json.RawMessage(raw),
					},
				},
			},
		},
	})
	return string(body)
}

func decodeToolResponse(t *testing.T, rr *httptest.ResponseRecorder) toolResponse {
	t.Helper()
	var resp toolResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding tool response: %v", err)
	}
	return resp
}

func TestToolCall_GetQuestions(t *testing.T) {
	h, store := setupHandler(t, &stubQuestions{}, &stubFeedback{})
	for i := 0; i < 3; i++ {
		if _, err := store.CreateInteraction(fmt.Sprintf("question %d", i)); err != nil {
			t.Fatalf("CreateInteraction failed: %v", err)
		}
	}

	body := toolCallBody("call-1", "get_questions", map[string]any{"offset": 0, "limit": 10})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, jsonReq(http.MethodPost, "/get-questions-vapi", body))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body = %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	resp := decodeToolResponse(t, rr)
	if len(resp.Results) != 1 {
		t.Fatalf("len(results) = %d, want 1", len(resp.Results))
	}
	if resp.Results[0].ToolCallID != "call-1" {
		t.Errorf("toolCallId = %q, want %q", resp.Results[0].ToolCallID, "call-1")
	}

	var interactions []interactionJSON
	if err := json.Unmarshal([]byte(resp.Results[0].Result), &interactions); err != nil {
		t.Fatalf("result is not an interaction list: %v", err)
	}
	if len(interactions) != 3 {
		t.Errorf("len(interactions) = %d, want 3", len(interactions))
	}
}

func TestToolCall_GetQuestion(t *testing.T) {
	h, store := setupHandler(t, &stubQuestions{}, &stubFeedback{})
	inter, err := store.CreateInteraction("What is a struct?")
	if err != nil {
		t.Fatalf("CreateInteraction failed: %v", err)
	}

	body := toolCallBody("call-2", "get_question", map[string]any{"id": inter.ID})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, jsonReq(http.MethodPost, "/get-question-vapi", body))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body = %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	resp := decodeToolResponse(t, rr)

	var got interactionJSON
	if err := json.Unmarshal([]byte(resp.Results[0].Result), &got); err != nil {
		t.Fatalf("result is not an interaction: %v", err)
	}
	if got.ID != inter.ID || got.Question != "What is a struct?" {
		t.Errorf("result = %+v", got)
	}
}

func TestToolCall_StringEncodedArguments(t *testing.T) {
	h, store := setupHandler(t, &stubQuestions{}, &stubFeedback{})
	inter, err := store.CreateInteraction("What is a map?")
	if err != nil {
		t.Fatalf("CreateInteraction failed: %v", err)
	}

	// Some model providers send arguments as a JSON-encoded string.
	args := fmt.Sprintf(`{"id":%d}`, inter.ID)
	body := toolCallBody("call-3", "get_question", args)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, jsonReq(http.MethodPost, "/get-question-vapi", body))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body = %s", rr.Code, http.StatusOK, rr.Body.String())
	}
}

func TestToolCall_CreateAnswer(t *testing.T) {
	h, store := setupHandler(t, &stubQuestions{}, &stubFeedback{})
	inter, err := store.CreateInteraction("What is a closure?")
	if err != nil {
		t.Fatalf("CreateInteraction failed: %v", err)
	}

	body := toolCallBody("call-4", "create_answer", map[string]any{
		"id":     inter.ID,
		"answer": "A function capturing its environment.",
	})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, jsonReq(http.MethodPost, "/create-answer", body))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body = %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	stored, err := store.GetInteraction(inter.ID)
	if err != nil {
		t.Fatalf("GetInteraction failed: %v", err)
	}
	if stored.Answer == nil || *stored.Answer != "A function capturing its environment." {
		t.Errorf("stored.Answer = %v", stored.Answer)
	}
	if stored.Feedback != nil {
		t.Error("create_answer must not generate feedback")
	}
}

func TestToolCall_ProvideFeedback(t *testing.T) {
	feedback := &stubFeedback{feedback: "Strong on accuracy, add an example."}
	h, store := setupHandler(t, &stubQuestions{}, feedback)
	inter, err := store.CreateInteraction("What is a pointer?")
	if err != nil {
		t.Fatalf("CreateInteraction failed: %v", err)
	}
	if err := store.SetAnswer(inter.ID, "An address of a value."); err != nil {
		t.Fatalf("SetAnswer failed: %v", err)
	}

	body := toolCallBody("call-5", "provide_feedback", map[string]any{"id": inter.ID})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, jsonReq(http.MethodPost, "/provide-feedback", body))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body = %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	if feedback.lastAnswer != "An address of a value." {
		t.Errorf("feedback got answer %q", feedback.lastAnswer)
	}

	stored, err := store.GetInteraction(inter.ID)
	if err != nil {
		t.Fatalf("GetInteraction failed: %v", err)
	}
	if stored.Feedback == nil || *stored.Feedback != feedback.feedback {
		t.Errorf("stored.Feedback = %v", stored.Feedback)
	}
}

func TestToolCall_ProvideFeedbackWithoutAnswer(t *testing.T) {
	h, store := setupHandler(t, &stubQuestions{}, &stubFeedback{})
	inter, err := store.CreateInteraction("What is reflection?")
	if err != nil {
		t.Fatalf("CreateInteraction failed: %v", err)
	}

	body := toolCallBody("call-6", "provide_feedback", map[string]any{"id": inter.ID})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, jsonReq(http.MethodPost, "/provide-feedback", body))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d; body = %s", rr.Code, http.StatusBadRequest, rr.Body.String())
	}
}

func TestToolCall_UnsupportedTool(t *testing.T) {
	h, _ := setupHandler(t, &stubQuestions{}, &stubFeedback{})

	body := toolCallBody("call-7", "delete_everything", map[string]any{})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, jsonReq(http.MethodPost, "/get-questions-vapi", body))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestToolCall_NotFound(t *testing.T) {
	h, _ := setupHandler(t, &stubQuestions{}, &stubFeedback{})

	body := toolCallBody("call-8", "get_question", map[string]any{"id": 999})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, jsonReq(http.MethodPost, "/get-question-vapi", body))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestToolCall_EmptyEnvelope(t *testing.T) {
	h, _ := setupHandler(t, &stubQuestions{}, &stubFeedback{})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, jsonReq(http.MethodPost, "/get-questions-vapi", `{"message":{"toolCalls":[]}}`))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}
