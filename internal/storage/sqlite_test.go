package storage

import (
	"errors"
	"fmt"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestOpen_RunsMigrations(t *testing.T) {
	store := openTestStore(t)

	versions, err := store.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations failed: %v", err)
	}
	if len(versions) == 0 || versions[0] != 1 {
		t.Fatalf("versions = %v, want migration 1 applied", versions)
	}
}

func TestCreateAndGetInteraction(t *testing.T) {
	store := openTestStore(t)

	created, err := store.CreateInteraction("What is backpropagation?")
	if err != nil {
		t.Fatalf("CreateInteraction failed: %v", err)
	}
	if created.ID == 0 {
		t.Error("created.ID is zero")
	}
	if created.CreatedAt.IsZero() {
		t.Error("created.CreatedAt is zero")
	}

	got, err := store.GetInteraction(created.ID)
	if err != nil {
		t.Fatalf("GetInteraction failed: %v", err)
	}
	if got.Question != "What is backpropagation?" {
		t.Errorf("Question = %q", got.Question)
	}
	if got.Answer != nil || got.Feedback != nil {
		t.Errorf("Answer/Feedback = %v/%v, want nil/nil", got.Answer, got.Feedback)
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt is zero after round-trip")
	}
	if !got.CreatedAt.Equal(created.CreatedAt) {
		t.Errorf("CreatedAt changed across round-trip: create returned %v, get returned %v",
			created.CreatedAt, got.CreatedAt)
	}
}

func TestGetInteraction_NotFound(t *testing.T) {
	store := openTestStore(t)
	if _, err := store.GetInteraction(9999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestListInteractions_PaginationAndCap(t *testing.T) {
	store := openTestStore(t)

	var ids []int64
	for i := range 12 {
		created, err := store.CreateInteraction(fmt.Sprintf("question %d", i))
		if err != nil {
			t.Fatalf("CreateInteraction %d failed: %v", i, err)
		}
		ids = append(ids, created.ID)
	}

	// First five, earliest IDs first.
	page, err := store.ListInteractions(0, 5)
	if err != nil {
		t.Fatalf("ListInteractions failed: %v", err)
	}
	if len(page) != 5 {
		t.Fatalf("len(page) = %d, want 5", len(page))
	}
	for i, inter := range page {
		if inter.ID != ids[i] {
			t.Errorf("page[%d].ID = %d, want %d", i, inter.ID, ids[i])
		}
	}

	// Offset skips rows.
	page, err = store.ListInteractions(10, 5)
	if err != nil {
		t.Fatalf("ListInteractions failed: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("len(page) = %d, want 2", len(page))
	}
	if page[0].ID != ids[10] {
		t.Errorf("page[0].ID = %d, want %d", page[0].ID, ids[10])
	}

	// Limit above the cap is clamped.
	page, err = store.ListInteractions(0, 50)
	if err != nil {
		t.Fatalf("ListInteractions failed: %v", err)
	}
	if len(page) != MaxListLimit {
		t.Fatalf("len(page) = %d, want %d", len(page), MaxListLimit)
	}

	// Non-positive limit and negative offset fall back to defaults.
	page, err = store.ListInteractions(-3, 0)
	if err != nil {
		t.Fatalf("ListInteractions failed: %v", err)
	}
	if len(page) != MaxListLimit || page[0].ID != ids[0] {
		t.Fatalf("page = %d rows starting at %d, want %d rows from the first id", len(page), page[0].ID, MaxListLimit)
	}
}

func TestSetAnswer_LeavesFeedbackUnchanged(t *testing.T) {
	store := openTestStore(t)

	created, err := store.CreateInteraction("Why does gradient descent converge?")
	if err != nil {
		t.Fatalf("CreateInteraction failed: %v", err)
	}

	if err := store.SetFeedback(created.ID, "solid reasoning"); err != nil {
		t.Fatalf("SetFeedback failed: %v", err)
	}
	if err := store.SetAnswer(created.ID, "because the loss is convex here"); err != nil {
		t.Fatalf("SetAnswer failed: %v", err)
	}

	got, err := store.GetInteraction(created.ID)
	if err != nil {
		t.Fatalf("GetInteraction failed: %v", err)
	}
	if got.Answer == nil || *got.Answer != "because the loss is convex here" {
		t.Errorf("Answer = %v", got.Answer)
	}
	if got.Feedback == nil || *got.Feedback != "solid reasoning" {
		t.Errorf("Feedback = %v, want unchanged", got.Feedback)
	}
}

func TestSetAnswer_LastWriteWins(t *testing.T) {
	store := openTestStore(t)

	created, err := store.CreateInteraction("q")
	if err != nil {
		t.Fatalf("CreateInteraction failed: %v", err)
	}
	if err := store.SetAnswer(created.ID, "first"); err != nil {
		t.Fatalf("SetAnswer failed: %v", err)
	}
	if err := store.SetAnswer(created.ID, "second"); err != nil {
		t.Fatalf("SetAnswer failed: %v", err)
	}

	got, _ := store.GetInteraction(created.ID)
	if got.Answer == nil || *got.Answer != "second" {
		t.Errorf("Answer = %v, want second", got.Answer)
	}
}

func TestSetAnswerAndFeedback_NotFound(t *testing.T) {
	store := openTestStore(t)

	if err := store.SetAnswer(404, "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("SetAnswer error = %v, want ErrNotFound", err)
	}
	if err := store.SetFeedback(404, "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("SetFeedback error = %v, want ErrNotFound", err)
	}
}
