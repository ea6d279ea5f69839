package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Interaction ties one generated question to an optional learner answer
// and optional generated feedback. Answer and Feedback are nil until set.
type Interaction struct {
	ID        int64
	Question  string
	Answer    *string
	Feedback  *string
	CreatedAt time.Time
}
