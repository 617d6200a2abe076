package main

import (
	"time"

	"github.com/google/uuid"

	"foyer/internal/tasks"
)

// seedSampleTasks returns the ownerless demo tasks shown on the landing
// page in in-memory mode. In postgres mode sample rows are managed by
// migrations or operators instead.
func seedSampleTasks() []tasks.Task {
	now := time.Now().UTC()

	texts := []struct {
		text string
		done bool
	}{
		{"Create an account to get your own list", false},
		{"Check tasks off as you finish them", true},
		{"Pick a theme under preferences", false},
		{"Export everything as CSV whenever you like", false},
	}

	out := make([]tasks.Task, 0, len(texts))
	for i, t := range texts {
		out = append(out, tasks.Task{
			ID:          uuid.New(),
			Text:        t.text,
			IsCompleted: t.done,
			CreatedAt:   now.Add(-time.Duration(i) * time.Minute),
		})
	}
	return out
}
