package fallback

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNoMatch lets a step say "nothing wrong, but nothing found" so the chain moves on without
// recording a failure.
var ErrNoMatch = errors.New("no match")

type Step[T any] struct {
	Name string
	Run  func(ctx context.Context) (T, error)
}

type Attempt struct {
	Name string
	Err  error
}

type Result[T any] struct {
	Value    T
	Source   string
	Found    bool
	Attempts []Attempt
}

// FirstSuccess runs steps in order and returns the first value produced without error.
// Context cancellation stops the chain early.
func FirstSuccess[T any](ctx context.Context, steps []Step[T]) Result[T] {
	result := Result[T]{Attempts: make([]Attempt, 0, len(steps))}
	for _, step := range steps {
		if ctx.Err() != nil {
			result.Attempts = append(result.Attempts, Attempt{Name: step.Name, Err: ctx.Err()})
			break
		}

		value, err := step.Run(ctx)
		if err != nil {
			result.Attempts = append(result.Attempts, Attempt{Name: step.Name, Err: err})
			continue
		}

		result.Value = value
		result.Source = step.Name
		result.Found = true
		result.Attempts = append(result.Attempts, Attempt{Name: step.Name})
		return result
	}

	return result
}

// Summary renders attempts as name=error pairs for single-line logs.
func (r Result[T]) Summary() string {
	parts := make([]string, 0, len(r.Attempts))
	for _, attempt := range r.Attempts {
		status := "ok"
		if attempt.Err != nil {
			status = attempt.Err.Error()
		}
		parts = append(parts, fmt.Sprintf("%s=%q", attempt.Name, status))
	}
	return strings.Join(parts, ",")
}
