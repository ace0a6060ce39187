package returns

import (
	"context"
	"sync"
)

// SubmissionState tracks a return form through its lifecycle.
type SubmissionState int

const (
	StateIdle SubmissionState = iota
	StateSubmitting
	StateSubmitted
	StateFailed
)

func (s SubmissionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubmitting:
		return "submitting"
	case StateSubmitted:
		return "submitted"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Submission is the explicit state machine behind one return form:
// idle -> submitting -> submitted | failed. Failed is not terminal; the
// user may correct the form and resubmit, which re-enters submitting.
type Submission struct {
	mu      sync.Mutex
	state   SubmissionState
	result  SubmitResult
	service *Service
}

func NewSubmission(service *Service) *Submission {
	return &Submission{service: service}
}

// State returns the current lifecycle state.
func (s *Submission) State() SubmissionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Result returns the outcome of the last completed submission.
func (s *Submission) Result() SubmitResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// Submit runs one submission cycle. Only a single submission may be in
// flight at a time; concurrent calls get ErrSubmissionInFlight.
func (s *Submission) Submit(ctx context.Context, req SubmitRequest) (SubmitResult, error) {
	s.mu.Lock()
	if s.state == StateSubmitting {
		s.mu.Unlock()
		return SubmitResult{}, ErrSubmissionInFlight
	}
	s.state = StateSubmitting
	s.mu.Unlock()

	result := s.service.Submit(ctx, req)

	s.mu.Lock()
	s.result = result
	if result.Success {
		s.state = StateSubmitted
	} else {
		s.state = StateFailed
	}
	s.mu.Unlock()

	return result, nil
}
