// Package report submits user reports (wrong timings, missing mosque, feature
// requests) and refuses rapid duplicate submissions.
package report

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/time/rate"

	"github.com/smokyabdulrahman/jamaat-times/internal/api"
	"github.com/smokyabdulrahman/jamaat-times/internal/clock"
)

// Kind is what the report is about.
type Kind string

const (
	IncorrectTimings Kind = "incorrect_timings"
	NewMosque        Kind = "new_mosque"
	Feature          Kind = "feature"
)

// Kinds lists every Kind, in menu order.
var Kinds = []Kind{IncorrectTimings, NewMosque, Feature}

// Label returns the wire label the backend expects.
func (k Kind) Label() string {
	switch k {
	case IncorrectTimings:
		return "Reported Incorrect Timings"
	case NewMosque:
		return "Requested New Mosque"
	default:
		return "Feature Requested"
	}
}

// DefaultWindow is the minimum gap between two submissions.
const DefaultWindow = 2 * time.Second

// ErrDuplicateSubmit is returned when a submission arrives while another is in
// flight or inside the window after the previous one.
var ErrDuplicateSubmit = errors.New("a report was just submitted, please wait")

// Request is one report as entered by the user. Mosque is the mosque name for
// IncorrectTimings and the requested name for NewMosque; Feature ignores it.
type Request struct {
	Kind    Kind   `validate:"required,oneof=incorrect_timings new_mosque feature"`
	Mosque  string `validate:"required_unless=Kind feature,max=200"`
	Message string `validate:"required_if=Kind feature,max=2000"`
}

// Reporter delivers a report.
type Reporter interface {
	SubmitReport(ctx context.Context, r api.Report) error
}

// Submitter validates and sends reports, one at a time.
type Submitter struct {
	reporter Reporter
	clk      clock.Clock
	window   time.Duration
	validate *validator.Validate

	mu         sync.Mutex
	limiter    *rate.Limiter
	submitting bool
}

// NewSubmitter returns a Submitter allowing one submission per window.
func NewSubmitter(r Reporter, clk clock.Clock, window time.Duration) *Submitter {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Submitter{
		reporter: r,
		clk:      clk,
		window:   window,
		validate: validator.New(),
		limiter:  rate.NewLimiter(rate.Every(window), 1),
	}
}

// Submit validates req and sends it.
func (s *Submitter) Submit(ctx context.Context, req Request) error {
	req.Mosque = strings.TrimSpace(req.Mosque)
	req.Message = strings.TrimSpace(req.Message)
	if req.Kind == Feature {
		req.Mosque = ""
	}
	if err := s.validate.Struct(req); err != nil {
		return fmt.Errorf("invalid report: %w", err)
	}

	s.mu.Lock()
	if s.submitting || !s.limiter.AllowN(s.clk.Now(), 1) {
		s.mu.Unlock()
		return ErrDuplicateSubmit
	}
	s.submitting = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.submitting = false
		s.mu.Unlock()
	}()

	err := s.reporter.SubmitReport(ctx, api.Report{
		Type:    req.Kind.Label(),
		Mosque:  req.Mosque,
		Message: req.Message,
	})
	if err != nil {
		return fmt.Errorf("failed to submit report: %w", err)
	}
	return nil
}

// Submitting reports whether a submission is in flight.
func (s *Submitter) Submitting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitting
}

// Reset clears the duplicate guard so the next Submit goes through.
func (s *Submitter) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.limiter = rate.NewLimiter(rate.Every(s.window), 1)
	s.submitting = false
}
