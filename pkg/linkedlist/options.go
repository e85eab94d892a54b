package linkedlist

import (
	"fmt"
	"log/slog"
	"strings"
)

// Policy selects how a list reacts to fatal-class failures.
type Policy uint8

const (
	// PolicyAbort panics with an *Error. This is the default: a violation
	// means the calling code is wrong and must not continue.
	PolicyAbort Policy = iota
	// PolicyReport returns the *Error to the caller instead of panicking.
	PolicyReport
)

func (p Policy) String() string {
	if p == PolicyReport {
		return "report"
	}
	return "abort"
}

// ParsePolicy parses a policy name as used in configuration files.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "abort":
		return PolicyAbort, nil
	case "report":
		return PolicyReport, nil
	default:
		return PolicyAbort, fmt.Errorf("unknown policy %q (expected abort or report)", s)
	}
}

// Option configures a List at construction.
type Option func(*options)

type options struct {
	policy Policy
	logger *slog.Logger
}

// WithPolicy sets the failure policy.
func WithPolicy(p Policy) Option {
	return func(o *options) {
		o.policy = p
	}
}

// WithLogger sets the logger used to record violations.
// A nil logger is ignored.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		policy: PolicyAbort,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
