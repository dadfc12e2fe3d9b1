// Package notify delivers visitor inquiries to the operators' email and chat channels.
package notify

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrNotConfigured is returned when no delivery channel is registered
var ErrNotConfigured = errors.New("no inquiry channel configured")

// ErrInvalidInquiry marks an inquiry rejected before delivery
var ErrInvalidInquiry = errors.New("invalid inquiry")

// DefaultInquiryType labels an inquiry submitted without a type
const DefaultInquiryType = "일반"

// Inquiry is a message submitted through the contact form
type Inquiry struct {
	Name    string `json:"name" validate:"required,max=100"`
	Email   string `json:"email" validate:"required,email,max=254"`
	Message string `json:"message" validate:"required,max=5000"`
	Type    string `json:"type" validate:"max=50"`
}

// TypeLabel returns the inquiry type, or the default label when none was given
func (i Inquiry) TypeLabel() string {
	if t := strings.TrimSpace(i.Type); t != "" {
		return t
	}
	return DefaultInquiryType
}

// Sink defines a destination for inquiries
type Sink interface {
	// Name identifies the sink in logs and delivery errors
	Name() string

	// Send delivers one inquiry
	Send(ctx context.Context, inquiry Inquiry) error

	// HealthCheck reports whether the sink is usable
	HealthCheck(ctx context.Context) error
}

// DeliveryError reports the sinks that failed to deliver an inquiry
type DeliveryError struct {
	Failures map[string]error
}

func (e *DeliveryError) Error() string {
	names := e.Failed()
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %v", name, e.Failures[name]))
	}
	return "inquiry delivery failed: " + strings.Join(parts, "; ")
}

// Failed returns the names of the failed sinks in sorted order
func (e *DeliveryError) Failed() []string {
	names := make([]string, 0, len(e.Failures))
	for name := range e.Failures {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Unwrap exposes the individual sink errors to errors.Is and errors.As
func (e *DeliveryError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, name := range e.Failed() {
		errs = append(errs, e.Failures[name])
	}
	return errs
}
