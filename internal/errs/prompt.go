package errs

import (
	"errors"
	"fmt"
)

// Prompt is a user-facing failure. Its Message is returned to the client
// verbatim, so it must never carry internal details.
//
//	return nil, errs.NewPrompt("insufficient balance")
type Prompt struct {
	Message string

	// Err is an optional underlying cause, kept for logs only.
	Err error
}

// NewPrompt creates a Prompt with the given message.
func NewPrompt(message string) *Prompt {
	return &Prompt{Message: message}
}

// Promptf creates a Prompt with a formatted message.
func Promptf(format string, args ...any) *Prompt {
	return &Prompt{Message: fmt.Sprintf(format, args...)}
}

// WrapPrompt attaches a user-facing message to an internal cause.
func WrapPrompt(err error, message string) *Prompt {
	return &Prompt{Message: message, Err: err}
}

func (p *Prompt) Error() string {
	return p.Message
}

func (p *Prompt) Unwrap() error {
	return p.Err
}

// AsPrompt reports whether err (or anything it wraps) is a *Prompt.
func AsPrompt(err error) (*Prompt, bool) {
	var prompt *Prompt
	if errors.As(err, &prompt) {
		return prompt, true
	}
	return nil, false
}
