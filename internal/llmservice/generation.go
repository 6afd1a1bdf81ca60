// Package llmservice talks to the text generation backends.
package llmservice

import (
	"context"
	"fmt"

	"bim-rag/internal/models"
)

type Status int

const (
	StatusOK Status = iota
	StatusHTTPError
	StatusMalformed
	StatusTransportError
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusHTTPError:
		return "http_error"
	case StatusMalformed:
		return "malformed"
	case StatusTransportError:
		return "transport_error"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Generation is the outcome of one generate call. Only the fields that
// belong to Status are set.
type Generation struct {
	Status     Status
	Text       string
	StatusCode int
	Body       string
	Err        error
}

// Generator produces an answer for a prompt. Failures are reported through
// Generation.Status, never as a Go error.
type Generator interface {
	Generate(ctx context.Context, prompt string) Generation
	// Provider is the display name used in failure messages
	Provider() string
}

// Message renders a generation as answer text
func Message(provider string, g Generation) string {
	switch g.Status {
	case StatusOK:
		return g.Text
	case StatusHTTPError:
		return fmt.Sprintf(models.HTTPErrorTemplate, provider, g.StatusCode, g.Body)
	case StatusTransportError:
		return fmt.Sprintf(models.TransportErrorTemplate, provider, g.Err)
	}
	return fmt.Sprintf(models.ParseFailureTemplate, provider)
}
