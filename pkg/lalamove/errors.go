package lalamove

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Outcome classifies a response by its status code band.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeClientFault
	OutcomeServerFault
	OutcomeUnexpectedFault
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeClientFault:
		return "client_fault"
	case OutcomeServerFault:
		return "server_fault"
	default:
		return "unexpected_fault"
	}
}

// Classify maps an HTTP status code to an Outcome. Every integer maps to
// exactly one outcome: 2xx success, 4xx client fault, 5xx server fault and
// anything else unexpected.
func Classify(statusCode int) Outcome {
	switch {
	case statusCode >= 200 && statusCode <= 299:
		return OutcomeSuccess
	case statusCode >= 400 && statusCode <= 499:
		return OutcomeClientFault
	case statusCode >= 500 && statusCode <= 599:
		return OutcomeServerFault
	default:
		return OutcomeUnexpectedFault
	}
}

// Sentinels matched by errors.Is against an *APIError of the same outcome.
var (
	ErrClientFault     = errors.New("lalamove client error")
	ErrServerFault     = errors.New("lalamove server error")
	ErrUnexpectedFault = errors.New("lalamove unexpected response")
)

// APIError is returned for any non-2xx response. It carries the raw body so
// callers can inspect Lalamove's error payload.
type APIError struct {
	Outcome    Outcome
	StatusCode int
	Body       []byte
}

func (e *APIError) Error() string {
	var kind string
	switch e.Outcome {
	case OutcomeClientFault:
		kind = "Client Error"
	case OutcomeServerFault:
		kind = "Server Error"
	default:
		kind = "Unexpected Error"
	}
	return fmt.Sprintf("%s: %d - %s", kind, e.StatusCode, e.Body)
}

// Is reports whether target is the sentinel for e's outcome.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrClientFault:
		return e.Outcome == OutcomeClientFault
	case ErrServerFault:
		return e.Outcome == OutcomeServerFault
	case ErrUnexpectedFault:
		return e.Outcome == OutcomeUnexpectedFault
	}
	return false
}

type errorPayload struct {
	Message string `json:"message"`
	Errors  []struct {
		ID      string `json:"id"`
		Message string `json:"message"`
	} `json:"errors"`
}

func (e *APIError) payload() (errorPayload, bool) {
	var p errorPayload
	if err := json.Unmarshal(e.Body, &p); err != nil {
		return p, false
	}
	return p, true
}

// Code returns the first Lalamove error id in the body (e.g.
// "ERR_INVALID_FIELD"), or "HTTP_<status>" when the body has none.
func (e *APIError) Code() string {
	if p, ok := e.payload(); ok && len(p.Errors) > 0 && p.Errors[0].ID != "" {
		return p.Errors[0].ID
	}
	return fmt.Sprintf("HTTP_%d", e.StatusCode)
}

// Message extracts a human readable message from a JSON error body, falling
// back to the raw body.
func (e *APIError) Message() string {
	if p, ok := e.payload(); ok {
		if p.Message != "" {
			return p.Message
		}
		if len(p.Errors) > 0 {
			if p.Errors[0].Message != "" {
				return p.Errors[0].Message
			}
			return p.Errors[0].ID
		}
	}
	return string(e.Body)
}
