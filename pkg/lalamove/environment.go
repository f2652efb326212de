package lalamove

import (
	"fmt"
	"strings"
)

// Environment selects which Lalamove origin requests are sent to.
// The zero value is Production.
type Environment int

const (
	Production Environment = iota
	Sandbox
)

const (
	productionBaseURL = "https://rest.lalamove.com"
	sandboxBaseURL    = "https://rest.sandbox.lalamove.com"
)

// BaseURL returns the fixed origin for the environment.
func (e Environment) BaseURL() string {
	switch e {
	case Sandbox:
		return sandboxBaseURL
	default:
		return productionBaseURL
	}
}

func (e Environment) String() string {
	switch e {
	case Sandbox:
		return "sandbox"
	default:
		return "production"
	}
}

// ParseEnvironment maps "sandbox" or "production" (any case) to an Environment.
func ParseEnvironment(s string) (Environment, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "production", "":
		return Production, nil
	case "sandbox":
		return Sandbox, nil
	default:
		return Production, fmt.Errorf("unknown lalamove environment %q", s)
	}
}
