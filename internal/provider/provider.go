// Package provider implements LLM chat clients used by the ask function
// and the chat command.
package provider

import "time"

// Client is the interface every LLM provider implements.
type Client interface {
	// Prompt sends a system and user message and returns the reply.
	Prompt(system, user string) (string, error)
}

// DefaultTimeout is the request timeout providers start with.
const DefaultTimeout = 2 * time.Minute
