package provider

import (
	"github.com/anthropics/anthropic-sdk-go"
)

// NewClient returns a client using the API key from the env.
func NewClient() *anthropic.Client {
	c := anthropic.NewClient()
	return &c
}

const DefaultModel = anthropic.ModelClaude3_7SonnetLatest

// ResolveModel maps a configured model name to an SDK model, falling back to
// DefaultModel when unset.
func ResolveModel(name string) anthropic.Model {
	if name == "" {
		return DefaultModel
	}
	return anthropic.Model(name)
}
