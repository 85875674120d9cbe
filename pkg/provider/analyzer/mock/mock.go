// Package mock provides a call-recording [analyzer.Provider] test double,
// modeled on pkg/provider/embeddings/mock.
package mock

import (
	"context"
	"sync"

	"github.com/driftos/driftd/pkg/provider/analyzer"
)

// ParseCall records the arguments and result of a single Parse invocation.
type ParseCall struct {
	Text   string
	Result analyzer.Document
	Err    error
}

// Provider is a configurable, call-recording [analyzer.Provider].
type Provider struct {
	mu sync.Mutex

	// ParseFunc, when set, computes the result for each Parse call. When
	// nil, ParseResult/ParseErr are returned instead.
	ParseFunc func(text string) (analyzer.Document, error)

	ParseResult analyzer.Document
	ParseErr    error

	ModelIDValue string

	calls []ParseCall
}

// New returns a ready-to-use mock [Provider].
func New() *Provider {
	return &Provider{ModelIDValue: "mock-analyzer"}
}

// Parse records the call and returns the configured result.
func (p *Provider) Parse(_ context.Context, text string) (analyzer.Document, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var (
		result analyzer.Document
		err    error
	)
	if p.ParseFunc != nil {
		result, err = p.ParseFunc(text)
	} else {
		result, err = p.ParseResult, p.ParseErr
	}
	p.calls = append(p.calls, ParseCall{Text: text, Result: result, Err: err})
	return result, err
}

// ModelID returns the configured model identifier.
func (p *Provider) ModelID() string {
	return p.ModelIDValue
}

// Calls returns a copy of all recorded Parse calls.
func (p *Provider) Calls() []ParseCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]ParseCall, len(p.calls))
	copy(out, p.calls)
	return out
}

// Reset clears all recorded calls.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = nil
}

var _ analyzer.Provider = (*Provider)(nil)
