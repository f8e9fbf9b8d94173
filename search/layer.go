package search

import "strings"

// Layer is a named query expansion.
type Layer struct {
	Name      string
	Expansion string
}

// DirectLayer asks providers with the query text unchanged.
var DirectLayer = Layer{Name: "direct"}

// DefaultLayers returns the four search layers used for external backends.
func DefaultLayers() []Layer {
	return []Layer{
		{Name: "blockchain_universe", Expansion: "blockchain ethereum solidity defi"},
		{Name: "developer_consciousness", Expansion: "github repository developer open source"},
		{Name: "repository_collective", Expansion: "integration API library framework"},
		{Name: "security_dimension", Expansion: "security audit vulnerability assessment"},
	}
}

// Request is what a provider is asked for.
type Request struct {
	Query string // The user's query text, used for scoring
	Layer Layer
}

// Text returns the query text with the layer expansion appended.
func (r Request) Text() string {
	query := strings.TrimSpace(r.Query)
	if r.Layer.Expansion == "" {
		return query
	}
	if query == "" {
		return r.Layer.Expansion
	}
	return query + " " + r.Layer.Expansion
}
