package files

import (
	"context"

	"github.com/poiesic/rankit/core"
	"github.com/poiesic/rankit/search"
)

// Provider offers the files under a set of roots as search candidates. The
// roots are walked again on every search so edits are picked up.
type Provider struct {
	analyzer *Analyzer
	roots    []string
}

var _ search.Provider = (*Provider)(nil)

// NewProvider creates a provider over roots. A nil analyzer uses NewAnalyzer defaults.
func NewProvider(analyzer *Analyzer, roots ...string) (*Provider, error) {
	if len(roots) == 0 {
		return nil, ErrNoPaths
	}
	if analyzer == nil {
		var err error
		if analyzer, err = NewAnalyzer(); err != nil {
			return nil, err
		}
	}
	return &Provider{analyzer: analyzer, roots: roots}, nil
}

func (p *Provider) Name() string { return SourceName }

// Static reports true: file candidates do not depend on the query.
func (p *Provider) Static() bool { return true }

// Candidates walks the roots.
func (p *Provider) Candidates(ctx context.Context, _ search.Request) ([]*core.Candidate, error) {
	return p.analyzer.Candidates(ctx, p.roots...)
}
