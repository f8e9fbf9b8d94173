package search

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/rankit/ai"
	"github.com/poiesic/rankit/core"
	"github.com/poiesic/rankit/features"
	"github.com/poiesic/rankit/source"
	"github.com/poiesic/rankit/storage"
)

// Provider supplies candidates for a request.
// Implementations must be safe for concurrent use and must not retain or
// modify the candidates they return after returning them.
type Provider interface {
	Name() string
	Candidates(ctx context.Context, req Request) ([]*core.Candidate, error)
}

// Static is implemented by providers whose candidates do not depend on the
// request. The searcher asks them once per search rather than once per layer.
type Static interface {
	Static() bool
}

func isStatic(p Provider) bool {
	s, ok := p.(Static)
	return ok && s.Static()
}

// CatalogProvider returns every stored candidate.
type CatalogProvider struct {
	repo storage.CandidateRepository
}

// NewCatalogProvider creates a provider over repo.
func NewCatalogProvider(repo storage.CandidateRepository) (*CatalogProvider, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}
	return &CatalogProvider{repo: repo}, nil
}

func (p *CatalogProvider) Name() string { return "catalog" }
func (p *CatalogProvider) Static() bool { return true }

// Candidates returns a snapshot of the repository.
func (p *CatalogProvider) Candidates(ctx context.Context, _ Request) ([]*core.Candidate, error) {
	return p.repo.Snapshot(ctx)
}

// StaticProvider serves a fixed candidate list.
type StaticProvider struct {
	name       string
	candidates []*core.Candidate
}

// NewStaticProvider creates a provider returning copies of candidates.
func NewStaticProvider(name string, candidates []*core.Candidate) *StaticProvider {
	return &StaticProvider{name: name, candidates: candidates}
}

func (p *StaticProvider) Name() string { return p.name }
func (p *StaticProvider) Static() bool { return true }

func (p *StaticProvider) Candidates(_ context.Context, _ Request) ([]*core.Candidate, error) {
	out := make([]*core.Candidate, 0, len(p.candidates))
	for _, c := range p.candidates {
		out = append(out, c.Clone())
	}
	return out, nil
}

// DefaultSourceTimeout bounds a single external search.
const DefaultSourceTimeout = 30 * time.Second

// SourceProvider turns the hits of an external source into candidates.
// Failures and timeouts are logged and yield no candidates.
type SourceProvider struct {
	name    string
	src     source.Source
	timeout time.Duration
	groups  []features.KeywordGroup
	logger  *slog.Logger
}

// SourceOption configures a SourceProvider.
type SourceOption func(*SourceProvider)

// WithSourceTimeout sets the per-search timeout. Non-positive values disable it.
func WithSourceTimeout(timeout time.Duration) SourceOption {
	return func(p *SourceProvider) {
		p.timeout = timeout
	}
}

// WithSourceGroups sets the keyword groups used to convert hits.
func WithSourceGroups(groups ...features.KeywordGroup) SourceOption {
	return func(p *SourceProvider) {
		p.groups = groups
	}
}

// WithSourceLogger sets the logger. Defaults to slog.Default().
func WithSourceLogger(logger *slog.Logger) SourceOption {
	return func(p *SourceProvider) {
		p.logger = logger
	}
}

// NewSourceProvider wraps src under the given name.
func NewSourceProvider(name string, src source.Source, opts ...SourceOption) (*SourceProvider, error) {
	if src == nil {
		return nil, ErrSourceRequired
	}
	p := &SourceProvider{
		name:    name,
		src:     src,
		timeout: DefaultSourceTimeout,
		groups:  features.SearchGroups(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	p.logger = p.logger.With("provider", name)
	return p, nil
}

func (p *SourceProvider) Name() string { return p.name }

// Candidates searches the expanded request text and scores hits against the
// user's query. An empty query asks nothing.
func (p *SourceProvider) Candidates(ctx context.Context, req Request) ([]*core.Candidate, error) {
	if strings.TrimSpace(req.Query) == "" {
		return []*core.Candidate{}, nil
	}
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	raws, err := p.src.Search(ctx, req.Text())
	if err != nil {
		p.logger.Warn("external search failed", "layer", req.Layer.Name, "err", err)
		return []*core.Candidate{}, nil
	}

	candidates := source.ToCandidates(raws, req.Query, p.groups)
	for _, c := range candidates {
		if c.Source == "" {
			c.Source = p.name
		}
	}
	return candidates, nil
}

// Semantic provider defaults.
const (
	DefaultMinSimilarity = 0.6
	DefaultSemanticLimit = 50
)

// SemanticProvider finds stored candidates whose vectors are close to the
// embedded request text. Each returned candidate carries its similarity as
// the "semantic" feature.
type SemanticProvider struct {
	repo          storage.CandidateRepository
	embedder      ai.Embedder
	minSimilarity float32
	limit         int
}

// NewSemanticProvider creates a semantic provider.
func NewSemanticProvider(repo storage.CandidateRepository, embedder ai.Embedder, minSimilarity float32, limit int) (*SemanticProvider, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if limit < 1 {
		limit = DefaultSemanticLimit
	}
	return &SemanticProvider{
		repo:          repo,
		embedder:      embedder,
		minSimilarity: minSimilarity,
		limit:         limit,
	}, nil
}

func (p *SemanticProvider) Name() string { return "semantic" }

// Candidates embeds the request text and returns the closest stored candidates.
func (p *SemanticProvider) Candidates(ctx context.Context, req Request) ([]*core.Candidate, error) {
	text := req.Text()
	if text == "" {
		return []*core.Candidate{}, nil
	}
	vector, err := p.embedder.EmbedText(ctx, text)
	if err != nil {
		return nil, err
	}
	matches, err := p.repo.FindSimilar(ctx, vector, p.minSimilarity, p.limit)
	if err != nil {
		return nil, err
	}

	out := make([]*core.Candidate, 0, len(matches))
	for _, match := range matches {
		c := match.Candidate.Clone()
		if c.Features == nil {
			c.Features = make(map[string]float64, 1)
		}
		c.Features[core.FeatureSemantic] = core.Clamp01(float64(match.Score))
		out = append(out, c)
	}
	return out, nil
}
