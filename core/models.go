package core

import (
	"encoding/binary"
	"encoding/hex"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// Well-known numeric feature names carried by candidates.
const (
	FeatureBaseQuality = "base_quality"
	FeatureCoherence   = "coherence"
	FeatureComplexity  = "complexity"
	FeatureSemantic    = "semantic"
	FeatureSynergy     = "synergy"
)

// Worthiness criteria. Candidates from the catalog carry one feature per criterion.
const (
	CriterionInnovation    = "innovation"
	CriterionStability     = "stability"
	CriterionCommunity     = "community"
	CriterionSecurity      = "security"
	CriterionDocumentation = "documentation"
)

// Fingerprint generates a deterministic 64-bit value from text content using BLAKE2b hashing.
// Identical content always produces identical fingerprints.
func Fingerprint(text string) uint64 {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return binary.LittleEndian.Uint64(sum)
}

// Signature returns a short hex signature for an external result.
// It is derived from the title and url, so the same hit seen through
// different layers gets the same signature.
func Signature(title, url string) string {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], Fingerprint(title+"_"+url))
	return "sig_" + hex.EncodeToString(buf[:])
}

// Candidate is a scoreable item: a repository from the catalog or a hit
// returned by an external search backend.
type Candidate struct {
	Id          string
	DisplayName string
	URL         string
	Language    string
	Description string
	Source      string             // Where the candidate came from ("catalog", "searxng", ...)
	Tags        []string           // Set semantics, see NormalizeTags
	Synergy     []string           // Integration benefits, e.g. "smart_contract_security"
	Features    map[string]float64 // Numeric features, each in [0,1]
	Vector      []float32          // Embedding of Description (populated by indexing)
	InsertedAt  time.Time
	UpdatedAt   time.Time
}

// Feature returns the named numeric feature, or 0 when absent.
func (c *Candidate) Feature(name string) float64 {
	if c == nil || c.Features == nil {
		return 0
	}
	return c.Features[name]
}

// HasTag reports whether the candidate carries the tag.
func (c *Candidate) HasTag(tag string) bool {
	return slices.Contains(c.Tags, tag)
}

// Clone returns a deep copy of the candidate.
func (c *Candidate) Clone() *Candidate {
	if c == nil {
		return nil
	}
	clone := *c
	clone.Tags = slices.Clone(c.Tags)
	clone.Synergy = slices.Clone(c.Synergy)
	clone.Vector = slices.Clone(c.Vector)
	if c.Features != nil {
		clone.Features = maps.Clone(c.Features)
	}
	return &clone
}

// NormalizeTags lower-cases and trims tags, drops empties and duplicates,
// and returns them sorted.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	slices.Sort(out)
	return out
}

// Query is a single ranking request.
type Query struct {
	Text  string
	Limit int
}

// EffectiveLimit returns the result limit to apply. Limits below 1 are treated as 1.
func (q Query) EffectiveLimit() int {
	if q.Limit < 1 {
		return 1
	}
	return q.Limit
}

// ScoredCandidate is a candidate together with its relevance score for one query.
// It is derived data and is never written back to storage.
type ScoredCandidate struct {
	Candidate   *Candidate
	Score       float64
	MatchedTags []string
	Features    map[string]float64 // Features the score was computed from
}

// Result is the externally visible shape of a ranked candidate.
type Result struct {
	ID          string  `json:"id"`
	DisplayName string  `json:"display_name"`
	Score       float64 `json:"score"`
}

// ResultsFrom converts scored candidates to results, keeping their order.
func ResultsFrom(scored []*ScoredCandidate) []Result {
	results := make([]Result, 0, len(scored))
	for _, sc := range scored {
		if sc == nil || sc.Candidate == nil {
			continue
		}
		results = append(results, Result{
			ID:          sc.Candidate.Id,
			DisplayName: sc.Candidate.DisplayName,
			Score:       sc.Score,
		})
	}
	return results
}

// RawResult is one hit returned by an external search backend.
type RawResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"content"`
	Source  string `json:"engine"`
}

// SimilarityMatch is a candidate match from vector similarity search.
type SimilarityMatch struct {
	Candidate *Candidate
	Score     float32
}

// Checkpoint records how far a long-running catalog job has progressed so it
// can resume after an interruption.
type Checkpoint struct {
	Name      string // Job name, e.g. "reindex"
	LastID    string // Last candidate id fully processed
	Processed int
	UpdatedAt time.Time
}
