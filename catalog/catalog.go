package catalog

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/poiesic/rankit/core"
	"gopkg.in/yaml.v3"
)

// SourceName is the Source recorded on candidates loaded from a catalog.
const SourceName = "catalog"

var (
	// ErrInvalidCatalog is returned when a catalog file cannot be parsed or holds invalid entries.
	ErrInvalidCatalog = errors.New("invalid catalog")

	// ErrDuplicateID is returned when two catalog entries share an id.
	ErrDuplicateID = errors.New("duplicate candidate id")
)

// Entry is one candidate as written in a catalog file.
type Entry struct {
	ID          string             `yaml:"id"`
	Name        string             `yaml:"name"`
	URL         string             `yaml:"url,omitempty"`
	Language    string             `yaml:"language,omitempty"`
	Description string             `yaml:"description,omitempty"`
	Tags        []string           `yaml:"tags,omitempty"`
	Synergy     []string           `yaml:"synergy,omitempty"`
	Features    map[string]float64 `yaml:"features,omitempty"`
}

// File is the top-level layout of a catalog file.
type File struct {
	Candidates []Entry `yaml:"candidates"`
}

// Candidate converts the entry to a candidate with normalized tags.
func (e Entry) Candidate() *core.Candidate {
	c := &core.Candidate{
		Id:          e.ID,
		DisplayName: e.Name,
		URL:         e.URL,
		Language:    e.Language,
		Description: e.Description,
		Source:      SourceName,
		Tags:        core.NormalizeTags(e.Tags),
		Synergy:     append([]string(nil), e.Synergy...),
	}
	if len(e.Features) > 0 {
		c.Features = make(map[string]float64, len(e.Features))
		for name, value := range e.Features {
			c.Features[name] = value
		}
	}
	if c.DisplayName == "" {
		c.DisplayName = c.Id
	}
	return c
}

// EntryFrom converts a candidate back to its catalog form.
func EntryFrom(c *core.Candidate) Entry {
	return Entry{
		ID:          c.Id,
		Name:        c.DisplayName,
		URL:         c.URL,
		Language:    c.Language,
		Description: c.Description,
		Tags:        c.Tags,
		Synergy:     c.Synergy,
		Features:    c.Features,
	}
}

// Load parses a YAML catalog and validates every entry.
func Load(r io.Reader) ([]*core.Candidate, error) {
	var file File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return []*core.Candidate{}, nil
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidCatalog, err)
	}

	seen := make(map[string]bool, len(file.Candidates))
	candidates := make([]*core.Candidate, 0, len(file.Candidates))
	for i, entry := range file.Candidates {
		c := entry.Candidate()
		if err := core.ValidateCandidate(c); err != nil {
			return nil, fmt.Errorf("%w: entry %d: %w", ErrInvalidCatalog, i, err)
		}
		if seen[c.Id] {
			return nil, fmt.Errorf("%w: %w: %s", ErrInvalidCatalog, ErrDuplicateID, c.Id)
		}
		seen[c.Id] = true
		candidates = append(candidates, c)
	}
	return candidates, nil
}

// LoadFile reads a YAML catalog from path.
func LoadFile(path string) ([]*core.Candidate, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}

// Write encodes candidates as a YAML catalog.
func Write(w io.Writer, candidates []*core.Candidate) error {
	file := File{Candidates: make([]Entry, 0, len(candidates))}
	for _, c := range candidates {
		file.Candidates = append(file.Candidates, EntryFrom(c))
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(file); err != nil {
		return err
	}
	return enc.Close()
}
