// Package files turns local files into ranking candidates.
//
// Each file is described by its metadata: size, name, extension, modification
// time and a BLAKE2b-256 content hash. The metadata is mapped onto the usual
// candidate features so files can be ranked next to catalog repositories:
//
//	complexity   = size / 10000, capped at 1
//	coherence    = resonance (extension, name keywords and size)
//	base_quality = mean of complexity, name length / 50 and a time factor
package files

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
	"github.com/poiesic/rankit/core"
	"github.com/poiesic/rankit/features"
)

// SourceName is recorded as the Source of file candidates.
const SourceName = "files"

const (
	complexitySize = 10000 // bytes at which complexity reaches 1
	nameLength     = 50
	largeFile      = 1000 // bytes above which a file resonates more strongly
	synergyFactors = 4
)

// ErrNoPaths is returned when there is nothing to walk.
var ErrNoPaths = errors.New("at least one path required")

// Kind is a class of files recognised by extension or by exact file name.
type Kind struct {
	Name     string
	Suffixes []string // ".go" style extensions or whole names such as "README.md"
}

func (k Kind) matches(name, ext string) bool {
	for _, suffix := range k.Suffixes {
		if suffix == ext || strings.EqualFold(suffix, name) {
			return true
		}
	}
	return false
}

// DefaultKinds returns the built-in file kinds. A file can be of several kinds.
func DefaultKinds() []Kind {
	return []Kind{
		{Name: "data", Suffixes: []string{".csv", ".json", ".xml", ".xlsx", ".parquet"}},
		{Name: "code", Suffixes: []string{".py", ".js", ".ts", ".sol", ".go", ".java", ".cpp", ".c", ".rs"}},
		{Name: "document", Suffixes: []string{".txt", ".md", ".pdf", ".doc", ".docx"}},
		{Name: "config", Suffixes: []string{".json", ".yaml", ".yml", ".toml", ".ini"}},
		{Name: "media", Suffixes: []string{".jpg", ".png", ".gif", ".mp4", ".mp3"}},
		{Name: "security", Suffixes: []string{".log", ".cert", ".key", ".pem"}},
		{Name: "repository", Suffixes: []string{".gitignore", "README.md", "go.mod"}},
		{Name: "blockchain", Suffixes: []string{".sol", ".vy", ".rs"}},
	}
}

// Extensions whose files resonate fully.
var resonantExtensions = []string{".py", ".js", ".sol"}

var languages = map[string]string{
	".py":   "Python",
	".js":   "JavaScript",
	".ts":   "TypeScript",
	".sol":  "Solidity",
	".vy":   "Vyper",
	".go":   "Go",
	".rs":   "Rust",
	".java": "Java",
	".c":    "C",
	".cpp":  "C++",
}

// Directories never descended into.
var skipDirs = map[string]bool{".git": true, "node_modules": true, "vendor": true, "__pycache__": true}

// Metadata describes one analyzed file.
type Metadata struct {
	Path      string    `json:"path"`
	Name      string    `json:"name"`
	Extension string    `json:"extension"`
	Size      int64     `json:"size_bytes"`
	Modified  time.Time `json:"modified"`
	Hash      string    `json:"hash_blake2b"`
	Signature string    `json:"signature"`
	Kinds     []string  `json:"kinds"`

	Complexity    float64 `json:"complexity"`
	Creativity    float64 `json:"creativity"`
	Temporal      float64 `json:"temporal"`
	Consciousness float64 `json:"consciousness"`
	Resonance     float64 `json:"resonance"`
}

// HumanSize formats Size the way a directory listing would, e.g. "2.4 KB".
func (m *Metadata) HumanSize() string {
	size := float64(m.Size)
	for _, unit := range []string{"bytes", "KB", "MB", "GB"} {
		if size < 1024 {
			return fmt.Sprintf("%.1f %s", size, unit)
		}
		size /= 1024
	}
	return fmt.Sprintf("%.1f TB", size)
}

// Candidate converts the metadata into a rankable candidate.
func (m *Metadata) Candidate() *core.Candidate {
	stem := strings.TrimSuffix(m.Name, m.Extension)
	tags := features.SignificantTokens(strings.NewReplacer("_", " ", "-", " ", ".", " ").Replace(stem))
	tags = append(tags, m.Kinds...)
	if m.Extension != "" {
		tags = append(tags, strings.TrimPrefix(m.Extension, "."))
	}

	synergy := make([]string, 0, len(m.Kinds))
	for _, kind := range m.Kinds {
		synergy = append(synergy, kind+"_analysis")
	}

	description := m.Name
	if len(m.Kinds) > 0 {
		description += ": " + strings.Join(m.Kinds, ", ") + " file"
	}
	description += fmt.Sprintf(" of %s at %s", m.HumanSize(), m.Path)

	return &core.Candidate{
		Id:          "file:" + filepath.ToSlash(m.Path),
		DisplayName: m.Name,
		URL:         "file://" + filepath.ToSlash(m.Path),
		Language:    languages[m.Extension],
		Description: description,
		Source:      SourceName,
		Tags:        core.NormalizeTags(tags),
		Synergy:     synergy,
		Features: map[string]float64{
			core.FeatureComplexity:  m.Complexity,
			core.FeatureCoherence:   m.Resonance,
			core.FeatureBaseQuality: m.Consciousness,
			core.FeatureSynergy:     min(float64(len(synergy))/synergyFactors, 1),
		},
		UpdatedAt: m.Modified,
	}
}

// Analyzer reads file metadata.
type Analyzer struct {
	kinds    []Kind
	keywords []string
	maxFiles int
	logger   *slog.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer) error

// WithKinds replaces the file kinds.
func WithKinds(kinds ...Kind) Option {
	return func(a *Analyzer) error {
		for _, k := range kinds {
			if k.Name == "" || len(k.Suffixes) == 0 {
				return fmt.Errorf("file kind %q needs a name and suffixes", k.Name)
			}
		}
		a.kinds = kinds
		return nil
	}
}

// WithKeywords sets the name keywords that raise a file's resonance.
// Default is "quantum".
func WithKeywords(keywords ...string) Option {
	return func(a *Analyzer) error {
		a.keywords = keywords
		return nil
	}
}

// WithMaxFiles caps how many files a walk returns. 0 means no limit.
func WithMaxFiles(n int) Option {
	return func(a *Analyzer) error {
		if n < 0 {
			return fmt.Errorf("max files cannot be negative, got %d", n)
		}
		a.maxFiles = n
		return nil
	}
}

// WithLogger sets the logger. Defaults to slog.Default() if not specified.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Analyzer) error {
		a.logger = logger
		return nil
	}
}

// NewAnalyzer creates an analyzer with the default kinds.
func NewAnalyzer(opts ...Option) (*Analyzer, error) {
	a := &Analyzer{
		kinds:    DefaultKinds(),
		keywords: []string{"quantum"},
	}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	a.logger = a.logger.With("component", "file-analyzer")
	return a, nil
}

// Analyze reads the metadata of the regular file at path.
func (a *Analyzer) Analyze(path string) (*Metadata, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%s is not a regular file", path)
	}

	hash, err := hashFile(path)
	if err != nil {
		return nil, err
	}

	name := info.Name()
	ext := strings.ToLower(filepath.Ext(name))
	m := &Metadata{
		Path:      path,
		Name:      name,
		Extension: ext,
		Size:      info.Size(),
		Modified:  info.ModTime().UTC().Truncate(time.Microsecond),
		Hash:      hash,
		Signature: fmt.Sprintf("file_%016x", core.Fingerprint(filepath.ToSlash(path))),
	}
	for _, k := range a.kinds {
		if k.matches(name, ext) {
			m.Kinds = append(m.Kinds, k.Name)
		}
	}

	m.Complexity = min(float64(m.Size)/complexitySize, 1)
	m.Creativity = min(float64(len(name))/nameLength, 1)
	m.Temporal = float64(core.Fingerprint(m.Modified.Format(time.RFC3339Nano))%1000) / 1000
	m.Consciousness = (m.Complexity + m.Creativity + m.Temporal) / 3
	m.Resonance = a.resonance(m)
	return m, nil
}

func (a *Analyzer) resonance(m *Metadata) float64 {
	ext, name, size := 0.5, 0.3, 0.4
	if slices.Contains(resonantExtensions, m.Extension) {
		ext = 1
	}
	for _, keyword := range a.keywords {
		if features.Mentions(m.Name, keyword) {
			name = 1
			break
		}
	}
	if m.Size > largeFile {
		size = 0.8
	}
	return (ext + name + size) / 3
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h, err := blake2b.New256(nil)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Walk analyzes every regular file under roots, in path order. A root may be
// a single file. Files that cannot be read are logged and skipped; a missing
// root is an error.
func (a *Analyzer) Walk(ctx context.Context, roots ...string) ([]*Metadata, error) {
	if len(roots) == 0 {
		return nil, ErrNoPaths
	}

	var paths []string
	for _, root := range roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if path == root {
					return err
				}
				a.logger.Warn("skipping unreadable path", "path", path, "err", err)
				return nil
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if d.IsDir() {
				if path != root && skipDirs[d.Name()] {
					return filepath.SkipDir
				}
				return nil
			}
			if d.Type().IsRegular() {
				paths = append(paths, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	slices.Sort(paths)
	paths = slices.Compact(paths)

	if a.maxFiles > 0 && len(paths) > a.maxFiles {
		a.logger.Info("file walk truncated", "found", len(paths), "max", a.maxFiles)
		paths = paths[:a.maxFiles]
	}

	out := make([]*Metadata, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		m, err := a.Analyze(path)
		if err != nil {
			a.logger.Warn("skipping file", "path", path, "err", err)
			continue
		}
		out = append(out, m)
	}
	a.logger.Debug("files analyzed", "roots", len(roots), "files", len(out))
	return out, nil
}

// Candidates walks roots and converts every file into a candidate.
func (a *Analyzer) Candidates(ctx context.Context, roots ...string) ([]*core.Candidate, error) {
	analyzed, err := a.Walk(ctx, roots...)
	if err != nil {
		return nil, err
	}
	out := make([]*core.Candidate, 0, len(analyzed))
	for _, m := range analyzed {
		out = append(out, m.Candidate())
	}
	return out, nil
}
