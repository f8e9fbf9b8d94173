package search

import (
	"slices"

	"github.com/poiesic/rankit/core"
)

// Merge concatenates candidate lists in order and collapses duplicate ids.
// The first occurrence keeps its descriptive fields; tags and synergy labels
// are unioned and numeric features take the maximum, so the merged values
// do not depend on the order lists arrive in. Inputs are not modified.
func Merge(lists ...[]*core.Candidate) []*core.Candidate {
	index := make(map[string]int)
	var merged []*core.Candidate

	for _, list := range lists {
		for _, c := range list {
			if c == nil {
				continue
			}
			if i, ok := index[c.Id]; ok {
				absorb(merged[i], c)
				continue
			}
			index[c.Id] = len(merged)
			clone := c.Clone()
			clone.Tags = core.NormalizeTags(clone.Tags)
			clone.Synergy = unionLabels(nil, clone.Synergy)
			merged = append(merged, clone)
		}
	}

	if merged == nil {
		return []*core.Candidate{}
	}
	return merged
}

func absorb(into, from *core.Candidate) {
	into.Tags = core.NormalizeTags(append(into.Tags, from.Tags...))
	into.Synergy = unionLabels(into.Synergy, from.Synergy)

	if len(from.Features) > 0 && into.Features == nil {
		into.Features = make(map[string]float64, len(from.Features))
	}
	for name, value := range from.Features {
		if current, ok := into.Features[name]; !ok || value > current {
			into.Features[name] = value
		}
	}

	if into.Vector == nil && from.Vector != nil {
		into.Vector = slices.Clone(from.Vector)
	}
	if into.Description == "" {
		into.Description = from.Description
	}
	if into.URL == "" {
		into.URL = from.URL
	}
	if into.Language == "" {
		into.Language = from.Language
	}
}

// unionLabels returns the sorted distinct labels of a and b.
func unionLabels(a, b []string) []string {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	out := make([]string, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	slices.Sort(out)
	return slices.Compact(out)
}
