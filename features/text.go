package features

import "strings"

const punctuation = ".,!?;:'\"-()[]{}<>/\\`*"

// Tokenize splits text on whitespace, lower-cases each word and trims surrounding
// punctuation. Words that are pure punctuation are dropped. Empty text yields no tokens.
func Tokenize(text string) []string {
	words := strings.Fields(text)
	tokens := make([]string, 0, len(words))

	for _, word := range words {
		cleaned := strings.ToLower(strings.Trim(word, punctuation))
		if cleaned != "" {
			tokens = append(tokens, cleaned)
		}
	}

	return tokens
}

// TokenSet returns the distinct tokens of text.
func TokenSet(text string) map[string]bool {
	tokens := Tokenize(text)
	set := make(map[string]bool, len(tokens))
	for _, token := range tokens {
		set[token] = true
	}
	return set
}

// Stop words to filter out when checking for verbatim matches
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true,
}

// SignificantTokens is Tokenize with stop words removed.
func SignificantTokens(text string) []string {
	tokens := Tokenize(text)
	filtered := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if !stopWords[token] {
			filtered = append(filtered, token)
		}
	}
	return filtered
}

// ContainsAllQueryWords checks if all query words (after filtering) appear in the document
func ContainsAllQueryWords(document, query string) bool {
	queryWords := SignificantTokens(query)
	if len(queryWords) == 0 {
		return false
	}

	docWords := TokenSet(document)
	for _, qWord := range queryWords {
		if !docWords[qWord] {
			return false
		}
	}

	return true
}

// Mentions reports whether keyword occurs anywhere in text, ignoring case.
// Unlike token matching it also finds keywords inside longer words and
// hyphenated keywords such as "fourth-dimensional".
func Mentions(text, keyword string) bool {
	if keyword == "" {
		return false
	}
	return strings.Contains(strings.ToLower(text), strings.ToLower(keyword))
}
