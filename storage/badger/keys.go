package badger

import "strings"

// Key prefixes for different data types
const (
	candidatePrefix    = "cand:"
	candidateTagPrefix = "candtag:"
	checkpointPrefix   = "chkpt:"
)

// tagSeparator ends the tag part of a tag index key. Tags are normalized
// text, so they never contain it.
const tagSeparator = "\x00"

// makeCandidateKey generates a key for a candidate by id.
func makeCandidateKey(id string) []byte {
	return []byte(candidatePrefix + id)
}

// candidateIDFromKey extracts the id from a candidate key.
func candidateIDFromKey(key []byte) string {
	return strings.TrimPrefix(string(key), candidatePrefix)
}

// makeCandidateTagKey generates a composite key for the tag index.
// Format: prefix tag \x00 id
func makeCandidateTagKey(tag, id string) []byte {
	return []byte(candidateTagPrefix + tag + tagSeparator + id)
}

// makePartialCandidateTagKey generates the key prefix shared by every
// candidate carrying tag.
func makePartialCandidateTagKey(tag string) []byte {
	return []byte(candidateTagPrefix + tag + tagSeparator)
}

// makeCheckpointKey generates a key for job checkpoints.
func makeCheckpointKey(name string) []byte {
	return []byte(checkpointPrefix + name)
}
