package core

import (
	"errors"
	"slices"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// ErrMalformedEncoding indicates bytes that do not decode to a Candidate.
var ErrMalformedEncoding = errors.New("malformed candidate encoding")

// CandidateMUS serializes Candidate values in MUS format.
//
// Field order is fixed and features are written in sorted key order, so equal
// candidates always encode to equal bytes. Timestamps keep microsecond precision.
var CandidateMUS = candidateMUS{}

type candidateMUS struct{}

// Size returns the number of bytes Marshal needs for v.
func (s candidateMUS) Size(v Candidate) (size int) {
	size += ord.String.Size(v.Id)
	size += ord.String.Size(v.DisplayName)
	size += ord.String.Size(v.URL)
	size += ord.String.Size(v.Language)
	size += ord.String.Size(v.Description)
	size += ord.String.Size(v.Source)
	size += sizeStrings(v.Tags)
	size += sizeStrings(v.Synergy)
	keys := sortedKeys(v.Features)
	size += varint.Int.Size(len(keys))
	for _, k := range keys {
		size += ord.String.Size(k)
		size += raw.Float64.Size(v.Features[k])
	}
	size += varint.Int.Size(len(v.Vector))
	for _, f := range v.Vector {
		size += raw.Float32.Size(f)
	}
	size += varint.Int64.Size(micros(v.InsertedAt))
	size += varint.Int64.Size(micros(v.UpdatedAt))
	return size
}

// Marshal writes v into bs, which must be at least Size(v) bytes long.
func (s candidateMUS) Marshal(v Candidate, bs []byte) (n int) {
	n += ord.String.Marshal(v.Id, bs[n:])
	n += ord.String.Marshal(v.DisplayName, bs[n:])
	n += ord.String.Marshal(v.URL, bs[n:])
	n += ord.String.Marshal(v.Language, bs[n:])
	n += ord.String.Marshal(v.Description, bs[n:])
	n += ord.String.Marshal(v.Source, bs[n:])
	n += marshalStrings(v.Tags, bs[n:])
	n += marshalStrings(v.Synergy, bs[n:])
	keys := sortedKeys(v.Features)
	n += varint.Int.Marshal(len(keys), bs[n:])
	for _, k := range keys {
		n += ord.String.Marshal(k, bs[n:])
		n += raw.Float64.Marshal(v.Features[k], bs[n:])
	}
	n += varint.Int.Marshal(len(v.Vector), bs[n:])
	for _, f := range v.Vector {
		n += raw.Float32.Marshal(f, bs[n:])
	}
	n += varint.Int64.Marshal(micros(v.InsertedAt), bs[n:])
	n += varint.Int64.Marshal(micros(v.UpdatedAt), bs[n:])
	return n
}

// Unmarshal decodes a Candidate from bs.
func (s candidateMUS) Unmarshal(bs []byte) (v Candidate, n int, err error) {
	var m int
	strs := []*string{&v.Id, &v.DisplayName, &v.URL, &v.Language, &v.Description, &v.Source}
	for _, dst := range strs {
		*dst, m, err = ord.String.Unmarshal(bs[n:])
		n += m
		if err != nil {
			return
		}
	}

	if v.Tags, m, err = unmarshalStrings(bs[n:]); err != nil {
		return
	}
	n += m
	if v.Synergy, m, err = unmarshalStrings(bs[n:]); err != nil {
		return
	}
	n += m

	count, m, err := unmarshalLength(bs[n:])
	n += m
	if err != nil {
		return
	}
	if count > 0 {
		v.Features = make(map[string]float64, count)
	}
	for i := 0; i < count; i++ {
		var key string
		var val float64
		key, m, err = ord.String.Unmarshal(bs[n:])
		n += m
		if err != nil {
			return
		}
		val, m, err = raw.Float64.Unmarshal(bs[n:])
		n += m
		if err != nil {
			return
		}
		v.Features[key] = val
	}

	count, m, err = unmarshalLength(bs[n:])
	n += m
	if err != nil {
		return
	}
	if count > 0 {
		v.Vector = make([]float32, count)
	}
	for i := 0; i < count; i++ {
		v.Vector[i], m, err = raw.Float32.Unmarshal(bs[n:])
		n += m
		if err != nil {
			return
		}
	}

	var ts int64
	ts, m, err = varint.Int64.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return
	}
	v.InsertedAt = fromMicros(ts)
	ts, m, err = varint.Int64.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return
	}
	v.UpdatedAt = fromMicros(ts)
	return
}

func sizeStrings(strs []string) (size int) {
	size = varint.Int.Size(len(strs))
	for _, s := range strs {
		size += ord.String.Size(s)
	}
	return size
}

func marshalStrings(strs []string, bs []byte) (n int) {
	n = varint.Int.Marshal(len(strs), bs)
	for _, s := range strs {
		n += ord.String.Marshal(s, bs[n:])
	}
	return n
}

func unmarshalStrings(bs []byte) (strs []string, n int, err error) {
	count, n, err := unmarshalLength(bs)
	if err != nil || count == 0 {
		return nil, n, err
	}
	strs = make([]string, count)
	for i := range strs {
		var m int
		strs[i], m, err = ord.String.Unmarshal(bs[n:])
		n += m
		if err != nil {
			return nil, n, err
		}
	}
	return strs, n, nil
}

// unmarshalLength reads a collection length. Every element takes at least one
// byte, so a length larger than the remaining input is rejected before allocating.
func unmarshalLength(bs []byte) (int, int, error) {
	count, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return 0, n, err
	}
	if count < 0 || count > len(bs)-n {
		return 0, n, ErrMalformedEncoding
	}
	return count, n, nil
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func micros(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMicro()
}

func fromMicros(us int64) time.Time {
	if us == 0 {
		return time.Time{}
	}
	return time.UnixMicro(us).UTC()
}

// CheckpointMUS serializes Checkpoint values in MUS format.
var CheckpointMUS = checkpointMUS{}

type checkpointMUS struct{}

func (s checkpointMUS) Size(v Checkpoint) (size int) {
	size += ord.String.Size(v.Name)
	size += ord.String.Size(v.LastID)
	size += varint.Int.Size(v.Processed)
	return size + varint.Int64.Size(micros(v.UpdatedAt))
}

func (s checkpointMUS) Marshal(v Checkpoint, bs []byte) (n int) {
	n += ord.String.Marshal(v.Name, bs[n:])
	n += ord.String.Marshal(v.LastID, bs[n:])
	n += varint.Int.Marshal(v.Processed, bs[n:])
	return n + varint.Int64.Marshal(micros(v.UpdatedAt), bs[n:])
}

func (s checkpointMUS) Unmarshal(bs []byte) (v Checkpoint, n int, err error) {
	var m int
	if v.Name, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	if v.LastID, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	if v.Processed, m, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	var ts int64
	if ts, m, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	v.UpdatedAt = fromMicros(ts)
	return
}
