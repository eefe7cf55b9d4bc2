package domain

import (
	"fmt"
	"reflect"
	"strconv"
)

// ResultKey is the fallback entry of a Record bundle.
// Nodes that return a keyed mapping keep their positional outputs under it.
const ResultKey = "result"

type bundleKind uint8

const (
	kindSeq bundleKind = iota
	kindRecord
)

// Bundle is the output of a node operation.
// It is either an ordered sequence of artifacts or a keyed record whose
// ResultKey entry holds the positional outputs.
type Bundle struct {
	kind   bundleKind
	items  []any
	fields map[string]any
}

// Seq builds a positional bundle.
func Seq(items ...any) Bundle {
	return Bundle{kind: kindSeq, items: items}
}

// Record builds a keyed bundle.
func Record(fields map[string]any) Bundle {
	if fields == nil {
		fields = map[string]any{}
	}
	return Bundle{kind: kindRecord, fields: fields}
}

// IsRecord reports whether the bundle is keyed.
func (b Bundle) IsRecord() bool {
	return b.kind == kindRecord
}

// Items returns the positional artifacts of a sequence bundle (nil for records).
func (b Bundle) Items() []any {
	return b.items
}

// Fields returns the entries of a record bundle (nil for sequences).
func (b Bundle) Fields() map[string]any {
	return b.fields
}

// Len is the number of positional entries for a sequence, or keys for a record.
func (b Bundle) Len() int {
	if b.kind == kindRecord {
		return len(b.fields)
	}
	return len(b.items)
}

// At returns the artifact at position index.
//
// Sequences are indexed directly. Records are first looked up by the decimal
// key of index; when that key is missing the lookup is retried positionally
// inside the ResultKey entry. A record without ResultKey yields ErrMissingKey.
// Out-of-range positions yield ErrIndexOutOfRange and are never retried.
func (b Bundle) At(index int) (any, error) {
	if b.kind == kindSeq {
		return indexSequence(b.items, index)
	}

	if v, ok := b.fields[strconv.Itoa(index)]; ok {
		return v, nil
	}

	fallback, ok := b.fields[ResultKey]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrMissingKey, index)
	}
	return indexAny(fallback, index)
}

// ValueAt resolves index against b. It is the addressing rule every
// wired input goes through.
func ValueAt(b Bundle, index int) (any, error) {
	return b.At(index)
}

func indexSequence(items []any, index int) (any, error) {
	if index < 0 || index >= len(items) {
		return nil, fmt.Errorf("%w: %d (len %d)", ErrIndexOutOfRange, index, len(items))
	}
	return items[index], nil
}

func indexAny(v any, index int) (any, error) {
	switch seq := v.(type) {
	case []any:
		return indexSequence(seq, index)
	case Bundle:
		if seq.IsRecord() {
			return nil, fmt.Errorf("%w: %q holds a record", ErrNotSequence, ResultKey)
		}
		return indexSequence(seq.items, index)
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("%w: %q holds %T", ErrNotSequence, ResultKey, v)
	}
	if index < 0 || index >= rv.Len() {
		return nil, fmt.Errorf("%w: %d (len %d)", ErrIndexOutOfRange, index, rv.Len())
	}
	return rv.Index(index).Interface(), nil
}
