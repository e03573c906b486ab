// Package matches flattens upstream match documents into ordered record lists.
//
// The upstream API nests the terminal "matches" array at a different depth
// per endpoint and tournament grouping, so extraction scans by key name
// instead of decoding a fixed schema. Documents are walked as raw bytes so
// that object keys are visited in document order.
package matches

import (
	"bytes"

	"cricket-tracker/internal/domain"

	jsoniter "github.com/json-iterator/go"
)

const matchesKey = "matches"

// MaxDepth bounds the nesting Extract descends into. Deeper subtrees
// contribute nothing.
const MaxDepth = 512

// Extract returns every element of every "matches" array in doc, in
// pre-order document order. Elements of a collected array are not searched
// further. A key repeated within one object is visited once, at its first
// position, with its last value. Malformed or empty input yields an empty,
// non-nil slice.
func Extract(doc []byte) []domain.Record {
	return ExtractDepth(doc, MaxDepth)
}

func ExtractDepth(doc []byte, maxDepth int) []domain.Record {
	if !Valid(doc) {
		return []domain.Record{}
	}

	e := &extractor{maxDepth: maxDepth, out: []domain.Record{}}
	e.walk(doc, 0)
	return e.out
}

type extractor struct {
	maxDepth int
	out      []domain.Record
}

func (e *extractor) walk(doc []byte, depth int) {
	if depth > e.maxDepth {
		return
	}

	iter := jsoniter.ConfigDefault.BorrowIterator(doc)
	defer jsoniter.ConfigDefault.ReturnIterator(iter)

	switch iter.WhatIsNext() {
	case jsoniter.ArrayValue:
		iter.ReadArrayCB(func(it *jsoniter.Iterator) bool {
			e.walk(capture(it), depth+1)
			return it.Error == nil
		})
	case jsoniter.ObjectValue:
		for _, f := range readFields(iter) {
			if f.key == matchesKey {
				if list, ok := elements(f.value); ok {
					e.out = append(e.out, list...)
					continue
				}
			}
			e.walk(f.value, depth+1)
		}
	}
}

// capture returns a copy of the raw bytes of the next value.
func capture(iter *jsoniter.Iterator) domain.Record {
	return domain.Record(bytes.TrimSpace(iter.SkipAndReturnBytes()))
}
