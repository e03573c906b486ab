package matches

import (
	"bytes"
	"io"

	"cricket-tracker/internal/domain"

	jsoniter "github.com/json-iterator/go"
)

// Shape identifies which envelope Normalize recognised.
type Shape int

const (
	ShapeNone Shape = iota
	ShapeTypeMatches
	ShapeMatches
	ShapeArray
	ShapeSingle
)

func (s Shape) String() string {
	switch s {
	case ShapeTypeMatches:
		return "typeMatches"
	case ShapeMatches:
		return "matches"
	case ShapeArray:
		return "array"
	case ShapeSingle:
		return "single"
	}
	return "none"
}

// envelope pairs a structural precondition with the flattening applied
// when it holds. Envelopes are tried in slice order.
type envelope struct {
	shape   Shape
	match   func(doc []byte) ([]byte, bool)
	flatten func(container []byte) []domain.Record
}

var envelopes = []envelope{
	{
		shape:   ShapeTypeMatches,
		match:   arrayMember("typeMatches"),
		flatten: flattenTypeMatches,
	},
	{
		shape:   ShapeMatches,
		match:   arrayMember(matchesKey),
		flatten: mustElements,
	},
	{
		shape:   ShapeArray,
		match:   isArray,
		flatten: mustElements,
	},
}

// Normalize flattens a document expected to be an upstream envelope or a
// pre-flattened list. The first envelope whose structure matches wins even
// when it yields nothing.
func Normalize(doc []byte) []domain.Record {
	records, _ := NormalizeShape(doc)
	return records
}

func NormalizeShape(doc []byte) ([]domain.Record, Shape) {
	doc = bytes.TrimSpace(doc)
	if !Valid(doc) {
		return []domain.Record{}, ShapeNone
	}

	for _, env := range envelopes {
		if container, ok := env.match(doc); ok {
			return env.flatten(container), env.shape
		}
	}

	if bytes.Equal(doc, []byte("null")) {
		return []domain.Record{}, ShapeNone
	}
	return []domain.Record{domain.Record(doc)}, ShapeSingle
}

// typeMatches[].seriesMatches[].seriesAdWrapper.matches[]
func flattenTypeMatches(typeMatches []byte) []domain.Record {
	out := []domain.Record{}
	for _, typeMatch := range mustElements(typeMatches) {
		seriesMatches, ok := arrayMember("seriesMatches")(typeMatch)
		if !ok {
			continue
		}
		for _, seriesMatch := range mustElements(seriesMatches) {
			wrapper, ok := member(seriesMatch, "seriesAdWrapper")
			if !ok {
				continue
			}
			if list, ok := arrayMember(matchesKey)(wrapper); ok {
				out = append(out, mustElements(list)...)
			}
		}
	}
	return out
}

func arrayMember(key string) func([]byte) ([]byte, bool) {
	return func(doc []byte) ([]byte, bool) {
		val, ok := member(doc, key)
		if !ok {
			return nil, false
		}
		return isArray(val)
	}
}

func isArray(doc []byte) ([]byte, bool) {
	if _, ok := elements(doc); !ok {
		return nil, false
	}
	return doc, true
}

// member returns the raw value stored under key in an object document.
// When the key repeats the last occurrence wins.
func member(doc []byte, key string) ([]byte, bool) {
	iter := jsoniter.ConfigDefault.BorrowIterator(doc)
	defer jsoniter.ConfigDefault.ReturnIterator(iter)

	if iter.WhatIsNext() != jsoniter.ObjectValue {
		return nil, false
	}

	fields := readFields(iter)
	if iter.Error != nil && iter.Error != io.EOF {
		return nil, false
	}
	for _, f := range fields {
		if f.key == key {
			return f.value, true
		}
	}
	return nil, false
}

func elements(doc []byte) ([]domain.Record, bool) {
	iter := jsoniter.ConfigDefault.BorrowIterator(doc)
	defer jsoniter.ConfigDefault.ReturnIterator(iter)

	if iter.WhatIsNext() != jsoniter.ArrayValue {
		return nil, false
	}

	out := []domain.Record{}
	iter.ReadArrayCB(func(it *jsoniter.Iterator) bool {
		out = append(out, capture(it))
		return it.Error == nil
	})
	if iter.Error != nil && iter.Error != io.EOF {
		return nil, false
	}
	return out, true
}

func mustElements(doc []byte) []domain.Record {
	out, ok := elements(doc)
	if !ok {
		return []domain.Record{}
	}
	return out
}
