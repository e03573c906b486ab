package matches

import (
	"io"

	jsoniter "github.com/json-iterator/go"
)

// Valid reports whether doc holds exactly one JSON value, optionally
// surrounded by whitespace.
func Valid(doc []byte) bool {
	iter := jsoniter.ConfigDefault.BorrowIterator(doc)
	defer jsoniter.ConfigDefault.ReturnIterator(iter)

	iter.Skip()
	if iter.Error != nil && iter.Error != io.EOF {
		return false
	}
	// only io.EOF may follow the value
	iter.WhatIsNext()
	return iter.Error == io.EOF
}

type field struct {
	key   string
	value []byte
}

// readFields reads the object at iter. Each key keeps the position of its
// first occurrence and the value of its last one.
func readFields(iter *jsoniter.Iterator) []field {
	var (
		fields []field
		index  = map[string]int{}
	)
	iter.ReadObjectCB(func(it *jsoniter.Iterator, key string) bool {
		val := capture(it)
		if i, ok := index[key]; ok {
			fields[i].value = val
		} else {
			index[key] = len(fields)
			fields = append(fields, field{key: key, value: val})
		}
		return it.Error == nil
	})
	return fields
}
