package matches

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeShape(t *testing.T) {
	tests := []struct {
		name      string
		doc       string
		want      []string
		wantShape Shape
	}{
		{
			name:      "typeMatches envelope",
			doc:       `{"typeMatches":[{"seriesMatches":[{"seriesAdWrapper":{"matches":[{"id":5}]}}]}]}`,
			want:      []string{`{"id":5}`},
			wantShape: ShapeTypeMatches,
		},
		{
			name: "typeMatches skips ads and missing wrappers",
			doc: `{"typeMatches":[
				{"seriesMatches":[{"adDetail":{}},{"seriesAdWrapper":{"matches":[1,2]}},{"seriesAdWrapper":null}]},
				{"matchType":"Women"},
				{"seriesMatches":[{"seriesAdWrapper":{"matches":[3]}},{"seriesAdWrapper":{"matches":{"not":"an array"}}}]}
			]}`,
			want:      []string{"1", "2", "3"},
			wantShape: ShapeTypeMatches,
		},
		{
			name:      "empty typeMatches still wins over matches",
			doc:       `{"typeMatches":[],"matches":[1]}`,
			want:      []string{},
			wantShape: ShapeTypeMatches,
		},
		{
			name:      "typeMatches that is not an array falls through",
			doc:       `{"typeMatches":{"x":1},"matches":[1]}`,
			want:      []string{"1"},
			wantShape: ShapeMatches,
		},
		{
			name:      "matches envelope",
			doc:       `{"matches":[{"id":1},{"id":2}]}`,
			want:      []string{`{"id":1}`, `{"id":2}`},
			wantShape: ShapeMatches,
		},
		{
			name:      "empty matches envelope",
			doc:       `{"matches":[]}`,
			want:      []string{},
			wantShape: ShapeMatches,
		},
		{
			name:      "nested matches are not searched",
			doc:       `{"data":{"matches":[1]}}`,
			want:      []string{`{"data":{"matches":[1]}}`},
			wantShape: ShapeSingle,
		},
		{
			name:      "duplicate key keeps the last value",
			doc:       `{"matches":[1],"matches":[2,3]}`,
			want:      []string{"2", "3"},
			wantShape: ShapeMatches,
		},
		{
			name:      "bare array",
			doc:       `[{"id":1},{"id":2}]`,
			want:      []string{`{"id":1}`, `{"id":2}`},
			wantShape: ShapeArray,
		},
		{
			name:      "scalar is wrapped",
			doc:       `"x"`,
			want:      []string{`"x"`},
			wantShape: ShapeSingle,
		},
		{
			name:      "false is wrapped",
			doc:       `false`,
			want:      []string{`false`},
			wantShape: ShapeSingle,
		},
		{
			name:      "null",
			doc:       `null`,
			want:      []string{},
			wantShape: ShapeNone,
		},
		{
			name:      "empty body",
			doc:       "  ",
			want:      []string{},
			wantShape: ShapeNone,
		},
		{
			name:      "undecodable body",
			doc:       `{"matches":[1,`,
			want:      []string{},
			wantShape: ShapeNone,
		},
		{
			name:      "two concatenated scalars",
			doc:       `1 2`,
			want:      []string{},
			wantShape: ShapeNone,
		},
		{
			name:      "extra closing brace",
			doc:       `{"x":1}}`,
			want:      []string{},
			wantShape: ShapeNone,
		},
		{
			name:      "envelope followed by garbage",
			doc:       `{"matches":[1]} junk`,
			want:      []string{},
			wantShape: ShapeNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, shape := NormalizeShape([]byte(tt.doc))
			assert.NotNil(t, got)
			assert.Equal(t, tt.wantShape, shape)
			if diff := cmp.Diff(tt.want, raw(got)); diff != "" {
				t.Errorf("NormalizeShape() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestValid(t *testing.T) {
	tests := []struct {
		doc  string
		want bool
	}{
		{doc: `1`, want: true},
		{doc: ` {"a":[1,2]} `, want: true},
		{doc: "null\n", want: true},
		{doc: `"x"`, want: true},
		{doc: ``, want: false},
		{doc: `1 2`, want: false},
		{doc: `{"x":1}}`, want: false},
		{doc: `[1]]`, want: false},
		{doc: `{"matches":[1]} junk`, want: false},
		{doc: `{"a":`, want: false},
		{doc: `tru`, want: false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Valid([]byte(tt.doc)), "Valid(%q)", tt.doc)
	}
}

func TestNormalize_RoundTripsExtract(t *testing.T) {
	docs := []string{
		`{"a":{"matches":[1,2]},"b":{"matches":[3]}}`,
		`{"typeMatches":[{"seriesMatches":[{"seriesAdWrapper":{"matches":[{"id":5,"matches":[6]}]}}]}]}`,
		`[]`,
		`null`,
	}

	for _, doc := range docs {
		extracted := Extract([]byte(doc))
		envelope := []byte(`{"matches":[`)
		for i, rec := range extracted {
			if i > 0 {
				envelope = append(envelope, ',')
			}
			envelope = append(envelope, rec...)
		}
		envelope = append(envelope, "]}"...)

		if diff := cmp.Diff(raw(extracted), raw(Normalize(envelope))); diff != "" {
			t.Errorf("Normalize(Extract(%s)) mismatch (-want +got):\n%s", doc, diff)
		}
	}
}

func TestShapeString(t *testing.T) {
	assert.Equal(t, "typeMatches", ShapeTypeMatches.String())
	assert.Equal(t, "matches", ShapeMatches.String())
	assert.Equal(t, "array", ShapeArray.String())
	assert.Equal(t, "single", ShapeSingle.String())
	assert.Equal(t, "none", ShapeNone.String())
}
