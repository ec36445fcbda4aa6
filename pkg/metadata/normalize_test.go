package metadata

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func offsetAttr(v any) KeyValuePair {
	return KeyValuePair{Name: OffsetAttribute, Value: v}
}

func TestNormalize_IDDerivation(t *testing.T) {
	groups := []Group{{
		Name: "Party.Review",
		Values: []Value{{
			Value:      "ACME Corp",
			Origin:     "extraction",
			Attributes: []KeyValuePair{offsetAttr(42)},
		}},
	}}

	idx, err := Normalize(groups)
	require.NoError(t, err)
	require.Len(t, idx, 1)

	ann, ok := idx["Party_42"]
	require.True(t, ok)
	assert.Equal(t, "Party_42", ann.ID)
	assert.Equal(t, "Party", ann.Category)
	assert.True(t, ann.InReview)
	assert.Equal(t, 42, ann.Offset)
	assert.Equal(t, "ACME Corp", ann.Value)
	assert.Equal(t, "extraction", ann.Origin)
	assert.Equal(t, map[string]any{OffsetAttribute: 42}, ann.Attributes)
}

func TestNormalize_Category(t *testing.T) {
	tests := []struct {
		name         string
		group        string
		wantCategory string
		wantReview   bool
	}{
		{name: "plain", group: "Party", wantCategory: "Party"},
		{name: "review suffix", group: "Party.Review", wantCategory: "Party", wantReview: true},
		{name: "suffix only stripped at end", group: "Party.Review.Date", wantCategory: "Party.Review.Date"},
		{name: "no dot", group: "PartyReview", wantCategory: "PartyReview"},
		{name: "case sensitive", group: "Party.review", wantCategory: "Party.review"},
		{name: "only suffix", group: ".Review", wantCategory: "", wantReview: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, err := Normalize([]Group{{
				Name:   tt.group,
				Values: []Value{{Attributes: []KeyValuePair{offsetAttr(7)}}},
			}})
			require.NoError(t, err)

			anns := idx.Sorted()
			require.Len(t, anns, 1)
			assert.Equal(t, tt.wantCategory, anns[0].Category)
			assert.Equal(t, tt.wantReview, anns[0].InReview)
			assert.Equal(t, tt.wantCategory+"_7", anns[0].ID)
		})
	}
}

func TestNormalize_FiltersUnanchoredValues(t *testing.T) {
	groups := []Group{{
		Name: "Date",
		Values: []Value{
			{Value: "no offset", Attributes: []KeyValuePair{{Name: "scd_end_offset", Value: 10}}},
			{Value: "null offset", Attributes: []KeyValuePair{offsetAttr(nil)}},
			{Value: "empty attributes", Attributes: []KeyValuePair{}},
			{Value: "anchored", Attributes: []KeyValuePair{offsetAttr(3)}},
		},
	}}

	idx, err := Normalize(groups)
	require.NoError(t, err)
	assert.Len(t, idx, 1)
	assert.Contains(t, idx, "Date_3")
}

func TestNormalize_OffsetTypes(t *testing.T) {
	tests := []struct {
		name    string
		raw     any
		want    int
		wantErr bool
	}{
		{name: "int", raw: 5, want: 5},
		{name: "int64", raw: int64(6), want: 6},
		{name: "float64 integral", raw: float64(7), want: 7},
		{name: "json number", raw: json.Number("8"), want: 8},
		{name: "json number integral decimal", raw: json.Number("42.0"), want: 42},
		{name: "json number exponent", raw: json.Number("4.2e1"), want: 42},
		{name: "json number too large", raw: json.Number("1e300"), wantErr: true},
		{name: "float64 too large", raw: 1e19, wantErr: true},
		{name: "numeric string leading zero", raw: "042", want: 42},
		{name: "numeric string", raw: "9", want: 9},
		{name: "zero", raw: 0, want: 0},
		{name: "fractional", raw: 1.5, wantErr: true},
		{name: "json number fractional", raw: json.Number("1.5"), wantErr: true},
		{name: "text", raw: "abc", wantErr: true},
		{name: "bool", raw: true, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, err := Normalize([]Group{{
				Name:   "C",
				Values: []Value{{Attributes: []KeyValuePair{offsetAttr(tt.raw)}}},
			}})

			if tt.wantErr {
				var serr *StructuralError
				require.ErrorAs(t, err, &serr)
				assert.Equal(t, OffsetAttribute, serr.Field)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, idx.Sorted()[0].Offset)
		})
	}
}

func TestNormalize_WireIntegralDecimalOffset(t *testing.T) {
	env, err := DecodeEnvelope(strings.NewReader(`{"items":[{"name":"Party.Review","values":[
		{"value":"ACME","origin":"ocr","attributes":[{"name":"scd_start_offset","value":42.0}]},
		{"value":"Globex","origin":"ocr","attributes":[{"name":"scd_start_offset","value":4.3e1}]}
	]}],"meta":{"totalCount":1}}`))
	require.NoError(t, err)

	idx, err := Normalize(env.Items)
	require.NoError(t, err)

	assert.Len(t, idx, 2)
	assert.Equal(t, 42, idx["Party_42"].Offset)
	assert.True(t, idx["Party_42"].InReview)
	assert.Equal(t, "Globex", idx["Party_43"].Value)
}

func TestNormalize_StringOffsetCanonicalized(t *testing.T) {
	idx, err := Normalize([]Group{{
		Name:   "C",
		Values: []Value{{Attributes: []KeyValuePair{offsetAttr("042")}}},
	}})
	require.NoError(t, err)

	assert.Contains(t, idx, "C_42")
	assert.NotContains(t, idx, "C_042")
}

func TestNormalize_AttributesLastWriteWins(t *testing.T) {
	idx, err := Normalize([]Group{{
		Name: "C",
		Values: []Value{{Attributes: []KeyValuePair{
			{Name: "color", Value: "red"},
			offsetAttr(1),
			{Name: "color", Value: "blue"},
			offsetAttr(2),
		}}},
	}})
	require.NoError(t, err)

	ann, ok := idx["C_2"]
	require.True(t, ok)
	assert.Equal(t, "blue", ann.Attributes["color"])
	assert.NotContains(t, idx, "C_1")
}

func TestNormalize_CollisionOverwrite(t *testing.T) {
	groups := []Group{
		{Name: "Party", Values: []Value{{Value: "first", Attributes: []KeyValuePair{offsetAttr(10)}}}},
		{Name: "Party.Review", Values: []Value{{Value: "second", Attributes: []KeyValuePair{offsetAttr(10)}}}},
	}

	idx, err := Normalize(groups)
	require.NoError(t, err)
	require.Len(t, idx, 1)
	assert.Equal(t, "second", idx["Party_10"].Value)
	assert.True(t, idx["Party_10"].InReview)
}

func TestNormalize_CollisionReject(t *testing.T) {
	groups := []Group{{
		Name: "Party",
		Values: []Value{
			{Value: "a", Attributes: []KeyValuePair{offsetAttr(1)}},
			{Value: "b", Attributes: []KeyValuePair{offsetAttr(1)}},
		},
	}}

	_, err := Normalizer{Policy: CollisionReject}.Normalize(groups)

	var cerr *CollisionError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "Party_1", cerr.ID)
}

func TestNormalize_StructuralErrors(t *testing.T) {
	tests := []struct {
		name      string
		groups    []Group
		wantField string
		wantIndex int
	}{
		{
			name:      "missing values",
			groups:    []Group{{Name: "Party"}},
			wantField: "values",
			wantIndex: -1,
		},
		{
			name: "missing attributes",
			groups: []Group{{Name: "Party", Values: []Value{
				{Attributes: []KeyValuePair{offsetAttr(1)}},
				{Value: "x"},
			}}},
			wantField: "attributes",
			wantIndex: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, err := Normalize(tt.groups)
			assert.Nil(t, idx, "no partial output")

			var serr *StructuralError
			require.ErrorAs(t, err, &serr)
			assert.Equal(t, "Party", serr.Group)
			assert.Equal(t, tt.wantField, serr.Field)
			assert.Equal(t, tt.wantIndex, serr.Index)
		})
	}
}

func TestNormalize_EmptyInput(t *testing.T) {
	idx, err := Normalize(nil)
	require.NoError(t, err)
	assert.Empty(t, idx)

	idx, err = Normalize([]Group{{Name: "Empty", Values: []Value{}}})
	require.NoError(t, err)
	assert.Empty(t, idx)
}

func TestNormalize_Idempotent(t *testing.T) {
	groups := []Group{
		{Name: "Party.Review", Values: []Value{
			{Value: "ACME", Attributes: []KeyValuePair{offsetAttr(42), {Name: "role", Value: "buyer"}}},
			{Value: "Globex", Attributes: []KeyValuePair{offsetAttr(99)}},
		}},
		{Name: "Date", Values: []Value{
			{Value: "2024-01-01", Attributes: []KeyValuePair{offsetAttr(3)}},
			{Value: "floating", Attributes: []KeyValuePair{}},
		}},
	}

	first, err := Normalize(groups)
	require.NoError(t, err)
	second, err := Normalize(groups)
	require.NoError(t, err)

	assert.Equal(t, first, second)

	// Results do not share attribute maps.
	first["Date_3"].Attributes["role"] = "mutated"
	assert.NotContains(t, second["Date_3"].Attributes, "role")
}

func TestIndexHelpers(t *testing.T) {
	idx := Index{
		"Party_42": {ID: "Party_42", Category: "Party", Offset: 42, InReview: true},
		"Date_3":   {ID: "Date_3", Category: "Date", Offset: 3},
		"Party_3":  {ID: "Party_3", Category: "Party", Offset: 3},
	}

	assert.Equal(t, []string{"Date", "Party"}, idx.Categories())
	assert.Equal(t, 1, idx.InReview())

	sorted := idx.Sorted()
	ids := make([]string, len(sorted))
	for i, a := range sorted {
		ids[i] = a.ID
	}
	assert.Equal(t, []string{"Date_3", "Party_3", "Party_42"}, ids)
}

func TestParseCollisionPolicy(t *testing.T) {
	p, ok := ParseCollisionPolicy("")
	assert.True(t, ok)
	assert.Equal(t, CollisionOverwrite, p)

	p, ok = ParseCollisionPolicy("Reject")
	assert.True(t, ok)
	assert.Equal(t, CollisionReject, p)

	_, ok = ParseCollisionPolicy("list")
	assert.False(t, ok)
}
