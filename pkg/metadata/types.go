package metadata

import (
	"sort"

	"github.com/Sternrassler/seal-preview/pkg/pagination"
)

// OffsetAttribute is the attribute holding the document offset a value anchors to.
const OffsetAttribute = "scd_start_offset"

// ReviewSuffix marks a category whose values are pending review.
const ReviewSuffix = ".Review"

// KeyValuePair is a single named attribute of a metadata value.
type KeyValuePair struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// Value is one metadata fact as returned by the API.
type Value struct {
	Value      any            `json:"value"`
	Origin     string         `json:"origin"`
	Attributes []KeyValuePair `json:"attributes"`
}

// Group holds the values of one category. Name may carry ReviewSuffix.
type Group struct {
	Name   string  `json:"name"`
	Values []Value `json:"values"`
}

// PageEnvelope is one page of the metadata list endpoint.
type PageEnvelope = pagination.Envelope[Group]

// Annotation is a normalized metadata value anchored to a document offset.
type Annotation struct {
	ID         string         `json:"id"`
	Value      any            `json:"value"`
	Origin     string         `json:"origin"`
	Category   string         `json:"category"`
	Attributes map[string]any `json:"attributes"`
	Offset     int            `json:"offset"`
	InReview   bool           `json:"inReview"`
}

// Index maps Annotation.ID to its Annotation.
type Index map[string]Annotation

// Categories returns the distinct categories in the index, sorted.
func (idx Index) Categories() []string {
	seen := make(map[string]struct{})
	for _, a := range idx {
		seen[a.Category] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Sorted returns the annotations ordered by offset, then id.
func (idx Index) Sorted() []Annotation {
	out := make([]Annotation, 0, len(idx))
	for _, a := range idx {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Offset != out[j].Offset {
			return out[i].Offset < out[j].Offset
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// InReview returns the number of annotations pending review.
func (idx Index) InReview() int {
	n := 0
	for _, a := range idx {
		if a.InReview {
			n++
		}
	}
	return n
}
