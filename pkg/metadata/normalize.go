package metadata

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
)

var (
	annotationsNormalizedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "seal_annotations_normalized_total",
		Help: "Total number of annotations placed into a metadata index",
	})

	annotationsDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "seal_annotations_unanchored_total",
		Help: "Total number of metadata values dropped for lacking an offset",
	})

	annotationCollisionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "seal_annotation_collisions_total",
		Help: "Total number of annotations that derived an id already present in the index",
	})
)

// CollisionPolicy decides what happens when two values derive the same id.
type CollisionPolicy int

const (
	// CollisionOverwrite keeps the later annotation.
	CollisionOverwrite CollisionPolicy = iota
	// CollisionReject fails normalization with a *CollisionError.
	CollisionReject
)

// String returns the policy name.
func (p CollisionPolicy) String() string {
	switch p {
	case CollisionOverwrite:
		return "overwrite"
	case CollisionReject:
		return "reject"
	default:
		return "unknown"
	}
}

// ParseCollisionPolicy parses "overwrite" or "reject". Empty means overwrite.
func ParseCollisionPolicy(s string) (CollisionPolicy, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "overwrite":
		return CollisionOverwrite, true
	case "reject":
		return CollisionReject, true
	default:
		return CollisionOverwrite, false
	}
}

// Normalizer converts metadata groups into an Index.
type Normalizer struct {
	Policy CollisionPolicy
}

// Normalize converts groups into an Index using CollisionOverwrite.
func Normalize(groups []Group) (Index, error) {
	return Normalizer{}.Normalize(groups)
}

// Normalize converts groups into an Index. Values without an offset are
// dropped. It fails with a *StructuralError if a group has no values list or
// a value has no attributes list, and with a *CollisionError on duplicate
// ids under CollisionReject.
func (n Normalizer) Normalize(groups []Group) (Index, error) {
	idx := make(Index)
	dropped, collisions := 0, 0

	for _, g := range groups {
		if g.Values == nil {
			return nil, &StructuralError{Group: g.Name, Index: -1, Field: "values", Reason: "missing"}
		}

		category, inReview := splitCategory(g.Name)

		for i, v := range g.Values {
			if v.Attributes == nil {
				return nil, &StructuralError{Group: g.Name, Index: i, Field: "attributes", Reason: "missing"}
			}

			attrs := attributeMap(v.Attributes)
			offset, ok, err := offsetOf(attrs)
			if err != nil {
				return nil, &StructuralError{Group: g.Name, Index: i, Field: OffsetAttribute, Reason: err.Error()}
			}
			if !ok {
				dropped++
				continue
			}

			ann := Annotation{
				ID:         category + "_" + strconv.Itoa(offset),
				Value:      v.Value,
				Origin:     v.Origin,
				Category:   category,
				Attributes: attrs,
				Offset:     offset,
				InReview:   inReview,
			}

			if _, exists := idx[ann.ID]; exists {
				if n.Policy == CollisionReject {
					return nil, &CollisionError{ID: ann.ID}
				}
				collisions++
			}
			idx[ann.ID] = ann
		}
	}

	annotationsNormalizedTotal.Add(float64(len(idx)))
	annotationsDroppedTotal.Add(float64(dropped))
	annotationCollisionsTotal.Add(float64(collisions))

	if collisions > 0 {
		log.Debug().
			Int("collisions", collisions).
			Str("policy", n.Policy.String()).
			Msg("Annotation ids collided, later values kept")
	}

	return idx, nil
}

// splitCategory strips a trailing ReviewSuffix from a group name.
func splitCategory(name string) (string, bool) {
	if strings.HasSuffix(name, ReviewSuffix) {
		return strings.TrimSuffix(name, ReviewSuffix), true
	}
	return name, false
}

// attributeMap builds a name->value map; later duplicates win.
func attributeMap(kvs []KeyValuePair) map[string]any {
	m := make(map[string]any, len(kvs))
	for _, kv := range kvs {
		m[kv.Name] = kv.Value
	}
	return m
}

// offsetOf reads OffsetAttribute. A missing or null attribute reports ok=false.
func offsetOf(attrs map[string]any) (int, bool, error) {
	raw, present := attrs[OffsetAttribute]
	if !present || raw == nil {
		return 0, false, nil
	}

	switch v := raw.(type) {
	case int:
		return v, true, nil
	case int64:
		return int(v), true, nil
	case int32:
		return int(v), true, nil
	case float64:
		return floatOffset(v)
	case json.Number:
		if i, err := strconv.Atoi(v.String()); err == nil {
			return i, true, nil
		}
		// 42.0 and 4.2e1 are integral too
		f, err := v.Float64()
		if err != nil {
			return 0, false, errNotInteger
		}
		return floatOffset(f)
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, false, errNotInteger
		}
		return i, true, nil
	default:
		return 0, false, errNotInteger
	}
}

// floatOffset accepts integral values that fit in an int.
func floatOffset(f float64) (int, bool, error) {
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, false, errNotInteger
	}
	if f < float64(math.MinInt) || f >= -float64(math.MinInt) {
		return 0, false, errNotInteger
	}
	return int(f), true, nil
}
