// Package metadata models Seal contract metadata and reshapes it into an
// index for overlaying annotations onto rendered preview markup.
//
// The API returns metadata grouped by category. Each value carries a list of
// name/value attributes, one of which (scd_start_offset) anchors the value to
// a character offset in the preview. Normalize flattens the groups into an
// Index keyed by "<category>_<offset>":
//
//	groups := []metadata.Group{{
//		Name: "Party.Review",
//		Values: []metadata.Value{{
//			Value:      "ACME Corp",
//			Attributes: []metadata.KeyValuePair{{Name: "scd_start_offset", Value: 42}},
//		}},
//	}}
//	idx, _ := metadata.Normalize(groups)
//	// idx["Party_42"].Category == "Party", idx["Party_42"].InReview == true
//
// Values without an offset cannot be anchored and are dropped. When two
// values derive the same id the later one replaces the earlier one; use a
// Normalizer with CollisionReject to turn that into an error instead.
package metadata
