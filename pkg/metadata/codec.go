package metadata

import (
	"encoding/json"
	"fmt"
	"io"
)

// DecodeEnvelope decodes one metadata page. Numbers are kept as json.Number
// so offsets and values survive without float rounding.
func DecodeEnvelope(r io.Reader) (*PageEnvelope, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var env PageEnvelope
	if err := dec.Decode(&env); err != nil {
		return nil, fmt.Errorf("decode metadata envelope: %w", err)
	}
	if env.Items == nil {
		return nil, &StructuralError{Index: -1, Field: "items", Reason: "missing"}
	}
	return &env, nil
}
