package pdbe

import (
	"bytes"
	"encoding/json"

	"github.com/tbourn/compound-data-tool/internal/domain"
)

// requiredText lists the detail keys copied verbatim into the summary.
var requiredText = []string{"name", "formula", "inchi", "inchi_key", "smiles"}

// Extract projects a compound summary payload onto the summary model.
//
// The payload is an object with exactly one key, the compound code echoed
// by the API, whose value is a non-empty array of detail objects. Only the
// first detail object is used. CrossLinksCount is the length of its
// cross_links array.
//
// Any deviation from that shape yields an error wrapping ErrMalformedResponse.
// Updated is left zero; the store assigns it.
func Extract(raw []byte) (*domain.CompoundSummary, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil, malformed("decode payload: %v", err)
	}
	if len(top) != 1 {
		return nil, malformed("expected exactly one top-level key, got %d", len(top))
	}

	var code string
	var body json.RawMessage
	for k, v := range top {
		code, body = k, v
	}

	var details []map[string]json.RawMessage
	if err := json.Unmarshal(body, &details); err != nil || details == nil {
		return nil, malformed("%s: details are not an array of objects", code)
	}
	if len(details) == 0 {
		return nil, malformed("%s: details array is empty", code)
	}
	first := details[0]
	if first == nil {
		return nil, malformed("%s: first detail is not an object", code)
	}

	text := make(map[string]string, len(requiredText))
	for _, key := range requiredText {
		v, ok := first[key]
		if !ok || isNull(v) {
			return nil, malformed("%s: missing %q", code, key)
		}
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return nil, malformed("%s: %q is not a string", code, key)
		}
		text[key] = s
	}

	links, ok := first["cross_links"]
	if !ok || isNull(links) {
		return nil, malformed("%s: missing %q", code, "cross_links")
	}
	var items []json.RawMessage
	if err := json.Unmarshal(links, &items); err != nil {
		return nil, malformed("%s: %q is not an array", code, "cross_links")
	}

	return &domain.CompoundSummary{
		Compound:        domain.NormalizeCode(code),
		Name:            text["name"],
		Formula:         text["formula"],
		InChI:           text["inchi"],
		InChIKey:        text["inchi_key"],
		SMILES:          text["smiles"],
		CrossLinksCount: len(items),
	}, nil
}

func isNull(v json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}
