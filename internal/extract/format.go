package extract

import (
	"encoding/json"
	"fmt"

	"github.com/pelletier/go-toml/v2"
)

// EncodeValue serializes a Value in the given format with the mirrored
// shape: leaf → scalar, list → array, map → object with absent leaf fields
// omitted.
//
// TOML has no top-level scalar or array, so a non-map root is wrapped under
// the key "value"; an absent root leaf encodes as an empty document.
func EncodeValue(v Value, format Format) ([]byte, error) {
	switch format {
	case JSON:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode value json: %w", err)
		}
		return b, nil

	case TOML:
		plain := v.Interface()
		doc, ok := plain.(map[string]any)
		if !ok {
			doc = map[string]any{}
			if plain != nil {
				doc["value"] = plain
			}
		}
		b, err := toml.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("encode value toml: %w", err)
		}
		return b, nil

	default:
		return nil, fmt.Errorf("unknown value format %d", format)
	}
}
