package codec

import (
	"encoding/json"
)

// JSON is the standard-library JSON codec.
//
// It is the most portable option: row payloads, manifest rows and the cache
// index are all plain structs/maps that encoding/json handles without
// surprises. Prefer it when debugging persisted artifacts by hand.
type JSON struct{}

// Marshal encodes the value to JSON.
func (JSON) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

// Unmarshal decodes the JSON data into v.
func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// Name returns the unique name of the codec ("json").
func (JSON) Name() string { return "json" }

// Default is the codec used for artifacts and the cache index unless a client
// option overrides it. JSON and GoJSON are wire compatible, so existing cache
// dirs stay readable when Default changes between them.
var Default Codec = GoJSON{}
