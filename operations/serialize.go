package operations

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"reflect"
	"sync"

	"github.com/tokenstake/deployments/pkg/logger"
)

// IsSerializable returns true if v survives a JSON round trip without losing data. Values
// holding funcs, channels or unexported fields are not serializable.
func IsSerializable(lggr logger.Logger, v any) bool {
	if v == nil {
		return true
	}

	b, err := json.Marshal(v)
	if err != nil {
		lggr.Debugw("Value cannot be marshalled", "type", reflect.TypeOf(v).String(), "error", err)
		return false
	}

	ptr := reflect.New(reflect.TypeOf(v))
	if err = json.Unmarshal(b, ptr.Interface()); err != nil {
		lggr.Debugw("Value cannot be unmarshalled", "type", reflect.TypeOf(v).String(), "error", err)
		return false
	}

	// Unexported fields and lossy conversions show up as a difference after the round trip.
	return reflect.DeepEqual(v, ptr.Elem().Interface())
}

// constructUniqueHashFrom returns a sha256 over the definition ID, version and the canonical
// JSON of input. Struct inputs and their map[string]any form loaded back from disk produce the
// same hash. When cacheKey is not empty the result is memoized in cache.
func constructUniqueHashFrom(cache *sync.Map, cacheKey string, def Definition, input any) (string, error) {
	if cacheKey != "" && cache != nil {
		if h, ok := cache.Load(cacheKey); ok {
			return h.(string), nil
		}
	}

	canonicalInput, err := canonicalJSON(input)
	if err != nil {
		return "", err
	}

	version := ""
	if def.Version != nil {
		version = def.Version.String()
	}

	payload, err := json.Marshal(struct {
		ID      string          `json:"id"`
		Version string          `json:"version"`
		Input   json.RawMessage `json:"input"`
	}{def.ID, version, canonicalInput})
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(payload)
	h := hex.EncodeToString(sum[:])
	if cacheKey != "" && cache != nil {
		cache.Store(cacheKey, h)
	}

	return h, nil
}

// canonicalJSON marshals v through a generic representation so that map keys are sorted.
// Numbers are kept as json.Number, so large integers are not rounded through float64.
func canonicalJSON(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	var generic any
	if err = dec.Decode(&generic); err != nil {
		return nil, err
	}

	return json.Marshal(generic)
}
