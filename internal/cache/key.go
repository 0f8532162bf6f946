package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

type keyData struct {
	Method string      `json:"method"`
	URL    string      `json:"url"`
	Params interface{} `json:"params,omitempty"`
	Body   interface{} `json:"body,omitempty"`
}

// Key derives a cache key from everything that shapes an upstream request.
// encoding/json writes map keys in sorted order, so logically equal
// requests always hash to the same key.
func Key(method, url string, params, body interface{}) string {
	data, err := json.Marshal(keyData{Method: method, URL: url, Params: params, Body: body})
	if err != nil {
		return method + " " + url
	}
	hash := sha256.Sum256(data)
	return "resp:" + hex.EncodeToString(hash[:])
}
