package audit

import (
	"strings"

	"github.com/goccy/go-json"
)

const redacted = "[REDACTED]"

// maxBodyBytes bounds how much of a request body is kept in an entry.
const maxBodyBytes = 16 << 10

// credentialKeys are lowercased object keys whose values never reach storage.
var credentialKeys = map[string]struct{}{
	"password":        {},
	"confirmpassword": {},
	"currentpassword": {},
	"newpassword":     {},
	"token":           {},
	"resettoken":      {},
	"secret":          {},
}

// RedactBody returns raw with credential values replaced. Bodies that are not
// JSON are kept as a JSON string so the column stays valid JSON.
func RedactBody(raw []byte) []byte {
	if len(raw) == 0 {
		return nil
	}
	if len(raw) > maxBodyBytes {
		return mustMarshal(map[string]any{"truncated": true, "size": len(raw)})
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return mustMarshal(string(raw))
	}
	return mustMarshal(redactValue(doc))
}

func redactValue(v any) any {
	switch typed := v.(type) {
	case map[string]any:
		for k, inner := range typed {
			if _, ok := credentialKeys[strings.ToLower(k)]; ok {
				typed[k] = redacted
				continue
			}
			typed[k] = redactValue(inner)
		}
		return typed
	case []any:
		for i, inner := range typed {
			typed[i] = redactValue(inner)
		}
		return typed
	default:
		return v
	}
}

func mustMarshal(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}
