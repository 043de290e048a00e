// pkg/security/redact.go
package security

import "strings"

// RedactedValue replaces every secret in data written to logs or audit rows.
const RedactedValue = "[REDACTED]"

var sensitiveKeys = map[string]struct{}{
	"password":       {},
	"adminpassword":  {},
	"admin_password": {},
}

// IsSensitiveKey reports whether a field with this name must never be stored.
func IsSensitiveKey(key string) bool {
	_, ok := sensitiveKeys[strings.ToLower(key)]
	return ok
}

// Redact returns a deep copy of payload with every sensitive key replaced by
// RedactedValue, at any depth. The input is not modified.
func Redact(payload map[string]interface{}) map[string]interface{} {
	if payload == nil {
		return nil
	}
	out := make(map[string]interface{}, len(payload))
	for k, v := range payload {
		if IsSensitiveKey(k) {
			out[k] = RedactedValue
			continue
		}
		out[k] = redactValue(v)
	}
	return out
}

func redactValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		return Redact(val)
	case []interface{}:
		items := make([]interface{}, len(val))
		for i, item := range val {
			items[i] = redactValue(item)
		}
		return items
	default:
		return v
	}
}
