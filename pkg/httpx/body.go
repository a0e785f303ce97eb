package httpx

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
)

// maxPeekBytes bounds how much of a body the rate limiter will buffer.
const maxPeekBytes = 1 << 16

// JSONBodyFieldKeyExtractor peeks a string field out of a JSON request body
// without consuming it: the body is buffered and restored so downstream
// handlers can decode it normally. Returns "" when the body is absent,
// malformed, or the field is not a string.
func JSONBodyFieldKeyExtractor(fieldName string) KeyExtractor {
	return func(r *http.Request) string {
		if r.Body == nil {
			return ""
		}

		buf, err := io.ReadAll(io.LimitReader(r.Body, maxPeekBytes))
		_ = r.Body.Close()
		r.Body = io.NopCloser(bytes.NewReader(buf))
		if err != nil {
			return ""
		}

		var fields map[string]json.RawMessage
		if err := json.Unmarshal(buf, &fields); err != nil {
			return ""
		}

		var value string
		if err := json.Unmarshal(fields[fieldName], &value); err != nil {
			return ""
		}
		return value
	}
}
