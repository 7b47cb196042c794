package headers

import (
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/net/http/httpguts"
)

// ParseHeaders converts "Key: Value" strings into a map keyed by canonical
// header name. Entries without a colon or with an invalid name are rejected.
func ParseHeaders(h []string) (map[string]string, error) {
	m := make(map[string]string, len(h))
	for _, hdr := range h {
		name, value, ok := strings.Cut(hdr, ":")
		name = strings.TrimSpace(name)
		if !ok || !httpguts.ValidHeaderFieldName(name) {
			return nil, fmt.Errorf("invalid header %q: expected \"Name: value\"", hdr)
		}
		value = strings.TrimSpace(value)
		if !httpguts.ValidHeaderFieldValue(value) {
			return nil, fmt.Errorf("invalid value for header %q", name)
		}
		m[http.CanonicalHeaderKey(name)] = value
	}
	return m, nil
}
