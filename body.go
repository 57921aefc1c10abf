package inject

import (
	"encoding/json"
	"mime"
	"net/url"
	"strings"

	"github.com/slimloans/inject/errors"
)

// parseBody decodes a request body into a flat-to-nested map for body
// inference. JSON objects decode directly; form-encoded bodies expand
// dotted ("a.b.c") and bracket ("a[b][c]") keys into nested maps, with
// best-effort JSON detection inside individual form values.
func parseBody(contentType string, body []byte) (map[string]any, error) {
	mediaType := contentType
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		mediaType = mt
	}

	switch {
	case strings.Contains(mediaType, "json") || mediaType == "":
		return parseJSONBody(body)
	case mediaType == "application/x-www-form-urlencoded":
		return parseFormBody(body)
	default:
		// unknown body types are not inferred
		return map[string]any{}, nil
	}
}

func parseJSONBody(body []byte) (map[string]any, error) {
	out := map[string]any{}
	if len(body) == 0 {
		return out, nil
	}

	if err := json.Unmarshal(body, &out); err != nil {
		// non-object JSON payloads (arrays, scalars) carry no named keys
		// to infer from, so they are ignored rather than rejected
		var probe any
		if json.Unmarshal(body, &probe) == nil {
			return map[string]any{}, nil
		}
		return nil, errors.WrapGeneric(err)
	}

	return out, nil
}

func parseFormBody(body []byte) (map[string]any, error) {
	values, err := url.ParseQuery(string(body))
	if err != nil {
		return nil, errors.WrapGeneric(err)
	}

	out := map[string]any{}
	for key, vals := range values {
		var value any
		if len(vals) == 1 {
			value = coerceFormValue(vals[0])
		} else {
			coerced := make([]any, 0, len(vals))
			for _, v := range vals {
				coerced = append(coerced, coerceFormValue(v))
			}
			value = coerced
		}

		setNested(out, splitFormKey(key), value)
	}

	return out, nil
}

// coerceFormValue sniffs JSON documents hiding inside form values, a common
// trick for posting structured fields through form encodings.
func coerceFormValue(value string) any {
	trimmed := strings.TrimSpace(value)
	if len(trimmed) == 0 {
		return value
	}

	switch trimmed[0] {
	case '{', '[':
		var decoded any
		if err := json.Unmarshal([]byte(trimmed), &decoded); err == nil {
			return decoded
		}
	}

	return value
}

// splitFormKey breaks "a[b][c]" or "a.b.c" into path segments.
func splitFormKey(key string) []string {
	if !strings.ContainsAny(key, ".[") {
		return []string{key}
	}

	var parts []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			parts = append(parts, current.String())
			current.Reset()
		}
	}

	for _, r := range key {
		switch r {
		case '.', '[':
			flush()
		case ']':
			flush()
		default:
			current.WriteRune(r)
		}
	}
	flush()

	if len(parts) == 0 {
		return []string{key}
	}
	return parts
}

// setNested writes value into root at the given path, creating intermediate
// maps as needed. A scalar already sitting where a map is needed gets
// replaced; last write wins, matching form-decoding conventions.
func setNested(root map[string]any, path []string, value any) {
	node := root
	for i, part := range path {
		if i == len(path)-1 {
			node[part] = value
			return
		}

		next, ok := node[part].(map[string]any)
		if !ok {
			next = map[string]any{}
			node[part] = next
		}
		node = next
	}
}
