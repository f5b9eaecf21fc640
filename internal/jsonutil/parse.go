// Package jsonutil provides strict decoding of JSON documents handed across
// the host boundary, with error messages that carry a short preview of the
// offending text.
package jsonutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// maxPreview bounds how much of the raw text is echoed back in errors.
const maxPreview = 200

// Preview returns text truncated for inclusion in an error message. The cut
// never splits a UTF-8 sequence.
func Preview(text string) string {
	text = strings.TrimSpace(text)
	if len(text) <= maxPreview {
		return text
	}
	cut := maxPreview
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + "..."
}

// ParseJSON unmarshals exactly one JSON value from raw into T. Trailing
// content after the value is an error. Unknown object fields are ignored.
func ParseJSON[T any](raw string) (T, error) {
	var result T

	if strings.TrimSpace(raw) == "" {
		return result, errors.New("empty JSON document")
	}

	dec := json.NewDecoder(strings.NewReader(raw))
	if err := dec.Decode(&result); err != nil {
		var zero T
		return zero, fmt.Errorf("invalid JSON: %w (text: %s)", err, Preview(raw))
	}

	// A second Decode must hit EOF; anything else is trailing garbage.
	var extra json.RawMessage
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		var zero T
		return zero, fmt.Errorf("invalid JSON: unexpected content after document (text: %s)", Preview(raw))
	}

	return result, nil
}

// MustMarshal encodes v compactly. It is intended for values built in code
// whose encoding cannot fail.
func MustMarshal(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		panic(fmt.Sprintf("jsonutil: marshal %T: %v", v, err))
	}
	return strings.TrimSuffix(buf.String(), "\n")
}
