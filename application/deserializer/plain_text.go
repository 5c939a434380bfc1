package deserializer

import "unicode/utf8"

// PlainText renders bodies that are valid UTF-8 as is.
type PlainText struct{}

// Deserialize fails on invalid UTF-8.
func (PlainText) Deserialize(body []byte) (string, bool) {
	if !utf8.Valid(body) {
		return "", false
	}
	return string(body), true
}
