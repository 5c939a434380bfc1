package deserializer

import (
	"net/url"
	"sort"
	"strings"
)

// FormURLEncoded renders `a=1&b=2` bodies as sorted `key = value` lines.
type FormURLEncoded struct{}

// Deserialize fails on malformed escapes and on empty forms.
func (FormURLEncoded) Deserialize(body []byte) (string, bool) {
	values, err := url.ParseQuery(strings.TrimSpace(string(body)))
	if err != nil || len(values) == 0 {
		return "", false
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		for _, v := range values[k] {
			lines = append(lines, k+" = "+v)
		}
	}
	return strings.Join(lines, "\n"), true
}
