package deserializer

import (
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
)

var prettyOptions = &pretty.Options{
	Width:    80,
	Prefix:   "",
	Indent:   "  ",
	SortKeys: false,
}

// JSON re-indents a JSON document. Key order is kept as received.
type JSON struct{}

// Deserialize fails when body is not a valid JSON value.
func (JSON) Deserialize(body []byte) (string, bool) {
	if len(body) == 0 || !gjson.ValidBytes(body) {
		return "", false
	}
	out := pretty.PrettyOptions(body, prettyOptions)
	return strings.TrimRight(string(out), "\n"), true
}
