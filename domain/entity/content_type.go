package entity

import (
	"regexp"
	"strings"

	domainerror "http-sniffer/domain/error"
)

const (
	// WildcardToken stands for any single segment in a ContentTypePattern.
	WildcardToken = "*"
	// DefaultContentType is assumed when a message carries no Content-Type header.
	DefaultContentType = "application/octet-stream"

	// wildcardSegment is what a wildcard type or subtype expands to.
	wildcardSegment = `[a-z]+`
	// wildcardParam is what a wildcard parameter value expands to.
	wildcardParam = `.+`
)

type paramPattern struct {
	key   string
	value *regexp.Regexp
}

// ContentTypePattern is a value object for a `type/subtype` pattern where either
// segment may be the wildcard token, optionally followed by `; key=value` parameter
// patterns whose value may also be the wildcard token.
type ContentTypePattern struct {
	raw    string
	media  *regexp.Regexp
	params []paramPattern
}

// ParseContentTypePattern validates raw and compiles it into a matcher.
// Patterns whose media part does not have exactly two non-empty segments are rejected.
func ParseContentTypePattern(raw string) (ContentTypePattern, error) {
	mediaPart, paramParts := splitContentType(raw)
	segments := strings.Split(mediaPart, "/")
	if len(segments) != 2 || segments[0] == "" || segments[1] == "" {
		return ContentTypePattern{}, domainerror.NewInvalidPattern(raw)
	}

	expr := "^" + segmentExpr(segments[0]) + "/" + segmentExpr(segments[1]) + "$"
	p := ContentTypePattern{
		raw:   raw,
		media: regexp.MustCompile(expr),
	}

	for _, part := range paramParts {
		key, value, ok := strings.Cut(part, "=")
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"`)
		if !ok || key == "" || value == "" {
			return ContentTypePattern{}, domainerror.NewInvalidPattern(raw)
		}

		valueExpr := wildcardParam
		if value != WildcardToken {
			valueExpr = regexp.QuoteMeta(value)
		}
		p.params = append(p.params, paramPattern{
			key:   key,
			value: regexp.MustCompile("^" + valueExpr + "$"),
		})
	}

	return p, nil
}

// String returns the pattern as it was registered.
func (p ContentTypePattern) String() string {
	return p.raw
}

// Match reports whether contentType is accepted by the pattern. Matching is
// case-insensitive. Parameters of contentType that the pattern does not name are ignored.
func (p ContentTypePattern) Match(contentType string) bool {
	if p.media == nil {
		return false
	}

	mediaPart, paramParts := splitContentType(contentType)
	if !p.media.MatchString(mediaPart) {
		return false
	}
	if len(p.params) == 0 {
		return true
	}

	params := make(map[string]string, len(paramParts))
	for _, part := range paramParts {
		key, value, _ := strings.Cut(part, "=")
		params[strings.TrimSpace(key)] = strings.Trim(strings.TrimSpace(value), `"`)
	}
	for _, pp := range p.params {
		value, ok := params[pp.key]
		if !ok || !pp.value.MatchString(value) {
			return false
		}
	}
	return true
}

// MediaType returns the lower-cased `type/subtype` part of a Content-Type value.
func MediaType(contentType string) string {
	mediaPart, _ := splitContentType(contentType)
	return mediaPart
}

func segmentExpr(segment string) string {
	if segment == WildcardToken {
		return wildcardSegment
	}
	return regexp.QuoteMeta(segment)
}

// splitContentType lower-cases a Content-Type value and splits off its parameters.
func splitContentType(contentType string) (string, []string) {
	parts := strings.Split(strings.ToLower(contentType), ";")
	media := strings.TrimSpace(parts[0])

	params := make([]string, 0, len(parts)-1)
	for _, part := range parts[1:] {
		if part = strings.TrimSpace(part); part != "" {
			params = append(params, part)
		}
	}
	return media, params
}
