package deserializer

import (
	"strings"

	"http-sniffer/domain/port"
	"http-sniffer/domain/service"
)

const (
	// RawDataMarker replaces part bodies that are not safe to print.
	RawDataMarker = "[ Raw Data ]"

	multipartLineBreak   = "\r\n"
	headerPrefix         = "content-"
	partDefaultMediaType = "text/plain"
)

// MultipartFormData renders each form part's headers followed by a body preview.
// Part bodies are rendered through resolver; bodies whose type only has a binary
// summary (or no deserializer at all) are replaced by RawDataMarker.
type MultipartFormData struct {
	resolver port.Resolver
}

// NewMultipartFormData creates the deserializer. A nil resolver renders every part body as raw data.
func NewMultipartFormData(resolver port.Resolver) *MultipartFormData {
	return &MultipartFormData{resolver: resolver}
}

type formPart struct {
	lines []string
}

// Deserialize fails when the first line is not a boundary marker.
func (m *MultipartFormData) Deserialize(body []byte) (string, bool) {
	text := strings.ToValidUTF8(string(body), "�")
	lines := strings.Split(text, multipartLineBreak)

	boundary := lines[0]
	if !strings.HasPrefix(boundary, "--") || len(boundary) <= 2 {
		return "", false
	}

	var parts []formPart
	for _, line := range lines {
		if strings.HasPrefix(line, boundary) {
			parts = append(parts, formPart{})
		}
		parts[len(parts)-1].lines = append(parts[len(parts)-1].lines, line)
	}

	rendered := make([]string, 0, len(parts))
	for _, part := range parts {
		if out := m.renderPart(boundary, part); out != "" {
			rendered = append(rendered, out)
		}
	}
	return strings.Join(rendered, "\n\n"), true
}

// renderPart keeps the boundary and the Content-* lines of the header block, which
// ends at the first empty line. Other headers are dropped.
func (m *MultipartFormData) renderPart(boundary string, part formPart) string {
	var (
		kept        []string
		bodyLines   []string
		contentType = partDefaultMediaType
		inBody      bool
	)

	for _, line := range part.lines {
		switch {
		case inBody:
			bodyLines = append(bodyLines, line)
		case strings.HasPrefix(line, boundary):
			kept = append(kept, line)
		case line == "":
			inBody = true
		case hasHeaderPrefix(line):
			kept = append(kept, line)
			name, value, _ := strings.Cut(line, ":")
			if strings.EqualFold(strings.TrimSpace(name), "Content-Type") {
				contentType = strings.TrimSpace(value)
			}
		}
	}

	if preview, ok := m.renderBody(contentType, bodyLines); ok {
		kept = append(kept, preview)
	}
	return strings.Join(kept, "\n")
}

// renderBody returns the body preview and whether there was any body to show.
func (m *MultipartFormData) renderBody(contentType string, lines []string) (string, bool) {
	raw := strings.TrimRight(strings.Join(lines, multipartLineBreak), multipartLineBreak)
	if strings.TrimSpace(raw) == "" {
		return "", false
	}

	d, ok := m.resolve(contentType)
	if !ok {
		return RawDataMarker, true
	}

	if text, ok, _ := service.SafeDeserialize(d, []byte(raw)); ok && text != "" {
		return text, true
	}

	nonEmpty := make([]string, 0, len(lines))
	for _, line := range lines {
		if line != "" {
			nonEmpty = append(nonEmpty, line)
		}
	}
	return strings.Join(nonEmpty, "\n"), true
}

func (m *MultipartFormData) resolve(contentType string) (port.Deserializer, bool) {
	if m.resolver == nil {
		return nil, false
	}
	d, ok := m.resolver.Resolve(contentType)
	if !ok || port.IsBinarySummary(d) {
		return nil, false
	}
	return d, true
}

func hasHeaderPrefix(line string) bool {
	return len(line) >= len(headerPrefix) && strings.EqualFold(line[:len(headerPrefix)], headerPrefix)
}
