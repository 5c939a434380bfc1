// Package record renders intercepted exchanges into human readable traces.
package record

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"http-sniffer/application/deserializer"
	"http-sniffer/domain/entity"
	domainerror "http-sniffer/domain/error"
	"http-sniffer/domain/port"
	"http-sniffer/domain/service"
)

const (
	Divider      = "==========================================================="
	ErrorDivider = "===========================ERROR==========================="
)

// Renderer turns exchanges into trace text. It holds no per-exchange state
// and may be shared by concurrent exchanges.
type Renderer struct {
	resolver port.Resolver
	fallback port.Deserializer
	logger   port.Logger
}

// RendererOption configures a Renderer.
type RendererOption func(*Renderer)

// WithLogger sets the logger used to report panicking deserializers.
func WithLogger(logger port.Logger) RendererOption {
	return func(r *Renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithFallback replaces the PlainText fallback used for response bodies.
func WithFallback(d port.Deserializer) RendererOption {
	return func(r *Renderer) {
		r.fallback = d
	}
}

// NewRenderer creates a renderer resolving body deserializers through resolver.
func NewRenderer(resolver port.Resolver, opts ...RendererOption) *Renderer {
	r := &Renderer{
		resolver: resolver,
		fallback: deserializer.PlainText{},
		logger:   &port.NopLogger{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RenderRequest renders the request block of ex.
func (r *Renderer) RenderRequest(ex *entity.Exchange) string {
	req := ex.Request
	lines := []string{
		Divider,
		fmt.Sprintf("Request [%s] : %s", req.Method, urlString(req)),
		headersSection(req.Header),
	}

	if req.HasBody {
		contentType := req.Header.Get("Content-Type")
		if contentType == "" {
			contentType = entity.DefaultContentType
		}
		// 请求体没有纯文本兜底
		if text, ok := r.deserialize(ex, contentType, req.Body, false); ok {
			lines = append(lines, bodySection(text, 0))
		}
	}

	lines = append(lines, Divider)
	return joinNonEmpty(lines)
}

// RenderCompletion renders the response or error block of a completed exchange.
func (r *Renderer) RenderCompletion(ex *entity.Exchange) string {
	divider := Divider
	if ex.Failed() {
		divider = ErrorDivider
	}

	duration := "Duration: " + strconv.FormatFloat(ex.Duration.Seconds(), 'f', -1, 64) + "s"
	lines := []string{divider, "Response : " + urlString(ex.Request)}
	if ex.Failed() {
		lines = append(lines, duration, errorSection(ex.Err))
	} else {
		lines = append(lines, statusSection(ex), duration, r.responseSection(ex))
	}
	lines = append(lines, Divider)

	return joinNonEmpty(lines)
}

// statusSection renders the status line and, for redirects, the target location.
func statusSection(ex *entity.Exchange) string {
	resp := ex.Response
	if resp == nil {
		return ""
	}

	lines := []string{fmt.Sprintf("Status: %d - %s", resp.StatusCode, StatusText(resp.StatusCode))}
	if ex.Redirect != nil {
		lines = append(lines, "Redirect : "+ex.Redirect.String())
	}
	return joinNonEmpty(lines)
}

func (r *Renderer) responseSection(ex *entity.Exchange) string {
	resp := ex.Response
	if resp == nil {
		return ""
	}

	lines := []string{headersSection(resp.Header)}

	if text, ok := r.deserialize(ex, resp.ContentType(), resp.Body, true); ok {
		lines = append(lines, bodySection(text, resp.Truncated))
	}
	return joinNonEmpty(lines)
}

// deserialize resolves contentType and renders body. With fallback set, bodies that
// have no deserializer, or whose deserializer fails, are tried as plain text.
func (r *Renderer) deserialize(ex *entity.Exchange, contentType string, body []byte, fallback bool) (string, bool) {
	var d port.Deserializer
	if r.resolver != nil {
		d, _ = r.resolver.Resolve(contentType)
	}

	text, ok := r.safeDeserialize(ex, contentType, d, body)
	if !ok && fallback {
		text, ok = r.safeDeserialize(ex, contentType, r.fallback, body)
	}
	if !ok || text == "" {
		return "", false
	}
	return text, true
}

func (r *Renderer) safeDeserialize(ex *entity.Exchange, contentType string, d port.Deserializer, body []byte) (string, bool) {
	text, ok, err := service.SafeDeserialize(d, body)
	if err != nil {
		r.logger.Error("反序列化响应体时发生 panic",
			port.ExchangeID(ex.ID),
			port.ContentType(contentType),
			port.Error(err),
		)
	}
	return text, ok
}

// StatusText returns the capitalised reason phrase of code.
func StatusText(code int) string {
	text := http.StatusText(code)
	if text == "" {
		return "Unknown"
	}
	return cases.Title(language.English, cases.NoLower).String(text)
}

func headersSection(h http.Header) string {
	if len(h) == 0 {
		return ""
	}

	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys)+2)
	lines = append(lines, "Headers: [")
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("  %s : %s", k, strings.Join(h[k], ", ")))
	}
	lines = append(lines, "]")
	return strings.Join(lines, "\n")
}

func bodySection(text string, truncated int64) string {
	lines := []string{"Body: [", text}
	if truncated > 0 {
		lines = append(lines, fmt.Sprintf("... (%d bytes truncated)", truncated))
	}
	lines = append(lines, "]")
	return strings.Join(lines, "\n")
}

func errorSection(err error) string {
	d := domainerror.Describe(err)
	lines := []string{
		fmt.Sprintf("Code : %d", d.Code),
		"Description : " + d.Description,
	}
	if d.Reason != "" {
		lines = append(lines, "Reason : "+d.Reason)
	}
	if d.Suggestion != "" {
		lines = append(lines, "Suggestion : "+d.Suggestion)
	}
	return strings.Join(lines, "\n")
}

func urlString(req entity.RequestSnapshot) string {
	if req.URL == nil {
		return ""
	}
	return req.URL.String()
}

func joinNonEmpty(lines []string) string {
	out := lines[:0]
	for _, l := range lines {
		if l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}
