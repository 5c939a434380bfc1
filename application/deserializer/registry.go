package deserializer

import "http-sniffer/domain/service"

// Built-in content type patterns, in resolution order.
const (
	PatternFormURLEncoded = "application/x-www-form-urlencoded"
	PatternJSON           = "*/json"
	PatternImage          = "image/*"
	PatternPlainText      = "text/plain"
	PatternHTML           = "*/html"
	PatternMultipart      = "multipart/form-data; boundary=*"
)

// NewDefaultRegistry returns a registry holding every built-in deserializer.
func NewDefaultRegistry(opts ...service.RegistryOption) *service.Registry {
	r := service.NewRegistry(opts...)
	r.Register(FormURLEncoded{}, PatternFormURLEncoded)
	r.Register(JSON{}, PatternJSON)
	r.Register(Image{}, PatternImage)
	r.Register(PlainText{}, PatternPlainText)
	r.Register(HTML{}, PatternHTML)
	r.Register(NewMultipartFormData(r), PatternMultipart)
	return r
}
