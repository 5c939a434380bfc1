package port

// Deserializer turns raw body bytes into printable text.
// The boolean result is false when the bytes cannot be rendered by this strategy.
type Deserializer interface {
	Deserialize(body []byte) (string, bool)
}

// DeserializerFunc adapts an ordinary function to the Deserializer interface.
type DeserializerFunc func(body []byte) (string, bool)

// Deserialize calls f(body).
func (f DeserializerFunc) Deserialize(body []byte) (string, bool) {
	return f(body)
}

// BinarySummarizer is implemented by deserializers that only summarise a binary
// payload (for example image dimensions) instead of printing its content.
type BinarySummarizer interface {
	SummarizesBinary() bool
}

// IsBinarySummary reports whether d only summarises binary payloads.
func IsBinarySummary(d Deserializer) bool {
	b, ok := d.(BinarySummarizer)
	return ok && b.SummarizesBinary()
}

// Resolver resolves a concrete content type to the deserializer registered for it.
type Resolver interface {
	Resolve(contentType string) (Deserializer, bool)
}
