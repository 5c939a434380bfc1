package tap

import (
	"net/http"
	"sync"
)

var (
	globalMu       sync.Mutex
	globalTap      *Tap
	globalPrevious http.RoundTripper
)

// Register installs a Tap as http.DefaultTransport, wrapping the transport
// that was there. Calling Register again returns the installed Tap.
func Register(opts ...Option) *Tap {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalTap != nil {
		return globalTap
	}
	globalPrevious = http.DefaultTransport
	globalTap = New(append([]Option{WithTransport(globalPrevious)}, opts...)...)
	http.DefaultTransport = globalTap
	return globalTap
}

// Unregister restores the transport replaced by Register and closes the Tap.
func Unregister() {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalTap == nil {
		return
	}
	http.DefaultTransport = globalPrevious
	_ = globalTap.Close()
	globalTap, globalPrevious = nil, nil
}

// Enable puts a Tap in front of client's transport. A client without a
// transport gets a Tap with its own.
func Enable(client *http.Client, opts ...Option) *Tap {
	if client.Transport != nil {
		opts = append([]Option{WithTransport(client.Transport)}, opts...)
	}
	t := New(opts...)
	client.Transport = t
	return t
}
