package tap

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"

	"http-sniffer/application/record"
	"http-sniffer/domain/entity"
	domainerror "http-sniffer/domain/error"
	"http-sniffer/domain/port"
)

// eventBuffer bounds events queued between the caller and the record goroutine.
const eventBuffer = 64

// Interception is the per-request controller. Transport callbacks never touch
// the record directly: they post events to a channel drained by one goroutine.
type Interception struct {
	tap     *Tap
	req     *http.Request
	out     *http.Request
	record  *record.LogRecord
	events  chan entity.Event
	sinkCtx context.Context
	cancel  context.CancelFunc

	// readErr is the failure reading the request body; the exchange completes with it.
	readErr error

	startOnce sync.Once
	resp      *http.Response
	err       error

	// mu serializes stop against completion and guards the flags below.
	mu        sync.Mutex
	transport http.RoundTripper
	stopped   bool
	completed bool
}

func newInterception(t *Tap, req *http.Request) *Interception {
	snapshot, consumed, readErr := snapshotRequest(req)

	ctx, cancel := context.WithCancel(WithIntercepted(req.Context()))
	out := req.Clone(ctx)
	if consumed && readErr == nil {
		body := snapshot.Body
		out.Body = io.NopCloser(bytes.NewReader(body))
		out.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(body)), nil
		}
	}

	return &Interception{
		tap: t,
		req: req,
		out: out,
		record: t.renderer.NewRecord(snapshot,
			entity.WithClock(t.clock),
			entity.WithMaxBodyBytes(t.maxBodyBytes),
		),
		events:    make(chan entity.Event, eventBuffer),
		sinkCtx:   context.WithoutCancel(req.Context()),
		cancel:    cancel,
		transport: t.transport,
		readErr:   readErr,
	}
}

// snapshotRequest copies the request head and body. When the body can't be
// copied through GetBody it is consumed and closed, and consumed is true.
func snapshotRequest(req *http.Request) (snapshot entity.RequestSnapshot, consumed bool, err error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	snapshot = entity.RequestSnapshot{
		Method: method,
		URL:    req.URL,
		Header: req.Header.Clone(),
	}
	if req.Body == nil || req.Body == http.NoBody {
		return snapshot, false, nil
	}

	if req.GetBody != nil {
		if rc, err := req.GetBody(); err == nil {
			data, err := io.ReadAll(rc)
			rc.Close()
			if err == nil {
				snapshot.Body, snapshot.HasBody = data, true
				return snapshot, false, nil
			}
		}
	}

	data, err := io.ReadAll(req.Body)
	req.Body.Close()
	if err != nil {
		return snapshot, true, fmt.Errorf("read request body: %w", err)
	}
	snapshot.Body, snapshot.HasBody = data, true
	return snapshot, true, nil
}

// Exchange returns the recorded exchange. It is only safe to read after Tap.Wait.
func (ic *Interception) Exchange() *entity.Exchange {
	return ic.record.Exchange()
}

// Start forwards the request and returns the real response or error.
// Calling Start again returns the first result without a second request.
func (ic *Interception) Start() (*http.Response, error) {
	ic.startOnce.Do(func() {
		ic.resp, ic.err = ic.start()
	})
	return ic.resp, ic.err
}

func (ic *Interception) start() (*http.Response, error) {
	ic.mu.Lock()
	stopped := ic.stopped
	transport := ic.transport
	ic.mu.Unlock()

	if stopped || !ic.tap.track(ic) {
		ic.mu.Lock()
		ic.stopped, ic.transport = true, nil
		ic.mu.Unlock()
		ic.cancel()
		if ic.out.Body != nil {
			ic.out.Body.Close()
		}
		return nil, domainerror.NewStopped()
	}
	go ic.run()

	if ic.readErr != nil {
		ic.complete(ic.readErr)
		return nil, ic.readErr
	}

	resp, err := transport.RoundTrip(ic.out)
	if err != nil {
		ic.complete(err)
		return nil, err
	}

	ic.send(entity.ResponseEvent{StatusCode: resp.StatusCode, Header: resp.Header.Clone()})
	if resp.StatusCode >= 300 && resp.StatusCode < 400 {
		if loc, err := resp.Location(); err == nil {
			ic.send(entity.RedirectEvent{Location: loc})
		}
	}
	resp.Request = ic.req

	if resp.Body == nil || resp.Body == http.NoBody {
		ic.complete(nil)
		return resp, nil
	}
	resp.Body = &observedBody{ReadCloser: resp.Body, ic: ic}
	return resp, nil
}

// Stop cancels the in-flight call and detaches the transport. A started
// exchange that has not completed yet completes as cancelled. Stop is idempotent.
func (ic *Interception) Stop() {
	ic.mu.Lock()
	if ic.stopped {
		ic.mu.Unlock()
		return
	}
	ic.stopped = true
	ic.transport = nil
	ic.mu.Unlock()

	// 先完成再取消，保证记录的错误是 context.Canceled
	ic.complete(context.Canceled)
	ic.cancel()
}

func (ic *Interception) send(ev entity.Event) {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	if ic.completed {
		return
	}
	ic.events <- ev
}

// complete posts the terminal event once and closes the event stream.
func (ic *Interception) complete(err error) {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	if ic.completed {
		return
	}
	ic.completed = true
	ic.events <- entity.CompleteEvent{Err: err}
	close(ic.events)
	ic.cancel()
}

// run applies events to the record. Traces are emitted from a second goroutine
// so a slow sink never blocks the caller reading the response body.
func (ic *Interception) run() {
	defer ic.tap.wg.Done()

	completions := make(chan port.Trace, 1)
	emitted := make(chan struct{})
	go func() {
		defer close(emitted)
		ic.tap.emit(ic.sinkCtx, ic.record.RequestTrace())
		if trace, ok := <-completions; ok {
			ic.tap.emit(ic.sinkCtx, trace)
		}
	}()

	for ev := range ic.events {
		completed, err := ic.record.Apply(ev)
		if err != nil {
			ic.tap.logger.Debug("忽略无效事件", port.ExchangeID(ic.record.Exchange().ID), port.Error(err))
			continue
		}
		if completed {
			ic.tap.untrack(ic)
			ic.tap.finish(ic.record.Exchange())
			completions <- ic.record.CompletionTrace()
		}
	}
	close(completions)
	<-emitted
}

// observedBody reports each chunk the caller reads and completes the exchange
// at EOF, on a read error, or on Close.
type observedBody struct {
	io.ReadCloser
	ic *Interception
}

func (b *observedBody) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)
	if n > 0 {
		b.ic.send(entity.DataEvent{Chunk: bytes.Clone(p[:n])})
	}
	switch {
	case err == io.EOF:
		b.ic.complete(nil)
	case err != nil:
		b.ic.complete(err)
	}
	return n, err
}

func (b *observedBody) Close() error {
	err := b.ReadCloser.Close()
	b.ic.complete(nil)
	return err
}
