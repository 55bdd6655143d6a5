// Package statusview renders the service health block the way the
// dashboard's status panel does: one fetch of the health endpoint per mount,
// the pretty-printed payload on success, and nothing at all on failure.
package statusview

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

const defaultTimeout = 15 * time.Second

// View owns a single state slot: the health payload, an untyped JSON value
// of unknown shape. It is absent until a fetch succeeds and is then replaced
// wholesale.
type View struct {
	endpoint string
	client   *http.Client
	logger   *zap.Logger
	timeout  time.Duration

	mu      sync.Mutex
	mounted bool
	gen     int
	cancel  context.CancelFunc
	done    chan struct{}
	payload json.RawMessage
}

// Option configures a View.
type Option func(*View)

// WithHTTPClient sets the HTTP client used for the fetch.
func WithHTTPClient(client *http.Client) Option {
	return func(v *View) { v.client = client }
}

// WithLogger sets the diagnostic logger. Failures go here and nowhere else.
func WithLogger(logger *zap.Logger) Option {
	return func(v *View) { v.logger = logger }
}

// WithTimeout bounds the fetch.
func WithTimeout(d time.Duration) Option {
	return func(v *View) { v.timeout = d }
}

// New creates an unmounted view for the given health endpoint.
func New(endpoint string, opts ...Option) *View {
	v := &View{
		endpoint: endpoint,
		client:   http.DefaultClient,
		logger:   zap.NewNop(),
		timeout:  defaultTimeout,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Mount issues the health fetch, exactly once per mount. Calling Mount on an
// already-mounted view does nothing; only Unmount followed by Mount fetches
// again. The fetch runs in the background; Done signals settlement.
func (v *View) Mount(ctx context.Context) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.mounted {
		return
	}
	v.mounted = true
	v.gen++

	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	v.cancel = cancel
	done := make(chan struct{})
	v.done = done

	go v.fetch(ctx, cancel, v.gen, done)
}

// Unmount cancels any in-flight fetch and detaches the view. A fetch that
// settles after Unmount is dropped rather than written into the state slot.
func (v *View) Unmount() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.mounted {
		return
	}
	v.mounted = false
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
}

// Done returns a channel closed when the current mount's fetch has settled,
// successfully or not. Returns a closed channel when the view was never
// mounted.
func (v *View) Done() <-chan struct{} {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.done == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return v.done
}

// Render returns the payload pretty-printed with two-space indent,
// preserving the upstream field order, or the empty string while the payload
// is absent.
func (v *View) Render() string {
	v.mu.Lock()
	payload := v.payload
	v.mu.Unlock()

	if payload == nil {
		return ""
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, payload, "", "  "); err != nil {
		return ""
	}
	return buf.String()
}

// Health returns a decoded copy of the payload, nil when absent.
func (v *View) Health() any {
	v.mu.Lock()
	payload := v.payload
	v.mu.Unlock()

	if payload == nil {
		return nil
	}

	var decoded any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil
	}
	return decoded
}

// fetch performs the one-shot GET. Any failure is logged and the prior
// payload left untouched; nothing is surfaced to the render. A non-2xx
// status is not a failure: the body is parsed like any other payload.
func (v *View) fetch(ctx context.Context, cancel context.CancelFunc, gen int, done chan struct{}) {
	defer close(done)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.endpoint, nil)
	if err != nil {
		v.logger.Error("health fetch failed", zap.String("endpoint", v.endpoint), zap.Error(err))
		return
	}

	resp, err := v.client.Do(req)
	if err != nil {
		v.logger.Error("health fetch failed", zap.String("endpoint", v.endpoint), zap.Error(err))
		return
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		v.logger.Error("health fetch failed", zap.String("endpoint", v.endpoint), zap.Error(err))
		return
	}

	var decoded any
	if err := json.Unmarshal(body, &decoded); err != nil {
		v.logger.Error("health payload is not valid JSON",
			zap.String("endpoint", v.endpoint),
			zap.Int("status_code", resp.StatusCode),
			zap.Error(err))
		return
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	// A settle after Unmount, or from a previous mount, must not write
	if !v.mounted || gen != v.gen {
		return
	}
	v.payload = json.RawMessage(body)
}
