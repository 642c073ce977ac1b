// Package netcapture records the HTTP traffic a browser sends through a
// local forward proxy.
package netcapture

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/elazarl/goproxy"
	"go.uber.org/zap"

	"github.com/xkilldash9x/sitecheck/internal/harness"
)

// DefaultListenAddr binds an ephemeral loopback port.
const DefaultListenAddr = "127.0.0.1:0"

// ErrNotStarted is returned by Close when Start was never called.
var ErrNotStarted = errors.New("recorder not started")

// Recorder is a forward proxy that keeps one entry per proxied request.
// HTTPS traffic is tunnelled without interception and is not recorded.
type Recorder struct {
	proxy     *goproxy.ProxyHttpServer
	transport *http.Transport
	logger    *zap.Logger
	now       func() time.Time

	serverMu sync.Mutex
	server   *http.Server
	listener net.Listener
	done     chan struct{}

	mu      sync.Mutex
	entries []harness.NetworkEntry
}

// New creates a Recorder. It does not listen until Start.
func New(logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	log := logger.Named("netcapture")

	transport := &http.Transport{
		// Upstream requests go straight to the target, never to another proxy.
		Proxy:                 nil,
		MaxIdleConns:          10,
		IdleConnTimeout:       30 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: time.Second,
		DisableCompression:    true,
	}

	proxy := goproxy.NewProxyHttpServer()
	proxy.Tr = transport
	proxy.Verbose = false
	proxy.Logger = zap.NewStdLog(log)

	r := &Recorder{
		proxy:     proxy,
		transport: transport,
		logger:    log,
		now:       time.Now,
	}
	proxy.OnRequest().DoFunc(r.handleRequest)
	proxy.OnResponse().DoFunc(r.handleResponse)
	return r
}

func (r *Recorder) handleRequest(req *http.Request, ctx *goproxy.ProxyCtx) (*http.Request, *http.Response) {
	ctx.UserData = r.now()
	return req, nil
}

func (r *Recorder) handleResponse(resp *http.Response, ctx *goproxy.ProxyCtx) *http.Response {
	if ctx.Req == nil {
		return resp
	}

	if resp == nil {
		errorMsg := "unknown error"
		if ctx.Error != nil {
			errorMsg = ctx.Error.Error()
		}
		r.logger.Warn("Upstream request failed.", zap.String("url", ctx.Req.URL.String()), zap.String("error", errorMsg))

		statusCode := http.StatusBadGateway
		var netErr net.Error
		if errors.As(ctx.Error, &netErr) && netErr.Timeout() {
			statusCode = http.StatusGatewayTimeout
		}
		resp = goproxy.NewResponse(ctx.Req, goproxy.ContentTypeText, statusCode,
			fmt.Sprintf("Proxy error: upstream connection failed: %s", errorMsg))
	}

	var elapsed time.Duration
	if started, ok := ctx.UserData.(time.Time); ok {
		elapsed = r.now().Sub(started)
	}
	r.record(harness.NetworkEntry{
		Method:   ctx.Req.Method,
		URL:      ctx.Req.URL.String(),
		Status:   resp.StatusCode,
		Duration: elapsed,
	})
	return resp
}

func (r *Recorder) record(e harness.NetworkEntry) {
	r.mu.Lock()
	r.entries = append(r.entries, e)
	r.mu.Unlock()
}

// Start listens on addr and serves the proxy in the background.
func (r *Recorder) Start(ctx context.Context, addr string) error {
	r.serverMu.Lock()
	defer r.serverMu.Unlock()
	if r.server != nil {
		return errors.New("recorder already started")
	}
	if addr == "" {
		addr = DefaultListenAddr
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	r.listener = ln
	r.server = &http.Server{
		Handler:           r.proxy,
		ReadHeaderTimeout: 10 * time.Second,
	}
	r.done = make(chan struct{})

	go func() {
		defer close(r.done)
		if err := r.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.logger.Error("Proxy server stopped unexpectedly.", zap.Error(err))
		}
	}()

	r.logger.Info("Capture proxy listening.", zap.String("addr", ln.Addr().String()))
	return nil
}

// Addr returns the proxy URL to hand to the browser, or "" before Start.
func (r *Recorder) Addr() string {
	r.serverMu.Lock()
	defer r.serverMu.Unlock()
	if r.listener == nil {
		return ""
	}
	return "http://" + r.listener.Addr().String()
}

// Entries returns a copy of the recorded requests in arrival order.
func (r *Recorder) Entries() []harness.NetworkEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]harness.NetworkEntry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Summary counts the recorded requests and lists those that failed,
// meaning a status of 400 or above.
func (r *Recorder) Summary() *harness.NetworkSummary {
	entries := r.Entries()
	summary := &harness.NetworkSummary{Requests: len(entries)}
	for _, e := range entries {
		if e.Status >= http.StatusBadRequest {
			summary.Failed = append(summary.Failed, e)
		}
	}
	return summary
}

// Close stops accepting connections and waits for the server to exit.
func (r *Recorder) Close(ctx context.Context) error {
	r.serverMu.Lock()
	server, done := r.server, r.done
	r.serverMu.Unlock()
	if server == nil {
		return ErrNotStarted
	}

	err := server.Shutdown(ctx)
	r.transport.CloseIdleConnections()
	if err != nil {
		return fmt.Errorf("failed to shut down capture proxy: %w", err)
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("failed to shut down capture proxy: %w", ctx.Err())
	}
}
