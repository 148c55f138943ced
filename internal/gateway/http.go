package gateway

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/julianstephens/dayring/internal/constants"
	"github.com/julianstephens/dayring/internal/logger"
)

type HTTPConfig struct {
	BaseURL            string
	Token              string
	Timeout            time.Duration
	InsecureSkipVerify bool
}

// HTTPGateway talks JSON over HTTP(S). Connect opens and handshakes one
// connection which the first request then takes over; later requests
// reuse it through keep-alive until Disconnect.
type HTTPGateway struct {
	cfg    HTTPConfig
	base   *url.URL
	dialer *net.Dialer

	mu        sync.Mutex
	transport *http.Transport
	client    *http.Client
	pending   net.Conn
}

func NewHTTP(cfg HTTPConfig) (*HTTPGateway, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid backend url %q: %w", cfg.BaseURL, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid backend url %q: scheme must be http or https", cfg.BaseURL)
	}
	if base.Host == "" {
		return nil, fmt.Errorf("invalid backend url %q: missing host", cfg.BaseURL)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = constants.DefaultRequestTimeout
	}
	return &HTTPGateway{
		cfg:    cfg,
		base:   base,
		dialer: &net.Dialer{Timeout: cfg.Timeout, KeepAlive: 30 * time.Second},
	}, nil
}

func (g *HTTPGateway) tlsConfig() *tls.Config {
	return &tls.Config{
		ServerName:         g.base.Hostname(),
		InsecureSkipVerify: g.cfg.InsecureSkipVerify, //nolint:gosec // opt-in for self-signed backends
		MinVersion:         tls.VersionTLS12,
	}
}

func (g *HTTPGateway) hostPort() string {
	if g.base.Port() != "" {
		return g.base.Host
	}
	if g.base.Scheme == "https" {
		return net.JoinHostPort(g.base.Hostname(), "443")
	}
	return net.JoinHostPort(g.base.Hostname(), "80")
}

func (g *HTTPGateway) dial(ctx context.Context) (net.Conn, error) {
	if g.base.Scheme == "https" {
		d := &tls.Dialer{NetDialer: g.dialer, Config: g.tlsConfig()}
		return d.DialContext(ctx, "tcp", g.hostPort())
	}
	return g.dialer.DialContext(ctx, "tcp", g.hostPort())
}

// takeConn hands out the connection opened by Connect once, then dials
// fresh connections should the transport need more.
func (g *HTTPGateway) takeConn(ctx context.Context, _, _ string) (net.Conn, error) {
	g.mu.Lock()
	c := g.pending
	g.pending = nil
	g.mu.Unlock()
	if c != nil {
		return c, nil
	}
	return g.dial(ctx)
}

func (g *HTTPGateway) Connect(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.client != nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	conn, err := g.dial(ctx)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrConnect, g.base.Host, err)
	}

	g.pending = conn
	g.transport = &http.Transport{
		DialContext:         g.takeConn,
		DialTLSContext:      g.takeConn,
		MaxIdleConnsPerHost: 1,
		IdleConnTimeout:     90 * time.Second,
	}
	g.client = &http.Client{Transport: g.transport}
	logger.Debug("backend connected", "host", g.base.Host)
	return nil
}

func (g *HTTPGateway) Disconnect() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	var err error
	if g.pending != nil {
		err = g.pending.Close()
		g.pending = nil
	}
	if g.transport != nil {
		g.transport.CloseIdleConnections()
		logger.Debug("backend disconnected", "host", g.base.Host)
	}
	g.transport = nil
	g.client = nil
	return err
}

func (g *HTTPGateway) Request(ctx context.Context, method, path string, body, out any) error {
	g.mu.Lock()
	client := g.client
	g.mu.Unlock()
	if client == nil {
		return fmt.Errorf("%w: not connected", ErrConnect)
	}

	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%w: encode body: %v", ErrRequest, err)
		}
		payload = bytes.NewReader(data)
	}

	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, g.base.String()+path, payload)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequest, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if g.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+g.cfg.Token)
	}

	start := time.Now()
	res, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrRequest, method, path, err)
	}
	defer res.Body.Close()

	logger.Debug("backend request", "method", method, "path", path, "status", res.StatusCode, "took", time.Since(start))

	if res.StatusCode != http.StatusOK && res.StatusCode != http.StatusCreated {
		snippet, _ := io.ReadAll(io.LimitReader(res.Body, 256))
		return fmt.Errorf("%w: %s %s: status %d: %s", ErrRequest, method, path, res.StatusCode, strings.TrimSpace(string(snippet)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %s %s: decode response: %v", ErrRequest, method, path, err)
	}
	return nil
}
