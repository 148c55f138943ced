package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestGateway(t *testing.T, srv *httptest.Server, token string) *HTTPGateway {
	t.Helper()
	g, err := NewHTTP(HTTPConfig{
		BaseURL:            srv.URL,
		Token:              token,
		Timeout:            2 * time.Second,
		InsecureSkipVerify: true,
	})
	if err != nil {
		t.Fatalf("NewHTTP() error: %v", err)
	}
	return g
}

func TestNewHTTPValidatesURL(t *testing.T) {
	tests := []struct {
		url     string
		wantErr bool
	}{
		{"https://habits.example.com", false},
		{"http://localhost:8080/", false},
		{"ftp://habits.example.com", true},
		{"https://", true},
		{"://bad", true},
	}

	for _, tt := range tests {
		_, err := NewHTTP(HTTPConfig{BaseURL: tt.url})
		if (err != nil) != tt.wantErr {
			t.Errorf("NewHTTP(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
		}
	}
}

func TestHabitPaths(t *testing.T) {
	if got := HabitPath("meditation"); got != "/habit/meditation" {
		t.Errorf("HabitPath() = %q", got)
	}
	if got := StreakPath("meditation"); got != "/habit/meditation/streak" {
		t.Errorf("StreakPath() = %q", got)
	}
	if got := HabitPath("cold shower"); got != "/habit/cold%20shower" {
		t.Errorf("HabitPath() = %q, want escaped", got)
	}
}

func TestRequestRoundTrip(t *testing.T) {
	var gotAuth, gotMethod, gotPath string
	var gotBody DatesRequest

	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotMethod = r.Method
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"added": 1}`))
	}))
	defer srv.Close()

	g := newTestGateway(t, srv, "s3cret")
	ctx := context.Background()
	if err := g.Connect(ctx); err != nil {
		t.Fatalf("Connect() error: %v", err)
	}
	defer g.Disconnect()

	var res AddedResponse
	if err := g.Request(ctx, http.MethodPost, HabitPath("meditation"), NewDatesRequest("2024-01-03"), &res); err != nil {
		t.Fatalf("Request() error: %v", err)
	}

	if gotAuth != "Bearer s3cret" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotMethod != http.MethodPost || gotPath != "/habit/meditation" {
		t.Errorf("got %s %s", gotMethod, gotPath)
	}
	if len(gotBody.Dates) != 1 || gotBody.Dates[0].Date != "2024-01-03" {
		t.Errorf("body = %+v", gotBody)
	}
	if err := res.Validate(); err != nil || *res.Added != 1 {
		t.Errorf("response = %+v, validate = %v", res, err)
	}
}

func TestGetCarriesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req HistoryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(HistoryResponse{History: []HistoryEntry{{Date: req.StartDate, Done: 1}}})
	}))
	defer srv.Close()

	g := newTestGateway(t, srv, "")
	ctx := context.Background()
	if err := g.Connect(ctx); err != nil {
		t.Fatal(err)
	}
	defer g.Disconnect()

	var res HistoryResponse
	if err := g.Request(ctx, http.MethodGet, HabitPath("meditation"), HistoryRequest{StartDate: "2024-01-03"}, &res); err != nil {
		t.Fatalf("Request() error: %v", err)
	}
	if res.History[0].Date != "2024-01-03" || res.History[0].Done != 1 {
		t.Errorf("history = %+v", res.History)
	}
}

func TestSessionReusesOneConnection(t *testing.T) {
	var conns atomic.Int32
	srv := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"streak": 3}`))
	}))
	srv.Config.ConnState = func(_ net.Conn, state http.ConnState) {
		if state == http.StateNew {
			conns.Add(1)
		}
	}
	srv.StartTLS()
	defer srv.Close()

	g := newTestGateway(t, srv, "")
	ctx := context.Background()
	if err := g.Connect(ctx); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		var res StreakResponse
		if err := g.Request(ctx, http.MethodGet, StreakPath("meditation"), StreakRequest{StartDate: "2024-01-03"}, &res); err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
	}
	if err := g.Disconnect(); err != nil {
		t.Errorf("Disconnect() error: %v", err)
	}

	if n := conns.Load(); n != 1 {
		t.Errorf("server saw %d connections, want 1", n)
	}
}

func TestRequestFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		out     any
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
		},
		{
			name: "not found",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.NotFound(w, r)
			},
		},
		{
			name: "malformed json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"added": `))
			},
			out: &AddedResponse{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			g := newTestGateway(t, srv, "")
			ctx := context.Background()
			if err := g.Connect(ctx); err != nil {
				t.Fatal(err)
			}
			defer g.Disconnect()

			err := g.Request(ctx, http.MethodPost, HabitPath("meditation"), NewDatesRequest("2024-01-03"), tt.out)
			if !errors.Is(err, ErrRequest) {
				t.Errorf("Request() error = %v, want ErrRequest", err)
			}
		})
	}
}

func TestConnectFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	g := newTestGateway(t, srv, "")
	srv.Close()

	if err := g.Connect(context.Background()); !errors.Is(err, ErrConnect) {
		t.Errorf("Connect() error = %v, want ErrConnect", err)
	}
	if err := g.Disconnect(); err != nil {
		t.Errorf("Disconnect() after failed connect: %v", err)
	}
}

func TestRequestWithoutConnect(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	g := newTestGateway(t, srv, "")
	err := g.Request(context.Background(), http.MethodGet, "/habit/x", nil, nil)
	if !errors.Is(err, ErrConnect) {
		t.Errorf("Request() without Connect error = %v, want ErrConnect", err)
	}
}

func TestDisconnectIsIdempotent(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	g := newTestGateway(t, srv, "")
	if err := g.Disconnect(); err != nil {
		t.Errorf("Disconnect() before Connect: %v", err)
	}
	if err := g.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := g.Disconnect(); err != nil {
		t.Errorf("first Disconnect(): %v", err)
	}
	if err := g.Disconnect(); err != nil {
		t.Errorf("second Disconnect(): %v", err)
	}
}
