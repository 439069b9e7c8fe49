package httpapi

import (
	"context"
	"encoding/json"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/1broseidon/duoview/internal/capture"
	"github.com/1broseidon/duoview/internal/config"
	"github.com/1broseidon/duoview/internal/layout"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	s := New(config.DefaultConfig(), capture.DefaultRegistry(nil), nil)
	ts := httptest.NewServer(s)
	t.Cleanup(ts.Close)
	return ts
}

func get(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)
	resp := get(t, ts.URL+"/healthz")
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || string(body) != "ok" {
		t.Fatalf("healthz = %d %q", resp.StatusCode, body)
	}
}

func TestModes(t *testing.T) {
	ts := newTestServer(t)
	resp := get(t, ts.URL+"/v1/modes")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var got modesResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.Modes) != 5 || got.Modes[0] != layout.KindDefault {
		t.Fatalf("modes = %v", got.Modes)
	}
	if got.Default != layout.KindDefault {
		t.Fatalf("default = %s", got.Default)
	}
	if len(got.Presets) == 0 {
		t.Fatalf("expected builtin presets")
	}
}

func TestLayout(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name    string
		query   string
		wantTop layout.Rect
		wantBot layout.Rect
	}{
		{
			name:    "default",
			query:   "width=400&height=480",
			wantTop: layout.Rect{Left: 0, Top: 0, Right: 400, Bottom: 240},
			wantBot: layout.Rect{Left: 40, Top: 240, Right: 360, Bottom: 480},
		},
		{
			name:    "swapped",
			query:   "width=400&height=480&swapped=true",
			wantTop: layout.Rect{Left: 0, Top: 240, Right: 400, Bottom: 480},
			wantBot: layout.Rect{Left: 40, Top: 0, Right: 360, Bottom: 240},
		},
		{
			name:    "wide preset",
			query:   "width=800&height=240&mode=wide",
			wantTop: layout.Rect{Left: 40, Top: 0, Right: 440, Bottom: 240},
			wantBot: layout.Rect{Left: 440, Top: 0, Right: 760, Bottom: 240},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := get(t, ts.URL+"/v1/layout?"+tt.query)
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d", resp.StatusCode)
			}
			var l layout.Layout
			if err := json.NewDecoder(resp.Body).Decode(&l); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if l.TopScreen != tt.wantTop {
				t.Errorf("top = %v, want %v", l.TopScreen, tt.wantTop)
			}
			if l.BottomScreen != tt.wantBot {
				t.Errorf("bottom = %v, want %v", l.BottomScreen, tt.wantBot)
			}
		})
	}
}

func TestLayout_BadRequests(t *testing.T) {
	ts := newTestServer(t)

	for _, q := range []string{
		"",
		"width=0&height=480",
		"width=400&height=-1",
		"width=abc&height=480",
		"width=400&height=99999",
		"width=400&height=480&mode=diagonal",
		"width=400&height=480&swapped=maybe",
		"width=400&height=480&scale=5",
		"width=640&height=480&mode=large&scale=NaN",
		"width=640&height=480&mode=large&scale=Inf",
		"width=640&height=480&mode=large&scale=-Inf",
	} {
		t.Run(q, func(t *testing.T) {
			resp := get(t, ts.URL+"/v1/layout?"+q)
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", resp.StatusCode)
			}
			var e errorResponse
			if err := json.NewDecoder(resp.Body).Decode(&e); err != nil || e.Error == "" {
				t.Fatalf("expected an error body, got %+v (%v)", e, err)
			}
		})
	}
}

func TestPreviewPNG(t *testing.T) {
	ts := newTestServer(t)

	resp := get(t, ts.URL+"/v1/preview.png?width=400&height=480&top=pattern&bottom=blank")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Fatalf("content type = %q", ct)
	}
	img, err := png.Decode(resp.Body)
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 400 || b.Dy() != 480 {
		t.Fatalf("bounds = %v", b)
	}

	for _, q := range []string{"width=0&height=480", "width=640&height=480&mode=large&scale=NaN"} {
		bad := get(t, ts.URL+"/v1/preview.png?"+q)
		if bad.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s: status = %d, want 400", q, bad.StatusCode)
		}
	}
}

func TestUpdateConfig(t *testing.T) {
	s := New(config.DefaultConfig(), nil, nil)
	cfg := config.DefaultConfig()
	cfg.DefaultMode = layout.KindSideBySide
	s.UpdateConfig(cfg)

	req := httptest.NewRequest(http.MethodGet, "/v1/modes", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if !strings.Contains(rec.Body.String(), `"default":"side-by-side"`) {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestListenAndServe_StopsOnCancel(t *testing.T) {
	s := New(config.DefaultConfig(), nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx, "127.0.0.1:0") }()
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("ListenAndServe: %v", err)
	}
}
