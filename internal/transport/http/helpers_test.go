package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vovakirdan/wirepair/internal/config"
	"github.com/vovakirdan/wirepair/internal/core"
	"github.com/vovakirdan/wirepair/internal/metrics"
	"github.com/vovakirdan/wirepair/internal/proto"
)

func startTestServer(t *testing.T) (*httptest.Server, *core.Hub) {
	t.Helper()

	registry := prometheus.NewRegistry()
	hub := core.NewHub(nil, core.Options{
		Addresses: func() []string { return []string{"192.168.1.5"} },
		Metrics:   metrics.New(registry),
	})
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	cfg := config.Default()
	server := NewServer(hub, &cfg, nil, registry)

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)
	hub.SetPort(ts.Listener.Addr().(*net.TCPAddr).Port)

	return ts, hub
}

func doJSON(t *testing.T, ts *httptest.Server, method, path, body string) (*http.Response, []byte) {
	t.Helper()

	req, err := http.NewRequest(method, ts.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, buf.Bytes()
}

func decode(t *testing.T, data []byte, dst any) {
	t.Helper()
	if err := json.Unmarshal(data, dst); err != nil {
		t.Fatalf("unmarshal %s: %v", data, err)
	}
}

func dialSocket(t *testing.T, ts *httptest.Server) (*websocket.Conn, context.Context) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + SocketPath
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "done") })
	return conn, ctx
}

func readFrame(t *testing.T, ctx context.Context, conn *websocket.Conn) proto.Inbound {
	t.Helper()

	var frame proto.Inbound
	if err := wsjson.Read(ctx, conn, &frame); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	return frame
}
