/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package telemetry

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu     sync.Mutex
	events []Event
	crash  []string
}

func (r *recorder) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/events", func(w http.ResponseWriter, req *http.Request) {
		var ev Event
		if err := json.NewDecoder(req.Body).Decode(&ev); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		r.mu.Lock()
		r.events = append(r.events, ev)
		r.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/crash", func(w http.ResponseWriter, req *http.Request) {
		b, _ := io.ReadAll(req.Body)
		r.mu.Lock()
		r.crash = append(r.crash, string(b))
		r.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func (r *recorder) snapshot() ([]Event, []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...), append([]string(nil), r.crash...)
}

func TestEventSentWhenOptedIn(t *testing.T) {
	var rec recorder
	srv := rec.server(t)
	c := New(Config{OptIn: true, EventsURL: srv.URL + "/events", Timeout: time.Second})
	defer c.Close()

	c.Event("app_start", map[string]any{"cmd": "resolve"})
	c.Flush(context.Background())

	events, _ := rec.snapshot()
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	ev := events[0]
	if ev.Name != "app_start" || ev.TS == "" || ev.Version == "" {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if ev.Props["cmd"] != "resolve" {
		t.Fatalf("props: %+v", ev.Props)
	}
}

func TestScriptExportedEvent(t *testing.T) {
	var rec recorder
	srv := rec.server(t)
	c := New(Config{OptIn: true, EventsURL: srv.URL + "/events"})
	defer c.Close()

	c.ScriptExported(ExportInfo{Script: "Trouble Brewing", Characters: 22, Format: "pdf", Pages: 2})
	c.Flush(context.Background())

	events, _ := rec.snapshot()
	if len(events) != 1 || events[0].Name != EventScriptExported {
		t.Fatalf("events: %+v", events)
	}
	p := events[0].Props
	// JSON numbers decode as float64
	if p["script"] != "Trouble Brewing" || p["characters"] != float64(22) || p["format"] != "pdf" || p["remote"] != false {
		t.Fatalf("props: %+v", p)
	}
}

func TestDisabledClientSendsNothing(t *testing.T) {
	var rec recorder
	srv := rec.server(t)

	off := New(Config{OptIn: false, EventsURL: srv.URL + "/events", CrashURL: srv.URL + "/crash"})
	defer off.Close()
	if off.Enabled() {
		t.Fatalf("client without opt-in must be disabled")
	}
	off.Event("x", nil)
	off.UploadCrash([]byte("report"))
	off.Flush(context.Background())

	on := New(Config{OptIn: true, EventsURL: srv.URL + "/events"})
	defer on.Close()
	on.Event("", nil)
	on.Flush(context.Background())

	events, crash := rec.snapshot()
	if len(events) != 0 || len(crash) != 0 {
		t.Fatalf("expected nothing sent, got %d events %d crash", len(events), len(crash))
	}

	var nilClient *Client
	if nilClient.Enabled() {
		t.Fatalf("nil client must be disabled")
	}
}

func TestUploadCrash(t *testing.T) {
	var rec recorder
	srv := rec.server(t)
	c := New(Config{OptIn: true, CrashURL: srv.URL + "/crash"})
	defer c.Close()

	c.UploadCrash([]byte("Panic: boom"))
	_, crash := rec.snapshot()
	if len(crash) != 1 || crash[0] != "Panic: boom" {
		t.Fatalf("crash uploads: %q", crash)
	}
}

func TestUnreachableEndpointIsIgnored(t *testing.T) {
	c := New(Config{OptIn: true, EventsURL: "http://127.0.0.1:1/events", CrashURL: "http://127.0.0.1:1/crash",
		Timeout: 200 * time.Millisecond, DebugLogging: true})
	defer c.Close()

	c.Event("x", nil)
	c.UploadCrash([]byte("r"))
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	c.Flush(ctx)
}

func TestFromEnv(t *testing.T) {
	t.Setenv("FSG_TELEMETRY_OPT_IN", "yes")
	t.Setenv("FSG_TELEMETRY_URL", " http://example.invalid/e ")
	t.Setenv("FSG_CRASH_UPLOAD_URL", "http://example.invalid/c")
	t.Setenv("FSG_TELEMETRY_TIMEOUT_MS", "250")
	t.Setenv("FSG_TELEMETRY_DEBUG", "1")

	cfg := FromEnv()
	if !cfg.OptIn || cfg.EventsURL != "http://example.invalid/e" || cfg.CrashURL != "http://example.invalid/c" {
		t.Fatalf("cfg: %+v", cfg)
	}
	if cfg.Timeout != 250*time.Millisecond || !cfg.DebugLogging {
		t.Fatalf("cfg: %+v", cfg)
	}

	t.Setenv("FSG_TELEMETRY_OPT_IN", "nope")
	t.Setenv("FSG_TELEMETRY_TIMEOUT_MS", "abc")
	cfg = FromEnv()
	if cfg.OptIn || cfg.Timeout != 1500*time.Millisecond {
		t.Fatalf("cfg: %+v", cfg)
	}
}

func TestDefaultClient(t *testing.T) {
	var rec recorder
	srv := rec.server(t)
	c := NewDefault(Config{OptIn: true, EventsURL: srv.URL + "/events"})
	t.Cleanup(func() { NewDefault(Config{}) })

	if !Enabled() || Default() != c {
		t.Fatalf("default client not installed")
	}
	SendEvent("default_event", nil)
	c.Flush(context.Background())
	events, _ := rec.snapshot()
	if len(events) != 1 || events[0].Name != "default_event" {
		t.Fatalf("events: %+v", events)
	}
}
