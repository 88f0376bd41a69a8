/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"fancyscript/internal/domain"
	applog "fancyscript/internal/log"
)

// FallbackMessage is shown to users when the export service fails.
const FallbackMessage = "Failed to generate PDF. Please try the browser print option instead."

// GeneratePath is the export service endpoint.
const GeneratePath = "/api/generate-pdf"

// maxDocumentBytes bounds the response body of the export service.
const maxDocumentBytes = 64 << 20

// TransportError reports a failed call to the export service. Status is 0
// when no response was received.
type TransportError struct {
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("export service returned %d: %v", e.Status, e.Err)
	}
	return fmt.Sprintf("export service unreachable: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// UserMessage is the text offered to the user with the print fallback.
func (e *TransportError) UserMessage() string { return FallbackMessage }

// Request is the payload of the export service.
type Request struct {
	Script   domain.RawScript     `json:"script"`
	Options  domain.ScriptOptions `json:"options"`
	Filename string               `json:"filename"`
}

// NewRequest builds the payload for raw with the file name derived from the
// script name.
func NewRequest(raw domain.RawScript, meta domain.Metadata, opts domain.ScriptOptions) Request {
	name := meta.Name
	if name == "" {
		name = "script"
	}
	if raw == nil {
		raw = domain.RawScript{}
	}
	return Request{Script: raw, Options: opts, Filename: name + ".pdf"}
}

// Client talks to a remote rendering service that turns a script into a PDF.
type Client struct {
	BaseURL string
	Token   string // bearer token, optional
	Origin  string // sent as Origin header when set
	// MaxBytes caps the document size; 0 selects 64 MiB.
	MaxBytes int64
	client   *http.Client
	log      *slog.Logger
}

// NewClient creates a client. baseURL may include a trailing slash; it will
// be normalized. A zero timeout selects 60 seconds.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		client:  &http.Client{Timeout: timeout},
		log:     applog.WithComponent("export_client"),
	}
}

// Generate posts req and returns the rendered document. Any failure is a
// *TransportError; the call is not retried.
func (c *Client) Generate(ctx context.Context, req Request) ([]byte, error) {
	l := applog.WithOperation(c.log, "generate")
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode export request: %w", err)
	}
	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+GeneratePath, bytes.NewReader(body))
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	hreq.Header.Set("Content-Type", "application/json")
	if c.Origin != "" {
		hreq.Header.Set("Origin", c.Origin)
	}
	if c.Token != "" {
		hreq.Header.Set("Authorization", "Bearer "+c.Token)
	}
	start := time.Now()
	resp, err := c.client.Do(hreq)
	if err != nil {
		l.WarnContext(ctx, "export service unreachable", "err", err)
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		l.WarnContext(ctx, "export service failed", "status", resp.StatusCode)
		return nil, &TransportError{Status: resp.StatusCode, Err: fmt.Errorf("failed to generate PDF: %s", resp.Status)}
	}
	doc, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes()+1))
	if err != nil {
		return nil, &TransportError{Status: resp.StatusCode, Err: fmt.Errorf("read document: %w", err)}
	}
	if int64(len(doc)) > c.maxBytes() {
		l.WarnContext(ctx, "document too large", "limit", c.maxBytes())
		return nil, &TransportError{Status: resp.StatusCode, Err: fmt.Errorf("document exceeds %d bytes", c.maxBytes())}
	}
	l.InfoContext(ctx, "document generated", "file", req.Filename, "bytes", len(doc), "took", time.Since(start))
	return doc, nil
}

func (c *Client) maxBytes() int64 {
	if c.MaxBytes > 0 {
		return c.MaxBytes
	}
	return maxDocumentBytes
}
