/*
Copyright 2026 Boyle Software, Inc.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package call

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/textproto"
	"sort"
	"strconv"
	"strings"

	"github.com/go-logr/logr"

	"github.com/boylesoftware/thymes2go/pkg/t2/marshal"
	logutil "github.com/boylesoftware/thymes2go/pkg/t2/util/logging"
)

// multipartBoundary is the fixed boundary token of multi-entity responses.
const multipartBoundary = "t2-part-boundary"

// transmit derives the content headers from the entity count and writes the
// response to the wire. Responses containing a stream entity switch to
// chunked transfer; everything else is buffered so Content-Length can be
// set. HEAD requests and header-only responses terminate after the headers.
func (p *Pipeline) transmit(ctx context.Context, w http.ResponseWriter, r *http.Request, resp *Response) {
	logger := logr.FromContextOrDiscard(ctx)

	n := len(resp.Entities)
	switch {
	case n == 1:
		resp.SetHeaderIfAbsent("Content-Type", entityContentType(resp.Entities[0]))
		if disp := entityHeaderGet(resp.Entities[0], "Content-Disposition"); disp != "" {
			resp.SetHeaderIfAbsent("Content-Disposition", disp)
		}
	case n >= 2:
		resp.SetHeader("Content-Type", "multipart/mixed; boundary="+multipartBoundary)
	}

	headOnly := r.Method == http.MethodHead || n == 0

	streaming := false
	for _, e := range resp.Entities {
		if _, ok := e.Data.(Stream); ok {
			streaming = true
			break
		}
	}

	if streaming {
		// No Content-Length: the platform stack switches to chunked
		// transfer and the copy loop blocks on the client's backpressure.
		writeWireHeaders(w, resp)
		w.WriteHeader(resp.Status)
		if headOnly {
			return
		}
		if n == 1 {
			p.writeEntityData(ctx, w, resp.Entities[0])
			return
		}
		for i, e := range resp.Entities {
			io.WriteString(w, partHeader(e, i > 0, multipartBoundary))
			p.writeEntityData(ctx, w, e)
			io.WriteString(w, "\r\n")
		}
		io.WriteString(w, "--"+multipartBoundary+"--")
		return
	}

	var body []byte
	if n > 0 {
		var err error
		if n == 1 {
			body, err = p.entityBytes(resp.Entities[0])
		} else {
			body, err = p.multipartBody(resp.Entities, multipartBoundary)
		}
		if err != nil {
			logger.Error(err, "Failed to serialize response entity")
			resp = errorResponse(http.StatusInternalServerError, "Internal server error.")
			resp.SetHeader("Content-Type", marshal.ContentTypeJSON)
			body, _ = p.entityBytes(resp.Entities[0])
		}
		resp.SetHeader("Content-Length", strconv.Itoa(len(body)))
	}

	writeWireHeaders(w, resp)
	w.WriteHeader(resp.Status)
	if headOnly || len(body) == 0 {
		return
	}
	if _, err := w.Write(body); err != nil {
		logger.V(logutil.DEBUG).Info("Failed to write response body", "error", err)
	}
}

// entityBytes serializes one entity for a buffered write. Raw buffers pass
// through unchanged; structured values run through the content-type-keyed
// marshaller.
func (p *Pipeline) entityBytes(e Entity) ([]byte, error) {
	switch data := e.Data.(type) {
	case Raw:
		return data, nil
	case Structured:
		contentType := entityContentType(e)
		m, ok := p.marshallers.ForType(contentType)
		if !ok {
			return nil, fmt.Errorf("no marshaller for content type %q", contentType)
		}
		return m.Marshal(data.Value)
	default:
		return nil, fmt.Errorf("entity data %T cannot be buffered", e.Data)
	}
}

// writeEntityData writes one entity in the streamed path.
func (p *Pipeline) writeEntityData(ctx context.Context, w io.Writer, e Entity) {
	logger := logr.FromContextOrDiscard(ctx)
	if s, ok := e.Data.(Stream); ok {
		if _, err := io.Copy(w, s.Reader); err != nil {
			logger.V(logutil.DEBUG).Info("Failed to copy response stream", "error", err)
		}
		if c, ok := s.Reader.(io.Closer); ok {
			c.Close()
		}
		return
	}
	data, err := p.entityBytes(e)
	if err != nil {
		logger.Error(err, "Failed to serialize response entity")
		return
	}
	if _, err := w.Write(data); err != nil {
		logger.V(logutil.DEBUG).Info("Failed to write response body", "error", err)
	}
}

// multipartBody assembles the multi-entity wire body: boundary marker,
// per-part headers, blank line and body per part, closed by the terminating
// boundary.
func (p *Pipeline) multipartBody(entities []Entity, boundary string) ([]byte, error) {
	var buf bytes.Buffer
	for i, e := range entities {
		buf.WriteString(partHeader(e, i > 0, boundary))
		data, err := p.entityBytes(e)
		if err != nil {
			return nil, err
		}
		buf.Write(data)
		buf.WriteString("\r\n")
	}
	buf.WriteString("--" + boundary + "--")
	return buf.Bytes(), nil
}

// partHeader renders one part's boundary marker and headers. The first part
// renders inline, subsequent parts as attachments.
func partHeader(e Entity, attachment bool, boundary string) string {
	var sb strings.Builder
	sb.WriteString("--" + boundary + "\r\n")
	sb.WriteString("Content-Type: " + entityContentType(e) + "\r\n")
	disposition := entityHeaderGet(e, "Content-Disposition")
	if disposition == "" && attachment {
		disposition = "attachment"
	}
	if disposition != "" {
		sb.WriteString("Content-Disposition: " + disposition + "\r\n")
	}
	var extra []string
	for name := range e.Header {
		lower := strings.ToLower(name)
		if lower == "content-type" || lower == "content-disposition" {
			continue
		}
		extra = append(extra, name)
	}
	sort.Strings(extra)
	for _, name := range extra {
		sb.WriteString(textproto.CanonicalMIMEHeaderKey(name) + ": " + e.Header[name] + "\r\n")
	}
	sb.WriteString("\r\n")
	return sb.String()
}

func entityContentType(e Entity) string {
	if ct := entityHeaderGet(e, "Content-Type"); ct != "" {
		return ct
	}
	if _, ok := e.Data.(Structured); ok {
		return marshal.ContentTypeJSON
	}
	return "application/octet-stream"
}

func entityHeaderGet(e Entity, name string) string {
	for key, val := range e.Header {
		if strings.EqualFold(key, name) {
			return val
		}
	}
	return ""
}

func writeWireHeaders(w http.ResponseWriter, resp *Response) {
	for key, v := range resp.headers {
		if v.Empty() {
			continue
		}
		w.Header().Set(textproto.CanonicalMIMEHeaderKey(key), v.String())
	}
}
