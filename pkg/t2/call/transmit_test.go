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
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boylesoftware/thymes2go/pkg/t2/endpoint"
	"github.com/boylesoftware/thymes2go/pkg/t2/router"
)

func TestMultipartBody(t *testing.T) {
	p := newTestPipeline(t, nil, nil, nil)
	entities := []Entity{
		{Data: Raw("A"), Header: map[string]string{"Content-Type": "text/plain"}},
		{Data: Raw("B"), Header: map[string]string{"Content-Type": "text/plain"}},
	}
	body, err := p.multipartBody(entities, "B1")
	require.NoError(t, err)
	want := "--B1\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n" +
		"A\r\n" +
		"--B1\r\n" +
		"Content-Type: text/plain\r\n" +
		"Content-Disposition: attachment\r\n" +
		"\r\n" +
		"B\r\n" +
		"--B1--"
	assert.Equal(t, want, string(body))
}

func TestMultipartBodyExtraHeaders(t *testing.T) {
	p := newTestPipeline(t, nil, nil, nil)
	entities := []Entity{
		{Data: Raw("A"), Header: map[string]string{"Content-Type": "text/plain"}},
		{Data: Raw("B"), Header: map[string]string{
			"content-type":        "text/csv",
			"content-disposition": `attachment; filename="b.csv"`,
			"x-part-id":           "part-2",
		}},
	}
	body, err := p.multipartBody(entities, "B1")
	require.NoError(t, err)
	want := "--B1\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n" +
		"A\r\n" +
		"--B1\r\n" +
		"Content-Type: text/csv\r\n" +
		"Content-Disposition: attachment; filename=\"b.csv\"\r\n" +
		"X-Part-Id: part-2\r\n" +
		"\r\n" +
		"B\r\n" +
		"--B1--"
	assert.Equal(t, want, string(body))
}

func TestTransmitMultipartResponse(t *testing.T) {
	h := &testHandler{handle: func(_ context.Context, _ *endpoint.Call) (any, error) {
		resp := NewResponse(http.StatusOK)
		resp.AddEntity(Structured{Value: map[string]string{"name": "gear"}}, nil)
		resp.AddEntity(Raw("report"), map[string]string{"Content-Type": "text/plain"})
		return resp, nil
	}}
	p := newTestPipeline(t, []router.Route{{Pattern: "/widgets", Handler: h}}, nil, nil)
	w := serve(p, httptest.NewRequest(http.MethodGet, "/widgets", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "multipart/mixed; boundary="+multipartBoundary, w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Header().Get("Content-Length"))
	body := w.Body.String()
	assert.True(t, strings.HasPrefix(body, "--"+multipartBoundary+"\r\n"))
	assert.True(t, strings.HasSuffix(body, "--"+multipartBoundary+"--"))
	assert.Contains(t, body, `{"name":"gear"}`)
	assert.Contains(t, body, "Content-Disposition: attachment")
	assert.Contains(t, body, "report")
}

func TestTransmitStreamResponse(t *testing.T) {
	h := &testHandler{handle: func(_ context.Context, _ *endpoint.Call) (any, error) {
		resp := NewResponse(http.StatusOK)
		resp.AddEntity(Stream{Reader: strings.NewReader("streamed bytes")},
			map[string]string{"Content-Type": "application/octet-stream"})
		return resp, nil
	}}
	p := newTestPipeline(t, []router.Route{{Pattern: "/export", Handler: h}}, nil, nil)
	w := serve(p, httptest.NewRequest(http.MethodGet, "/export", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/octet-stream", w.Header().Get("Content-Type"))
	// No Content-Length: the stream goes out with chunked transfer.
	assert.Empty(t, w.Header().Get("Content-Length"))
	assert.Equal(t, "streamed bytes", w.Body.String())
}

func TestTransmitStreamHead(t *testing.T) {
	h := &testHandler{handle: func(_ context.Context, _ *endpoint.Call) (any, error) {
		resp := NewResponse(http.StatusOK)
		resp.AddEntity(Stream{Reader: strings.NewReader("streamed bytes")}, nil)
		return resp, nil
	}}
	p := newTestPipeline(t, []router.Route{{Pattern: "/export", Handler: h}}, nil, nil)
	w := serve(p, httptest.NewRequest(http.MethodHead, "/export", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.Bytes())
}

func TestTransmitContentDispositionFromEntity(t *testing.T) {
	h := &testHandler{handle: func(_ context.Context, _ *endpoint.Call) (any, error) {
		resp := NewResponse(http.StatusOK)
		resp.AddEntity(Raw("csv,data"), map[string]string{
			"Content-Type":        "text/csv",
			"Content-Disposition": `attachment; filename="export.csv"`,
		})
		return resp, nil
	}}
	p := newTestPipeline(t, []router.Route{{Pattern: "/export", Handler: h}}, nil, nil)
	w := serve(p, httptest.NewRequest(http.MethodGet, "/export", nil))

	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="export.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "csv,data", w.Body.String())
}

func TestTransmitSerializeFailure(t *testing.T) {
	h := &testHandler{handle: func(_ context.Context, _ *endpoint.Call) (any, error) {
		resp := NewResponse(http.StatusOK)
		// Channels are not JSON-serializable.
		resp.AddEntity(Structured{Value: make(chan int)}, nil)
		return resp, nil
	}}
	p := newTestPipeline(t, []router.Route{{Pattern: "/widgets", Handler: h}}, nil, nil)
	w := serve(p, httptest.NewRequest(http.MethodGet, "/widgets", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "T2-500-1", decodeErrorPayload(t, w).ErrorCode)
}
