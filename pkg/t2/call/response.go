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
	"fmt"
	"io"
	"strings"

	"github.com/boylesoftware/thymes2go/pkg/t2/endpoint"
	"github.com/boylesoftware/thymes2go/pkg/t2/headers"
)

// Data is the tagged union of entity payload kinds.
type Data interface {
	isData()
}

// Structured is an in-memory value serialized by the content-type-keyed
// marshaller.
type Structured struct {
	Value any
}

// Raw is a byte buffer passed through to the wire unchanged.
type Raw []byte

// Stream is a readable byte stream copied to the wire with chunked
// transfer.
type Stream struct {
	Reader io.Reader
}

func (Structured) isData() {}
func (Raw) isData()        {}
func (Stream) isData()     {}

// Entity is one response entity. The first entity of a response renders
// inline, every subsequent one as an attachment.
type Entity struct {
	Data   Data
	Header map[string]string
}

// Response is one complete endpoint call response under assembly.
type Response struct {
	Status   int
	Entities []Entity

	// headers keys on the lower-cased header name.
	headers map[string]*headers.Value
}

// NewResponse creates an empty response with the given status code.
func NewResponse(status int) *Response {
	return &Response{
		Status:  status,
		headers: make(map[string]*headers.Value),
	}
}

// SetHeader applies the value to the named header through its combination
// policy. A nil value removes the header outright, bypassing the policy.
func (r *Response) SetHeader(name string, value any) {
	key := strings.ToLower(name)
	if value == nil {
		delete(r.headers, key)
		return
	}
	v, ok := r.headers[key]
	if !ok {
		v = headers.NewValueFor(name)
		r.headers[key] = v
	}
	v.Set(value)
}

// SetHeaderIfAbsent is a no-op when the header already has a value,
// otherwise it behaves like SetHeader.
func (r *Response) SetHeaderIfAbsent(name string, value any) {
	if r.HasHeader(name) {
		return
	}
	r.SetHeader(name, value)
}

// HasHeader reports whether the named header has a non-empty value.
func (r *Response) HasHeader(name string) bool {
	v, ok := r.headers[strings.ToLower(name)]
	return ok && !v.Empty()
}

// HeaderValue returns the rendered value of the named header.
func (r *Response) HeaderValue(name string) (string, bool) {
	v, ok := r.headers[strings.ToLower(name)]
	if !ok || v.Empty() {
		return "", false
	}
	return v.String(), true
}

// AddEntity appends an entity and returns the response for chaining.
func (r *Response) AddEntity(data Data, header map[string]string) *Response {
	r.Entities = append(r.Entities, Entity{Data: data, Header: header})
	return r
}

// ErrorPayload is the structured body of an error response.
type ErrorPayload struct {
	ErrorCode        string                `json:"errorCode"`
	ErrorMessage     string                `json:"errorMessage"`
	ValidationErrors []endpoint.FieldError `json:"validationErrors,omitempty"`
}

// errorResponse builds a terminal error response with the standard payload.
// The payload code is derived from the status so clients can match on it
// without parsing the message.
func errorResponse(status int, message string) *Response {
	r := NewResponse(status)
	r.AddEntity(Structured{Value: ErrorPayload{
		ErrorCode:    fmt.Sprintf("T2-%d-1", status),
		ErrorMessage: message,
	}}, nil)
	return r
}

func validationErrorResponse(status int, message string, fieldErrors []endpoint.FieldError) *Response {
	r := NewResponse(status)
	r.AddEntity(Structured{Value: ErrorPayload{
		ErrorCode:        fmt.Sprintf("T2-%d-1", status),
		ErrorMessage:     message,
		ValidationErrors: fieldErrors,
	}}, nil)
	return r
}
