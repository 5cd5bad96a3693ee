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

// Package endpoint defines the contract between the call pipeline and the
// application's endpoint handlers.
package endpoint

import (
	"context"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/boylesoftware/thymes2go/pkg/t2/auth"
)

// URIParam is one extracted URI parameter. Valid is false when the
// parameter's capture group did not participate in the match (an absent
// optional trailing parameter).
type URIParam struct {
	Value string
	Valid bool
}

// Attachment is one uninterpreted extra part of a multipart request body,
// handed to the handler as-is.
type Attachment struct {
	Header textproto.MIMEHeader
	Data   []byte
}

// Call carries everything a handler needs to process one endpoint call.
type Call struct {
	Method      string
	ResourceURI string
	Params      []URIParam
	Actor       auth.Actor
	Entity      any
	Attachments []Attachment
	Request     *http.Request
}

// Handler is the polymorphic endpoint capability bound to a URI pattern.
//
// HandleCall may return nil (204), a plain value (200 with that value as the
// sole entity), or a response object recognized by the pipeline which is
// then used verbatim.
type Handler interface {
	AllowedMethods() []string
	IsPublic() bool
	IsAllowed(method, resourceURI string, params []URIParam, actor auth.Actor) bool
	HandleCall(ctx context.Context, call *Call) (any, error)
}

// Validator checks a deserialized request entity before the handler runs.
type Validator interface {
	Validate(entity any) error
}

// EntityValidating is implemented by handlers that ingest a request entity.
// A nil validator for a given method/URI means no entity is expected there.
type EntityValidating interface {
	RequestEntityValidator(method, resourceURI string) Validator
}

// FieldError is one field-level validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors is the error type validators return for structured,
// per-field failures; it renders into the 400 response payload.
type ValidationErrors []FieldError

func (ve ValidationErrors) Error() string {
	msgs := make([]string, len(ve))
	for i, fe := range ve {
		msgs[i] = fe.Field + ": " + fe.Message
	}
	return "invalid request entity: " + strings.Join(msgs, "; ")
}
