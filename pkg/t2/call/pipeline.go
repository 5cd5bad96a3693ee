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

// Package call implements the endpoint call processing pipeline: routing,
// method validation, CORS, authentication, authorization, entity ingestion,
// handler invocation and response assembly/transmission.
package call

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-logr/logr"

	"github.com/boylesoftware/thymes2go/pkg/t2/auth"
	"github.com/boylesoftware/thymes2go/pkg/t2/config"
	"github.com/boylesoftware/thymes2go/pkg/t2/cors"
	"github.com/boylesoftware/thymes2go/pkg/t2/endpoint"
	"github.com/boylesoftware/thymes2go/pkg/t2/marshal"
	"github.com/boylesoftware/thymes2go/pkg/t2/metrics"
	"github.com/boylesoftware/thymes2go/pkg/t2/router"
	errutil "github.com/boylesoftware/thymes2go/pkg/t2/util/error"
	logutil "github.com/boylesoftware/thymes2go/pkg/t2/util/logging"
	requtil "github.com/boylesoftware/thymes2go/pkg/t2/util/request"
)

// methodOrder fixes the render order of Allow-style method lists.
var methodOrder = []string{
	http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut,
	http.MethodPatch, http.MethodDelete, http.MethodOptions,
}

var knownMethods = map[string]bool{
	http.MethodOptions: true,
	http.MethodGet:     true,
	http.MethodHead:    true,
	http.MethodPost:    true,
	http.MethodPut:     true,
	http.MethodPatch:   true,
	http.MethodDelete:  true,
}

// cacheableStatuses are the heuristically cacheable status codes that get
// the no-cache default headers on safe methods.
var cacheableStatuses = map[int]bool{
	200: true, 203: true, 204: true, 206: true, 300: true, 301: true,
	404: true, 405: true, 410: true, 414: true, 501: true,
}

// Pipeline dispatches one HTTP request to exactly one well-formed response.
// A Pipeline is shared between requests and holds no per-request state; it
// is read-only after construction.
type Pipeline struct {
	router        *router.Router
	authenticator auth.Authenticator
	marshallers   *marshal.Registry
	corsPolicy    cors.Policy
	maxEntitySize int64
	logger        logr.Logger
}

var _ http.Handler = (*Pipeline)(nil)

// New wires the pipeline from its collaborators. The configuration must
// have been validated.
func New(cfg *config.Config, rtr *router.Router, authenticator auth.Authenticator,
	marshallers *marshal.Registry, logger logr.Logger) *Pipeline {
	return &Pipeline{
		router:        rtr,
		authenticator: authenticator,
		marshallers:   marshallers,
		corsPolicy:    cfg.CORSPolicy(),
		maxEntitySize: cfg.MaxRequestEntitySize,
		logger:        logger,
	}
}

// state is the private mutable state of one in-flight call.
type state struct {
	match       router.Match
	matched     bool
	allowed     map[string]bool
	authResult  *auth.Result
	entity      any
	attachments []endpoint.Attachment
}

func (st *state) public() bool {
	return st.matched && st.match.Handler.IsPublic()
}

// allowHeader renders the allowed method set in canonical order.
func (st *state) allowHeader() string {
	var list []string
	for _, m := range methodOrder {
		if st.allowed[m] {
			list = append(list, m)
		}
	}
	return strings.Join(list, ", ")
}

func (p *Pipeline) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	requestId := requtil.ExtractRequestId(r)
	logger := p.logger.WithValues("requestId", requestId, "method", r.Method, "path", r.URL.Path)
	ctx := logr.NewContext(r.Context(), logger)

	metrics.RecordRequest(r.Method)
	metrics.IncRunningRequests()
	defer metrics.DecRunningRequests()

	st := &state{}
	resp := p.dispatch(ctx, r, st)
	p.assemble(ctx, r, st, resp)
	resp.SetHeaderIfAbsent(requtil.RequestIdHeaderKey, requestId)
	p.transmit(ctx, w, r, resp)

	if resp.Status >= 400 {
		metrics.RecordRequestErr(r.Method, errutil.CanonicalForStatus(resp.Status))
	}
	metrics.RecordRequestLatency(r.Method, strconv.Itoa(resp.Status), time.Since(start))
	logger.V(logutil.DEFAULT).Info("Call completed", "status", resp.Status, "elapsed", time.Since(start))
}

// dispatch runs the phase sequence. Each phase either returns a terminal
// response, ending the call, or nil to continue. No error escapes: every
// failure converts to a terminal response here.
func (p *Pipeline) dispatch(ctx context.Context, r *http.Request, st *state) (resp *Response) {
	logger := logr.FromContextOrDiscard(ctx)
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error(fmt.Errorf("%v", rec), "Panic while processing call")
			resp = errorResponse(http.StatusInternalServerError, "Internal server error.")
		}
	}()

	if resp := p.route(ctx, r, st); resp != nil {
		return resp
	}
	if resp := p.checkMethod(ctx, r, st); resp != nil {
		return resp
	}
	if r.Method == http.MethodOptions {
		// Preflight and plain OPTIONS bypass authentication entirely.
		resp := NewResponse(http.StatusNoContent)
		resp.SetHeader("Allow", st.allowHeader())
		return resp
	}
	if resp := p.checkAllowed(ctx, r, st); resp != nil {
		return resp
	}
	if resp := p.authenticate(ctx, r, st); resp != nil {
		return resp
	}
	if resp := p.authorize(ctx, r, st); resp != nil {
		return resp
	}
	if resp := p.ingestEntity(ctx, r, st); resp != nil {
		return resp
	}
	return p.invoke(ctx, r, st)
}

func (p *Pipeline) route(ctx context.Context, r *http.Request, st *state) *Response {
	match, ok := p.router.Lookup(r.URL.Path)
	if !ok {
		return errorResponse(http.StatusNotFound, "No API endpoint at this URI.")
	}
	st.match = match
	st.matched = true
	return nil
}

func (p *Pipeline) checkMethod(ctx context.Context, r *http.Request, st *state) *Response {
	if !knownMethods[r.Method] {
		return errorResponse(http.StatusNotImplemented, "Unsupported HTTP method.")
	}
	st.allowed = make(map[string]bool)
	for _, m := range st.match.Handler.AllowedMethods() {
		st.allowed[strings.ToUpper(m)] = true
	}
	// HEAD rides along with GET; OPTIONS is always implicitly allowed.
	if st.allowed[http.MethodGet] {
		st.allowed[http.MethodHead] = true
	}
	st.allowed[http.MethodOptions] = true
	return nil
}

func (p *Pipeline) checkAllowed(ctx context.Context, r *http.Request, st *state) *Response {
	if st.allowed[r.Method] {
		return nil
	}
	resp := errorResponse(http.StatusMethodNotAllowed, "Method not supported by the API endpoint.")
	resp.SetHeader("Allow", st.allowHeader())
	return resp
}

func (p *Pipeline) authenticate(ctx context.Context, r *http.Request, st *state) *Response {
	result, err := p.authenticator.Authenticate(ctx, r)
	if err != nil {
		switch errutil.CanonicalCode(err) {
		case errutil.BadRequest, errutil.Forbidden:
			// Soft authentication failure, an ordinary unauthenticated
			// outcome rather than a server error.
			result = &auth.Result{}
		default:
			logr.FromContextOrDiscard(ctx).Error(err, "Authenticator failed")
			return errorResponse(http.StatusInternalServerError, "Internal server error.")
		}
	}
	if result == nil {
		result = &auth.Result{}
	}
	st.authResult = result
	return nil
}

func (p *Pipeline) authorize(ctx context.Context, r *http.Request, st *state) *Response {
	actor := st.authResult.Actor
	if st.match.Handler.IsAllowed(r.Method, st.match.ResourceURI, st.match.Params, actor) {
		return nil
	}
	if actor == nil {
		resp := errorResponse(http.StatusUnauthorized, "Authentication required.")
		if st.authResult.Challenge != "" {
			resp.SetHeader("WWW-Authenticate", st.authResult.Challenge)
		}
		return resp
	}
	return errorResponse(http.StatusForbidden, "Insufficient permissions.")
}

// ingestEntity buffers, deserializes and validates the request entity when
// the handler expects one for this method and URI. For multipart bodies only
// the first part is deserialized; the remaining parts are handed to the
// handler uninterpreted.
func (p *Pipeline) ingestEntity(ctx context.Context, r *http.Request, st *state) *Response {
	validating, ok := st.match.Handler.(endpoint.EntityValidating)
	if !ok {
		return nil
	}
	validator := validating.RequestEntityValidator(r.Method, st.match.ResourceURI)
	if validator == nil {
		return nil
	}

	if r.ContentLength > p.maxEntitySize {
		return entityTooLarge()
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, p.maxEntitySize+1))
	if err != nil {
		logr.FromContextOrDiscard(ctx).Error(err, "Failed to read request body")
		return errorResponse(http.StatusInternalServerError, "Internal server error.")
	}
	if int64(len(body)) > p.maxEntitySize {
		return entityTooLarge()
	}

	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		contentType = marshal.ContentTypeJSON
	}
	mediaType, mediaParams, _ := mime.ParseMediaType(contentType)

	entityData := body
	entityType := contentType
	if strings.HasPrefix(mediaType, "multipart/") {
		boundary := mediaParams["boundary"]
		if boundary == "" {
			return errorResponse(http.StatusBadRequest, "Invalid request entity.")
		}
		mr := multipart.NewReader(bytes.NewReader(body), boundary)
		first := true
		for {
			part, err := mr.NextPart()
			if err == io.EOF {
				break
			}
			if err != nil {
				return errorResponse(http.StatusBadRequest, "Invalid request entity.")
			}
			data, err := io.ReadAll(part)
			if err != nil {
				return errorResponse(http.StatusBadRequest, "Invalid request entity.")
			}
			if first {
				entityData = data
				entityType = part.Header.Get("Content-Type")
				if entityType == "" {
					entityType = marshal.ContentTypeJSON
				}
				first = false
				continue
			}
			st.attachments = append(st.attachments, endpoint.Attachment{
				Header: part.Header,
				Data:   data,
			})
		}
		if first {
			return errorResponse(http.StatusBadRequest, "Invalid request entity.")
		}
	}

	m, ok := p.marshallers.ForType(entityType)
	if !ok {
		return errorResponse(http.StatusUnsupportedMediaType, "Unsupported request entity content type.")
	}
	entity, err := m.Unmarshal(entityData)
	if err != nil {
		return errorResponse(http.StatusBadRequest, "Invalid request entity.")
	}
	if err := validator.Validate(entity); err != nil {
		var fieldErrors []endpoint.FieldError
		if ve, ok := err.(endpoint.ValidationErrors); ok {
			fieldErrors = ve
		}
		return validationErrorResponse(http.StatusBadRequest, "Invalid request entity.", fieldErrors)
	}
	st.entity = entity
	return nil
}

func entityTooLarge() *Response {
	resp := errorResponse(http.StatusRequestEntityTooLarge, "Request entity too large.")
	resp.SetHeader("Connection", "close")
	return resp
}

func (p *Pipeline) invoke(ctx context.Context, r *http.Request, st *state) *Response {
	result, err := st.match.Handler.HandleCall(ctx, &endpoint.Call{
		Method:      r.Method,
		ResourceURI: st.match.ResourceURI,
		Params:      st.match.Params,
		Actor:       st.authResult.Actor,
		Entity:      st.entity,
		Attachments: st.attachments,
		Request:     r,
	})
	if err != nil {
		// Full detail stays server-side, the caller gets a generic message.
		logr.FromContextOrDiscard(ctx).Error(err, "Handler failed",
			"resourceUri", st.match.ResourceURI)
		return errorResponse(http.StatusInternalServerError, "Internal server error.")
	}
	switch res := result.(type) {
	case nil:
		return NewResponse(http.StatusNoContent)
	case *Response:
		return res
	default:
		resp := NewResponse(http.StatusOK)
		resp.AddEntity(Structured{Value: res}, nil)
		return resp
	}
}

// assemble finalizes the response headers common to every outcome: Vary,
// the CORS grant, authenticator response headers and the no-cache defaults
// for safe methods.
func (p *Pipeline) assemble(ctx context.Context, r *http.Request, st *state, resp *Response) {
	resp.SetHeader("Vary", "Origin")

	origin := r.Header.Get("Origin")
	access := p.corsPolicy.Classify(origin, st.public())
	switch access {
	case cors.AccessAnyOrigin:
		resp.SetHeader("Access-Control-Allow-Origin", "*")
	case cors.AccessOrigin:
		resp.SetHeader("Access-Control-Allow-Origin", origin)
	case cors.AccessOriginCredentialed:
		resp.SetHeader("Access-Control-Allow-Origin", origin)
		resp.SetHeader("Access-Control-Allow-Credentials", "true")
	}

	if r.Method == http.MethodOptions && origin != "" &&
		r.Header.Get("Access-Control-Request-Method") != "" &&
		access != cors.AccessNone && access != cors.AccessBlocked {
		resp.SetHeader("Access-Control-Allow-Methods", st.allowHeader())
		if requested := r.Header.Get("Access-Control-Request-Headers"); requested != "" {
			resp.SetHeader("Access-Control-Allow-Headers", requested)
		}
		resp.SetHeader("Access-Control-Max-Age", strconv.Itoa(cors.MaxAgeSeconds))
	}

	if st.authResult != nil {
		p.authenticator.AddResponseAuthInfo(resp, st.authResult, st.authResult.Actor, r.URL, r.Header)
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) &&
		cacheableStatuses[resp.Status] && !resp.HasHeader("Cache-Control") {
		resp.SetHeader("Cache-Control", "no-cache")
		resp.SetHeader("Expires", "0")
		resp.SetHeader("Pragma", "no-cache")
	}
}
