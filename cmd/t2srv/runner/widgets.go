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

package runner

import (
	"context"
	"net/http"
	"sort"
	"strconv"
	"sync"

	"github.com/boylesoftware/thymes2go/pkg/t2/auth"
	"github.com/boylesoftware/thymes2go/pkg/t2/call"
	"github.com/boylesoftware/thymes2go/pkg/t2/endpoint"
)

// widget is the sample resource served by the demo API.
type widget struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type widgetStore struct {
	mu      sync.Mutex
	widgets map[int]widget
	nextID  int
}

func newWidgetStore() *widgetStore {
	return &widgetStore{widgets: make(map[int]widget), nextID: 1}
}

func (s *widgetStore) list() []widget {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]widget, 0, len(s.widgets))
	for _, w := range s.widgets {
		list = append(list, w)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}

func (s *widgetStore) create(name string) widget {
	s.mu.Lock()
	defer s.mu.Unlock()
	w := widget{ID: s.nextID, Name: name}
	s.widgets[w.ID] = w
	s.nextID++
	return w
}

func (s *widgetStore) get(id int) (widget, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.widgets[id]
	return w, ok
}

func (s *widgetStore) remove(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.widgets[id]
	delete(s.widgets, id)
	return ok
}

// widgetCollectionHandler serves the /widgets collection.
type widgetCollectionHandler struct {
	store *widgetStore
}

func (h *widgetCollectionHandler) AllowedMethods() []string {
	return []string{http.MethodGet, http.MethodPost}
}

func (h *widgetCollectionHandler) IsPublic() bool {
	return true
}

func (h *widgetCollectionHandler) IsAllowed(method, _ string, _ []endpoint.URIParam, actor auth.Actor) bool {
	// Anyone may list, creating requires an authenticated actor.
	return method != http.MethodPost || actor != nil
}

func (h *widgetCollectionHandler) RequestEntityValidator(method, _ string) endpoint.Validator {
	if method != http.MethodPost {
		return nil
	}
	return widgetValidator{}
}

func (h *widgetCollectionHandler) HandleCall(_ context.Context, c *endpoint.Call) (any, error) {
	if c.Method == http.MethodPost {
		name, _ := c.Entity.(map[string]any)["name"].(string)
		created := h.store.create(name)
		resp := call.NewResponse(http.StatusCreated)
		resp.AddEntity(call.Structured{Value: created}, nil)
		return resp, nil
	}
	return h.store.list(), nil
}

// widgetValidator requires a non-empty string "name".
type widgetValidator struct{}

func (widgetValidator) Validate(entity any) error {
	obj, ok := entity.(map[string]any)
	if !ok {
		return endpoint.ValidationErrors{{Field: "", Message: "entity must be an object"}}
	}
	if name, _ := obj["name"].(string); name == "" {
		return endpoint.ValidationErrors{{Field: "name", Message: "must be a non-empty string"}}
	}
	return nil
}

// widgetItemHandler serves /widgets/{id}.
type widgetItemHandler struct {
	store *widgetStore
}

func (h *widgetItemHandler) AllowedMethods() []string {
	return []string{http.MethodGet, http.MethodDelete}
}

func (h *widgetItemHandler) IsPublic() bool {
	return false
}

func (h *widgetItemHandler) IsAllowed(method, _ string, _ []endpoint.URIParam, actor auth.Actor) bool {
	return method != http.MethodDelete || actor != nil
}

func (h *widgetItemHandler) HandleCall(_ context.Context, c *endpoint.Call) (any, error) {
	id, _ := strconv.Atoi(c.Params[0].Value)
	if c.Method == http.MethodDelete {
		if !h.store.remove(id) {
			return widgetNotFound(), nil
		}
		return nil, nil
	}
	w, ok := h.store.get(id)
	if !ok {
		return widgetNotFound(), nil
	}
	return w, nil
}

func widgetNotFound() *call.Response {
	resp := call.NewResponse(http.StatusNotFound)
	resp.AddEntity(call.Structured{Value: map[string]string{
		"errorCode":    "T2-404-2",
		"errorMessage": "No such widget.",
	}}, nil)
	return resp
}

// demoActorRegistry is a fixed in-memory actor registry for the sample app.
type demoActorRegistry struct {
	passwords map[string]string
}

type demoActor struct {
	id string
}

func (a demoActor) ID() string {
	return a.id
}

func newDemoActorRegistry() *demoActorRegistry {
	return &demoActorRegistry{passwords: map[string]string{"admin": "admin"}}
}

func (r *demoActorRegistry) Lookup(_ context.Context, handle auth.Handle) (auth.Actor, error) {
	if _, ok := r.passwords[handle.ActorID]; !ok {
		return nil, nil
	}
	return demoActor{id: handle.ActorID}, nil
}

func (r *demoActorRegistry) ValidCredentials(actor auth.Actor, handle auth.Handle) bool {
	return r.passwords[actor.ID()] == handle.Credentials
}
