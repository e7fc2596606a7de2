package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/mux"

	"github.com/idilsaglam/tada-sync/internal/backend"
	"github.com/idilsaglam/tada-sync/internal/model"
)

const testToken = "secret-token"

// fakeAPI is a stand-in for the managed data API.
type fakeAPI struct {
	mu       sync.Mutex
	requests []string
	bodies   []string
	status   int // forced status for mutations, 0 = normal

	streams chan chan string // one per observe connection
}

func newFakeAPI(t *testing.T) (*fakeAPI, *httptest.Server) {
	t.Helper()
	f := &fakeAPI{streams: make(chan chan string, 4)}

	r := mux.NewRouter()
	r.Use(f.requireToken)
	r.HandleFunc("/v1/todos", f.create).Methods(http.MethodPost)
	r.HandleFunc("/v1/todos/observe", f.observe).Methods(http.MethodGet)
	r.HandleFunc("/v1/todos/{id}", f.update).Methods(http.MethodPatch)
	r.HandleFunc("/v1/todos/{id}", f.delete).Methods(http.MethodDelete)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeAPI) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+testToken {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"error":"missing or invalid token"}`)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *fakeAPI) record(r *http.Request) int {
	b, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)
	f.bodies = append(f.bodies, string(b))
	return f.status
}

func (f *fakeAPI) log() ([]string, []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...), append([]string(nil), f.bodies...)
}

func (f *fakeAPI) create(w http.ResponseWriter, r *http.Request) {
	if code := f.record(r); code != 0 {
		w.WriteHeader(code)
		fmt.Fprint(w, `{"message":"content is required"}`)
		return
	}
	w.WriteHeader(http.StatusCreated)
	fmt.Fprint(w, `{"id":"t-1","content":"Buy milk","isDone":false,"date":"2026-10-15T08:00:00.000Z","breakdown":[]}`)
}

func (f *fakeAPI) update(w http.ResponseWriter, r *http.Request) {
	if code := f.record(r); code != 0 {
		w.WriteHeader(code)
		return
	}
	id := mux.Vars(r)["id"]
	fmt.Fprintf(w, `{"id":%q,"content":"Buy milk","isDone":true,"date":"2026-10-15T08:00:00.000Z","breakdown":[]}`, id)
}

func (f *fakeAPI) delete(w http.ResponseWriter, r *http.Request) {
	if code := f.record(r); code != 0 {
		w.WriteHeader(code)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// observe streams whatever the test pushes into the connection's channel;
// closing the channel ends the response.
func (f *fakeAPI) observe(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Accept") != "text/event-stream" {
		w.WriteHeader(http.StatusNotAcceptable)
		return
	}
	fl := w.(http.Flusher)
	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	fl.Flush()

	ch := make(chan string, 8)
	f.streams <- ch
	for {
		select {
		case <-r.Context().Done():
			return
		case chunk, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprint(w, chunk)
			fl.Flush()
		}
	}
}

func newTestClient(t *testing.T, srv *httptest.Server, token string) *Client {
	t.Helper()
	c, err := New(srv.URL+"/v1/", token,
		WithHTTPClient(srv.Client()),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithReconnectDelay(10*time.Millisecond),
	)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestNewRejectsBadEndpoint(t *testing.T) {
	for _, ep := range []string{"", "ftp://example.com", "::nope"} {
		if _, err := New(ep, testToken); err == nil {
			t.Errorf("New(%q) succeeded", ep)
		}
	}
}

func TestCreate(t *testing.T) {
	api, srv := newFakeAPI(t)
	c := newTestClient(t, srv, testToken)

	got, err := c.Create(context.Background(), model.NewTodo{
		Content:   "Buy milk",
		Date:      "2026-10-15T08:00:00.000Z",
		Breakdown: []string{},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	want := model.Todo{ID: "t-1", Content: "Buy milk", Date: "2026-10-15T08:00:00.000Z", Breakdown: []string{}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("created todo mismatch (-want +got):\n%s", diff)
	}

	reqs, bodies := api.log()
	if diff := cmp.Diff([]string{"POST /v1/todos"}, reqs); diff != "" {
		t.Errorf("requests (-want +got):\n%s", diff)
	}
	var sent map[string]any
	if err := json.Unmarshal([]byte(bodies[0]), &sent); err != nil {
		t.Fatal(err)
	}
	wantBody := map[string]any{
		"content":   "Buy milk",
		"isDone":    false,
		"date":      "2026-10-15T08:00:00.000Z",
		"breakdown": []any{},
	}
	if diff := cmp.Diff(wantBody, sent); diff != "" {
		t.Errorf("request body (-want +got):\n%s", diff)
	}
}

func TestUpdateAndDelete(t *testing.T) {
	api, srv := newFakeAPI(t)
	c := newTestClient(t, srv, testToken)
	ctx := context.Background()

	done := true
	got, err := c.Update(ctx, "t-1", model.Patch{IsDone: &done})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !got.IsDone || got.ID != "t-1" {
		t.Errorf("Update returned %+v", got)
	}
	if err := c.Delete(ctx, "t-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	reqs, bodies := api.log()
	if diff := cmp.Diff([]string{"PATCH /v1/todos/t-1", "DELETE /v1/todos/t-1"}, reqs); diff != "" {
		t.Errorf("requests (-want +got):\n%s", diff)
	}
	if bodies[0] != `{"isDone":true}` {
		t.Errorf("patch body = %s", bodies[0])
	}
}

func TestErrorsMapToSentinels(t *testing.T) {
	tests := []struct {
		name   string
		status int
		token  string
		want   error
	}{
		{"bad token", 0, "wrong", backend.ErrUnauthorized},
		{"validation", http.StatusUnprocessableEntity, testToken, backend.ErrValidation},
		{"missing", http.StatusNotFound, testToken, backend.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api, srv := newFakeAPI(t)
			api.status = tt.status
			c := newTestClient(t, srv, tt.token)

			_, err := c.Create(context.Background(), model.NewTodo{Content: "x"})
			if !errors.Is(err, tt.want) {
				t.Fatalf("Create error = %v, want %v", err, tt.want)
			}
			var se *backend.StatusError
			if !errors.As(err, &se) || se.Op != "create" {
				t.Fatalf("want *StatusError for create, got %#v", err)
			}
		})
	}
}

func TestErrorBodyMessage(t *testing.T) {
	api, srv := newFakeAPI(t)
	api.status = http.StatusBadRequest
	c := newTestClient(t, srv, testToken)

	_, err := c.Create(context.Background(), model.NewTodo{})
	if err == nil || !strings.Contains(err.Error(), "content is required") {
		t.Fatalf("error should carry the service message, got %v", err)
	}
}

func TestRequestTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	c, err := New(srv.URL, testToken, WithHTTPClient(srv.Client()), WithRequestTimeout(20*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	err = c.Delete(context.Background(), "t-1")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Delete error = %v, want deadline exceeded", err)
	}
}

func TestSubscribeReplacesSnapshots(t *testing.T) {
	api, srv := newFakeAPI(t)
	c := newTestClient(t, srv, testToken)

	got := make(chan model.Snapshot, 8)
	sub, err := c.Subscribe(context.Background(), func(s model.Snapshot) { got <- s })
	if err != nil {
		t.Fatal(err)
	}
	defer sub.Unsubscribe()

	conn := waitConn(t, api)
	conn <- "event: snapshot\ndata: {\"items\":[{\"id\":\"a\",\"content\":\"A\"},{\"id\":\"b\",\"content\":\"B\",\"isDone\":true}],\"isSynced\":true}\n\n"
	first := waitSnap(t, got)
	if first.Len() != 2 || first.Completed() != 1 || !first.Synced {
		t.Fatalf("first snapshot = %+v", first)
	}

	// Unknown events and comments are ignored; data may span lines.
	conn <- ": keep-alive\n\nevent: ping\ndata: {}\n\n"
	conn <- "data: {\"items\":[{\"id\":\"c\",\n" + "data: \"content\":\"C\"}],\"isSynced\":true}\n\n"
	second := waitSnap(t, got)
	want := []model.Todo{{ID: "c", Content: "C"}}
	if diff := cmp.Diff(want, second.Items); diff != "" {
		t.Errorf("second snapshot (-want +got):\n%s", diff)
	}
}

func TestSubscribeReconnects(t *testing.T) {
	api, srv := newFakeAPI(t)
	c := newTestClient(t, srv, testToken)

	got := make(chan model.Snapshot, 8)
	sub, err := c.Subscribe(context.Background(), func(s model.Snapshot) { got <- s })
	if err != nil {
		t.Fatal(err)
	}
	defer sub.Unsubscribe()

	first := waitConn(t, api)
	first <- "data: {\"items\":[],\"isSynced\":true}\n\n"
	waitSnap(t, got)
	close(first)

	second := waitConn(t, api)
	second <- "data: {\"items\":[{\"id\":\"z\"}],\"isSynced\":true}\n\n"
	if s := waitSnap(t, got); s.Len() != 1 {
		t.Fatalf("snapshot after reconnect has %d items", s.Len())
	}
}

func TestSubscribeStopsOnUnauthorized(t *testing.T) {
	api, srv := newFakeAPI(t)
	c := newTestClient(t, srv, "wrong")

	sub, err := c.Subscribe(context.Background(), func(model.Snapshot) {})
	if err != nil {
		t.Fatal(err)
	}
	s := sub.(*subscription)
	select {
	case <-s.done:
	case <-time.After(time.Second):
		t.Fatal("subscription kept retrying with rejected credentials")
	}
	select {
	case <-api.streams:
		t.Fatal("stream opened without credentials")
	default:
	}
	sub.Unsubscribe()
}

func TestReadEventsEndOfStream(t *testing.T) {
	var got []event
	err := readEvents(strings.NewReader("event: snapshot\ndata: 1\n\ndata: 2\n"), func(ev event) error {
		got = append(got, ev)
		return nil
	})
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("err = %v", err)
	}
	// The trailing event has no terminating blank line and is discarded.
	if diff := cmp.Diff([]event{{name: "snapshot", data: "1"}}, got, cmp.AllowUnexported(event{})); diff != "" {
		t.Errorf("events (-want +got):\n%s", diff)
	}
}

func waitConn(t *testing.T, api *fakeAPI) chan string {
	t.Helper()
	select {
	case ch := <-api.streams:
		return ch
	case <-time.After(2 * time.Second):
		t.Fatal("no observe connection")
	}
	return nil
}

func waitSnap(t *testing.T, ch <-chan model.Snapshot) model.Snapshot {
	t.Helper()
	select {
	case s := <-ch:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot delivered")
	}
	return model.Snapshot{}
}
