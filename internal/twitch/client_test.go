package twitch

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
)

const (
	testClientID = "client-1"
	testToken    = "abc123"
)

// fakeHelix serves the Helix endpoints the client uses.
type fakeHelix struct {
	mu     sync.Mutex
	users  map[string]User // by login
	me     string
	live   map[string]bool // by broadcaster id
	clips  int
	status int // forced error status, 0 for none
}

func newFakeHelix() *fakeHelix {
	return &fakeHelix{
		users: map[string]User{
			"caffeine": {ID: "141981764", Login: "caffeine", DisplayName: "Caffeine"},
			"viewer":   {ID: "555", Login: "viewer", DisplayName: "Viewer"},
		},
		me:   "viewer",
		live: map[string]bool{"141981764": true},
	}
}

func (f *fakeHelix) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")

	if r.Header.Get("Authorization") != "Bearer "+testToken || r.Header.Get("Client-Id") != testClientID {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"Unauthorized","status":401,"message":"Invalid OAuth token"}`))
		return
	}
	if f.status != 0 {
		w.WriteHeader(f.status)
		_, _ = w.Write([]byte(`{"error":"` + http.StatusText(f.status) + `","status":` + strconv.Itoa(f.status) + `,"message":"forced"}`))
		return
	}

	q := r.URL.Query()
	var data any
	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/users":
		login := q.Get("login")
		if login == "" {
			login = f.me
		}
		users := []User{}
		if u, ok := f.users[login]; ok {
			users = append(users, u)
		}
		data = users
	case r.Method == http.MethodGet && r.URL.Path == "/streams":
		streams := []stream{}
		if id := q.Get("user_id"); f.live[id] {
			streams = append(streams, stream{ID: "s-" + id, UserID: id, Type: "live"})
		}
		data = streams
	case r.Method == http.MethodPost && r.URL.Path == "/clips":
		id := q.Get("broadcaster_id")
		if !f.live[id] {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"Not Found","status":404,"message":"Clipping is not possible for an offline channel."}`))
			return
		}
		f.clips++
		clipID := "Clip" + strconv.Itoa(f.clips)
		data = []Clip{{ID: clipID, EditURL: "https://clips.twitch.tv/" + clipID + "/edit"}}
		w.WriteHeader(http.StatusAccepted)
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"Not Found","status":404}`))
		return
	}

	_ = json.NewEncoder(w).Encode(map[string]any{"data": data})
}

func (f *fakeHelix) clipCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.clips
}

func (f *fakeHelix) failWith(status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = status
}

func newTestClient(t *testing.T, helix http.Handler) *Client {
	t.Helper()
	ts := httptest.NewServer(helix)
	t.Cleanup(ts.Close)

	client, err := NewStaticClient(testClientID, testToken, WithBaseURL(ts.URL))
	if err != nil {
		t.Fatalf("NewStaticClient: %v", err)
	}
	return client
}

func TestNewClientValidation(t *testing.T) {
	if _, err := NewStaticClient("", testToken); err == nil {
		t.Error("accepted empty client id")
	}
	if _, err := NewStaticClient(testClientID, ""); err == nil {
		t.Error("accepted empty token")
	}
	if _, err := NewClient(testClientID, nil); err == nil {
		t.Error("accepted nil token source")
	}
}

func TestCurrentUser(t *testing.T) {
	client := newTestClient(t, newFakeHelix())

	user, err := client.CurrentUser(context.Background())
	if err != nil {
		t.Fatalf("CurrentUser: %v", err)
	}
	if user.Login != "viewer" || user.ID != "555" {
		t.Errorf("user = %+v", user)
	}
}

func TestUserByLogin(t *testing.T) {
	client := newTestClient(t, newFakeHelix())

	user, err := client.UserByLogin(context.Background(), "caffeine")
	if err != nil {
		t.Fatalf("UserByLogin: %v", err)
	}
	if user.ID != "141981764" {
		t.Errorf("id = %q", user.ID)
	}

	if _, err := client.UserByLogin(context.Background(), "nobody"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown login: err = %v, want ErrNotFound", err)
	}
}

func TestIsLive(t *testing.T) {
	client := newTestClient(t, newFakeHelix())

	tests := []struct {
		id   string
		want bool
	}{
		{id: "141981764", want: true},
		{id: "555", want: false},
	}
	for _, tt := range tests {
		got, err := client.IsLive(context.Background(), tt.id)
		if err != nil {
			t.Fatalf("IsLive(%s): %v", tt.id, err)
		}
		if got != tt.want {
			t.Errorf("IsLive(%s) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestCreateClip(t *testing.T) {
	client := newTestClient(t, newFakeHelix())

	clip, err := client.CreateClip(context.Background(), "141981764")
	if err != nil {
		t.Fatalf("CreateClip: %v", err)
	}
	if clip.ID != "Clip1" || clip.EditURL != "https://clips.twitch.tv/Clip1/edit" {
		t.Errorf("clip = %+v", clip)
	}

	_, err = client.CreateClip(context.Background(), "555")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusNotFound {
		t.Errorf("offline channel: err = %v, want 404 APIError", err)
	}
}

func TestAPIErrors(t *testing.T) {
	helix := newFakeHelix()
	ts := httptest.NewServer(helix)
	defer ts.Close()

	wrongToken, err := NewStaticClient(testClientID, "expired", WithBaseURL(ts.URL))
	if err != nil {
		t.Fatalf("NewStaticClient: %v", err)
	}
	_, err = wrongToken.CurrentUser(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized || apiErr.Message != "Invalid OAuth token" {
		t.Errorf("api error = %+v", apiErr)
	}

	helix.failWith(http.StatusTooManyRequests)
	client, err := NewStaticClient(testClientID, testToken, WithBaseURL(ts.URL))
	if err != nil {
		t.Fatalf("NewStaticClient: %v", err)
	}
	_, err = client.IsLive(context.Background(), "141981764")
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("err = %v, want 429 APIError", err)
	}
}

func TestNonJSONError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))

	_, err := client.CurrentUser(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusBadGateway {
		t.Errorf("err = %v, want 502 APIError", err)
	}
}
