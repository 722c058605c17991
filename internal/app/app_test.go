package app

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/florianilch/tokencatch/internal/capture"
	"github.com/florianilch/tokencatch/internal/tokenstore"
	"github.com/florianilch/tokencatch/internal/tray"
)

func newHeadlessConfig(t *testing.T) *Config {
	t.Helper()
	cfg, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	cfg.Server.Port = 0
	cfg.Authorize.RedirectURL = ""
	cfg.Shutdown.Timeout = 2 * time.Second
	cfg.Store.Resolver = tokenstore.StrategyStatic
	cfg.Store.Dir = t.TempDir()
	cfg.Tray.Headless = true
	return cfg
}

func startApp(t *testing.T, a *App) (<-chan error, string) {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- a.Start(context.Background()) }()

	deadline := time.Now().Add(5 * time.Second)
	for a.Addr() == "" {
		if time.Now().After(deadline) {
			t.Fatal("capture listener did not start")
		}
		time.Sleep(10 * time.Millisecond)
	}
	return done, a.Addr()
}

func waitStopped(t *testing.T, done <-chan error) {
	t.Helper()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Start() = %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := newHeadlessConfig(t)
	cfg.Server.Host = "0.0.0.0"

	if _, err := New(cfg); err == nil {
		t.Error("New accepted a non-loopback host")
	}
}

func TestAppCapturesAndQuits(t *testing.T) {
	cfg := newHeadlessConfig(t)
	a, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	done, addr := startApp(t, a)

	resp, err := http.Get("http://" + addr + "/capture?token=abc123")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK || string(body) != "ok" {
		t.Fatalf("response = %d %q, want 200 ok", resp.StatusCode, body)
	}

	data, err := os.ReadFile(filepath.Join(cfg.Store.Dir, tokenstore.Namespace, tokenstore.TokenFileName))
	if err != nil {
		t.Fatalf("reading token file: %v", err)
	}
	if string(data) != "abc123" {
		t.Errorf("token file = %q, want %q", data, "abc123")
	}

	// Closing the window keeps the listener alive
	if !a.Tray().CloseRequested() {
		t.Error("close was not prevented")
	}
	if got := a.Tray().State(); got != tray.StateHidden {
		t.Errorf("tray state = %v, want %v", got, tray.StateHidden)
	}
	resp, err = http.Get("http://" + addr + "/capture?token=xyz789")
	if err != nil {
		t.Fatalf("GET after close: %v", err)
	}
	_ = resp.Body.Close()

	a.Tray().MenuItemClicked(tray.MenuQuit)
	waitStopped(t, done)

	if got := a.Tray().State(); got != tray.StateTerminated {
		t.Errorf("tray state = %v, want %v", got, tray.StateTerminated)
	}
}

func TestAppStopsOnContextCancel(t *testing.T) {
	a, err := New(newHeadlessConfig(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Start(ctx) }()

	deadline := time.Now().Add(5 * time.Second)
	for a.Addr() == "" {
		if time.Now().After(deadline) {
			t.Fatal("capture listener did not start")
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	waitStopped(t, done)
}

func TestAppStartsOnce(t *testing.T) {
	a, err := New(newHeadlessConfig(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	done, _ := startApp(t, a)

	if err := a.Start(context.Background()); err == nil {
		t.Error("second Start succeeded")
	}

	a.Tray().MenuItemClicked(tray.MenuQuit)
	waitStopped(t, done)
}

func TestAppStartFailsOnBusyPort(t *testing.T) {
	first, err := New(newHeadlessConfig(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	done, addr := startApp(t, first)
	defer func() {
		first.Tray().MenuItemClicked(tray.MenuQuit)
		waitStopped(t, done)
	}()

	cfg := newHeadlessConfig(t)
	cfg.Server.Port = listenerPort(t, addr)

	second, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := second.Start(context.Background()); err == nil {
		t.Error("Start on a busy port succeeded")
	}
}

func TestAppRedirectURLFollowsBoundPort(t *testing.T) {
	a, err := New(newHeadlessConfig(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := a.RedirectURL(); got != "" {
		t.Errorf("RedirectURL() before Start = %q, want empty", got)
	}

	done, addr := startApp(t, a)
	defer func() {
		a.Tray().MenuItemClicked(tray.MenuQuit)
		waitStopped(t, done)
	}()

	want := CallbackURL(listenerPort(t, addr))
	if got := a.RedirectURL(); got != want {
		t.Errorf("RedirectURL() = %q, want %q", got, want)
	}
}

func TestAppRedirectURLConfigured(t *testing.T) {
	cfg := newHeadlessConfig(t)
	cfg.Authorize.RedirectURL = "https://bridge.example.com/"
	a, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := a.RedirectURL(); got != cfg.Authorize.RedirectURL {
		t.Errorf("RedirectURL() = %q, want %q", got, cfg.Authorize.RedirectURL)
	}
}

// TestAppImplicitGrantFlow runs the authorization round trip: the URL opened on
// start redirects back to the callback page with the token in the fragment, and
// the page forwards it to the capture route.
func TestAppImplicitGrantFlow(t *testing.T) {
	cfg := newHeadlessConfig(t)
	cfg.Authorize.ClientID = "client-1"
	cfg.Authorize.OpenOnStart = true
	a, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	opened := make(chan string, 1)
	a.openURL = func(_ context.Context, u string) error {
		opened <- u
		return nil
	}

	done, addr := startApp(t, a)
	defer func() {
		a.Tray().MenuItemClicked(tray.MenuQuit)
		waitStopped(t, done)
	}()

	var authURL string
	select {
	case authURL = <-opened:
	case <-time.After(5 * time.Second):
		t.Fatal("authorization URL was not opened")
	}

	parsed, err := url.Parse(authURL)
	if err != nil {
		t.Fatalf("parse authorization URL: %v", err)
	}
	q := parsed.Query()
	if q.Get("response_type") != "token" || q.Get("client_id") != "client-1" {
		t.Errorf("authorization query = %v", q)
	}

	redirect, err := url.Parse(q.Get("redirect_uri"))
	if err != nil {
		t.Fatalf("parse redirect_uri: %v", err)
	}
	if redirect.Path != capture.CallbackPath || redirect.Port() != strconv.Itoa(int(listenerPort(t, addr))) {
		t.Fatalf("redirect_uri = %q, want the callback page on %s", redirect, addr)
	}

	// The provider appends the token as a fragment, which never reaches the server.
	redirect.Fragment = "access_token=tok-42&scope=clips%3Aedit&state=" + q.Get("state") + "&token_type=bearer"
	resp, err := http.Get(redirect.String())
	if err != nil {
		t.Fatalf("GET redirect: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("callback status = %d", resp.StatusCode)
	}

	fragment, err := url.ParseQuery(redirect.Fragment)
	if err != nil {
		t.Fatalf("parse fragment: %v", err)
	}
	forward, err := redirect.Parse(capture.CapturePath + "?" + capture.TokenParam + "=" + url.QueryEscape(fragment.Get("access_token")))
	if err != nil {
		t.Fatalf("resolve capture URL: %v", err)
	}
	resp, err = http.Get(forward.String())
	if err != nil {
		t.Fatalf("GET capture: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("capture status = %d", resp.StatusCode)
	}

	data, err := os.ReadFile(filepath.Join(cfg.Store.Dir, tokenstore.Namespace, tokenstore.TokenFileName))
	if err != nil {
		t.Fatalf("reading token file: %v", err)
	}
	if string(data) != "tok-42" {
		t.Errorf("token file = %q, want %q", data, "tok-42")
	}
}

func TestStatusWindow(t *testing.T) {
	w := newStatusWindow()
	if !w.Visible() {
		t.Fatal("window starts hidden")
	}
	_ = w.Hide()
	if w.Visible() {
		t.Error("window visible after Hide")
	}
	_ = w.Show()
	if !w.Visible() {
		t.Error("window hidden after Show")
	}
}

func listenerPort(t *testing.T, addr string) uint16 {
	t.Helper()
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		t.Fatalf("SplitHostPort(%q): %v", addr, err)
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		t.Fatalf("ParseUint(%q): %v", portStr, err)
	}
	return uint16(port)
}
