package twitch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/oauth2"
)

// DefaultBaseURL is the Helix API root.
const DefaultBaseURL = "https://api.twitch.tv/helix"

// ErrNotFound is returned when Helix answers with an empty data list.
var ErrNotFound = errors.New("not found")

// User is a Helix user.
type User struct {
	ID          string `json:"id"`
	Login       string `json:"login"`
	DisplayName string `json:"display_name"`
}

// Clip is the result of a clip creation. EditURL stays valid for a limited time.
type Clip struct {
	ID      string `json:"id"`
	EditURL string `json:"edit_url"`
}

type stream struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	Type   string `json:"type"`
}

// APIError is the error body Helix returns with non-2xx responses.
type APIError struct {
	StatusCode int    `json:"status"`
	Reason     string `json:"error"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("helix: %d %s: %s", e.StatusCode, e.Reason, e.Message)
	}
	return fmt.Sprintf("helix: %d %s", e.StatusCode, e.Reason)
}

// Option configures a Client.
type Option func(*resty.Client)

// WithBaseURL points the client at another Helix root.
func WithBaseURL(baseURL string) Option {
	return func(c *resty.Client) {
		c.SetBaseURL(baseURL)
	}
}

// WithTimeout bounds every request. Defaults to 15 seconds.
func WithTimeout(timeout time.Duration) Option {
	return func(c *resty.Client) {
		c.SetTimeout(timeout)
	}
}

// Client calls Helix on behalf of the user the token belongs to.
type Client struct {
	http *resty.Client
}

// NewClient creates a Client authenticating with tokens from ts. clientID must
// be the client the token was issued to.
func NewClient(clientID string, ts oauth2.TokenSource, opts ...Option) (*Client, error) {
	if clientID == "" {
		return nil, errors.New("client id cannot be empty")
	}
	if ts == nil {
		return nil, errors.New("token source cannot be nil")
	}

	// oauth2's transport sets the bearer header on every request
	rc := resty.NewWithClient(oauth2.NewClient(context.Background(), ts)).
		SetBaseURL(DefaultBaseURL).
		SetTimeout(15*time.Second).
		SetHeader("Client-Id", clientID).
		SetHeader("Accept", "application/json")
	for _, opt := range opts {
		opt(rc)
	}

	return &Client{http: rc}, nil
}

// NewStaticClient creates a Client for a fixed access token, such as a captured one.
func NewStaticClient(clientID, accessToken string, opts ...Option) (*Client, error) {
	if accessToken == "" {
		return nil, errors.New("access token cannot be empty")
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
	return NewClient(clientID, ts, opts...)
}

// CurrentUser returns the user the token belongs to.
func (c *Client) CurrentUser(ctx context.Context) (User, error) {
	return first[User](ctx, c, http.MethodGet, "/users", nil)
}

// UserByLogin looks up a user by login name.
func (c *Client) UserByLogin(ctx context.Context, login string) (User, error) {
	if login == "" {
		return User{}, errors.New("login cannot be empty")
	}
	return first[User](ctx, c, http.MethodGet, "/users", map[string]string{"login": login})
}

// IsLive reports whether the broadcaster is currently streaming.
func (c *Client) IsLive(ctx context.Context, broadcasterID string) (bool, error) {
	streams, err := list[stream](ctx, c, http.MethodGet, "/streams", map[string]string{"user_id": broadcasterID})
	if err != nil {
		return false, err
	}
	return len(streams) > 0, nil
}

// CreateClip clips the broadcaster's live stream. Requires the clips:edit scope.
func (c *Client) CreateClip(ctx context.Context, broadcasterID string) (Clip, error) {
	if broadcasterID == "" {
		return Clip{}, errors.New("broadcaster id cannot be empty")
	}
	clip, err := first[Clip](ctx, c, http.MethodPost, "/clips", map[string]string{"broadcaster_id": broadcasterID})
	if err != nil {
		return Clip{}, err
	}
	if clip.EditURL == "" {
		return Clip{}, fmt.Errorf("clip %s: no edit URL returned", clip.ID)
	}
	return clip, nil
}

type envelope[T any] struct {
	Data []T `json:"data"`
}

func list[T any](ctx context.Context, c *Client, method, path string, query map[string]string) ([]T, error) {
	var out envelope[T]
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(query).
		SetResult(&out).
		SetError(&APIError{}).
		Execute(method, path)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}

	if resp.IsError() {
		if apiErr, ok := resp.Error().(*APIError); ok && apiErr.Reason != "" {
			apiErr.StatusCode = resp.StatusCode()
			return nil, apiErr
		}
		return nil, &APIError{StatusCode: resp.StatusCode(), Reason: http.StatusText(resp.StatusCode())}
	}

	return out.Data, nil
}

func first[T any](ctx context.Context, c *Client, method, path string, query map[string]string) (T, error) {
	var zero T
	items, err := list[T](ctx, c, method, path, query)
	if err != nil {
		return zero, err
	}
	if len(items) == 0 {
		return zero, fmt.Errorf("%s %s: %w", method, path, ErrNotFound)
	}
	return items[0], nil
}
