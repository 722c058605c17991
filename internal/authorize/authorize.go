package authorize

import (
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// Endpoint defines the OAuth2 endpoints for Twitch authentication.
var Endpoint = oauth2.Endpoint{
	AuthURL:   "https://id.twitch.tv/oauth2/authorize",
	TokenURL:  "https://id.twitch.tv/oauth2/token",
	AuthStyle: oauth2.AuthStyleInParams,
}

// DefaultScopes are requested when Options.Scopes is empty.
var DefaultScopes = []string{"clips:edit"}

// Options describes an authorization request.
type Options struct {
	ClientID    string
	RedirectURL string
	Scopes      []string
	// Endpoint overrides the provider endpoint; zero value uses Endpoint.
	Endpoint oauth2.Endpoint
	// State is echoed back by the provider; empty generates a random one.
	State string
}

// URL returns the implicit-grant authorization URL and the state it carries.
func URL(opts Options) (string, string) {
	endpoint := opts.Endpoint
	if endpoint.AuthURL == "" {
		endpoint = Endpoint
	}
	scopes := opts.Scopes
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}
	state := opts.State
	if state == "" {
		state = uuid.NewString()
	}

	cfg := &oauth2.Config{
		ClientID:    opts.ClientID,
		Endpoint:    endpoint,
		RedirectURL: opts.RedirectURL,
		Scopes:      scopes,
	}

	return cfg.AuthCodeURL(state, oauth2.SetAuthURLParam("response_type", "token")), state
}
