// Package authorize builds the provider authorization URL that starts a capture.
//
// The provider redirects the browser back to the local listener with the
// token, using the implicit grant (response_type=token):
//
//	u, state := authorize.URL(authorize.Options{
//		ClientID:    clientID,
//		RedirectURL: "http://localhost:8000/capture",
//	})
//
// The default endpoint and scopes target Twitch clip creation.
package authorize
