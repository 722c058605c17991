// Package capture implements the loopback listener that receives redirected
// authentication tokens.
//
// The listener exposes two routes:
//
//	GET /capture?token=<value>
//	GET /callback
//
// A capture request carrying a non-empty token is written to the configured
// [tokenstore.TokenStore] and answered with "ok". A missing or empty token is
// rejected with 400, a storage failure with 500; neither stops the listener.
//
// The callback page is the redirect target for implicit-grant authorization.
// Providers put the access token in the URL fragment, so the page reads it in
// the browser and calls /capture itself.
//
// With CORS enabled (the default), every response carries permissive
// Access-Control-Allow-* headers and OPTIONS requests on any path are answered
// with an empty 200.
package capture
