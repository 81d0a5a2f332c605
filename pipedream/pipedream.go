// Package pipedream implements [relay.TokenSource] for the Pipedream
// REST API.
//
// It exchanges OAuth client credentials for a short-lived bearer token
// via the client-credentials grant. Each FetchToken call is a single
// synchronous request: there is no caching, no background refresh and
// no retry. Re-running the exchange is the refresh mechanism.
package pipedream

import "time"

const (
	// DefaultTokenURL is the Pipedream OAuth token endpoint.
	DefaultTokenURL = "https://api.pipedream.com/v1/oauth/token"

	// DefaultTTL is assumed when the token response omits expires_in.
	// Pipedream documents a one hour lifetime, but the value is
	// configuration rather than a contract.
	DefaultTTL = time.Hour

	defaultTimeout = 30 * time.Second
)
