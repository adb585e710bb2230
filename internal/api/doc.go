// Package api provides the HTTP and WebSocket surface of the bridge.
//
// It exposes the two vendor fulfillment endpoints, a canonical device
// read surface, and a per-user WebSocket stream of committed state
// changes. Vendor endpoints authenticate with bearer JWTs scoped to the
// vendor the token was issued for.
//
// The server follows the same lifecycle pattern as the infrastructure
// components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api
