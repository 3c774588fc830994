// Package gateway exposes the HTTP surface of warden: decision evaluation,
// override execution, policy administration, audit inspection, and route
// management. Authentication is a bearer JWT whose roles map to action
// capabilities; every error serializes to a single envelope shape.
package gateway
