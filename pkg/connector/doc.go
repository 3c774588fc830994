// Package connector hands a routed request to a model endpoint. Live
// provider adapters are external collaborators; this package defines the
// interface they implement plus a deterministic stub used when no live
// connector is configured.
package connector
