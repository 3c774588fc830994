// Package server runs the gateway's HTTP listener with graceful shutdown.
package server
