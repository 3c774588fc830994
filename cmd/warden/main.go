// Warden is a policy decision and model-routing gateway for LLM traffic.
//
// It evaluates requests against declarative policy rules, selects a model
// endpoint from the governed pools, and records every decision in a
// tamper-evident audit chain.
//
// Usage:
//
//	# Start the gateway with the default configuration
//	warden run
//
//	# Start with a configuration file
//	warden run --config /etc/warden/config.yaml
//
//	# Validate policy documents without loading them
//	warden lint --file policies/au-compliance.json
//
//	# Show version information
//	warden version
package main

func main() {
	Execute()
}
