// Courier is a read-only relay in front of a chat platform's message API.
//
// It exposes a small JSON surface for browser clients that cannot hold the
// bot credential themselves:
//   - /health: liveness probe
//   - /messages: recent channel messages, normalized and briefly cached
//   - /lookup: scan a channel's recent history for a registration record
//
// Usage:
//
//	# Start with default configuration
//	courier run
//
//	# Start with a custom configuration file
//	courier run --config /etc/courier/config.yaml
//
//	# Validate a configuration file
//	courier validate --config config.yaml
//
//	# Show version information
//	courier version
package main

func main() {
	Execute()
}
