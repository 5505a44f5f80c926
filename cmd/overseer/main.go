// Overseer is a companion dashboard for Janitorr.
//
// It reads Janitorr's activity log and configuration to show which media is
// scheduled for deletion and when, without deleting anything itself:
//   - Reconstructs the latest deletion scan from the log
//   - Projects deletion dates from the configured retention windows
//   - Reports the health of the Janitorr installation and Jellyfin
//   - Lets administrators edit Janitorr's configuration with a diff preview
//
// Usage:
//
//	# Start the dashboard
//	overseer run
//
//	# Start with a custom settings file
//	overseer run --config /etc/overseer/overseer.yaml
//
//	# Print the current deletion schedule
//	overseer schedule --output json
//
//	# Show the last 50 log lines
//	overseer tail -n 50
//
//	# Generate a session secret
//	overseer keygen
package main

import "os"

func main() {
	os.Exit(Execute())
}
