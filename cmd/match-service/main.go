// match-service
//
// Swipe ledger, match resolution and interview scheduling for ToothMatch.
// Exposes a REST API for likes, matches and interviews, an SSE stream of
// per-user domain events, and a gRPC chat authorization service used by
// the chat backend.
//
// Commands:
//   - serve    run the HTTP and gRPC servers and the sweep scheduler
//   - migrate  apply the embedded SQL migrations
//   - version  print the build version
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
