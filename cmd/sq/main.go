// sq is an offline-first personal quest tracker.
//
// Every command works without a network connection: writes land in the
// local SQLite database first and sync to the server when it is
// reachable again.
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
