// Command fixscan decodes and verifies FIX tag=value messages from message
// logs, raw streams and packet captures.
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
