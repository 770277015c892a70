// Managedctl exercises the managed object runtime and its caches.
//
// Usage:
//
//	# Run the self-check workload and report leaked objects
//	managedctl check --atoms 64
//
//	# Run with internal checks enabled
//	MANAGED_CHECK_LEVEL=usage_and_internal managedctl check
//
//	# Serve Prometheus metrics for the workload
//	managedctl serve --addr :9090
//
//	# Print the effective configuration
//	managedctl config --config managed.yaml
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
