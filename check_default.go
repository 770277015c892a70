//go:build !managed_fast

package managed

// checksCompiled gates usage and internal checks.
// Build with the managed_fast tag to compile them away.
const checksCompiled = true
