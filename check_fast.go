//go:build managed_fast

package managed

const checksCompiled = false
