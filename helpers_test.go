package managed_test

import (
	"bytes"
	"errors"
	"fmt"
	"slices"
	"testing"

	"github.com/djdv/go-managed"
)

type probe struct {
	managed.Entity
	destroyed *int
	cleared   int
	destroy   func() error
}

func newProbe(name string, destroyed *int) *probe {
	p := &probe{destroyed: destroyed}
	managed.Init(p, name)
	return p
}

func (p *probe) Destroy() error {
	if p.destroyed != nil {
		*p.destroyed++
	}
	if p.destroy != nil {
		return p.destroy()
	}
	return nil
}

func (p *probe) ClearCaches() { p.cleared++ }

// uniqueName keeps placeholder counters and live-object names
// of different tests apart.
func uniqueName(tb testing.TB, suffix string) string {
	tb.Helper()
	return fmt.Sprintf("%s/%s", tb.Name(), suffix)
}

func mustFault(tb testing.TB, kind error, action string, fn func()) {
	tb.Helper()
	defer func() {
		tb.Helper()
		recovered := recover()
		err, ok := recovered.(error)
		if ok && errors.Is(err, kind) {
			return
		}
		tb.Fatalf(
			"expected %s to fail with %q"+
				"\n\tgot: %v",
			action, kind, recovered)
	}()
	fn()
}

func checkRefs(tb testing.TB, object interface{ RefCount() int }, want int, action string) {
	tb.Helper()
	got := object.RefCount()
	if got == want {
		return
	}
	tb.Fatalf(
		"expected reference count %s"+
			"\n\tgot: %d"+
			"\n\twant: %d",
		action, got, want)
}

func checkCount(tb testing.TB, what string, got, want int) {
	tb.Helper()
	if got == want {
		return
	}
	tb.Fatalf(
		"unexpected %s"+
			"\n\tgot: %d"+
			"\n\twant: %d",
		what, got, want)
}

func checkLive(tb testing.TB, name string, want bool) {
	tb.Helper()
	got := slices.Contains(managed.LiveObjectNames(), name)
	if got == want {
		return
	}
	tb.Fatalf(
		"expected %q live=%t, got live=%t",
		name, want, got)
}

// captureLog routes the process logger into a buffer
// until the test ends.
func captureLog(tb testing.TB, level managed.LogLevel) *bytes.Buffer {
	tb.Helper()
	var (
		buffer      bytes.Buffer
		loggerGuard = managed.OverrideLogger(managed.NewTextLogger(&buffer))
		levelGuard  = managed.OverrideLogLevel(level)
	)
	tb.Cleanup(func() {
		levelGuard.Reset()
		loggerGuard.Reset()
	})
	return &buffer
}
