package cache_test

import (
	"bytes"
	"errors"
	"fmt"
	"iter"
	"slices"
	"strings"
	"testing"

	"github.com/djdv/go-managed"
	"github.com/djdv/go-managed/cache"
)

// shape is a managed value that counts its destruction.
type shape struct {
	managed.Entity
	size      int
	destroyed *int
}

func newShape(size int, destroyed *int) *shape {
	s := &shape{size: size, destroyed: destroyed}
	managed.Init(s, fmt.Sprintf("shape-%d-%%1%%", size))
	return s
}

func (s *shape) Destroy() error {
	if s.destroyed != nil {
		*s.destroyed++
	}
	return nil
}

func sameSize(a, b *shape) bool { return a.size == b.size }

func equal[Value comparable](a, b Value) bool { return a == b }

func newLRU[
	Key comparable, Value any,
](
	tb testing.TB,
	generate cache.Generator[Key, Value], maxSize int,
) *cache.LRUCache[Key, Value] {
	tb.Helper()
	lru, err := cache.NewLRUCache(generate, nil, maxSize)
	if err != nil {
		tb.Fatal(err)
	}
	tb.Cleanup(lru.Close)
	return lru
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

func checkValue[Value comparable](tb testing.TB, got, want Value, msg string) {
	tb.Helper()
	if got == want {
		return
	}
	tb.Fatalf(
		"expected value to match %s"+
			"\n\tgot: %v"+
			"\n\twant: %v",
		msg, got, want)
}

func checkSize(tb testing.TB, got, want int, action string) {
	tb.Helper()
	if got == want {
		return
	}
	tb.Fatalf(
		"expected cache to be specific size %s"+
			"\n\tgot: %d"+
			"\n\twant: %d",
		action, got, want)
}

func checkKeys[Key comparable](tb testing.TB, seq iter.Seq[Key], want []Key, msg string) {
	tb.Helper()
	got := slices.Collect(seq)
	if slices.Equal(got, want) {
		return
	}
	tb.Fatalf(
		"expected keys to match %s"+
			"\n\tgot: %v"+
			"\n\twant: %v",
		msg, got, want)
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

func checkLogged(tb testing.TB, log *bytes.Buffer, msg string, want int) {
	tb.Helper()
	got := strings.Count(log.String(), msg)
	if got == want {
		return
	}
	tb.Fatalf(
		"expected %q to be logged %d times"+
			"\n\tgot: %d"+
			"\n\tlog: %s",
		msg, want, got, log.String())
}
