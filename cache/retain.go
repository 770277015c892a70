package cache

import "github.com/djdv/go-managed"

// retained owns the managed keys and values of one cache entry.
// Entries are members of the cache, so holding one marks it used.
type retained []*managed.PointerMember[managed.Object]

// retain takes a reference on every item that is a managed object.
func retain(items ...any) retained {
	var held retained
	for _, item := range items {
		object, ok := item.(managed.Object)
		if !ok {
			continue
		}
		if handle := managed.NewPointerMember(object); !handle.IsNil() {
			held = append(held, handle)
		}
	}
	return held
}

func (held retained) release() {
	for _, handle := range held {
		handle.Close()
	}
}

// discard disposes of generated values which will not be cached.
// Managed objects no one else owns are destroyed; they are not
// marked used, so unconsumed ones are still reported.
func discard(items ...any) {
	for _, item := range items {
		if object, ok := item.(managed.Object); ok {
			managed.NewPointer(object).Close()
		}
	}
}
