// Package cache implements memoizing caches over generator functions.
//
//   - [Memoizer] caches the single result of a generator.
//   - [LRUCache] caches per-key results, bounded by a maximum size,
//     evicting the least recently used key first.
//   - [PairMemoizer] caches a sparse symmetric relation over a domain
//     of keys, and regenerates only the entries of removed keys.
//
// Generators must be deterministic: a cached value is assumed
// to equal what the generator would produce now. When internal
// checks are enabled ([managed.UsageAndInternal]) the caches
// verify this with the checker given at construction, and a
// mismatch panics with [managed.ErrInternal]. [LRUCache] hits
// are exempt, so that floating point generators may be cached.
//
// Keys and values which are [managed.Object]s are owned by the
// cache (through [managed.Pointer]s) while they are cached.
// Values produced only for validation, or superseded during a
// recursive generation, are discarded, which destroys managed
// objects nobody else owns.
//
// Dual indices:
//
//   - LRUCache
//
//     A map from key to ring element, and the ring itself
//     ordered from most to least recently used.
//
//   - PairMemoizer
//
//     A map from ordered key pair to entry, plus one index per side
//     of the pair so that every entry mentioning a key can be found.
//     At most one orientation of each unordered pair is stored.
//
// None of the caches are safe for concurrent use.
package cache
