// Package library owns the on-disk audio library: the dedup [Index], the one-shot scan that
// builds it, the Artist/Album/Title path layout and atomic placement of fetched files.
//
// # Claim protocol
//
// Every read or write of the index by a download job goes through [Index.Claim]:
//
//  1. Claim atomically tests every dedup key of a source. If any key is already held
//     (by a finalized entry or by another job's placeholder) the caller receives a
//     [Duplicate] and must not fetch.
//  2. Otherwise placeholders are inserted for all keys under a single [Claim] token.
//  3. The owner either calls [Index.Finalize] after a successful placement or
//     [Index.Release] on any failure, so a key never stays blocked.
//
// The index mutex guards the map only; no lock is held across a fetch.
package library
