// Package bookledger provides a deterministic ledger of book entries for Go
// applications.
//
// A book entry is an owner-tagged listing of some amount of an asset at a
// price. The ledger is a library, not a service: the host feeds it one
// transition at a time with an already-authenticated requester, and every
// transition commits atomically through a pluggable store. Given the same
// prior state and the same input, every call returns the same result and
// leaves the same state behind.
//
// # Quick Start
//
//	import (
//	    "github.com/xraph/bookledger"
//	    "github.com/xraph/bookledger/store/memory"
//	)
//
//	l := bookledger.New(memory.New())
//	if err := l.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer l.Stop()
//
//	r, err := l.Create(ctx, alice, asset, bookledger.NewQuantity(100), bookledger.NewQuantity(15))
//
// # Identities
//
// Entry identities come from a single persisted counter. The first entry is
// 1, each creation adds one, and an identity is never reissued even after
// its entry is deleted. When the counter reaches its ceiling, creation fails
// with ErrSequenceOverflow while existing entries stay readable and mutable.
//
// # Ownership
//
// Whoever creates an entry owns it. Only the owner may update or delete it;
// anyone else receives ErrUnauthorized and the store is left untouched.
// Reads are public.
//
// # Listing
//
// List returns entries in ascending identity order. StartAfter is an
// exclusive bound that need not name an existing entry, so the last id of a
// page is always a valid cursor for the next one. The page size defaults to
// 10 and is clamped to 30.
//
// # Stores
//
// Backends live under store/: memory, pebble, sqlite, postgres and mongo.
// Each applies the sequence step inside its own atomic primitive so the new
// counter value and the new entry are committed together.
package bookledger
