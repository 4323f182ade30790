// Package storage defines the interfaces for storing objects, references
// and any information related to a particular repository.
package storage

import (
	"errors"
	"fmt"

	"github.com/coreforge/gitcore/config"
	formatcfg "github.com/coreforge/gitcore/plumbing/format/config"
	"github.com/coreforge/gitcore/plumbing"
	"github.com/coreforge/gitcore/plumbing/storer"
)

// ErrReferenceHasChanged is returned when an atomic compare-and-swap operation fails
// because the reference has changed concurrently.
var ErrReferenceHasChanged = errors.New("reference has changed concurrently")

// Storer is a generic storage of objects, references and any information
// related to a particular repository. The package github.com/coreforge/gitcore/storage
// contains an ephemeral in-memory implementation (storage/memory) and a
// transactional wrapper over two Storers (storage/transactional)
type Storer interface {
	storer.EncodedObjectStorer
	storer.ReferenceStorer
	storer.ShallowStorer
	storer.IndexStorer
	config.ConfigStorer
	ModuleStorer
}

// ObjectFormatSetter is implemented by storage backends that support
// configuring the object format (hash algorithm) used for the repository.
type ObjectFormatSetter interface {
	// SetObjectFormat configures the object format (hash algorithm) for this storage.
	SetObjectFormat(formatcfg.ObjectFormat) error
}

// ModuleStorer allows interact with the modules' Storers
type ModuleStorer interface {
	// Module returns a Storer representing a submodule, if not exists returns a
	// new empty Storer is returned
	Module(name string) (Storer, error)
}

// FetchHeadEntry is one candidate recorded by a fetch, mirroring a single
// FETCH_HEAD line: the hash fetched, whether it is eligible to be merged
// into the current branch, and a human-readable description of where it
// came from (e.g. "refs/heads/main of https://example.com/repo.git").
type FetchHeadEntry struct {
	Hash       plumbing.Hash
	MergeThis  bool
	Descriptor string
}

// String renders the entry in FETCH_HEAD's line format:
// "<hash>\t<not-for-merge>\t<descriptor>", where the middle field is the
// literal string "not-for-merge" when MergeThis is false and empty
// otherwise.
func (e FetchHeadEntry) String() string {
	flag := "not-for-merge"
	if e.MergeThis {
		flag = ""
	}

	return fmt.Sprintf("%s\t%s\t%s", e.Hash, flag, e.Descriptor)
}

// FetchHeadStorer is implemented by storage backends that can persist the
// FETCH_HEAD list produced by a fetch. Backends that don't implement it
// (e.g. a bare object cache with no notion of FETCH_HEAD) simply skip the
// write; callers type-assert for it the way ObjectFormatSetter is used.
type FetchHeadStorer interface {
	// SetFetchHead replaces the stored FETCH_HEAD with entries, in order.
	SetFetchHead(entries []FetchHeadEntry) error
	// FetchHead returns the last stored FETCH_HEAD entries, in order.
	FetchHead() ([]FetchHeadEntry, error)
}
