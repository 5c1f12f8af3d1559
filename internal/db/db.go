package db

import (
	"context"
	"iter"
	"time"
)

// IndexCreatedBy is the secondary index over the createdBy attribute.
const IndexCreatedBy = "createdBy"

// Store is the main database facade combining all sub-interfaces.
type Store interface {
	Pinger
	DocumentStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// DocumentStore is a key-value item store keyed by (name, code) with
// conditional writes and a createdBy secondary index.
type DocumentStore interface {
	// Get returns ErrKeyNotFound when no item is stored under key.
	Get(ctx context.Context, key Key) (Item, error)
	// Put writes item atomically if cond holds, otherwise returns ErrVersionConflict.
	Put(ctx context.Context, item Item, cond Precondition) error
	// QueryByIndex yields every item whose index attribute equals value.
	QueryByIndex(ctx context.Context, index, value string) iter.Seq2[Item, error]
	// ScanAll yields every stored item. Iteration stops at the first error.
	ScanAll(ctx context.Context) iter.Seq2[Item, error]
	// Delete returns ErrKeyNotFound when no item is stored under key.
	Delete(ctx context.Context, key Key) error
}

// Key is the primary key of an item: partition key name, sort key code.
type Key struct {
	Name string
	Code string
}

func (k Key) String() string { return k.Name + "/" + k.Code }

// Item is the flat storage representation of a document.
// Attributes never contain the key or version; those live in dedicated fields.
type Item struct {
	Key        Key
	Version    int64
	Attributes map[string]string
}

// Attr returns the named attribute or "" when absent.
func (it Item) Attr(name string) string {
	return it.Attributes[name]
}

type preconditionKind int

const (
	condAny preconditionKind = iota
	condAbsent
	condVersion
)

// Precondition gates a Put: unconditional, key must not exist,
// or stored version must equal an expected value.
type Precondition struct {
	kind    preconditionKind
	version int64
}

// Any is an unconditional write.
func Any() Precondition { return Precondition{kind: condAny} }

// Absent requires that no item exists under the key.
func Absent() Precondition { return Precondition{kind: condAbsent} }

// AtVersion requires the stored item to exist with exactly version v.
func AtVersion(v int64) Precondition { return Precondition{kind: condVersion, version: v} }

// IsAny reports whether the write is unconditional.
func (p Precondition) IsAny() bool { return p.kind == condAny }

// IsAbsent reports whether the write requires a missing key.
func (p Precondition) IsAbsent() bool { return p.kind == condAbsent }

// ExpectedVersion returns the version the stored item must carry, if any.
func (p Precondition) ExpectedVersion() (int64, bool) {
	return p.version, p.kind == condVersion
}

// Allows reports whether a write is permitted given the current stored state.
// Backends without a native conditional write use it under their own atomicity.
func (p Precondition) Allows(exists bool, current int64) bool {
	switch p.kind {
	case condAbsent:
		return !exists
	case condVersion:
		return exists && current == p.version
	default:
		return true
	}
}

func (p Precondition) String() string {
	switch p.kind {
	case condAbsent:
		return "absent"
	case condVersion:
		return "version"
	default:
		return "any"
	}
}

// Collect drains a sequence into a slice, returning the first error.
func Collect(seq iter.Seq2[Item, error]) ([]Item, error) {
	var items []Item
	for it, err := range seq {
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, nil
}
