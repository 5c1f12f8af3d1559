package valkey

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"strconv"

	"github.com/redis/rueidis"

	"github.com/makoye224/cwru-courses-backend/internal/db"
)

const scanCount = 100

// Get returns the item stored under key.
func (s *Store) Get(ctx context.Context, key db.Key) (db.Item, error) {
	cmd := s.b().Hgetall().Key(s.itemKey(key)).Build()
	m, err := s.do(ctx, cmd).AsStrMap()
	if err != nil {
		return db.Item{}, &db.Error{Op: db.OpGet, Err: err}
	}
	if len(m) == 0 {
		return db.Item{}, db.ErrKeyNotFound
	}
	return decodeHash(m)
}

// Put writes the whole item if cond holds. The index set for db.IndexCreatedBy
// is maintained by the same script.
func (s *Store) Put(ctx context.Context, item db.Item, cond db.Precondition) error {
	expected, _ := cond.ExpectedVersion()

	args := make([]string, 0, 10+2*len(item.Attributes))
	args = append(args,
		cond.String(),
		strconv.FormatInt(expected, 10),
		db.IndexCreatedBy,
		item.Attr(db.IndexCreatedBy),
		fieldName, item.Key.Name,
		fieldCode, item.Key.Code,
		fieldVersion, strconv.FormatInt(item.Version, 10),
	)
	for _, k := range sortedKeys(item.Attributes) {
		args = append(args, k, item.Attributes[k])
	}

	keys := []string{s.itemKey(item.Key), s.indexPrefix(db.IndexCreatedBy), s.allKey()}
	written, err := s.putScript.Exec(ctx, s.client, keys, args).AsInt64()
	if err != nil {
		return &db.Error{Op: db.OpPut, Err: err}
	}
	if written == 0 {
		return db.ErrVersionConflict
	}
	return nil
}

// Delete removes the item and its index membership.
func (s *Store) Delete(ctx context.Context, key db.Key) error {
	keys := []string{s.itemKey(key), s.indexPrefix(db.IndexCreatedBy), s.allKey()}
	deleted, err := s.delScript.Exec(ctx, s.client, keys, []string{db.IndexCreatedBy}).AsInt64()
	if err != nil {
		return &db.Error{Op: db.OpDelete, Err: err}
	}
	if deleted == 0 {
		return db.ErrKeyNotFound
	}
	return nil
}

// QueryByIndex yields the items whose indexed attribute equals value, ordered by key.
func (s *Store) QueryByIndex(ctx context.Context, index, value string) iter.Seq2[db.Item, error] {
	return func(yield func(db.Item, error) bool) {
		if index != db.IndexCreatedBy {
			yield(db.Item{}, db.ErrIndexNotFound)
			return
		}

		cmd := s.b().Smembers().Key(s.indexKey(index, value)).Build()
		members, err := s.do(ctx, cmd).AsStrSlice()
		if err != nil {
			yield(db.Item{}, &db.Error{Op: db.OpQuery, Err: err})
			return
		}
		slices.Sort(members)

		for start := 0; start < len(members); start += scanCount {
			end := min(start+scanCount, len(members))
			if !s.yieldHashes(ctx, db.OpQuery, members[start:end], yield) {
				return
			}
		}
	}
}

// ScanAll walks the all-items set with SSCAN and fetches each page with one
// pipelined HGETALL batch.
func (s *Store) ScanAll(ctx context.Context) iter.Seq2[db.Item, error] {
	return func(yield func(db.Item, error) bool) {
		var cursor uint64
		for {
			cmd := s.b().Sscan().Key(s.allKey()).Cursor(cursor).Count(scanCount).Build()
			res, err := s.do(ctx, cmd).AsScanEntry()
			if err != nil {
				yield(db.Item{}, &db.Error{Op: db.OpScan, Err: err})
				return
			}
			if !s.yieldHashes(ctx, db.OpScan, res.Elements, yield) {
				return
			}
			cursor = res.Cursor
			if cursor == 0 {
				return
			}
		}
	}
}

// yieldHashes fetches keys via DoMulti and yields each non-empty hash.
// Keys removed between listing and fetching come back empty and are skipped.
func (s *Store) yieldHashes(
	ctx context.Context, op string, keys []string, yield func(db.Item, error) bool,
) bool {
	if len(keys) == 0 {
		return true
	}

	cmds := make([]rueidis.Completed, len(keys))
	for i, key := range keys {
		cmds[i] = s.b().Hgetall().Key(key).Build()
	}

	for i, res := range s.client.DoMulti(ctx, cmds...) {
		m, err := res.AsStrMap()
		if err != nil {
			yield(db.Item{}, &db.Error{Op: op, Err: fmt.Errorf("key %s: %w", keys[i], err)})
			return false
		}
		if len(m) == 0 {
			continue
		}
		item, err := decodeHash(m)
		if err != nil {
			yield(db.Item{}, err)
			return false
		}
		if !yield(item, nil) {
			return false
		}
	}
	return true
}

func decodeHash(m map[string]string) (db.Item, error) {
	version, err := strconv.ParseInt(m[fieldVersion], 10, 64)
	if err != nil {
		return db.Item{}, fmt.Errorf("parse %s of %s/%s: %w", fieldVersion, m[fieldName], m[fieldCode], err)
	}

	item := db.Item{
		Key:        db.Key{Name: m[fieldName], Code: m[fieldCode]},
		Version:    version,
		Attributes: make(map[string]string, len(m)),
	}
	for k, v := range m {
		switch k {
		case fieldName, fieldCode, fieldVersion:
		default:
			item.Attributes[k] = v
		}
	}
	return item, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
