package valkey

import (
	"context"
	"errors"
	"testing"

	"github.com/redis/rueidis"
	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"

	"github.com/makoye224/cwru-courses-backend/internal/db"
)

// --- client.go tests ---

func TestPing_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.Result(mock.RedisString("PONG")))

	s := NewStoreForTest(c)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPing_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	err := s.Ping(context.Background())
	if !isDBError(err) {
		t.Fatalf("expected db.Error, got %v", err)
	}
}

// --- keys.go tests ---

func TestItemKey_EscapesSeparators(t *testing.T) {
	s := NewStoreForTest(nil)
	got := s.itemKey(db.Key{Name: "Intro: Logic", Code: "CS*101"})
	want := "{courses}:course:Intro%3A+Logic:CS%2A101"
	if got != want {
		t.Errorf("itemKey = %q, want %q", got, want)
	}
}

func TestIndexKey(t *testing.T) {
	s := NewStoreForTest(nil)
	if got := s.indexKey(db.IndexCreatedBy, "u1"); got != "{courses}:idx:createdBy:u1" {
		t.Errorf("indexKey = %q", got)
	}
}

// --- store.go tests ---

func courseHash(name, code, version, createdBy string) rueidis.RedisMessage {
	return mock.RedisMap(map[string]rueidis.RedisMessage{
		fieldName:    mock.RedisString(name),
		fieldCode:    mock.RedisString(code),
		fieldVersion: mock.RedisString(version),
		"createdBy":  mock.RedisString(createdBy),
		"title":      mock.RedisString(code + " " + name),
	})
}

func TestGet_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("HGETALL", "{courses}:course:Discrete+Math:CSDS101")).
		Return(mock.Result(courseHash("Discrete Math", "CSDS101", "3", "u1")))

	s := NewStoreForTest(c)
	item, err := s.Get(context.Background(), db.Key{Name: "Discrete Math", Code: "CSDS101"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item.Key.Name != "Discrete Math" || item.Key.Code != "CSDS101" {
		t.Errorf("key = %+v", item.Key)
	}
	if item.Version != 3 {
		t.Errorf("version = %d, want 3", item.Version)
	}
	if item.Attr("createdBy") != "u1" || item.Attr("title") != "CSDS101 Discrete Math" {
		t.Errorf("attributes = %v", item.Attributes)
	}
	if _, ok := item.Attributes[fieldVersion]; ok {
		t.Error("reserved field leaked into attributes")
	}
}

func TestGet_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool { return cmd[0] == "HGETALL" })).
		Return(mock.Result(mock.RedisMap(map[string]rueidis.RedisMessage{})))

	s := NewStoreForTest(c)
	_, err := s.Get(context.Background(), db.Key{Name: "x", Code: "y"})
	if !errors.Is(err, db.ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}
}

func TestGet_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool { return cmd[0] == "HGETALL" })).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	_, err := s.Get(context.Background(), db.Key{Name: "x", Code: "y"})
	if !isDBError(err) {
		t.Fatalf("expected db.Error, got %v", err)
	}
}

func TestPut_AtVersion_Args(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			// EVALSHA sha numkeys KEYS[1..3] ARGV...
			if cmd[0] != "EVALSHA" || cmd[2] != "3" {
				return false
			}
			return cmd[3] == "{courses}:course:Discrete+Math:CSDS101" &&
				cmd[4] == "{courses}:idx:createdBy:" &&
				cmd[5] == "{courses}:idx:all" &&
				cmd[6] == "version" && cmd[7] == "2" &&
				cmd[8] == "createdBy" && cmd[9] == "u1"
		})).
		Return(mock.Result(mock.RedisInt64(1)))

	s := NewStoreForTest(c)
	item := db.Item{
		Key:        db.Key{Name: "Discrete Math", Code: "CSDS101"},
		Version:    3,
		Attributes: map[string]string{"createdBy": "u1", "title": "CSDS101 Discrete Math"},
	}
	if err := s.Put(context.Background(), item, db.AtVersion(2)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPut_PreconditionFailed(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "EVALSHA" && cmd[6] == "absent"
		})).
		Return(mock.Result(mock.RedisInt64(0)))

	s := NewStoreForTest(c)
	err := s.Put(context.Background(), db.Item{Key: db.Key{Name: "a", Code: "b"}, Version: 1}, db.Absent())
	if !errors.Is(err, db.ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}
}

func TestPut_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), gomock.Any()).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	err := s.Put(context.Background(), db.Item{Key: db.Key{Name: "a", Code: "b"}, Version: 1}, db.Any())
	if !isDBError(err) {
		t.Fatalf("expected db.Error, got %v", err)
	}
}

func TestDelete_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "EVALSHA" && cmd[2] == "3" &&
				cmd[3] == "{courses}:course:a:b" && cmd[5] == "{courses}:idx:all" && cmd[6] == "createdBy"
		})).
		Return(mock.Result(mock.RedisInt64(1)))

	s := NewStoreForTest(c)
	if err := s.Delete(context.Background(), db.Key{Name: "a", Code: "b"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDelete_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), gomock.Any()).
		Return(mock.Result(mock.RedisInt64(0)))

	s := NewStoreForTest(c)
	err := s.Delete(context.Background(), db.Key{Name: "a", Code: "b"})
	if !errors.Is(err, db.ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}
}

func TestScanAll_MultiPage(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	first := true
	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "SSCAN" && cmd[1] == "{courses}:idx:all"
		})).
		DoAndReturn(func(_ context.Context, _ rueidis.Completed) rueidis.RedisResult {
			if first {
				first = false
				return mock.Result(mock.RedisArray(
					mock.RedisInt64(42),
					mock.RedisArray(mock.RedisString("k1"), mock.RedisString("gone")),
				))
			}
			return mock.Result(mock.RedisArray(
				mock.RedisInt64(0),
				mock.RedisArray(mock.RedisString("k2")),
			))
		}).Times(2)

	gomock.InOrder(
		c.EXPECT().
			DoMulti(gomock.Any(), gomock.Any(), gomock.Any()).
			Return([]rueidis.RedisResult{
				mock.Result(courseHash("A", "1", "1", "u1")),
				mock.Result(mock.RedisMap(map[string]rueidis.RedisMessage{})),
			}),
		c.EXPECT().
			DoMulti(gomock.Any(), gomock.Any()).
			Return([]rueidis.RedisResult{
				mock.Result(courseHash("B", "2", "4", "u2")),
			}),
	)

	s := NewStoreForTest(c)
	items, err := db.Collect(s.ScanAll(context.Background()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Key.Name != "A" || items[1].Key.Name != "B" || items[1].Version != 4 {
		t.Errorf("unexpected items: %+v", items)
	}
}

func TestScanAll_RoutedToItemSlot(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)
	s := NewStoreForTest(c)

	item := s.b().Hgetall().Key(s.itemKey(db.Key{Name: "Discrete Math", Code: "CSDS101"})).Build()
	keyless := s.b().Scan().Cursor(0).Build()

	c.EXPECT().
		Do(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, cmd rueidis.Completed) rueidis.RedisResult {
			if got := cmd.Commands()[0]; got != "SSCAN" {
				t.Errorf("command: got %s, want SSCAN", got)
			}
			if cmd.Slot() != item.Slot() {
				t.Errorf("slot: got %d, want item slot %d", cmd.Slot(), item.Slot())
			}
			if cmd.Slot() == keyless.Slot() {
				t.Errorf("slot %d matches a keyless SCAN", cmd.Slot())
			}
			return mock.Result(mock.RedisArray(mock.RedisInt64(0), mock.RedisArray()))
		})

	items, err := db.Collect(s.ScanAll(context.Background()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("expected no items, got %d", len(items))
	}
}

func TestScanAll_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), gomock.Any()).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	_, err := db.Collect(s.ScanAll(context.Background()))
	if !isDBError(err) {
		t.Fatalf("expected db.Error, got %v", err)
	}
}

func TestQueryByIndex_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("SMEMBERS", "{courses}:idx:createdBy:u1")).
		Return(mock.Result(mock.RedisArray(mock.RedisString("k2"), mock.RedisString("k1"))))
	c.EXPECT().
		DoMulti(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]rueidis.RedisResult{
			mock.Result(courseHash("A", "1", "1", "u1")),
			mock.Result(courseHash("B", "2", "1", "u1")),
		})

	s := NewStoreForTest(c)
	items, err := db.Collect(s.QueryByIndex(context.Background(), db.IndexCreatedBy, "u1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
}

func TestQueryByIndex_UnknownIndex(t *testing.T) {
	s := NewStoreForTest(nil)
	_, err := db.Collect(s.QueryByIndex(context.Background(), "title", "x"))
	if !errors.Is(err, db.ErrIndexNotFound) {
		t.Fatalf("expected ErrIndexNotFound, got %v", err)
	}
}

func TestQueryByIndex_Empty(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool { return cmd[0] == "SMEMBERS" })).
		Return(mock.Result(mock.RedisArray()))

	s := NewStoreForTest(c)
	items, err := db.Collect(s.QueryByIndex(context.Background(), db.IndexCreatedBy, "nobody"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("expected no items, got %d", len(items))
	}
}

func TestDecodeHash_BadVersion(t *testing.T) {
	_, err := decodeHash(map[string]string{fieldName: "a", fieldCode: "b", fieldVersion: "x"})
	if err == nil {
		t.Fatal("expected error")
	}
}

// isDBError is a test helper for checking wrapped db.Error.
func isDBError(err error) bool {
	var dbErr *db.Error
	return errors.As(err, &dbErr)
}
