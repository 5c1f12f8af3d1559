package db

import (
	"errors"
	"fmt"
	"testing"
)

func TestPrecondition_Allows(t *testing.T) {
	tests := []struct {
		name    string
		cond    Precondition
		exists  bool
		current int64
		want    bool
	}{
		{"any on missing", Any(), false, 0, true},
		{"any on existing", Any(), true, 3, true},
		{"absent on missing", Absent(), false, 0, true},
		{"absent on existing", Absent(), true, 1, false},
		{"version match", AtVersion(3), true, 3, true},
		{"version mismatch", AtVersion(3), true, 4, false},
		{"version on missing", AtVersion(0), false, 0, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.cond.Allows(tc.exists, tc.current); got != tc.want {
				t.Errorf("Allows(%v, %d) = %v, want %v", tc.exists, tc.current, got, tc.want)
			}
		})
	}
}

func TestPrecondition_ExpectedVersion(t *testing.T) {
	if v, ok := AtVersion(5).ExpectedVersion(); !ok || v != 5 {
		t.Errorf("AtVersion(5).ExpectedVersion() = %d, %v", v, ok)
	}
	if _, ok := Absent().ExpectedVersion(); ok {
		t.Error("Absent should carry no version")
	}
	if !Any().IsAny() || !Absent().IsAbsent() {
		t.Error("kind predicates mismatch")
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := fmt.Errorf("list: %w", &Error{Op: OpScan, Err: cause})

	var dbErr *Error
	if !errors.As(err, &dbErr) {
		t.Fatal("expected *Error in chain")
	}
	if dbErr.Op != OpScan || !errors.Is(err, cause) {
		t.Errorf("unexpected error chain: %v", err)
	}
	if dbErr.Error() != "SCAN: connection reset" {
		t.Errorf("Error() = %q", dbErr.Error())
	}
}

func TestCollect_StopsOnError(t *testing.T) {
	boom := errors.New("boom")
	seq := func(yield func(Item, error) bool) {
		if !yield(Item{Key: Key{Name: "a", Code: "1"}}, nil) {
			return
		}
		yield(Item{}, boom)
	}
	items, err := Collect(seq)
	if !errors.Is(err, boom) || items != nil {
		t.Errorf("Collect = %v, %v", items, err)
	}
}
