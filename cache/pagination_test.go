package cache

import (
	"reflect"
	"strings"
	"testing"
)

func TestMergeOffsetPageOverwritesWindow(t *testing.T) {
	existing := []any{"x", "y", "z", "w"}
	merged := MergeOffsetPage(existing, []any{"a", "b"}, 2)

	want := []any{"x", "y", "a", "b"}
	if !reflect.DeepEqual(merged, want) {
		t.Fatalf("Expected %v, got %v", want, merged)
	}
	if !reflect.DeepEqual(existing, []any{"x", "y", "z", "w"}) {
		t.Fatalf("existing was mutated: %v", existing)
	}
}

func TestMergeOffsetPageIntoAbsent(t *testing.T) {
	merged := MergeOffsetPage(nil, []any{"a", "b"}, 3)

	if len(merged) < 5 {
		t.Fatalf("Expected length >= 5, got %d", len(merged))
	}
	if merged[3] != "a" || merged[4] != "b" {
		t.Fatalf("Expected a,b at 3,4, got %v", merged)
	}
	for i := 0; i < 3; i++ {
		if merged[i] != nil {
			t.Fatalf("Expected hole at %d, got %v", i, merged[i])
		}
	}
}

func TestMergeOffsetPageExtendsAndKeepsTail(t *testing.T) {
	existing := []any{"a", "b", "c", "d", "e"}
	merged := MergeOffsetPage(existing, []any{"X"}, 1)

	want := []any{"a", "X", "c", "d", "e"}
	if !reflect.DeepEqual(merged, want) {
		t.Fatalf("Expected %v, got %v", want, merged)
	}

	grown := MergeOffsetPage(existing, []any{"f", "g"}, 4)
	want = []any{"a", "b", "c", "d", "f", "g"}
	if !reflect.DeepEqual(grown, want) {
		t.Fatalf("Expected %v, got %v", want, grown)
	}
}

func TestMergeOffsetPageNegativeOffset(t *testing.T) {
	merged := MergeOffsetPage([]any{"x"}, []any{"a"}, -4)
	if !reflect.DeepEqual(merged, []any{"a"}) {
		t.Fatalf("Negative offset should merge at 0, got %v", merged)
	}
}

func TestMergeOffsetPageLastMergeWins(t *testing.T) {
	var list []any
	list = MergeOffsetPage(list, []any{"first-2", "first-3"}, 2)
	list = MergeOffsetPage(list, []any{"second-3", "second-4"}, 3)

	want := []any{nil, nil, "first-2", "second-3", "second-4"}
	if !reflect.DeepEqual(list, want) {
		t.Fatalf("Expected %v, got %v", want, list)
	}
}

func TestWindowFromArgs(t *testing.T) {
	cfg := DefaultPaginationConfig()
	tests := []struct {
		name string
		args map[string]any
		want PaginationWindow
	}{
		{"missing", nil, PaginationWindow{Offset: 0, Count: DefaultPageCount}},
		{"valid", map[string]any{"offset": int64(10), "count": int64(5)}, PaginationWindow{Offset: 10, Count: 5}},
		{"float offset", map[string]any{"offset": 1.5}, PaginationWindow{Offset: 0, Count: DefaultPageCount}},
		{"negative offset", map[string]any{"offset": -3}, PaginationWindow{Offset: 0, Count: DefaultPageCount}},
		{"string numbers", map[string]any{"offset": "4", "count": "2.5"}, PaginationWindow{Offset: 4, Count: 2.5}},
		{"garbage count", map[string]any{"count": "abc"}, PaginationWindow{Offset: 0, Count: DefaultPageCount}},
		{"bool count", map[string]any{"count": true}, PaginationWindow{Offset: 0, Count: DefaultPageCount}},
		{"offset too large", map[string]any{"offset": DefaultMaxOffset + 1}, PaginationWindow{Offset: 0, Count: DefaultPageCount}},
		{"null args", map[string]any{"offset": nil, "count": nil}, PaginationWindow{Offset: 0, Count: DefaultPageCount}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WindowFromArgs(tt.args, cfg)
			if got != tt.want {
				t.Fatalf("Expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestWindowFromArgsCustomNames(t *testing.T) {
	cfg := PaginationConfig{OffsetArg: "skip", CountArg: "first", DefaultCount: 7}
	got := WindowFromArgs(map[string]any{"skip": 3}, cfg)
	if got != (PaginationWindow{Offset: 3, Count: 7}) {
		t.Fatalf("Unexpected window %+v", got)
	}
}

func TestOffsetLimitPaginationMerge(t *testing.T) {
	policy := OffsetLimitPagination(PaginationConfig{})
	if policy.KeyArgs == nil || len(policy.KeyArgs) != 0 {
		t.Fatalf("Expected empty non-nil KeyArgs, got %#v", policy.KeyArgs)
	}

	ctx := MergeContext{Args: map[string]any{"offset": 2}, Logger: NewNoOpLogger()}
	existing := []any{"x", "y", "z", "w"}
	merged := policy.Merge(existing, []any{"a", "b"}, ctx)
	if !reflect.DeepEqual(merged, []any{"x", "y", "a", "b"}) {
		t.Fatalf("Unexpected merge result %v", merged)
	}

	// A null page keeps what was stored.
	kept := policy.Merge(existing, nil, ctx)
	if !reflect.DeepEqual(kept, existing) {
		t.Fatalf("Expected existing list, got %v", kept)
	}
	if policy.Merge(nil, nil, ctx) != nil {
		t.Fatal("Expected nil for nil existing and incoming")
	}
}

func TestOffsetLimitPaginationDevWarnings(t *testing.T) {
	logger := &recordingLogger{}
	policy := OffsetLimitPagination(DefaultPaginationConfig())

	ctx := MergeContext{
		TypeName:  "Query",
		FieldName: "feed",
		Args:      map[string]any{"offset": "abc"},
		DevEnv:    true,
		Logger:    logger,
	}
	policy.Merge(nil, []any{"a"}, ctx)
	if got := policy.Merge(nil, "scalar", ctx); got != "scalar" {
		t.Fatalf("Non-list incoming should be returned as is, got %v", got)
	}
	if len(logger.warns) != 3 {
		t.Fatalf("Expected 3 warnings, got %d: %v", len(logger.warns), logger.warns)
	}
	if !strings.Contains(logger.warns[2], "not a list") {
		t.Fatalf("Unexpected warning %q", logger.warns[2])
	}

	logger.warns = nil
	ctx.DevEnv = false
	policy.Merge(nil, "scalar", ctx)
	if len(logger.warns) != 0 {
		t.Fatalf("Expected no warnings outside dev env, got %v", logger.warns)
	}
}

func TestOffsetLimitPaginationRead(t *testing.T) {
	policy := OffsetLimitPagination(DefaultPaginationConfig())
	stored := []any{"a", "b", "c", "d"}

	tests := []struct {
		name   string
		stored any
		args   map[string]any
		want   any
		ok     bool
	}{
		{"window", stored, map[string]any{"offset": 1, "count": 2}, []any{"b", "c"}, true},
		{"tail", stored, map[string]any{"offset": 2, "count": 2}, []any{"c", "d"}, true},
		{"runs past end", stored, map[string]any{"offset": 2, "count": 10}, nil, false},
		{"default count past end", stored, nil, nil, false},
		{"past end", stored, map[string]any{"offset": 9}, nil, false},
		{"at end", stored, map[string]any{"offset": 4, "count": 2}, nil, false},
		{"fractional count", stored, map[string]any{"offset": 0, "count": 1.5}, []any{"a", "b"}, true},
		{"zero count", stored, map[string]any{"offset": 4, "count": 0}, []any{}, true},
		{"hole", []any{nil, "b"}, map[string]any{"offset": 0, "count": 2}, nil, false},
		{"absent", nil, nil, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := policy.Read(tt.stored, ReadContext{Args: tt.args, Logger: NewNoOpLogger()})
			if ok != tt.ok {
				t.Fatalf("Expected ok=%v, got %v", tt.ok, ok)
			}
			if ok && !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

type recordingLogger struct {
	NoOpLogger
	warns []string
}

func (l *recordingLogger) Warn(msg string, args ...any) {
	l.warns = append(l.warns, msg)
}
