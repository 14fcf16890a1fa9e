package cache

import (
	"testing"
)

func TestIdentify(t *testing.T) {
	policies := TypePolicies{
		"Book":    {KeyFields: []string{"isbn"}},
		"Edition": {KeyFields: []string{"isbn", "year"}},
	}

	tests := []struct {
		name string
		obj  map[string]any
		want CacheKey
		ok   bool
	}{
		{"id", map[string]any{"__typename": "User", "id": "42"}, "User:42", true},
		{"numeric id", map[string]any{"__typename": "User", "id": float64(42)}, "User:42", true},
		{"underscore id", map[string]any{"__typename": "User", "_id": "a1"}, "User:a1", true},
		{"no typename", map[string]any{"id": "42"}, "", false},
		{"no id", map[string]any{"__typename": "User", "name": "x"}, "", false},
		{"null id", map[string]any{"__typename": "User", "id": nil}, "", false},
		{"custom key", map[string]any{"__typename": "Book", "isbn": "123", "id": "ignored"}, "Book:123", true},
		{"missing custom key", map[string]any{"__typename": "Book", "id": "1"}, "", false},
		{"compound key", map[string]any{"__typename": "Edition", "year": 2001, "isbn": "9"}, `Edition:{"isbn":"9","year":2001}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := identify(policies, tt.obj)
			if ok != tt.ok || got != tt.want {
				t.Fatalf("Expected (%q, %v), got (%q, %v)", tt.want, tt.ok, got, ok)
			}
		})
	}
}

func TestStorageName(t *testing.T) {
	args := map[string]any{"offset": 0, "filter": "new"}

	if got := storageName("feed", nil, FieldPolicy{}, false); got != "feed" {
		t.Fatalf("Expected bare name, got %q", got)
	}
	if got := storageName("feed", args, FieldPolicy{}, false); got != `feed({"filter":"new","offset":0})` {
		t.Fatalf("Expected all args, got %q", got)
	}
	if got := storageName("feed", args, FieldPolicy{KeyArgs: []string{}}, true); got != "feed" {
		t.Fatalf("Expected no key args, got %q", got)
	}
	if got := storageName("feed", args, FieldPolicy{KeyArgs: []string{"filter", "missing"}}, true); got != `feed({"filter":"new"})` {
		t.Fatalf("Expected filter only, got %q", got)
	}
}
