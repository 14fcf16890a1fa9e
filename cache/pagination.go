package cache

import (
	"math"

	"github.com/huykn/gqlcache/coerce"
)

// Pagination defaults.
const (
	DefaultOffsetArg = "offset"
	DefaultCountArg  = "count"
	DefaultPageCount = 20
	DefaultMaxOffset = 100000
)

// PaginationWindow is the sanitized offset/count of one paginated fetch.
type PaginationWindow struct {
	Offset int
	Count  float64
}

// PaginationConfig configures OffsetLimitPagination. Zero fields take the defaults.
type PaginationConfig struct {
	OffsetArg    string
	CountArg     string
	DefaultCount float64
	// MaxOffset caps the offset a page may be merged at. Larger offsets are
	// treated as invalid and fall back to 0.
	MaxOffset int
	// KeyArgs are the non-pagination arguments that select distinct lists,
	// e.g. a filter. Empty means all calls share one list.
	KeyArgs []string
}

// DefaultPaginationConfig returns the offset/count configuration.
func DefaultPaginationConfig() PaginationConfig {
	return PaginationConfig{
		OffsetArg:    DefaultOffsetArg,
		CountArg:     DefaultCountArg,
		DefaultCount: DefaultPageCount,
		MaxOffset:    DefaultMaxOffset,
	}
}

func (c PaginationConfig) withDefaults() PaginationConfig {
	d := DefaultPaginationConfig()
	if c.OffsetArg == "" {
		c.OffsetArg = d.OffsetArg
	}
	if c.CountArg == "" {
		c.CountArg = d.CountArg
	}
	if c.DefaultCount == 0 {
		c.DefaultCount = d.DefaultCount
	}
	if c.MaxOffset <= 0 {
		c.MaxOffset = d.MaxOffset
	}
	return c
}

// WindowFromArgs sanitizes the pagination arguments in args. A missing or
// invalid offset becomes 0; a missing or invalid count becomes DefaultCount.
func WindowFromArgs(args map[string]any, cfg PaginationConfig) PaginationWindow {
	w, _ := cfg.withDefaults().window(args)
	return w
}

// window also reports the names of arguments that were present but invalid.
func (c PaginationConfig) window(args map[string]any) (PaginationWindow, []string) {
	var invalid []string

	offset := 0
	if raw, ok := args[c.OffsetArg]; ok && raw != nil {
		offset = coerce.ToNonNegativeIntOrFallback(raw, -1)
		if offset < 0 || offset > c.MaxOffset {
			invalid = append(invalid, c.OffsetArg)
			offset = 0
		}
	}

	count := c.DefaultCount
	if raw, ok := args[c.CountArg]; ok && raw != nil {
		n, valid := numberOf(raw)
		if valid {
			count = n
		} else {
			invalid = append(invalid, c.CountArg)
		}
	}

	return PaginationWindow{Offset: offset, Count: count}, invalid
}

// numberOf reports whether raw converts to a finite number.
func numberOf(raw any) (float64, bool) {
	n := coerce.ToNumberOrFallback(raw, math.NaN())
	return n, !math.IsNaN(n)
}

// OffsetLimitPagination returns a policy for list fields fetched with
// offset/count arguments. Pages are spliced into a single stored list.
func OffsetLimitPagination(cfg PaginationConfig) FieldPolicy {
	cfg = cfg.withDefaults()
	keyArgs := cfg.KeyArgs
	if keyArgs == nil {
		keyArgs = []string{}
	}
	return FieldPolicy{
		KeyArgs: keyArgs,
		Merge:   cfg.merge,
		Read:    cfg.read,
	}
}

func (c PaginationConfig) merge(existing, incoming any, ctx MergeContext) any {
	win, invalid := c.window(ctx.Args)
	if ctx.DevEnv && len(invalid) > 0 {
		ctx.Logger.Warn("pagination: invalid arguments replaced by defaults",
			"type", ctx.TypeName, "field", ctx.FieldName, "args", invalid,
			"offset", win.Offset, "count", win.Count)
	}

	prev, _ := existing.([]any)
	if incoming == nil {
		if prev == nil {
			return nil
		}
		return MergeOffsetPage(prev, nil, 0)
	}
	page, ok := incoming.([]any)
	if !ok {
		if ctx.DevEnv {
			ctx.Logger.Warn("pagination: incoming value is not a list, replacing stored value",
				"type", ctx.TypeName, "field", ctx.FieldName)
		}
		return incoming
	}
	return MergeOffsetPage(prev, page, win.Offset)
}

// read returns the [offset, offset+count) window of the stored list. A window
// that runs past the stored entries, or that covers a hole, is a miss so the
// page gets fetched.
func (c PaginationConfig) read(existing any, ctx ReadContext) (any, bool) {
	if existing == nil {
		return nil, false
	}
	list, ok := existing.([]any)
	if !ok {
		return existing, true
	}

	win, _ := c.window(ctx.Args)
	size := 0
	if win.Count > 0 {
		size = int(math.Ceil(win.Count))
	}
	if win.Offset > len(list) || size > len(list)-win.Offset {
		return nil, false
	}

	out := make([]any, size)
	for i := range out {
		item := list[win.Offset+i]
		if item == nil {
			return nil, false
		}
		out[i] = item
	}
	return out, true
}

// MergeOffsetPage splices page into existing starting at offset and returns
// a new slice. Entries outside the window keep their values, entries inside
// it are overwritten, and indices before offset with nothing stored are nil.
// existing is never modified.
func MergeOffsetPage(existing, page []any, offset int) []any {
	if offset < 0 {
		offset = 0
	}
	n := len(existing)
	if end := offset + len(page); end > n {
		n = end
	}
	merged := make([]any, n)
	copy(merged, existing)
	copy(merged[offset:], page)
	return merged
}
