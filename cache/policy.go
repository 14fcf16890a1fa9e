package cache

// Record is a normalized entity: storage field names mapped to values.
// Values are scalars, Refs, nested Records for unidentified objects, or
// slices of those. Stored records are never mutated; writes replace them.
type Record = map[string]any

// Ref points from a stored value to a normalized entity.
type Ref struct {
	Key CacheKey
}

// String implements fmt.Stringer.
func (r Ref) String() string {
	return "Ref(" + r.Key + ")"
}

// FieldContext is passed to Read and Merge functions.
type FieldContext struct {
	// TypeName is the __typename of the entity owning the field.
	TypeName string
	// FieldName is the schema field name, without arguments or alias.
	FieldName string
	// StorageName is the key the value is stored under in the record.
	StorageName string
	// Args are the field arguments resolved against the operation variables.
	Args map[string]any
	// Identify computes the cache key of an object.
	Identify func(obj map[string]any) (CacheKey, bool)
	// DevEnv is set when the runtime config marks a development environment.
	DevEnv bool
	// Logger receives diagnostics. Never nil.
	Logger Logger
}

// MergeContext is the context passed to a MergeFunc.
type MergeContext = FieldContext

// ReadContext is the context passed to a ReadFunc.
type ReadContext = FieldContext

// MergeFunc combines the stored value of a field with an incoming one.
// existing is nil when nothing is stored. It must be pure: no I/O, no
// mutation of existing, same output for the same input.
type MergeFunc func(existing, incoming any, ctx MergeContext) any

// ReadFunc computes the value returned for a field from its stored value.
// existing is nil when nothing is stored. Returning false reports a cache miss.
type ReadFunc func(existing any, ctx ReadContext) (any, bool)

// FieldPolicy customizes how one field of one type is stored and read.
type FieldPolicy struct {
	// KeyArgs lists the arguments that distinguish stored values.
	// nil means every argument; an empty non-nil slice means none, so all
	// calls share one storage slot.
	KeyArgs []string
	Read    ReadFunc
	Merge   MergeFunc
}

// TypePolicy holds the policies of one type.
type TypePolicy struct {
	// KeyFields identify an entity. Defaults to "id", then "_id".
	KeyFields []string
	Fields    map[string]FieldPolicy
}

// TypePolicies maps type names to their policies.
type TypePolicies map[string]TypePolicy

// Field returns the policy registered for typename.field.
func (tp TypePolicies) Field(typename, field string) (FieldPolicy, bool) {
	t, ok := tp[typename]
	if !ok {
		return FieldPolicy{}, false
	}
	p, ok := t.Fields[field]
	return p, ok
}

// Set registers policy for typename.field, creating the type entry when needed.
func (tp TypePolicies) Set(typename, field string, policy FieldPolicy) {
	t := tp[typename]
	if t.Fields == nil {
		t.Fields = make(map[string]FieldPolicy)
	}
	t.Fields[field] = policy
	tp[typename] = t
}
