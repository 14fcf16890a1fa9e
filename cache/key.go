package cache

import (
	"encoding/json"
	"fmt"
)

// CacheKey identifies a normalized entity, e.g. "User:42".
type CacheKey = string

// Root record keys.
const (
	RootQuery        CacheKey = "ROOT_QUERY"
	RootMutation     CacheKey = "ROOT_MUTATION"
	RootSubscription CacheKey = "ROOT_SUBSCRIPTION"
)

var defaultKeyFields = []string{"id", "_id"}

// identify computes typename:id for obj. With custom key fields the id part
// is the JSON object of those fields, e.g. Book:{"isbn":"x"}. Objects without
// a __typename or without every key field are not identifiable.
func identify(policies TypePolicies, obj map[string]any) (CacheKey, bool) {
	typename, _ := obj["__typename"].(string)
	if typename == "" {
		return "", false
	}

	if tp, ok := policies[typename]; ok && len(tp.KeyFields) > 0 {
		fields := make(map[string]any, len(tp.KeyFields))
		for _, f := range tp.KeyFields {
			v, ok := obj[f]
			if !ok || v == nil {
				return "", false
			}
			fields[f] = v
		}
		if len(fields) == 1 {
			return typename + ":" + scalarKey(fields[tp.KeyFields[0]]), true
		}
		b, err := json.Marshal(fields)
		if err != nil {
			return "", false
		}
		return typename + ":" + string(b), true
	}

	for _, f := range defaultKeyFields {
		if v, ok := obj[f]; ok && v != nil {
			return typename + ":" + scalarKey(v), true
		}
	}
	return "", false
}

func scalarKey(v any) string {
	switch id := v.(type) {
	case string:
		return id
	case float64:
		// JSON numbers decode as float64; keep integral ids free of exponents.
		if id == float64(int64(id)) {
			return fmt.Sprintf("%d", int64(id))
		}
	}
	return fmt.Sprint(v)
}

// storageName is the record key for a field: the name alone, or the name
// followed by the JSON of its key arguments. encoding/json sorts map keys,
// so equal argument sets always produce equal names.
func storageName(field string, args map[string]any, policy FieldPolicy, hasPolicy bool) string {
	keyArgs := args
	if hasPolicy && policy.KeyArgs != nil {
		keyArgs = make(map[string]any, len(policy.KeyArgs))
		for _, name := range policy.KeyArgs {
			if v, ok := args[name]; ok {
				keyArgs[name] = v
			}
		}
	}
	if len(keyArgs) == 0 {
		return field
	}
	b, err := json.Marshal(keyArgs)
	if err != nil {
		// fmt prints maps in key order too.
		return fmt.Sprintf("%s(%v)", field, keyArgs)
	}
	return field + "(" + string(b) + ")"
}
