/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0
*/

package heal

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/kubeheal/healer/pkg/model"
)

// canonicalize turns the reconstructed tree into the plain Go values
// encoding/json renders with lexically sorted map keys, the "canonical
// JSON" the DNA checkpoint hashes (spec.md §4.9).
func canonicalize(v *model.Value) interface{} {
	if v == nil {
		return nil
	}
	switch v.Kind {
	case model.KindNull:
		return nil
	case model.KindBool:
		return v.Bool
	case model.KindInt:
		return v.Int
	case model.KindFloat:
		return v.Float
	case model.KindString:
		return v.Str
	case model.KindSeq:
		out := make([]interface{}, len(v.Seq))
		for i, item := range v.Seq {
			out[i] = canonicalize(item)
		}
		return out
	case model.KindMap:
		out := make(map[string]interface{}, v.Map.Len())
		for _, e := range v.Map.Entries() {
			out[e.Key] = canonicalize(e.Value)
		}
		return out
	default:
		return nil
	}
}

// DNA computes MD5(canonical_json(documents)) as a hex string.
func DNA(documents []*model.Value) string {
	canon := make([]interface{}, len(documents))
	for i, d := range documents {
		canon[i] = canonicalize(d)
	}
	// json.Marshal sorts map[string]interface{} keys lexically, giving a
	// deterministic encoding regardless of the OrderedMap's own order.
	data, err := json.Marshal(canon)
	if err != nil {
		data = []byte(fmt.Sprintf("%v", canon))
	}
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

// diffKeys reports up to limit depth-first key paths that differ between
// two canonical document sets, for the DNA-drift audit entry.
func diffKeys(before, after []*model.Value, limit int) []string {
	var out []string
	n := len(before)
	if len(after) > n {
		n = len(after)
	}
	for i := 0; i < n && len(out) < limit; i++ {
		var b, a interface{}
		if i < len(before) {
			b = canonicalize(before[i])
		}
		if i < len(after) {
			a = canonicalize(after[i])
		}
		out = append(out, diffValue(fmt.Sprintf("doc[%d]", i), b, a, limit-len(out))...)
	}
	return out
}

func diffValue(path string, before, after interface{}, budget int) []string {
	if budget <= 0 {
		return nil
	}
	bm, bok := before.(map[string]interface{})
	am, aok := after.(map[string]interface{})
	if bok && aok {
		keys := make(map[string]bool)
		for k := range bm {
			keys[k] = true
		}
		for k := range am {
			keys[k] = true
		}
		sorted := make([]string, 0, len(keys))
		for k := range keys {
			sorted = append(sorted, k)
		}
		sort.Strings(sorted)
		var out []string
		for _, k := range sorted {
			if len(out) >= budget {
				break
			}
			bv, bhas := bm[k]
			av, ahas := am[k]
			childPath := path + "." + k
			switch {
			case !bhas:
				out = append(out, fmt.Sprintf("%s: added", childPath))
			case !ahas:
				out = append(out, fmt.Sprintf("%s: removed", childPath))
			default:
				out = append(out, diffValue(childPath, bv, av, budget-len(out))...)
			}
		}
		return out
	}
	if fmt.Sprint(before) != fmt.Sprint(after) {
		return []string{fmt.Sprintf("%s: %v -> %v", path, before, after)}
	}
	return nil
}
