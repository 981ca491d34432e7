/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0
*/

package catalog

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// rawCatalog is the plain JSON catalog format (spec §4.10): a top-level
// object keyed by "Kind" or "apiVersion/Kind", each value carrying a
// "fields" object the structurer enumerates for forced-array and
// intent-tagging decisions. Nested property objects are walked depth 3.
type rawCatalog map[string]struct {
	Fields map[string]jsoniter.RawMessage `json:"fields"`
}

// LoadJSON decodes the plain field-enumeration catalog format and merges
// it into c. data is the catalog file's full contents.
func (c *Catalog) LoadJSON(data []byte) error {
	var raw rawCatalog
	if err := jsonAPI.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("catalog: decode json catalog: %w", err)
	}
	for key, entry := range raw {
		fields := make(map[string]bool, len(entry.Fields))
		for name, nested := range entry.Fields {
			fields[name] = true
			walkNestedKeys(nested, 1, 3, fields)
		}
		c.merge(key, fields)
	}
	return nil
}

// walkNestedKeys recursively collects object keys from a raw JSON value up
// to maxDepth levels, folding each into out. Used to build the recursive
// key union (spec §4.3 "Schema key build") from nested "properties"-style
// schema descriptors without fully typing them.
func walkNestedKeys(raw jsoniter.RawMessage, depth, maxDepth int, out map[string]bool) {
	if depth > maxDepth || len(raw) == 0 {
		return
	}
	var obj map[string]jsoniter.RawMessage
	if err := jsonAPI.Unmarshal(raw, &obj); err != nil {
		return
	}
	for k, v := range obj {
		out[k] = true
		walkNestedKeys(v, depth+1, maxDepth, out)
	}
}
