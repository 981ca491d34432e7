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

	"github.com/getkin/kin-openapi/openapi3"
)

// LoadOpenAPI decodes an OpenAPI document and merges its
// components.schemas definitions into c, keyed by schema name (the usual
// Kubernetes convention, e.g. "io.k8s.api.apps.v1.Deployment").
func (c *Catalog) LoadOpenAPI(data []byte) error {
	doc, err := openapi3.NewLoader().LoadFromData(data)
	if err != nil {
		return fmt.Errorf("catalog: decode openapi document: %w", err)
	}
	for name, ref := range doc.Components.Schemas {
		if ref == nil || ref.Value == nil {
			continue
		}
		fields := make(map[string]bool, len(ref.Value.Properties))
		for prop, propRef := range ref.Value.Properties {
			fields[prop] = true
			walkOpenAPIProps(propRef, 1, 3, fields)
		}
		kind := lastDotSegment(name)
		c.merge(kind, fields)
		c.merge(name, fields)
	}
	return nil
}

func walkOpenAPIProps(ref *openapi3.SchemaRef, depth, maxDepth int, out map[string]bool) {
	if depth > maxDepth || ref == nil || ref.Value == nil {
		return
	}
	for prop, propRef := range ref.Value.Properties {
		out[prop] = true
		walkOpenAPIProps(propRef, depth+1, maxDepth, out)
	}
	if ref.Value.Items != nil {
		walkOpenAPIProps(ref.Value.Items, depth+1, maxDepth, out)
	}
}

// lastDotSegment extracts the bare kind name from a fully qualified
// OpenAPI definition name such as "io.k8s.api.apps.v1.Deployment".
func lastDotSegment(name string) string {
	last := name
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '.' {
			last = name[i+1:]
			break
		}
	}
	return last
}
