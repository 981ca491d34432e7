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

	apiextensionsv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"
)

// LoadCRD decodes a single CustomResourceDefinition document and merges
// its structural schema's field names into c, keyed by the CRD's served
// kind so later identity resolution finds plugin-defined kinds the same
// way it finds core ones.
func (c *Catalog) LoadCRD(data []byte) error {
	var crd apiextensionsv1.CustomResourceDefinition
	if err := jsonAPI.Unmarshal(data, &crd); err != nil {
		return fmt.Errorf("catalog: decode crd: %w", err)
	}
	kind := crd.Spec.Names.Kind
	if kind == "" {
		return fmt.Errorf("catalog: crd %s has no spec.names.kind", crd.Name)
	}
	group := crd.Spec.Group
	fields := make(map[string]bool)
	for _, version := range crd.Spec.Versions {
		if version.Schema == nil || version.Schema.OpenAPIV3Schema == nil {
			continue
		}
		for prop, schema := range version.Schema.OpenAPIV3Schema.Properties {
			fields[prop] = true
			walkCRDProps(schema, 1, 3, fields)
		}
		if group != "" && version.Name != "" {
			c.merge(fmt.Sprintf("%s/%s/%s", group, version.Name, kind), fields)
		}
	}
	c.merge(kind, fields)
	return nil
}

func walkCRDProps(schema apiextensionsv1.JSONSchemaProps, depth, maxDepth int, out map[string]bool) {
	if depth > maxDepth {
		return
	}
	for prop, nested := range schema.Properties {
		out[prop] = true
		walkCRDProps(nested, depth+1, maxDepth, out)
	}
	if schema.Items != nil && schema.Items.Schema != nil {
		walkCRDProps(*schema.Items.Schema, depth+1, maxDepth, out)
	}
}
