/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0
*/

// Package catalog loads schema catalogs (a plain JSON field-enumeration
// format, OpenAPI component schemas, and Kubernetes CRDs) and exposes the
// union the Scanner and Structurer need: whether a (apiVersion, kind) pair
// is known, and the recursive key set used to tag shard intent.
//
// Catalogs are read-only once loaded and are safe to share across
// concurrent healing runs; loading is a one-time, process-lifetime cost.
package catalog

import (
	"strings"
)

// Catalog is the read-only schema surface the Scanner consults. A zero
// Catalog (via New) is valid and simply knows nothing — learning mode.
type Catalog struct {
	// fields maps a catalog key ("Kind" or "apiVersion/Kind") to its
	// known top-level field names.
	fields map[string]map[string]bool
	// keyUnion is the recursive (depth-limited) union of every field name
	// seen across every loaded source, used for intent tagging.
	keyUnion map[string]bool
}

// New returns an empty catalog. Loaders (LoadJSON, LoadOpenAPI, LoadCRD)
// add sources to it.
func New() *Catalog {
	return &Catalog{
		fields:   make(map[string]map[string]bool),
		keyUnion: make(map[string]bool),
	}
}

// Has reports whether kind, or apiVersion+"/"+kind, resolves in the
// catalog — used by the Scanner's permissive-mode apiVersion inference
// and by the orchestrator's schema-match score bonus.
func (c *Catalog) Has(apiVersion, kind string) bool {
	if c == nil {
		return false
	}
	if _, ok := c.fields[kind]; ok {
		return true
	}
	if apiVersion == "" {
		return false
	}
	_, ok := c.fields[apiVersion+"/"+kind]
	return ok
}

// Fields returns the known top-level field set for a (apiVersion, kind)
// pair, trying the qualified key first and falling back to bare kind.
func (c *Catalog) Fields(apiVersion, kind string) (map[string]bool, bool) {
	if c == nil {
		return nil, false
	}
	if apiVersion != "" {
		if f, ok := c.fields[apiVersion+"/"+kind]; ok {
			return f, true
		}
	}
	f, ok := c.fields[kind]
	return f, ok
}

// Empty reports whether no catalog source has been loaded at all — pure
// learning mode, where every intent tag falls back to a path-depth guess.
func (c *Catalog) Empty() bool {
	return c == nil || len(c.fields) == 0
}

// IsSchemaKey reports whether key appears anywhere in the recursive
// (depth <= 3) union of field names across every loaded source. The
// Scanner tags a shard "k8s.<key>" when this is true; otherwise it falls
// back to a path-depth tag.
func (c *Catalog) IsSchemaKey(key string) bool {
	if c == nil {
		return false
	}
	return c.keyUnion[key]
}

// merge records a single kind entry's field set into both the per-kind
// index and the global key union.
func (c *Catalog) merge(key string, fields map[string]bool) {
	if c.fields[key] == nil {
		c.fields[key] = make(map[string]bool)
	}
	for f := range fields {
		c.fields[key][f] = true
		c.keyUnion[f] = true
	}
}

// addUnion folds keys directly into the recursive union without binding
// them to a specific kind — used for OpenAPI/CRD property trees where the
// kind-to-schema mapping is looser than the plain JSON catalog format.
func (c *Catalog) addUnion(keys map[string]bool) {
	for k := range keys {
		c.keyUnion[k] = true
	}
}

// splitKey normalizes a raw catalog key into (apiVersion, kind), handling
// both the bare "Kind" and qualified "apiVersion/Kind" forms.
func splitKey(raw string) (apiVersion, kind string) {
	if i := strings.LastIndex(raw, "/"); i >= 0 {
		return raw[:i], raw[i+1:]
	}
	return "", raw
}

// coreFallback is the hardcoded apiVersion inference table consulted when
// no catalog resolves a kind, in permissive (pro) mode.
var coreFallback = map[string]string{
	"Pod":                     "v1",
	"Service":                 "v1",
	"ConfigMap":               "v1",
	"Secret":                  "v1",
	"Namespace":               "v1",
	"Node":                    "v1",
	"PersistentVolume":        "v1",
	"PersistentVolumeClaim":   "v1",
	"ServiceAccount":          "v1",
	"Endpoints":               "v1",
	"Event":                   "v1",
	"LimitRange":              "v1",
	"ResourceQuota":           "v1",

	"Deployment":  "apps/v1",
	"StatefulSet": "apps/v1",
	"DaemonSet":   "apps/v1",
	"ReplicaSet":  "apps/v1",

	"Job":     "batch/v1",
	"CronJob": "batch/v1",

	"Ingress":       "networking.k8s.io/v1",
	"NetworkPolicy": "networking.k8s.io/v1",
	"IngressClass":  "networking.k8s.io/v1",

	"Role":               "rbac.authorization.k8s.io/v1",
	"RoleBinding":        "rbac.authorization.k8s.io/v1",
	"ClusterRole":        "rbac.authorization.k8s.io/v1",
	"ClusterRoleBinding": "rbac.authorization.k8s.io/v1",

	"HorizontalPodAutoscaler": "autoscaling/v2",
	"PodDisruptionBudget":     "policy/v1",

	"StorageClass":                   "storage.k8s.io/v1",
	"VolumeAttachment":               "storage.k8s.io/v1",
	"CSIDriver":                      "storage.k8s.io/v1",
	"CSINode":                        "storage.k8s.io/v1",
	"MutatingWebhookConfiguration":   "admissionregistration.k8s.io/v1",
	"ValidatingWebhookConfiguration": "admissionregistration.k8s.io/v1",
	"CustomResourceDefinition":       "apiextensions.k8s.io/v1",
	"CertificateSigningRequest":      "certificates.k8s.io/v1",
	"Lease":                          "coordination.k8s.io/v1",
}

// InferAPIVersion implements the permissive-mode fallback table (spec
// §4.3): given only a kind, return the best-guess apiVersion.
func InferAPIVersion(kind string) (string, bool) {
	v, ok := coreFallback[kind]
	return v, ok
}
