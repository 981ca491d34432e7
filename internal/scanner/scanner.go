/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0
*/

// Package scanner walks a shard stream and extracts one ManifestIdentity
// per document, isolating the document's root metadata from metadata
// buried in Pod templates by tracking a path stack of (indent, key)
// frames as it goes.
package scanner

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kubeheal/healer/internal/catalog"
	"github.com/kubeheal/healer/pkg/model"
)

var workloadKinds = map[string]bool{
	"Deployment":  true,
	"StatefulSet": true,
	"DaemonSet":   true,
	"ReplicaSet":  true,
	"Pod":         true,
	"Job":         true,
	"CronJob":     true,
}

// coreSchemaKeys is the hardcoded core/nested key set unioned with
// whatever the catalogs contribute, so intent tagging still works with an
// empty catalog (pure learning mode never degrades common fields).
var coreSchemaKeys = map[string]bool{
	"apiVersion": true, "kind": true, "metadata": true, "spec": true, "status": true,
	"name": true, "namespace": true, "labels": true, "annotations": true,
	"selector": true, "matchLabels": true, "matchExpressions": true, "template": true,
	"containers": true, "initContainers": true, "ephemeralContainers": true,
	"image": true, "ports": true, "port": true, "targetPort": true, "nodePort": true,
	"protocol": true, "env": true, "envFrom": true, "volumes": true, "volumeMounts": true,
	"resources": true, "requests": true, "limits": true, "replicas": true,
	"rules": true, "subjects": true, "roleRef": true, "apiGroups": true, "verbs": true,
	"data": true, "stringData": true, "type": true, "finalizers": true,
	"ownerReferences": true, "conditions": true, "containerPort": true,
	"configMap": true, "secret": true, "configMapRef": true, "secretRef": true,
	"configMapKeyRef": true, "secretKeyRef": true, "persistentVolumeClaim": true,
	"claimName": true, "backend": true, "service": true, "number": true,
	"serviceName": true, "servicePort": true, "scaleTargetRef": true,
	"serviceAccountName": true, "runAsNonRoot": true, "privileged": true,
	"livenessProbe": true, "readinessProbe": true, "command": true, "args": true,
}

// frame is one entry of the path stack.
type frame struct {
	indent int
	key    string
	isSeq  bool
}

type state struct {
	stack          []frame
	identity       *model.Identity
	rootIndent     int
	currentPort    *model.ServicePort
	currentBackend *model.IngressBackend
}

func newState() *state {
	return &state{rootIndent: -1}
}

// Run extracts one Identity per document from shards, tags each shard's
// IntentTag, and returns the identities plus any ERROR-severity drop
// actions (strict mode, missing kind/apiVersion).
func Run(shards []*model.Shard, cat *catalog.Catalog, strictValidation bool, filePath string) ([]*model.Identity, []model.HealAction) {
	var identities []*model.Identity
	var actions []model.HealAction
	docIndex := 0
	st := newState()
	st.identity = model.NewIdentity()
	st.identity.DocIndex = docIndex
	st.identity.FilePath = filePath

	flush := func() {
		finalizeBackend(st)
		id := st.identity
		if id.Kind == "" && id.APIVersion == "" {
			return
		}
		if id.APIVersion == "" {
			if strictValidation {
				actions = append(actions, model.HealAction{
					Stage:       "scanner",
					ActionType:  "IDENTITY_DROPPED",
					Target:      fmt.Sprintf("doc[%d]", id.DocIndex),
					Description: fmt.Sprintf("dropped document %d: missing apiVersion for kind %q (strict mode)", id.DocIndex, id.Kind),
					Severity:    model.SeverityError,
				})
				return
			}
			if inferred, ok := inferAPIVersion(cat, id.Kind); ok {
				id.APIVersion = inferred
				id.WasRepaired = true
			} else {
				actions = append(actions, model.HealAction{
					Stage:       "scanner",
					ActionType:  "IDENTITY_DROPPED",
					Target:      fmt.Sprintf("doc[%d]", id.DocIndex),
					Description: fmt.Sprintf("dropped document %d: could not infer apiVersion for kind %q", id.DocIndex, id.Kind),
					Severity:    model.SeverityError,
				})
				return
			}
		}
		if id.Kind == "" {
			actions = append(actions, model.HealAction{
				Stage:       "scanner",
				ActionType:  "IDENTITY_DROPPED",
				Target:      fmt.Sprintf("doc[%d]", id.DocIndex),
				Description: fmt.Sprintf("dropped document %d: missing kind", id.DocIndex),
				Severity:    model.SeverityError,
			})
			return
		}
		identities = append(identities, id)
	}

	for _, shard := range shards {
		if shard.IsBlockScalarContinuation {
			continue
		}
		if shard.IsDocBoundary {
			flush()
			docIndex++
			st = newState()
			st.identity = model.NewIdentity()
			st.identity.DocIndex = docIndex
			st.identity.FilePath = filePath
			continue
		}

		if st.rootIndent < 0 {
			st.rootIndent = shard.Indent
		}

		pop(st, shard)
		tagIntent(shard, cat, len(st.stack))
		extract(st, shard)
		push(st, shard)
	}
	flush()

	return identities, actions
}

func pop(st *state, shard *model.Shard) {
	for len(st.stack) > 0 {
		top := st.stack[len(st.stack)-1]
		if top.indent < shard.Indent {
			break
		}
		if top.indent == shard.Indent && shard.IsListItem && top.isSeq {
			break
		}
		st.stack = st.stack[:len(st.stack)-1]
	}
	if st.currentPort != nil && !stackHas(st.stack, "ports") {
		st.currentPort = nil
	}
	if st.currentBackend != nil && !stackHas(st.stack, "backend") {
		finalizeBackend(st)
	}
}

func push(st *state, shard *model.Shard) {
	if !shard.HasKey {
		return
	}
	st.stack = append(st.stack, frame{
		indent: shard.Indent,
		key:    shard.Key,
		isSeq:  model.ForcedArraySet[shard.Key],
	})
}

func tagIntent(shard *model.Shard, cat *catalog.Catalog, depth int) {
	key := shard.Key
	if key == "" {
		shard.IntentTag = fmt.Sprintf("depth.%d", depth)
		return
	}
	if coreSchemaKeys[key] || cat.IsSchemaKey(key) {
		shard.IntentTag = "k8s." + key
		return
	}
	shard.IntentTag = fmt.Sprintf("depth.%d", depth)
}

func stackHas(stack []frame, key string) bool {
	for _, f := range stack {
		if f.key == key {
			return true
		}
	}
	return false
}

func insideGlobalMetadata(st *state) bool {
	return len(st.stack) == 1 && st.stack[0].key == "metadata" && st.stack[0].indent == st.rootIndent
}

// underGlobalMetadata is looser than insideGlobalMetadata: it accepts any
// depth below the document's root metadata frame, so e.g. metadata.labels
// qualifies. Pod-template metadata (buried under spec.template, never the
// stack's root frame) does not qualify.
func underGlobalMetadata(st *state) bool {
	return len(st.stack) > 0 && st.stack[0].key == "metadata" && st.stack[0].indent == st.rootIndent
}

func extract(st *state, shard *model.Shard) {
	id := st.identity

	// Root level: kind/apiVersion.
	if len(st.stack) == 0 && shard.Indent == st.rootIndent && shard.HasValue {
		switch shard.Key {
		case "kind":
			id.Kind = shard.Value
		case "apiVersion":
			id.APIVersion = shard.Value
		}
	}

	// Global metadata: name/namespace.
	if insideGlobalMetadata(st) && shard.HasValue {
		switch shard.Key {
		case "name":
			id.Name = shard.Value
		case "namespace":
			id.Namespace = shard.Value
		}
	}

	extractSelector(st, shard)
	extractLabels(st, shard)
	extractConfigRefs(st, shard)
	extractVolumeRefs(st, shard)
	extractPorts(st, shard)
	extractContainerPorts(st, shard)
	extractIngressBackend(st, shard)
	extractHPA(st, shard)
	extractServiceAccount(st, shard)
}

func extractSelector(st *state, shard *model.Shard) {
	if !shard.HasValue {
		return
	}
	if stackHas(st.stack, "selector") && stackHas(st.stack, "spec") {
		st.identity.Selector[shard.Key] = shard.Value
	}
}

func extractLabels(st *state, shard *model.Shard) {
	if !shard.HasValue {
		return
	}
	// Any metadata.labels outside a selector counts, Pod-template labels
	// included, so Services can be matched against the pods they select.
	if stackHas(st.stack, "labels") && stackHas(st.stack, "metadata") && !stackHas(st.stack, "selector") {
		st.identity.Labels[shard.Key] = shard.Value
	}
}

func extractConfigRefs(st *state, shard *model.Shard) {
	if !shard.HasValue || shard.Key != "name" {
		return
	}
	if stackHas(st.stack, "volumes") && (stackHas(st.stack, "configMap") || stackHas(st.stack, "secret")) {
		st.identity.ConfigRefs[shard.Value] = true
		return
	}
	if stackHas(st.stack, "env") || stackHas(st.stack, "envFrom") {
		if topEndsWithRef(st.stack) {
			st.identity.ConfigRefs[shard.Value] = true
		}
	}
}

func topEndsWithRef(stack []frame) bool {
	if len(stack) == 0 {
		return false
	}
	return strings.HasSuffix(stack[len(stack)-1].key, "Ref")
}

func extractVolumeRefs(st *state, shard *model.Shard) {
	if shard.HasValue && shard.Key == "claimName" && stackHas(st.stack, "persistentVolumeClaim") {
		st.identity.VolumeRefs[shard.Value] = true
	}
}

func extractPorts(st *state, shard *model.Shard) {
	if st.identity.Kind != "Service" {
		return
	}
	if !stackHas(st.stack, "ports") {
		return
	}
	if shard.IsListItem && st.stack[len(st.stack)-1].key == "ports" {
		st.currentPort = &model.ServicePort{}
		st.identity.ServicePorts = append(st.identity.ServicePorts, *st.currentPort)
	}
	if st.currentPort == nil || !shard.HasValue {
		return
	}
	idx := len(st.identity.ServicePorts) - 1
	if idx < 0 {
		return
	}
	p := &st.identity.ServicePorts[idx]
	switch shard.Key {
	case "port":
		p.Port = atoiOrZero(shard.Value)
	case "targetPort":
		p.TargetPort = shard.Value
	case "name":
		p.Name = shard.Value
	case "protocol":
		p.Protocol = shard.Value
	case "nodePort":
		p.NodePort = atoiOrZero(shard.Value)
	}
}

func extractContainerPorts(st *state, shard *model.Shard) {
	if !workloadKinds[st.identity.Kind] {
		return
	}
	if !shard.HasValue || !stackHas(st.stack, "containers") || !stackHas(st.stack, "ports") {
		return
	}
	switch shard.Key {
	case "containerPort", "name":
		st.identity.ContainerPorts[shard.Value] = true
	}
}

func extractIngressBackend(st *state, shard *model.Shard) {
	if st.identity.Kind != "Ingress" {
		return
	}
	if shard.HasKey && shard.Key == "backend" && st.currentBackend == nil {
		st.currentBackend = &model.IngressBackend{}
	}
	if st.currentBackend == nil || !stackHas(st.stack, "backend") || !shard.HasValue {
		return
	}
	switch shard.Key {
	case "name", "serviceName":
		st.currentBackend.Service = shard.Value
	case "number", "servicePort":
		st.currentBackend.Port = shard.Value
	}
}

func finalizeBackend(st *state) {
	if st.currentBackend == nil {
		return
	}
	st.identity.IngressBackends = append(st.identity.IngressBackends, *st.currentBackend)
	st.currentBackend = nil
}

func extractHPA(st *state, shard *model.Shard) {
	if st.identity.Kind != "HorizontalPodAutoscaler" {
		return
	}
	if shard.HasValue && shard.Key == "name" && stackHas(st.stack, "scaleTargetRef") {
		st.identity.ScaleTarget = shard.Value
	}
}

func extractServiceAccount(st *state, shard *model.Shard) {
	if !workloadKinds[st.identity.Kind] {
		return
	}
	if shard.HasValue && shard.Key == "serviceAccountName" && stackHas(st.stack, "spec") {
		st.identity.ServiceAccount = shard.Value
	}
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

var fallbackAPIVersions = map[string]string{
	"Pod": "v1", "Service": "v1", "ConfigMap": "v1", "Secret": "v1",
	"Namespace": "v1", "Node": "v1", "PersistentVolume": "v1",
	"PersistentVolumeClaim": "v1", "ServiceAccount": "v1", "Endpoints": "v1",
	"Deployment": "apps/v1", "StatefulSet": "apps/v1", "DaemonSet": "apps/v1", "ReplicaSet": "apps/v1",
	"Job": "batch/v1", "CronJob": "batch/v1",
	"Ingress": "networking.k8s.io/v1", "NetworkPolicy": "networking.k8s.io/v1", "IngressClass": "networking.k8s.io/v1",
	"Role": "rbac.authorization.k8s.io/v1", "RoleBinding": "rbac.authorization.k8s.io/v1",
	"ClusterRole": "rbac.authorization.k8s.io/v1", "ClusterRoleBinding": "rbac.authorization.k8s.io/v1",
	"HorizontalPodAutoscaler": "autoscaling/v2", "PodDisruptionBudget": "policy/v1",
}

// inferAPIVersion implements permissive-mode identity repair: catalog
// lookup first (core, OpenAPI, CRD, plugin catalogs are all folded into
// the same Catalog), then catalog.InferAPIVersion's fallback table. The
// catalog lookup only confirms candidates from fallbackAPIVersions; a
// kind that no fallback table names (e.g. a CRD kind known only to a
// loaded catalog) is not inferred.
func inferAPIVersion(cat *catalog.Catalog, kind string) (string, bool) {
	if cat != nil {
		for _, candidate := range candidateAPIVersions(kind) {
			if cat.Has(candidate, kind) {
				return candidate, true
			}
		}
	}
	if v, ok := catalog.InferAPIVersion(kind); ok {
		return v, true
	}
	return "", false
}

// candidateAPIVersions offers the fallback guesses as catalog lookup
// candidates too, since a qualified catalog entry ("apps/v1/Deployment")
// needs the version half before bare kind.Has can succeed.
func candidateAPIVersions(kind string) []string {
	if v, ok := fallbackAPIVersions[kind]; ok {
		return []string{v}
	}
	return nil
}
