/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0
*/

// Package model holds the data types shared by every stage of the
// healing pipeline: shards (lexed lines), the reconstructed document
// tree, manifest identities, and the audit/finding types the analyzers
// and orchestrator produce.
package model

// ScalarKind tags the shape of a Value in the reconstructed document tree.
type ScalarKind int

const (
	KindNull ScalarKind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindSeq
	KindMap
)

func (k ScalarKind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindSeq:
		return "seq"
	case KindMap:
		return "map"
	default:
		return "unknown"
	}
}

// LayoutItem is one entry of a layout sequence: either a verbatim
// comment line or a run of blank lines, anchored above a shard or
// mapping entry so the Serializer can reconstitute human layout.
type LayoutItem struct {
	IsGap   bool
	Gap     int
	Comment string
}

// Value is the tagged-variant document value the Structurer builds and
// the Serializer walks. It deliberately avoids typed Kubernetes structs
// (corev1.Pod and friends) so that unknown or malformed shapes still
// round-trip: the healer must tolerate documents whose kind it has never
// seen, which a reflection-based typed decode cannot do.
type Value struct {
	Kind ScalarKind

	Bool   bool
	Int    int64
	Float  float64
	Str    string
	Quoted bool // value was quoted in source; preserve through serialization

	Seq []*Value
	Map *OrderedMap

	// Layout is the comment/gap sequence anchored above this value when
	// it is a mapping-entry value or a standalone sequence item.
	Layout      []LayoutItem
	LineComment string
}

// NewNull, NewBool, ... are small constructors used throughout the
// Structurer to keep value construction uniform.

func NewNull() *Value                { return &Value{Kind: KindNull} }
func NewBool(b bool) *Value          { return &Value{Kind: KindBool, Bool: b} }
func NewInt(i int64) *Value          { return &Value{Kind: KindInt, Int: i} }
func NewFloat(f float64) *Value      { return &Value{Kind: KindFloat, Float: f} }
func NewString(s string) *Value      { return &Value{Kind: KindString, Str: s} }
func NewSeq() *Value                 { return &Value{Kind: KindSeq, Seq: nil} }
func NewMap() *Value                 { return &Value{Kind: KindMap, Map: NewOrderedMap()} }

// MapEntry is one key/value pair of an OrderedMap, carrying its own
// layout sequence so reordering-free round-trips preserve comments.
type MapEntry struct {
	Key         string
	Value       *Value
	Layout      []LayoutItem
	LineComment string
}

// OrderedMap preserves Kubernetes manifests' natural key order; Go's
// map type cannot, so mappings in the document tree use this instead.
type OrderedMap struct {
	entries []MapEntry
	index   map[string]int
}

func NewOrderedMap() *OrderedMap {
	return &OrderedMap{index: make(map[string]int)}
}

// Set inserts or replaces the value for key, preserving original
// position on replace and appending on insert.
func (m *OrderedMap) Set(key string, v *Value) {
	if i, ok := m.index[key]; ok {
		m.entries[i].Value = v
		return
	}
	m.index[key] = len(m.entries)
	m.entries = append(m.entries, MapEntry{Key: key, Value: v})
}

// SetEntry inserts or replaces a full entry (including layout/comments).
func (m *OrderedMap) SetEntry(e MapEntry) {
	if i, ok := m.index[e.Key]; ok {
		m.entries[i] = e
		return
	}
	m.index[e.Key] = len(m.entries)
	m.entries = append(m.entries, e)
}

// Get returns the value for key and whether it was present.
func (m *OrderedMap) Get(key string) (*Value, bool) {
	if m == nil {
		return nil, false
	}
	if i, ok := m.index[key]; ok {
		return m.entries[i].Value, true
	}
	return nil, false
}

// GetEntry returns the full entry for key.
func (m *OrderedMap) GetEntry(key string) (MapEntry, bool) {
	if m == nil {
		return MapEntry{}, false
	}
	if i, ok := m.index[key]; ok {
		return m.entries[i], true
	}
	return MapEntry{}, false
}

// Keys returns keys in insertion order.
func (m *OrderedMap) Keys() []string {
	if m == nil {
		return nil
	}
	keys := make([]string, len(m.entries))
	for i, e := range m.entries {
		keys[i] = e.Key
	}
	return keys
}

// Entries returns the entries in insertion order. Callers must not
// mutate the returned slice's backing array.
func (m *OrderedMap) Entries() []MapEntry {
	if m == nil {
		return nil
	}
	return m.entries
}

func (m *OrderedMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}

// Shard is the atomic lexical unit of a line, produced by the Lexer and
// mutated only by Shadow (Layout, Comment) and Scanner (IntentTag).
type Shard struct {
	Line int
	// Indent is the number of leading spaces after tab-expansion and repair.
	Indent int

	HasKey bool
	Key    string

	HasValue  bool
	Value     string
	ValueTag  string // anchor/alias/tag prefix modifier captured verbatim, e.g. "&anchor", "*alias", "!!str"

	IsListItem                bool
	IsBlockScalarContinuation bool
	IsDocBoundary             bool

	Comment string

	RawLine string

	// Layout is the comment/blank-gap sequence anchored above this shard.
	Layout []LayoutItem

	IntentTag string

	// IgnoreHeuristics is set by a trailing "# yamlr:ignore" comment and
	// disables further per-line heuristics for this line.
	IgnoreHeuristics bool
}

// ServicePort mirrors one entry of a Service's spec.ports list.
type ServicePort struct {
	Port       int
	TargetPort string
	Name       string
	Protocol   string
	NodePort   int
}

// IngressBackend mirrors one Ingress path's backend service reference.
type IngressBackend struct {
	Service string
	Port    string
}

// DeprecationSeverity classifies how urgently a deprecated API must migrate.
type DeprecationSeverity string

const (
	DeprecationWarning DeprecationSeverity = "WARNING"
	DeprecationRemoved DeprecationSeverity = "REMOVED"
)

// MigrationStrategy names the mechanical fix (if any) for a deprecated API.
type MigrationStrategy string

const (
	StrategyNone              MigrationStrategy = "NONE"
	StrategyReplaceAPIVersion MigrationStrategy = "REPLACE_API_VERSION"
	StrategyDeploymentSelector MigrationStrategy = "DEPLOYMENT_SELECTOR"
	StrategyIngressV1         MigrationStrategy = "INGRESS_V1"
	StrategyCronJobV1         MigrationStrategy = "CRONJOB_V1"
)

// DeprecationInfo is an immutable record from the Deprecation DB.
type DeprecationInfo struct {
	DeprecatedAPI   string
	ReplacementAPI  string
	DeprecatedIn    string
	RemovedIn       string
	Kind            string
	Severity        DeprecationSeverity
	MigrationNotes  string
	Strategy        MigrationStrategy
}

// Identity is the "DNA" of one Kubernetes document (ManifestIdentity in spec.md).
type Identity struct {
	APIVersion string
	Kind       string
	Name       string
	Namespace  string
	DocIndex   int

	// WasRepaired is set when the Scanner inferred a missing apiVersion
	// from kind via catalog-plus-heuristic lookup (permissive mode).
	WasRepaired bool

	Selector map[string]string
	Labels   map[string]string

	ServicePorts   []ServicePort
	ContainerPorts map[string]bool // set of string-or-number port identifiers

	ConfigRefs map[string]bool // ConfigMap/Secret names referenced
	VolumeRefs map[string]bool // PVC names referenced

	ServiceRefs      map[string]bool // Service names referenced (from Ingress backends)
	IngressBackends  []IngressBackend

	ScaleTarget     string // HPA -> workload name
	ServiceAccount  string

	DeprecationInfo *DeprecationInfo
	FilePath        string
}

// NewIdentity returns an Identity with all set-valued fields initialized.
func NewIdentity() *Identity {
	return &Identity{
		Selector:       make(map[string]string),
		Labels:         make(map[string]string),
		ContainerPorts: make(map[string]bool),
		ConfigRefs:     make(map[string]bool),
		VolumeRefs:     make(map[string]bool),
		ServiceRefs:    make(map[string]bool),
	}
}

// Severity classifies an AnalysisResult's urgency.
type Severity string

const (
	SeverityInfo    Severity = "INFO"
	SeverityWarning Severity = "WARNING"
	SeverityError   Severity = "ERROR"
)

// AnalysisResult is one analyzer finding.
type AnalysisResult struct {
	AnalyzerName   string
	Severity       Severity
	Message        string
	ResourceName   string
	ResourceKind   string
	FilePath       string
	RuleID         string
	LineNumber     *int
	Suggestion     string
	FixAvailable   bool
	FixID          string
}

// HealAction is one audit-log entry.
type HealAction struct {
	Stage       string
	ActionType  string
	Target      string
	Description string
	Severity    Severity
}

// ForcedArraySet is the fixed set of Kubernetes field names that must
// serialize as sequences even when a single value was parsed.
var ForcedArraySet = map[string]bool{
	"containers":       true,
	"initContainers":   true,
	"ephemeralContainers": true,
	"ports":            true,
	"env":              true,
	"envFrom":          true,
	"volumes":          true,
	"volumeMounts":     true,
	"volumeDevices":    true,
	"rules":            true,
	"subjects":         true,
	"apiGroups":        true,
	"resources":        true,
	"verbs":            true,
	"finalizers":       true,
	"conditions":       true,
	"taints":           true,
	"tolerations":      true,
	"matchExpressions": true,
	"paths":            true,
	"hosts":            true,
	"command":          true,
	"args":             true,
	"imagePullSecrets": true,
	"items":            true,
	"containerStatuses": true,
	"ownerReferences":  true,
	"topologySpreadConstraints": true,
	"affinityTerms":    true,
}
