package common

// ManagedObjectKind names the inventory roots the SDK can enumerate
type ManagedObjectKind string

const (
	// KindVirtualMachine virtual machine inventory objects
	KindVirtualMachine ManagedObjectKind = "VirtualMachine"
	// KindHostSystem hypervisor host inventory objects
	KindHostSystem ManagedObjectKind = "HostSystem"
	// KindComputeResource standalone compute resources
	KindComputeResource ManagedObjectKind = "ComputeResource"
	// KindClusterComputeResource clustered compute resources
	KindClusterComputeResource ManagedObjectKind = "ClusterComputeResource"
)

// ValidObjectKinds contains all object kinds the metric pipeline accepts
var ValidObjectKinds = map[ManagedObjectKind]bool{
	KindVirtualMachine:         true,
	KindHostSystem:             true,
	KindComputeResource:        true,
	KindClusterComputeResource: true,
}

// ObjectRef is an opaque handle to a server-side managed entity. It is
// scoped to the session that produced it and is never parsed for meaning.
type ObjectRef struct {
	Kind  string `json:"kind"`  // managed object type, e.g. "VirtualMachine"
	Value string `json:"value"` // server-assigned identifier, e.g. "vm-101"
}

// IsZero reports whether the reference is unset
func (r ObjectRef) IsZero() bool {
	return r.Kind == "" && r.Value == ""
}

// PropertySet is one inventory object together with the property values
// the traversal returned for it
type PropertySet struct {
	Obj   ObjectRef      `json:"obj"`
	Props map[string]any `json:"props"` // property path -> decoded value
}

// MetricDescriptor is the server-authoritative metadata for one performance
// counter. Immutable once fetched; shared by pointer, never copied.
type MetricDescriptor struct {
	CounterID   int32  `json:"counter_id"`
	GroupLabel  string `json:"group_label"`
	NameLabel   string `json:"name_label"`
	Description string `json:"description"`
	Unit        string `json:"unit"`
	RollupType  string `json:"rollup_type"`
	StatsType   string `json:"stats_type"`
	Level       int32  `json:"level"`
}

// MetricInstance identifies one available metric on one entity: a counter
// plus the device instance it is reported for ("" = aggregate).
type MetricInstance struct {
	CounterID int32  `json:"counter_id"`
	Instance  string `json:"instance"`
}

// MetricCatalog maps counterId to its descriptor. One catalog per pipeline
// run, shared by reference across every enriched object result.
type MetricCatalog = map[int32]*MetricDescriptor

// EnrichedMetric is a discovered metric instance joined with its descriptor
// from the shared catalog
type EnrichedMetric struct {
	Descriptor *MetricDescriptor `json:"descriptor"`
	Instance   string            `json:"instance"`
}

// ObjectMetrics is the per-object result of a pipeline run
type ObjectMetrics struct {
	Obj     ObjectRef        `json:"obj"`
	Name    string           `json:"name"`
	Metrics []EnrichedMetric `json:"metrics"`
}

// PipelineResult is the complete output of one metric pipeline run
type PipelineResult struct {
	Objects []ObjectMetrics `json:"objects"`
	Catalog MetricCatalog   `json:"catalog"`
}

// SampleInfo is the timestamp/interval pair describing one sampling slot of
// a time-series query
type SampleInfo struct {
	Timestamp string `json:"timestamp"`
	Interval  int32  `json:"interval"`
}

// SampleSeries is one counter/instance value series of a time-series query
type SampleSeries struct {
	CounterID int32   `json:"counter_id"`
	Instance  string  `json:"instance"`
	Values    []int64 `json:"values"`
}

// EntityMetrics is the decoded time-series result for one entity
type EntityMetrics struct {
	Entity  ObjectRef      `json:"entity"`
	Samples []SampleInfo   `json:"samples"`
	Series  []SampleSeries `json:"series"`
}

// OutputOptions selects which diagnostic fields of a CallResult each call
// populates. Any subset may be enabled; the zero value populates none.
// Passed per call, never stored as shared state.
type OutputOptions struct {
	IncludeRaw     bool `yaml:"include-raw" toml:"include-raw" json:"include-raw"`
	IncludeHeaders bool `yaml:"include-headers" toml:"include-headers" json:"include-headers"`
	IncludeJSON    bool `yaml:"include-json" toml:"include-json" json:"include-json"`
	IncludeValue   bool `yaml:"include-value" toml:"include-value" json:"include-value"`
}

// CallResult carries the per-call diagnostics of one public operation.
// Err is always present: empty string on success, otherwise the error text;
// when Err is non-empty no other field is guaranteed complete.
type CallResult struct {
	Raw     []byte            `json:"raw,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
	JSON    string            `json:"json,omitempty"`
	Value   any               `json:"value,omitempty"`
	Err     string            `json:"error"`
}

// SetError records err on the result, mapping nil to the empty string
func (r *CallResult) SetError(err error) {
	if err == nil {
		r.Err = ""
		return
	}
	r.Err = err.Error()
}
