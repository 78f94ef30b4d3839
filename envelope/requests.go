package envelope

import "github.com/vtelemetry/vsphere_sdk/common"

// ServiceInstanceRef is the well-known entry point every session starts
// from; it is the only reference that is not server-assigned
var ServiceInstanceRef = common.ObjectRef{Kind: "ServiceInstance", Value: "ServiceInstance"}

// ServiceContentRequest retrieves the service content that names the
// server-side manager objects (RetrieveServiceContent)
type ServiceContentRequest struct{}

// Operation implements Request
func (ServiceContentRequest) Operation() string { return "RetrieveServiceContent" }

func (ServiceContentRequest) writeBody(w *writer) {
	w.ref("_this", ServiceInstanceRef)
}

// LoginRequest authenticates a session (Login)
type LoginRequest struct {
	SessionManager common.ObjectRef
	Username       string
	Password       string
}

// Operation implements Request
func (LoginRequest) Operation() string { return "Login" }

func (r LoginRequest) writeBody(w *writer) {
	w.ref("_this", r.SessionManager)
	w.elem("userName", r.Username)
	w.elem("password", r.Password)
}

// TraversalSpec is one named hierarchy-walk rule: from objects of Type,
// follow the Path property, then apply the rules named in Select to the
// results. Cycles in the walk are expressed through the name references,
// never by unrolling.
type TraversalSpec struct {
	Name   string
	Type   string
	Path   string
	Select []string
}

// RetrievePropertiesRequest enumerates inventory objects and their
// properties through the property collector (RetrieveProperties)
type RetrievePropertiesRequest struct {
	Collector  common.ObjectRef
	Root       common.ObjectRef
	ObjectType string
	PathSet    []string
	IncludeAll bool
	Traversal  []TraversalSpec
}

// Operation implements Request
func (RetrievePropertiesRequest) Operation() string { return "RetrieveProperties" }

func (r RetrievePropertiesRequest) writeBody(w *writer) {
	w.ref("_this", r.Collector)
	w.open("specSet")

	w.open("propSet")
	w.elem("type", r.ObjectType)
	w.elemBool("all", r.IncludeAll)
	for _, path := range r.PathSet {
		w.elem("pathSet", path)
	}
	w.close("propSet")

	w.open("objectSet")
	w.ref("obj", r.Root)
	w.elemBool("skip", false)
	for _, spec := range r.Traversal {
		w.openRaw("selectSet", ` xsi:type="TraversalSpec"`)
		w.elem("name", spec.Name)
		w.elem("type", spec.Type)
		w.elem("path", spec.Path)
		w.elemBool("skip", false)
		for _, name := range spec.Select {
			w.open("selectSet")
			w.elem("name", name)
			w.close("selectSet")
		}
		w.close("selectSet")
	}
	w.close("objectSet")

	w.close("specSet")
}

// AvailableMetricsRequest discovers the metrics one entity reports
// (QueryAvailablePerfMetric). BeginTime, EndTime and IntervalID are
// optional; zero values are omitted from the payload.
type AvailableMetricsRequest struct {
	PerfManager common.ObjectRef
	Entity      common.ObjectRef
	BeginTime   string
	EndTime     string
	IntervalID  int32
}

// Operation implements Request
func (AvailableMetricsRequest) Operation() string { return "QueryAvailablePerfMetric" }

func (r AvailableMetricsRequest) writeBody(w *writer) {
	w.ref("_this", r.PerfManager)
	w.ref("entity", r.Entity)
	if r.BeginTime != "" {
		w.elem("beginTime", r.BeginTime)
	}
	if r.EndTime != "" {
		w.elem("endTime", r.EndTime)
	}
	if r.IntervalID != 0 {
		w.elemInt("intervalId", int64(r.IntervalID))
	}
}

// CounterMetadataRequest fetches the descriptors for a list of counter ids
// in one batched call (QueryPerfCounter)
type CounterMetadataRequest struct {
	PerfManager common.ObjectRef
	CounterIDs  []int32
}

// Operation implements Request
func (CounterMetadataRequest) Operation() string { return "QueryPerfCounter" }

func (r CounterMetadataRequest) writeBody(w *writer) {
	w.ref("_this", r.PerfManager)
	for _, id := range r.CounterIDs {
		w.elemInt("counterId", int64(id))
	}
}

// PerfQueryRequest retrieves time-series samples for one entity
// (QueryPerf). BeginTime, EndTime, MaxSample, IntervalID and Format are
// optional; zero values are omitted.
type PerfQueryRequest struct {
	PerfManager common.ObjectRef
	Entity      common.ObjectRef
	BeginTime   string
	EndTime     string
	MaxSample   int32
	Metrics     []common.MetricInstance
	IntervalID  int32
	Format      string
}

// Operation implements Request
func (PerfQueryRequest) Operation() string { return "QueryPerf" }

func (r PerfQueryRequest) writeBody(w *writer) {
	w.ref("_this", r.PerfManager)
	w.open("querySpec")
	w.ref("entity", r.Entity)
	if r.BeginTime != "" {
		w.elem("startTime", r.BeginTime)
	}
	if r.EndTime != "" {
		w.elem("endTime", r.EndTime)
	}
	if r.MaxSample != 0 {
		w.elemInt("maxSample", int64(r.MaxSample))
	}
	for _, m := range r.Metrics {
		w.open("metricId")
		w.elemInt("counterId", int64(m.CounterID))
		w.elem("instance", m.Instance)
		w.close("metricId")
	}
	if r.IntervalID != 0 {
		w.elemInt("intervalId", int64(r.IntervalID))
	}
	if r.Format != "" {
		w.elem("format", r.Format)
	}
	w.close("querySpec")
}
