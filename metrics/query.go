package metrics

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/vtelemetry/vsphere_sdk/common"
	"github.com/vtelemetry/vsphere_sdk/envelope"
	"github.com/vtelemetry/vsphere_sdk/session"
	"github.com/vtelemetry/vsphere_sdk/transcode"
)

// TimeFormat is the timestamp layout the endpoint expects for query bounds
const TimeFormat = "2006-01-02T15:04:05Z"

// QuerySpec describes one time-series query. Begin, End, MaxSample,
// IntervalID and Format are optional.
type QuerySpec struct {
	// Entity the object to query samples for
	Entity common.ObjectRef
	// Begin earliest sample time, zero means server default
	Begin time.Time
	// End latest sample time, zero means now
	End time.Time
	// MaxSample maximum number of samples per series
	MaxSample int32
	// Metrics the counter/instance pairs to retrieve
	Metrics []common.MetricInstance
	// IntervalID sampling interval in seconds
	IntervalID int32
	// Format output format requested from the server, e.g. "normal"
	Format string
}

// validate checks the query parameters before any network call
func (q *QuerySpec) validate() error {
	if q.Entity.IsZero() {
		return fmt.Errorf("%w: query entity cannot be empty", common.ErrValidation)
	}
	if len(q.Metrics) == 0 {
		return fmt.Errorf("%w: query needs at least one metric", common.ErrValidation)
	}
	for i, m := range q.Metrics {
		if m.CounterID <= 0 {
			return fmt.Errorf("%w: metric %d has no counter id", common.ErrValidation, i)
		}
	}
	return nil
}

// Query retrieves time-series samples for one entity and decodes them into
// per-series value lists
func (p *Pipeline) Query(ctx context.Context, spec QuerySpec) (*common.EntityMetrics, error) {
	if err := p.sess.RequireAuthenticated(); err != nil {
		return nil, err
	}
	if err := spec.validate(); err != nil {
		return nil, err
	}

	perfManager, ok := p.sess.Ref(session.RefPerfManager)
	if !ok {
		return nil, fmt.Errorf("%w: session has no performance manager reference", common.ErrSession)
	}

	req := envelope.PerfQueryRequest{
		PerfManager: perfManager,
		Entity:      spec.Entity,
		MaxSample:   spec.MaxSample,
		Metrics:     spec.Metrics,
		IntervalID:  spec.IntervalID,
		Format:      spec.Format,
	}
	if !spec.Begin.IsZero() {
		req.BeginTime = spec.Begin.UTC().Format(TimeFormat)
	}
	if !spec.End.IsZero() {
		req.EndTime = spec.End.UTC().Format(TimeFormat)
	}

	resp, err := p.tr.Call(ctx, envelope.Build(req))
	if err != nil {
		return nil, err
	}

	root, err := transcode.Decode(resp.Body, p.schema)
	if err != nil {
		return nil, err
	}
	body := transcode.Unwrap(root, "QueryPerf")

	returnvals := transcode.ArrayField(body, "returnval")
	if len(returnvals) == 0 {
		// zero samples for a valid entity is an empty result, not a
		// malformed envelope
		return &common.EntityMetrics{Entity: spec.Entity}, nil
	}
	entry := returnvals[0]

	entity, err := transcode.RefField(entry, "entity")
	if err != nil {
		return nil, err
	}

	result := &common.EntityMetrics{Entity: entity}

	for _, info := range transcode.ArrayField(entry, "sampleInfo") {
		interval, err := int32Field(info, "interval")
		if err != nil {
			return nil, err
		}
		result.Samples = append(result.Samples, common.SampleInfo{
			Timestamp: textField(info, "timestamp"),
			Interval:  interval,
		})
	}

	for _, seriesEntry := range transcode.ArrayField(entry, "value") {
		id, ok := transcode.Field(seriesEntry, "id")
		if !ok {
			return nil, fmt.Errorf("%w: metric series without id", common.ErrProtocol)
		}
		counterID, err := int32Field(id, "counterId")
		if err != nil {
			return nil, err
		}

		series := common.SampleSeries{
			CounterID: counterID,
			Instance:  textField(id, "instance"),
		}
		for _, raw := range transcode.ArrayField(seriesEntry, "value") {
			n, err := strconv.ParseInt(transcode.Text(raw), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: invalid sample value %q for counter %d", common.ErrProtocol, transcode.Text(raw), counterID)
			}
			series.Values = append(series.Values, n)
		}
		result.Series = append(result.Series, series)
	}

	return result, nil
}
