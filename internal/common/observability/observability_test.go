package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestObservability_Spans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	obs, err := New(Options{
		ServiceName:    "career-matching-test",
		Registerer:     promclient.NewRegistry(),
		SpanProcessors: []sdktrace.SpanProcessor{recorder},
	})
	require.NoError(t, err)
	defer obs.Shutdown()

	_, span := obs.StartSpan(context.Background(), "recommend-careers", attribute.Int64("jobKey", 42))
	EndSpan(span, nil)
	_, failed := obs.StartSpan(context.Background(), "match-careers")
	EndSpan(failed, errors.New("catalog unavailable"))

	ended := recorder.Ended()
	require.Len(t, ended, 2)
	assert.Equal(t, "recommend-careers", ended[0].Name())
	assert.Contains(t, ended[0].Attributes(), attribute.Int64("jobKey", 42))
	assert.Equal(t, codes.Ok, ended[0].Status().Code)
	assert.Equal(t, codes.Error, ended[1].Status().Code)
	assert.Equal(t, "catalog unavailable", ended[1].Status().Description)
}

func TestObservability_RecordsJobMetrics(t *testing.T) {
	reg := promclient.NewRegistry()
	obs, err := New(Options{ServiceName: "career-matching-test", Registerer: reg})
	require.NoError(t, err)
	defer obs.Shutdown()

	obs.RecordJobProcessed(context.Background(), "recommend-careers", "completed")
	obs.RecordJobDuration(context.Background(), "recommend-careers", 15*time.Millisecond)

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "jobs_processed_total")
	assert.Contains(t, names, "jobs_duration_milliseconds")
	for _, name := range names {
		assert.NotContains(t, name, ".", "exported names are scrapeable by classic parsers")
	}
}

func TestObservability_NilIsNoOp(t *testing.T) {
	var obs *Observability
	ctx, span := obs.StartSpan(context.Background(), "noop")
	assert.NotNil(t, ctx)
	assert.False(t, span.IsRecording())
	obs.RecordJobProcessed(ctx, "t", "completed")
	obs.Shutdown()
}
