package gojob

import (
	"context"

	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue/worker"
	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-custody/core"
)

// LoggingHook reports go-job worker lifecycle events for disbursement jobs.
type LoggingHook struct {
	logger  core.Logger
	metrics core.MetricsRecorder
}

func NewLoggingHook(logger core.Logger, metrics core.MetricsRecorder) *LoggingHook {
	if logger == nil {
		logger = glog.Nop()
	}
	if metrics == nil {
		metrics = core.NopMetricsRecorder{}
	}
	return &LoggingHook{logger: logger, metrics: metrics}
}

func (h *LoggingHook) OnStart(ctx context.Context, event worker.Event) {
	h.logger.Debug("custody job started", h.fields(event)...)
}

func (h *LoggingHook) OnSuccess(ctx context.Context, event worker.Event) {
	h.logger.Info("custody job succeeded", h.fields(event)...)
	h.metrics.IncCounter(ctx, "custody.job.success", 1, map[string]string{"job_id": jobID(event)})
	h.metrics.ObserveHistogram(ctx, "custody.job.duration_ms", float64(event.Duration.Milliseconds()), map[string]string{"job_id": jobID(event)})
}

func (h *LoggingHook) OnFailure(ctx context.Context, event worker.Event) {
	h.logger.Error("custody job failed", h.fields(event)...)
	h.metrics.IncCounter(ctx, "custody.job.failure", 1, map[string]string{"job_id": jobID(event)})
}

func (h *LoggingHook) OnRetry(ctx context.Context, event worker.Event) {
	h.logger.Warn("custody job retry scheduled", h.fields(event)...)
}

func (h *LoggingHook) fields(event worker.Event) []any {
	args := []any{"job_id", jobID(event), "attempt", event.Attempt}
	if msg := message(event); msg != nil && msg.IdempotencyKey != "" {
		args = append(args, "idempotency_key", msg.IdempotencyKey)
	}
	if event.Delay > 0 {
		args = append(args, "delay", event.Delay.String())
	}
	if event.Duration > 0 {
		args = append(args, "duration", event.Duration.String())
	}
	if event.Err != nil {
		args = append(args, "error", event.Err.Error())
	}
	return args
}

func jobID(event worker.Event) string {
	if msg := message(event); msg != nil {
		return msg.JobID
	}
	return ""
}

func message(event worker.Event) *job.ExecutionMessage {
	if event.Message != nil {
		return event.Message
	}
	if event.Delivery != nil {
		return event.Delivery.Message()
	}
	return nil
}

var _ worker.Hook = (*LoggingHook)(nil)
