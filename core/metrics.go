package core

import (
	"context"
	"fmt"
	"strings"
)

const (
	metricPrefix             = "custody."
	disbursementMetricPrefix = metricPrefix + "disbursement."

	// disbursementOutcomeRejected tags disbursements that failed before the
	// executor produced a status.
	disbursementOutcomeRejected = "rejected"
)

// operationTagKeys lists the log fields promoted to tags on every
// operation metric.
var operationTagKeys = []string{"originator_id", "partner_id", "chain_id", "disbursement_status"}

// NopMetricsRecorder discards every sample. It is the default recorder.
type NopMetricsRecorder struct{}

func (NopMetricsRecorder) IncCounter(context.Context, string, int64, map[string]string) {}

func (NopMetricsRecorder) ObserveHistogram(context.Context, string, float64, map[string]string) {}

var _ MetricsRecorder = NopMetricsRecorder{}

func operationMetric(operation string, suffix string) string {
	return metricPrefix + operation + "." + suffix
}

func operationTags(operation string, status string, fields map[string]any) map[string]string {
	tags := map[string]string{
		"operation": operation,
		"status":    status,
	}
	for _, key := range operationTagKeys {
		if value, ok := fieldTag(fields, key); ok {
			tags[key] = value
		}
	}
	return tags
}

// disbursementTags carries no originator or partner identifiers.
func disbursementTags(fields map[string]any, failed bool) map[string]string {
	tags := map[string]string{}
	if value, ok := fieldTag(fields, "chain_id"); ok {
		tags["chain_id"] = value
	}
	if value, ok := fieldTag(fields, "asset_symbol"); ok {
		tags["asset_symbol"] = strings.ToUpper(value)
	}
	if status, ok := fieldTag(fields, "disbursement_status"); ok {
		tags["disbursement_status"] = status
	} else if failed {
		tags["disbursement_status"] = disbursementOutcomeRejected
	}
	return tags
}

func fieldTag(fields map[string]any, key string) (string, bool) {
	raw, ok := fields[key]
	if !ok || raw == nil {
		return "", false
	}
	value := strings.TrimSpace(fmt.Sprint(raw))
	if value == "" || value == "<nil>" {
		return "", false
	}
	return value, true
}

func cloneTags(tags map[string]string) map[string]string {
	if len(tags) == 0 {
		return map[string]string{}
	}
	copied := make(map[string]string, len(tags))
	for key, value := range tags {
		copied[key] = value
	}
	return copied
}
