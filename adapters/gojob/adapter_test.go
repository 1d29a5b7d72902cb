package gojob

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue"
	"github.com/goliatone/go-job/queue/worker"

	"github.com/goliatone/go-custody/core"
)

func sampleRequest() core.DisbursementRequest {
	return core.DisbursementRequest{
		OriginatorID:    "orig-1",
		PartnerID:       "partner-a",
		LoanID:          "loan-1",
		Amount:          "125.50",
		AssetSymbol:     "USDC",
		ChainID:         "8453",
		BorrowerAddress: "0x00000000000000000000000000000000000000aa",
		WalletFlowID:    core.FlowDistribution,
		Metadata:        map[string]any{core.MetadataAmountInBaseUnits: false},
	}
}

func TestMessageMappingRoundTrip(t *testing.T) {
	original := sampleRequest()

	converted := ToExecutionMessage(original)
	if converted.JobID != JobIDDisbursementExecute {
		t.Fatalf("expected job id %q, got %q", JobIDDisbursementExecute, converted.JobID)
	}
	if converted.IdempotencyKey != "custody.disbursement.execute:orig-1:partner-a:loan-1" {
		t.Fatalf("unexpected idempotency key %q", converted.IdempotencyKey)
	}
	if string(converted.DedupPolicy) != DefaultDedupPolicy {
		t.Fatalf("expected dedup policy %q, got %q", DefaultDedupPolicy, converted.DedupPolicy)
	}
	if _, ok := converted.Parameters[paramWalletAccountAlias]; ok {
		t.Fatalf("expected empty optional parameters to be omitted")
	}

	roundTrip, err := FromExecutionMessage(converted)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if roundTrip.LoanID != original.LoanID || roundTrip.Amount != original.Amount ||
		roundTrip.BorrowerAddress != original.BorrowerAddress || roundTrip.WalletFlowID != original.WalletFlowID {
		t.Fatalf("unexpected roundtrip request: %#v", roundTrip)
	}
	if roundTrip.AmountInBaseUnits() {
		t.Fatalf("expected metadata to survive mapping")
	}
}

func TestFromExecutionMessageRejectsIncompletePayload(t *testing.T) {
	if _, err := FromExecutionMessage(nil); err == nil {
		t.Fatalf("expected nil message error")
	}
	if _, err := FromExecutionMessage(&job.ExecutionMessage{JobID: "other.job"}); err == nil {
		t.Fatalf("expected unexpected job id error")
	}
	msg := ToExecutionMessage(sampleRequest())
	delete(msg.Parameters, paramAmount)
	if _, err := FromExecutionMessage(msg); err == nil || !strings.Contains(err.Error(), "amount") {
		t.Fatalf("expected missing amount error, got %v", err)
	}
}

func TestEnqueuerAdapter(t *testing.T) {
	enqueuer := &stubQueueEnqueuer{}
	if err := NewEnqueuerAdapter(enqueuer).EnqueueDisbursement(context.Background(), sampleRequest()); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if enqueuer.last == nil || enqueuer.last.JobID != JobIDDisbursementExecute {
		t.Fatalf("expected mapped go-job message")
	}
	if err := NewEnqueuerAdapter(enqueuer).EnqueueDisbursement(context.Background(), core.DisbursementRequest{}); err == nil {
		t.Fatalf("expected loan id requirement")
	}
	if err := NewEnqueuerAdapter(nil).EnqueueDisbursement(context.Background(), sampleRequest()); err == nil {
		t.Fatalf("expected missing enqueuer error")
	}
}

func TestDisbursementWorker_AcksSubmittedAndConsensusRequired(t *testing.T) {
	for _, status := range []core.DisbursementStatus{
		core.DisbursementStatusSubmitted,
		core.DisbursementStatusConsensusRequired,
	} {
		delivery := &stubQueueDelivery{msg: ToExecutionMessage(sampleRequest())}
		service := stubDisburser{result: core.DisbursementResult{LoanID: "loan-1", Status: status}}
		w, err := NewDisbursementWorker(service, &stubQueueDequeuer{delivery: delivery})
		if err != nil {
			t.Fatalf("new worker: %v", err)
		}

		outcome, err := w.ProcessNext(context.Background())
		if err != nil {
			t.Fatalf("%s: process: %v", status, err)
		}
		if !outcome.Acked || !delivery.acked || delivery.nacked {
			t.Fatalf("%s: expected ack, got %#v", status, outcome)
		}
	}
}

func TestDisbursementWorker_DeadLettersFailuresWithoutRequeue(t *testing.T) {
	cases := map[string]*stubQueueDelivery{
		"service error": {msg: ToExecutionMessage(sampleRequest())},
		"bad payload":   {msg: &job.ExecutionMessage{JobID: JobIDDisbursementExecute}},
	}
	for name, delivery := range cases {
		service := stubDisburser{err: errors.New("insufficient balance")}
		w, _ := NewDisbursementWorker(service, nil)

		outcome, err := w.Handle(context.Background(), delivery)
		if err != nil {
			t.Fatalf("%s: handle: %v", name, err)
		}
		if !outcome.DeadLetter || outcome.Err == nil {
			t.Fatalf("%s: expected dead-letter outcome, got %#v", name, outcome)
		}
		if delivery.acked || !delivery.nacked {
			t.Fatalf("%s: expected nack", name)
		}
		if delivery.nackOpts.Requeue || !delivery.nackOpts.DeadLetter {
			t.Fatalf("%s: expected dead letter without requeue, got %#v", name, delivery.nackOpts)
		}
		if delivery.nackOpts.Reason == "" {
			t.Fatalf("%s: expected nack reason", name)
		}
	}
}

func TestDisbursementWorker_DeadLettersUnknownStatus(t *testing.T) {
	delivery := &stubQueueDelivery{msg: ToExecutionMessage(sampleRequest())}
	w, _ := NewDisbursementWorker(stubDisburser{result: core.DisbursementResult{Status: "queued"}}, nil)
	outcome, err := w.Handle(context.Background(), delivery)
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if !outcome.DeadLetter || !strings.Contains(delivery.nackOpts.Reason, "queued") {
		t.Fatalf("expected unknown status to dead-letter, got %#v", delivery.nackOpts)
	}
}

func TestDisbursementWorker_RunStopsOnCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	dequeuer := &cancelingDequeuer{cancel: cancel}
	w, _ := NewDisbursementWorker(stubDisburser{}, dequeuer)
	if err := w.Run(ctx); err != nil {
		t.Fatalf("expected clean shutdown, got %v", err)
	}
	if dequeuer.calls != 1 {
		t.Fatalf("expected one dequeue attempt, got %d", dequeuer.calls)
	}
}

func TestNewDisbursementWorkerRequiresService(t *testing.T) {
	if _, err := NewDisbursementWorker(nil, nil); err == nil {
		t.Fatalf("expected service requirement")
	}
}

func TestLoggingHookRecordsOutcomes(t *testing.T) {
	metrics := &capturingMetrics{}
	hook := NewLoggingHook(nil, metrics)
	event := worker.Event{
		Message:  ToExecutionMessage(sampleRequest()),
		Attempt:  1,
		Duration: 40 * time.Millisecond,
	}
	hook.OnStart(context.Background(), event)
	hook.OnSuccess(context.Background(), event)
	hook.OnFailure(context.Background(), worker.Event{Delivery: &stubQueueDelivery{msg: event.Message}, Err: errors.New("boom")})
	hook.OnRetry(context.Background(), worker.Event{Delay: time.Second})

	if metrics.counters["custody.job.success"] != 1 || metrics.counters["custody.job.failure"] != 1 {
		t.Fatalf("unexpected counters: %#v", metrics.counters)
	}
	if metrics.tags["custody.job.failure"]["job_id"] != JobIDDisbursementExecute {
		t.Fatalf("expected job id resolved from delivery, got %#v", metrics.tags)
	}
	if metrics.histograms["custody.job.duration_ms"] != 40 {
		t.Fatalf("expected duration histogram, got %#v", metrics.histograms)
	}
}

type stubDisburser struct {
	result core.DisbursementResult
	err    error
}

func (s stubDisburser) InitiateDisbursement(
	context.Context,
	core.DisbursementRequest,
	...core.DisbursementOption,
) (core.DisbursementResult, error) {
	return s.result, s.err
}

type stubQueueEnqueuer struct {
	last *job.ExecutionMessage
}

func (s *stubQueueEnqueuer) Enqueue(_ context.Context, msg *job.ExecutionMessage) error {
	s.last = msg
	return nil
}

type stubQueueDequeuer struct {
	delivery queue.Delivery
}

func (s *stubQueueDequeuer) Dequeue(context.Context) (queue.Delivery, error) {
	return s.delivery, nil
}

type cancelingDequeuer struct {
	cancel context.CancelFunc
	calls  int
}

func (d *cancelingDequeuer) Dequeue(ctx context.Context) (queue.Delivery, error) {
	d.calls++
	d.cancel()
	return nil, ctx.Err()
}

type stubQueueDelivery struct {
	msg      *job.ExecutionMessage
	acked    bool
	nacked   bool
	nackOpts queue.NackOptions
}

func (s *stubQueueDelivery) Message() *job.ExecutionMessage {
	return s.msg
}

func (s *stubQueueDelivery) Ack(context.Context) error {
	s.acked = true
	return nil
}

func (s *stubQueueDelivery) Nack(_ context.Context, opts queue.NackOptions) error {
	s.nacked = true
	s.nackOpts = opts
	return nil
}

type capturingMetrics struct {
	counters   map[string]int64
	histograms map[string]float64
	tags       map[string]map[string]string
}

func (m *capturingMetrics) IncCounter(_ context.Context, name string, value int64, tags map[string]string) {
	if m.counters == nil {
		m.counters = map[string]int64{}
		m.tags = map[string]map[string]string{}
	}
	m.counters[name] += value
	m.tags[name] = tags
}

func (m *capturingMetrics) ObserveHistogram(_ context.Context, name string, value float64, _ map[string]string) {
	if m.histograms == nil {
		m.histograms = map[string]float64{}
	}
	m.histograms[name] = value
}
