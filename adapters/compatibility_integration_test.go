package adapters_test

import (
	"context"
	"testing"

	"github.com/goliatone/go-command"
	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue"
	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-custody/adapters/gocommand"
	"github.com/goliatone/go-custody/adapters/gojob"
	"github.com/goliatone/go-custody/adapters/gologger"
	custodycommand "github.com/goliatone/go-custody/command"
	"github.com/goliatone/go-custody/core"
)

func TestRuntimeCompatibility_QueuedDisbursementDispatchesThroughCommandBus(t *testing.T) {
	ctx := context.Background()

	svc := &compatCustodyService{}
	adapter := gocommand.NewRegistryAdapter(command.NewRegistry())
	subs, err := gocommand.Register(adapter, gocommand.Handlers{Service: svc})
	if err != nil {
		t.Fatalf("register custody handlers: %v", err)
	}
	defer subs.Unsubscribe()
	if err := adapter.Initialize(); err != nil {
		t.Fatalf("initialize command registry: %v", err)
	}

	memoryQueue := &compatQueue{}
	req := core.DisbursementRequest{
		OriginatorID:    "orig-1",
		PartnerID:       "partner-a",
		LoanID:          "loan-42",
		Amount:          "10",
		ChainID:         "8453",
		BorrowerAddress: "0x00000000000000000000000000000000000000aa",
	}
	if err := gojob.NewEnqueuerAdapter(memoryQueue).EnqueueDisbursement(ctx, req); err != nil {
		t.Fatalf("enqueue disbursement: %v", err)
	}

	_, _, jobProvider, jobLogger := gologger.ResolveForJob("custody", &compatProvider{logger: compatLogger{}}, nil)
	if jobProvider == nil || jobLogger == nil {
		t.Fatalf("expected go-job logger bridges")
	}

	worker, err := gojob.NewDisbursementWorker(
		dispatchingDisburser{},
		memoryQueue,
		gojob.WithWorkerLogger(gologger.WorkerLogger(nil, compatLogger{})),
	)
	if err != nil {
		t.Fatalf("new worker: %v", err)
	}
	outcome, err := worker.ProcessNext(ctx)
	if err != nil {
		t.Fatalf("process queued disbursement: %v", err)
	}
	if !outcome.Acked || outcome.Result.TransactionHash != "0xfeed" {
		t.Fatalf("expected acked submitted disbursement, got %#v", outcome)
	}
	if svc.lastLoanID != "loan-42" {
		t.Fatalf("expected command bus to reach the service, got %q", svc.lastLoanID)
	}
	if !memoryQueue.delivery.acked {
		t.Fatalf("expected queue delivery ack")
	}
}

// dispatchingDisburser routes worker executions through the command bus.
type dispatchingDisburser struct{}

func (dispatchingDisburser) InitiateDisbursement(
	ctx context.Context,
	req core.DisbursementRequest,
	_ ...core.DisbursementOption,
) (core.DisbursementResult, error) {
	collector := command.NewResult[core.DisbursementResult]()
	ctx = command.ContextWithResult(ctx, collector)
	if err := gocommand.Dispatch(ctx, custodycommand.InitiateDisbursementMessage{Request: req}); err != nil {
		return core.DisbursementResult{}, err
	}
	result, _ := collector.Load()
	return result, nil
}

type compatCustodyService struct {
	lastLoanID string
}

func (s *compatCustodyService) Initialize(context.Context, core.PlatformConfig) error { return nil }

func (s *compatCustodyService) ProvisionOriginator(context.Context, core.OriginatorConfiguration) (core.ProvisioningResult, error) {
	return core.ProvisioningResult{}, nil
}

func (s *compatCustodyService) RegisterProvisioningArtifacts(context.Context, core.ProvisioningArtifacts) error {
	return nil
}

func (s *compatCustodyService) GetProvisioningSnapshot(context.Context, string) (core.ProvisioningSnapshot, error) {
	return core.ProvisioningSnapshot{}, nil
}

func (s *compatCustodyService) InitiateDisbursement(
	_ context.Context,
	req core.DisbursementRequest,
	_ ...core.DisbursementOption,
) (core.DisbursementResult, error) {
	s.lastLoanID = req.LoanID
	return core.DisbursementResult{
		LoanID:          req.LoanID,
		Status:          core.DisbursementStatusSubmitted,
		TransactionHash: "0xfeed",
	}, nil
}

type compatQueue struct {
	delivery *compatDelivery
}

func (q *compatQueue) Enqueue(_ context.Context, msg *job.ExecutionMessage) error {
	q.delivery = &compatDelivery{msg: msg}
	return nil
}

func (q *compatQueue) Dequeue(context.Context) (queue.Delivery, error) {
	return q.delivery, nil
}

type compatDelivery struct {
	msg   *job.ExecutionMessage
	acked bool
}

func (d *compatDelivery) Message() *job.ExecutionMessage { return d.msg }

func (d *compatDelivery) Ack(context.Context) error {
	d.acked = true
	return nil
}

func (d *compatDelivery) Nack(context.Context, queue.NackOptions) error { return nil }

type compatProvider struct {
	logger glog.Logger
}

func (p *compatProvider) GetLogger(string) glog.Logger {
	if p == nil || p.logger == nil {
		return glog.Nop()
	}
	return p.logger
}

type compatLogger struct{}

func (compatLogger) Trace(string, ...any)                    {}
func (compatLogger) Debug(string, ...any)                    {}
func (compatLogger) Info(string, ...any)                     {}
func (compatLogger) Warn(string, ...any)                     {}
func (compatLogger) Error(string, ...any)                    {}
func (compatLogger) Fatal(string, ...any)                    {}
func (compatLogger) WithContext(context.Context) glog.Logger { return compatLogger{} }
