package gojob

import (
	"context"
	"errors"
	"fmt"
	"strings"

	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue"
	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-custody/core"
)

const (
	JobIDDisbursementExecute = "custody.disbursement.execute"

	// DefaultDedupPolicy drops a second enqueue for the same loan.
	DefaultDedupPolicy = "drop"
)

const (
	paramOriginatorID         = "originator_id"
	paramPartnerID            = "partner_id"
	paramLoanID               = "loan_id"
	paramAmount               = "amount"
	paramAssetSymbol          = "asset_symbol"
	paramChainID              = "chain_id"
	paramBorrowerAddress      = "borrower_address"
	paramWalletFlowID         = "wallet_flow_id"
	paramWalletAccountAlias   = "wallet_account_alias"
	paramAutomationTemplateID = "automation_template_id"
	paramMetadata             = "metadata"
)

// Disburser is the subset of the custody service the worker drives.
type Disburser interface {
	InitiateDisbursement(
		ctx context.Context,
		req core.DisbursementRequest,
		opts ...core.DisbursementOption,
	) (core.DisbursementResult, error)
}

// ToExecutionMessage encodes req as a disbursement job. The loan ID doubles
// as the idempotency key.
func ToExecutionMessage(req core.DisbursementRequest) *job.ExecutionMessage {
	params := map[string]any{
		paramOriginatorID:    strings.TrimSpace(req.OriginatorID),
		paramPartnerID:       strings.TrimSpace(req.PartnerID),
		paramLoanID:          strings.TrimSpace(req.LoanID),
		paramAmount:          strings.TrimSpace(req.Amount),
		paramChainID:         strings.TrimSpace(req.ChainID),
		paramBorrowerAddress: strings.TrimSpace(req.BorrowerAddress),
	}
	optional := map[string]string{
		paramAssetSymbol:          req.AssetSymbol,
		paramWalletFlowID:         req.WalletFlowID,
		paramWalletAccountAlias:   req.WalletAccountAlias,
		paramAutomationTemplateID: req.AutomationTemplateID,
	}
	for key, value := range optional {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			params[key] = trimmed
		}
	}
	if len(req.Metadata) > 0 {
		params[paramMetadata] = copyAnyMap(req.Metadata)
	}
	return &job.ExecutionMessage{
		JobID:          JobIDDisbursementExecute,
		ScriptPath:     JobIDDisbursementExecute,
		Parameters:     params,
		IdempotencyKey: disbursementIdempotencyKey(req),
		DedupPolicy:    job.DeduplicationPolicy(DefaultDedupPolicy),
	}
}

// FromExecutionMessage decodes a disbursement job back into a request.
func FromExecutionMessage(msg *job.ExecutionMessage) (core.DisbursementRequest, error) {
	if msg == nil {
		return core.DisbursementRequest{}, fmt.Errorf("gojob: execution message is required")
	}
	if strings.TrimSpace(msg.JobID) != JobIDDisbursementExecute {
		return core.DisbursementRequest{}, fmt.Errorf("gojob: unexpected job id %q", msg.JobID)
	}
	params := msg.Parameters
	req := core.DisbursementRequest{
		OriginatorID:         stringParam(params, paramOriginatorID),
		PartnerID:            stringParam(params, paramPartnerID),
		LoanID:               stringParam(params, paramLoanID),
		Amount:               stringParam(params, paramAmount),
		AssetSymbol:          stringParam(params, paramAssetSymbol),
		ChainID:              stringParam(params, paramChainID),
		BorrowerAddress:      stringParam(params, paramBorrowerAddress),
		WalletFlowID:         stringParam(params, paramWalletFlowID),
		WalletAccountAlias:   stringParam(params, paramWalletAccountAlias),
		AutomationTemplateID: stringParam(params, paramAutomationTemplateID),
	}
	if metadata, ok := params[paramMetadata].(map[string]any); ok && len(metadata) > 0 {
		req.Metadata = copyAnyMap(metadata)
	}
	for key, value := range map[string]string{
		paramOriginatorID: req.OriginatorID,
		paramPartnerID:    req.PartnerID,
		paramLoanID:       req.LoanID,
		paramAmount:       req.Amount,
	} {
		if value == "" {
			return core.DisbursementRequest{}, fmt.Errorf("gojob: parameter %q is required", key)
		}
	}
	return req, nil
}

type EnqueuerAdapter struct {
	enqueuer queue.Enqueuer
}

func NewEnqueuerAdapter(enqueuer queue.Enqueuer) *EnqueuerAdapter {
	return &EnqueuerAdapter{enqueuer: enqueuer}
}

func (a *EnqueuerAdapter) EnqueueDisbursement(ctx context.Context, req core.DisbursementRequest) error {
	if a == nil || a.enqueuer == nil {
		return fmt.Errorf("gojob: enqueuer is not configured")
	}
	if strings.TrimSpace(req.LoanID) == "" {
		return fmt.Errorf("gojob: loan id is required")
	}
	return a.enqueuer.Enqueue(ctx, ToExecutionMessage(req))
}

// Outcome reports what the worker did with a delivery.
type Outcome struct {
	Request    core.DisbursementRequest
	Result     core.DisbursementResult
	Acked      bool
	DeadLetter bool
	Err        error
}

// DisbursementWorker executes disbursement jobs. Deliveries are acked when
// the disbursement is submitted or awaits consensus; anything else is
// dead-lettered and never requeued.
type DisbursementWorker struct {
	service  Disburser
	dequeuer queue.Dequeuer
	logger   core.Logger
}

type WorkerOption func(*DisbursementWorker)

func WithWorkerLogger(logger core.Logger) WorkerOption {
	return func(w *DisbursementWorker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

func NewDisbursementWorker(service Disburser, dequeuer queue.Dequeuer, opts ...WorkerOption) (*DisbursementWorker, error) {
	if service == nil {
		return nil, fmt.Errorf("gojob: disbursement service is required")
	}
	w := &DisbursementWorker{service: service, dequeuer: dequeuer, logger: glog.Nop()}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	return w, nil
}

// ProcessNext dequeues a single delivery and handles it.
func (w *DisbursementWorker) ProcessNext(ctx context.Context) (Outcome, error) {
	if w == nil || w.dequeuer == nil {
		return Outcome{}, fmt.Errorf("gojob: dequeuer is not configured")
	}
	delivery, err := w.dequeuer.Dequeue(ctx)
	if err != nil {
		return Outcome{}, err
	}
	return w.Handle(ctx, delivery)
}

// Run processes deliveries until ctx is done or the dequeuer fails.
func (w *DisbursementWorker) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		if _, err := w.ProcessNext(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
	}
}

// Handle executes one delivery. The returned error is only set when the
// delivery could not be acknowledged.
func (w *DisbursementWorker) Handle(ctx context.Context, delivery queue.Delivery) (Outcome, error) {
	if w == nil || w.service == nil {
		return Outcome{}, fmt.Errorf("gojob: disbursement worker is not configured")
	}
	if delivery == nil {
		return Outcome{}, fmt.Errorf("gojob: delivery is required")
	}

	req, err := FromExecutionMessage(delivery.Message())
	if err != nil {
		outcome := Outcome{DeadLetter: true, Err: err}
		return outcome, w.deadLetter(ctx, delivery, err)
	}

	result, err := w.service.InitiateDisbursement(ctx, req)
	outcome := Outcome{Request: req, Result: result, Err: err}
	if err == nil && ackable(result.Status) {
		outcome.Acked = true
		w.logger.Info("custody disbursement job completed",
			"loan_id", req.LoanID,
			"status", string(result.Status),
			"transaction_hash", result.TransactionHash,
		)
		return outcome, delivery.Ack(ctx)
	}
	if err == nil {
		err = fmt.Errorf("gojob: unexpected disbursement status %q", result.Status)
		outcome.Err = err
	}
	outcome.DeadLetter = true
	return outcome, w.deadLetter(ctx, delivery, err)
}

func (w *DisbursementWorker) deadLetter(ctx context.Context, delivery queue.Delivery, cause error) error {
	reason := strings.TrimSpace(cause.Error())
	w.logger.Error("custody disbursement job dead-lettered", "reason", reason)
	return delivery.Nack(ctx, queue.NackOptions{
		Requeue:    false,
		DeadLetter: true,
		Reason:     reason,
	})
}

func ackable(status core.DisbursementStatus) bool {
	return status == core.DisbursementStatusSubmitted || status == core.DisbursementStatusConsensusRequired
}

func disbursementIdempotencyKey(req core.DisbursementRequest) string {
	parts := []string{
		strings.TrimSpace(req.OriginatorID),
		strings.TrimSpace(req.PartnerID),
		strings.TrimSpace(req.LoanID),
	}
	return JobIDDisbursementExecute + ":" + strings.Join(parts, ":")
}

func stringParam(params map[string]any, key string) string {
	if len(params) == 0 {
		return ""
	}
	switch value := params[key].(type) {
	case string:
		return strings.TrimSpace(value)
	case fmt.Stringer:
		return strings.TrimSpace(value.String())
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(value))
	}
}

func copyAnyMap(in map[string]any) map[string]any {
	if len(in) == 0 {
		return map[string]any{}
	}
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}
