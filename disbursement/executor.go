// Package disbursement builds, signs and broadcasts ERC-20 transfer
// transactions for provisioned custody wallets.
package disbursement

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"

	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-custody/core"
)

const (
	DefaultTransactionType = "TRANSACTION_TYPE_ETHEREUM"
	DefaultDecimals        = 6

	methodGetTransactionCount = "eth_getTransactionCount"
	methodGasPrice            = "eth_gasPrice"
	methodEstimateGas         = "eth_estimateGas"
	methodSendRawTransaction  = "eth_sendRawTransaction"
)

type Executor struct {
	signer          core.TransactionSigner
	tokens          TokenRegistry
	rpc             core.ChainRPC
	transactionType string
	defaultDecimals int
	logger          core.Logger
}

type Option func(*Executor)

func WithTransactionType(transactionType string) Option {
	return func(e *Executor) {
		if value := strings.TrimSpace(transactionType); value != "" {
			e.transactionType = value
		}
	}
}

func WithDefaultDecimals(decimals int) Option {
	return func(e *Executor) {
		if decimals >= 0 {
			e.defaultDecimals = decimals
		}
	}
}

func WithLogger(logger core.Logger) Option {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

func NewExecutor(signer core.TransactionSigner, tokens TokenRegistry, rpc core.ChainRPC, opts ...Option) (*Executor, error) {
	if signer == nil {
		return nil, fmt.Errorf("disbursement: transaction signer is required")
	}
	if tokens == nil {
		return nil, fmt.Errorf("disbursement: token registry is required")
	}
	if rpc == nil {
		return nil, fmt.Errorf("disbursement: rpc client is required")
	}
	executor := &Executor{
		signer:          signer,
		tokens:          tokens,
		rpc:             rpc,
		transactionType: DefaultTransactionType,
		defaultDecimals: DefaultDecimals,
		logger:          glog.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(executor)
		}
	}
	return executor, nil
}

// NewExecutorFactory binds the token registry and RPC client so the service
// can build an executor once the custody client is initialized.
func NewExecutorFactory(tokens TokenRegistry, rpc core.ChainRPC, opts ...Option) core.DisbursementExecutorFactory {
	return func(signer core.TransactionSigner) (core.DisbursementExecutor, error) {
		return NewExecutor(signer, tokens, rpc, opts...)
	}
}

type preparedTransfer struct {
	chainID      string
	tokenAddress string
	fromAddress  string
	toAddress    string
	amount       *big.Int
	decimals     int
	nonce        *big.Int
	gasPrice     *big.Int
	gasLimit     *big.Int
}

func (p preparedTransfer) details(policyIDs []string) core.DisbursementDetails {
	return core.DisbursementDetails{
		TokenAddress:  p.tokenAddress,
		FromAddress:   p.fromAddress,
		ToAddress:     p.toAddress,
		Amount:        p.amount.String(),
		DisplayAmount: DisplayAmount(p.amount, p.decimals),
		Nonce:         quantityHex(p.nonce),
		GasPrice:      quantityHex(p.gasPrice),
		GasLimit:      quantityHex(p.gasLimit),
		ChainID:       p.chainID,
		PolicyIDs:     append([]string(nil), policyIDs...),
	}
}

type signedTransfer struct {
	signedTransaction string
	activityID        string
	transactionHash   string
}

// Execute runs the disbursement steps in order. Each step fails with its own
// execution code; a consensus required outcome is returned as a result.
func (e *Executor) Execute(ctx context.Context, disbursement core.DisbursementContext) (core.DisbursementResult, error) {
	if e == nil {
		return core.DisbursementResult{}, fmt.Errorf("disbursement: executor is nil")
	}
	request := disbursement.Request
	wallet := disbursement.Wallet

	chainID, err := ParseChainID(request.ChainID)
	if err != nil {
		return core.DisbursementResult{}, err
	}
	lookupChainID := strings.TrimSpace(request.ChainID)

	token, ok := e.tokens.ResolveToken(request.AssetSymbol, lookupChainID)
	if !ok {
		return core.DisbursementResult{}, newExecutionError(
			CodeTokenNotConfigured, nil,
			map[string]any{"asset_symbol": request.AssetSymbol, "chain_id": request.ChainID},
			"token %s is not configured for chain %s", request.AssetSymbol, request.ChainID,
		)
	}

	if strings.TrimSpace(wallet.AccountAddress) == "" {
		return core.DisbursementResult{}, newExecutionError(
			CodeAccountAddressUnavailable, nil,
			map[string]any{"account_alias": wallet.AccountAlias},
			"wallet account address unavailable for alias %q", wallet.AccountAlias,
		)
	}
	accountID := strings.TrimSpace(wallet.AccountID)
	if !core.IsMaterialized(accountID) {
		return core.DisbursementResult{}, newExecutionError(
			CodeAccountIdentifierUnavailable, nil,
			map[string]any{"wallet_id": wallet.WalletID, "account_alias": wallet.AccountAlias, "account_id": wallet.AccountID},
			"wallet account identifier is required for signing",
		)
	}
	fromAddress, err := NormalizeAddress(wallet.AccountAddress)
	if err != nil {
		return core.DisbursementResult{}, err
	}
	toAddress, err := normalizeRecipient(request.BorrowerAddress)
	if err != nil {
		return core.DisbursementResult{}, err
	}

	decimals := e.defaultDecimals
	if token.Decimals != nil {
		decimals = *token.Decimals
	}
	var amount *big.Int
	if request.AmountInBaseUnits() {
		amount, err = ParseBaseUnitAmount(request.Amount)
	} else {
		amount, err = ParseDecimalAmount(request.Amount, decimals)
	}
	if err != nil {
		return core.DisbursementResult{}, err
	}
	calldata, err := TransferCalldata(toAddress, amount)
	if err != nil {
		return core.DisbursementResult{}, err
	}

	transfer := preparedTransfer{
		chainID:      lookupChainID,
		tokenAddress: token.ContractAddress,
		fromAddress:  fromAddress,
		toAddress:    toAddress,
		amount:       amount,
		decimals:     decimals,
	}
	if transfer.nonce, err = e.quantity(ctx, lookupChainID, methodGetTransactionCount, fromAddress, "pending"); err != nil {
		return core.DisbursementResult{}, err
	}
	if transfer.gasPrice, err = e.quantity(ctx, lookupChainID, methodGasPrice); err != nil {
		return core.DisbursementResult{}, err
	}
	if transfer.gasLimit, err = e.quantity(ctx, lookupChainID, methodEstimateGas, map[string]string{
		"from":  fromAddress,
		"to":    token.ContractAddress,
		"data":  calldata,
		"value": "0x0",
	}); err != nil {
		return core.DisbursementResult{}, err
	}

	unsigned, err := LegacyTransaction{
		Nonce:    transfer.nonce,
		GasPrice: transfer.gasPrice,
		GasLimit: transfer.gasLimit,
		To:       token.ContractAddress,
		Value:    new(big.Int),
		Data:     calldata,
		ChainID:  chainID,
	}.UnsignedHex()
	if err != nil {
		return core.DisbursementResult{}, err
	}

	var automationTemplateID string
	if disbursement.Automation != nil {
		automationTemplateID = disbursement.Automation.TemplateID
	}
	signRequest := core.SignTransactionRequest{
		SubOrganizationID:    disbursement.Snapshot.SubOrganizationID,
		SignWith:             accountID,
		UnsignedTransaction:  unsigned,
		TransactionType:      e.transactionType,
		AutomationTemplateID: automationTemplateID,
	}

	signed, err := e.signAndSend(ctx, lookupChainID, signRequest)
	if err != nil {
		if consensus, ok := core.AsConsensusRequired(err); ok {
			e.logger.Info("disbursement requires consensus",
				"loan_id", request.LoanID,
				"activity_id", consensus.ActivityID,
			)
			return consensusResult(request.LoanID, transfer, disbursement.PolicyIDs, consensus), nil
		}
		return core.DisbursementResult{}, err
	}

	e.logger.Info("disbursement submitted",
		"loan_id", request.LoanID,
		"chain_id", lookupChainID,
		"transaction_hash", signed.transactionHash,
	)
	return core.DisbursementResult{
		LoanID:            request.LoanID,
		Status:            core.DisbursementStatusSubmitted,
		TransactionHash:   signed.transactionHash,
		SignedTransaction: signed.signedTransaction,
		ActivityID:        signed.activityID,
		Details:           transfer.details(disbursement.PolicyIDs),
	}, nil
}

func (e *Executor) signAndSend(ctx context.Context, chainID string, req core.SignTransactionRequest) (signedTransfer, error) {
	if sender, ok := e.signer.(core.TransactionSignSender); ok {
		result, err := sender.SignAndSendTransaction(ctx, core.SignAndSendRequest{
			SignTransactionRequest: req,
			Broadcast: func(ctx context.Context, signedTransaction string) (string, error) {
				return e.broadcast(ctx, chainID, signedTransaction)
			},
		})
		if err != nil {
			return signedTransfer{}, signingError(err, req, "failed to sign and send transaction")
		}
		if strings.TrimSpace(result.TransactionHash) == "" {
			return signedTransfer{}, newExecutionError(
				CodeRPCError, nil,
				map[string]any{"chain_id": chainID, "method": methodSendRawTransaction},
				"signer returned no transaction hash",
			)
		}
		return signedTransfer{
			signedTransaction: result.SignedTransaction,
			activityID:        result.ActivityID,
			transactionHash:   result.TransactionHash,
		}, nil
	}

	result, err := e.signer.SignTransaction(ctx, req)
	if err != nil {
		return signedTransfer{}, signingError(err, req, "failed to sign transaction")
	}
	hash, err := e.broadcast(ctx, chainID, result.SignedTransaction)
	if err != nil {
		return signedTransfer{}, err
	}
	return signedTransfer{
		signedTransaction: result.SignedTransaction,
		activityID:        result.ActivityID,
		transactionHash:   hash,
	}, nil
}

func (e *Executor) broadcast(ctx context.Context, chainID string, signedTransaction string) (string, error) {
	raw, err := e.rpc.Call(ctx, chainID, methodSendRawTransaction, signedTransaction)
	if err != nil {
		return "", rpcFailure(err, chainID, methodSendRawTransaction, "failed to broadcast signed transaction")
	}
	details := map[string]any{"chain_id": chainID, "method": methodSendRawTransaction}
	if isEmptyResult(raw) {
		return "", newExecutionError(CodeRPCError, nil, details, "broadcast returned no transaction hash")
	}
	var hash string
	if err := json.Unmarshal(raw, &hash); err != nil {
		return "", newExecutionError(CodeRPCError, err, details, "unexpected broadcast response")
	}
	hash = strings.TrimSpace(hash)
	if hash == "" {
		return "", newExecutionError(CodeRPCError, nil, details, "broadcast returned no transaction hash")
	}
	return hash, nil
}

func (e *Executor) quantity(ctx context.Context, chainID string, method string, params ...any) (*big.Int, error) {
	raw, err := e.rpc.Call(ctx, chainID, method, params...)
	if err != nil {
		return nil, rpcFailure(err, chainID, method, "rpc request failed")
	}
	if isEmptyResult(raw) {
		return nil, newExecutionError(
			CodeRPCError, nil,
			map[string]any{"chain_id": chainID, "method": method},
			"rpc response has no result",
		)
	}
	var encoded string
	if err := json.Unmarshal(raw, &encoded); err != nil {
		return nil, newExecutionError(
			CodeRPCError, err,
			map[string]any{"chain_id": chainID, "method": method},
			"expected hex string from rpc response",
		)
	}
	value, ok := parseQuantity(encoded)
	if !ok {
		return nil, newExecutionError(
			CodeRPCError, nil,
			map[string]any{"chain_id": chainID, "method": method, "value": encoded},
			"expected hex string from rpc response",
		)
	}
	return value, nil
}

func isEmptyResult(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func rpcFailure(err error, chainID string, method string, message string) error {
	var execErr *ExecutionError
	if errors.As(err, &execErr) {
		return err
	}
	details := map[string]any{"chain_id": chainID, "method": method}
	if errors.Is(err, core.ErrRPCEndpointNotConfigured) {
		return newExecutionError(CodeRPCEndpointNotConfigured, err, details, "rpc endpoint not configured for chain %s", chainID)
	}
	var rpcErr *core.RPCError
	if errors.As(err, &rpcErr) {
		details["rpc_code"] = rpcErr.Code
		if rpcErr.HTTPStatus != 0 {
			details["http_status"] = rpcErr.HTTPStatus
		}
	}
	return newExecutionError(CodeRPCError, err, details, "%s", message)
}

func signingError(err error, req core.SignTransactionRequest, message string) error {
	if _, ok := core.AsConsensusRequired(err); ok {
		return err
	}
	var execErr *ExecutionError
	if errors.As(err, &execErr) {
		return err
	}
	return newExecutionError(CodeSigningFailed, err, map[string]any{
		"unsigned_transaction":   req.UnsignedTransaction,
		"account_id":             req.SignWith,
		"automation_template_id": req.AutomationTemplateID,
	}, "%s", message)
}

func consensusResult(
	loanID string,
	transfer preparedTransfer,
	policyIDs []string,
	consensus *core.ConsensusRequiredError,
) core.DisbursementResult {
	details := transfer.details(policyIDs)
	details.RequiredApprovals = consensus.RequiredApprovals
	details.CurrentApprovals = consensus.CurrentApprovals
	details.ActivityStatus = consensus.ActivityStatus
	details.ActivityType = consensus.ActivityType
	details.ErrorContext = consensus.Context
	return core.DisbursementResult{
		LoanID:     loanID,
		Status:     core.DisbursementStatusConsensusRequired,
		ActivityID: consensus.ActivityID,
		Details:    details,
		Err:        consensus,
	}
}
