package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

type disbursementOptions struct {
	snapshot *ProvisioningSnapshot
}

type DisbursementOption func(*disbursementOptions)

// WithSnapshot skips the snapshot store lookup.
func WithSnapshot(snapshot ProvisioningSnapshot) DisbursementOption {
	return func(o *disbursementOptions) {
		o.snapshot = &snapshot
	}
}

const operationInitiateDisbursement = "initiate_disbursement"

// InitiateDisbursement resolves the wallet, account and automation identity
// for req from the originator snapshot and hands the context to the executor.
func (s *Service) InitiateDisbursement(
	ctx context.Context,
	req DisbursementRequest,
	opts ...DisbursementOption,
) (result DisbursementResult, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"originator_id": req.OriginatorID,
		"partner_id":    req.PartnerID,
		"loan_id":       req.LoanID,
		"chain_id":      req.ChainID,
		"asset_symbol":  req.AssetSymbol,
	}
	defer func() {
		if result.Status != "" {
			fields["disbursement_status"] = string(result.Status)
		}
		s.observeOperation(ctx, startedAt, operationInitiateDisbursement, err, fields)
	}()

	if s == nil {
		return DisbursementResult{}, fmt.Errorf("core: service is nil")
	}
	if s.executor == nil && s.executorFactory == nil {
		return DisbursementResult{}, s.serviceError(
			"disbursement executor is not configured",
			goerrors.CategoryInternal,
			ServiceErrorTransactionExecutorNotConfigured,
			nil,
		)
	}
	client, err := s.currentClient()
	if err != nil {
		return DisbursementResult{}, err
	}
	executor, err := s.resolveExecutor(client)
	if err != nil {
		return DisbursementResult{}, err
	}

	options := disbursementOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}

	var snapshot ProvisioningSnapshot
	if options.snapshot != nil {
		snapshot = *options.snapshot
	} else {
		snapshot, err = s.GetProvisioningSnapshot(ctx, req.OriginatorID)
		if err != nil {
			return DisbursementResult{}, err
		}
	}

	disbursement, err := s.BuildDisbursementContext(req, snapshot)
	if err != nil {
		return DisbursementResult{}, err
	}
	fields["wallet_id"] = disbursement.Wallet.WalletID
	fields["account_alias"] = disbursement.Wallet.AccountAlias

	if s.accountLocker != nil {
		handle, lockErr := s.accountLocker.Acquire(ctx, disbursement.Wallet.AccountID, s.config.Disbursement.AccountLockTTL)
		if lockErr != nil {
			err = s.mapError(lockErr)
			return DisbursementResult{}, err
		}
		defer func() {
			_ = handle.Unlock(ctx)
		}()
	}

	result, err = executor.Execute(ctx, disbursement)
	if err != nil {
		err = s.mapError(err)
		return DisbursementResult{}, err
	}
	return result, nil
}

// BuildDisbursementContext selects the partner wallet flow, signing account
// and automation user that a disbursement should use.
func (s *Service) BuildDisbursementContext(req DisbursementRequest, snapshot ProvisioningSnapshot) (DisbursementContext, error) {
	if s == nil {
		return DisbursementContext{}, fmt.Errorf("core: service is nil")
	}
	partner, ok := snapshot.Partner(req.PartnerID)
	if !ok {
		return DisbursementContext{}, s.serviceError(
			fmt.Sprintf("partner %q is not provisioned for this originator", req.PartnerID),
			goerrors.CategoryNotFound,
			ServiceErrorPartnerNotFound,
			map[string]any{"partner_id": req.PartnerID},
		)
	}

	flowID := strings.TrimSpace(req.WalletFlowID)
	if flowID == "" {
		flowID = s.config.Disbursement.DefaultFlowID
	}

	walletID := strings.TrimSpace(partner.WalletFlows[flowID])
	if walletID == "" {
		if flow, found := snapshot.DefaultWalletFlow(flowID); found {
			walletID = flow.WalletID
		}
	}
	if walletID == "" {
		return DisbursementContext{}, s.walletNotFound(req.PartnerID, flowID, "")
	}
	flow, ok := snapshot.WalletFlow(flowID, walletID)
	if !ok {
		return DisbursementContext{}, s.walletNotFound(req.PartnerID, flowID, walletID)
	}
	if !IsMaterialized(flow.WalletID) {
		return DisbursementContext{}, s.serviceError(
			fmt.Sprintf("wallet flow %q has not been materialized", flowID),
			goerrors.CategoryOperation,
			ServiceErrorWalletNotFound,
			map[string]any{"partner_id": req.PartnerID, "flow_id": flowID},
		)
	}

	alias, accountID, err := s.resolveAccountAlias(req, flow)
	if err != nil {
		return DisbursementContext{}, err
	}

	automation, err := s.resolveAutomationIdentity(req, partner, snapshot)
	if err != nil {
		return DisbursementContext{}, err
	}

	return DisbursementContext{
		Request:  req,
		Snapshot: snapshot,
		Partner:  partner,
		Wallet: WalletSelection{
			Flow:             flow,
			FlowID:           flowID,
			WalletID:         flow.WalletID,
			WalletTemplateID: flow.WalletTemplateID,
			AccountAlias:     alias,
			AccountID:        accountID,
			AccountAddress:   flow.AccountAddressByAlias[alias],
		},
		Automation: automation,
		PolicyIDs:  append([]string(nil), partner.PolicyIDs...),
	}, nil
}

func (s *Service) resolveExecutor(client PlatformClient) (DisbursementExecutor, error) {
	if s.executor != nil {
		return s.executor, nil
	}
	executor, err := s.executorFactory(client)
	if err != nil {
		return nil, s.mapError(err)
	}
	return executor, nil
}

func (s *Service) resolveAccountAlias(req DisbursementRequest, flow ProvisionedWalletFlow) (string, string, error) {
	requested := strings.TrimSpace(req.WalletAccountAlias)
	if requested == "" {
		requested = strings.TrimSpace(s.config.Disbursement.DefaultAccountAlias)
	}
	if requested != "" {
		accountID, ok := flow.AccountIDByAlias[requested]
		if ok && IsMaterialized(accountID) {
			return requested, accountID, nil
		}
		if strings.TrimSpace(req.WalletAccountAlias) != "" {
			return "", "", s.aliasNotFound(req, flow, requested)
		}
	}
	for _, alias := range SortedKeys(flow.AccountIDByAlias) {
		if accountID := flow.AccountIDByAlias[alias]; IsMaterialized(accountID) {
			return alias, accountID, nil
		}
	}
	return "", "", s.aliasNotFound(req, flow, requested)
}

func (s *Service) resolveAutomationIdentity(
	req DisbursementRequest,
	partner PartnerRuntime,
	snapshot ProvisioningSnapshot,
) (*AutomationIdentity, error) {
	templateID := strings.TrimSpace(req.AutomationTemplateID)
	if templateID == "" {
		templateID = strings.TrimSpace(partner.AutomationUserTemplateID)
	}
	if templateID == "" {
		templateID = strings.TrimSpace(s.config.Disbursement.DefaultAutomationTemplateID)
	}
	if templateID == "" {
		return nil, nil
	}

	candidates := make([]ProvisionedAutomationUser, 0, 2)
	for _, user := range snapshot.AutomationUsers {
		if user.TemplateID != templateID {
			continue
		}
		if user.PartnerID == partner.PartnerID {
			candidates = append([]ProvisionedAutomationUser{user}, candidates...)
			continue
		}
		if user.PartnerID == "" {
			candidates = append(candidates, user)
		}
	}
	for _, user := range candidates {
		if user.Usable() {
			return &AutomationIdentity{
				TemplateID:      user.TemplateID,
				UserID:          user.UserID,
				APIKeyID:        user.APIKeyID,
				APIKeyPublicKey: user.APIKeyPublicKey,
				SessionIDs:      append([]string(nil), user.SessionIDs...),
			}, nil
		}
	}
	return nil, s.serviceError(
		fmt.Sprintf("automation user %q is not available for partner %q", templateID, partner.PartnerID),
		goerrors.CategoryNotFound,
		ServiceErrorAutomationUserNotFound,
		map[string]any{"partner_id": partner.PartnerID, "automation_template_id": templateID},
	)
}

func (s *Service) walletNotFound(partnerID string, flowID string, walletID string) error {
	metadata := map[string]any{"partner_id": partnerID, "flow_id": flowID}
	if walletID != "" {
		metadata["wallet_id"] = walletID
	}
	return s.serviceError(
		fmt.Sprintf("no wallet provisioned for flow %q", flowID),
		goerrors.CategoryNotFound,
		ServiceErrorWalletNotFound,
		metadata,
	)
}

func (s *Service) aliasNotFound(req DisbursementRequest, flow ProvisionedWalletFlow, alias string) error {
	return s.serviceError(
		fmt.Sprintf("no usable account alias on wallet %q", flow.WalletID),
		goerrors.CategoryNotFound,
		ServiceErrorAccountAliasNotFound,
		map[string]any{
			"partner_id":    req.PartnerID,
			"flow_id":       flow.FlowID,
			"wallet_id":     flow.WalletID,
			"account_alias": alias,
		},
	)
}
