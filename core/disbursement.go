package core

import (
	"errors"
	"fmt"
	"strings"
)

// MetadataAmountInBaseUnits marks a request amount as already expressed in
// token base units.
const MetadataAmountInBaseUnits = "amount_in_base_units"

type DisbursementRequest struct {
	OriginatorID         string
	PartnerID            string
	LoanID               string
	Amount               string
	AssetSymbol          string
	ChainID              string
	BorrowerAddress      string
	WalletFlowID         string
	WalletAccountAlias   string
	AutomationTemplateID string
	Metadata             map[string]any
}

// AmountInBaseUnits reports whether the metadata flag is set to true.
func (r DisbursementRequest) AmountInBaseUnits() bool {
	if len(r.Metadata) == 0 {
		return false
	}
	switch value := r.Metadata[MetadataAmountInBaseUnits].(type) {
	case bool:
		return value
	case string:
		return strings.EqualFold(strings.TrimSpace(value), "true")
	default:
		return false
	}
}

type WalletSelection struct {
	Flow             ProvisionedWalletFlow
	FlowID           string
	WalletID         string
	WalletTemplateID string
	AccountAlias     string
	AccountID        string
	AccountAddress   string
}

type AutomationIdentity struct {
	TemplateID      string
	UserID          string
	APIKeyID        string
	APIKeyPublicKey string
	SessionIDs      []string
}

type DisbursementContext struct {
	Request    DisbursementRequest
	Snapshot   ProvisioningSnapshot
	Partner    PartnerRuntime
	Wallet     WalletSelection
	Automation *AutomationIdentity
	PolicyIDs  []string
}

type DisbursementStatus string

const (
	DisbursementStatusSubmitted         DisbursementStatus = "submitted"
	DisbursementStatusConsensusRequired DisbursementStatus = "consensus_required"
)

type DisbursementDetails struct {
	TokenAddress      string
	FromAddress       string
	ToAddress         string
	Amount            string
	DisplayAmount     string
	Nonce             string
	GasPrice          string
	GasLimit          string
	ChainID           string
	PolicyIDs         []string
	RequiredApprovals *int
	CurrentApprovals  *int
	ActivityStatus    string
	ActivityType      string
	ErrorContext      map[string]any
}

type DisbursementResult struct {
	LoanID            string
	Status            DisbursementStatus
	TransactionHash   string
	SignedTransaction string
	ActivityID        string
	Details           DisbursementDetails
	// Err holds the signing error for consensus_required outcomes.
	Err error
}

// ConsensusRequiredError is returned by signers when an activity needs more
// approvals before it can complete.
type ConsensusRequiredError struct {
	Message           string
	ActivityID        string
	ActivityStatus    string
	ActivityType      string
	RequiredApprovals *int
	CurrentApprovals  *int
	Context           map[string]any
}

func (e *ConsensusRequiredError) Error() string {
	if e == nil {
		return ""
	}
	message := strings.TrimSpace(e.Message)
	if message == "" {
		message = "consensus required"
	}
	if e.ActivityID != "" {
		return fmt.Sprintf("%s (activity %s)", message, e.ActivityID)
	}
	return message
}

// AsConsensusRequired unwraps err to a *ConsensusRequiredError.
func AsConsensusRequired(err error) (*ConsensusRequiredError, bool) {
	var consensus *ConsensusRequiredError
	if errors.As(err, &consensus) && consensus != nil {
		return consensus, true
	}
	return nil, false
}

// RPCError is the structured error carried by JSON-RPC failures.
type RPCError struct {
	ChainID    string
	Method     string
	Code       int
	Message    string
	HTTPStatus int
	Data       any
}

func (e *RPCError) Error() string {
	if e == nil {
		return ""
	}
	if e.HTTPStatus != 0 && e.Code == 0 {
		return fmt.Sprintf("rpc %s on chain %s failed with http status %d: %s", e.Method, e.ChainID, e.HTTPStatus, e.Message)
	}
	return fmt.Sprintf("rpc %s on chain %s failed (%d): %s", e.Method, e.ChainID, e.Code, e.Message)
}
