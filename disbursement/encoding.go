package disbursement

import (
	"encoding/hex"
	"math/big"
	"strings"

	"github.com/goliatone/go-custody/rlp"
)

// transfer(address,uint256)
const transferSelector = "a9059cbb"

// NormalizeAddress returns the lower-case 0x form of a 20 byte address.
func NormalizeAddress(address string) (string, error) {
	stripped := stripHexPrefix(strings.TrimSpace(address))
	details := map[string]any{"address": address}
	if len(stripped) != 40 {
		return "", newExecutionError(CodeEncodingError, nil, details, "invalid address length for %q", address)
	}
	raw, err := hex.DecodeString(stripped)
	if err != nil {
		return "", newExecutionError(CodeEncodingError, err, details, "address %q is not hex encoded", address)
	}
	return "0x" + hex.EncodeToString(raw), nil
}

func normalizeRecipient(address string) (string, error) {
	normalized, err := NormalizeAddress(address)
	if err != nil {
		return "", err
	}
	if strings.Trim(stripHexPrefix(normalized), "0") == "" {
		return "", newExecutionError(CodeEncodingError, nil, map[string]any{"address": address}, "recipient cannot be the zero address")
	}
	return normalized, nil
}

// ParseChainID parses a hex (0x) or decimal chain ID. Malformed input and
// non-positive values yield INVALID_CHAIN_ID.
func ParseChainID(value string) (*big.Int, error) {
	chainID, ok := parseUnsigned(strings.TrimSpace(value))
	if !ok || chainID.Sign() <= 0 {
		return nil, newExecutionError(CodeInvalidChainID, nil, map[string]any{"chain_id": value}, "invalid chain ID: %q", value)
	}
	return chainID, nil
}

// TransferCalldata builds the ERC-20 transfer call for recipient and amount.
func TransferCalldata(recipient string, amount *big.Int) (string, error) {
	address := stripHexPrefix(recipient)
	if len(address) != 40 {
		return "", newExecutionError(CodeEncodingError, nil, map[string]any{"address": recipient}, "invalid recipient")
	}
	if amount == nil || amount.Sign() < 0 || amount.Cmp(maxUint256) > 0 {
		return "", newExecutionError(CodeEncodingError, nil, nil, "amount does not fit in uint256")
	}
	return "0x" + transferSelector + leftPad32(strings.ToLower(address)) + leftPad32(amount.Text(16)), nil
}

// LegacyTransaction holds the fields of an unsigned EIP-155 legacy
// transaction.
type LegacyTransaction struct {
	Nonce    *big.Int
	GasPrice *big.Int
	GasLimit *big.Int
	To       string
	Value    *big.Int
	Data     string
	ChainID  *big.Int
}

// UnsignedHex encodes the nine field tuple
// [nonce, gasPrice, gasLimit, to, value, data, chainId, 0, 0].
func (tx LegacyTransaction) UnsignedHex() (string, error) {
	to, err := hex.DecodeString(stripHexPrefix(tx.To))
	if err != nil || len(to) != 20 {
		return "", newExecutionError(CodeEncodingError, err, map[string]any{"to": tx.To}, "failed to encode unsigned transaction")
	}
	data, err := hex.DecodeString(stripHexPrefix(tx.Data))
	if err != nil {
		return "", newExecutionError(CodeEncodingError, err, nil, "failed to encode unsigned transaction")
	}
	encoded := rlp.Encode(rlp.List{
		rlp.Uint(tx.Nonce),
		rlp.Uint(tx.GasPrice),
		rlp.Uint(tx.GasLimit),
		rlp.Bytes(to),
		rlp.Uint(tx.Value),
		rlp.Bytes(data),
		rlp.Uint(tx.ChainID),
		rlp.Bytes{},
		rlp.Bytes{},
	})
	return "0x" + hex.EncodeToString(encoded), nil
}

func quantityHex(value *big.Int) string {
	if value == nil {
		return "0x0"
	}
	return "0x" + value.Text(16)
}

// parseQuantity reads an RPC quantity. A bare "0x" is zero; an empty
// string is not a quantity.
func parseQuantity(raw string) (*big.Int, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "0x" || trimmed == "0X" {
		return new(big.Int), true
	}
	return parseUnsigned(trimmed)
}

// parseUnsigned accepts decimal digits or 0x followed by hex digits.
// Signs, underscores and other base prefixes are rejected.
func parseUnsigned(value string) (*big.Int, bool) {
	base := 10
	digits := value
	if strings.HasPrefix(value, "0x") || strings.HasPrefix(value, "0X") {
		base = 16
		digits = value[2:]
	}
	if digits == "" {
		return nil, false
	}
	for _, r := range digits {
		if !isDigit(r, base) {
			return nil, false
		}
	}
	out, ok := new(big.Int).SetString(digits, base)
	return out, ok
}

func isDigit(r rune, base int) bool {
	switch {
	case r >= '0' && r <= '9':
		return true
	case base == 16 && r >= 'a' && r <= 'f':
		return true
	case base == 16 && r >= 'A' && r <= 'F':
		return true
	}
	return false
}

func leftPad32(hexDigits string) string {
	if len(hexDigits) >= 64 {
		return hexDigits
	}
	return strings.Repeat("0", 64-len(hexDigits)) + hexDigits
}

func stripHexPrefix(value string) string {
	if strings.HasPrefix(value, "0x") || strings.HasPrefix(value, "0X") {
		return value[2:]
	}
	return value
}
