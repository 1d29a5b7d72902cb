package disbursement

import (
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

var maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// ParseDecimalAmount converts a decimal string into integer base units for
// a token with the given number of decimals. The conversion is exact.
func ParseDecimalAmount(amount string, decimals int) (*big.Int, error) {
	trimmed := strings.TrimSpace(amount)
	details := map[string]any{"amount": amount}
	if trimmed == "" {
		return nil, newExecutionError(CodeInvalidAmountFormat, nil, details, "amount cannot be empty")
	}
	if strings.HasPrefix(trimmed, "-") {
		return nil, newExecutionError(CodeInvalidAmountFormat, nil, details, "amount must be positive")
	}

	whole, fractional, hasPoint := strings.Cut(trimmed, ".")
	if !isDigits(whole) || (hasPoint && !isDigitsOrEmpty(fractional)) {
		return nil, newExecutionError(CodeInvalidAmountFormat, nil, details, "amount must be numeric")
	}
	if len(fractional) > decimals {
		details["decimals"] = decimals
		return nil, newExecutionError(
			CodeAmountPrecisionExceeded, nil, details,
			"amount precision exceeds %d decimal places", decimals,
		)
	}

	digits := whole + fractional + strings.Repeat("0", decimals-len(fractional))
	value, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return nil, newExecutionError(CodeInvalidAmountFormat, nil, details, "amount must be numeric")
	}
	return checkUint256(value, details)
}

// ParseBaseUnitAmount parses an amount that is already in base units.
func ParseBaseUnitAmount(amount string) (*big.Int, error) {
	trimmed := strings.TrimSpace(amount)
	details := map[string]any{"amount": amount}
	if trimmed == "" {
		return nil, newExecutionError(CodeInvalidAmountFormat, nil, details, "base unit amount cannot be empty")
	}
	if strings.HasPrefix(trimmed, "-") {
		return nil, newExecutionError(CodeInvalidAmountFormat, nil, details, "amount must be positive")
	}
	value, ok := parseUnsigned(trimmed)
	if !ok {
		return nil, newExecutionError(CodeInvalidAmountFormat, nil, details, "base unit amount must be an integer string")
	}
	return checkUint256(value, details)
}

// DisplayAmount renders base units back as a decimal string.
func DisplayAmount(baseUnits *big.Int, decimals int) string {
	if baseUnits == nil {
		return "0"
	}
	return decimal.NewFromBigInt(baseUnits, -int32(decimals)).String()
}

func checkUint256(value *big.Int, details map[string]any) (*big.Int, error) {
	if value.Cmp(maxUint256) > 0 {
		return nil, newExecutionError(CodeInvalidAmountFormat, nil, details, "amount exceeds uint256")
	}
	return value, nil
}

func isDigits(value string) bool {
	return value != "" && isDigitsOrEmpty(value)
}

func isDigitsOrEmpty(value string) bool {
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
