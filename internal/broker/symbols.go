package broker

import (
	"fmt"
	"strings"
	"time"

	bberrors "brokerbridge/internal/errors"
	"brokerbridge/internal/models"
)

const expiryLayout = "2006-01-02"

// parseExpiry parses a canonical YYYY-MM-DD expiry date.
func parseExpiry(expiry string) (time.Time, error) {
	t, err := time.Parse(expiryLayout, expiry)
	if err != nil {
		return time.Time{}, bberrors.NewValidationError("expiry", expiry, "must be YYYY-MM-DD")
	}
	return t, nil
}

// fyersSymbol resolves the Fyers trading symbol for a leg. A per-leg
// override wins; otherwise the symbol is derived from the canonical
// fields, which requires an explicit expiry.
// Derived form: NSE:NIFTY25SEP24000CE (underlying, YYMMM expiry, strike, CE/PE).
func fyersSymbol(spec models.OrderSpec) (string, error) {
	if spec.FyersSymbol != "" {
		return spec.FyersSymbol, nil
	}
	if spec.Underlying == "" || spec.Strike <= 0 || spec.OptionType == "" {
		return "", bberrors.NewValidationError("fyers_symbol", "", "order requires fyers symbol or strike/option_type")
	}
	if spec.Expiry == "" {
		return "", bberrors.NewValidationError("expiry", "", "deriving a fyers symbol requires an explicit expiry")
	}
	t, err := parseExpiry(spec.Expiry)
	if err != nil {
		return "", err
	}
	code := t.Format("06") + strings.ToUpper(t.Format("Jan"))
	return fmt.Sprintf("NSE:%s%s%d%s", strings.ToUpper(spec.Underlying), code, spec.Strike, spec.OptionType), nil
}

// stoxkartSymbol resolves the Stoxkart trading symbol for a leg.
// Derived form: NIFTY25SEP2524000CE (underlying, DDMMMYY expiry, strike, CE/PE).
func stoxkartSymbol(spec models.OrderSpec) (string, error) {
	if spec.StoxkartSymbol != "" {
		return spec.StoxkartSymbol, nil
	}
	if spec.Underlying == "" || spec.Strike <= 0 || spec.OptionType == "" {
		return "", bberrors.NewValidationError("stoxkart_symbol", "", "order requires stoxkart symbol or strike/option_type")
	}
	if spec.Expiry == "" {
		return "", bberrors.NewValidationError("expiry", "", "deriving a stoxkart symbol requires an explicit expiry")
	}
	t, err := parseExpiry(spec.Expiry)
	if err != nil {
		return "", err
	}
	code := strings.ToUpper(t.Format("02Jan06"))
	return fmt.Sprintf("%s%s%d%s", strings.ToUpper(spec.Underlying), code, spec.Strike, spec.OptionType), nil
}
