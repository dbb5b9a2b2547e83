package broker

import (
	"time"

	"github.com/pquerna/otp/totp"

	bberrors "brokerbridge/internal/errors"
)

// TOTPCode returns the current 2FA code for a broker login secret.
// Zerodha's interactive login requires this code; the bridge only
// assists with generating it, the login flow itself lives outside.
func TOTPCode(secret string) (string, error) {
	if secret == "" {
		return "", bberrors.ErrBrokerNotConfigured
	}
	code, err := totp.GenerateCode(secret, time.Now())
	if err != nil {
		return "", bberrors.Wrap(err, "generating TOTP code")
	}
	return code, nil
}
