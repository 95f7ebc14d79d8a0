package telegram

import (
	"github.com/gotd/td/tgerr"

	"github.com/seednet/tgctl/internal/domain"
)

// wrapAPIError maps a gotd RPC error onto the output taxonomy. Flood
// waits always surface with their retry duration; anything unmatched
// gets the caller's fallback code.
func wrapAPIError(err error, fallback, format string) error {
	if err == nil {
		return nil
	}
	if d, ok := tgerr.AsFloodWait(err); ok {
		return domain.FloodWait(d)
	}
	switch {
	case tgerr.Is(err, "PHONE_NUMBER_INVALID"):
		return domain.Errf(domain.CodeInvalidPhone, "Invalid phone number")
	case tgerr.Is(err, "PHONE_CODE_INVALID"):
		return domain.E(domain.CodeInvalidCode, "Invalid verification code.")
	case tgerr.Is(err, "PHONE_CODE_EXPIRED"):
		return domain.E(domain.CodeCodeExpired, "Verification code expired. Request a new one.")
	case tgerr.Is(err, "PASSWORD_HASH_INVALID"):
		return domain.E(domain.CodeInvalid2FA, "Invalid 2FA password.")
	case tgerr.Is(err, "CHAT_ADMIN_REQUIRED"):
		return domain.E(domain.CodeAdminRequired, "Admin privileges required")
	}
	return domain.Errf(fallback, format+": %v", err)
}
