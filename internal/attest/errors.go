package attest

import "errors"

// Error classes the adapter distinguishes for its callers. User
// rejection is kept separate from other provider errors so the surfaced
// message can say so verbatim.
var (
	ErrWalletNotConfigured  = errors.New("wallet provider is not configured")
	ErrUserRejected         = errors.New("user rejected the request")
	ErrPinningNotConfigured = errors.New("pinning service API key is not configured")
)
