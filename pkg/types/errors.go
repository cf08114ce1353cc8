package types

import "errors"

// Validation and settlement failure kinds surfaced by the matching core.
// Every failure aborts the whole match call; callers see exactly one kind.
var (
	ErrInvalidSignature           = errors.New("invalid signature")
	ErrUnsupportedSignatureMethod = errors.New("unsupported signature method")
	ErrUnsupportedOrderVersion    = errors.New("unsupported order version")
	ErrOrderExpired               = errors.New("order expired")
	ErrOrderCancelled             = errors.New("order cancelled")
	ErrPriceIncompatible          = errors.New("price incompatible")
	ErrFillExceedsRemaining       = errors.New("fill exceeds remaining amount")
	ErrInvalidFeeRate             = errors.New("invalid fee rate")
	ErrEncodingOverflow           = errors.New("encoding overflow")
	ErrNotAuthorized              = errors.New("not authorized")
	ErrMarketMismatch             = errors.New("market mismatch")
)

// ErrorKind maps a wrapped core error to its stable machine-readable name.
// Returns "internal" for anything outside the taxonomy.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrInvalidSignature):
		return "InvalidSignature"
	case errors.Is(err, ErrUnsupportedSignatureMethod):
		return "UnsupportedSignatureMethod"
	case errors.Is(err, ErrUnsupportedOrderVersion):
		return "UnsupportedOrderVersion"
	case errors.Is(err, ErrOrderExpired):
		return "OrderExpired"
	case errors.Is(err, ErrOrderCancelled):
		return "OrderCancelled"
	case errors.Is(err, ErrPriceIncompatible):
		return "PriceIncompatible"
	case errors.Is(err, ErrFillExceedsRemaining):
		return "FillExceedsRemaining"
	case errors.Is(err, ErrInvalidFeeRate):
		return "InvalidFeeRate"
	case errors.Is(err, ErrEncodingOverflow):
		return "EncodingOverflow"
	case errors.Is(err, ErrNotAuthorized):
		return "NotAuthorized"
	case errors.Is(err, ErrMarketMismatch):
		return "MarketMismatch"
	default:
		return "internal"
	}
}
