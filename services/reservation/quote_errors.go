package reservation

// MapQuoteError translates a structured quote rejection code into the fixed
// user-facing message. fallback is the server-supplied message, used where
// the table allows it.
func MapQuoteError(code, fallback string) string {
	switch code {
	case "PROMO.MIN_ORDER":
		if fallback != "" {
			return fallback
		}
		return "Promo requires a higher minimum order."
	case "PROMO.NOT_ACTIVE":
		return "Promo code is not active."
	case "PROMO.NOT_YET_VALID":
		return "Promo code is not yet valid."
	case "PROMO.EXPIRED":
		return "Promo code has expired."
	case "PROMO.MAX_USES":
		return "Promo code usage limit exceeded."
	case "PROMO.MAX_USES_PER_USER":
		return "You have already used this promo code."
	case "PROMO.NOT_FOUND":
		return "Promo code not found."
	default:
		if fallback != "" {
			return fallback
		}
		return "Failed to fetch quote."
	}
}
