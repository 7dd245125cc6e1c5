package orders

import "strings"

// exact provider statuses seen in the wild. Anything not listed here falls
// through to the relaxed match, and finally to pending, so every external
// status maps to some valid internal one.
var externalStatus = map[string]Status{
	"paid":      StatusPaid,
	"complete":  StatusPaid,
	"completed": StatusPaid,
	"succeeded": StatusPaid,
	"success":   StatusPaid,
	"canceled":  StatusCancelled,
	"cancelled": StatusCancelled,
	"expired":   StatusCancelled,
	"open":      StatusPending,
	"unpaid":    StatusPending,
	"pending":   StatusPending,
}

// MapExternalStatus converts a payment provider's free-text status into an
// order status. Total by construction: unknown values land on pending rather
// than erroring, since the money side is settled externally either way.
func MapExternalStatus(s string) Status {
	norm := strings.ToLower(strings.TrimSpace(s))
	if st, ok := externalStatus[norm]; ok {
		return st
	}
	switch {
	case strings.Contains(norm, "paid"), strings.Contains(norm, "success"), strings.Contains(norm, "complete"):
		return StatusPaid
	case strings.Contains(norm, "cancel"), strings.Contains(norm, "expire"):
		return StatusCancelled
	}
	return StatusPending
}
