// Package lifecycle is the single authority on the appointment
// status/payment lifecycle: it maps the backend's free-form status strings
// to canonical values, derives the set of actions a user may take on an
// appointment, and formats statuses for display. Views consume this
// package instead of re-implementing the rules inline.
package lifecycle

import "strings"

// Status is the canonical lifecycle stage of an appointment.
type Status string

const (
	StatusPending        Status = "Pending"
	StatusPendingPayment Status = "PendingPayment"
	StatusApproved       Status = "Approved"
	StatusCompleted      Status = "Completed"
	StatusCancelled      Status = "Cancelled"
	StatusRejected       Status = "Rejected"
	StatusNoShow         Status = "NoShow"
)

// PaymentStatus is the canonical payment stage, independent of Status.
// A Cancelled appointment may still carry any payment status.
type PaymentStatus string

const (
	PaymentUnpaid    PaymentStatus = "Unpaid"
	PaymentPending   PaymentStatus = "Pending"
	PaymentPaid      PaymentStatus = "Paid"
	PaymentFailed    PaymentStatus = "Failed"
	PaymentRefunded  PaymentStatus = "Refunded"
	PaymentCancelled PaymentStatus = "Cancelled"
)

var statusSynonyms = map[string]Status{
	"pending":          StatusPending,
	"waiting":          StatusPending,
	"new":              StatusPending,
	"pendingpayment":   StatusPendingPayment,
	"pending_payment":  StatusPendingPayment,
	"awaiting_payment": StatusPendingPayment,
	"approved":         StatusApproved,
	"approve":          StatusApproved,
	"confirm":          StatusApproved,
	"confirmed":        StatusApproved,
	"accepted":         StatusApproved,
	"completed":        StatusCompleted,
	"complete":         StatusCompleted,
	"done":             StatusCompleted,
	"finished":         StatusCompleted,
	"cancelled":        StatusCancelled,
	"canceled":         StatusCancelled,
	"cancel":           StatusCancelled,
	"rejected":         StatusRejected,
	"reject":           StatusRejected,
	"declined":         StatusRejected,
	"denied":           StatusRejected,
	"noshow":           StatusNoShow,
	"no_show":          StatusNoShow,
	"no-show":          StatusNoShow,
	"missed":           StatusNoShow,
}

var paymentSynonyms = map[string]PaymentStatus{
	"paid":             PaymentPaid,
	"success":          PaymentPaid,
	"completed":        PaymentPaid,
	"pending":          PaymentPending,
	"processing":       PaymentPending,
	"awaiting":         PaymentPending,
	"awaiting_payment": PaymentPending,
	"failed":           PaymentFailed,
	"declined":         PaymentFailed,
	"error":            PaymentFailed,
	"refunded":         PaymentRefunded,
	"refund":           PaymentRefunded,
	"cancelled":        PaymentCancelled,
	"canceled":         PaymentCancelled,
	"void":             PaymentCancelled,
	"unpaid":           PaymentUnpaid,
	"none":             PaymentUnpaid,
}

func normalizeKey(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// LookupStatus resolves a raw status string and reports whether it was
// recognized. Unrecognized input resolves to StatusPending; the bool lets
// callers log upstream data issues without changing behavior.
func LookupStatus(raw string) (Status, bool) {
	if s, ok := statusSynonyms[normalizeKey(raw)]; ok {
		return s, true
	}
	return StatusPending, false
}

// NormalizeStatus maps an arbitrary-cased, possibly aliased status string
// to its canonical value. Total: unrecognized or empty input yields
// StatusPending.
func NormalizeStatus(raw string) Status {
	s, _ := LookupStatus(raw)
	return s
}

// LookupPaymentStatus resolves a raw payment status string and reports
// whether it was recognized. Unrecognized input resolves to PaymentPending.
func LookupPaymentStatus(raw string) (PaymentStatus, bool) {
	if p, ok := paymentSynonyms[normalizeKey(raw)]; ok {
		return p, true
	}
	return PaymentPending, false
}

// NormalizePaymentStatus maps a raw payment status string to its canonical
// value. Total: unrecognized or empty input yields PaymentPending.
func NormalizePaymentStatus(raw string) PaymentStatus {
	p, _ := LookupPaymentStatus(raw)
	return p
}

// Terminal reports whether the status admits no further transitions that
// the client may request.
func Terminal(s Status) bool {
	return s == StatusCompleted || s == StatusCancelled
}
