package models

import "encoding/json"

// Envelope wraps every backend response:
// { code, message, isSuccess, data, errors? }.
type Envelope struct {
	Code      int             `json:"code"`
	Message   string          `json:"message"`
	IsSuccess bool            `json:"isSuccess"`
	Data      json.RawMessage `json:"data"`
	Errors    []string        `json:"errors,omitempty"`
}

// StatusUpdateRequest is the primary payload shape for appointment status
// endpoints: { for: "ConfirmAppointment" | "RejectAppointment", notes? }.
type StatusUpdateRequest struct {
	For   string `json:"for"`
	Notes string `json:"notes,omitempty"`
}

// RejectFallbackRequest is the alternate reject shape some deployments
// expect: { for: "rejectAppointment", reason }.
type RejectFallbackRequest struct {
	For    string `json:"for"`
	Reason string `json:"reason"`
}
