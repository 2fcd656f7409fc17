package models

import "time"

// ScheduleWindow is the start/end timestamp pair of a consultation slot.
// startTime < endTime is guaranteed by the backend, not enforced here.
type ScheduleWindow struct {
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
}

// Appointment is a read-only view of a backend appointment. Status and
// PaymentStatus arrive as free-form strings and must be normalized through
// the lifecycle package before use.
type Appointment struct {
	ID                    string         `json:"id"`
	Status                string         `json:"status"`
	PaymentStatus         string         `json:"paymentStatus"`
	ScheduleWindow        ScheduleWindow `json:"scheduleWindow"`
	ClientID              string         `json:"clientId"`
	ClientName            string         `json:"clientName,omitempty"`
	ConsultantID          string         `json:"consultantId"`
	ConsultantName        string         `json:"consultantName,omitempty"`
	Notes                 string         `json:"notes,omitempty"`
	ReasonForCancellation string         `json:"reasonForCancellation,omitempty"`
	Amount                float64        `json:"amount,omitempty"`
	EscrowAmount          float64        `json:"escrowAmount,omitempty"`
	PaymentDueDate        *time.Time     `json:"paymentDueDate,omitempty"`
	OrderCode             string         `json:"orderCode,omitempty"`
	PaymentURL            string         `json:"paymentUrl,omitempty"`
	MeetingLink           string         `json:"meetingLink,omitempty"`
	CreatedAt             time.Time      `json:"createdAt"`
	UpdatedAt             time.Time      `json:"updatedAt"`
}

// AppointmentQuery filters the appointments listing; zero fields are
// omitted from the request.
type AppointmentQuery struct {
	PageNumber   int
	PageSize     int
	Status       string
	ClientID     string
	ConsultantID string
}

// Schedule is a bookable consultant slot.
type Schedule struct {
	ID           string         `json:"id"`
	ConsultantID string         `json:"consultantId"`
	Window       ScheduleWindow `json:"scheduleWindow"`
	IsBooked     bool           `json:"isBooked"`
}

// Consultant is the browsing surface of a consultant profile.
type Consultant struct {
	ID        string `json:"id"`
	FullName  string `json:"fullName"`
	Specialty string `json:"specialty,omitempty"`
	Bio       string `json:"bio,omitempty"`
}
