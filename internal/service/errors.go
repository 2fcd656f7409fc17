package service

import "errors"

var (
	// ErrNotLoggedIn is returned when an operation needs a backend
	// session and the chat has none.
	ErrNotLoggedIn = errors.New("not logged in")

	// ErrActionNotAllowed is returned when the appointment's lifecycle
	// state does not permit the requested action for this user.
	ErrActionNotAllowed = errors.New("action not allowed for this appointment")

	// ErrReasonTooShort is returned when a reject/cancel reason is
	// shorter than the required minimum.
	ErrReasonTooShort = errors.New("reason is too short")

	// ErrRescheduleTooSoon is returned when the new slot does not give
	// the required notice.
	ErrRescheduleTooSoon = errors.New("new time is too soon")

	// ErrMissingSchedule is returned when booking without a selected slot.
	ErrMissingSchedule = errors.New("no schedule selected")
)
