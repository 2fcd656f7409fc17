package lifecycle

import (
	"sort"
	"time"

	"consultly/internal/models"
)

// Action is a user-facing operation on an appointment.
type Action string

const (
	ActionConfirm     Action = "confirm"
	ActionReject      Action = "reject"
	ActionCancel      Action = "cancel"
	ActionReschedule  Action = "reschedule"
	ActionComplete    Action = "complete"
	ActionPay         Action = "pay"
	ActionAddNotes    Action = "add_notes"
	ActionJoinMeeting Action = "join_meeting"
)

// Actor is the acting user's relationship to the appointment.
type Actor string

const (
	ActorClient     Actor = "client"
	ActorConsultant Actor = "consultant"
	ActorAdmin      Actor = "admin"
	ActorNone       Actor = "none"
)

// ActionSet is the set of currently permitted actions.
type ActionSet map[Action]struct{}

func (s ActionSet) Has(a Action) bool {
	_, ok := s[a]
	return ok
}

func (s ActionSet) add(a Action) {
	s[a] = struct{}{}
}

// List returns the actions in a stable order for rendering.
func (s ActionSet) List() []Action {
	out := make([]Action, 0, len(s))
	for a := range s {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// RequiresReason reports whether submitting the action needs a free-text
// reason of at least models.MinReasonLength characters. The resolver still
// offers the action; the service blocks submission until the reason is
// valid.
func RequiresReason(a Action) bool {
	return a == ActionReject || a == ActionCancel
}

// Input carries everything the resolver needs. RequestedBy is the party
// that created the appointment request (the booking client in every flow
// the backend currently has).
type Input struct {
	Status         Status
	PaymentStatus  PaymentStatus
	Actor          Actor
	RequestedBy    Actor
	Now            time.Time
	Window         models.ScheduleWindow
	HasPaymentURL  bool
	HasMeetingLink bool
}

func (in Input) staff() bool {
	return in.Actor == ActorConsultant || in.Actor == ActorAdmin
}

// ResolveActions derives the permitted actions for an appointment state and
// actor. It never fails; ineligibility simply omits the action.
func ResolveActions(in Input) ActionSet {
	set := make(ActionSet)
	if in.Actor == ActorNone {
		return set
	}

	if in.Status == StatusPending && in.staff() && in.Actor != in.RequestedBy {
		set.add(ActionConfirm)
	}
	if in.Status == StatusPending && in.staff() {
		set.add(ActionReject)
	}
	if !Terminal(in.Status) {
		set.add(ActionCancel)
		set.add(ActionReschedule)
	}
	if in.Status == StatusApproved && in.Now.After(in.Window.StartTime) {
		set.add(ActionComplete)
	}
	if (in.PaymentStatus == PaymentPending || in.PaymentStatus == PaymentUnpaid) &&
		in.Actor == ActorClient && in.HasPaymentURL {
		set.add(ActionPay)
	}
	if in.staff() && in.Status != StatusCancelled {
		set.add(ActionAddNotes)
	}
	if in.HasMeetingLink && (in.Status == StatusApproved || in.PaymentStatus == PaymentPaid) {
		set.add(ActionJoinMeeting)
	}

	return set
}

// Relationship determines the actor role of a user relative to an
// appointment.
func Relationship(appt *models.Appointment, user *models.User) Actor {
	if appt == nil || user == nil {
		return ActorNone
	}
	if user.Role == models.RoleAdmin {
		return ActorAdmin
	}
	if user.ID != "" && user.ID == appt.ConsultantID {
		return ActorConsultant
	}
	if user.ID != "" && user.ID == appt.ClientID {
		return ActorClient
	}
	return ActorNone
}

// ResolveForAppointment normalizes the raw appointment fields and resolves
// actions for the given user at the given time.
func ResolveForAppointment(appt *models.Appointment, user *models.User, now time.Time) ActionSet {
	if appt == nil {
		return make(ActionSet)
	}
	return ResolveActions(Input{
		Status:        NormalizeStatus(appt.Status),
		PaymentStatus: NormalizePaymentStatus(appt.PaymentStatus),
		Actor:         Relationship(appt, user),
		// Appointments are created by the booking client; the backend has
		// no consultant-initiated flow.
		RequestedBy:    ActorClient,
		Now:            now,
		Window:         appt.ScheduleWindow,
		HasPaymentURL:  appt.PaymentURL != "",
		HasMeetingLink: appt.MeetingLink != "",
	})
}
