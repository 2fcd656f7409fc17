package bot

import (
	"context"
	"fmt"
	"time"

	"consultly/internal/lifecycle"
	"consultly/internal/models"
)

// StartReminders runs the daily next-day reminder loop until the
// context is cancelled. Fire time comes from bot.reminder_time.
func (b *Bot) StartReminders(ctx context.Context) {
	fireAt, err := time.Parse("15:04", b.config.Bot.ReminderTime)
	if err != nil {
		b.logger.Error().Err(err).Str("reminder_time", b.config.Bot.ReminderTime).Msg("Invalid reminder time, reminders disabled")
		return
	}

	go func() {
		for {
			next := nextFireTime(time.Now(), fireAt.Hour(), fireAt.Minute())
			timer := time.NewTimer(time.Until(next))

			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
				b.sendReminders(ctx)
			}
		}
	}()

	b.logger.Info().Str("reminder_time", b.config.Bot.ReminderTime).Msg("Reminder loop started")
}

func nextFireTime(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// sendReminders notifies every logged-in chat about tomorrow's
// confirmed sessions.
func (b *Bot) sendReminders(ctx context.Context) {
	sessions, err := b.sessions.ListAll(ctx)
	if err != nil {
		b.logger.Error().Err(err).Msg("Failed to list sessions for reminders")
		return
	}

	now := time.Now()
	sent := 0
	for i := range sessions {
		session := &sessions[i]

		appts, err := b.appointments.UpcomingAppointments(ctx, session)
		if err != nil {
			b.logger.Warn().Err(err).Int64("telegram_id", session.TelegramID).Msg("Failed to load appointments for reminder")
			continue
		}

		for j := range appts {
			appt := &appts[j]
			if !tomorrow(now, appt.ScheduleWindow.StartTime) {
				continue
			}
			if lifecycle.NormalizeStatus(appt.Status) != lifecycle.StatusApproved {
				continue
			}
			b.sendMarkdown(session.TelegramID, reminderText(appt))
			sent++
		}
	}

	b.logger.Info().Int("sessions", len(sessions)).Int("reminders", sent).Msg("Reminder run finished")
}

func tomorrow(now, t time.Time) bool {
	next := now.AddDate(0, 0, 1)
	y1, m1, d1 := next.Date()
	y2, m2, d2 := t.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

func reminderText(appt *models.Appointment) string {
	text := fmt.Sprintf("🔔 *Nhắc lịch hẹn ngày mai*\n\n🗓 %s – %s",
		appt.ScheduleWindow.StartTime.Format(timeLayout),
		appt.ScheduleWindow.EndTime.Format("15:04"))
	if appt.ConsultantName != "" {
		text += "\n👩‍⚕️ Chuyên gia: " + appt.ConsultantName
	}
	if appt.MeetingLink != "" {
		text += "\n📹 " + appt.MeetingLink
	}
	return text
}
