package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"consultly/internal/domain"
	"consultly/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	TaskUpsert = "upsert"
	TaskCancel = "cancel"
)

// calendarTaskPayload is persisted in SyncTask.Payload as JSON.
type calendarTaskPayload struct {
	AppointmentID string              `json:"appointment_id"`
	Appointment   *models.Appointment `json:"appointment,omitempty"`
}

// CalendarWorker mirrors appointment changes to the external calendar.
// Every task is persisted to sqlite first; Redis carries a fast-path
// copy so the worker usually does not wait for the poll interval.
type CalendarWorker struct {
	queue         *TaskQueue
	calendar      domain.CalendarWriter
	redis         *redis.Client
	retryPolicy   RetryPolicy
	local         chan models.SyncTask
	redisQueueKey string
	deadLetterKey string
	pollInterval  time.Duration
	batchSize     int
	logger        *zerolog.Logger
}

// NewCalendarWorker builds a worker with sane defaults.
func NewCalendarWorker(queue *TaskQueue, calendar domain.CalendarWriter, redisClient *redis.Client, retry RetryPolicy, logger *zerolog.Logger) *CalendarWorker {
	if retry.MaxRetries == 0 {
		retry.MaxRetries = 5
	}
	if retry.InitialDelay == 0 {
		retry.InitialDelay = 2 * time.Second
	}
	if retry.MaxDelay == 0 {
		retry.MaxDelay = 1 * time.Minute
	}
	if retry.BackoffFactor == 0 {
		retry.BackoffFactor = 2
	}

	return &CalendarWorker{
		queue:         queue,
		calendar:      calendar,
		redis:         redisClient,
		retryPolicy:   retry,
		local:         make(chan models.SyncTask, 128),
		redisQueueKey: "calendar:queue",
		deadLetterKey: "calendar:deadletter",
		pollInterval:  2 * time.Second,
		batchSize:     20,
		logger:        logger,
	}
}

// EnqueueUpsert schedules a calendar create-or-update for an appointment.
func (w *CalendarWorker) EnqueueUpsert(ctx context.Context, appt *models.Appointment) error {
	if appt == nil || appt.ID == "" {
		return errors.New("appointment id is required")
	}
	return w.enqueue(ctx, TaskUpsert, calendarTaskPayload{AppointmentID: appt.ID, Appointment: appt})
}

// EnqueueCancel schedules removal of the appointment's calendar event.
func (w *CalendarWorker) EnqueueCancel(ctx context.Context, appointmentID string) error {
	if appointmentID == "" {
		return errors.New("appointment id is required")
	}
	return w.enqueue(ctx, TaskCancel, calendarTaskPayload{AppointmentID: appointmentID})
}

func (w *CalendarWorker) enqueue(ctx context.Context, taskType string, payload calendarTaskPayload) error {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	syncTask := models.SyncTask{
		TaskType:      taskType,
		AppointmentID: payload.AppointmentID,
		Payload:       string(payloadBytes),
		Status:        "pending",
		CreatedAt:     time.Now(),
	}

	if err := w.queue.CreateSyncTask(ctx, &syncTask); err != nil {
		return fmt.Errorf("persist sync task: %w", err)
	}

	// Try redis first so the worker picks it up immediately.
	if w.redis != nil {
		if err := w.pushRedis(ctx, syncTask); err != nil {
			w.logger.Warn().Err(err).Msg("calendar_worker: redis push failed, fallback to memory queue")
		} else {
			return nil
		}
	}

	// Fallback to in-memory queue if redis missing or failed.
	select {
	case w.local <- syncTask:
	default:
		w.logger.Warn().Int64("task_id", syncTask.ID).Msg("calendar_worker: in-memory queue full, task left to polling")
	}

	return nil
}

// Start launches the main loop; stops when ctx is done.
func (w *CalendarWorker) Start(ctx context.Context) {
	w.logger.Info().Msg("calendar_worker: started")
	defer w.logger.Info().Msg("calendar_worker: stopped")

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if t, ok := w.tryLocalQueue(); ok {
			w.processTask(ctx, &t)
			continue
		}

		if t, ok := w.tryRedis(ctx); ok {
			w.processTask(ctx, &t)
			continue
		}

		tasks, err := w.queue.GetPendingSyncTasks(ctx, w.batchSize)
		if err != nil {
			w.logger.Error().Err(err).Msg("calendar_worker: fetch pending")
			time.Sleep(w.pollInterval)
			continue
		}
		if len(tasks) == 0 {
			time.Sleep(w.pollInterval)
			continue
		}

		for i := range tasks {
			w.processTask(ctx, &tasks[i])
		}
	}
}

func (w *CalendarWorker) tryLocalQueue() (models.SyncTask, bool) {
	select {
	case t := <-w.local:
		return t, true
	default:
		return models.SyncTask{}, false
	}
}

func (w *CalendarWorker) tryRedis(ctx context.Context) (models.SyncTask, bool) {
	if w.redis == nil {
		return models.SyncTask{}, false
	}
	res, err := w.redis.BRPop(ctx, time.Second, w.redisQueueKey).Result()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, redis.Nil) {
			return models.SyncTask{}, false
		}
		w.logger.Error().Err(err).Msg("calendar_worker: redis BRPOP error")
		return models.SyncTask{}, false
	}
	if len(res) != 2 {
		return models.SyncTask{}, false
	}
	var task models.SyncTask
	if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
		w.logger.Error().Err(err).Msg("calendar_worker: decode redis task")
		return models.SyncTask{}, false
	}
	return task, true
}

func (w *CalendarWorker) processTask(ctx context.Context, task *models.SyncTask) {
	var payload calendarTaskPayload
	if err := json.Unmarshal([]byte(task.Payload), &payload); err != nil {
		w.failTask(ctx, task, fmt.Errorf("decode payload: %w", err))
		return
	}

	if err := w.handleTask(ctx, task.TaskType, payload); err != nil {
		w.retryOrFail(ctx, task, err)
		return
	}

	if err := w.queue.UpdateSyncTaskStatus(ctx, task.ID, "completed", "", nil); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("calendar_worker: mark completed")
	}
}

func (w *CalendarWorker) handleTask(ctx context.Context, taskType string, payload calendarTaskPayload) error {
	switch taskType {
	case TaskUpsert:
		if payload.Appointment == nil {
			return errors.New("appointment payload missing")
		}
		return w.calendar.UpsertAppointment(ctx, payload.Appointment)
	case TaskCancel:
		if payload.AppointmentID == "" {
			return errors.New("appointment id missing")
		}
		return w.calendar.CancelAppointment(ctx, payload.AppointmentID)
	default:
		return fmt.Errorf("unknown task type: %s", taskType)
	}
}

func (w *CalendarWorker) retryOrFail(ctx context.Context, task *models.SyncTask, cause error) {
	attempt := task.RetryCount + 1
	if attempt >= w.retryPolicy.MaxRetries {
		if err := w.queue.UpdateSyncTaskStatus(ctx, task.ID, "failed", cause.Error(), nil); err != nil {
			w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("calendar_worker: mark failed")
		}
		w.pushDeadLetter(ctx, task)
		return
	}

	nextDelay := w.retryPolicy.NextDelay(attempt)
	nextTime := time.Now().Add(nextDelay)
	if err := w.queue.UpdateSyncTaskStatus(ctx, task.ID, "retry", cause.Error(), &nextTime); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("calendar_worker: mark retry")
	}
}

func (w *CalendarWorker) failTask(ctx context.Context, task *models.SyncTask, cause error) {
	if err := w.queue.UpdateSyncTaskStatus(ctx, task.ID, "failed", cause.Error(), nil); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("calendar_worker: mark failed")
	}
	w.pushDeadLetter(ctx, task)
}

func (w *CalendarWorker) pushRedis(ctx context.Context, task models.SyncTask) error {
	if w.redis == nil {
		return errors.New("redis client is nil")
	}
	data, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return w.redis.LPush(ctx, w.redisQueueKey, data).Err()
}

func (w *CalendarWorker) pushDeadLetter(ctx context.Context, task *models.SyncTask) {
	if w.redis == nil {
		return
	}
	data, err := json.Marshal(task)
	if err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("calendar_worker: encode deadletter")
		return
	}
	if err := w.redis.LPush(ctx, w.deadLetterKey, data).Err(); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("calendar_worker: deadletter push")
	}
}
