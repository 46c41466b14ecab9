// Package jobs contains implementations of scheduled jobs for Attendance Hub.
// The central one is the hourly class reminder scan, which walks every
// user's courses and pushes reminders for classes starting soon and for
// courses whose skip allowance is nearly spent.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mdi-hub/attendance-hub/internal/domain/attendance"
	"github.com/mdi-hub/attendance-hub/internal/domain/course"
	"github.com/mdi-hub/attendance-hub/internal/domain/notification"
	"github.com/mdi-hub/attendance-hub/internal/domain/profile"
	"github.com/mdi-hub/attendance-hub/internal/domain/reminder"
	"github.com/mdi-hub/attendance-hub/internal/domain/shared"
	"github.com/mdi-hub/attendance-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// CLASS REMINDERS JOB
// ══════════════════════════════════════════════════════════════════════════════

// ClassRemindersJob scans all users once per hour and delivers push
// reminders. Each run is stateless: the reminder decision is recomputed
// from the course schedules and attendance logs at scan time, so a user
// with a class one hour away is reminded on every matching run.
type ClassRemindersJob struct {
	profileRepo    profile.Repository
	courseRepo     course.Repository
	logRepo        attendance.LogRepository
	sender         notification.Sender
	eventPublisher shared.EventPublisher
	logger         *slog.Logger

	config ClassRemindersConfig

	// now is swappable to pin the scan moment in tests.
	now func() time.Time

	lastScanStats atomic.Value // *ScanStats
}

// ClassRemindersConfig contains configuration for the reminder scan.
type ClassRemindersConfig struct {
	// Concurrency is the number of users scanned in parallel.
	Concurrency int

	// Timeout is the maximum duration for the entire scan.
	Timeout time.Duration

	// ClearGoneSubscriptions removes a push subscription from the
	// profile when the push service reports the endpoint gone (404/410).
	ClearGoneSubscriptions bool

	// LowAllowanceAlerts enables the "almost out of bunks" reminders.
	LowAllowanceAlerts bool
}

// DefaultClassRemindersConfig returns sensible defaults.
func DefaultClassRemindersConfig() ClassRemindersConfig {
	return ClassRemindersConfig{
		Concurrency:            5,
		Timeout:                5 * time.Minute,
		ClearGoneSubscriptions: true,
		LowAllowanceAlerts:     true,
	}
}

// ScanStats contains statistics from a reminder scan run.
type ScanStats struct {
	StartedAt            time.Time
	CompletedAt          time.Time
	Duration             time.Duration
	Moment               shared.Moment
	TotalUsers           int
	ScannedUsers         int
	SkippedUsers         int
	RemindersSent        int
	RemindersFailed      int
	SubscriptionsCleared int
	Errors               []ScanError
}

// ScanError represents a per-user failure during the scan.
type ScanError struct {
	UserID     string
	Error      error
	OccurredAt time.Time
}

// NewClassRemindersJob creates a new reminder scan job.
func NewClassRemindersJob(
	profileRepo profile.Repository,
	courseRepo course.Repository,
	logRepo attendance.LogRepository,
	sender notification.Sender,
	eventPublisher shared.EventPublisher,
	logger *slog.Logger,
	config ClassRemindersConfig,
) *ClassRemindersJob {
	if logger == nil {
		logger = slog.Default()
	}
	if config.Concurrency <= 0 {
		config.Concurrency = 5
	}

	return &ClassRemindersJob{
		profileRepo:    profileRepo,
		courseRepo:     courseRepo,
		logRepo:        logRepo,
		sender:         sender,
		eventPublisher: eventPublisher,
		logger:         logger,
		config:         config,
		now:            timeutil.Now,
	}
}

// Name returns the job name.
func (j *ClassRemindersJob) Name() string {
	return "class_reminders"
}

// Description returns a human-readable description.
func (j *ClassRemindersJob) Description() string {
	return "Scans all users and pushes class and low-allowance reminders"
}

// Run executes the reminder scan.
func (j *ClassRemindersJob) Run(ctx context.Context) error {
	startedAt := time.Now()

	// The scan moment is snapshotted once so every user in the run is
	// evaluated against the same (weekday, hour) pair, even if the run
	// straddles an hour boundary.
	at := shared.MomentOf(timeutil.ToIST(j.now()))

	stats := &ScanStats{
		StartedAt: startedAt,
		Moment:    at,
		Errors:    make([]ScanError, 0),
	}

	j.logger.Info("starting class_reminders scan", "moment", at.String())

	if !j.sender.IsAvailable() {
		return fmt.Errorf("push sender unavailable, skipping scan")
	}

	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	userIDs, err := j.profileRepo.ListUserIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	stats.TotalUsers = len(userIDs)
	j.logger.Info("found users to scan", "count", stats.TotalUsers)

	if stats.TotalUsers > 0 {
		j.scanUsersConcurrently(ctx, userIDs, at, stats)
	}

	stats.CompletedAt = time.Now()
	stats.Duration = stats.CompletedAt.Sub(startedAt)
	j.lastScanStats.Store(stats)

	j.logger.Info("class_reminders scan completed",
		"duration", stats.Duration.String(),
		"total", stats.TotalUsers,
		"scanned", stats.ScannedUsers,
		"skipped", stats.SkippedUsers,
		"sent", stats.RemindersSent,
		"failed", stats.RemindersFailed,
		"subscriptions_cleared", stats.SubscriptionsCleared,
	)

	return nil
}

// scanUsersConcurrently fans the scan out over a bounded worker pool.
// A failing user never aborts the run; the failure is recorded and the
// scan moves on.
func (j *ClassRemindersJob) scanUsersConcurrently(
	ctx context.Context,
	userIDs []shared.UserID,
	at shared.Moment,
	stats *ScanStats,
) {
	var (
		wg        sync.WaitGroup
		semaphore = make(chan struct{}, j.config.Concurrency)
		mu        sync.Mutex
	)

	for _, userID := range userIDs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		wg.Add(1)
		semaphore <- struct{}{} // Acquire

		go func(uid shared.UserID) {
			defer wg.Done()
			defer func() { <-semaphore }() // Release

			outcome, err := j.scanUser(ctx, uid, at)

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				stats.Errors = append(stats.Errors, ScanError{
					UserID:     string(uid),
					Error:      err,
					OccurredAt: time.Now(),
				})
				j.logger.Error("failed to scan user",
					"user_id", string(uid),
					"error", err,
				)
				return
			}

			if outcome.skipped {
				stats.SkippedUsers++
				return
			}

			stats.ScannedUsers++
			stats.RemindersSent += outcome.sent
			stats.RemindersFailed += outcome.failed
			if outcome.subscriptionCleared {
				stats.SubscriptionsCleared++
			}
		}(userID)
	}

	wg.Wait()
}

// scanOutcome is the per-user result of a scan.
type scanOutcome struct {
	skipped             bool
	sent                int
	failed              int
	subscriptionCleared bool
}

// scanUser evaluates and delivers reminders for a single user.
func (j *ClassRemindersJob) scanUser(
	ctx context.Context,
	userID shared.UserID,
	at shared.Moment,
) (scanOutcome, error) {
	// No profile or no push subscription is a normal state: the user
	// simply does not participate in reminders.
	p, err := j.profileRepo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrProfileNotFound) {
			return scanOutcome{skipped: true}, nil
		}
		return scanOutcome{}, fmt.Errorf("get profile: %w", err)
	}
	if !p.CanReceivePush() {
		return scanOutcome{skipped: true}, nil
	}

	courses, err := j.courseRepo.ListByUser(ctx, userID)
	if err != nil {
		return scanOutcome{}, fmt.Errorf("list courses: %w", err)
	}
	if len(courses) == 0 {
		return scanOutcome{skipped: true}, nil
	}

	logs := make(map[string][]*attendance.Entry, len(courses))
	for _, c := range courses {
		if c.Schedule == nil {
			continue
		}
		entries, err := j.logRepo.ListByCourse(ctx, userID, c.ID)
		if err != nil {
			return scanOutcome{}, fmt.Errorf("list log for course %s: %w", c.ID, err)
		}
		logs[c.ID] = entries
	}

	reminders, err := reminder.EvaluateAll(courses, logs, at)
	if err != nil {
		return scanOutcome{}, fmt.Errorf("evaluate reminders: %w", err)
	}

	var outcome scanOutcome
	for _, r := range reminders {
		if r.Reason == reminder.ReasonLowAllowance && !j.config.LowAllowanceAlerts {
			continue
		}

		n := j.buildNotification(r)
		result := j.sender.Send(ctx, p.Subscription, n)

		if result.Success {
			outcome.sent++
			j.publishOutcome(shared.EventReminderSent, userID, r, nil)
			continue
		}

		outcome.failed++
		j.publishOutcome(shared.EventReminderFailed, userID, r, result.Error)

		if result.SubscriptionGone && j.config.ClearGoneSubscriptions && !outcome.subscriptionCleared {
			if err := j.clearSubscription(ctx, userID, p); err != nil {
				j.logger.Warn("failed to clear gone subscription",
					"user_id", string(userID),
					"error", err,
				)
			} else {
				outcome.subscriptionCleared = true
			}
			// The endpoint is dead; further sends this run are pointless.
			break
		}
	}

	return outcome, nil
}

// buildNotification maps a computed reminder to its push payload.
func (j *ClassRemindersJob) buildNotification(r reminder.Reminder) *notification.Notification {
	if r.Reason == reminder.ReasonLowAllowance {
		return notification.NewLowAllowanceNotification(r.CourseName, r.ClassTime, r.BunksLeft)
	}
	return notification.NewClassSoonNotification(r.CourseName)
}

// clearSubscription removes the dead push subscription from the profile.
func (j *ClassRemindersJob) clearSubscription(
	ctx context.Context,
	userID shared.UserID,
	p *profile.Profile,
) error {
	p.ClearSubscription()
	if err := j.profileRepo.Save(ctx, userID, p); err != nil {
		return err
	}

	j.logger.Info("cleared gone push subscription", "user_id", string(userID))
	return nil
}

// publishOutcome emits a reminder outcome event. Event delivery is
// best effort.
func (j *ClassRemindersJob) publishOutcome(
	eventType shared.EventType,
	userID shared.UserID,
	r reminder.Reminder,
	sendErr error,
) {
	if j.eventPublisher == nil {
		return
	}

	errMsg := ""
	if sendErr != nil {
		errMsg = sendErr.Error()
	}

	event := shared.NewReminderDispatchedEvent(
		eventType,
		string(userID),
		r.CourseID,
		r.CourseName,
		r.Reason.String(),
		errMsg,
	)
	if err := j.eventPublisher.Publish(event); err != nil {
		j.logger.Warn("failed to publish reminder event",
			"user_id", string(userID),
			"course_id", r.CourseID,
			"error", err,
		)
	}
}

// LastScanStats returns statistics from the last scan run.
func (j *ClassRemindersJob) LastScanStats() *ScanStats {
	stats := j.lastScanStats.Load()
	if stats == nil {
		return nil
	}
	return stats.(*ScanStats)
}

// ══════════════════════════════════════════════════════════════════════════════
// SINGLE USER SCAN (for on-demand delivery checks)
// ══════════════════════════════════════════════════════════════════════════════

// ScanSingleUser evaluates and delivers reminders for one user at the
// current moment. Useful for verifying a fresh push subscription.
func (j *ClassRemindersJob) ScanSingleUser(ctx context.Context, userID shared.UserID) error {
	at := shared.MomentOf(timeutil.ToIST(j.now()))
	_, err := j.scanUser(ctx, userID, at)
	return err
}
