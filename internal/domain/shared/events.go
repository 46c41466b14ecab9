// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types. Each event represents something significant that
// happened in the domain; handlers react asynchronously (cache
// invalidation, audit logging).
const (
	// Course events
	EventCourseCreated EventType = "course.created"
	EventCourseUpdated EventType = "course.updated"
	EventCourseDeleted EventType = "course.deleted"

	// Attendance events
	EventAttendanceRecorded EventType = "attendance.recorded"
	EventAttendanceUndone   EventType = "attendance.undone"
	EventLogEntryDeleted    EventType = "attendance.entry_deleted"

	// Profile events
	EventProfileSaved     EventType = "profile.saved"
	EventSubscriptionSaved EventType = "profile.subscription_saved"

	// Notification events
	EventReminderSent   EventType = "notification.reminder_sent"
	EventReminderFailed EventType = "notification.reminder_failed"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	Version       int       `json:"version"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now(),
		AggregateId: aggregateID,
		Version:     1,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// ═══════════════════════════════════════════════════════════════════════════
// Course Events
// ═══════════════════════════════════════════════════════════════════════════

// CourseChangedEvent is emitted when a course is created, updated or deleted.
type CourseChangedEvent struct {
	BaseEvent
	UserID     string `json:"user_id"`
	CourseID   string `json:"course_id"`
	CourseName string `json:"course_name"`
}

// Payload implements Event interface.
func (e CourseChangedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":     e.UserID,
		"course_id":   e.CourseID,
		"course_name": e.CourseName,
	}
}

// NewCourseChangedEvent creates a course lifecycle event of the given type.
func NewCourseChangedEvent(eventType EventType, userID, courseID, courseName string) CourseChangedEvent {
	return CourseChangedEvent{
		BaseEvent:  NewBaseEvent(eventType, courseID),
		UserID:     userID,
		CourseID:   courseID,
		CourseName: courseName,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Attendance Events
// ═══════════════════════════════════════════════════════════════════════════

// AttendanceChangedEvent is emitted when the attendance log of a course
// gains or loses an entry.
type AttendanceChangedEvent struct {
	BaseEvent
	UserID   string `json:"user_id"`
	CourseID string `json:"course_id"`
	EntryID  string `json:"entry_id,omitempty"`
	Status   string `json:"status,omitempty"`
}

// Payload implements Event interface.
func (e AttendanceChangedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":   e.UserID,
		"course_id": e.CourseID,
		"entry_id":  e.EntryID,
		"status":    e.Status,
	}
}

// NewAttendanceChangedEvent creates an attendance log event of the given type.
func NewAttendanceChangedEvent(eventType EventType, userID, courseID, entryID, status string) AttendanceChangedEvent {
	return AttendanceChangedEvent{
		BaseEvent: NewBaseEvent(eventType, courseID),
		UserID:    userID,
		CourseID:  courseID,
		EntryID:   entryID,
		Status:    status,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Profile Events
// ═══════════════════════════════════════════════════════════════════════════

// ProfileSavedEvent is emitted when a user's profile or push subscription changes.
type ProfileSavedEvent struct {
	BaseEvent
	UserID          string `json:"user_id"`
	HasSubscription bool   `json:"has_subscription"`
}

// Payload implements Event interface.
func (e ProfileSavedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":          e.UserID,
		"has_subscription": e.HasSubscription,
	}
}

// NewProfileSavedEvent creates a profile event of the given type.
func NewProfileSavedEvent(eventType EventType, userID string, hasSubscription bool) ProfileSavedEvent {
	return ProfileSavedEvent{
		BaseEvent:       NewBaseEvent(eventType, userID),
		UserID:          userID,
		HasSubscription: hasSubscription,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Notification Events
// ═══════════════════════════════════════════════════════════════════════════

// ReminderDispatchedEvent is emitted when a push reminder is sent or fails.
type ReminderDispatchedEvent struct {
	BaseEvent
	UserID     string `json:"user_id"`
	CourseID   string `json:"course_id"`
	CourseName string `json:"course_name"`
	Reason     string `json:"reason"`
	Error      string `json:"error,omitempty"`
}

// Payload implements Event interface.
func (e ReminderDispatchedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":     e.UserID,
		"course_id":   e.CourseID,
		"course_name": e.CourseName,
		"reason":      e.Reason,
		"error":       e.Error,
	}
}

// NewReminderDispatchedEvent creates a reminder outcome event.
func NewReminderDispatchedEvent(eventType EventType, userID, courseID, courseName, reason, errMsg string) ReminderDispatchedEvent {
	return ReminderDispatchedEvent{
		BaseEvent:  NewBaseEvent(eventType, userID),
		UserID:     userID,
		CourseID:   courseID,
		CourseName: courseName,
		Reason:     reason,
		Error:      errMsg,
	}
}

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for an event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}
