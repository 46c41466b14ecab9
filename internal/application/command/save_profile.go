package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/mdi-hub/attendance-hub/internal/domain/attendance"
	"github.com/mdi-hub/attendance-hub/internal/domain/profile"
	"github.com/mdi-hub/attendance-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SAVE PROFILE COMMAND
// Profiles are created lazily: saving against a missing profile
// creates it instead of failing.
// ══════════════════════════════════════════════════════════════════════════════

// SaveProfileCommand contains the profile fields to persist.
type SaveProfileCommand struct {
	UserID         string
	Name           string
	ExpectedGrade  string
	TimetableImage string
}

// SaveProfileHandler handles the SaveProfileCommand.
type SaveProfileHandler struct {
	profileRepo    profile.Repository
	eventPublisher shared.EventPublisher
}

// NewSaveProfileHandler creates a new SaveProfileHandler.
func NewSaveProfileHandler(profileRepo profile.Repository, eventPublisher shared.EventPublisher) *SaveProfileHandler {
	return &SaveProfileHandler{
		profileRepo:    profileRepo,
		eventPublisher: eventPublisher,
	}
}

// Handle executes the save profile command. Existing subscription data
// is preserved - this command only touches the descriptive fields.
func (h *SaveProfileHandler) Handle(ctx context.Context, cmd SaveProfileCommand) error {
	userID, err := shared.NewUserID(cmd.UserID)
	if err != nil {
		return err
	}

	grade := attendance.Grade(cmd.ExpectedGrade)
	if cmd.ExpectedGrade != "" && !grade.IsValid() {
		return shared.ErrInvalidExpectedGrade
	}

	p, err := h.profileRepo.Get(ctx, userID)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			return fmt.Errorf("save_profile: %w", err)
		}
		p = profile.NewProfile(cmd.Name)
	}

	p.Name = cmd.Name
	p.ExpectedGrade = grade
	p.TimetableImage = cmd.TimetableImage

	if err := h.profileRepo.Save(ctx, userID, p); err != nil {
		return fmt.Errorf("save_profile: %w", err)
	}

	_ = h.eventPublisher.Publish(shared.NewProfileSavedEvent(
		shared.EventProfileSaved, userID.String(), p.CanReceivePush()))

	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SAVE PUSH SUBSCRIPTION COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// SaveSubscriptionCommand contains the browser push subscription.
type SaveSubscriptionCommand struct {
	UserID   string
	Endpoint string
	P256dh   string
	Auth     string
}

// SaveSubscriptionHandler handles the SaveSubscriptionCommand.
type SaveSubscriptionHandler struct {
	profileRepo    profile.Repository
	eventPublisher shared.EventPublisher
}

// NewSaveSubscriptionHandler creates a new SaveSubscriptionHandler.
func NewSaveSubscriptionHandler(profileRepo profile.Repository, eventPublisher shared.EventPublisher) *SaveSubscriptionHandler {
	return &SaveSubscriptionHandler{
		profileRepo:    profileRepo,
		eventPublisher: eventPublisher,
	}
}

// Handle executes the save subscription command, creating the profile
// lazily when it does not exist yet.
func (h *SaveSubscriptionHandler) Handle(ctx context.Context, cmd SaveSubscriptionCommand) error {
	userID, err := shared.NewUserID(cmd.UserID)
	if err != nil {
		return err
	}

	p, err := h.profileRepo.Get(ctx, userID)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			return fmt.Errorf("save_subscription: %w", err)
		}
		p = profile.NewProfile("")
	}

	err = p.SetSubscription(&profile.PushSubscription{
		Endpoint: cmd.Endpoint,
		P256dh:   cmd.P256dh,
		Auth:     cmd.Auth,
	})
	if err != nil {
		return err
	}

	if err := h.profileRepo.Save(ctx, userID, p); err != nil {
		return fmt.Errorf("save_subscription: %w", err)
	}

	_ = h.eventPublisher.Publish(shared.NewProfileSavedEvent(
		shared.EventSubscriptionSaved, userID.String(), true))

	return nil
}
