// Package webpush delivers reminder notifications over the Web Push
// protocol using VAPID authentication.
package webpush

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/mdi-hub/attendance-hub/internal/domain/notification"
	"github.com/mdi-hub/attendance-hub/internal/domain/profile"
	"github.com/mdi-hub/attendance-hub/internal/domain/shared"
	"github.com/mdi-hub/attendance-hub/pkg/circuitbreaker"
	"github.com/mdi-hub/attendance-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config holds VAPID keys and delivery options.
type Config struct {
	// VAPIDPublicKey is the application server public key, shared with
	// browsers when they subscribe.
	VAPIDPublicKey string

	// VAPIDPrivateKey is the application server private key.
	VAPIDPrivateKey string

	// Subscriber is a contact URI (mailto: or https:) sent to the push
	// service as required by the VAPID spec.
	Subscriber string

	// TTL is how long the push service keeps an undelivered message.
	TTL time.Duration

	// Timeout bounds one delivery attempt.
	Timeout time.Duration
}

// DefaultConfig returns delivery options suitable for hourly reminders.
// The TTL is short on purpose: a class reminder delivered hours late is
// worse than none.
func DefaultConfig() Config {
	return Config{
		TTL:     30 * time.Minute,
		Timeout: 10 * time.Second,
	}
}

// Validate checks that the keys required for sending are present.
func (c Config) Validate() error {
	if c.VAPIDPublicKey == "" || c.VAPIDPrivateKey == "" {
		return fmt.Errorf("webpush: VAPID key pair is required")
	}
	if c.Subscriber == "" {
		return fmt.Errorf("webpush: subscriber contact is required")
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SENDER
// ══════════════════════════════════════════════════════════════════════════════

// Sender implements notification.Sender over Web Push. Deliveries go
// through a circuit breaker so a struggling push service does not stall
// the whole batch scan.
type Sender struct {
	config  Config
	breaker *circuitbreaker.CircuitBreaker
	log     *logger.Logger
}

// NewSender creates a new Sender.
func NewSender(cfg Config, log *logger.Logger) (*Sender, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultConfig().TTL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	if log == nil {
		log = logger.Default()
	}

	breaker := circuitbreaker.PushServiceBreaker(
		func(name string, from, to circuitbreaker.State) {
			log.Warn("circuit breaker state changed",
				logger.Component(name),
				logger.String("from", from.String()),
				logger.String("to", to.String()),
			)
		},
		// A dead subscription is the client's fault, not the push
		// service's - it must not trip the breaker.
		circuitbreaker.WithIsFailure(func(err error) bool {
			return !errors.Is(err, shared.ErrSubscriptionGone)
		}),
	)

	return &Sender{
		config:  cfg,
		breaker: breaker,
		log:     log,
	}, nil
}

// Send delivers one notification to one subscription. A 404 or 410
// from the push service means the subscription is dead and should be
// removed from the profile.
func (s *Sender) Send(ctx context.Context, sub *profile.PushSubscription, n *notification.Notification) notification.DeliveryResult {
	if sub == nil || !sub.IsValid() {
		return notification.NewFailureResult(shared.ErrInvalidSubscription, false)
	}
	if n == nil || !n.IsValid() {
		return notification.NewFailureResult(shared.ErrNotificationFailed, false)
	}

	payload, err := json.Marshal(n)
	if err != nil {
		return notification.NewFailureResult(fmt.Errorf("webpush: marshal payload: %w", err), false)
	}

	target := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dh,
			Auth:   sub.Auth,
		},
	}

	var gone bool
	err = s.breaker.Execute(ctx, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()

		resp, err := webpush.SendNotificationWithContext(ctx, payload, target, &webpush.Options{
			Subscriber:      s.config.Subscriber,
			VAPIDPublicKey:  s.config.VAPIDPublicKey,
			VAPIDPrivateKey: s.config.VAPIDPrivateKey,
			TTL:             int(s.config.TTL.Seconds()),
		})
		if err != nil {
			return fmt.Errorf("webpush: send: %w", err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
			gone = true
			return shared.ErrSubscriptionGone
		case resp.StatusCode >= 400:
			return fmt.Errorf("webpush: push service returned %d: %w", resp.StatusCode, shared.ErrNotificationFailed)
		}
		return nil
	})
	if err != nil {
		return notification.NewFailureResult(err, gone)
	}

	return notification.NewSuccessResult()
}

// IsAvailable reports whether deliveries are currently possible.
// False while the circuit breaker is open.
func (s *Sender) IsAvailable() bool {
	return !s.breaker.IsOpen()
}

var _ notification.Sender = (*Sender)(nil)
