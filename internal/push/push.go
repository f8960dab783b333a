package push

import (
	"context"
	"crypto/ecdh"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/adirahman/ceritakita-go/internal/datastore/entities"
	"github.com/adirahman/ceritakita-go/internal/datastore/repository"
	"github.com/adirahman/ceritakita-go/internal/logger"
	"github.com/google/uuid"
)

// authSecretLen is the web push auth secret size (RFC 8291).
const authSecretLen = 16

// ErrNotSubscribed is returned when unsubscribing without a stored subscription.
var ErrNotSubscribed = errors.New("no push subscription stored")

// Subscriber is the slice of the API gateway the push manager needs.
type Subscriber interface {
	SubscribePush(ctx context.Context, sub *entities.PushSubscription) error
	UnsubscribePush(ctx context.Context, endpoint string) error
}

// Manager owns the push subscription lifecycle: it generates the client
// key material, registers the subscription with the remote service and
// keeps the single local copy in the subscription repository.
type Manager struct {
	api  Subscriber
	subs repository.SubscriptionRepository
	log  logger.Logger
}

// NewManager creates a push subscription Manager.
func NewManager(api Subscriber, subs repository.SubscriptionRepository, log logger.Logger) *Manager {
	return &Manager{api: api, subs: subs, log: log}
}

// generateKeys produces the client P-256 public key and auth secret,
// base64url-encoded without padding as the push protocol expects.
func generateKeys() (p256dh, auth string, err error) {
	key, err := ecdh.P256().GenerateKey(rand.Reader)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate subscription key: %w", err)
	}
	secret := make([]byte, authSecretLen)
	if _, err := rand.Read(secret); err != nil {
		return "", "", fmt.Errorf("failed to generate auth secret: %w", err)
	}
	enc := base64.RawURLEncoding
	return enc.EncodeToString(key.PublicKey().Bytes()), enc.EncodeToString(secret), nil
}

// Subscribe registers a push subscription for the given endpoint and
// stores it locally. The remote registration happens first; a local
// persistence failure after a successful registration is surfaced so the
// caller can retry.
func (m *Manager) Subscribe(ctx context.Context, endpoint string) (*entities.PushSubscription, error) {
	if endpoint == "" {
		return nil, errors.New("push endpoint is required")
	}

	p256dh, auth, err := generateKeys()
	if err != nil {
		return nil, err
	}
	sub := &entities.PushSubscription{
		ID:       uuid.NewString(),
		Endpoint: endpoint,
		P256dh:   p256dh,
		Auth:     auth,
	}

	if err := m.api.SubscribePush(ctx, sub); err != nil {
		return nil, err
	}
	if err := m.subs.Save(ctx, sub); err != nil {
		return nil, fmt.Errorf("subscribed remotely but failed to store locally: %w", err)
	}
	m.log.Info("push subscription registered", logger.String("endpoint", endpoint))
	return sub, nil
}

// Unsubscribe removes the stored subscription remotely and locally.
func (m *Manager) Unsubscribe(ctx context.Context) error {
	sub, err := m.subs.Get(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrSubscriptionNotFound) {
			return ErrNotSubscribed
		}
		return err
	}

	if err := m.api.UnsubscribePush(ctx, sub.Endpoint); err != nil {
		return err
	}
	if err := m.subs.DeleteByEndpoint(ctx, sub.Endpoint); err != nil {
		return fmt.Errorf("unsubscribed remotely but failed to remove local record: %w", err)
	}
	m.log.Info("push subscription removed", logger.String("endpoint", sub.Endpoint))
	return nil
}

// Current returns the stored subscription, or ErrNotSubscribed.
func (m *Manager) Current(ctx context.Context) (*entities.PushSubscription, error) {
	sub, err := m.subs.Get(ctx)
	if errors.Is(err, repository.ErrSubscriptionNotFound) {
		return nil, ErrNotSubscribed
	}
	return sub, err
}
