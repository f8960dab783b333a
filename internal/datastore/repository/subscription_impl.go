package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/adirahman/ceritakita-go/internal/datastore/entities"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// subscriptionRepository implements SubscriptionRepository.
type subscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository creates a new SubscriptionRepository.
func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

// Save upserts the subscription keyed by endpoint. The app keeps at most
// one live subscription, so saving replaces any previous record.
func (r *subscriptionRepository) Save(ctx context.Context, sub *entities.PushSubscription) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("endpoint <> ?", sub.Endpoint).Delete(&entities.PushSubscription{}).Error; err != nil {
			return fmt.Errorf("failed to drop stale push subscriptions: %w", err)
		}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "endpoint"}},
			UpdateAll: true,
		}).Create(sub).Error
		if err != nil {
			return fmt.Errorf("failed to save push subscription: %w", err)
		}
		return nil
	})
}

// Get returns the stored subscription or ErrSubscriptionNotFound.
func (r *subscriptionRepository) Get(ctx context.Context) (*entities.PushSubscription, error) {
	var sub entities.PushSubscription
	if err := r.db.WithContext(ctx).Order("created_at DESC").First(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("failed to get push subscription: %w", err)
	}
	return &sub, nil
}

// DeleteByEndpoint removes the subscription with the given endpoint.
// An absent endpoint succeeds silently.
func (r *subscriptionRepository) DeleteByEndpoint(ctx context.Context, endpoint string) error {
	if err := r.db.WithContext(ctx).Where("endpoint = ?", endpoint).Delete(&entities.PushSubscription{}).Error; err != nil {
		return fmt.Errorf("failed to delete push subscription: %w", err)
	}
	return nil
}
