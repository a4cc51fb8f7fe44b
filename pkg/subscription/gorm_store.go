package subscription

import (
	"context"
	"errors"
	"time"

	"estatelink_backend/internal/model"

	"gorm.io/gorm"
)

// GormStore keeps subscriptions in PostgreSQL.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

// LockUser takes a transaction-scoped advisory lock keyed by the user id,
// so concurrent API instances cannot interleave writes for the same user.
func (s *GormStore) LockUser(ctx context.Context, userID uint) error {
	return s.db.WithContext(ctx).Exec("SELECT pg_advisory_xact_lock(?)", int64(userID)).Error
}

func (s *GormStore) FindUser(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *GormStore) SetUsersVerified(ctx context.Context, userIDs []uint, verified bool) error {
	if len(userIDs) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id IN ?", userIDs).
		Update("is_verified", verified).Error
}

func (s *GormStore) FindPlan(ctx context.Context, id uint) (*model.SubscriptionPlan, error) {
	var plan model.SubscriptionPlan
	if err := s.db.WithContext(ctx).First(&plan, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return &plan, nil
}

func (s *GormStore) FindFreePlan(ctx context.Context) (*model.SubscriptionPlan, error) {
	var plan model.SubscriptionPlan
	err := s.db.WithContext(ctx).
		Where("is_active = ? AND price_monthly = 0 AND price_quarterly = 0 AND price_yearly = 0", true).
		Order("id").
		First(&plan).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return &plan, nil
}

func (s *GormStore) FindSubscription(ctx context.Context, id uint) (*model.SubscribedPlan, error) {
	var sub model.SubscribedPlan
	if err := s.db.WithContext(ctx).First(&sub, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}
	return &sub, nil
}

func (s *GormStore) ListOpenSubscriptions(ctx context.Context, userID uint) ([]model.SubscribedPlan, error) {
	var subs []model.SubscribedPlan
	err := s.db.WithContext(ctx).
		Preload("Plan").
		Where("user_id = ? AND status IN ?", userID,
			[]model.SubscriptionStatus{model.SubscriptionPending, model.SubscriptionActive}).
		Order("created_at DESC").
		Find(&subs).Error
	return subs, err
}

func (s *GormStore) FindQuotaSource(ctx context.Context, userID uint, now time.Time) (*model.SubscribedPlan, error) {
	return s.first(ctx, s.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ? AND status = ? AND start_date <= ? AND end_date >= ?",
			userID, true, model.SubscriptionActive, now, now))
}

func (s *GormStore) FindCurrentSubscription(ctx context.Context, userID uint, now time.Time) (*model.SubscribedPlan, error) {
	return s.first(ctx, s.db.WithContext(ctx).
		Where("user_id = ? AND status = ? AND start_date <= ? AND end_date >= ?",
			userID, model.SubscriptionActive, now, now).
		Order("is_active DESC"))
}

func (s *GormStore) first(ctx context.Context, q *gorm.DB) (*model.SubscribedPlan, error) {
	var sub model.SubscribedPlan
	err := q.Order("created_at DESC").First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (s *GormStore) CreateSubscription(ctx context.Context, sub *model.SubscribedPlan) error {
	return s.db.WithContext(ctx).Omit("User", "Plan").Create(sub).Error
}

func (s *GormStore) SaveSubscription(ctx context.Context, sub *model.SubscribedPlan) error {
	return s.db.WithContext(ctx).Omit("User", "Plan").Save(sub).Error
}

func (s *GormStore) SupersedeSubscriptions(ctx context.Context, userID, keepID uint) (int64, error) {
	res := s.db.WithContext(ctx).
		Model(&model.SubscribedPlan{}).
		Where("user_id = ? AND id <> ? AND (status = ? OR is_active = ?)",
			userID, keepID, model.SubscriptionActive, true).
		Updates(map[string]interface{}{
			"is_active": false,
			"status":    model.SubscriptionInactive,
		})
	return res.RowsAffected, res.Error
}

func (s *GormStore) DeleteSubscription(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Unscoped().Delete(&model.SubscribedPlan{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrSubscriptionNotFound
	}
	return nil
}

func (s *GormStore) ListLapsed(ctx context.Context, now time.Time) ([]model.SubscribedPlan, error) {
	var subs []model.SubscribedPlan
	err := s.db.WithContext(ctx).
		Where("end_date < ? AND status = ?", now, model.SubscriptionActive).
		Find(&subs).Error
	return subs, err
}

func (s *GormStore) MarkExpired(ctx context.Context, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).
		Model(&model.SubscribedPlan{}).
		Where("id IN ?", ids).
		Updates(map[string]interface{}{
			"is_active": false,
			"status":    model.SubscriptionExpired,
		})
	return res.RowsAffected, res.Error
}

func (s *GormStore) ListEndingBetween(ctx context.Context, from, to time.Time) ([]model.SubscribedPlan, error) {
	var subs []model.SubscribedPlan
	err := s.db.WithContext(ctx).
		Preload("User").
		Preload("Plan").
		Where("end_date >= ? AND end_date < ? AND status = ? AND is_active = ?",
			from, to, model.SubscriptionActive, true).
		Find(&subs).Error
	return subs, err
}
