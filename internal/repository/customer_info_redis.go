package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"photogo/internal/domain"
)

const customerInfoKeyPrefix = "booking:customer-info:"

type redisCustomerInfoRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCustomerInfoRepository keeps customer info under
// booking:customer-info:{userID}. ttl <= 0 means no expiry.
func NewRedisCustomerInfoRepository(client *redis.Client, ttl time.Duration) CustomerInfoRepository {
	return &redisCustomerInfoRepository{client: client, ttl: ttl}
}

func customerInfoKey(userID int64) string {
	return fmt.Sprintf("%s%d", customerInfoKeyPrefix, userID)
}

func (r *redisCustomerInfoRepository) Get(ctx context.Context, userID int64) (*domain.CustomerInfo, error) {
	raw, err := r.client.Get(ctx, customerInfoKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCustomerInfoNotFound
	}
	if err != nil {
		return nil, err
	}

	var info domain.CustomerInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return nil, fmt.Errorf("decode customer info: %w", err)
	}
	return &info, nil
}

func (r *redisCustomerInfoRepository) Save(ctx context.Context, userID int64, info domain.CustomerInfo) error {
	raw, err := json.Marshal(info)
	if err != nil {
		return err
	}
	ttl := r.ttl
	if ttl < 0 {
		ttl = 0
	}
	return r.client.Set(ctx, customerInfoKey(userID), raw, ttl).Err()
}
