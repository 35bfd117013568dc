package models

import (
	"context"

	"github.com/empirehq/revenue_backend/config"
	"github.com/empirehq/revenue_backend/utils"
)

// first find in redis, then in db, cache result
// (may return RecordNotFound error)
func GetResource[T any](ctx context.Context, id int, associations ...string) (*T, error) {

	// find in redis
	result, err := utils.RetrieveRedis[T](id)
	if err != nil {
		return nil, err
	}
	// if not found in redis
	if result == nil {
		// fetch from db
		result, err = utils.FetchModel[T](ctx, id, associations...)
		if err != nil {
			return nil, err
		}

		// store in redis
		if err := utils.StoreRedis[T](result, id); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// list all resources, redis or db, cache result
func ListAllResource[T any](ctx context.Context, orders ...string) ([]*T, error) {

	// first try redis cache
	results, err := utils.RetrieveRedisList[T]("")
	if err != nil {
		return nil, err
	}
	// if not exists in redis
	if results == nil {
		// fetch from db
		db := config.GetDB()
		dbCtx := db.WithContext(ctx)
		for _, order := range orders {
			dbCtx = dbCtx.Order(order)
		}
		// db query
		if err = dbCtx.Find(&results).Error; err != nil {
			return nil, err
		}

		// caching the result
		if err := utils.StoreRedisList[T](results, ""); err != nil {
			return nil, err
		}
	}

	return results, nil
}

func ToggleActiveModel[T any](ctx context.Context, id int, isActive bool) (*T, error) {

	var result *T
	db := config.GetDB()

	if err := db.WithContext(ctx).First(&result, id).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}

	err := db.WithContext(ctx).Model(&result).
		UpdateColumn("IsActive", isActive).Error
	if err != nil {
		return nil, err
	}

	// clear cache
	if err := ClearResourceCache[T](id); err != nil {
		return nil, err
	}

	return result, nil
}

// drop both the item cache and any cached lists for the type
func ClearResourceCache[T any](id int) error {
	if err := utils.RemoveRedisItem[T](id); err != nil {
		return err
	}
	return utils.RemoveRedisList[T]("")
}
