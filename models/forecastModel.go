package models

import (
	"context"
	"time"

	"github.com/empirehq/revenue_backend/config"
	"github.com/empirehq/revenue_backend/utils"
)

const ForecastAlgorithmLinearRegression = "linear_regression"

// ForecastModel is the stored configuration a forecast run executes under.
type ForecastModel struct {
	ID        int    `gorm:"primary_key" json:"id"`
	Name      string `gorm:"size:255;not null;uniqueIndex" json:"name"`
	Algorithm string `gorm:"size:50;not null;default:linear_regression" json:"algorithm"`

	ForecastHorizonDays  int `gorm:"not null;default:30" json:"forecast_horizon_days"`
	HistoricalPeriodDays int `gorm:"not null;default:365" json:"historical_period_days"`

	Features        []string           `gorm:"serializer:json;type:json" json:"features"`
	Hyperparameters map[string]float64 `gorm:"serializer:json;type:json" json:"hyperparameters"`

	IsDefault *bool     `gorm:"not null;default:false" json:"is_default"`
	IsActive  *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func GetForecastModel(ctx context.Context, id int) (*ForecastModel, error) {

	return utils.FetchModel[ForecastModel](ctx, id)
}

func ListForecastModels(ctx context.Context) ([]*ForecastModel, error) {

	return utils.FetchAllModels[ForecastModel](ctx)
}

// EnsureDefaultForecastModel returns the default model, creating the baseline
// linear-regression configuration on first use.
func EnsureDefaultForecastModel(ctx context.Context) (*ForecastModel, error) {

	db := config.GetDB()
	var model ForecastModel
	err := db.WithContext(ctx).
		Where("is_default = ? AND is_active = ?", true, true).
		First(&model).Error
	if err == nil {
		return &model, nil
	}

	model = ForecastModel{
		Name:                 "baseline-linear",
		Algorithm:            ForecastAlgorithmLinearRegression,
		ForecastHorizonDays:  30,
		HistoricalPeriodDays: 365,
		Features:             []string{"trend", "weekday_seasonality"},
		IsDefault:            utils.NewTrue(),
		IsActive:             utils.NewTrue(),
	}
	if err := db.WithContext(ctx).Create(&model).Error; err != nil {
		if utils.IsDuplicateEntryError(err) {
			err = db.WithContext(ctx).Where("name = ?", model.Name).First(&model).Error
			if err == nil {
				return &model, nil
			}
		}
		return nil, err
	}
	return &model, nil
}
