package services

import (
	"context"
	"errors"
	"fmt"

	"dinehall/internal/apperr"
	"dinehall/internal/logger"
	"dinehall/internal/models"
	"dinehall/internal/storage"
	"dinehall/internal/utils"
)

// FoodService manages the catalog the order totals are priced from.
type FoodService struct {
	store storage.Store
	log   *logger.Logger
}

func NewFoodService(store storage.Store, log *logger.Logger) *FoodService {
	return &FoodService{store: store, log: log}
}

func (s *FoodService) Create(ctx context.Context, req *models.CreateFoodRequest) (*models.Food, error) {
	if req.Name == "" {
		return nil, apperr.Validationf("name is required")
	}
	if req.Price.IsNegative() {
		return nil, apperr.Validationf("price must not be negative")
	}

	food := &models.Food{
		ID:        utils.NewID(),
		Name:      req.Name,
		Price:     req.Price,
		Available: true,
	}
	if req.Available != nil {
		food.Available = *req.Available
	}
	if err := s.store.SaveFood(ctx, food); err != nil {
		return nil, apperr.Transient("save food", err)
	}

	s.log.Info("FOOD", fmt.Sprintf("Created %s at %s", food.Name, food.Price))
	return food, nil
}

func (s *FoodService) Get(ctx context.Context, id string) (*models.Food, error) {
	food, err := s.store.GetFood(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.NotFound("food", id)
		}
		return nil, err
	}
	return food, nil
}

func (s *FoodService) List(ctx context.Context) ([]*models.Food, error) {
	return s.store.ListFoods(ctx)
}
