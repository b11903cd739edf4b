package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dinehall/internal/models"
	"dinehall/internal/services"
	"dinehall/internal/utils"
)

type FoodHandler struct {
	foodService *services.FoodService
}

func NewFoodHandler(foodService *services.FoodService) *FoodHandler {
	return &FoodHandler{foodService: foodService}
}

func (h *FoodHandler) CreateFood(c *gin.Context) {
	var req models.CreateFoodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request payload", err.Error()))
		return
	}

	food, err := h.foodService.Create(c.Request.Context(), &req)
	if err != nil {
		writeError(c, "Failed to create food", err)
		return
	}

	c.JSON(http.StatusCreated, utils.SuccessResponse("Food created", food))
}

func (h *FoodHandler) GetFood(c *gin.Context) {
	food, err := h.foodService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, "Failed to retrieve food", err)
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Food retrieved", food))
}

func (h *FoodHandler) ListFoods(c *gin.Context) {
	foods, err := h.foodService.List(c.Request.Context())
	if err != nil {
		writeError(c, "Failed to list foods", err)
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Foods retrieved", foods))
}
