package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dinehall/internal/models"
	"dinehall/internal/services"
	"dinehall/internal/utils"
)

type OrderHandler struct {
	orderService *services.OrderService
}

func NewOrderHandler(orderService *services.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req models.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request payload", err.Error()))
		return
	}

	order, err := h.orderService.Create(c.Request.Context(), &req)
	if err != nil {
		writeError(c, "Failed to create order", err)
		return
	}

	c.JSON(http.StatusCreated, utils.SuccessResponse("Order created", order))
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	order, err := h.orderService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, "Failed to retrieve order", err)
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Order retrieved", order))
}

func (h *OrderHandler) ListOrders(c *gin.Context) {
	orders, err := h.orderService.List(c.Request.Context())
	if err != nil {
		writeError(c, "Failed to list orders", err)
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Orders retrieved", orders))
}

func (h *OrderHandler) ListOrdersByTable(c *gin.Context) {
	orders, err := h.orderService.ListByTable(c.Request.Context(), c.Param("tableId"))
	if err != nil {
		writeError(c, "Failed to list orders", err)
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Orders retrieved", orders))
}

func (h *OrderHandler) UpdateOrder(c *gin.Context) {
	var req models.UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request payload", err.Error()))
		return
	}

	order, err := h.orderService.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		writeError(c, "Failed to update order", err)
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Order updated", order))
}

func (h *OrderHandler) UpdateItemStatus(c *gin.Context) {
	var req models.UpdateItemStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request payload", err.Error()))
		return
	}

	order, err := h.orderService.UpdateItemStatus(c.Request.Context(), c.Param("id"), c.Param("itemId"), &req)
	if err != nil {
		writeError(c, "Failed to update item status", err)
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Item status updated", order))
}

func (h *OrderHandler) AddItems(c *gin.Context) {
	var req models.AddItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request payload", err.Error()))
		return
	}

	order, err := h.orderService.AddItems(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		writeError(c, "Failed to add items", err)
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Items added", order))
}

func (h *OrderHandler) MergeOrders(c *gin.Context) {
	var req models.MergeOrdersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request payload", err.Error()))
		return
	}

	order, err := h.orderService.Merge(c.Request.Context(), &req)
	if err != nil {
		writeError(c, "Failed to merge orders", err)
		return
	}

	c.JSON(http.StatusCreated, utils.SuccessResponse("Orders merged", order))
}

func (h *OrderHandler) CompleteOrder(c *gin.Context) {
	order, err := h.orderService.Complete(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, "Failed to complete order", err)
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Order completed", order))
}
