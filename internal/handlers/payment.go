package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"dinehall/internal/models"
	"dinehall/internal/services"
	"dinehall/internal/utils"
)

type PaymentHandler struct {
	paymentService *services.PaymentService
}

func NewPaymentHandler(paymentService *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	var req models.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request payload", err.Error()))
		return
	}

	payment, err := h.paymentService.Create(c.Request.Context(), &req)
	if err != nil {
		writeError(c, "Failed to create payment", err)
		return
	}

	c.JSON(http.StatusCreated, utils.SuccessResponse("Payment created", payment))
}

func (h *PaymentHandler) GetPayment(c *gin.Context) {
	payment, err := h.paymentService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, "Failed to retrieve payment", err)
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Payment retrieved", payment))
}

func (h *PaymentHandler) ListPayments(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	result, err := h.paymentService.List(c.Request.Context(), page, limit)
	if err != nil {
		writeError(c, "Failed to list payments", err)
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Payments retrieved", result))
}

func (h *PaymentHandler) UpdatePayment(c *gin.Context) {
	var req models.UpdatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request payload", err.Error()))
		return
	}

	payment, err := h.paymentService.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		writeError(c, "Failed to update payment", err)
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Payment updated", payment))
}

// DeletePayment refuses unconditionally; the service enforces the policy so
// the refusal also covers ids that never existed.
func (h *PaymentHandler) DeletePayment(c *gin.Context) {
	err := h.paymentService.Delete(c.Request.Context(), c.Param("id"))
	writeError(c, "Payment deletion is not permitted", err)
}
