package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dinehall/internal/models"
	"dinehall/internal/services"
	"dinehall/internal/utils"
)

type ReservationHandler struct {
	reservationService *services.ReservationService
}

func NewReservationHandler(reservationService *services.ReservationService) *ReservationHandler {
	return &ReservationHandler{reservationService: reservationService}
}

func (h *ReservationHandler) CreateReservation(c *gin.Context) {
	var req models.CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request payload", err.Error()))
		return
	}

	result, err := h.reservationService.Create(c.Request.Context(), &req)
	if err != nil {
		writeError(c, "Failed to create reservation", err)
		return
	}

	c.JSON(http.StatusCreated, utils.SuccessResponse("Reservation created", result))
}

func (h *ReservationHandler) GetReservation(c *gin.Context) {
	reservation, err := h.reservationService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, "Failed to retrieve reservation", err)
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Reservation retrieved", reservation))
}

func (h *ReservationHandler) ListReservations(c *gin.Context) {
	reservations, err := h.reservationService.List(c.Request.Context())
	if err != nil {
		writeError(c, "Failed to list reservations", err)
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Reservations retrieved", reservations))
}

func (h *ReservationHandler) ListReservationsByTable(c *gin.Context) {
	reservations, err := h.reservationService.ListByTable(c.Request.Context(), c.Param("tableId"))
	if err != nil {
		writeError(c, "Failed to list reservations", err)
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Reservations retrieved", reservations))
}

func (h *ReservationHandler) UpdateReservationStatus(c *gin.Context) {
	var req models.UpdateReservationStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request payload", err.Error()))
		return
	}

	result, err := h.reservationService.SetStatus(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		writeError(c, "Failed to update reservation", err)
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Reservation updated", result))
}

func (h *ReservationHandler) CancelReservation(c *gin.Context) {
	result, err := h.reservationService.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, "Failed to cancel reservation", err)
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Reservation cancelled", result))
}

// ConfirmByTable seats an arriving party: every pending reservation on the
// table confirms at once.
func (h *ReservationHandler) ConfirmByTable(c *gin.Context) {
	result, err := h.reservationService.ConfirmByTable(c.Request.Context(), c.Param("tableId"))
	if err != nil {
		writeError(c, "Failed to confirm reservations", err)
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Reservations confirmed", result))
}
