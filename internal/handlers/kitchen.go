package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dinehall/internal/kitchen"
	"dinehall/internal/utils"
)

// KitchenHandler serves the read-only kitchen display board.
type KitchenHandler struct {
	board *kitchen.Board
}

func NewKitchenHandler(board *kitchen.Board) *KitchenHandler {
	return &KitchenHandler{board: board}
}

func (h *KitchenHandler) GetBoard(c *gin.Context) {
	c.JSON(http.StatusOK, utils.SuccessResponse("Kitchen board", h.board.Snapshot()))
}
