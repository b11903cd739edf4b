package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dinehall/internal/models"
	"dinehall/internal/services"
	"dinehall/internal/utils"
)

type TableHandler struct {
	tableService *services.TableService
}

func NewTableHandler(tableService *services.TableService) *TableHandler {
	return &TableHandler{tableService: tableService}
}

func (h *TableHandler) CreateTable(c *gin.Context) {
	var req models.CreateTableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request payload", err.Error()))
		return
	}

	table, err := h.tableService.Create(c.Request.Context(), &req)
	if err != nil {
		writeError(c, "Failed to create table", err)
		return
	}

	c.JSON(http.StatusCreated, utils.SuccessResponse("Table created", table))
}

func (h *TableHandler) GetTable(c *gin.Context) {
	table, err := h.tableService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, "Failed to retrieve table", err)
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Table retrieved", table))
}

func (h *TableHandler) ListTables(c *gin.Context) {
	tables, err := h.tableService.List(c.Request.Context())
	if err != nil {
		writeError(c, "Failed to list tables", err)
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Tables retrieved", tables))
}
