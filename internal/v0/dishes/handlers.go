package dishes

import (
	"errors"
	"net/http"
	"strconv"

	"MenuAPI/internal/common"
	"MenuAPI/internal/logging"

	"github.com/gin-gonic/gin"
)

// Handler serves the dish catalogue
type Handler struct {
	repo *Repository
}

func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

func idParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		common.Fail(c, http.StatusBadRequest, "invalid dish ID")
		return 0, false
	}
	return id, true
}

func writeError(c *gin.Context, err error, action string) {
	switch {
	case errors.Is(err, ErrDishExists), errors.Is(err, ErrDishInUse):
		common.Fail(c, http.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalidDish):
		common.Fail(c, http.StatusBadRequest, err.Error())
	default:
		logging.WithError(err).ErrorContext(c.Request.Context(), "Dish request failed", "action", action)
		common.Fail(c, http.StatusInternalServerError, "failed to "+action)
	}
}

// ListDishes returns the catalogue, optionally filtered by ?category=
// GET /v0/dishes
func (h *Handler) ListDishes(c *gin.Context) {
	var filter *Category
	if raw := c.Query("category"); raw != "" {
		category, err := ParseCategory(raw)
		if err != nil {
			common.Fail(c, http.StatusBadRequest, err.Error())
			return
		}
		filter = &category
	}

	dishes, err := h.repo.List(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err, "list dishes")
		return
	}
	common.Success(c, http.StatusOK, gin.H{"dishes": dishes})
}

// ListGrouped returns the catalogue keyed by category
// GET /v0/dishes/grouped
func (h *Handler) ListGrouped(c *gin.Context) {
	grouped, err := h.repo.Grouped(c.Request.Context())
	if err != nil {
		writeError(c, err, "list dishes")
		return
	}
	common.Success(c, http.StatusOK, grouped)
}

// GetDish returns a dish by ID
// GET /v0/dishes/:id
func (h *Handler) GetDish(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	dish, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err, "get dish")
		return
	}
	if dish == nil {
		common.Fail(c, http.StatusNotFound, "dish not found")
		return
	}
	common.Success(c, http.StatusOK, dish)
}

// CreateDish adds a dish to the catalogue
// POST /v0/dishes
func (h *Handler) CreateDish(c *gin.Context) {
	var req DishCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if !req.Category.Valid() {
		common.Fail(c, http.StatusBadRequest, "unknown dish category "+strconv.Quote(string(req.Category)))
		return
	}

	dish, err := h.repo.Create(c.Request.Context(), req.Name, req.Category)
	if err != nil {
		writeError(c, err, "create dish")
		return
	}
	common.Success(c, http.StatusCreated, dish)
}

// UpdateDish renames or recategorises a dish
// PATCH /v0/dishes/:id
func (h *Handler) UpdateDish(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	var req DishUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if req.Category != nil && !req.Category.Valid() {
		common.Fail(c, http.StatusBadRequest, "unknown dish category "+strconv.Quote(string(*req.Category)))
		return
	}

	dish, err := h.repo.Update(c.Request.Context(), id, req.Name, req.Category)
	if err != nil {
		writeError(c, err, "update dish")
		return
	}
	if dish == nil {
		common.Fail(c, http.StatusNotFound, "dish not found")
		return
	}
	common.Success(c, http.StatusOK, dish)
}

// DeleteDish removes a dish no menu uses
// DELETE /v0/dishes/:id
func (h *Handler) DeleteDish(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	deleted, err := h.repo.Delete(c.Request.Context(), id)
	if err != nil {
		writeError(c, err, "delete dish")
		return
	}
	if !deleted {
		common.Fail(c, http.StatusNotFound, "dish not found")
		return
	}
	common.Success(c, http.StatusOK, gin.H{"message": "dish deleted"})
}

//This project is the weekly menu planning backend API for the OpenSourceDUTH team. Plan, publish and share the canteen's weekly menus.
//API Copyright (C) 2025 OpenSourceDUTH
//This program is free software: you can redistribute it and/or modify
//it under the terms of the GNU General Public License as published by
//the Free Software Foundation, either version 3 of the License, or
//(at your option) any later version.
//
//This program is distributed in the hope that it will be useful,
//but WITHOUT ANY WARRANTY; without even the implied warranty of
//MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
//GNU General Public License for more details.
//
//You should have received a copy of the GNU General Public License
//along with this program.  If not, see <https://www.gnu.org/licenses/>.
