package menus

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"time"

	"MenuAPI/internal/auth"
	"MenuAPI/internal/common"
	"MenuAPI/internal/logging"
	"MenuAPI/internal/metrics"
	"MenuAPI/internal/v0/dishes"
	"MenuAPI/internal/week"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Handler serves the menu editor and the public menu views
type Handler struct {
	repo     *Repository
	dishes   *dishes.Repository
	lastUsed *LastUsedService
}

func NewHandler(repo *Repository, dishRepo *dishes.Repository, lastUsed *LastUsedService) *Handler {
	return &Handler{repo: repo, dishes: dishRepo, lastUsed: lastUsed}
}

// weekParam reads the :week route parameter (dd-mm-yyyy), snapped to Monday.
func weekParam(c *gin.Context) (time.Time, string, bool) {
	start, err := week.ParseURL(c.Param("week"))
	if err != nil {
		common.Fail(c, http.StatusBadRequest, err.Error())
		return time.Time{}, "", false
	}
	return start, week.FormatISO(start), true
}

func currentUserID(c *gin.Context) *int64 {
	user := auth.GetUserFromContext(c)
	if user == nil {
		return nil
	}
	id := user.ID
	return &id
}

// UserKey keys the write limiters by the authenticated user.
func UserKey(c *gin.Context) string {
	user := auth.GetUserFromContext(c)
	if user == nil {
		return ""
	}
	return strconv.FormatInt(user.ID, 10)
}

func newView(m *WeeklyMenu, start time.Time) MenuView {
	data := NewMenuData()
	if m != nil {
		data = m.Data
	}
	missing := MissingSlots(data)
	return MenuView{
		Menu:         m,
		Week:         week.FormatURL(start),
		WeekRange:    week.Range(start),
		MissingSlots: missing,
		Complete:     len(missing) == 0,
	}
}

// writeError maps repository errors onto responses. Unexpected errors are
// logged and answered with a generic message.
func writeError(c *gin.Context, err error, action string) {
	var verr *ValidationError
	switch {
	case errors.Is(err, ErrMenuIncomplete):
		metrics.PublishRejectedTotal.Inc()
		problems := []string{ErrMenuIncomplete.Error()}
		if errors.As(err, &verr) {
			problems = verr.Problems
		}
		common.Fail(c, http.StatusUnprocessableEntity, problems...)
	case errors.As(err, &verr):
		common.Fail(c, http.StatusUnprocessableEntity, verr.Problems...)
	case errors.Is(err, ErrMenuExists):
		common.Fail(c, http.StatusConflict, err.Error())
	case errors.Is(err, ErrMenuNotFound):
		common.Fail(c, http.StatusNotFound, err.Error())
	default:
		logging.WithError(err).ErrorContext(c.Request.Context(), "Menu request failed", "action", action)
		common.Fail(c, http.StatusInternalServerError, "failed to "+action)
	}
}

// ListMenus returns menus grouped into past, this week and upcoming
// GET /v0/menus
func (h *Handler) ListMenus(c *gin.Context) {
	grouped, err := h.repo.ListByPeriod(c.Request.Context())
	if err != nil {
		writeError(c, err, "list menus")
		return
	}
	common.Success(c, http.StatusOK, grouped)
}

// ListRecent returns menus newest first
// GET /v0/menus/recent
func (h *Handler) ListRecent(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if err != nil || limit < 0 {
		common.Fail(c, http.StatusBadRequest, "invalid limit")
		return
	}

	menus, err := h.repo.ListRecent(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err, "list menus")
		return
	}
	common.Success(c, http.StatusOK, gin.H{"menus": menus})
}

// GetMenu returns one week's menu with its completeness
// GET /v0/menus/:week
func (h *Handler) GetMenu(c *gin.Context) {
	start, iso, ok := weekParam(c)
	if !ok {
		return
	}

	m, err := h.repo.GetByWeek(c.Request.Context(), iso)
	if err != nil {
		writeError(c, err, "load menu")
		return
	}
	if m == nil {
		common.Fail(c, http.StatusNotFound, ErrMenuNotFound.Error())
		return
	}
	common.Success(c, http.StatusOK, newView(m, start))
}

// GetEditor returns everything the editor page needs. The menu is null when
// the week has not been started yet.
// GET /v0/menus/:week/editor
func (h *Handler) GetEditor(c *gin.Context) {
	start, iso, ok := weekParam(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	m, err := h.repo.GetByWeek(ctx, iso)
	if err != nil {
		writeError(c, err, "load menu")
		return
	}
	all, err := h.dishes.List(ctx, nil)
	if err != nil {
		writeError(c, err, "load dishes")
		return
	}
	labels, err := h.lastUsed.Labels(ctx, start)
	if err != nil {
		writeError(c, err, "compute last used")
		return
	}

	common.Success(c, http.StatusOK, EditorView{
		MenuView:         newView(m, start),
		DishesByCategory: dishes.Group(all),
		Template:         Template,
		LastUsed:         ForDishes(labels, dishIDs(all)),
	})
}

// GetLastUsed returns the last-used label of every dish relative to the week
// GET /v0/menus/:week/last-used
func (h *Handler) GetLastUsed(c *gin.Context) {
	start, _, ok := weekParam(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	all, err := h.dishes.List(ctx, nil)
	if err != nil {
		writeError(c, err, "load dishes")
		return
	}
	labels, err := h.lastUsed.Labels(ctx, start)
	if err != nil {
		writeError(c, err, "compute last used")
		return
	}
	common.Success(c, http.StatusOK, gin.H{
		"week":     week.FormatURL(start),
		"lastUsed": ForDishes(labels, dishIDs(all)),
	})
}

func dishIDs(all []dishes.Dish) []int64 {
	ids := make([]int64, 0, len(all))
	for _, d := range all {
		ids = append(ids, d.ID)
	}
	return ids
}

// bindMenu decodes and validates a save request against the catalogue.
func (h *Handler) bindMenu(c *gin.Context) (MenuData, MenuStatus, bool) {
	var req SaveMenuRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, err.Error())
		return nil, "", false
	}
	status, err := ParseStatus(req.Status)
	if err != nil {
		common.Fail(c, http.StatusBadRequest, err.Error())
		return nil, "", false
	}

	catalogue, err := h.dishes.AllByID(c.Request.Context())
	if err != nil {
		writeError(c, err, "load dishes")
		return nil, "", false
	}
	if err := Validate(req.Data, catalogue); err != nil {
		writeError(c, err, "validate menu")
		return nil, "", false
	}
	return Normalize(req.Data), status, true
}

// CreateMenu stores a new menu for a week that has none
// POST /v0/menus/:week
func (h *Handler) CreateMenu(c *gin.Context) {
	start, iso, ok := weekParam(c)
	if !ok {
		return
	}
	data, status, ok := h.bindMenu(c)
	if !ok {
		return
	}

	m, err := h.repo.Create(c.Request.Context(), iso, data, status, currentUserID(c))
	if err != nil {
		writeError(c, err, "create menu")
		return
	}
	metrics.MenusSavedTotal.WithLabelValues("create", string(m.Status)).Inc()
	h.lastUsed.Invalidate(c.Request.Context())
	logging.WithWeek(iso).InfoContext(c.Request.Context(), "Menu created", "status", m.Status)

	common.Success(c, http.StatusCreated, newView(m, start))
}

// UpdateMenu replaces an existing menu
// PUT /v0/menus/:week
func (h *Handler) UpdateMenu(c *gin.Context) {
	start, iso, ok := weekParam(c)
	if !ok {
		return
	}
	data, status, ok := h.bindMenu(c)
	if !ok {
		return
	}

	m, err := h.repo.Update(c.Request.Context(), iso, data, status, currentUserID(c))
	if err != nil {
		writeError(c, err, "update menu")
		return
	}
	metrics.MenusSavedTotal.WithLabelValues("update", string(m.Status)).Inc()
	h.lastUsed.Invalidate(c.Request.Context())
	logging.WithWeek(iso).InfoContext(c.Request.Context(), "Menu updated", "status", m.Status)

	common.Success(c, http.StatusOK, newView(m, start))
}

// EnsureDraft starts an empty draft for the week, or returns the existing menu
// POST /v0/menus/:week/draft
func (h *Handler) EnsureDraft(c *gin.Context) {
	start, iso, ok := weekParam(c)
	if !ok {
		return
	}

	m, created, err := h.repo.EnsureDraft(c.Request.Context(), iso, currentUserID(c))
	if err != nil {
		writeError(c, err, "create draft")
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
		metrics.MenusSavedTotal.WithLabelValues("draft", string(m.Status)).Inc()
	}
	common.Success(c, status, newView(m, start))
}

// PublishMenu makes a complete menu public
// POST /v0/menus/:week/publish
func (h *Handler) PublishMenu(c *gin.Context) {
	start, iso, ok := weekParam(c)
	if !ok {
		return
	}

	m, err := h.repo.Publish(c.Request.Context(), iso, currentUserID(c))
	if err != nil {
		writeError(c, err, "publish menu")
		return
	}
	metrics.MenusSavedTotal.WithLabelValues("publish", string(m.Status)).Inc()
	logging.WithWeek(iso).InfoContext(c.Request.Context(), "Menu published")

	common.Success(c, http.StatusOK, newView(m, start))
}

// UnpublishMenu hides a published menu again
// POST /v0/menus/:week/unpublish
func (h *Handler) UnpublishMenu(c *gin.Context) {
	start, iso, ok := weekParam(c)
	if !ok {
		return
	}

	m, err := h.repo.Unpublish(c.Request.Context(), iso, currentUserID(c))
	if err != nil {
		writeError(c, err, "unpublish menu")
		return
	}
	metrics.MenusSavedTotal.WithLabelValues("unpublish", string(m.Status)).Inc()

	common.Success(c, http.StatusOK, newView(m, start))
}

// DeleteMenu removes a week's menu and its usage history
// DELETE /v0/menus/:week
func (h *Handler) DeleteMenu(c *gin.Context) {
	_, iso, ok := weekParam(c)
	if !ok {
		return
	}

	if err := h.repo.Delete(c.Request.Context(), iso); err != nil {
		writeError(c, err, "delete menu")
		return
	}
	metrics.MenusDeletedTotal.Inc()
	h.lastUsed.Invalidate(c.Request.Context())
	logging.WithWeek(iso).InfoContext(c.Request.Context(), "Menu deleted")

	common.Success(c, http.StatusOK, gin.H{"message": "menu deleted"})
}

// publishedMenu loads a published menu with its catalogue, or answers 404.
func (h *Handler) publishedMenu(c *gin.Context) (PublicMenu, bool) {
	_, iso, ok := weekParam(c)
	if !ok {
		return PublicMenu{}, false
	}
	ctx := c.Request.Context()

	m, err := h.repo.GetByWeek(ctx, iso)
	if err != nil {
		writeError(c, err, "load menu")
		return PublicMenu{}, false
	}
	if m == nil || m.Status != StatusPublished {
		common.Fail(c, http.StatusNotFound, "no published menu for this week")
		return PublicMenu{}, false
	}

	catalogue, err := h.dishes.AllByID(ctx)
	if err != nil {
		writeError(c, err, "load dishes")
		return PublicMenu{}, false
	}
	return NewPublicMenu(m, catalogue), true
}

// GetPublicMenu returns a published menu with dish names resolved
// GET /public/menus/:week
func (h *Handler) GetPublicMenu(c *gin.Context) {
	pm, ok := h.publishedMenu(c)
	if !ok {
		return
	}
	common.Success(c, http.StatusOK, pm)
}

// GetWhatsAppText returns a published menu as chat-ready plain text
// GET /public/menus/:week/whatsapp
func (h *Handler) GetWhatsAppText(c *gin.Context) {
	pm, ok := h.publishedMenu(c)
	if !ok {
		return
	}
	c.String(http.StatusOK, WhatsAppText(pm.Days))
}

// ExportXLSX returns a published menu as a spreadsheet download
// GET /public/menus/:week/export.xlsx
func (h *Handler) ExportXLSX(c *gin.Context) {
	pm, ok := h.publishedMenu(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := WriteXLSX(&buf, "Weekly Menu "+pm.WeekRange, pm.Days); err != nil {
		writeError(c, err, "export menu")
		return
	}
	c.Header("Content-Disposition", `attachment; filename="menu-`+pm.Week+`.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
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
