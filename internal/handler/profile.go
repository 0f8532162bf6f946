package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dharmasatrya/flightwatch/internal/models"
	"github.com/dharmasatrya/flightwatch/internal/store"
	"github.com/dharmasatrya/flightwatch/pkg/logger"
)

type ProfileHandler struct {
	store store.ProfileStore
	log   logger.Logger
}

func NewProfileHandler(s store.ProfileStore, log logger.Logger) *ProfileHandler {
	if s == nil {
		s = store.NewNoopStore()
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &ProfileHandler{store: s, log: log}
}

// Get falls back to the default profile when none is stored or the store
// cannot be reached.
func (h *ProfileHandler) Get(c echo.Context) error {
	id := c.Param("id")

	profile, err := h.store.GetProfile(c.Request().Context(), id)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			h.log.Warn("profile read failed", "user_id", id, "error", err)
		}
		def := models.DefaultProfile(id)
		return c.JSON(http.StatusOK, def)
	}
	return c.JSON(http.StatusOK, profile)
}

func (h *ProfileHandler) Put(c echo.Context) error {
	id := c.Param("id")

	var profile models.UserProfile
	if err := c.Bind(&profile); err != nil {
		return badRequest(c, "Failed to parse request body: "+err.Error())
	}
	profile.ID = id

	if err := h.store.UpsertProfile(c.Request().Context(), &profile); err != nil {
		h.log.Error("profile write failed", "user_id", id, "error", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "profile_store_error",
			Message: err.Error(),
			Code:    http.StatusInternalServerError,
		})
	}
	return c.JSON(http.StatusOK, profile)
}

func (h *ProfileHandler) Delete(c echo.Context) error {
	id := c.Param("id")

	err := h.store.DeleteProfile(c.Request().Context(), id)
	switch {
	case err == nil:
		return c.NoContent(http.StatusNoContent)
	case errors.Is(err, store.ErrNotFound):
		return c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "not_found",
			Message: "no profile for user " + id,
			Code:    http.StatusNotFound,
		})
	default:
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "profile_store_error",
			Message: err.Error(),
			Code:    http.StatusInternalServerError,
		})
	}
}
