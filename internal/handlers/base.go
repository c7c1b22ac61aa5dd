package handlers

import (
	"errors"
	"net/http"

	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/store"

	"github.com/gin-gonic/gin"
)

// currentUser returns the session user loaded by the middleware.
func currentUser(c *gin.Context) (*models.User, bool) {
	v, exists := c.Get(middleware.CheckUserKey)
	if !exists {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok
}

// abortError maps store errors onto the HTTP status codes of the API.
func abortError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, store.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, store.ErrInvalidParent),
		errors.Is(err, store.ErrValidation):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrDuplicateLogin):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		// Includes ErrConsistency: already logged at the store, surfaced
		// as a server error rather than silently swallowed.
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
