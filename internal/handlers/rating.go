package handlers

import (
	"net/http"
	"strconv"

	"inkwell/internal/store"
	"inkwell/internal/utils"

	"github.com/gin-gonic/gin"
)

type RatingHandler struct {
	ratings *store.RatingLedger
	posts   *store.PostStore
	cache   *utils.Cache
}

func NewRatingHandler(ratings *store.RatingLedger, posts *store.PostStore, cache *utils.Cache) *RatingHandler {
	return &RatingHandler{ratings: ratings, posts: posts, cache: cache}
}

// Rate handles PUT /api/posts/:id/rate with body {"value": "positive"|"negative"}.
func (h *RatingHandler) Rate(c *gin.Context) {
	user, _ := currentUser(c)

	postID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	var req struct {
		Value string `json:"value"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "malformed request body"})
		return
	}

	var value int
	switch req.Value {
	case "positive":
		value = store.ValuePositive
	case "negative":
		value = store.ValueNegative
	default:
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "value must be positive or negative"})
		return
	}

	state, err := h.ratings.Toggle(c.Request.Context(), user.ID, uint(postID), value)
	if err != nil {
		abortError(c, err)
		return
	}

	h.invalidatePost(c, uint(postID))
	c.JSON(http.StatusOK, state)
}

// Unrate handles DELETE /api/posts/:id/rate.
func (h *RatingHandler) Unrate(c *gin.Context) {
	user, _ := currentUser(c)

	postID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	state, err := h.ratings.Clear(c.Request.Context(), user.ID, uint(postID))
	if err != nil {
		abortError(c, err)
		return
	}

	h.invalidatePost(c, uint(postID))
	c.JSON(http.StatusOK, state)
}

func (h *RatingHandler) invalidatePost(c *gin.Context, postID uint) {
	post, err := h.posts.GetByID(c.Request.Context(), postID)
	if err != nil {
		return
	}
	h.cache.Delete(postDetailCacheKey(post.Slug))
}
