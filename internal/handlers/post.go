package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"inkwell/internal/models"
	"inkwell/internal/store"
	"inkwell/internal/utils"

	"github.com/gin-gonic/gin"
)

type PostHandler struct {
	posts   *store.PostStore
	ratings *store.RatingLedger
	cache   *utils.Cache
}

func NewPostHandler(posts *store.PostStore, ratings *store.RatingLedger, cache *utils.Cache) *PostHandler {
	return &PostHandler{posts: posts, ratings: ratings, cache: cache}
}

// postPayload is the shareable part of a post response; the per-user rated
// state is fetched live and never cached.
type postPayload struct {
	models.Post
	BodyHTML string `json:"body_html"`
}

func postListCacheKey(limit, offset int) string {
	return fmt.Sprintf("post:list:%d:%d", limit, offset)
}

func postDetailCacheKey(slug string) string {
	return fmt.Sprintf("post:detail:%s", slug)
}

// List handles GET /api/posts.
func (h *PostHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(store.DefaultPostLimit)))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	cacheKey := postListCacheKey(limit, offset)
	if cached := h.cache.Get(cacheKey); cached != nil {
		c.JSON(http.StatusOK, cached)
		return
	}

	posts, pages, err := h.posts.List(c.Request.Context(), limit, offset)
	if err != nil {
		abortError(c, err)
		return
	}

	payload := gin.H{"pages": pages, "posts": posts}
	h.cache.Set(cacheKey, payload, 1*time.Minute)
	c.JSON(http.StatusOK, payload)
}

// Create handles POST /api/posts.
func (h *PostHandler) Create(c *gin.Context) {
	user, _ := currentUser(c)

	var req struct {
		Title string   `json:"title"`
		Body  string   `json:"body"`
		Tags  []string `json:"tags"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "malformed request body"})
		return
	}

	post, err := h.posts.Create(c.Request.Context(), user.ID, req.Title, req.Body, req.Tags)
	if err != nil {
		abortError(c, err)
		return
	}

	// New post lands on the first pages of the listing.
	h.cache.Delete(postListCacheKey(store.DefaultPostLimit, 0))

	c.JSON(http.StatusCreated, post)
}

// Detail handles GET /api/posts/:slug. The payload is cached per slug; the
// current user's rated state is queried per request and merged in.
func (h *PostHandler) Detail(c *gin.Context) {
	slug := c.Param("slug")

	var payload *postPayload
	if cached := h.cache.Get(postDetailCacheKey(slug)); cached != nil {
		payload, _ = cached.(*postPayload)
	}
	if payload == nil {
		post, err := h.posts.GetBySlug(c.Request.Context(), slug)
		if err != nil {
			abortError(c, err)
			return
		}
		payload = &postPayload{
			Post:     *post,
			BodyHTML: utils.RenderMarkdown(post.Body),
		}
		h.cache.Set(postDetailCacheKey(slug), payload, 5*time.Minute)
	}

	rated := store.RatedState{}
	if user, ok := currentUser(c); ok {
		var err error
		rated, err = h.ratings.Get(c.Request.Context(), user.ID, payload.ID)
		if err != nil {
			abortError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"post":  payload,
		"rated": rated,
	})
}
