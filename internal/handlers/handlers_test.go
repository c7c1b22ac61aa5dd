package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"inkwell/internal/db"
	"inkwell/internal/handlers"
	"inkwell/internal/middleware"
	"inkwell/internal/router"
	"inkwell/internal/store"
	"inkwell/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupServer(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("unwrap test db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.Migrate(conn); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}

	cache, err := utils.NewCache(16)
	if err != nil {
		t.Fatalf("create cache: %v", err)
	}

	counters := store.NewCounters(conn)
	users := store.NewUserStore(conn)
	posts := store.NewPostStore(conn)
	comments := store.NewCommentStore(conn, counters)
	ratings := store.NewRatingLedger(conn, counters)

	r := gin.New()
	r.Use(sessions.Sessions("inkwell_session", cookie.NewStore([]byte("test_secret"))))
	r.Use(middleware.LoadUser(users))
	router.RegisterRoutes(r,
		handlers.NewAuthHandler(users),
		handlers.NewPostHandler(posts, ratings, cache),
		handlers.NewCommentHandler(comments, posts, cache),
		handlers.NewRatingHandler(ratings, posts, cache),
	)
	return r
}

// do runs one request, attaching the session cookies, and decodes the JSON
// response into out when non-nil.
func do(t *testing.T, r *gin.Engine, method, path string, body interface{}, cookies []*http.Cookie, out interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for _, ck := range cookies {
		req.AddCookie(ck)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if out != nil && w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
			t.Fatalf("decode response %q: %v", w.Body.String(), err)
		}
	}
	return w
}

// signup registers a user and returns the session cookies.
func signup(t *testing.T, r *gin.Engine, login string) []*http.Cookie {
	t.Helper()
	w := do(t, r, http.MethodPost, "/api/users",
		map[string]string{"login": login, "password": "secret123"}, nil, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("signup %s: status = %d body = %s", login, w.Code, w.Body.String())
	}
	return w.Result().Cookies()
}

func createPost(t *testing.T, r *gin.Engine, cookies []*http.Cookie, title string) (id uint, slug string) {
	t.Helper()
	var post struct {
		ID   uint   `json:"id"`
		Slug string `json:"slug"`
	}
	w := do(t, r, http.MethodPost, "/api/posts",
		map[string]interface{}{"title": title, "body": "hello **world**", "tags": []string{"go"}},
		cookies, &post)
	if w.Code != http.StatusCreated {
		t.Fatalf("create post: status = %d body = %s", w.Code, w.Body.String())
	}
	return post.ID, post.Slug
}

func TestListCommentsRequiresPostParam(t *testing.T) {
	r := setupServer(t)

	if w := do(t, r, http.MethodGet, "/api/comments", nil, nil, nil); w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("missing post param: status = %d, want 422", w.Code)
	}
	if w := do(t, r, http.MethodGet, "/api/comments?post=9999", nil, nil, nil); w.Code != http.StatusNotFound {
		t.Fatalf("unknown post: status = %d, want 404", w.Code)
	}
}

// Negative paging values must page like their absence, not blow up the
// request.
func TestListCommentsNegativePaging(t *testing.T) {
	r := setupServer(t)
	cookies := signup(t, r, "alice")
	postID, _ := createPost(t, r, cookies, "Post")

	for i := 0; i < 2; i++ {
		w := do(t, r, http.MethodPost, "/api/comments",
			map[string]interface{}{"post": postID, "body": fmt.Sprintf("c%d", i)}, cookies, nil)
		if w.Code != http.StatusCreated {
			t.Fatalf("create comment %d: status = %d", i, w.Code)
		}
	}

	var listing struct {
		Comments []struct {
			ID uint `json:"id"`
		} `json:"comments"`
	}
	w := do(t, r, http.MethodGet,
		fmt.Sprintf("/api/comments?post=%d&offset=-1&limit=-3", postID), nil, nil, &listing)
	if w.Code != http.StatusOK {
		t.Fatalf("negative paging: status = %d body = %s", w.Code, w.Body.String())
	}
	if len(listing.Comments) != 2 {
		t.Fatalf("negative paging returned %d comments, want 2", len(listing.Comments))
	}

	// Same guard on the flat author-filtered shape.
	w = do(t, r, http.MethodGet,
		fmt.Sprintf("/api/comments?post=%d&login=alice&offset=-5", postID), nil, nil, &listing)
	if w.Code != http.StatusOK {
		t.Fatalf("negative paging (flat): status = %d body = %s", w.Code, w.Body.String())
	}
	if len(listing.Comments) != 2 {
		t.Fatalf("negative paging (flat) returned %d comments, want 2", len(listing.Comments))
	}
}

func TestSignupDuplicateLogin(t *testing.T) {
	r := setupServer(t)
	signup(t, r, "alice")

	w := do(t, r, http.MethodPost, "/api/users",
		map[string]string{"login": "alice", "password": "secret123"}, nil, nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate signup: status = %d, want 409", w.Code)
	}
}

func TestCommentEndpointsRequireAuth(t *testing.T) {
	r := setupServer(t)

	w := do(t, r, http.MethodPost, "/api/comments",
		map[string]interface{}{"post": 1, "body": "hi"}, nil, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated comment: status = %d, want 401", w.Code)
	}

	w = do(t, r, http.MethodPut, "/api/posts/1/rate",
		map[string]string{"value": "positive"}, nil, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated rate: status = %d, want 401", w.Code)
	}
}

func TestCommentLifecycle(t *testing.T) {
	r := setupServer(t)
	cookies := signup(t, r, "alice")
	postID, slug := createPost(t, r, cookies, "First post")

	var root struct {
		ID uint `json:"id"`
	}
	w := do(t, r, http.MethodPost, "/api/comments",
		map[string]interface{}{"post": postID, "body": "root comment"}, cookies, &root)
	if w.Code != http.StatusCreated {
		t.Fatalf("create root comment: status = %d body = %s", w.Code, w.Body.String())
	}

	var reply struct {
		ID uint `json:"id"`
	}
	w = do(t, r, http.MethodPost, "/api/comments",
		map[string]interface{}{"post": postID, "parent": root.ID, "body": "a reply"}, cookies, &reply)
	if w.Code != http.StatusCreated {
		t.Fatalf("create reply: status = %d body = %s", w.Code, w.Body.String())
	}

	var listing struct {
		Comments []struct {
			ID       uint `json:"id"`
			Children []struct {
				ID uint `json:"id"`
			} `json:"children"`
		} `json:"comments"`
	}
	w = do(t, r, http.MethodGet, fmt.Sprintf("/api/comments?post=%d", postID), nil, nil, &listing)
	if w.Code != http.StatusOK {
		t.Fatalf("list comments: status = %d", w.Code)
	}
	if len(listing.Comments) != 1 || listing.Comments[0].ID != root.ID {
		t.Fatalf("roots = %+v, want single root %d", listing.Comments, root.ID)
	}
	if len(listing.Comments[0].Children) != 1 || listing.Comments[0].Children[0].ID != reply.ID {
		t.Fatalf("children = %+v, want single reply %d", listing.Comments[0].Children, reply.ID)
	}

	var detail struct {
		Post struct {
			CommentCount int `json:"comment_count"`
		} `json:"post"`
	}
	do(t, r, http.MethodGet, "/api/posts/"+slug, nil, nil, &detail)
	if detail.Post.CommentCount != 2 {
		t.Fatalf("comment count = %d, want 2", detail.Post.CommentCount)
	}

	// Cascade: deleting the root takes the reply with it.
	w = do(t, r, http.MethodDelete, fmt.Sprintf("/api/comments/%d", root.ID), nil, cookies, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete root: status = %d", w.Code)
	}
	do(t, r, http.MethodGet, "/api/posts/"+slug, nil, nil, &detail)
	if detail.Post.CommentCount != 0 {
		t.Fatalf("comment count after cascade = %d, want 0", detail.Post.CommentCount)
	}
}

func TestEditForbiddenForNonAuthor(t *testing.T) {
	r := setupServer(t)
	alice := signup(t, r, "alice")
	bob := signup(t, r, "bob")
	postID, _ := createPost(t, r, alice, "Post")

	var comment struct {
		ID uint `json:"id"`
	}
	do(t, r, http.MethodPost, "/api/comments",
		map[string]interface{}{"post": postID, "body": "mine"}, alice, &comment)

	w := do(t, r, http.MethodPut, fmt.Sprintf("/api/comments/%d", comment.ID),
		map[string]string{"body": "not yours"}, bob, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("edit by non-author: status = %d, want 403", w.Code)
	}
}

func TestRatingEndpoints(t *testing.T) {
	r := setupServer(t)
	cookies := signup(t, r, "alice")
	postID, slug := createPost(t, r, cookies, "Rated post")

	var state struct {
		IsRated  bool `json:"isRated"`
		Negative bool `json:"negative"`
	}
	w := do(t, r, http.MethodPut, fmt.Sprintf("/api/posts/%d/rate", postID),
		map[string]string{"value": "positive"}, cookies, &state)
	if w.Code != http.StatusOK || !state.IsRated || state.Negative {
		t.Fatalf("rate positive: status = %d state = %+v", w.Code, state)
	}

	var detail struct {
		Post struct {
			Rating int `json:"rating"`
		} `json:"post"`
		Rated struct {
			IsRated  bool `json:"isRated"`
			Negative bool `json:"negative"`
		} `json:"rated"`
	}
	do(t, r, http.MethodGet, "/api/posts/"+slug, nil, cookies, &detail)
	if detail.Post.Rating != 1 || !detail.Rated.IsRated {
		t.Fatalf("detail after rate = %+v, want rating 1 and rated true", detail)
	}

	w = do(t, r, http.MethodPut, fmt.Sprintf("/api/posts/%d/rate", postID),
		map[string]string{"value": "sideways"}, cookies, nil)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("bad value: status = %d, want 422", w.Code)
	}

	w = do(t, r, http.MethodDelete, fmt.Sprintf("/api/posts/%d/rate", postID), nil, cookies, &state)
	if w.Code != http.StatusOK || state.IsRated {
		t.Fatalf("un-rate: status = %d state = %+v", w.Code, state)
	}
	do(t, r, http.MethodGet, "/api/posts/"+slug, nil, cookies, &detail)
	if detail.Post.Rating != 0 {
		t.Fatalf("rating after un-rate = %d, want 0", detail.Post.Rating)
	}

	w = do(t, r, http.MethodPut, "/api/posts/9999/rate",
		map[string]string{"value": "positive"}, cookies, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("rate missing post: status = %d, want 404", w.Code)
	}
}

func TestPostListPagination(t *testing.T) {
	r := setupServer(t)
	cookies := signup(t, r, "alice")
	for i := 0; i < 3; i++ {
		createPost(t, r, cookies, fmt.Sprintf("Post %d", i))
	}

	var listing struct {
		Pages int `json:"pages"`
		Posts []struct {
			Slug string `json:"slug"`
		} `json:"posts"`
	}
	w := do(t, r, http.MethodGet, "/api/posts?limit=2", nil, nil, &listing)
	if w.Code != http.StatusOK {
		t.Fatalf("list posts: status = %d", w.Code)
	}
	if listing.Pages != 2 || len(listing.Posts) != 2 {
		t.Fatalf("pages = %d posts = %d, want 2 and 2", listing.Pages, len(listing.Posts))
	}

	if w := do(t, r, http.MethodGet, "/api/posts?limit=101", nil, nil, nil); w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("oversized limit: status = %d, want 422", w.Code)
	}
}
