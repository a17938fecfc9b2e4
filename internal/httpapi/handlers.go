package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"PriceTracker/internal/domain"
)

type handlers struct {
	accounts AccountService
	news     NewsService
	search   SearchService
	prices   *PriceProxy
	logger   *slog.Logger
}

type credentialsRequest struct {
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

type promptRequest struct {
	Prompt string `json:"prompt" binding:"required"`
}

type summaryRequest struct {
	Content string `json:"content" binding:"required"`
}

type articleResponse struct {
	ID        int64  `json:"id"`
	URL       string `json:"url"`
	Title     string `json:"title"`
	Time      string `json:"time"`
	Content   string `json:"content"`
	Summary   string `json:"summary"`
	Reason    string `json:"reason"`
	Upvotes   int    `json:"upvotes"`
	IsUpvoted bool   `json:"is_upvoted"`
}

type searchResponse struct {
	ID      int64  `json:"id"`
	URL     string `json:"url"`
	Title   string `json:"title"`
	Time    string `json:"time"`
	Content string `json:"content"`
}

func (h *handlers) register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	user, err := h.accounts.Register(c.Request.Context(), req.Username, req.Password)
	switch {
	case errors.Is(err, domain.ErrUserExists):
		c.JSON(http.StatusConflict, gin.H{"error": "username already taken"})
		return
	case errors.Is(err, domain.ErrInvalidCredentials):
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	case err != nil:
		h.fail(c, "register user", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": user.ID, "username": user.Username})
}

func (h *handlers) login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	token, err := h.accounts.Login(c.Request.Context(), req.Username, req.Password)
	if errors.Is(err, domain.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	if err != nil {
		h.fail(c, "login", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"access_token": token, "token_type": "bearer"})
}

func (h *handlers) me(c *gin.Context) {
	user, _ := currentUser(c)
	c.JSON(http.StatusOK, gin.H{"id": user.ID, "username": user.Username})
}

func (h *handlers) listNews(c *gin.Context) {
	h.writeArticles(c, nil)
}

func (h *handlers) listUserNews(c *gin.Context) {
	user, _ := currentUser(c)
	h.writeArticles(c, &user.ID)
}

func (h *handlers) writeArticles(c *gin.Context, userID *int64) {
	views, err := h.news.List(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, "list news", err)
		return
	}

	out := make([]articleResponse, 0, len(views))
	for _, v := range views {
		out = append(out, toArticleResponse(v))
	}
	c.JSON(http.StatusOK, out)
}

func (h *handlers) getArticle(c *gin.Context) {
	id, ok := articleID(c)
	if !ok {
		return
	}

	view, err := h.news.Get(c.Request.Context(), id, optionalUserID(c))
	if errors.Is(err, domain.ErrArticleNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "article not found"})
		return
	}
	if err != nil {
		h.fail(c, "get article", err)
		return
	}

	c.JSON(http.StatusOK, toArticleResponse(view))
}

func (h *handlers) upvoteDetails(c *gin.Context) {
	id, ok := articleID(c)
	if !ok {
		return
	}

	details, err := h.news.Details(c.Request.Context(), id, optionalUserID(c))
	if errors.Is(err, domain.ErrArticleNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "article not found"})
		return
	}
	if err != nil {
		h.fail(c, "upvote details", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"upvotes": details.Count, "is_upvoted": details.VotedByUser})
}

func toArticleResponse(v domain.ArticleView) articleResponse {
	return articleResponse{
		ID:        v.ID,
		URL:       v.URL,
		Title:     v.Title,
		Time:      v.PublishedTime,
		Content:   v.Body,
		Summary:   v.SummaryImpact,
		Reason:    v.SummaryReason,
		Upvotes:   v.Upvotes,
		IsUpvoted: v.IsUpvoted,
	}
}

func articleID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid article id"})
		return 0, false
	}
	return id, true
}

func optionalUserID(c *gin.Context) *int64 {
	if user, ok := currentUser(c); ok {
		return &user.ID
	}
	return nil
}

func (h *handlers) toggleUpvote(c *gin.Context) {
	id, ok := articleID(c)
	if !ok {
		return
	}
	user, _ := currentUser(c)

	action, err := h.news.ToggleUpvote(c.Request.Context(), id, user.ID)
	if errors.Is(err, domain.ErrArticleNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "article not found"})
		return
	}
	if err != nil {
		h.fail(c, "toggle upvote", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": action.Message()})
}

func (h *handlers) searchNews(c *gin.Context) {
	var req promptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "prompt is required"})
		return
	}

	results, err := h.search.Run(c.Request.Context(), req.Prompt)
	if err != nil {
		h.fail(c, "search news", err)
		return
	}

	out := make([]searchResponse, 0, len(results))
	for _, r := range results {
		out = append(out, searchResponse{ID: r.ID, URL: r.URL, Title: r.Title, Time: r.Time, Content: r.Body})
	}
	c.JSON(http.StatusOK, out)
}

func (h *handlers) summarize(c *gin.Context) {
	var req summaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content is required"})
		return
	}

	summary, err := h.news.Summarize(c.Request.Context(), req.Content)
	if err != nil {
		h.fail(c, "summarize", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"summary": summary.Impact, "reason": summary.Reason})
}

func (h *handlers) necessitiesPrice(c *gin.Context) {
	if h.prices == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "price lookup disabled"})
		return
	}
	h.prices.Forward(c, c.Query("category"), c.Query("commodity"))
}

// fail maps upstream failures to 502 and everything else to 500.
func (h *handlers) fail(c *gin.Context, op string, err error) {
	status, message := http.StatusInternalServerError, "internal error"
	if isUpstreamError(err) {
		status, message = http.StatusBadGateway, "upstream service failed"
	}

	h.logger.Error("request failed", "op", op, "status", status, "error", err)
	c.JSON(status, gin.H{"error": message})
}

func isUpstreamError(err error) bool {
	var netErr *domain.NetworkError
	var parseErr *domain.ParseError
	var formatErr *domain.SummaryFormatError
	var faultErr *domain.ClassifierFault
	return errors.As(err, &netErr) || errors.As(err, &parseErr) ||
		errors.As(err, &formatErr) || errors.As(err, &faultErr)
}
