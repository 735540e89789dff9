package httpapp

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/inkwell-hq/inkwell/internal/auth"
	"github.com/inkwell-hq/inkwell/internal/config"
	"github.com/inkwell-hq/inkwell/internal/metrics"
	"github.com/inkwell-hq/inkwell/internal/model"
	"github.com/inkwell-hq/inkwell/internal/rate"
	"github.com/inkwell-hq/inkwell/internal/store"
	"github.com/inkwell-hq/inkwell/internal/toggle"
	"github.com/inkwell-hq/inkwell/internal/token"
)

type Server struct {
	store   store.Store
	codec   *token.Codec
	toggles *toggle.Service
	limiter rate.Limiter
	metrics *metrics.Metrics
	cfg     config.Config
	logger  *zap.Logger
	router  http.Handler
}

func NewServer(st store.Store, codec *token.Codec, toggles *toggle.Service, limiter rate.Limiter, cfg config.Config, logger *zap.Logger) (*Server, error) {
	s := &Server{
		store:   st,
		codec:   codec,
		toggles: toggles,
		limiter: limiter,
		metrics: metrics.New(),
		cfg:     cfg,
		logger:  logger,
	}

	policy, err := auth.NewPolicy(auth.DefaultRules())
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(s.metrics.Middleware)
	r.Use(auth.Gate(codec, logger))
	r.Use(policy.Middleware(logger))

	r.Get("/healthz", s.handleHealthz)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Post("/register", s.handleRegister)
			r.Post("/login", s.handleLogin)
			r.Get("/me", s.handleMe)
			r.Get("/list", s.handleListUsers)
			r.Get("/{id}", s.handleGetUser)
			r.Put("/{id}/role", s.handleUpdateUserRole)
			r.Delete("/{id}", s.handleDeleteUser)
			r.Post("/{id}/follow", s.handleFollow)
			r.Post("/{id}/unfollow", s.handleUnfollow)
			r.Get("/{id}/follow/status", s.handleFollowStatus)
		})

		r.Route("/articles", func(r chi.Router) {
			r.Get("/", s.handleListArticles)
			r.Post("/publish", s.handlePublishArticle)
			r.Put("/edit/{id}", s.handleEditArticle)
			r.Delete("/delete/{id}", s.handleDeleteArticle)
			r.Delete("/admin/delete/{id}", s.handleAdminDeleteArticle)
			r.Get("/{id}", s.handleGetArticle)
			r.Get("/{id}/comments", s.handleArticleComments)
			r.Post("/{id}/like", s.toggleHandler(model.RelationArticleLike, true, "liked", "like_count"))
			r.Post("/{id}/unlike", s.toggleHandler(model.RelationArticleLike, false, "liked", "like_count"))
			r.Get("/{id}/like/status", s.statusHandler(model.RelationArticleLike, "liked"))
			r.Post("/{id}/favorite", s.toggleHandler(model.RelationArticleFavorite, true, "favorited", "favorite_count"))
			r.Post("/{id}/unfavorite", s.toggleHandler(model.RelationArticleFavorite, false, "favorited", "favorite_count"))
			r.Get("/{id}/favorite/status", s.statusHandler(model.RelationArticleFavorite, "favorited"))
		})

		r.Route("/comments", func(r chi.Router) {
			r.Post("/", s.handleCreateComment)
			r.Post("/{id}/like", s.toggleHandler(model.RelationCommentLike, true, "liked", "like_count"))
			r.Post("/{id}/unlike", s.toggleHandler(model.RelationCommentLike, false, "liked", "like_count"))
			r.Get("/{id}/like/status", s.statusHandler(model.RelationCommentLike, "liked"))
		})
	})

	s.router = r
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// ---- users ----

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Nickname string `json:"nickname"`
		Bio      string `json:"bio"`
	}
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || len(req.Password) < 8 {
		writeError(w, http.StatusBadRequest, errors.New("username required and password must be at least 8 characters"))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	user := model.User{
		Username:     req.Username,
		PasswordHash: string(hash),
		Nickname:     req.Nickname,
		Bio:          req.Bio,
		Role:         model.RoleUser,
		CreatedAt:    time.Now(),
	}
	id, err := s.store.CreateUser(r.Context(), &user)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateUsername) {
			writeError(w, http.StatusConflict, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	user.ID = id
	writeJSON(w, http.StatusOK, userView(user))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !s.allowRateLimit(w, r, "login", s.cfg.RateLimits.LoginPerMinute) {
		return
	}
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	user, err := s.store.FindUserByUsername(r.Context(), req.Username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, errors.New("invalid credentials"))
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		writeError(w, http.StatusUnauthorized, errors.New("invalid credentials"))
		return
	}

	tok, err := s.codec.Issue(user.ID, user.Role)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.logger.Info("login", zap.Int64("user_id", user.ID), zap.Stringer("role", user.Role))
	writeJSON(w, http.StatusOK, map[string]any{
		"token":      tok,
		"token_type": "Bearer",
		"expires_in": int(s.cfg.TokenTTL.Seconds()),
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	p := auth.FromContext(r.Context())
	// The gate only proves identity; current profile data is fetched here.
	user, err := s.store.FindUserByID(r.Context(), p.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, errors.New("user not found"))
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, userView(user))
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	user, err := s.store.FindUserByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, errors.New("user not found"))
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, userView(user))
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	limit := parseIntDefault(r.URL.Query().Get("limit"), 20)
	offset := parseIntDefault(r.URL.Query().Get("offset"), 0)
	users, err := s.store.ListUsers(r.Context(), limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	views := make([]map[string]any, 0, len(users))
	for _, u := range users {
		views = append(views, userView(u))
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": views})
}

func (s *Server) handleUpdateUserRole(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		Role int `json:"role"`
	}
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	role := model.Role(req.Role)
	if !role.Valid() {
		writeError(w, http.StatusBadRequest, fmt.Errorf("unknown role %d", req.Role))
		return
	}
	if err := s.store.UpdateUserRole(r.Context(), id, role); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, errors.New("user not found"))
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.store.DeleteUser(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, errors.New("user not found"))
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleFollow(w http.ResponseWriter, r *http.Request) {
	s.followToggle(w, r, true)
}

func (s *Server) handleUnfollow(w http.ResponseWriter, r *http.Request) {
	s.followToggle(w, r, false)
}

func (s *Server) followToggle(w http.ResponseWriter, r *http.Request, on bool) {
	p := auth.FromContext(r.Context())
	targetID, ok := pathID(w, r)
	if !ok {
		return
	}
	if targetID == p.UserID {
		writeError(w, http.StatusBadRequest, errors.New("cannot follow yourself"))
		return
	}
	if !s.allowRateLimit(w, r, "toggle", s.cfg.RateLimits.TogglePerMinute) {
		return
	}

	var res toggle.Result
	var err error
	if on {
		res, err = s.toggles.TurnOn(r.Context(), model.RelationFollow, p.UserID, targetID)
	} else {
		res, err = s.toggles.TurnOff(r.Context(), model.RelationFollow, p.UserID, targetID)
	}
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, errors.New("user not found"))
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"following":      res.Active,
		"follower_count": res.Count,
	})
}

func (s *Server) handleFollowStatus(w http.ResponseWriter, r *http.Request) {
	p := auth.FromContext(r.Context())
	targetID, ok := pathID(w, r)
	if !ok {
		return
	}
	if !p.Authenticated() {
		writeJSON(w, http.StatusOK, map[string]any{"following": false})
		return
	}
	active, err := s.toggles.Status(r.Context(), model.RelationFollow, p.UserID, targetID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"following": active})
}

// ---- articles ----

func (s *Server) handleListArticles(w http.ResponseWriter, r *http.Request) {
	opts := store.ArticleListOpts{
		Limit:  parseIntDefault(r.URL.Query().Get("limit"), 20),
		Cursor: parseInt64Default(r.URL.Query().Get("cursor"), 0),
	}
	articles, err := s.store.ListArticles(r.Context(), opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	views := make([]map[string]any, 0, len(articles))
	for _, a := range articles {
		views = append(views, articleView(a))
	}
	writeJSON(w, http.StatusOK, map[string]any{"articles": views})
}

func (s *Server) handleGetArticle(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	article, err := s.store.GetArticle(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, errors.New("article not found"))
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, articleView(article))
}

func (s *Server) handlePublishArticle(w http.ResponseWriter, r *http.Request) {
	p := auth.FromContext(r.Context())
	var req struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" || strings.TrimSpace(req.Content) == "" {
		writeError(w, http.StatusBadRequest, errors.New("title and content required"))
		return
	}

	now := time.Now()
	article := model.Article{
		AuthorID:    p.UserID,
		Title:       req.Title,
		Content:     req.Content,
		Status:      1,
		CreatedAt:   now,
		PublishedAt: &now,
	}
	id, err := s.store.CreateArticle(r.Context(), &article)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	article.ID = id
	writeJSON(w, http.StatusOK, articleView(article))
}

func (s *Server) handleDeleteArticle(w http.ResponseWriter, r *http.Request) {
	s.deleteArticle(w, r, false)
}

func (s *Server) handleAdminDeleteArticle(w http.ResponseWriter, r *http.Request) {
	s.deleteArticle(w, r, true)
}

func (s *Server) handleEditArticle(w http.ResponseWriter, r *http.Request) {
	p := auth.FromContext(r.Context())
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	article, err := s.store.GetArticle(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, errors.New("article not found"))
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	// The policy checks the role; owning the article is checked here.
	if article.AuthorID != p.UserID {
		writeError(w, http.StatusForbidden, errors.New("not your article"))
		return
	}

	var req struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Content) == "" {
		writeError(w, http.StatusBadRequest, errors.New("title and content required"))
		return
	}
	if err := s.store.UpdateArticle(r.Context(), id, req.Title, req.Content); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	updated, err := s.store.GetArticle(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, articleView(updated))
}

func (s *Server) deleteArticle(w http.ResponseWriter, r *http.Request, admin bool) {
	p := auth.FromContext(r.Context())
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if !admin {
		article, err := s.store.GetArticle(r.Context(), id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeError(w, http.StatusNotFound, errors.New("article not found"))
				return
			}
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		if article.AuthorID != p.UserID {
			writeError(w, http.StatusForbidden, errors.New("not your article"))
			return
		}
	}
	if err := s.store.DeleteArticle(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, errors.New("article not found"))
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// ---- comments ----

func (s *Server) handleCreateComment(w http.ResponseWriter, r *http.Request) {
	p := auth.FromContext(r.Context())
	var req struct {
		ArticleID int64  `json:"article_id"`
		Content   string `json:"content"`
	}
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.ArticleID == 0 || strings.TrimSpace(req.Content) == "" {
		writeError(w, http.StatusBadRequest, errors.New("article_id and content required"))
		return
	}

	comment := model.Comment{
		ArticleID: req.ArticleID,
		AuthorID:  p.UserID,
		Content:   req.Content,
		CreatedAt: time.Now(),
	}
	id, err := s.store.CreateComment(r.Context(), &comment)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, errors.New("article not found"))
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	comment.ID = id
	writeJSON(w, http.StatusOK, commentView(comment))
}

func (s *Server) handleArticleComments(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	comments, err := s.store.ListCommentsByArticle(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	views := make([]map[string]any, 0, len(comments))
	for _, c := range comments {
		views = append(views, commentView(c))
	}
	writeJSON(w, http.StatusOK, map[string]any{"comments": views})
}

// ---- toggles ----

// toggleHandler builds the like/favorite handlers: all four binary relations
// share one protocol, only the relation and the response field names differ.
func (s *Server) toggleHandler(rel model.Relation, on bool, activeField, countField string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := auth.FromContext(r.Context())
		targetID, ok := pathID(w, r)
		if !ok {
			return
		}
		if !s.allowRateLimit(w, r, "toggle", s.cfg.RateLimits.TogglePerMinute) {
			return
		}

		var res toggle.Result
		var err error
		if on {
			res, err = s.toggles.TurnOn(r.Context(), rel, p.UserID, targetID)
		} else {
			res, err = s.toggles.TurnOff(r.Context(), rel, p.UserID, targetID)
		}
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeError(w, http.StatusNotFound, errors.New("target not found"))
				return
			}
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			activeField: res.Active,
			countField:  res.Count,
		})
	}
}

// statusHandler reports the relation state for the current principal.
// Anonymous callers on public status routes simply see OFF.
func (s *Server) statusHandler(rel model.Relation, activeField string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := auth.FromContext(r.Context())
		targetID, ok := pathID(w, r)
		if !ok {
			return
		}
		if !p.Authenticated() {
			writeJSON(w, http.StatusOK, map[string]any{activeField: false})
			return
		}
		active, err := s.toggles.Status(r.Context(), rel, p.UserID, targetID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{activeField: active})
	}
}

// ---- helpers ----

func (s *Server) allowRateLimit(w http.ResponseWriter, r *http.Request, action string, limit int) bool {
	if limit <= 0 {
		return true
	}
	key := fmt.Sprintf("%s:ip:%s", action, clientIP(r))
	if p := auth.FromContext(r.Context()); p.Authenticated() {
		key = fmt.Sprintf("%s:user:%d", action, p.UserID)
	}
	if ok, retry := s.limiter.Allow(key, limit, time.Minute); !ok {
		w.Header().Set("Retry-After", strconv.Itoa(int(retry.Seconds())))
		writeJSON(w, http.StatusTooManyRequests, map[string]any{
			"error":       "rate limit exceeded",
			"retry_after": int(retry.Seconds()),
		})
		return false
	}
	return true
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, errors.New("invalid id"))
		return 0, false
	}
	return id, true
}

func userView(u model.User) map[string]any {
	return map[string]any{
		"id":             u.ID,
		"username":       u.Username,
		"nickname":       u.Nickname,
		"bio":            u.Bio,
		"avatar_url":     u.AvatarURL,
		"role":           int(u.Role),
		"follower_count": u.FollowerCount,
		"created_at":     u.CreatedAt,
	}
}

func articleView(a model.Article) map[string]any {
	view := map[string]any{
		"id":             a.ID,
		"author_id":      a.AuthorID,
		"author_name":    a.AuthorName,
		"title":          a.Title,
		"content":        a.Content,
		"status":         a.Status,
		"like_count":     a.LikeCount,
		"favorite_count": a.FavoriteCount,
		"comment_count":  a.CommentCount,
		"created_at":     a.CreatedAt,
	}
	if a.PublishedAt != nil {
		view["published_at"] = *a.PublishedAt
	}
	return view
}

func commentView(c model.Comment) map[string]any {
	return map[string]any{
		"id":          c.ID,
		"article_id":  c.ArticleID,
		"author_id":   c.AuthorID,
		"author_name": c.AuthorName,
		"content":     c.Content,
		"like_count":  c.LikeCount,
		"created_at":  c.CreatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": err.Error()})
}

func readJSON(body io.ReadCloser, dest any) error {
	defer body.Close()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	return dec.Decode(dest)
}

func parseIntDefault(value string, def int) int {
	if value == "" {
		return def
	}
	if n, err := strconv.Atoi(value); err == nil {
		return n
	}
	return def
}

func parseInt64Default(value string, def int64) int64 {
	if value == "" {
		return def
	}
	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		return n
	}
	return def
}
