// Package server exposes the HTTP JSON API over the application core.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"blogd/internal/app"
	"blogd/internal/ratelimit"
	"blogd/internal/util"
	"blogd/pkg/domain"
)

const maxBodyBytes = 1 << 20

// Config wires required dependencies for the HTTP server.
type Config struct {
	App *app.App

	// Per-endpoint limiters; nil disables limiting for that endpoint.
	RegisterLimiter *ratelimit.Limiter
	LoginLimiter    *ratelimit.Limiter
	ResetLimiter    *ratelimit.Limiter
}

// Server exposes HTTP endpoints for accounts, blogs, categories and comments.
type Server struct {
	app *app.App
	mux *http.ServeMux

	registerLimiter *ratelimit.Limiter
	loginLimiter    *ratelimit.Limiter
	resetLimiter    *ratelimit.Limiter
}

// New constructs the server with routes configured. Logging goes through the
// request-scoped logger installed by the request-id middleware.
func New(cfg Config) (*Server, error) {
	if cfg.App == nil {
		return nil, errors.New("server requires an app")
	}
	s := &Server{
		app:             cfg.App,
		mux:             http.NewServeMux(),
		registerLimiter: cfg.RegisterLimiter,
		loginLimiter:    cfg.LoginLimiter,
		resetLimiter:    cfg.ResetLimiter,
	}
	s.routes()
	return s, nil
}

// Router returns the configured handler wrapped in the middleware chain.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(util.WithRequestLog("blogd", util.WithSecurityHeaders(util.WithCORS(s.mux))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)

	// accounts and sessions
	s.mux.Handle("/accounts", s.withActor(s.handleAccounts))
	s.mux.Handle("/accounts/", s.withActor(s.handleAccountSubtree))
	s.mux.Handle("/sessions", s.withActor(s.handleSessions))

	// blogs and comments
	s.mux.Handle("/blogs", s.withActor(s.handleBlogs))
	s.mux.Handle("/blogs/", s.withActor(s.handleBlogSubtree))
	s.mux.Handle("/archive", s.withActor(s.handleArchive))
	s.mux.Handle("/comments", s.withActor(s.handleComments))
	s.mux.Handle("/comments/", s.withActor(s.handleCommentByID))

	// categories
	s.mux.Handle("/categories", s.withActor(s.handleCategories))
	s.mux.Handle("/categories/", s.withActor(s.handleCategoryByRef))

	s.mux.HandleFunc("/contact", s.handleContact)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type actorHandler func(http.ResponseWriter, *http.Request, domain.Actor)

// withActor resolves the session bearer token to an actor; an absent or
// stale token yields the anonymous actor rather than an error, since most
// routes serve anonymous readers too.
func (s *Server) withActor(next actorHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, _ := bearerToken(r)
		actor, err := s.app.Authenticate(r.Context(), session)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		next(w, r, actor)
	})
}

// accounts

func (s *Server) handleAccounts(w http.ResponseWriter, r *http.Request, actor domain.Actor) {
	switch r.Method {
	case http.MethodPost:
		s.handleRegister(w, r)
	case http.MethodGet:
		accounts, err := s.app.ListAccounts(r.Context(), actor)
		if err != nil {
			s.writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": accounts, "count": len(accounts)})
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if !s.registerLimiter.Allow(r.Context(), util.ClientIP(r)) {
		tooManyRequests(w)
		return
	}
	var req struct {
		Username string `json:"username"`
		Display  string `json:"display"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	account, err := s.app.Register(r.Context(), app.RegisterRequest{
		Username: req.Username,
		Display:  req.Display,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	s.audit(r, "account_registered", "account_id", account.ID)
	writeJSON(w, http.StatusCreated, account)
}

// /accounts/{id}, /accounts/username/{username},
// /accounts/confirm-email, /accounts/reset-password[/confirm]
func (s *Server) handleAccountSubtree(w http.ResponseWriter, r *http.Request, actor domain.Actor) {
	rest := strings.TrimPrefix(r.URL.Path, "/accounts/")
	switch {
	case rest == "confirm-email":
		s.handleConfirmEmail(w, r)
	case rest == "reset-password":
		s.handleRequestPasswordReset(w, r)
	case rest == "reset-password/confirm":
		s.handleResetPassword(w, r)
	case strings.HasPrefix(rest, "username/"):
		s.handleAccountByUsername(w, r, actor, strings.TrimPrefix(rest, "username/"))
	default:
		id, err := strconv.ParseInt(rest, 10, 64)
		if err != nil {
			notFound(w)
			return
		}
		s.handleAccountByID(w, r, actor, id)
	}
}

func (s *Server) handleAccountByUsername(w http.ResponseWriter, r *http.Request, actor domain.Actor, username string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	account, err := s.app.GetAccountByUsername(r.Context(), actor, username)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

func (s *Server) handleAccountByID(w http.ResponseWriter, r *http.Request, actor domain.Actor, id int64) {
	switch r.Method {
	case http.MethodGet:
		account, err := s.app.GetAccount(r.Context(), actor, id)
		if err != nil {
			s.writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, account)
	case http.MethodPatch:
		var req struct {
			Display   *string `json:"display"`
			Email     *string `json:"email"`
			About     *string `json:"about"`
			Password  *string `json:"password"`
			Admin     *bool   `json:"admin"`
			Confirmed *bool   `json:"confirmed"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		account, err := s.app.UpdateAccount(r.Context(), actor, id, app.AccountUpdate{
			Display:   req.Display,
			Email:     req.Email,
			About:     req.About,
			Password:  req.Password,
			Admin:     req.Admin,
			Confirmed: req.Confirmed,
		})
		if err != nil {
			s.writeAppError(w, r, err)
			return
		}
		s.audit(r, "account_updated", "account_id", id, "actor_id", actor.ID())
		writeJSON(w, http.StatusOK, account)
	case http.MethodDelete:
		deleteBlogs := r.URL.Query().Get("deleteBlogs") == "true"
		if err := s.app.DeleteAccount(r.Context(), actor, id, deleteBlogs); err != nil {
			s.writeAppError(w, r, err)
			return
		}
		s.audit(r, "account_deleted", "account_id", id, "actor_id", actor.ID(), "delete_blogs", deleteBlogs)
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleConfirmEmail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req struct {
		Token string `json:"token"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.app.ConfirmEmail(r.Context(), req.Token); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "confirmed"})
}

func (s *Server) handleRequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.resetLimiter.Allow(r.Context(), util.ClientIP(r)) {
		tooManyRequests(w)
		return
	}
	var req struct {
		Email string `json:"email"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.app.RequestPasswordReset(r.Context(), req.Email); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.app.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// sessions

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request, actor domain.Actor) {
	switch r.Method {
	case http.MethodPost:
		s.handleLogin(w, r)
	case http.MethodDelete:
		session, ok := bearerToken(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if err := s.app.Logout(r.Context(), session); err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		s.audit(r, "logout", "actor_id", actor.ID())
		writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !s.loginLimiter.Allow(r.Context(), util.ClientIP(r)) {
		tooManyRequests(w)
		return
	}
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	account, session, err := s.app.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	s.audit(r, "login", "account_id", account.ID)
	writeJSON(w, http.StatusOK, map[string]any{"account": account, "session": session})
}

// blogs

func (s *Server) handleBlogs(w http.ResponseWriter, r *http.Request, actor domain.Actor) {
	switch r.Method {
	case http.MethodGet:
		req, ok := parseBlogListRequest(w, r)
		if !ok {
			return
		}
		blogs, err := s.app.ListBlogs(r.Context(), actor, req)
		if err != nil {
			s.writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": blogs, "count": len(blogs)})
	case http.MethodPost:
		var req struct {
			Title       string  `json:"title"`
			Description string  `json:"description"`
			Body        string  `json:"body"`
			Published   bool    `json:"published"`
			Comment     bool    `json:"comment"`
			CategoryIDs []int64 `json:"categoryIds"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		blog, err := s.app.CreateBlog(r.Context(), actor, app.BlogCreate{
			Title:       req.Title,
			Description: req.Description,
			Body:        req.Body,
			Published:   req.Published,
			Comment:     req.Comment,
			CategoryIDs: req.CategoryIDs,
		})
		if err != nil {
			s.writeAppError(w, r, err)
			return
		}
		s.audit(r, "blog_created", "blog_id", blog.ID, "actor_id", actor.ID())
		writeJSON(w, http.StatusCreated, blog)
	default:
		methodNotAllowed(w)
	}
}

func parseBlogListRequest(w http.ResponseWriter, r *http.Request) (app.ListBlogsRequest, bool) {
	var req app.ListBlogsRequest
	q := r.URL.Query()
	if raw := q.Get("author"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid author filter")
			return req, false
		}
		// author=0 selects blogs whose author account was deleted.
		if id == 0 {
			req.Authorless = true
		} else {
			req.AuthorID = &id
		}
	}
	if raw := q.Get("category"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid category filter")
			return req, false
		}
		req.CategoryID = &id
	}
	if raw := q.Get("published"); raw != "" {
		published, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid published filter")
			return req, false
		}
		req.Published = &published
	}
	return req, true
}

// /blogs/{id}, /blogs/{id}/comments, /blogs/slug/{slug}
func (s *Server) handleBlogSubtree(w http.ResponseWriter, r *http.Request, actor domain.Actor) {
	rest := strings.TrimPrefix(r.URL.Path, "/blogs/")
	if strings.HasPrefix(rest, "slug/") {
		s.handleBlogBySlug(w, r, actor, strings.TrimPrefix(rest, "slug/"))
		return
	}
	parts := strings.SplitN(rest, "/", 2)
	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		notFound(w)
		return
	}
	if len(parts) == 2 {
		if parts[1] == "comments" {
			s.handleBlogComments(w, r, actor, id)
			return
		}
		notFound(w)
		return
	}
	s.handleBlogByID(w, r, actor, id)
}

func (s *Server) handleBlogBySlug(w http.ResponseWriter, r *http.Request, actor domain.Actor, slug string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	blog, err := s.app.GetBlogBySlug(r.Context(), actor, slug)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, blog)
}

func (s *Server) handleBlogByID(w http.ResponseWriter, r *http.Request, actor domain.Actor, id int64) {
	switch r.Method {
	case http.MethodGet:
		blog, err := s.app.GetBlog(r.Context(), actor, id)
		if err != nil {
			s.writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, blog)
	case http.MethodPatch:
		var req struct {
			Title          *string  `json:"title"`
			Description    *string  `json:"description"`
			Body           *string  `json:"body"`
			Published      *bool    `json:"published"`
			Comment        *bool    `json:"comment"`
			CategoryIDs    *[]int64 `json:"categoryIds"`
			RegenerateSlug bool     `json:"regenerateSlug"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		blog, err := s.app.UpdateBlog(r.Context(), actor, id, app.BlogUpdate{
			Title:          req.Title,
			Description:    req.Description,
			Body:           req.Body,
			Published:      req.Published,
			Comment:        req.Comment,
			CategoryIDs:    req.CategoryIDs,
			RegenerateSlug: req.RegenerateSlug,
		})
		if err != nil {
			s.writeAppError(w, r, err)
			return
		}
		s.audit(r, "blog_updated", "blog_id", id, "actor_id", actor.ID())
		writeJSON(w, http.StatusOK, blog)
	case http.MethodDelete:
		if err := s.app.DeleteBlog(r.Context(), actor, id); err != nil {
			s.writeAppError(w, r, err)
			return
		}
		s.audit(r, "blog_deleted", "blog_id", id, "actor_id", actor.ID())
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	default:
		methodNotAllowed(w)
	}
}

// handleBlogComments lists a blog's comment tree. The blog read is the
// policy gate; an invisible blog yields 403/404 before any comment leaks.
func (s *Server) handleBlogComments(w http.ResponseWriter, r *http.Request, actor domain.Actor, blogID int64) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	blog, err := s.app.GetBlog(r.Context(), actor, blogID)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	comments, err := s.app.ListComments(r.Context(), app.ListCommentsRequest{BlogID: &blog.ID})
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": comments, "count": len(comments)})
}

func (s *Server) handleArchive(w http.ResponseWriter, r *http.Request, actor domain.Actor) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	var published *bool
	if raw := r.URL.Query().Get("published"); raw != "" {
		value, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid published filter")
			return
		}
		published = &value
	}
	years, err := s.app.ArchivedBlogs(r.Context(), actor, published)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"years": years})
}

// comments

func (s *Server) handleComments(w http.ResponseWriter, r *http.Request, actor domain.Actor) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req struct {
		Body     string `json:"body"`
		BlogID   *int64 `json:"blogId"`
		ParentID *int64 `json:"parentId"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	comment, err := s.app.CreateComment(r.Context(), actor, app.CommentCreate{
		Body:     req.Body,
		BlogID:   req.BlogID,
		ParentID: req.ParentID,
	})
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	s.audit(r, "comment_created", "comment_id", comment.ID, "actor_id", actor.ID())
	writeJSON(w, http.StatusCreated, comment)
}

func (s *Server) handleCommentByID(w http.ResponseWriter, r *http.Request, actor domain.Actor) {
	id, err := strconv.ParseInt(strings.TrimPrefix(r.URL.Path, "/comments/"), 10, 64)
	if err != nil {
		notFound(w)
		return
	}
	switch r.Method {
	case http.MethodGet:
		comment, err := s.app.GetComment(r.Context(), id)
		if err != nil {
			s.writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, comment)
	case http.MethodPatch:
		var req struct {
			Body string `json:"body"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		comment, err := s.app.UpdateComment(r.Context(), actor, id, req.Body)
		if err != nil {
			s.writeAppError(w, r, err)
			return
		}
		s.audit(r, "comment_updated", "comment_id", id, "actor_id", actor.ID())
		writeJSON(w, http.StatusOK, comment)
	case http.MethodDelete:
		if err := s.app.DeleteComment(r.Context(), actor, id); err != nil {
			s.writeAppError(w, r, err)
			return
		}
		s.audit(r, "comment_deleted", "comment_id", id, "actor_id", actor.ID())
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	default:
		methodNotAllowed(w)
	}
}

// categories

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request, actor domain.Actor) {
	switch r.Method {
	case http.MethodGet:
		categories, err := s.app.ListCategories(r.Context(), actor)
		if err != nil {
			s.writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": categories, "count": len(categories)})
	case http.MethodPost:
		var req struct {
			Title       string `json:"title"`
			Description string `json:"description"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		category, err := s.app.CreateCategory(r.Context(), actor, app.CategoryCreate{
			Title:       req.Title,
			Description: req.Description,
		})
		if err != nil {
			s.writeAppError(w, r, err)
			return
		}
		s.audit(r, "category_created", "category_id", category.ID, "actor_id", actor.ID())
		writeJSON(w, http.StatusCreated, category)
	default:
		methodNotAllowed(w)
	}
}

// /categories/{id} with a numeric ID, /categories/{slug} otherwise.
func (s *Server) handleCategoryByRef(w http.ResponseWriter, r *http.Request, actor domain.Actor) {
	ref := strings.TrimPrefix(r.URL.Path, "/categories/")
	id, err := strconv.ParseInt(ref, 10, 64)
	if err != nil {
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		category, err := s.app.GetCategoryBySlug(r.Context(), actor, ref)
		if err != nil {
			s.writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, category)
		return
	}
	switch r.Method {
	case http.MethodGet:
		category, err := s.app.GetCategory(r.Context(), actor, id)
		if err != nil {
			s.writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, category)
	case http.MethodPatch:
		var req struct {
			Title          *string `json:"title"`
			Description    *string `json:"description"`
			RegenerateSlug bool    `json:"regenerateSlug"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		category, err := s.app.UpdateCategory(r.Context(), actor, id, app.CategoryUpdate{
			Title:          req.Title,
			Description:    req.Description,
			RegenerateSlug: req.RegenerateSlug,
		})
		if err != nil {
			s.writeAppError(w, r, err)
			return
		}
		s.audit(r, "category_updated", "category_id", id, "actor_id", actor.ID())
		writeJSON(w, http.StatusOK, category)
	case http.MethodDelete:
		if err := s.app.DeleteCategory(r.Context(), actor, id); err != nil {
			s.writeAppError(w, r, err)
			return
		}
		s.audit(r, "category_deleted", "category_id", id, "actor_id", actor.ID())
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	default:
		methodNotAllowed(w)
	}
}

// contact

func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req struct {
		Email   string `json:"email"`
		Enquiry string `json:"enquiry"`
		Body    string `json:"body"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.app.Contact(req.Email, req.Enquiry, req.Body); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

// helpers

// audit logs through the request-scoped logger, which already carries the
// request id.
func (s *Server) audit(r *http.Request, event string, args ...any) {
	util.LoggerFromContext(r.Context()).Info(event, args...)
}

// writeAppError maps the app error taxonomy onto HTTP statuses. Not-found
// and forbidden stay distinct so callers can tell a missing resource from a
// denied one.
func (s *Server) writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, app.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, app.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, app.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, app.ErrUnableToCreate),
		errors.Is(err, app.ErrUnableToUpdate),
		errors.Is(err, app.ErrUnableToDelete):
		writeError(w, http.StatusConflict, err.Error())
	default:
		util.LoggerFromContext(r.Context()).Error("internal_error",
			"error", err.Error(),
			"path", r.URL.Path,
		)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		return "", false
	}
	return token, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func notFound(w http.ResponseWriter) {
	writeError(w, http.StatusNotFound, "not found")
}

func tooManyRequests(w http.ResponseWriter) {
	writeError(w, http.StatusTooManyRequests, "too many requests")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{
		Error:     msg,
		RequestID: strings.TrimSpace(w.Header().Get("X-Request-Id")),
	})
}
