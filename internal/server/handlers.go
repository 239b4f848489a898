package server

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/TobiSchelling/socialrank/internal/database"
	"github.com/TobiSchelling/socialrank/internal/recommend"
)

const maxRequestBody = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

type createdResponse struct {
	ID string `json:"id"`
}

type articleResponse struct {
	database.HydratedArticle
	BodyHTML string `json:"body_html"`
}

type interactionRequest struct {
	UserID    string `json:"user_id" validate:"required"`
	ArticleID string `json:"article_id" validate:"required"`
	Action    string `json:"action" validate:"required,oneof=view like"`
}

type commentRequest struct {
	AuthorID  string `json:"author_id" validate:"required"`
	ArticleID string `json:"article_id" validate:"required"`
	Body      string `json:"body" validate:"required,max=5000"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Ping(r.Context()); err != nil {
		s.respondError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	page, err := intQuery(r, "page")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	limit, err := intQuery(r, "limit")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := recommend.WithRequestID(r.Context(), middleware.GetReqID(r.Context()))
	res, err := s.rec.Recommend(ctx, userID, page, limit)
	if err != nil {
		if errors.Is(err, recommend.ErrUserNotFound) {
			s.respondError(w, http.StatusNotFound, "user not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, "failed to compute recommendations")
		return
	}
	s.respondJSON(w, http.StatusOK, res)
}

func (s *Server) handleArticle(w http.ResponseWriter, r *http.Request) {
	articleID := chi.URLParam(r, "articleID")

	hydrated, err := s.db.HydrateArticles(r.Context(), []string{articleID})
	if err != nil {
		s.logger.Error().Err(err).Str("article_id", articleID).Msg("failed to load article")
		s.respondError(w, http.StatusInternalServerError, "failed to load article")
		return
	}
	if len(hydrated) == 0 {
		s.respondError(w, http.StatusNotFound, "article not found")
		return
	}

	s.respondJSON(w, http.StatusOK, articleResponse{
		HydratedArticle: hydrated[0],
		BodyHTML:        renderMarkdown(hydrated[0].Body),
	})
}

func (s *Server) handleCreateInteraction(w http.ResponseWriter, r *http.Request) {
	var req interactionRequest
	if !s.decode(w, r, &req) {
		return
	}
	if !s.checkRefs(w, r, req.UserID, req.ArticleID) {
		return
	}

	id, err := s.db.RecordInteraction(req.UserID, req.ArticleID, req.Action)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to record interaction")
		s.respondError(w, http.StatusInternalServerError, "failed to record interaction")
		return
	}
	s.respondJSON(w, http.StatusCreated, createdResponse{ID: id})
}

func (s *Server) handleCreateComment(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	if !s.decode(w, r, &req) {
		return
	}
	req.Body = strings.TrimSpace(req.Body)
	if req.Body == "" {
		s.respondError(w, http.StatusBadRequest, "body must not be blank")
		return
	}
	if !s.checkRefs(w, r, req.AuthorID, req.ArticleID) {
		return
	}

	id, err := s.db.InsertComment(req.AuthorID, req.ArticleID, req.Body)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to store comment")
		s.respondError(w, http.StatusInternalServerError, "failed to store comment")
		return
	}
	s.respondJSON(w, http.StatusCreated, createdResponse{ID: id})
}

// decode reads and validates a JSON body, writing a 400 on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			s.respondError(w, http.StatusBadRequest, fmt.Sprintf("field %s failed %q", fe.Field(), fe.Tag()))
			return false
		}
		s.respondError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// checkRefs verifies that the user exists and the article is live.
func (s *Server) checkRefs(w http.ResponseWriter, r *http.Request, userID, articleID string) bool {
	user, err := s.db.GetUser(r.Context(), userID)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to load user")
		return false
	}
	if user == nil {
		s.respondError(w, http.StatusNotFound, "user not found")
		return false
	}
	article, err := s.db.GetArticleByID(r.Context(), articleID)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to load article")
		return false
	}
	if article == nil || article.DeletedAt != nil {
		s.respondError(w, http.StatusNotFound, "article not found")
		return false
	}
	return true
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		s.logger.Debug().Err(err).Msg("failed to write response")
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, msg string) {
	s.respondJSON(w, status, errorResponse{Error: msg})
}

func intQuery(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return n, nil
}

func renderMarkdown(text string) string {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return ""
	}
	return buf.String()
}
