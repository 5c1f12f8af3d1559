package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/makoye224/cwru-courses-backend/internal/domain"
	domcourse "github.com/makoye224/cwru-courses-backend/internal/domain/course"
	logpkg "github.com/makoye224/cwru-courses-backend/internal/logger"
	healthuc "github.com/makoye224/cwru-courses-backend/internal/usecase/health"
)

// CourseService is the course and review use case consumed by the API.
type CourseService interface {
	Create(ctx context.Context, p domcourse.CoursePayload) (domcourse.Course, error)
	Get(ctx context.Context, key domcourse.Key) (domcourse.Course, error)
	List(ctx context.Context) ([]domcourse.Course, error)
	ListByCreator(ctx context.Context, createdBy string) ([]domcourse.Course, error)
	Delete(ctx context.Context, key domcourse.Key) error
	AddReview(ctx context.Context, key domcourse.Key, p domcourse.ReviewPayload) (domcourse.Course, domcourse.Review, error)
	UpdateReview(
		ctx context.Context, key domcourse.Key, reviewID string, p domcourse.ReviewPayload,
	) (domcourse.Course, domcourse.Review, error)
	DeleteReview(ctx context.Context, key domcourse.Key, reviewID string) (domcourse.Course, error)
}

// Searcher runs free-text course searches.
type Searcher interface {
	Search(ctx context.Context, query string) ([]domcourse.Course, error)
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server holds the HTTP handlers of the course API.
type Server struct {
	courses       CourseService
	search        Searcher
	health        HealthChecker
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(courses CourseService, search Searcher, health HealthChecker, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		courses: courses,
		search:  search,
		health:  health,
		logger:  logger,
	}
	s.errorHandlers = []errorHandler{
		validationHandler,
		revisionConflictHandler,
		sentinelHandler(domain.ErrReviewNotFound, http.StatusNotFound, ErrorCodeReviewNotFound),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, ErrorCodeNotFound),
		sentinelHandler(domain.ErrAlreadyExists, http.StatusConflict, ErrorCodeAlreadyExists),
	}
	return s
}

// CreateCourse handles POST /courses.
func (s *Server) CreateCourse(w http.ResponseWriter, r *http.Request) {
	var req domcourse.CoursePayload
	if !decodeBody(w, r, &req) {
		return
	}

	c, err := s.courses.Create(r.Context(), req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	w.Header().Set("Location", coursePath(c.Key()))
	setETag(w, c.Version())
	writeJSON(w, http.StatusCreated, courseToResponse(c))
}

// ListCourses handles GET /courses with an optional createdBy filter.
func (s *Server) ListCourses(w http.ResponseWriter, r *http.Request, params ListCoursesParams) {
	var (
		cs  []domcourse.Course
		err error
	)
	if params.CreatedBy != nil {
		cs, err = s.courses.ListByCreator(r.Context(), *params.CreatedBy)
	} else {
		cs, err = s.courses.List(r.Context())
	}
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, coursesToResponse(cs))
}

// GetCourse handles GET /courses/{name}/{code}.
func (s *Server) GetCourse(w http.ResponseWriter, r *http.Request, name, code string) {
	c, err := s.courses.Get(r.Context(), domcourse.Key{Name: name, Code: code})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	setETag(w, c.Version())
	writeJSON(w, http.StatusOK, courseToResponse(c))
}

// DeleteCourse handles DELETE /courses/{name}/{code}.
func (s *Server) DeleteCourse(w http.ResponseWriter, r *http.Request, name, code string) {
	if err := s.courses.Delete(r.Context(), domcourse.Key{Name: name, Code: code}); err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AddReview handles POST /courses/{name}/{code}/reviews.
func (s *Server) AddReview(w http.ResponseWriter, r *http.Request, name, code string) {
	var req domcourse.ReviewPayload
	if !decodeBody(w, r, &req) {
		return
	}

	key := domcourse.Key{Name: name, Code: code}
	c, review, err := s.courses.AddReview(r.Context(), key, req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	w.Header().Set("Location", coursePath(key)+"/reviews/"+url.PathEscape(review.ID))
	setETag(w, c.Version())
	writeJSON(w, http.StatusCreated, reviewToResponse(review))
}

// UpdateReview handles PUT /courses/{name}/{code}/reviews/{reviewId}.
func (s *Server) UpdateReview(w http.ResponseWriter, r *http.Request, name, code, reviewID string) {
	var req domcourse.ReviewPayload
	if !decodeBody(w, r, &req) {
		return
	}

	c, review, err := s.courses.UpdateReview(r.Context(), domcourse.Key{Name: name, Code: code}, reviewID, req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	setETag(w, c.Version())
	writeJSON(w, http.StatusOK, reviewToResponse(review))
}

// DeleteReview handles DELETE /courses/{name}/{code}/reviews/{reviewId}.
func (s *Server) DeleteReview(w http.ResponseWriter, r *http.Request, name, code, reviewID string) {
	c, err := s.courses.DeleteReview(r.Context(), domcourse.Key{Name: name, Code: code}, reviewID)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	setETag(w, c.Version())
	w.WriteHeader(http.StatusNoContent)
}

// SearchCourses handles POST /search. No match is an empty list, not an error.
func (s *Server) SearchCourses(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if !decodeBody(w, r, &req) {
		return
	}

	cs, err := s.search.Search(r.Context(), req.Query)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, coursesToResponse(cs))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{Status: string(report.Status), Checks: checks})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func coursePath(k domcourse.Key) string {
	return fmt.Sprintf("/courses/%s/%s", url.PathEscape(k.Name), url.PathEscape(k.Code))
}

func setETag(w http.ResponseWriter, version int64) {
	w.Header().Set("ETag", strconv.Quote(strconv.FormatInt(version, 10)))
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrValidation,
		domain.ErrReviewNotFound,
		domain.ErrNotFound,
		domain.ErrAlreadyExists,
		domain.ErrRevisionConflict,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// validationHandler reports every violated field.
func validationHandler(w http.ResponseWriter, err error, msg string) bool {
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		return false
	}
	writeJSON(w, http.StatusBadRequest, ErrorResponse{
		Code:       ErrorCodeValidationFailed,
		Message:    msg,
		Violations: ve.Violations,
	})
	return true
}

// revisionConflictHandler handles ErrRevisionConflict with ETag header and the current revision.
func revisionConflictHandler(w http.ResponseWriter, err error, msg string) bool {
	if !errors.Is(err, domain.ErrRevisionConflict) {
		return false
	}
	var rce *domain.RevisionConflictError
	if errors.As(err, &rce) {
		setETag(w, rce.CurrentRevision)
		current := rce.CurrentRevision
		writeJSON(w, http.StatusConflict, ErrorResponse{
			Code:            ErrorCodeRevisionConflict,
			Message:         msg,
			CurrentRevision: &current,
		})
		return true
	}
	writeError(w, http.StatusConflict, ErrorCodeRevisionConflict, msg)
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	logger := logpkg.FromContext(r.Context())
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			logger.Debug("domain error", zap.Error(err))
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err), zap.String("path", r.URL.Path))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}
