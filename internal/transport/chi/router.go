package chi

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/oapi-codegen/runtime"
	"go.uber.org/zap"

	"github.com/makoye224/cwru-courses-backend/internal/metrics"
)

// ListCoursesParams are the query parameters of GET /courses.
type ListCoursesParams struct {
	CreatedBy *string
}

// RouterOptions configure the middleware stack.
type RouterOptions struct {
	Logger  *zap.Logger
	APIKeys []string
}

// NewRouter builds the chi router with the full middleware stack and every route.
func NewRouter(s *Server, opts RouterOptions) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(BearerAuthMiddleware(opts.APIKeys))
	r.Use(metrics.Middleware())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, ErrorCodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrorCodeMethodNotAllowed,
			"method "+r.Method+" not supported")
	})

	wrapper := serverWrapper{handler: s}
	r.Group(func(r chi.Router) {
		r.Post("/courses", s.CreateCourse)
		r.Get("/courses", wrapper.ListCourses)
		r.Get("/courses/{name}/{code}", wrapper.GetCourse)
		r.Delete("/courses/{name}/{code}", wrapper.DeleteCourse)
		r.Post("/courses/{name}/{code}/reviews", wrapper.AddReview)
		r.Put("/courses/{name}/{code}/reviews/{reviewId}", wrapper.UpdateReview)
		r.Delete("/courses/{name}/{code}/reviews/{reviewId}", wrapper.DeleteReview)
		r.Post("/search", s.SearchCourses)
		r.Get("/health", s.HealthCheck)
		r.Get("/metrics", s.Metrics)
	})
	return r
}

// serverWrapper binds path and query parameters before calling the handler.
type serverWrapper struct {
	handler *Server
}

var pathParam = runtime.BindStyledParameterOptions{
	ParamLocation: runtime.ParamLocationPath,
	Explode:       false,
	Required:      true,
}

// bindPath decodes a path parameter exactly once. chi matches on RawPath when
// the request carries one and on the already decoded Path otherwise; in the
// second case the value is escaped again so the binder's unescape is the only one.
func bindPath(r *http.Request, name string, dst *string) error {
	raw := chi.URLParam(r, name)
	if r.URL.RawPath == "" {
		raw = url.PathEscape(raw)
	}
	return runtime.BindStyledParameterWithOptions("simple", name, raw, dst, pathParam) //nolint:wrapcheck // caller reports
}

func bindKey(w http.ResponseWriter, r *http.Request) (name, code string, ok bool) {
	if err := bindPath(r, "name", &name); err != nil {
		invalidParam(w, "name", err)
		return "", "", false
	}
	if err := bindPath(r, "code", &code); err != nil {
		invalidParam(w, "code", err)
		return "", "", false
	}
	return name, code, true
}

func invalidParam(w http.ResponseWriter, param string, err error) {
	writeError(w, http.StatusBadRequest, ErrorCodeBadRequest,
		"Invalid format for parameter "+param+": "+err.Error())
}

func (sw serverWrapper) ListCourses(w http.ResponseWriter, r *http.Request) {
	var params ListCoursesParams
	if err := runtime.BindQueryParameter("form", true, false, "createdBy", r.URL.Query(), &params.CreatedBy); err != nil {
		invalidParam(w, "createdBy", err)
		return
	}
	sw.handler.ListCourses(w, r, params)
}

func (sw serverWrapper) GetCourse(w http.ResponseWriter, r *http.Request) {
	if name, code, ok := bindKey(w, r); ok {
		sw.handler.GetCourse(w, r, name, code)
	}
}

func (sw serverWrapper) DeleteCourse(w http.ResponseWriter, r *http.Request) {
	if name, code, ok := bindKey(w, r); ok {
		sw.handler.DeleteCourse(w, r, name, code)
	}
}

func (sw serverWrapper) AddReview(w http.ResponseWriter, r *http.Request) {
	if name, code, ok := bindKey(w, r); ok {
		sw.handler.AddReview(w, r, name, code)
	}
}

func (sw serverWrapper) UpdateReview(w http.ResponseWriter, r *http.Request) {
	name, code, ok := bindKey(w, r)
	if !ok {
		return
	}
	var reviewID string
	if err := bindPath(r, "reviewId", &reviewID); err != nil {
		invalidParam(w, "reviewId", err)
		return
	}
	sw.handler.UpdateReview(w, r, name, code, reviewID)
}

func (sw serverWrapper) DeleteReview(w http.ResponseWriter, r *http.Request) {
	name, code, ok := bindKey(w, r)
	if !ok {
		return
	}
	var reviewID string
	if err := bindPath(r, "reviewId", &reviewID); err != nil {
		invalidParam(w, "reviewId", err)
		return
	}
	sw.handler.DeleteReview(w, r, name, code, reviewID)
}
