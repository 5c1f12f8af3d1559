package courses

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	healthuc "github.com/makoye224/cwru-courses-backend/internal/usecase/health"
)

// --- helpers ---

func newMemoryClient(t *testing.T, opts ...Option) *Client {
	t.Helper()
	c, err := New(context.Background(), append([]Option{WithMemory()}, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

var discrete = CourseInput{Name: "Discrete Math", Code: "CSDS101", CreatedBy: "u1", Aliases: []string{"DM"}}

func goodReview(professor string) ReviewInput {
	return ReviewInput{CreatedBy: "u2", Overall: 8, Difficulty: 6, Usefulness: 9, Professor: professor}
}

type fakeHealth struct{}

func (fakeHealth) Check(context.Context) healthuc.Report {
	return healthuc.Report{Status: healthuc.Unhealthy, Checks: map[string]healthuc.CheckResult{"database": healthuc.CheckError}}
}

// --- construction ---

func TestNew_NoStorage(t *testing.T) {
	if _, err := New(context.Background()); err == nil {
		t.Fatal("expected error when no storage configured")
	}
}

func TestNew_UnknownDriver(t *testing.T) {
	opt := optionFunc(func(c *clientConfig) { c.driver = "mongo" })
	if _, err := New(context.Background(), opt); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

// --- courses and reviews ---

func TestClient_Lifecycle(t *testing.T) {
	ctx := context.Background()
	c := newMemoryClient(t)

	created, err := c.CreateCourse(ctx, discrete)
	if err != nil {
		t.Fatalf("CreateCourse: %v", err)
	}
	if created.Title != "CSDS101 Discrete Math" || created.Version != 1 {
		t.Errorf("unexpected course: %+v", created)
	}
	if _, err := c.CreateCourse(ctx, discrete); !errors.Is(err, ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}

	r, err := c.AddReview(ctx, discrete.Name, discrete.Code, goodReview("Dr. Smith"))
	if err != nil {
		t.Fatalf("AddReview: %v", err)
	}
	if r.ID == "" {
		t.Fatal("expected generated review ID")
	}

	if _, err := c.UpdateReview(ctx, discrete.Name, discrete.Code, r.ID, goodReview("Dr. Lee")); err != nil {
		t.Fatalf("UpdateReview: %v", err)
	}
	got, err := c.Course(ctx, discrete.Name, discrete.Code)
	if err != nil {
		t.Fatalf("Course: %v", err)
	}
	if len(got.Professors) != 1 || got.Professors[0] != "Dr. Lee" || got.Version != 3 {
		t.Errorf("after update: %+v", got)
	}

	if err := c.DeleteReview(ctx, discrete.Name, discrete.Code, r.ID); err != nil {
		t.Fatalf("DeleteReview: %v", err)
	}
	if err := c.DeleteReview(ctx, discrete.Name, discrete.Code, r.ID); !errors.Is(err, ErrReviewNotFound) {
		t.Errorf("expected ErrReviewNotFound, got %v", err)
	}

	mine, err := c.CoursesBy(ctx, "u1")
	if err != nil || len(mine) != 1 {
		t.Errorf("CoursesBy: %v %v", mine, err)
	}

	if err := c.DeleteCourse(ctx, discrete.Name, discrete.Code); err != nil {
		t.Fatalf("DeleteCourse: %v", err)
	}
	if _, err := c.Course(ctx, discrete.Name, discrete.Code); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	all, err := c.Courses(ctx)
	if err != nil || len(all) != 0 {
		t.Errorf("Courses: %v %v", all, err)
	}
}

func TestClient_Violations(t *testing.T) {
	ctx := context.Background()
	c := newMemoryClient(t)
	if _, err := c.CreateCourse(ctx, discrete); err != nil {
		t.Fatal(err)
	}

	bad := goodReview("Dr. Smith")
	bad.Overall = 0
	_, err := c.AddReview(ctx, discrete.Name, discrete.Code, bad)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	v := Violations(err)
	if len(v) != 1 || v[0].Field != "overall" {
		t.Errorf("violations: %+v", v)
	}
	if Violations(errors.New("other")) != nil {
		t.Error("non-validation error must have no violations")
	}
}

func TestClient_Upsert(t *testing.T) {
	ctx := context.Background()
	c := newMemoryClient(t, WithUpsert())
	if _, err := c.CreateCourse(ctx, discrete); err != nil {
		t.Fatal(err)
	}
	again := discrete
	again.Description = "sets and graphs"
	got, err := c.CreateCourse(ctx, again)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if got.Description != "sets and graphs" || got.Version != 2 {
		t.Errorf("unexpected course: %+v", got)
	}
}

// --- search ---

func TestClient_SearchWithCache(t *testing.T) {
	ctx := context.Background()
	c := newMemoryClient(t, WithCorpusCache(time.Minute))
	if _, err := c.CreateCourse(ctx, discrete); err != nil {
		t.Fatal(err)
	}
	if hits, _ := c.Search(ctx, "csds 101"); len(hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(hits))
	}
	if _, err := c.CreateCourse(ctx, CourseInput{Name: "Algorithms", Code: "CSDS310", CreatedBy: "u1"}); err != nil {
		t.Fatal(err)
	}
	if hits, _ := c.Search(ctx, "csds"); len(hits) != 2 {
		t.Errorf("write not visible through cache, got %d hits", len(hits))
	}
	if hits, _ := c.Search(ctx, "   "); len(hits) != 0 {
		t.Errorf("blank query must match nothing, got %d", len(hits))
	}
}

func TestClient_ScoredSearch(t *testing.T) {
	ctx := context.Background()
	c := newMemoryClient(t, WithScoredSearch())
	if _, err := c.CreateCourse(ctx, discrete); err != nil {
		t.Fatal(err)
	}
	hits, err := c.Search(ctx, "discrete math")
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].Code != "CSDS101" {
		t.Errorf("unexpected hits: %+v", hits)
	}
}

// --- health & observability ---

func TestClient_Health(t *testing.T) {
	c := newMemoryClient(t)
	if h := c.Health(context.Background()); h.Status != "ok" || h.Checks["database"] != "ok" {
		t.Errorf("memory store health: %+v", h)
	}
	if err := c.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}

	c.healthSvc = fakeHealth{}
	if h := c.Health(context.Background()); h.Status != "error" {
		t.Errorf("expected error status, got %+v", h)
	}
}

func TestObserver_MetricsAndLogs(t *testing.T) {
	reg := prometheus.NewRegistry()
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	c := newMemoryClient(t, WithPrometheus(reg), WithLogger(logger))
	_, _ = c.Course(context.Background(), "Nope", "X")

	if got := testutil.ToFloat64(c.obs.metrics.calls.WithLabelValues("get_course", "rejected")); got != 1 {
		t.Errorf("rejected count = %v, want 1", got)
	}
	if !strings.Contains(buf.String(), "sdk call rejected") {
		t.Errorf("expected rejected log line, got %q", buf.String())
	}

	// A second client on the same registry reuses the collectors.
	c2 := newMemoryClient(t, WithPrometheus(reg))
	if c2.obs.metrics.calls != c.obs.metrics.calls || c2.obs.metrics.latency != c.obs.metrics.latency {
		t.Error("expected collectors to be reused")
	}
}

func TestObserver_ConflictingCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Subsystem: metricsSubsystem,
		Name:      "calls_total",
		Help:      callsHelp,
	}, callLabels))

	if _, err := newObserver(nil, reg); err == nil {
		t.Fatal("expected error for a collector of another type")
	}
}

func TestOutcome(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{ErrNotFound, "rejected"},
		{ErrAlreadyExists, "rejected"},
		{errors.New("dial tcp: refused"), "error"},
		{ErrRevisionConflict, "error"},
	}
	for _, tt := range tests {
		if got := outcome(tt.err); got != tt.want {
			t.Errorf("outcome(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestObserver_NilSafe(t *testing.T) {
	var o *observer
	o.observe("noop", time.Now(), nil)
}
