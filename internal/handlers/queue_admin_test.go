package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/eventos-rio/app-guestlist/internal/resilience"
	"github.com/gin-gonic/gin"
)

func newQueueAdminRouter(t *testing.T) (*gin.Engine, *resilience.EmergencyQueue) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := resilience.DefaultQueueConfig()
	// Long kick delay keeps jobs pending for the duration of the test
	cfg.KickDelay = time.Hour
	queue := resilience.NewEmergencyQueue(cfg, testLogger())
	t.Cleanup(queue.Stop)

	handler := NewQueueAdminHandler(queue, testLogger())
	router := gin.New()
	router.GET("/v1/admin/emergency-jobs", handler.ListJobs)
	router.GET("/v1/admin/emergency-jobs/stats", handler.QueueStats)
	router.GET("/v1/admin/emergency-jobs/:id", handler.GetJob)
	return router, queue
}

func TestQueueAdminListAndGet(t *testing.T) {
	router, queue := newQueueAdminRouter(t)

	id := queue.Add(resilience.JobTypeRegistration,
		resilience.EmergencyPayload{EventID: "evt-1"}, "tier 1: timeout; tier 2: timeout")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/admin/emergency-jobs", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var jobs []resilience.EmergencyJob
	if err := json.Unmarshal(w.Body.Bytes(), &jobs); err != nil {
		t.Fatalf("failed to decode jobs: %v", err)
	}
	if len(jobs) != 1 || jobs[0].ID != id {
		t.Fatalf("unexpected job list: %+v", jobs)
	}

	one := httptest.NewRecorder()
	router.ServeHTTP(one, httptest.NewRequest(http.MethodGet, "/v1/admin/emergency-jobs/"+id, nil))
	if one.Code != http.StatusOK {
		t.Errorf("expected 200 for job, got %d", one.Code)
	}

	missing := httptest.NewRecorder()
	router.ServeHTTP(missing, httptest.NewRequest(http.MethodGet, "/v1/admin/emergency-jobs/emg-missing", nil))
	if missing.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", missing.Code)
	}
}

func TestQueueAdminStatusFilter(t *testing.T) {
	router, queue := newQueueAdminRouter(t)

	queue.Add(resilience.JobTypeRegistration, resilience.EmergencyPayload{EventID: "evt-1"}, "err")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/admin/emergency-jobs?status=completed", nil))
	var jobs []resilience.EmergencyJob
	if err := json.Unmarshal(w.Body.Bytes(), &jobs); err != nil {
		t.Fatalf("failed to decode jobs: %v", err)
	}
	if len(jobs) != 0 {
		t.Errorf("expected no completed jobs, got %d", len(jobs))
	}

	pending := httptest.NewRecorder()
	router.ServeHTTP(pending, httptest.NewRequest(http.MethodGet, "/v1/admin/emergency-jobs?status=pending", nil))
	if err := json.Unmarshal(pending.Body.Bytes(), &jobs); err != nil {
		t.Fatalf("failed to decode jobs: %v", err)
	}
	if len(jobs) != 1 {
		t.Errorf("expected 1 pending job, got %d", len(jobs))
	}
}

func TestQueueAdminStats(t *testing.T) {
	router, queue := newQueueAdminRouter(t)

	queue.Add(resilience.JobTypeRegistration, resilience.EmergencyPayload{EventID: "evt-1"}, "err")
	queue.Add(resilience.JobTypeRegistration, resilience.EmergencyPayload{EventID: "evt-2"}, "err")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/admin/emergency-jobs/stats", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var stats resilience.QueueStats
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatalf("failed to decode stats: %v", err)
	}
	if stats.Pending != 2 {
		t.Errorf("expected 2 pending, got %+v", stats)
	}
}
