package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/koutei/internal/model"
)

type mockProjectFinder struct {
	project *model.Project
	err     error
}

func (m *mockProjectFinder) FindByID(ctx context.Context, id string) (*model.Project, error) {
	return m.project, m.err
}

func projectRouter(h *ProjectHandler) http.Handler {
	r := chi.NewRouter()
	r.Get("/api/projects/{projectID}", h.GetProject)
	return r
}

func TestProjectHandler_GetProject(t *testing.T) {
	finder := &mockProjectFinder{
		project: &model.Project{
			ID:                    "proj-1",
			Name:                  "新宿ビル建設",
			ProjectStartDate:      time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
			ProjectCurrentDate:    time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
			ProjectDurationMonths: 12,
		},
	}
	router := projectRouter(NewProjectHandler(finder))

	tests := []struct {
		name          string
		identity      *model.SessionIdentity
		wantCanBudget bool
	}{
		{"PMは予算閲覧可", &model.SessionIdentity{UserToken: "pm-1", Role: model.RoleProjectManager}, true},
		{"協力業者は予算閲覧不可", &model.SessionIdentity{UserToken: "c-1", Role: model.RoleContractor}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(t, router, http.MethodGet, "/api/projects/proj-1", tt.identity, nil)
			if w.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", w.Code)
			}

			var resp map[string]any
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode: %v", err)
			}
			if resp["id"] != "proj-1" {
				t.Errorf("id = %v, want proj-1", resp["id"])
			}
			if resp["project_start_date"] != "2024-04-01" {
				t.Errorf("project_start_date = %v, want 2024-04-01", resp["project_start_date"])
			}
			if resp["can_view_budget"] != tt.wantCanBudget {
				t.Errorf("can_view_budget = %v, want %v", resp["can_view_budget"], tt.wantCanBudget)
			}
		})
	}
}

func TestProjectHandler_GetProject_NotFound(t *testing.T) {
	router := projectRouter(NewProjectHandler(&mockProjectFinder{}))

	identity := &model.SessionIdentity{UserToken: "u-1", Role: model.RoleAdmin}
	w := doRequest(t, router, http.MethodGet, "/api/projects/no-such", identity, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
	assertAPIErrorBody(t, w.Body.Bytes(), "PROJECT_NOT_FOUND")
}

func TestProjectHandler_GetProject_Unauthenticated(t *testing.T) {
	router := projectRouter(NewProjectHandler(&mockProjectFinder{}))

	w := doRequest(t, router, http.MethodGet, "/api/projects/proj-1", nil, nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

type mockHealthChecker struct {
	err error
}

func (m *mockHealthChecker) PingContext(ctx context.Context) error { return m.err }

func TestHealthHandler(t *testing.T) {
	t.Run("DB疎通OKなら200", func(t *testing.T) {
		h := NewHealthHandler(&mockHealthChecker{})
		w := httptest.NewRecorder()
		h(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		if w.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", w.Code)
		}
		var resp map[string]string
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode: %v", err)
		}
		if resp["status"] != "ok" {
			t.Errorf("status = %q, want ok", resp["status"])
		}
	})

	t.Run("DB障害なら503", func(t *testing.T) {
		h := NewHealthHandler(&mockHealthChecker{err: errors.New("connection refused")})
		w := httptest.NewRecorder()
		h(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want 503", w.Code)
		}
	})
}
