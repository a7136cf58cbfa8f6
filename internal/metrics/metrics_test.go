package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// TestNewCollector_ReturnsNonNil はCollectorが正常に生成されることを検証する。
func TestNewCollector_ReturnsNonNil(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	if c == nil {
		t.Fatal("expected non-nil Collector")
	}
}

// counterValue はレジストリから指定名のカウンタ値を取得する。
func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range metrics {
		if mf.GetName() == name {
			if len(mf.GetMetric()) != 1 {
				t.Fatalf("expected 1 metric for %s, got %d", name, len(mf.GetMetric()))
			}
			return mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	t.Fatalf("%s metric not found", name)
	return 0
}

// TestRecordLoginSuccess_IncrementsCounter はログイン成功カウンタが増加することを検証する。
func TestRecordLoginSuccess_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordLoginSuccess()
	c.RecordLoginSuccess()

	if got := counterValue(t, reg, "koutei_login_success_total"); got != 2 {
		t.Errorf("login_success_total = %v, want 2", got)
	}
}

// TestRecordLoginFailure_IncrementsCounter はログイン失敗カウンタが増加することを検証する。
func TestRecordLoginFailure_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordLoginFailure()

	if got := counterValue(t, reg, "koutei_login_fail_total"); got != 1 {
		t.Errorf("login_fail_total = %v, want 1", got)
	}
}

// TestRecordCodeGrant_IncrementsCounterWithLabel はコード認証カウンタが結果ラベル付きで増加することを検証する。
func TestRecordCodeGrant_IncrementsCounterWithLabel(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordCodeGrant(true)
	c.RecordCodeGrant(true)
	c.RecordCodeGrant(false)

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	found := false
	for _, mf := range metrics {
		if mf.GetName() != "koutei_code_grant_total" {
			continue
		}
		found = true
		if len(mf.GetMetric()) != 2 {
			t.Fatalf("expected 2 labeled metrics, got %d", len(mf.GetMetric()))
		}
		for _, m := range mf.GetMetric() {
			label := m.GetLabel()[0].GetValue()
			val := m.GetCounter().GetValue()
			switch label {
			case "true":
				if val != 2 {
					t.Errorf("code_grant_total{success=true} = %v, want 2", val)
				}
			case "false":
				if val != 1 {
					t.Errorf("code_grant_total{success=false} = %v, want 1", val)
				}
			default:
				t.Errorf("unexpected label %q", label)
			}
		}
	}
	if !found {
		t.Error("koutei_code_grant_total metric not found")
	}
}

// TestRecordTasksShifted_AddsCount はシフトされたタスク数が加算されることを検証する。
func TestRecordTasksShifted_AddsCount(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordTasksShifted(3)
	c.RecordTasksShifted(5)

	if got := counterValue(t, reg, "koutei_tasks_shifted_total"); got != 8 {
		t.Errorf("tasks_shifted_total = %v, want 8", got)
	}
}

// TestRecordAuthLatency_ObservesHistogram は認証レイテンシがヒストグラムに記録されることを検証する。
func TestRecordAuthLatency_ObservesHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordAuthLatency(50 * time.Millisecond)
	c.RecordAuthLatency(150 * time.Millisecond)

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	found := false
	for _, mf := range metrics {
		if mf.GetName() == "koutei_auth_latency_seconds" {
			found = true
			count := mf.GetMetric()[0].GetHistogram().GetSampleCount()
			if count != 2 {
				t.Errorf("sample count = %d, want 2", count)
			}
		}
	}
	if !found {
		t.Error("koutei_auth_latency_seconds metric not found")
	}
}

// TestMetricsHandler_ReturnsPrometheusFormat は/metricsがテキスト形式を返すことを検証する。
func TestMetricsHandler_ReturnsPrometheusFormat(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordRegister()
	c.RecordRebaseline(28)

	handler := SetupMetricsRoute(reg)
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	body, err := io.ReadAll(w.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	if !strings.Contains(string(body), "koutei_register_total 1") {
		t.Errorf("expected koutei_register_total in output:\n%s", body)
	}
	if !strings.Contains(string(body), "koutei_rebaseline_total 1") {
		t.Errorf("expected koutei_rebaseline_total in output:\n%s", body)
	}
}

// TestMultipleCollectors_IndependentRegistries はレジストリごとに独立して登録できることを検証する。
func TestMultipleCollectors_IndependentRegistries(t *testing.T) {
	reg1 := prometheus.NewRegistry()
	reg2 := prometheus.NewRegistry()

	c1 := NewCollector(reg1)
	NewCollector(reg2)

	c1.RecordLoginSuccess()

	if got := counterValue(t, reg1, "koutei_login_success_total"); got != 1 {
		t.Errorf("reg1 login_success_total = %v, want 1", got)
	}
	if got := counterValue(t, reg2, "koutei_login_success_total"); got != 0 {
		t.Errorf("reg2 login_success_total = %v, want 0", got)
	}
}
