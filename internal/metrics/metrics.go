// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector はPrometheusメトリクスを収集する実装。
// 認証サービスと工程エンジンの両方から利用される。
type Collector struct {
	loginSuccess      prometheus.Counter
	loginFail         prometheus.Counter
	registerTotal     prometheus.Counter
	codeGrant         *prometheus.CounterVec
	sessionValidation *prometheus.CounterVec
	tasksShifted      prometheus.Counter
	rebaselineTotal   prometheus.Counter
	authLatency       prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		loginSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "koutei_login_success_total",
			Help: "ログイン成功の合計数",
		}),
		loginFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "koutei_login_fail_total",
			Help: "パスワード不一致によるログイン失敗の合計数",
		}),
		registerTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "koutei_register_total",
			Help: "新規ユーザー登録の合計数",
		}),
		codeGrant: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "koutei_code_grant_total",
			Help: "アクセスコード認証の結果別合計数",
		}, []string{"success"}),
		sessionValidation: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "koutei_session_validation_total",
			Help: "セッション検証の結果別合計数",
		}, []string{"valid"}),
		tasksShifted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "koutei_tasks_shifted_total",
			Help: "工程シフトで日程変更されたタスクの合計数",
		}),
		rebaselineTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "koutei_rebaseline_total",
			Help: "リベースライン適用の合計数",
		}),
		authLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "koutei_auth_latency_seconds",
			Help:    "認証処理のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.loginSuccess,
		c.loginFail,
		c.registerTotal,
		c.codeGrant,
		c.sessionValidation,
		c.tasksShifted,
		c.rebaselineTotal,
		c.authLatency,
	)

	return c
}

// RecordLoginSuccess はログイン成功を記録する。
func (c *Collector) RecordLoginSuccess() {
	c.loginSuccess.Inc()
}

// RecordLoginFailure はパスワード不一致によるログイン失敗を記録する。
func (c *Collector) RecordLoginFailure() {
	c.loginFail.Inc()
}

// RecordRegister は新規ユーザー登録を記録する。
func (c *Collector) RecordRegister() {
	c.registerTotal.Inc()
}

// RecordCodeGrant はアクセスコード認証の結果を記録する。
func (c *Collector) RecordCodeGrant(success bool) {
	c.codeGrant.WithLabelValues(strconv.FormatBool(success)).Inc()
}

// RecordSessionValidation はセッション検証の結果を記録する。
func (c *Collector) RecordSessionValidation(valid bool) {
	c.sessionValidation.WithLabelValues(strconv.FormatBool(valid)).Inc()
}

// RecordAuthLatency は認証処理のレイテンシを記録する。
func (c *Collector) RecordAuthLatency(duration time.Duration) {
	c.authLatency.Observe(duration.Seconds())
}

// RecordTasksShifted は工程シフトで日程変更されたタスク数を記録する。
func (c *Collector) RecordTasksShifted(count int) {
	c.tasksShifted.Add(float64(count))
}

// RecordRebaseline はリベースライン適用を記録する。
func (c *Collector) RecordRebaseline(deltaDays int) {
	c.rebaselineTotal.Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
