// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 認証失敗の理由ラベル
const (
	AuthFailureInvalidCredentials = "invalid_credentials"
	AuthFailureMissingToken       = "missing_token"
	AuthFailureInvalidToken       = "invalid_token"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ミドルウェアやサービス層から利用する。
type MetricsCollector interface {
	RecordHTTPRequest(method, route string, statusCode int, duration time.Duration)
	RecordUserRegistered()
	RecordTokenIssued()
	RecordAuthFailure(reason string)
	RecordTagCreated()
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	usersRegistered prometheus.Counter
	tokensIssued    prometheus.Counter
	authFailures    *prometheus.CounterVec
	tagsCreated     prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "recipebox_http_requests_total",
			Help: "メソッド・ルート・ステータスコード別のHTTPリクエスト数",
		}, []string{"method", "route", "status_code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "recipebox_http_request_duration_seconds",
			Help:    "HTTPリクエストの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		usersRegistered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "recipebox_users_registered_total",
			Help: "登録されたユーザーの合計数",
		}),
		tokensIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "recipebox_tokens_issued_total",
			Help: "トークン取得に成功した回数",
		}),
		authFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "recipebox_auth_failures_total",
			Help: "理由別の認証失敗数",
		}, []string{"reason"}),
		tagsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "recipebox_tags_created_total",
			Help: "作成されたタグの合計数",
		}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.httpDuration,
		c.usersRegistered,
		c.tokensIssued,
		c.authFailures,
		c.tagsCreated,
	)

	return c
}

// RecordHTTPRequest はHTTPリクエストの件数と処理時間を記録する。
// routeにはURLそのものではなくルートパターンを渡す。
func (c *Collector) RecordHTTPRequest(method, route string, statusCode int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	c.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordUserRegistered はユーザー登録を記録する。
func (c *Collector) RecordUserRegistered() {
	c.usersRegistered.Inc()
}

// RecordTokenIssued はトークン取得成功を記録する。
func (c *Collector) RecordTokenIssued() {
	c.tokensIssued.Inc()
}

// RecordAuthFailure は認証失敗を記録する。
func (c *Collector) RecordAuthFailure(reason string) {
	c.authFailures.WithLabelValues(reason).Inc()
}

// RecordTagCreated はタグ作成を記録する。
func (c *Collector) RecordTagCreated() {
	c.tagsCreated.Inc()
}

// NopCollector は何も記録しないMetricsCollector。
// メトリクスを使わないテストやコマンドで使用する。
type NopCollector struct{}

func (NopCollector) RecordHTTPRequest(string, string, int, time.Duration) {}
func (NopCollector) RecordUserRegistered()                                {}
func (NopCollector) RecordTokenIssued()                                   {}
func (NopCollector) RecordAuthFailure(string)                             {}
func (NopCollector) RecordTagCreated()                                    {}

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

var (
	_ MetricsCollector = (*Collector)(nil)
	_ MetricsCollector = NopCollector{}
)
