package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry 保存账本的全部 Prometheus 指标
	Registry = prometheus.NewRegistry()

	instructions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "token_ledger",
			Subsystem: "instructions",
			Name:      "total",
			Help:      "Total number of ledger instructions by type and result.",
		},
		[]string{"type", "result"},
	)

	instructionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "token_ledger",
			Subsystem: "instructions",
			Name:      "duration_seconds",
			Help:      "Duration of ledger instruction execution.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
		[]string{"type"},
	)

	mintedTokens = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "token_ledger",
			Subsystem: "supply",
			Name:      "minted_total",
			Help:      "Total units minted across all mints since process start.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "token_ledger",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)
)

func init() {
	Registry.MustRegister(
		instructions,
		instructionDuration,
		mintedTokens,
		httpRequests,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler 返回暴露已注册指标的 HTTP handler
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordInstruction 记录一条指令的执行结果，result 为错误分类短名，如 ok、insufficient_funds。
func RecordInstruction(kind, result string, duration time.Duration) {
	instructions.WithLabelValues(kind, result).Inc()
	instructionDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordMinted 累加增发数量
func RecordMinted(amount uint64) {
	mintedTokens.Add(float64(amount))
}

// RecordHTTPRequest 统计一次已处理的请求
func RecordHTTPRequest(method, path, status string) {
	httpRequests.WithLabelValues(method, path, status).Inc()
}
