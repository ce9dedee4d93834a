package monitor

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BusinessMetrics 定义业务监控指标
type BusinessMetrics struct {
	SubmissionsTotal   *prometheus.CounterVec
	SealPollAttempts   prometheus.Histogram
	SweepResultsTotal  *prometheus.CounterVec
	SweeperJobDuration prometheus.Histogram
	AccountBalance     *prometheus.GaugeVec
}

// Global Metrics Instance，未初始化时所有记录函数为空操作
var Business *BusinessMetrics

var businessOnce sync.Once

// InitBusinessMetrics 初始化业务指标并注册到默认 Registry
func InitBusinessMetrics() {
	businessOnce.Do(func() {
		Business = NewBusinessMetrics(prometheus.DefaultRegisterer)
	})
}

// NewBusinessMetrics 在指定 Registry 上创建业务指标，测试中使用独立 Registry
func NewBusinessMetrics(reg prometheus.Registerer) *BusinessMetrics {
	factory := promauto.With(reg)
	return &BusinessMetrics{
		SubmissionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "proposal_submissions_total",
			Help: "Proposal submissions by result",
		}, []string{"result"}),
		SealPollAttempts: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "proposal_seal_poll_attempts",
			Help:    "Number of status polls until a transaction reached a terminal state",
			Buckets: []float64{1, 2, 3, 5, 8, 13, 21, 30},
		}),
		SweepResultsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "proposal_sweep_results_total",
			Help: "Per-proposal sweep outcomes",
		}, []string{"result"}),
		SweeperJobDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "proposal_sweeper_job_duration_seconds",
			Help:    "Duration of sweeper jobs",
			Buckets: prometheus.DefBuckets,
		}),
		AccountBalance: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ledger_account_balance_flow",
			Help: "Balance of the signing account in FLOW",
		}, []string{"address"}),
	}
}

func (m *BusinessMetrics) ObserveSubmission(result string) {
	if m == nil {
		return
	}
	m.SubmissionsTotal.WithLabelValues(result).Inc()
}

func (m *BusinessMetrics) ObservePollAttempts(n int) {
	if m == nil {
		return
	}
	m.SealPollAttempts.Observe(float64(n))
}

func (m *BusinessMetrics) ObserveSweep(result string) {
	if m == nil {
		return
	}
	m.SweepResultsTotal.WithLabelValues(result).Inc()
}

func (m *BusinessMetrics) ObserveSweepDuration(seconds float64) {
	if m == nil {
		return
	}
	m.SweeperJobDuration.Observe(seconds)
}

func (m *BusinessMetrics) SetBalance(address string, flow float64) {
	if m == nil {
		return
	}
	m.AccountBalance.WithLabelValues(address).Set(flow)
}
