package kpipush

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/revenuepulse/internal/revenue/domain"
)

// Recorder holds the headline revenue gauges on a private registry so only
// these series are pushed.
type Recorder struct {
	registry *prometheus.Registry

	mrr                 *prometheus.GaugeVec
	arr                 prometheus.Gauge
	churnRate           prometheus.Gauge
	activeSubscriptions prometheus.Gauge
	customers           prometheus.Gauge
	financial           *prometheus.GaugeVec
	lastSuccess         prometheus.Gauge
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		mrr: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "revenuepulse_mrr",
			Help: "Monthly recurring revenue of the latest month.",
		}, []string{"kind"}),
		arr: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "revenuepulse_arr",
			Help: "Annual recurring revenue.",
		}),
		churnRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "revenuepulse_churn_rate_percent",
			Help: "Churn rate over the trailing month.",
		}),
		activeSubscriptions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "revenuepulse_active_subscriptions",
			Help: "Active subscriptions across sources.",
		}),
		customers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "revenuepulse_customers_total",
			Help: "Cumulative customers.",
		}),
		financial: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "revenuepulse_financial_amount",
			Help: "Lifetime financial totals.",
		}, []string{"kind"}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "revenuepulse_kpi_last_success_timestamp_seconds",
			Help: "Unix time of the last successful snapshot.",
		}),
	}
	r.registry.MustRegister(r.mrr, r.arr, r.churnRate, r.activeSubscriptions, r.customers, r.financial, r.lastSuccess)
	return r
}

func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Observe replaces every gauge with the values of resp.
func (r *Recorder) Observe(resp domain.MetricsResponse) {
	b := resp.Bundle

	r.mrr.WithLabelValues("total").Set(toFloat(resp.Summary.TotalMRR.Current))
	r.mrr.WithLabelValues("new").Set(toFloat(resp.Summary.NewMRR.Current))
	r.arr.Set(toFloat(b.ARR))
	r.churnRate.Set(toFloat(b.Churn.ChurnRate))
	r.activeSubscriptions.Set(float64(b.Churn.ActiveCount))
	r.customers.Set(toFloat(resp.Summary.Customers.Current))

	r.financial.WithLabelValues("gross_revenue").Set(toFloat(b.Financial.GrossRevenue))
	r.financial.WithLabelValues("fees").Set(toFloat(b.Financial.Fees))
	r.financial.WithLabelValues("net_revenue").Set(toFloat(b.Financial.NetRevenue))
	r.financial.WithLabelValues("payouts").Set(toFloat(b.Financial.TotalPayouts))
	r.financial.WithLabelValues("available_balance").Set(toFloat(b.Financial.AvailableBalance))
	r.financial.WithLabelValues("pending_balance").Set(toFloat(b.Financial.PendingBalance))

	r.lastSuccess.Set(float64(resp.GeneratedAt.Unix()))
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
