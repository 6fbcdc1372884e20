// Package metrics exposes ledger and HTTP metrics in Prometheus format.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/tally/internal/ledger"
)

const namespace = "tally"

// Metrics implements ledger.Recorder and instruments HTTP handlers.
type Metrics struct {
	registry *prometheus.Registry

	expenses       prometheus.Counter
	expenseSplits  prometheus.Counter
	expenseAmount  prometheus.Counter
	obligations    prometheus.Counter
	offsets        prometheus.Counter
	offsetAmount   prometheus.Counter
	remainder      prometheus.Counter
	transitions    *prometheus.CounterVec
	requests       *prometheus.CounterVec
	requestSeconds *prometheus.HistogramVec
}

var _ ledger.Recorder = (*Metrics)(nil)

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		expenses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "ledger", Name: "expenses_total",
			Help: "Expenses recorded.",
		}),
		expenseSplits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "ledger", Name: "expense_entries_total",
			Help: "Expense entries recorded across all expenses.",
		}),
		expenseAmount: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "ledger", Name: "expense_amount_total",
			Help: "Sum of recorded expense amounts.",
		}),
		obligations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "ledger", Name: "obligations_total",
			Help: "Obligations run through netting.",
		}),
		offsets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "ledger", Name: "offsets_total",
			Help: "Offset steps applied against reverse debt.",
		}),
		offsetAmount: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "ledger", Name: "offset_amount_total",
			Help: "Amount cancelled against reverse debt.",
		}),
		remainder: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "ledger", Name: "forward_amount_total",
			Help: "Amount recorded as new open obligations after netting.",
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "ledger", Name: "split_transitions_total",
			Help: "Settlement transitions applied to splits.",
		}, []string{"transition", "changed"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "http", Name: "requests_total",
			Help: "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		requestSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "http", Name: "request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.expenses, m.expenseSplits, m.expenseAmount,
		m.obligations, m.offsets, m.offsetAmount, m.remainder,
		m.transitions, m.requests, m.requestSeconds,
	)

	return m
}

func (m *Metrics) ExpenseRecorded(entries int, total decimal.Decimal) {
	m.expenses.Inc()
	m.expenseSplits.Add(float64(entries))
	m.expenseAmount.Add(total.InexactFloat64())
}

func (m *Metrics) ObligationRecorded(offsets int, offsetTotal, remaining decimal.Decimal) {
	m.obligations.Inc()
	m.offsets.Add(float64(offsets))
	m.offsetAmount.Add(offsetTotal.InexactFloat64())
	m.remainder.Add(remaining.InexactFloat64())
}

func (m *Metrics) SplitTransitioned(t ledger.Transition, changed bool) {
	m.transitions.WithLabelValues(string(t), strconv.FormatBool(changed)).Inc()
}

// Handler serves the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware records request counts and latency labelled by chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.requests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.requestSeconds.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
