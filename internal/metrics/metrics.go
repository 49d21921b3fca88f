// Package metrics exports farm state as Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/talgya/dairy-sim/internal/economy"
	"github.com/talgya/dairy-sim/internal/engine"
)

const namespace = "farmsim"

// Recorder holds the farm gauges and counters on its own registry.
type Recorder struct {
	reg *prometheus.Registry

	cash        prometheus.Gauge
	milk        prometheus.Gauge
	feed        prometheus.Gauge
	herd        *prometheus.GaugeVec
	health      prometheus.Gauge
	grass       prometheus.Gauge
	prices      *prometheus.GaugeVec
	weather     prometheus.Gauge
	gameHours   prometheus.Gauge
	timeScale   prometheus.Gauge
	rejected    *prometheus.CounterVec
	days        prometheus.Counter
	dailyProfit prometheus.Gauge
}

// New registers the farm metrics, plus the Go runtime collectors, on a fresh
// registry.
func New() *Recorder {
	r := &Recorder{
		reg: prometheus.NewRegistry(),
		cash: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "cash_dollars", Help: "Farm cash balance.",
		}),
		milk: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "milk_litres", Help: "Unsold milk in the vat.",
		}),
		feed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "feed_kg", Help: "Feed in storage.",
		}),
		herd: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "herd_animals", Help: "Animals by state.",
		}, []string{"state"}),
		health: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "herd_average_health", Help: "Mean animal health (0-100).",
		}),
		grass: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "pasture_mean_grass", Help: "Mean paddock grass level (0-100).",
		}),
		prices: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "market_price", Help: "Current unit price by commodity.",
		}, []string{"commodity"}),
		weather: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "weather_active_events", Help: "Extreme weather events in progress.",
		}),
		gameHours: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "game_hours", Help: "Game hours since the calendar origin.",
		}),
		timeScale: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "time_scale", Help: "Game speed multiplier.",
		}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "commands_rejected_total", Help: "Rejected player commands.",
		}, []string{"command", "kind"}),
		days: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "days_closed_total", Help: "Game days completed.",
		}),
		dailyProfit: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "last_day_profit_dollars", Help: "Profit of the last completed day.",
		}),
	}
	r.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.cash, r.milk, r.feed, r.herd, r.health, r.grass, r.prices,
		r.weather, r.gameHours, r.timeScale, r.rejected, r.days, r.dailyProfit,
	)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.reg }

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// Observe updates every gauge from a snapshot. Idle snapshots only update
// the control gauges.
func (r *Recorder) Observe(s engine.Snapshot) {
	r.timeScale.Set(s.TimeScale)
	if s.Phase != engine.PhaseRunning {
		return
	}
	r.cash.Set(s.Resources.Cash)
	r.milk.Set(s.Resources.Milk)
	r.feed.Set(s.Resources.Feed)
	r.gameHours.Set(float64(s.Calendar.Time.Hours()))

	r.herd.WithLabelValues("total").Set(float64(s.Herd.Total))
	r.herd.WithLabelValues("lactating").Set(float64(s.Herd.Lactating))
	r.herd.WithLabelValues("pregnant").Set(float64(s.Herd.Pregnant))
	r.herd.WithLabelValues("dry").Set(float64(s.Herd.Dry))
	r.herd.WithLabelValues("underfed").Set(float64(s.Herd.Underfed))
	r.health.Set(s.AverageHealth)

	var grass float64
	for _, p := range s.Pastures {
		grass += p.GrassLevel
	}
	if len(s.Pastures) > 0 {
		grass /= float64(len(s.Pastures))
	}
	r.grass.Set(grass)

	for _, c := range economy.Commodities() {
		if price, ok := s.Prices[c]; ok {
			r.prices.WithLabelValues(c.Name()).Set(price)
		}
	}
	r.weather.Set(float64(len(s.Weather.Events)))
}

// Reject counts a rejected command. It matches engine.Options.OnReject.
func (r *Recorder) Reject(rej *engine.Rejection) {
	r.rejected.WithLabelValues(rej.Command, rej.Kind().String()).Inc()
}

// Day records a completed game day.
func (r *Recorder) Day(d engine.DailyStats) {
	r.days.Inc()
	r.dailyProfit.Set(d.Profit())
}
