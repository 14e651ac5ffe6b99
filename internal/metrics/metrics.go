// Package metrics exposes prometheus instruments for the store.
//
// Every Metrics value owns its own registry so tests and multiple stores in
// one process never collide on the default registerer.
package metrics

import (
	"fmt"
	"slices"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "pathsocial"

// Outcome label values.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

type Metrics struct {
	registry *prometheus.Registry

	saves         *prometheus.CounterVec
	reloads       *prometheus.CounterVec
	imageCopies   *prometheus.CounterVec
	loginAttempts *prometheus.CounterVec
	users         prometheus.Gauge
	moments       prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		saves: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "saves_total",
			Help:      "Data file writes by result",
		}, []string{"result"}),
		reloads: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reloads_total",
			Help:      "Reloads triggered by external changes, by result",
		}, []string{"result"}),
		imageCopies: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "image_copies_total",
			Help:      "Image copies into managed storage, by result",
		}, []string{"result"}),
		loginAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_attempts_total",
			Help:      "Login attempts by outcome",
		}, []string{"success"}),
		users: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "users",
			Help:      "Registered users held in memory",
		}),
		moments: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "moments",
			Help:      "Moments held in memory",
		}),
	}
}

// Registry is the registry all instruments are registered with.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObserveSave(err error) {
	m.saves.WithLabelValues(result(err)).Inc()
}

func (m *Metrics) ObserveReload(err error) {
	m.reloads.WithLabelValues(result(err)).Inc()
}

func (m *Metrics) ObserveImageCopy(err error) {
	m.imageCopies.WithLabelValues(result(err)).Inc()
}

func (m *Metrics) ObserveLogin(ok bool) {
	label := "false"
	if ok {
		label = "true"
	}
	m.loginAttempts.WithLabelValues(label).Inc()
}

// SetCounts updates the entity gauges.
func (m *Metrics) SetCounts(users, moments int) {
	m.users.Set(float64(users))
	m.moments.Set(float64(moments))
}

// Sample is one gathered series.
type Sample struct {
	// Name is the fully qualified metric name.
	Name string
	// Labels renders label pairs as k="v" joined by commas, empty when none.
	Labels string
	Value  float64
}

func (s Sample) String() string {
	if s.Labels == "" {
		return fmt.Sprintf("%s %g", s.Name, s.Value)
	}
	return fmt.Sprintf("%s{%s} %g", s.Name, s.Labels, s.Value)
}

// Gather collects counter and gauge series sorted by name and labels.
func (m *Metrics) Gather() ([]Sample, error) {
	families, err := m.registry.Gather()
	if err != nil {
		return nil, fmt.Errorf("gather metrics: %w", err)
	}

	var out []Sample
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			var v float64
			switch {
			case metric.GetCounter() != nil:
				v = metric.GetCounter().GetValue()
			case metric.GetGauge() != nil:
				v = metric.GetGauge().GetValue()
			default:
				continue
			}

			pairs := make([]string, 0, len(metric.GetLabel()))
			for _, lp := range metric.GetLabel() {
				pairs = append(pairs, fmt.Sprintf("%s=%q", lp.GetName(), lp.GetValue()))
			}
			out = append(out, Sample{Name: mf.GetName(), Labels: strings.Join(pairs, ","), Value: v})
		}
	}

	slices.SortFunc(out, func(a, b Sample) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.Labels, b.Labels)
	})
	return out, nil
}

func result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultOK
}
