package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserve(t *testing.T) {
	m := New()
	boom := errors.New("boom")

	m.ObserveSave(nil)
	m.ObserveSave(nil)
	m.ObserveSave(boom)
	m.ObserveReload(boom)
	m.ObserveImageCopy(nil)
	m.ObserveLogin(true)
	m.ObserveLogin(false)
	m.ObserveLogin(false)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.saves.WithLabelValues(ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.saves.WithLabelValues(ResultError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reloads.WithLabelValues(ResultError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.imageCopies.WithLabelValues(ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.loginAttempts.WithLabelValues("true")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.loginAttempts.WithLabelValues("false")))
}

func TestSetCounts(t *testing.T) {
	m := New()
	m.SetCounts(3, 4)
	assert.Equal(t, 3.0, testutil.ToFloat64(m.users))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.moments))

	m.SetCounts(0, 0)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.users))
}

func TestGather(t *testing.T) {
	m := New()
	m.SetCounts(2, 5)
	m.ObserveSave(nil)

	samples, err := m.Gather()
	require.NoError(t, err)

	got := make([]string, 0, len(samples))
	for _, s := range samples {
		got = append(got, s.String())
	}
	assert.Equal(t, []string{
		"pathsocial_moments 5",
		`pathsocial_saves_total{result="ok"} 1`,
		"pathsocial_users 2",
	}, got)
}

func TestNew_IndependentRegistries(t *testing.T) {
	a, b := New(), New()
	a.ObserveSave(nil)

	assert.Equal(t, 1, testutil.CollectAndCount(a.saves))
	assert.Equal(t, 0, testutil.CollectAndCount(b.saves))
}
