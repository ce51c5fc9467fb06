package view

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouterStartsOnDashboard(t *testing.T) {
	assert.Equal(t, Dashboard, NewRouter().Current())
}

func TestRouterAnyToAny(t *testing.T) {
	r := NewRouter()
	for _, from := range All {
		for _, to := range All {
			require.NoError(t, r.Navigate(from))
			require.NoError(t, r.Navigate(to))
			assert.Equal(t, to, r.Current())
		}
	}
	r.Reset()
	assert.Equal(t, Dashboard, r.Current())
}

func TestRouterRejectsOutOfRange(t *testing.T) {
	r := NewRouter()
	require.NoError(t, r.Navigate(Doctors))
	assert.ErrorIs(t, r.Navigate(ID(42)), ErrUnknownView)
	assert.Equal(t, Doctors, r.Current())
}

func TestParseRoundTrip(t *testing.T) {
	for _, v := range All {
		got, err := Parse(v.String())
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
	_, err := Parse("settings")
	assert.ErrorIs(t, err, ErrUnknownView)
	assert.Equal(t, "login", ModeLogin.String())
}
