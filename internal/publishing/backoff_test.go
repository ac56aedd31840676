package publishing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBackoffDoublesWithoutJitter(t *testing.T) {
	b := Backoff{Base: time.Second, Cap: time.Hour}

	require.Equal(t, 1*time.Second, b.Delay(0))
	require.Equal(t, 2*time.Second, b.Delay(1))
	require.Equal(t, 4*time.Second, b.Delay(2))
	require.Equal(t, 8*time.Second, b.Delay(3))
}

func TestBackoffCaps(t *testing.T) {
	b := Backoff{Base: time.Second, Cap: time.Hour}
	require.Equal(t, time.Hour, b.Delay(30))
}

func TestBackoffJitterStaysInBand(t *testing.T) {
	b := Backoff{Base: time.Second, Cap: time.Hour, Jitter: 0.2}

	for i := 0; i < 100; i++ {
		d := b.Delay(2)
		require.GreaterOrEqual(t, d, time.Duration(float64(4*time.Second)*0.8))
		require.LessOrEqual(t, d, time.Duration(float64(4*time.Second)*1.2))
	}
}

func TestBackoffJitteredDelaysGrow(t *testing.T) {
	b := Backoff{Base: time.Second, Cap: time.Hour, Jitter: 0.2}

	// With a 20% jitter band the worst case of delay n is still above the
	// best case of delay n-1.
	for i := 0; i < 50; i++ {
		prev := b.Delay(1)
		next := b.Delay(2)
		require.Greater(t, next, prev)
	}
}

func TestBackoffNegativeRetryCount(t *testing.T) {
	b := Backoff{Base: time.Second, Cap: time.Hour}
	require.Equal(t, time.Second, b.Delay(-3))
}
