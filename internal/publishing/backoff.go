package publishing

import (
	"math/rand"
	"time"
)

// Backoff computes retry delays growing as base * 2^retryCount with a
// bounded random jitter, capped at Cap. With a jitter fraction below 1/3
// consecutive delays are strictly increasing until the cap.
type Backoff struct {
	Base   time.Duration
	Cap    time.Duration
	Jitter float64
}

func (b Backoff) Delay(retryCount int) time.Duration {
	if retryCount < 0 {
		retryCount = 0
	}

	delay := b.Base
	for i := 0; i < retryCount; i++ {
		delay *= 2
		if delay >= b.Cap {
			return b.Cap
		}
	}

	if b.Jitter > 0 {
		spread := float64(delay) * b.Jitter
		delay += time.Duration((rand.Float64()*2 - 1) * spread)
	}

	if delay > b.Cap {
		delay = b.Cap
	}
	if delay < 0 {
		delay = b.Base
	}
	return delay
}
