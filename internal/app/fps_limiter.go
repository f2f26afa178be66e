package app

import (
	"time"

	"sdfbox/internal/config"
)

// idleFPS caps the frame rate while the viewer is paused or unfocused.
const idleFPS = 30

// FPSLimiter provides high-precision frame rate limiting
type FPSLimiter struct {
	next time.Time
}

func NewFPSLimiter() *FPSLimiter {
	return &FPSLimiter{}
}

// effectiveLimit is the cap Wait applies; 0 means uncapped.
func effectiveLimit(limit int, idle bool) int {
	if idle && (limit <= 0 || limit > idleFPS) {
		return idleFPS
	}
	return max(limit, 0)
}

// Wait blocks until the next frame is due under config.GetFPSLimit.
// Uses a hybrid sleep/spin approach for better precision on high caps.
func (f *FPSLimiter) Wait(idle bool) {
	limit := effectiveLimit(config.GetFPSLimit(), idle)
	if limit == 0 {
		f.next = time.Time{}
		return
	}

	target := time.Second / time.Duration(limit)

	if f.next.IsZero() {
		f.next = time.Now().Add(target)
	} else {
		f.next = f.next.Add(target)
	}

	for {
		remaining := time.Until(f.next)
		if remaining <= 0 {
			break
		}
		if remaining > 200*time.Microsecond {
			time.Sleep(remaining - 200*time.Microsecond)
		}
		// spin for the last few microseconds
		if time.Until(f.next) <= 0 {
			break
		}
	}

	// resync after a hitch instead of rushing to catch up
	if late := -time.Until(f.next); late > target {
		f.next = time.Now().Add(target)
	}
}

// nextFPSLimit cycles the cap through the presets, 0 meaning uncapped.
func nextFPSLimit(current int) int {
	presets := []int{30, 60, 120, 0}
	for i, p := range presets {
		if p == current {
			return presets[(i+1)%len(presets)]
		}
	}
	return presets[0]
}
