package engine

import (
	"context"
	"time"

	"github.com/kimama4423/kubestrap/internal/model"
)

// ProbeFunc reports whether a component is healthy, with a diagnostic
// detail string.
type ProbeFunc func(ctx context.Context) (healthy bool, detail string)

// Verify polls the probe at the given interval until it reports healthy or
// the timeout elapses. The timeout is always bounded and explicit; there
// is no unbounded wait anywhere in the engine.
//
// Timeout and NotReady are distinct outcomes: NotReady means the probe
// actively reported failure before the deadline, Timeout means it never
// returned an answer within budget. A probe cut short by the deadline does
// not count as an answer.
func Verify(ctx context.Context, component string, probe ProbeFunc, timeout, interval time.Duration) model.VerificationResult {
	start := time.Now()

	if timeout <= 0 {
		return model.VerificationResult{
			Component: component,
			Outcome:   model.OutcomeTimeout,
			Elapsed:   time.Since(start),
			Detail:    "verification budget exhausted before the first probe",
		}
	}

	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	sawUnhealthy := false
	lastDetail := ""

	for {
		healthy, detail := probe(probeCtx)
		if healthy {
			return model.VerificationResult{
				Component: component,
				Outcome:   model.OutcomeReady,
				Elapsed:   time.Since(start),
				Detail:    detail,
			}
		}
		if probeCtx.Err() == nil {
			sawUnhealthy = true
			lastDetail = detail
		}

		select {
		case <-probeCtx.Done():
			return timeoutOutcome(component, start, sawUnhealthy, lastDetail)
		case <-time.After(interval):
		}
	}
}

func timeoutOutcome(component string, start time.Time, sawUnhealthy bool, lastDetail string) model.VerificationResult {
	if sawUnhealthy {
		return model.VerificationResult{
			Component: component,
			Outcome:   model.OutcomeNotReady,
			Elapsed:   time.Since(start),
			Detail:    lastDetail,
		}
	}
	return model.VerificationResult{
		Component: component,
		Outcome:   model.OutcomeTimeout,
		Elapsed:   time.Since(start),
		Detail:    "probe never answered within budget",
	}
}
