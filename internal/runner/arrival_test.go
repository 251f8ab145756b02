package runner

import (
	"context"
	"testing"
	"time"
)

func TestPoissonArrivalNextDelayUsesSampler(t *testing.T) {
	ctrl := &poissonArrival{sample: func() float64 { return 1 }}
	ctrl.SetRate(200)
	delay := ctrl.nextDelay()
	expected := time.Second / 200
	if delay != expected {
		t.Fatalf("expected delay %s, got %s", expected, delay)
	}
}

func TestPoissonArrivalWaitCancelledContext(t *testing.T) {
	ctrl := &poissonArrival{sample: func() float64 { return 1 }}
	ctrl.SetRate(0.000001)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := ctrl.Wait(ctx); err == nil {
		t.Fatalf("expected context error when cancelled")
	}
}

func TestNewArrivalControllerSelectsModel(t *testing.T) {
	opts := Options{RatePerSecond: 50}
	opts.normalize()
	if _, ok := newArrivalController(opts).(*uniformArrival); !ok {
		t.Fatalf("expected uniform arrival by default")
	}

	opts.ArrivalModel = ArrivalModelPoisson
	ctrl, ok := newArrivalController(opts).(*poissonArrival)
	if !ok {
		t.Fatalf("expected poisson arrival")
	}
	if ctrl.rate != 50 {
		t.Fatalf("expected rate 50, got %v", ctrl.rate)
	}
}

func TestUniformArrivalSetRate(t *testing.T) {
	opts := Options{}
	opts.normalize()
	ctrl := &uniformArrival{limiter: opts.LimiterFactory(0)}
	ctrl.SetRate(2.5)
	if ctrl.limiter.Burst() != 3 {
		t.Fatalf("expected burst 3, got %d", ctrl.limiter.Burst())
	}
	ctrl.SetRate(0)
	if err := ctrl.Wait(context.Background()); err != nil {
		t.Fatalf("unlimited wait failed: %v", err)
	}
}
