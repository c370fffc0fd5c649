package sim

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestResultFinal(t *testing.T) {
	var r Result
	if _, ok := r.Final(); ok {
		t.Error("expected no final sample on empty result")
	}
	r.Samples = []Sample{{Hfov: 2}, {Hfov: 1}}
	if s, ok := r.Final(); !ok || s.Hfov != 1 {
		t.Errorf("expected final hfov 1, got %+v", s)
	}
}

func TestSimErrorMessage(t *testing.T) {
	cause := errors.New("camera missing")
	err := SimError{Time: 0.25, Step: 3, Err: cause}
	if !strings.Contains(err.Error(), "step 3") || !strings.Contains(err.Error(), "camera missing") {
		t.Errorf("unexpected message %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("expected SimError to unwrap its cause")
	}
}

func TestEnsembleRun(t *testing.T) {
	jobs := make([]Job, 5)
	for i := range jobs {
		v := float64(i)
		jobs[i] = func(ctx context.Context) (*Result, error) {
			return &Result{Samples: []Sample{{Hfov: v}}}, nil
		}
	}

	results, err := NewEnsemble(2, jobs...).Run(context.Background())
	if err != nil {
		t.Fatalf("ensemble failed: %v", err)
	}
	for i, r := range results {
		if r.Samples[0].Hfov != float64(i) {
			t.Errorf("expected result %d in order, got %v", i, r.Samples[0].Hfov)
		}
	}
}

func TestEnsembleError(t *testing.T) {
	boom := errors.New("boom")
	ok := func(ctx context.Context) (*Result, error) { return &Result{}, nil }
	bad := func(ctx context.Context) (*Result, error) { return nil, boom }

	if _, err := NewEnsemble(0, ok, bad, ok).Run(context.Background()); !errors.Is(err, boom) {
		t.Errorf("expected boom, got %v", err)
	}
	if results, err := NewEnsemble(0).Run(context.Background()); err != nil || len(results) != 0 {
		t.Errorf("expected empty ensemble to succeed, got %v %v", results, err)
	}
}
