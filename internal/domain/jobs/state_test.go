package jobs

import (
	"math"
	"testing"
)

func TestValidRecomputeTransition(t *testing.T) {
	allowed := [][2]string{
		{RecomputePending, RecomputeProcessing},
		{RecomputeProcessing, RecomputeCompleted},
		{RecomputeProcessing, RecomputeFailed},
		{RecomputeFailed, RecomputePending},
	}
	for _, pair := range allowed {
		if !ValidRecomputeTransition(pair[0], pair[1]) {
			t.Fatalf("%s -> %s should be allowed", pair[0], pair[1])
		}
	}
	denied := [][2]string{
		{RecomputePending, RecomputeCompleted},
		{RecomputePending, RecomputeFailed},
		{RecomputeCompleted, RecomputePending},
		{RecomputeCompleted, RecomputeProcessing},
		{RecomputeFailed, RecomputeProcessing},
		{RecomputeProcessing, RecomputePending},
	}
	for _, pair := range denied {
		if ValidRecomputeTransition(pair[0], pair[1]) {
			t.Fatalf("%s -> %s should be denied", pair[0], pair[1])
		}
	}
}

func TestValidRunTransition(t *testing.T) {
	if !ValidRunTransition(RunQueued, RunRunning) {
		t.Fatal("queued -> running should be allowed")
	}
	if !ValidRunTransition(RunRunning, RunSucceeded) || !ValidRunTransition(RunRunning, RunFailed) {
		t.Fatal("running -> terminal should be allowed")
	}
	for _, terminal := range []string{RunSucceeded, RunFailed} {
		for _, to := range []string{RunQueued, RunRunning, RunSucceeded, RunFailed} {
			if ValidRunTransition(terminal, to) {
				t.Fatalf("terminal %s must be sticky, allowed move to %s", terminal, to)
			}
		}
	}
}

func TestOverallFromSubScores(t *testing.T) {
	if got := OverallFromSubScores(100, 100, 100, 100, 100); math.Abs(got-100) > 1e-9 {
		t.Fatalf("all-100 overall = %v, want 100", got)
	}
	if got := OverallFromSubScores(0, 0, 0, 0, 0); got != 0 {
		t.Fatalf("all-0 overall = %v, want 0", got)
	}
	got := OverallFromSubScores(80, 60, 40, 20, 10)
	want := 80*0.30 + 60*0.25 + 40*0.15 + 20*0.15 + 10*0.15
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("overall = %v, want %v", got, want)
	}
}
