package versioning

import "testing"

func TestCheckStaleness(t *testing.T) {
	for _, v := range []int{1, 2, 17, MaxProfileVersion} {
		if verdict := CheckStaleness(v, v); verdict.IsStale {
			t.Fatalf("CheckStaleness(%d, %d) should be fresh", v, v)
		}
	}

	verdict := CheckStaleness(3, 4)
	if !verdict.IsStale {
		t.Fatal("expected stale verdict")
	}
	if verdict.VersionGap != 1 {
		t.Fatalf("gap = %d, want 1", verdict.VersionGap)
	}
	if verdict.DataVersion != 3 || verdict.CurrentVersion != 4 {
		t.Fatalf("verdict carries wrong versions: %+v", verdict)
	}

	wide := CheckStaleness(1, 9)
	if wide.VersionGap != 8 {
		t.Fatalf("gap = %d, want 8", wide.VersionGap)
	}

	// Ahead-of-current is fresh: gap never goes negative.
	ahead := CheckStaleness(5, 4)
	if ahead.IsStale || ahead.VersionGap != 0 {
		t.Fatalf("ahead verdict = %+v, want fresh with zero gap", ahead)
	}
}

func TestIsStaleIsFresh(t *testing.T) {
	if !IsStale(1, 2) || IsFresh(1, 2) {
		t.Fatal("v1 against v2 should be stale")
	}
	if IsStale(2, 2) || !IsFresh(2, 2) {
		t.Fatal("v2 against v2 should be fresh")
	}
}
