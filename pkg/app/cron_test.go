package app

import "testing"

func TestParseScheduleAndNextRun(t *testing.T) {
	schedule, err := ParseSchedule("*/5 * * * *")
	if err != nil {
		t.Fatalf("ParseSchedule: %v", err)
	}

	// 2024-01-01T00:00:00Z, a run boundary already.
	const start = 1704067200
	next := NextRun(schedule, start)
	if next <= start {
		t.Fatalf("NextRun(%d) = %d, want a timestamp strictly after start", start, next)
	}
	if (next-start)%300 != 0 {
		t.Fatalf("NextRun(%d) = %d, not on a 5-minute boundary from start", start, next)
	}
}

func TestParseScheduleRejectsGarbage(t *testing.T) {
	if _, err := ParseSchedule("not a cron expression"); err == nil {
		t.Fatalf("expected ParseSchedule to reject a malformed expression")
	}
}

func TestDueCronJobsOrderingAndThreshold(t *testing.T) {
	store := newMemStore()

	if err := NextCronjobs.Insert(store, NewCronKey(200, []byte("late"))); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := NextCronjobs.Insert(store, NewCronKey(100, []byte("early-b"))); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := NextCronjobs.Insert(store, NewCronKey(100, []byte("early-a"))); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	due, err := DueCronJobs(store, 100)
	if err != nil {
		t.Fatalf("DueCronJobs: %v", err)
	}
	if len(due) != 2 {
		t.Fatalf("DueCronJobs(100) returned %d jobs, want 2 (late job at 200 excluded)", len(due))
	}
	for _, k := range due {
		if uint64(k.First) != 100 {
			t.Fatalf("DueCronJobs(100) returned a job scheduled at %d", uint64(k.First))
		}
	}
	// (timestamp, addr) ascending: "early-a" sorts before "early-b".
	if string(due[0].Second) != "early-a" || string(due[1].Second) != "early-b" {
		t.Fatalf("DueCronJobs order = %q, %q; want early-a, early-b", due[0].Second, due[1].Second)
	}
}

func TestDueCronJobsEmptyWhenNothingDue(t *testing.T) {
	store := newMemStore()
	if err := NextCronjobs.Insert(store, NewCronKey(500, []byte("future"))); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	due, err := DueCronJobs(store, 10)
	if err != nil {
		t.Fatalf("DueCronJobs: %v", err)
	}
	if len(due) != 0 {
		t.Fatalf("DueCronJobs(10) = %d jobs, want 0", len(due))
	}
}
