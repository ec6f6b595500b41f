package deadline

import (
	"testing"
	"time"
)

// 2024-05-15 is a Wednesday.
var wednesday = time.Date(2024, time.May, 15, 13, 45, 0, 0, time.UTC)

func TestResolve(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"Bob will send the deck next Friday.", "2024-05-17"},
		{"Review next Wednesday", "2024-05-22"},
		{"Demo this Wednesday", "2024-05-15"},
		{"Sync coming monday", "2024-05-20"},
		{"Finish in 3 days", "2024-05-18"},
		{"Migrate in 2 weeks", "2024-05-29"},
		{"Renew in 1 month", "2024-06-15"},
		{"Call the vendor tomorrow", "2024-05-16"},
		{"It was due yesterday", "2024-05-14"},
		{"Report today", "2024-05-15"},
		{"Close the books before March.", "2024-03-31"},
		{"Hire by June and onboard", "2024-06-30"},
		{"Plan the offsite by end of March", "2025-03-31"},
		{"Budget for end of December", "2024-12-31"},
		{"Wrap up by the end of the week", "2024-05-17"},
		{"Invoice at end of month", "2024-05-31"},
		{"Ship by 2024-06-01", "2024-06-01"},
		{"Ship by June 3", "2024-06-03"},
		{"Ship by 3 April", "2025-04-03"},
		{"Ship by June 3rd, 2026", "2026-06-03"},
		{"Ship by Friday", "2024-05-17"},
		{"Ship by May 20", "2024-05-20"},
		{"Deliverable due 2024-07-04 at noon", "2024-07-04"},
		{"Next Monday or tomorrow, whichever", "2024-05-20"},
	}
	for _, c := range cases {
		got, ok := Resolve(c.text, wednesday)
		if !ok {
			t.Errorf("%q: expected a date", c.text)
			continue
		}
		if got.Format(Layout) != c.want {
			t.Errorf("%q: got %s want %s", c.text, got.Format(Layout), c.want)
		}
		if got.Hour() != 0 || got.Minute() != 0 {
			t.Errorf("%q: expected midnight, got %s", c.text, got)
		}
	}
}

func TestResolve_NoDate(t *testing.T) {
	for _, s := range []string{"Discuss the roadmap", "Assigned by Alice", "Fix 2024-02-30 typo"} {
		if d, ok := Resolve(s, wednesday); ok {
			t.Errorf("%q: unexpected date %s", s, d)
		}
	}
}

func TestResolve_MonthClamp(t *testing.T) {
	jan31 := time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC)
	got, ok := Resolve("in 1 month", jan31)
	if !ok || got.Format(Layout) != "2024-02-29" {
		t.Fatalf("expected clamp to 2024-02-29, got %s ok=%v", got.Format(Layout), ok)
	}
	got, _ = Resolve("in 13 months", jan31)
	if got.Format(Layout) != "2025-02-28" {
		t.Fatalf("expected 2025-02-28, got %s", got.Format(Layout))
	}
}

func TestFormat(t *testing.T) {
	if got := Format("whenever", wednesday, "No deadline"); got != "No deadline" {
		t.Fatalf("unexpected fallback %q", got)
	}
	if got := Format("tomorrow", wednesday, "No deadline"); got != "2024-05-16" {
		t.Fatalf("unexpected date %q", got)
	}
}

func TestResolve_ModalMayIsNotAMonth(t *testing.T) {
	for _, s := range []string{"Bob may 2 things later; he will do it.", "We may 10 times retry"} {
		if d, ok := Resolve(s, wednesday); ok {
			t.Errorf("%q: unexpected date %s", s, d)
		}
	}
	got, ok := Resolve("Bob will present on May 2", wednesday)
	if !ok || got.Format(Layout) != "2025-05-02" {
		t.Fatalf("expected 2025-05-02, got %s ok=%v", got.Format(Layout), ok)
	}
}
