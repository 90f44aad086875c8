package notifications

import (
	"testing"
	"time"
)

func has(c *Center, id string) bool {
	for _, n := range c.List() {
		if n.ID == id {
			return true
		}
	}
	return false
}

func TestAddAndList(t *testing.T) {
	c := NewCenter()
	first := c.Add("one", "first message", Info, 0, nil)
	second := c.Add("two", "second message", Error, 0, nil)

	notices := c.List()
	if len(notices) != 2 {
		t.Fatalf("len = %d, want 2", len(notices))
	}
	if notices[0].ID != first || notices[1].ID != second {
		t.Fatalf("arrival order broken")
	}
	if notices[1].Type != Error {
		t.Fatalf("type = %q", notices[1].Type)
	}
}

func TestAutoExpiry(t *testing.T) {
	c := NewCenter()
	id := c.Add("transient", "", Success, 50*time.Millisecond, nil)

	if !has(c, id) {
		t.Fatalf("notice missing right after add")
	}
	deadline := time.Now().Add(2 * time.Second)
	for has(c, id) {
		if time.Now().After(deadline) {
			t.Fatalf("notice never expired")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestZeroDurationIsSticky(t *testing.T) {
	c := NewCenter()
	id := c.Add("sticky", "", Warning, 0, nil)

	time.Sleep(100 * time.Millisecond)
	if !has(c, id) {
		t.Fatalf("sticky notice disappeared")
	}
	c.Remove(id)
	if has(c, id) {
		t.Fatalf("manual dismissal failed")
	}
}

func TestRemoveUnknownIDIsNoop(t *testing.T) {
	c := NewCenter()
	c.Add("keep", "", Info, 0, nil)
	c.Remove("no-such-id")
	if len(c.List()) != 1 {
		t.Fatalf("unrelated notice removed")
	}
}

func TestClearAllCancelsTimers(t *testing.T) {
	c := NewCenter()
	c.Add("a", "", Success, time.Minute, nil)
	c.Add("b", "", Error, time.Minute, nil)

	c.ClearAll()
	if len(c.List()) != 0 {
		t.Fatalf("queue not empty after clear")
	}
	// a fresh notice must not be affected by stale timers
	id := c.Add("c", "", Info, 0, nil)
	time.Sleep(50 * time.Millisecond)
	if !has(c, id) {
		t.Fatalf("notice lost after clear")
	}
}

func TestActionCallbackSurvivesQueue(t *testing.T) {
	c := NewCenter()
	fired := false
	c.Add("undo", "action completed", Success, 0, &Action{
		Label:    "Undo",
		Callback: func() { fired = true },
	})

	notices := c.List()
	if notices[0].Action == nil || notices[0].Action.Label != "Undo" {
		t.Fatalf("action lost: %+v", notices[0])
	}
	notices[0].Action.Callback()
	if !fired {
		t.Fatalf("callback not invoked")
	}
}

func TestDefaultDurations(t *testing.T) {
	c := NewCenter()
	c.Success("s", "")
	c.Error("e", "")
	c.Warning("w", "")
	c.Info("i", "")

	want := map[Type]time.Duration{
		Success: SuccessDuration,
		Error:   ErrorDuration,
		Warning: WarningDuration,
		Info:    InfoDuration,
	}
	for _, n := range c.List() {
		if n.Duration != want[n.Type] {
			t.Fatalf("%s duration = %s, want %s", n.Type, n.Duration, want[n.Type])
		}
	}
}
