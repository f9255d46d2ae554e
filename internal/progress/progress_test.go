package progress

import "testing"

func TestChannelReporterNeverBlocks(t *testing.T) {
	r := NewChannelReporter(2)

	r.Status("first")
	r.Progress(1)
	r.MaxProgress(20)
	r.Lifecycle(Started)

	if got := r.Dropped(); got != 2 {
		t.Errorf("expected 2 dropped events, got %d", got)
	}

	e := <-r.Events()
	if e.Kind != KindStatus || e.Message != "first" {
		t.Errorf("unexpected first event: %+v", e)
	}
	e = <-r.Events()
	if e.Kind != KindProgress || e.Value != 1 {
		t.Errorf("unexpected second event: %+v", e)
	}
}

func TestChannelReporterClose(t *testing.T) {
	r := NewChannelReporter(4)
	r.Lifecycle(Finished)
	r.Close()
	r.Close()
	r.Status("after close")

	var events []Event
	for e := range r.Events() {
		events = append(events, e)
	}
	if len(events) != 1 || events[0].Signal != Finished {
		t.Errorf("unexpected events after close: %+v", events)
	}
}

func TestKindString(t *testing.T) {
	if KindMaxProgress.String() != "max_progress" {
		t.Errorf("unexpected kind name %s", KindMaxProgress)
	}
}
