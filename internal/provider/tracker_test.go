package provider

import (
	"sync"
	"testing"
)

func TestTokenTracker_AddAndTotal(t *testing.T) {
	tracker := NewTokenTracker()
	tracker.Add("llama3", 100, 20)
	tracker.Add("llama3", 50, 10)
	tracker.Add("mistral", 5, 1)

	in, out := tracker.Total()
	if in != 155 || out != 31 {
		t.Errorf("Total() = (%d, %d), want (155, 31)", in, out)
	}
	if tracker.Calls() != 3 {
		t.Errorf("Calls() = %d, want 3", tracker.Calls())
	}

	u := tracker.Usage("llama3")
	if u.InputTokens != 150 || u.OutputTokens != 30 || u.Calls != 2 {
		t.Errorf("Usage(llama3) = %+v, want {150 30 2}", u)
	}
	if got := tracker.Usage("unknown"); got != (Usage{}) {
		t.Errorf("Usage(unknown) = %+v, want zero", got)
	}

	names := tracker.Models()
	if len(names) != 2 || names[0] != "llama3" || names[1] != "mistral" {
		t.Errorf("Models() = %v, want [llama3 mistral]", names)
	}
}

func TestTokenTracker_Concurrent(t *testing.T) {
	tracker := NewTokenTracker()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tracker.Add("llama3", 2, 1)
		}()
	}
	wg.Wait()

	in, out := tracker.Total()
	if in != 40 || out != 20 || tracker.Calls() != 20 {
		t.Errorf("after concurrent adds got in=%d out=%d calls=%d", in, out, tracker.Calls())
	}
}
