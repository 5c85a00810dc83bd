package lifecycle

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcher_RebuildsOnWrite(t *testing.T) {
	dir := t.TempDir()
	modelfile := filepath.Join(dir, "Language-Modelfile")
	if err := os.WriteFile(modelfile, []byte("FROM llama3\n"), 0644); err != nil {
		t.Fatalf("write modelfile: %v", err)
	}

	r := newFakeRunner()
	manifest := &Manifest{Models: []ModelDefinition{{Name: "Language", Modelfile: modelfile}}}
	w, err := NewWatcher(NewManager(r, ""), manifest)
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	defer w.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	events := make(chan RebuildEvent, 8)
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, events) }()

	// Unrelated files in the same directory are ignored.
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatalf("write notes: %v", err)
	}
	if err := os.WriteFile(modelfile, []byte("FROM llama3\nSYSTEM hi\n"), 0644); err != nil {
		t.Fatalf("rewrite modelfile: %v", err)
	}

	select {
	case ev := <-events:
		if ev.Model != "Language" || ev.Err != nil {
			t.Errorf("event = %+v", ev)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for rebuild")
	}

	cancel()
	<-done
}
