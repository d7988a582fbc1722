package state

import "testing"

func TestCheckpointRoundTrip(t *testing.T) {
	dir := t.TempDir()

	cp, err := LoadCheckpoint(dir)
	if err != nil {
		t.Fatalf("load fresh: %v", err)
	}
	if cp.IsDone("acme/api") {
		t.Error("fresh checkpoint should have no completed repos")
	}

	if err := cp.MarkDone("acme/api"); err != nil {
		t.Fatalf("mark done: %v", err)
	}

	// A new load sees the persisted progress.
	reloaded, err := LoadCheckpoint(dir)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !reloaded.IsDone("acme/api") {
		t.Error("completed repo lost on reload")
	}
	if reloaded.IsDone("acme/web") {
		t.Error("unexpected repo marked done")
	}
}

func TestCheckpointReset(t *testing.T) {
	dir := t.TempDir()

	cp, err := LoadCheckpoint(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := cp.MarkDone("acme/api"); err != nil {
		t.Fatalf("mark done: %v", err)
	}

	if err := cp.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if cp.IsDone("acme/api") {
		t.Error("reset should clear progress")
	}

	reloaded, err := LoadCheckpoint(dir)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.IsDone("acme/api") {
		t.Error("reset should remove the checkpoint file")
	}
}

func TestCheckpointResetWithoutFile(t *testing.T) {
	cp, err := LoadCheckpoint(t.TempDir())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := cp.Reset(); err != nil {
		t.Errorf("reset on missing file: %v", err)
	}
}
