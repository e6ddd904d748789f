package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestWatcherRebuildsOnFileChange(t *testing.T) {
	dir := t.TempDir()
	site := filepath.Join(dir, "site.yml")
	other := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(site, []byte("a"), 0644); err != nil {
		t.Fatal(err)
	}

	rebuilt := make(chan struct{}, 10)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	w := New([]string{site}, func(ctx context.Context) { rebuilt <- struct{}{} }).WithDebounce(20 * time.Millisecond)
	go func() { done <- w.Run(ctx) }()

	// Give the watcher time to register before changing files.
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(other, []byte("ignored"), 0644); err != nil {
		t.Fatal(err)
	}
	select {
	case <-rebuilt:
		t.Error("Expected unrelated file to be ignored")
	case <-time.After(150 * time.Millisecond):
	}

	for i := 0; i < 3; i++ {
		if err := os.WriteFile(site, []byte{byte('b' + i)}, 0644); err != nil {
			t.Fatal(err)
		}
	}

	select {
	case <-rebuilt:
	case <-time.After(5 * time.Second):
		t.Fatal("Expected a rebuild after the site file changed")
	}

	select {
	case <-rebuilt:
		t.Error("Expected rapid writes to be debounced into one rebuild")
	case <-time.After(150 * time.Millisecond):
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Expected clean shutdown, got %v", err)
	}
}

func TestWatcherDirectoryTarget(t *testing.T) {
	dir := t.TempDir()

	rebuilt := make(chan struct{}, 10)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	w := New([]string{dir}, func(ctx context.Context) { rebuilt <- struct{}{} }).WithDebounce(20 * time.Millisecond)
	go func() { done <- w.Run(ctx) }()
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(filepath.Join(dir, "index-new.js"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-rebuilt:
	case <-time.After(5 * time.Second):
		t.Fatal("Expected a rebuild after a new asset appeared")
	}

	cancel()
	<-done
}
