package config

import "testing"

func TestExecutorOptionsTranslatesFields(t *testing.T) {
	s := Server{Threads: 4, QueueSize: 40, ReadOnly: true}
	opts := s.ExecutorOptions()
	if opts.Workers != 4 || opts.QueueSize != 40 || !opts.ReadOnly {
		t.Fatalf("unexpected options: %+v", opts)
	}
}

func TestResolvedThreadsDefaultsToNumCPU(t *testing.T) {
	s := Server{}
	if s.ResolvedThreads() <= 0 {
		t.Fatalf("expected a positive default thread count, got %d", s.ResolvedThreads())
	}
}

func TestResolvedThreadsHonorsExplicitValue(t *testing.T) {
	s := Server{Threads: 7}
	if got := s.ResolvedThreads(); got != 7 {
		t.Fatalf("expected 7, got %d", got)
	}
}

func TestBuildBackendMemory(t *testing.T) {
	s := Server{BackendURL: "memory://"}
	be, err := s.BuildBackend()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if be == nil {
		t.Fatal("expected a non-nil backend")
	}
}

func TestBuildBackendInvalidURL(t *testing.T) {
	s := Server{BackendURL: "://not-a-url"}
	if _, err := s.BuildBackend(); err == nil {
		t.Fatal("expected an error for a malformed backend url")
	}
}
