package slot

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/gradebook/gradebook/internal/config"
)

func TestMemory_EmptyThenPut(t *testing.T) {
	ctx := context.Background()
	m := NewMemory("studentScores")

	if _, err := m.Get(ctx); !errors.Is(err, ErrEmpty) {
		t.Fatalf("Get on new slot: got %v, want ErrEmpty", err)
	}
	if err := m.Put(ctx, []byte(`[]`)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := m.Get(ctx)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != `[]` {
		t.Errorf("Get: got %q, want []", got)
	}
}

func TestMemory_PutReplacesWholeValue(t *testing.T) {
	ctx := context.Background()
	m := NewMemory("k")
	_ = m.Put(ctx, []byte(`[1,2,3]`))
	_ = m.Put(ctx, []byte(`[4]`))

	got, _ := m.Get(ctx)
	if string(got) != `[4]` {
		t.Errorf("Get: got %q, want [4]", got)
	}
}

func TestMemory_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	m := NewMemory("k")
	_ = m.Put(ctx, []byte(`abc`))

	got, _ := m.Get(ctx)
	got[0] = 'x'
	again, _ := m.Get(ctx)
	if string(again) != "abc" {
		t.Errorf("stored value mutated through Get result: %q", again)
	}
}

func TestMemory_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m := NewMemory("k")
	if err := m.Put(ctx, []byte(`[]`)); !errors.Is(err, context.Canceled) {
		t.Errorf("Put with cancelled ctx: got %v, want context.Canceled", err)
	}
}

func TestFile_MissingIsEmpty(t *testing.T) {
	f := NewFile(t.TempDir(), "studentScores")
	if _, err := f.Get(context.Background()); !errors.Is(err, ErrEmpty) {
		t.Errorf("Get: got %v, want ErrEmpty", err)
	}
}

func TestFile_PutCreatesDirAndRoundTrips(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "nested", "data")
	f := NewFile(dir, "studentScores")

	if err := f.Put(ctx, []byte(`[{"id":"a"}]`)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if want := filepath.Join(dir, "studentScores.json"); f.Path() != want {
		t.Errorf("Path: got %q, want %q", f.Path(), want)
	}
	got, err := f.Get(ctx)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != `[{"id":"a"}]` {
		t.Errorf("Get: got %q", got)
	}

	if err := f.Put(ctx, []byte(`[]`)); err != nil {
		t.Fatalf("second Put: %v", err)
	}
	got, _ = f.Get(ctx)
	if string(got) != `[]` {
		t.Errorf("Get after replace: got %q, want []", got)
	}
}

func TestFile_ReadsForeignContent(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "k.json"), []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	got, err := NewFile(dir, "k").Get(context.Background())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "{not json" {
		t.Errorf("Get: got %q", got)
	}
}

func TestOpen_Backends(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		cfg     config.StorageConfig
		want    string
		wantErr bool
	}{
		{"file", config.StorageConfig{Backend: config.BackendFile, Key: "k", Dir: dir}, "*slot.File", false},
		{"default is file", config.StorageConfig{Key: "k", Dir: dir}, "*slot.File", false},
		{"memory", config.StorageConfig{Backend: config.BackendMemory, Key: "k"}, "*slot.Memory", false},
		{"postgres without dsn", config.StorageConfig{Backend: config.BackendPostgres, Key: "k", DSNEnv: "GRADEBOOK_TEST_UNSET_DSN"}, "", true},
		{"unknown", config.StorageConfig{Backend: "redis", Key: "k"}, "", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s, err := Open(tc.cfg)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			if s.Key() != "k" {
				t.Errorf("Key: got %q, want k", s.Key())
			}
			switch s.(type) {
			case *File:
				if tc.want != "*slot.File" {
					t.Errorf("backend: got *slot.File, want %s", tc.want)
				}
			case *Memory:
				if tc.want != "*slot.Memory" {
					t.Errorf("backend: got *slot.Memory, want %s", tc.want)
				}
			default:
				t.Errorf("backend: unexpected %T", s)
			}
		})
	}
}
