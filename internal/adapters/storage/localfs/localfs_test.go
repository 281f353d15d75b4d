package localfs

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"seiza/internal/ports"
)

func TestPutGetRoundtrip(t *testing.T) {
	store := New(t.TempDir())
	ctx := context.Background()

	out, err := store.PutObject(ctx, ports.PutObjectInput{
		ObjectKey: "job-1.json",
		Reader:    strings.NewReader(`{"ok":true}`),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.ObjectKey != "job-1.json" || out.Size != 11 {
		t.Errorf("unexpected output: %+v", out)
	}

	rc, contentType, size, err := store.GetObject(ctx, "job-1.json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer rc.Close()

	if contentType != "application/json" {
		t.Errorf("expected application/json, got %q", contentType)
	}
	if size != 11 {
		t.Errorf("expected size 11, got %d", size)
	}
	data, _ := io.ReadAll(rc)
	if string(data) != `{"ok":true}` {
		t.Errorf("unexpected content %q", string(data))
	}
}

func TestGetObjectSeekable(t *testing.T) {
	store := New(t.TempDir())
	ctx := context.Background()

	if _, err := store.PutObject(ctx, ports.PutObjectInput{
		ObjectKey: "job-1.mp4",
		Reader:    strings.NewReader("frames"),
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rc, _, _, err := store.GetObject(ctx, "job-1.mp4")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer rc.Close()

	if _, ok := rc.(io.Seeker); !ok {
		t.Error("expected reader to support seeking")
	}
}

func TestPutObjectRequiresKey(t *testing.T) {
	store := New(t.TempDir())
	if _, err := store.PutObject(context.Background(), ports.PutObjectInput{Reader: strings.NewReader("x")}); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestDeleteObject(t *testing.T) {
	store := New(t.TempDir())
	ctx := context.Background()

	if _, err := store.PutObject(ctx, ports.PutObjectInput{
		ObjectKey: "job-1.mp4",
		Reader:    strings.NewReader("frames"),
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := store.DeleteObject(ctx, "job-1.mp4"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, _, _, err := store.GetObject(ctx, "job-1.mp4"); err == nil {
		t.Error("expected error reading deleted object")
	}

	t.Run("absent counts as deleted", func(t *testing.T) {
		if err := store.DeleteObject(ctx, "never-existed.mp4"); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestListObjects(t *testing.T) {
	store := New(t.TempDir())
	ctx := context.Background()

	for _, key := range []string{"job-1.mp4", "job-2.mp4", "tmp/scratch.bin"} {
		if _, err := store.PutObject(ctx, ports.PutObjectInput{
			ObjectKey: key,
			Reader:    strings.NewReader("data"),
		}); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}

	all, err := store.ListObjects(ctx, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 objects, got %d", len(all))
	}
	for _, obj := range all {
		if obj.Key != obj.Name {
			t.Errorf("expected key and name to match, got %q / %q", obj.Key, obj.Name)
		}
		if obj.Size != 4 {
			t.Errorf("expected size 4, got %d", obj.Size)
		}
		if time.Since(obj.ModTime) > time.Minute {
			t.Errorf("unexpected mod time %v", obj.ModTime)
		}
	}

	t.Run("prefix filter", func(t *testing.T) {
		jobs, err := store.ListObjects(ctx, "job-")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(jobs) != 2 {
			t.Errorf("expected 2 objects, got %d", len(jobs))
		}
	})

	t.Run("missing root lists nothing", func(t *testing.T) {
		empty := New("does/not/exist")
		objs, err := empty.ListObjects(ctx, "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(objs) != 0 {
			t.Errorf("expected no objects, got %d", len(objs))
		}
	})
}
