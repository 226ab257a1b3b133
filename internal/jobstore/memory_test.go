package jobstore_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/venlo-ai/cadence/internal/jobstore"
)

func TestMemoryStore_Lifecycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := jobstore.NewMemoryStore()

	id, err := store.Create(ctx)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if id == "" {
		t.Fatal("Create returned empty id")
	}

	job, err := store.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if job.Status != jobstore.StatusPending {
		t.Errorf("status = %q, want pending", job.Status)
	}
	if job.Terminal() {
		t.Error("pending job must not be terminal")
	}

	if err := store.SetStatus(ctx, id, jobstore.StatusProcessing); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}

	results := json.RawMessage(`{"transcript":"hello"}`)
	if err := store.Complete(ctx, id, results); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	job, err = store.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get after complete: %v", err)
	}
	if job.Status != jobstore.StatusDone || !job.Terminal() {
		t.Errorf("status = %q, want done", job.Status)
	}
	if string(job.Results) != `{"transcript":"hello"}` {
		t.Errorf("results = %s", job.Results)
	}
}

func TestMemoryStore_Fail(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := jobstore.NewMemoryStore()

	id, _ := store.Create(ctx)
	if err := store.Fail(ctx, id, "processing blew up"); err != nil {
		t.Fatalf("Fail: %v", err)
	}

	job, _ := store.Get(ctx, id)
	if job.Status != jobstore.StatusError {
		t.Errorf("status = %q, want error", job.Status)
	}
	if job.ErrorMessage != "processing blew up" {
		t.Errorf("error message = %q", job.ErrorMessage)
	}
}

func TestMemoryStore_UnknownID(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := jobstore.NewMemoryStore()

	if _, err := store.Get(ctx, "nope"); !errors.Is(err, jobstore.ErrNotFound) {
		t.Errorf("Get unknown = %v, want ErrNotFound", err)
	}
	if err := store.SetStatus(ctx, "nope", jobstore.StatusDone); !errors.Is(err, jobstore.ErrNotFound) {
		t.Errorf("SetStatus unknown = %v, want ErrNotFound", err)
	}
	if err := store.Fail(ctx, "nope", "x"); !errors.Is(err, jobstore.ErrNotFound) {
		t.Errorf("Fail unknown = %v, want ErrNotFound", err)
	}
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := jobstore.NewMemoryStore()

	id, _ := store.Create(ctx)
	job, _ := store.Get(ctx, id)
	job.Status = "tampered"

	fresh, _ := store.Get(ctx, id)
	if fresh.Status != jobstore.StatusPending {
		t.Errorf("store state mutated through returned job: %q", fresh.Status)
	}
}
