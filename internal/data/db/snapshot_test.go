package db

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/zeronorth-oss/znctl/internal/data/model"
)

func setupTestManager(t *testing.T) *GormSnapshotManager {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}
	manager, err := NewGormSnapshotManager(db)
	if err != nil {
		t.Fatalf("failed to create snapshot manager: %v", err)
	}
	return manager
}

func TestInsertAndGetSnapshot(t *testing.T) {
	manager := setupTestManager(t)
	ctx := context.Background()

	dto := &SnapshotDTO{
		Account: "acct-1",
		APIRoot: "https://api.zeronorth.io/v1",
		Resources: []ResourceDTO{
			{Kind: "targets", RemoteID: "t1", Name: "web-app", Tags: []string{"prod"}, Raw: `{"id":"t1"}`},
			{Kind: "policies", RemoteID: "p1", Name: "nightly-scan", Raw: `{"id":"p1"}`},
		},
		Jobs: []JobDTO{
			{RemoteID: "job-1", PolicyID: "p1", Status: "FINISHED", Created: time.Date(2023, 1, 2, 3, 4, 5, 0, time.UTC)},
		},
	}
	id, err := manager.InsertSnapshot(ctx, dto)
	if err != nil {
		t.Fatalf("failed to insert snapshot: %v", err)
	}
	if id == 0 {
		t.Fatal("expected a non-zero snapshot ID")
	}

	snapshot, err := manager.GetSnapshot(ctx, id)
	if err != nil {
		t.Fatalf("failed to get snapshot: %v", err)
	}
	if snapshot.Account != "acct-1" {
		t.Errorf("expected account acct-1, got %s", snapshot.Account)
	}
	if len(snapshot.Resources) != 2 {
		t.Fatalf("expected 2 resources, got %d", len(snapshot.Resources))
	}
	if len(snapshot.Jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(snapshot.Jobs))
	}
	if diff := cmp.Diff(model.JSONStringArray{"prod"}, snapshot.Resources[0].Tags); diff != "" {
		t.Errorf("tags mismatch (-want +got):\n%s", diff)
	}
	if snapshot.Jobs[0].Status != "FINISHED" {
		t.Errorf("expected job status FINISHED, got %s", snapshot.Jobs[0].Status)
	}
}

func TestInsertSnapshotNilArguments(t *testing.T) {
	manager := setupTestManager(t)

	if _, err := manager.InsertSnapshot(context.Background(), nil); err == nil {
		t.Fatal("expected an error for a nil dto")
	}
	if _, err := manager.InsertSnapshot(nil, &SnapshotDTO{}); err == nil { //nolint:staticcheck
		t.Fatal("expected an error for a nil context")
	}
}

func TestGetSnapshotMissingID(t *testing.T) {
	manager := setupTestManager(t)

	if _, err := manager.GetSnapshot(context.Background(), 9999); err == nil {
		t.Fatal("expected an error for a missing snapshot")
	}
}

func TestMapResources(t *testing.T) {
	items := []json.RawMessage{
		json.RawMessage(`{"id":"t1","data":{"name":"web-app","tags":["prod"]}}`),
		json.RawMessage(`{"id":"u1","name":"ops@example.com"}`),
		json.RawMessage(`{"name":"no-id"}`),
		json.RawMessage(`not json`),
	}
	dtos := MapResources("targets", items)
	if len(dtos) != 2 {
		t.Fatalf("expected 2 resources, got %d", len(dtos))
	}
	if dtos[0].Name != "web-app" || dtos[0].RemoteID != "t1" {
		t.Errorf("unexpected first resource: %+v", dtos[0])
	}
	// Top-level name is the fallback when data.name is absent.
	if dtos[1].Name != "ops@example.com" {
		t.Errorf("unexpected second resource name: %s", dtos[1].Name)
	}
}

func TestMapJobs(t *testing.T) {
	items := []json.RawMessage{
		json.RawMessage(`{"id":"job-1","data":{"status":"RUNNING","policyId":"p1"},"meta":{"created":"2023-01-02T03:04:05Z"}}`),
		json.RawMessage(`{"data":{"status":"RUNNING"}}`),
	}
	dtos := MapJobs(items)
	if len(dtos) != 1 {
		t.Fatalf("expected 1 job, got %d", len(dtos))
	}
	want := JobDTO{
		RemoteID: "job-1",
		PolicyID: "p1",
		Status:   "RUNNING",
		Created:  time.Date(2023, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	if diff := cmp.Diff(want, dtos[0]); diff != "" {
		t.Errorf("job mismatch (-want +got):\n%s", diff)
	}
}
