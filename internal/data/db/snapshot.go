package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/zeronorth-oss/znctl/internal/data/model"
	"github.com/zeronorth-oss/znctl/internal/log"
)

// SnapshotManager defines the interface for storing inventory snapshots.
type SnapshotManager interface {
	// InsertSnapshot inserts a Snapshot and its resources and jobs.
	InsertSnapshot(ctx context.Context, dto *SnapshotDTO) (uint, error)
	// GetSnapshot retrieves a Snapshot with its resources and jobs.
	GetSnapshot(ctx context.Context, id uint) (*model.Snapshot, error)
}

// SnapshotDTO carries one inventory pull from the API layer to storage.
type SnapshotDTO struct {
	Account   string
	APIRoot   string
	Resources []ResourceDTO
	Jobs      []JobDTO
}

// ResourceDTO is one remote resource to record.
type ResourceDTO struct {
	Kind     string
	RemoteID string
	Name     string
	Tags     []string
	Raw      string
}

// JobDTO is one job to record.
type JobDTO struct {
	RemoteID string
	PolicyID string
	Status   string
	Created  time.Time
}

// rawListItem is the slice of a raw API list entry the mapper reads.
type rawListItem struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Data struct {
		Name     string   `json:"name"`
		Status   string   `json:"status"`
		PolicyID string   `json:"policyId"`
		Tags     []string `json:"tags"`
	} `json:"data"`
	Meta struct {
		Created time.Time `json:"created"`
	} `json:"meta"`
}

// MapResources converts raw list items of one kind into ResourceDTOs.
// Undecodable items are skipped.
func MapResources(kind string, items []json.RawMessage) []ResourceDTO {
	var dtos []ResourceDTO
	for _, raw := range items {
		var entry rawListItem
		if err := json.Unmarshal(raw, &entry); err != nil || entry.ID == "" {
			continue
		}
		name := entry.Data.Name
		if name == "" {
			name = entry.Name
		}
		dtos = append(dtos, ResourceDTO{
			Kind:     kind,
			RemoteID: entry.ID,
			Name:     name,
			Tags:     entry.Data.Tags,
			Raw:      string(raw),
		})
	}
	return dtos
}

// MapJobs converts raw job list items into JobDTOs.
func MapJobs(items []json.RawMessage) []JobDTO {
	var dtos []JobDTO
	for _, raw := range items {
		var entry rawListItem
		if err := json.Unmarshal(raw, &entry); err != nil || entry.ID == "" {
			continue
		}
		dtos = append(dtos, JobDTO{
			RemoteID: entry.ID,
			PolicyID: entry.Data.PolicyID,
			Status:   entry.Data.Status,
			Created:  entry.Meta.Created,
		})
	}
	return dtos
}

// GormSnapshotManager implements SnapshotManager using a GORM DB connection.
type GormSnapshotManager struct {
	db *gorm.DB
}

// NewGormSnapshotManager creates a new GormSnapshotManager and migrates the
// snapshot schema.
func NewGormSnapshotManager(db *gorm.DB) (*GormSnapshotManager, error) {
	if db == nil {
		return nil, fmt.Errorf("db cannot be nil")
	}
	if err := db.AutoMigrate(&model.Snapshot{}, &model.Resource{}, &model.JobRecord{}); err != nil {
		return nil, fmt.Errorf("failed to auto-migrate snapshot models: %w", err)
	}
	return &GormSnapshotManager{db: db}, nil
}

// InsertSnapshot inserts a Snapshot with its resources and jobs in one
// transaction and returns the new snapshot ID.
func (manager *GormSnapshotManager) InsertSnapshot(ctx context.Context, dto *SnapshotDTO) (uint, error) {
	if ctx == nil {
		return 0, fmt.Errorf("ctx cannot be nil")
	}
	if dto == nil {
		return 0, fmt.Errorf("dto cannot be nil")
	}
	logger := log.NewLogger(ctx)
	logger.Debug("InsertSnapshot",
		zap.String("account", dto.Account),
		zap.Int("resources", len(dto.Resources)),
		zap.Int("jobs", len(dto.Jobs)))

	snapshot := model.Snapshot{
		Account: dto.Account,
		APIRoot: dto.APIRoot,
	}
	for _, r := range dto.Resources {
		snapshot.Resources = append(snapshot.Resources, model.Resource{
			Kind:     r.Kind,
			RemoteID: r.RemoteID,
			Name:     r.Name,
			Tags:     r.Tags,
			Raw:      r.Raw,
		})
	}
	for _, j := range dto.Jobs {
		snapshot.Jobs = append(snapshot.Jobs, model.JobRecord{
			RemoteID: j.RemoteID,
			PolicyID: j.PolicyID,
			Status:   j.Status,
			Created:  j.Created,
		})
	}

	err := manager.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&snapshot).Error; err != nil {
			return fmt.Errorf("error creating snapshot: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("transaction failed: %w", err)
	}
	return snapshot.ID, nil
}

// GetSnapshot retrieves a Snapshot with its resources and jobs.
func (manager *GormSnapshotManager) GetSnapshot(ctx context.Context, id uint) (*model.Snapshot, error) {
	if ctx == nil {
		return nil, fmt.Errorf("ctx cannot be nil")
	}
	var snapshot model.Snapshot
	err := manager.db.WithContext(ctx).
		Preload("Resources").
		Preload("Jobs").
		First(&snapshot, id).Error
	if err != nil {
		return nil, fmt.Errorf("error finding snapshot: %w", err)
	}
	return &snapshot, nil
}
