package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Snapshot is one complete inventory pull from the API. Resources and jobs
// hang off it so repeated syncs stay comparable over time.
type Snapshot struct {
	ID        uint        `json:"ID" gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time   `json:"CreatedAt" gorm:"autoCreateTime"`
	Account   string      `json:"Account"`
	APIRoot   string      `json:"APIRoot"`
	Resources []Resource  `json:"Resources" gorm:"foreignKey:SnapshotID;constraint:OnDelete:CASCADE"`
	Jobs      []JobRecord `json:"Jobs" gorm:"foreignKey:SnapshotID;constraint:OnDelete:CASCADE"`
}

// Resource is one named remote resource (target, policy, application,
// secret) as seen at snapshot time. RemoteID is the API's opaque ID; the
// numeric primary key is local only.
type Resource struct {
	ID         uint            `json:"ID" gorm:"primaryKey;autoIncrement"`
	SnapshotID uint            `json:"SnapshotID" gorm:"index"`
	Kind       string          `json:"Kind" gorm:"index"`
	RemoteID   string          `json:"RemoteID" gorm:"index"`
	Name       string          `json:"Name"`
	Tags       JSONStringArray `json:"Tags" gorm:"type:text"`
	Raw        string          `json:"Raw"`
}

// JobRecord is one job's state at snapshot time.
type JobRecord struct {
	ID         uint      `json:"ID" gorm:"primaryKey;autoIncrement"`
	SnapshotID uint      `json:"SnapshotID" gorm:"index"`
	RemoteID   string    `json:"RemoteID" gorm:"index"`
	PolicyID   string    `json:"PolicyID"`
	Status     string    `json:"Status"`
	Created    time.Time `json:"Created"`
}

// JSONStringArray custom type for handling JSON serialization of string arrays.
type JSONStringArray []string

// Value implements the driver.Valuer interface for database serialization.
func (j JSONStringArray) Value() (driver.Value, error) {
	if len(j) == 0 {
		return nil, nil // Return nil if the array is empty
	}
	return json.Marshal(j)
}

// Scan implements the sql.Scanner interface for database deserialization.
func (j *JSONStringArray) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("JSONStringArray Scan error: expected []byte, got %T", value)
	}
	return json.Unmarshal(b, j)
}
