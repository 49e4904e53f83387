package sql

import (
	"context"
	"fmt"
	"testing"
)

func TestCreateDBConnector(t *testing.T) {
	tests := []struct {
		name         string
		dbType       string
		expectedType string
	}{
		{
			name:         "SQLiteConnector",
			dbType:       "sqlite",
			expectedType: "*sql.SQLiteConnector",
		},
		{
			name:         "PostgresConnector",
			dbType:       "postgres",
			expectedType: "*sql.PostgresConnector",
		},
		{
			name:         "CloudSQLConnector",
			dbType:       "cloudsql",
			expectedType: "*sql.CloudSQLConnector",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			connector := CreateDBConnector(tt.dbType, "snapshots.db", "host=localhost", "instance", "user", "password", "dbname")
			if gotType := fmt.Sprintf("%T", connector); gotType != tt.expectedType {
				t.Errorf("CreateDBConnector() = %v, want %v", gotType, tt.expectedType)
			}
		})
	}
}

func TestSQLiteConnector_Connect(t *testing.T) {
	connector := CreateDBConnector("sqlite", "file::memory:?cache=shared", "", "", "", "", "")
	db, err := connector.Connect(context.Background())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if db == nil {
		t.Fatal("Connect() returned nil DB")
	}
}
