package export

import (
	"encoding/json"
	"strings"

	"github.com/samber/lo"
)

// item is the superset of fields the export schemas read. Collections nest
// most attributes under data; older endpoints carry them at the top level.
type item struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Data struct {
		Name          string   `json:"name"`
		Status        string   `json:"status"`
		EnvironmentID string   `json:"environmentId"`
		PolicyID      string   `json:"policyId"`
		PolicyType    string   `json:"policyType"`
		Severity      string   `json:"severity"`
		IssueName     string   `json:"issueName"`
		TargetIDs     []string `json:"targetIds"`
		Tags          []string `json:"tags"`
	} `json:"data"`
	Meta struct {
		Created      string `json:"created"`
		LastModified string `json:"lastModified"`
	} `json:"meta"`
}

func (i *item) name() string {
	if i.Data.Name != "" {
		return i.Data.Name
	}
	return i.Name
}

// inventoryReader materializes export rows for one resource kind from the
// raw list items the pagination walker yields.
type inventoryReader struct {
	header []string
	rows   [][]string
}

func (r *inventoryReader) Header() []string { return r.header }
func (r *inventoryReader) Rows() [][]string { return r.rows }

// headersByKind maps a resource kind path to its extract schema.
var headersByKind = map[string][]string{
	"targets":         {"ID", "Name", "EnvironmentID", "Tags", "Created"},
	"policies":        {"ID", "Name", "PolicyType", "Targets", "Created"},
	"applications":    {"ID", "Name", "Targets", "Created"},
	"jobs":            {"ID", "PolicyID", "Status", "Created", "LastModified"},
	"syntheticIssues": {"ID", "IssueName", "Severity", "Status"},
	"users":           {"ID", "Name"},
	"secrets":         {"ID", "Name", "Created"},
}

// NewInventoryReader builds an InventoryReader for the kind from raw list
// items. Items that fail to decode are skipped rather than aborting the
// extract; a partially decodable inventory is still worth exporting.
func NewInventoryReader(kindPath string, items []json.RawMessage) InventoryReader {
	header, ok := headersByKind[kindPath]
	if !ok {
		header = []string{"ID", "Name"}
	}
	rows := lo.FilterMap(items, func(raw json.RawMessage, _ int) ([]string, bool) {
		var entry item
		if err := json.Unmarshal(raw, &entry); err != nil || entry.ID == "" {
			return nil, false
		}
		return rowFor(kindPath, &entry), true
	})
	return &inventoryReader{header: header, rows: rows}
}

func rowFor(kindPath string, entry *item) []string {
	switch kindPath {
	case "targets":
		return []string{entry.ID, entry.name(), entry.Data.EnvironmentID,
			strings.Join(entry.Data.Tags, ";"), entry.Meta.Created}
	case "policies":
		return []string{entry.ID, entry.name(), entry.Data.PolicyType,
			strings.Join(entry.Data.TargetIDs, ";"), entry.Meta.Created}
	case "applications":
		return []string{entry.ID, entry.name(),
			strings.Join(entry.Data.TargetIDs, ";"), entry.Meta.Created}
	case "jobs":
		return []string{entry.ID, entry.Data.PolicyID, entry.Data.Status,
			entry.Meta.Created, entry.Meta.LastModified}
	case "syntheticIssues":
		return []string{entry.ID, entry.Data.IssueName, entry.Data.Severity, entry.Data.Status}
	case "secrets":
		return []string{entry.ID, entry.name(), entry.Meta.Created}
	default:
		return []string{entry.ID, entry.name()}
	}
}
