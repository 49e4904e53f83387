package zn

import (
	"context"
	"encoding/json"
	"fmt"
)

// TargetPayload is the create body for a target. Names containing ':', '/'
// or spaces are legal; they are JSON-encoded here and URL-encoded when they
// appear in query strings, never interpolated into raw request text.
type TargetPayload struct {
	Name          string                 `json:"name"`
	EnvironmentID string                 `json:"environmentId,omitempty"`
	EnvironmentType string               `json:"environmentType,omitempty"`
	Parameters    map[string]interface{} `json:"parameters,omitempty"`
	Tags          []string               `json:"tags,omitempty"`
	Notifications []string               `json:"notifications,omitempty"`
}

// PolicyPayload is the create body for a policy binding a target to a
// scenario with run configuration.
type PolicyPayload struct {
	Name           string   `json:"name"`
	EnvironmentID  string   `json:"environmentId,omitempty"`
	IntegrationID  string   `json:"integrationId,omitempty"`
	ScenarioIDs    []string `json:"scenarioIds,omitempty"`
	TargetIDs      []string `json:"targets,omitempty"`
	PolicyType     string   `json:"policyType,omitempty"`
	PolicySite     string   `json:"policySite,omitempty"`
	Description    string   `json:"description,omitempty"`
	Tags           []string `json:"tags,omitempty"`
}

// ApplicationPayload is the create body for an application grouping targets.
type ApplicationPayload struct {
	Name        string   `json:"name"`
	TargetIDs   []string `json:"targetIds,omitempty"`
	Description string   `json:"description,omitempty"`
	TypeOfApp   string   `json:"typeOfApp,omitempty"`
}

// Account is the identity behind the credential, from /accounts/me.
type Account struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Data  struct {
		Email        string `json:"email"`
		Name         string `json:"name"`
		CustomerName string `json:"customerName"`
	} `json:"data"`
}

// Me fetches the account behind the credential. The first call a workflow
// makes; a failure here means the token is bad and nothing else will work.
func (c *Client) Me(ctx context.Context) (*Account, error) {
	raw, err := c.Get(ctx, "accounts/me")
	if err != nil {
		return nil, err
	}
	classified, err := Classify(raw)
	if err != nil {
		return nil, fmt.Errorf("fetching account: %w", err)
	}
	var account Account
	if err := json.Unmarshal(classified, &account); err != nil {
		return nil, fmt.Errorf("fetching account: %w", ErrMalformedResponse)
	}
	return &account, nil
}

// PolicySchedules fetches the schedules attached to a policy.
func (c *Client) PolicySchedules(ctx context.Context, policyID string) ([]json.RawMessage, error) {
	raw, err := c.Get(ctx, fmt.Sprintf("policies/%s/schedules", policyID))
	if err != nil {
		return nil, err
	}
	classified, err := Classify(raw)
	if err != nil {
		return nil, fmt.Errorf("fetching schedules for policy %s: %w", policyID, err)
	}
	page, err := ParseListPage(classified)
	if err != nil {
		return nil, fmt.Errorf("fetching schedules for policy %s: %w", policyID, err)
	}
	return page.Items, nil
}

// GetResource fetches one resource by ID.
func (c *Client) GetResource(ctx context.Context, kind ResourceKind, id string) (json.RawMessage, error) {
	raw, err := c.Get(ctx, fmt.Sprintf("%s/%s", kind.Path, id))
	if err != nil {
		return nil, err
	}
	classified, err := Classify(raw)
	if err != nil {
		return nil, fmt.Errorf("fetching %s %s: %w", kind.Path, id, err)
	}
	return classified, nil
}
