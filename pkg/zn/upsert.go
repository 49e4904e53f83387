package zn

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"
)

// doubleCheckAttempts bounds how often EnsureDoubleCheck re-resolves before
// giving up on a stable answer.
const doubleCheckAttempts = 3

// Ensure guarantees a resource with the given name exists and returns its
// ID. Found resources are reused; absent ones are created from payload;
// an ambiguous name fails fast without attempting creation.
func (c *Client) Ensure(ctx context.Context, kind ResourceKind, name string, payload interface{}) (string, error) {
	id, err := c.Resolve(ctx, kind, name)
	switch {
	case err == nil:
		c.logger.Info("reusing existing resource",
			zap.String("kind", kind.Path), zap.String("name", name), zap.String("id", id))
		return id, nil
	case errors.Is(err, ErrNotFound):
		return c.create(ctx, kind, name, payload)
	default:
		return "", err
	}
}

// EnsureDoubleCheck is Ensure with a best-effort race mitigation: the name
// is resolved twice with a randomized short delay between attempts, and
// creation only proceeds once both attempts agree the resource is absent.
// Two racing processes can still both pass the check before either creates,
// so this narrows the duplicate-creation window without closing it; true
// deduplication would need a server-side unique constraint.
func (c *Client) EnsureDoubleCheck(ctx context.Context, kind ResourceKind, name string, payload interface{}) (string, error) {
	for attempt := 0; attempt < doubleCheckAttempts; attempt++ {
		first, firstErr := c.Resolve(ctx, kind, name)
		if firstErr != nil && !errors.Is(firstErr, ErrNotFound) {
			return "", firstErr
		}

		delay := time.Duration(500+rand.Intn(2500)) * time.Millisecond //nolint:gosec
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("ensure %s %q: %w", kind.Path, name, ctx.Err())
		case <-time.After(delay):
		}

		second, secondErr := c.Resolve(ctx, kind, name)
		if secondErr != nil && !errors.Is(secondErr, ErrNotFound) {
			return "", secondErr
		}

		if firstErr == nil && secondErr == nil && first == second {
			return first, nil
		}
		if errors.Is(firstErr, ErrNotFound) && errors.Is(secondErr, ErrNotFound) {
			return c.create(ctx, kind, name, payload)
		}
		// The two lookups disagreed: another writer is racing us. Re-check.
		c.logger.Warn("resolution changed between checks, retrying",
			zap.String("kind", kind.Path), zap.String("name", name))
	}
	return "", fmt.Errorf("resolution of %s %q would not settle after %d double-checks",
		kind.Path, name, doubleCheckAttempts)
}

func (c *Client) create(ctx context.Context, kind ResourceKind, name string, payload interface{}) (string, error) {
	raw, err := c.Post(ctx, kind.Path, payload)
	if err != nil {
		return "", err
	}
	classified, err := Classify(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %s %q: %w", ErrCreateFailed, kind.Path, name, err)
	}
	id, err := ExtractID(classified)
	if err != nil {
		return "", fmt.Errorf("%w: %s %q: %w", ErrCreateFailed, kind.Path, name, err)
	}
	c.logger.Info("created resource",
		zap.String("kind", kind.Path), zap.String("name", name), zap.String("id", id))
	return id, nil
}

// ExtractID pulls the opaque resource ID out of a create response. The API
// answers either with the object itself or with a one-element array.
func ExtractID(raw json.RawMessage) (string, error) {
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.ID != "" {
		return obj.ID, nil
	}
	var arr []struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &arr); err == nil && len(arr) > 0 && arr[0].ID != "" {
		return arr[0].ID, nil
	}
	return "", fmt.Errorf("response carries no resource id")
}
