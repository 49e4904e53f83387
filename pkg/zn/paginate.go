package zn

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Walk pages through a list endpoint with increasing offset and hands each
// page's items to fn. When the endpoint's envelope exposes a collection
// count, the walk stops once offset reaches it; otherwise it falls back to
// stopping on the first short page. The short-page heuristic misfires when
// the collection size is an exact multiple of pageSize (one extra empty
// request), which is why the count is preferred whenever present.
// fn returning an error stops the walk and propagates the error.
func (c *Client) Walk(ctx context.Context, path string, pageSize int, fn func(items []json.RawMessage) error) error {
	if pageSize <= 0 {
		return fmt.Errorf("page size must be positive, got %d", pageSize)
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	offset := 0
	for {
		pagePath := fmt.Sprintf("%s%slimit=%d&offset=%d", path, sep, pageSize, offset)
		raw, err := c.Get(ctx, pagePath)
		if err != nil {
			return err
		}
		classified, err := Classify(raw)
		if err != nil {
			return fmt.Errorf("walking %s at offset %d: %w", path, offset, err)
		}
		page, err := ParseListPage(classified)
		if err != nil {
			return fmt.Errorf("walking %s at offset %d: %w", path, offset, err)
		}
		if len(page.Items) > 0 {
			if err := fn(page.Items); err != nil {
				return err
			}
		}
		offset += len(page.Items)
		if page.HasCount && offset >= page.Count {
			return nil
		}
		if len(page.Items) < pageSize {
			return nil
		}
	}
}

// Collect walks the endpoint and accumulates every item.
func (c *Client) Collect(ctx context.Context, path string, pageSize int) ([]json.RawMessage, error) {
	var all []json.RawMessage
	err := c.Walk(ctx, path, pageSize, func(items []json.RawMessage) error {
		all = append(all, items...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return all, nil
}
