package commerce

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"telegram-pizza-shop/internal/domain/ports/adapter"
)

// Entries fetches every entry of a flow, following pagination links until the
// backend reports no next page.
func (c *Client) Entries(ctx context.Context, token, flowSlug string) ([]adapter.FlowEntry, error) {
	pageURL := c.endpoint(fmt.Sprintf("/v2/flows/%s/entries", flowSlug))
	query := url.Values{"page[limit]": {"100"}}

	var entries []adapter.FlowEntry
	for pageURL != "" {
		var out struct {
			Data  []adapter.FlowEntry `json:"data"`
			Links struct {
				Next string `json:"next"`
			} `json:"links"`
		}
		if err := c.do(ctx, "flow_entries", http.MethodGet, pageURL, token, query, nil, &out); err != nil {
			return nil, err
		}
		entries = append(entries, out.Data...)
		pageURL = out.Links.Next
		query = nil // the next link already carries its parameters
	}
	return entries, nil
}

func (c *Client) CreateFlowEntry(ctx context.Context, token, flowSlug string, fields map[string]any) error {
	data := map[string]any{"type": "entry"}
	for k, v := range fields {
		data[k] = v
	}
	path := fmt.Sprintf("/v2/flows/%s/entries", flowSlug)
	return c.do(ctx, "create_flow_entry", http.MethodPost, c.endpoint(path), token, nil, map[string]any{"data": data}, nil)
}

func (c *Client) CreateFlow(ctx context.Context, token, name, description string) (string, error) {
	body := map[string]any{
		"data": map[string]any{
			"type":        "flow",
			"name":        name,
			"slug":        slugify(name),
			"description": description,
			"enabled":     true,
		},
	}
	var out struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := c.do(ctx, "create_flow", http.MethodPost, c.endpoint("/v2/flows"), token, nil, body, &out); err != nil {
		return "", err
	}
	return out.Data.ID, nil
}

func (c *Client) CreateFlowField(ctx context.Context, token, flowID, name, fieldType, description string) error {
	body := map[string]any{
		"data": map[string]any{
			"type":        "field",
			"name":        name,
			"slug":        slugify(name),
			"field_type":  fieldType,
			"description": description,
			"required":    true,
			"enabled":     true,
			"relationships": map[string]any{
				"flow": map[string]any{
					"data": map[string]any{
						"type": "flow",
						"id":   flowID,
					},
				},
			},
		},
	}
	return c.do(ctx, "create_flow_field", http.MethodPost, c.endpoint("/v2/fields"), token, nil, body, nil)
}
