package mfapi

import (
	"context"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/wonny/mfrank/internal/contracts"
)

// FetchSchemes returns the full scheme catalog in upstream order.
// Codes arrive as numbers or strings and are normalized to strings.
func (c *Client) FetchSchemes(ctx context.Context) ([]contracts.Scheme, error) {
	body, err := c.fetchJSON(ctx, "/mf")
	if err != nil {
		return nil, fmt.Errorf("fetch catalog: %w", err)
	}

	schemes, err := parseSchemes(body)
	if err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	c.logger.WithField("count", len(schemes)).Debug("Fetched scheme catalog")
	return schemes, nil
}

func parseSchemes(body []byte) ([]contracts.Scheme, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("invalid JSON")
	}
	root := gjson.ParseBytes(body)
	if !root.IsArray() {
		return nil, fmt.Errorf("expected array, got %s", root.Type)
	}

	var schemes []contracts.Scheme
	root.ForEach(func(_, item gjson.Result) bool {
		schemes = append(schemes, contracts.Scheme{
			Code: strings.TrimSpace(item.Get("schemeCode").String()),
			Name: strings.TrimSpace(item.Get("schemeName").String()),
		})
		return true
	})
	return schemes, nil
}
