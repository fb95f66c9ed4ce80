package client

import (
	"context"
	"encoding/json"
	"net/url"

	"aleph.im/sdk/types"
)

type aggregateResponse struct {
	Address string                     `json:"address"`
	Data    map[string]json.RawMessage `json:"data"`
}

// GetAggregate loads the current value of address's aggregate key into out.
func (c *Client) GetAggregate(ctx context.Context, address types.Address, key string, out any) error {
	const op = "get aggregate"
	if address == "" || key == "" {
		return &Error{Kind: KindConfig, Op: op, Message: "address and key are required"}
	}
	q := url.Values{"keys": {key}}
	body, err := c.get(ctx, op, "", c.endpoint("/api/v0/aggregates/"+url.PathEscape(address.String())+".json", q))
	if err != nil {
		return err
	}

	var resp aggregateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return &Error{Kind: KindDecode, Op: op, Message: "invalid aggregate response", Cause: err}
	}
	raw, ok := resp.Data[key]
	if !ok || string(raw) == "null" {
		return &Error{Kind: KindNotFound, Op: op, Message: "aggregate " + key + " not set for " + address.String()}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &Error{Kind: KindDecode, Op: op, Message: "decoding aggregate " + key, Cause: err}
	}
	return nil
}
