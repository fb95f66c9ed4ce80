// Package corechannel models the "corechannel" aggregate, which lists the
// core (CCN) and compute resource (CRN) nodes known to the network.
package corechannel

import (
	"context"
	"sort"

	"aleph.im/sdk/itemhash"
	"aleph.im/sdk/types"
)

// Address owns the corechannel aggregate.
var Address = types.MustChecksumAddress("0xa1B3bb7d2332383D96b7796B908fB7f7F3c2Be10")

// Key is the aggregate key.
const Key = "corechannel"

// CCNInfo describes a core channel node.
type CCNInfo struct {
	Hash         itemhash.ItemHash `json:"hash"`
	Name         string            `json:"name"`
	Time         types.Timestamp   `json:"time"`
	Owner        types.Address     `json:"owner"`
	Score        float64           `json:"score"`
	Reward       types.Address     `json:"reward"`
	Multiaddress string            `json:"multiaddress"`
}

// CRNInfo describes a compute resource node.
type CRNInfo struct {
	Hash    itemhash.ItemHash `json:"hash"`
	Name    string            `json:"name"`
	Time    types.Timestamp   `json:"time"`
	Owner   types.Address     `json:"owner"`
	Score   float64           `json:"score"`
	Reward  types.Address     `json:"reward"`
	Address string            `json:"address"`
}

// Content is the value stored under Key.
type Content struct {
	Nodes         []CCNInfo `json:"nodes"`
	ResourceNodes []CRNInfo `json:"resource_nodes"`
}

// AggregateGetter is the part of client.Client that Fetch needs.
type AggregateGetter interface {
	GetAggregate(ctx context.Context, address types.Address, key string, out any) error
}

// Fetch loads the current corechannel aggregate.
func Fetch(ctx context.Context, c AggregateGetter) (*Content, error) {
	var content Content
	if err := c.GetAggregate(ctx, Address, Key, &content); err != nil {
		return nil, err
	}
	return &content, nil
}

// CRN returns the resource node with the given hash.
func (c *Content) CRN(h itemhash.ItemHash) (CRNInfo, bool) {
	for _, n := range c.ResourceNodes {
		if n.Hash == h {
			return n, true
		}
	}
	return CRNInfo{}, false
}

// CCN returns the core node with the given hash.
func (c *Content) CCN(h itemhash.ItemHash) (CCNInfo, bool) {
	for _, n := range c.Nodes {
		if n.Hash == h {
			return n, true
		}
	}
	return CCNInfo{}, false
}

// TopCRNs returns up to n resource nodes with the highest score.
func (c *Content) TopCRNs(n int) []CRNInfo {
	out := append([]CRNInfo(nil), c.ResourceNodes...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if n >= 0 && n < len(out) {
		out = out[:n]
	}
	return out
}
