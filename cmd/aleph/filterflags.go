package main

import (
	"strconv"
	"time"

	"github.com/spf13/pflag"

	"aleph.im/sdk/filter"
	"aleph.im/sdk/itemhash"
	"aleph.im/sdk/message"
	"aleph.im/sdk/types"
)

// filterFlags maps command-line flags onto a filter.MessageFilter. A list
// flag that is not given leaves its field unconstrained; given as an empty
// string it matches nothing.
type filterFlags struct {
	fs *pflag.FlagSet

	addresses, channels, types, hashes    []string
	contentTypes, contentKeys, refs, tags []string
	chains, statuses                      []string
	start, end                            string
	sortBy, sortOrder                     string
	page, perPage                         int
}

func addFilterFlags(fs *pflag.FlagSet, paginated bool) *filterFlags {
	f := &filterFlags{fs: fs}
	fs.StringSliceVar(&f.addresses, "address", nil, "Sender or owner address (repeatable)")
	fs.StringSliceVar(&f.channels, "channel", nil, "Channel (repeatable)")
	fs.StringSliceVar(&f.types, "type", nil, "Message type, e.g. POST (repeatable)")
	fs.StringSliceVar(&f.hashes, "hash", nil, "Item hash (repeatable)")
	fs.StringSliceVar(&f.contentTypes, "content-type", nil, "Post type (repeatable)")
	fs.StringSliceVar(&f.contentKeys, "content-key", nil, "Aggregate key (repeatable)")
	fs.StringSliceVar(&f.refs, "ref", nil, "Content ref (repeatable)")
	fs.StringSliceVar(&f.tags, "tag", nil, "Tag (repeatable)")
	fs.StringSliceVar(&f.chains, "chain", nil, "Sender chain, e.g. ETH (repeatable)")
	fs.StringSliceVar(&f.statuses, "status", nil, "Message status (repeatable)")
	fs.StringVar(&f.start, "start", "", "Earliest time (RFC 3339 or unix seconds)")
	fs.StringVar(&f.end, "end", "", "Latest time (RFC 3339 or unix seconds)")
	if paginated {
		fs.StringVar(&f.sortBy, "sort-by", "", "Sort key (time, tx-time)")
		fs.StringVar(&f.sortOrder, "sort-order", "", "Sort order (asc, desc)")
		fs.IntVar(&f.page, "page", 0, "Page number, starting at 1")
		fs.IntVar(&f.perPage, "per-page", 0, "Page size (max 500)")
	}
	return f
}

func (f *filterFlags) build() (*filter.MessageFilter, error) {
	mf := &filter.MessageFilter{
		SortBy:     filter.SortBy(f.sortBy),
		SortOrder:  filter.SortOrder(f.sortOrder),
		Pagination: filter.Pagination{Page: f.page, PerPage: f.perPage},
	}
	var err error

	if f.changed("address") {
		mf.Addresses = convert(f.addresses, func(s string) (types.Address, error) { return types.Address(s), nil }, &err)
	}
	if f.changed("channel") {
		mf.Channels = convert(f.channels, func(s string) (types.Channel, error) { return types.Channel(s), nil }, &err)
	}
	if f.changed("type") {
		mf.MessageTypes = convert(f.types, func(s string) (message.Type, error) {
			t, ok := message.ParseType(s)
			if !ok {
				return "", usagef("unknown message type %q", s)
			}
			return t, nil
		}, &err)
	}
	if f.changed("hash") {
		mf.ItemHashes = convert(f.hashes, func(s string) (itemhash.ItemHash, error) {
			h, err := itemhash.ParseRef(s)
			if err != nil {
				return h, usageError{err}
			}
			return h, nil
		}, &err)
	}
	if f.changed("chain") {
		mf.Chains = convert(f.chains, func(s string) (types.Chain, error) {
			c, err := types.ParseChain(s)
			if err != nil {
				return c, usageError{err}
			}
			return c, nil
		}, &err)
	}
	if f.changed("status") {
		mf.MessageStatuses = convert(f.statuses, func(s string) (message.Status, error) {
			st, ok := message.ParseStatus(s)
			if !ok {
				return "", usagef("unknown message status %q", s)
			}
			return st, nil
		}, &err)
	}
	if f.changed("content-type") {
		mf.ContentTypes = append([]string{}, f.contentTypes...)
	}
	if f.changed("content-key") {
		mf.ContentKeys = append([]string{}, f.contentKeys...)
	}
	if f.changed("ref") {
		mf.Refs = append([]string{}, f.refs...)
	}
	if f.changed("tag") {
		mf.Tags = append([]string{}, f.tags...)
	}
	if err != nil {
		return nil, err
	}

	if mf.StartDate, err = parseTime("start", f.start); err != nil {
		return nil, err
	}
	if mf.EndDate, err = parseTime("end", f.end); err != nil {
		return nil, err
	}
	if err := mf.Validate(); err != nil {
		return nil, usageError{err}
	}
	return mf, nil
}

func (f *filterFlags) changed(name string) bool {
	fl := f.fs.Lookup(name)
	return fl != nil && fl.Changed
}

// convert maps in through fn, recording the first error in *errp.
func convert[T any](in []string, fn func(string) (T, error), errp *error) []T {
	out := make([]T, 0, len(in))
	for _, s := range in {
		v, err := fn(s)
		if err != nil {
			if *errp == nil {
				*errp = err
			}
			continue
		}
		out = append(out, v)
	}
	return out
}

func parseTime(name, s string) (*types.Timestamp, error) {
	if s == "" {
		return nil, nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		ts := types.Timestamp(f)
		return &ts, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, usagef("--%s: want RFC 3339 or unix seconds, got %q", name, s)
	}
	ts := types.FromTime(t)
	return &ts, nil
}
