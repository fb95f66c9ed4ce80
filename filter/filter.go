// Package filter describes message listing queries and their encoding as
// node query parameters.
package filter

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"aleph.im/sdk/itemhash"
	"aleph.im/sdk/message"
	"aleph.im/sdk/types"
)

const (
	// DefaultPageSize is the page size nodes use when none is requested.
	DefaultPageSize = 200
	// MaxPageSize is the largest page a client will ask for.
	MaxPageSize = 500
)

type SortBy string

const (
	SortByTime   SortBy = "time"
	SortByTxTime SortBy = "tx-time"
)

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Pagination selects one page of results. Zero values leave the choice to
// the node. Page numbers start at 1.
type Pagination struct {
	PerPage int `validate:"min=0,max=500"`
	Page    int `validate:"min=0"`
}

// MessageFilter constrains a message listing. Every field is optional and
// constraints combine with AND.
//
// For set-valued fields nil means "no constraint" and a non-nil empty slice
// means "match nothing".
type MessageFilter struct {
	Addresses       []types.Address
	Channels        []types.Channel
	MessageTypes    []message.Type
	ItemHashes      []itemhash.ItemHash
	ContentTypes    []string
	ContentKeys     []string
	Refs            []string
	Tags            []string
	Chains          []types.Chain
	MessageStatuses []message.Status

	StartDate *types.Timestamp
	EndDate   *types.Timestamp

	SortBy    SortBy    `validate:"omitempty,oneof=time tx-time"`
	SortOrder SortOrder `validate:"omitempty,oneof=asc desc"`

	Pagination Pagination
}

// Query parameter names understood by nodes.
const (
	ParamAddresses       = "addresses"
	ParamChannels        = "channels"
	ParamMessageTypes    = "message_types"
	ParamHashes          = "hashes"
	ParamContentTypes    = "content_types"
	ParamContentKeys     = "content_keys"
	ParamRefs            = "refs"
	ParamTags            = "tags"
	ParamChains          = "chains"
	ParamMessageStatuses = "message_statuses"
	ParamStartDate       = "startDate"
	ParamEndDate         = "endDate"
	ParamSortBy          = "sort_by"
	ParamSortOrder       = "sort_order"
	ParamPerPage         = "pagination"
	ParamPage            = "page"
)

var structValidator = validator.New()

// Validate reports filters a node would reject or that ask for more than
// MaxPageSize results.
func (f *MessageFilter) Validate() error {
	if err := structValidator.Struct(f); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("filter: %s must satisfy %s %s (got %v)", fe.Namespace(), fe.Tag(), fe.Param(), fe.Value())
		}
		return fmt.Errorf("filter: %w", err)
	}
	for _, c := range f.Chains {
		if !c.Valid() {
			return fmt.Errorf("filter: unknown chain %q", c)
		}
	}
	for _, h := range f.ItemHashes {
		if h.IsZero() {
			return errors.New("filter: zero item hash")
		}
	}
	if f.StartDate != nil && f.EndDate != nil && *f.EndDate < *f.StartDate {
		return errors.New("filter: end date before start date")
	}
	return nil
}

// MatchesNothing reports whether some set-valued field is explicitly empty,
// in which case no message can satisfy the filter.
func (f *MessageFilter) MatchesNothing() bool {
	return explicitEmpty(f.Addresses) || explicitEmpty(f.Channels) ||
		explicitEmpty(f.MessageTypes) || explicitEmpty(f.ItemHashes) ||
		explicitEmpty(f.ContentTypes) || explicitEmpty(f.ContentKeys) ||
		explicitEmpty(f.Refs) || explicitEmpty(f.Tags) ||
		explicitEmpty(f.Chains) || explicitEmpty(f.MessageStatuses)
}

func explicitEmpty[T any](s []T) bool { return s != nil && len(s) == 0 }

// ToQueryParameters encodes the filter with one value per key; sets are
// comma-joined. Unset fields are omitted, so the zero filter encodes to no
// parameters. An explicitly empty set encodes to an empty value; callers
// should check MatchesNothing before sending such a query.
func (f *MessageFilter) ToQueryParameters() url.Values {
	q := url.Values{}
	if f == nil {
		return q
	}
	setList(q, ParamAddresses, f.Addresses)
	setList(q, ParamChannels, f.Channels)
	setList(q, ParamMessageTypes, f.MessageTypes)
	setList(q, ParamHashes, f.ItemHashes)
	setStrings(q, ParamContentTypes, f.ContentTypes)
	setStrings(q, ParamContentKeys, f.ContentKeys)
	setStrings(q, ParamRefs, f.Refs)
	setStrings(q, ParamTags, f.Tags)
	setList(q, ParamChains, f.Chains)
	setList(q, ParamMessageStatuses, f.MessageStatuses)
	if f.StartDate != nil {
		q.Set(ParamStartDate, formatTimestamp(*f.StartDate))
	}
	if f.EndDate != nil {
		q.Set(ParamEndDate, formatTimestamp(*f.EndDate))
	}
	if f.SortBy != "" {
		q.Set(ParamSortBy, string(f.SortBy))
	}
	if f.SortOrder != "" {
		q.Set(ParamSortOrder, string(f.SortOrder))
	}
	if f.Pagination.PerPage > 0 {
		q.Set(ParamPerPage, strconv.Itoa(f.Pagination.PerPage))
	}
	if f.Pagination.Page > 0 {
		q.Set(ParamPage, strconv.Itoa(f.Pagination.Page))
	}
	return q
}

func setList[T fmt.Stringer](q url.Values, key string, items []T) {
	if items == nil {
		return
	}
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = it.String()
	}
	q.Set(key, strings.Join(parts, ","))
}

func setStrings(q url.Values, key string, items []string) {
	if items != nil {
		q.Set(key, strings.Join(items, ","))
	}
}

func formatTimestamp(ts types.Timestamp) string {
	return strconv.FormatFloat(float64(ts), 'f', -1, 64)
}
