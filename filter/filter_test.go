package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aleph.im/sdk/itemhash"
	"aleph.im/sdk/message"
	"aleph.im/sdk/types"
)

const helloHex = "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"

func TestToQueryParameters_ZeroFilterIsEmpty(t *testing.T) {
	var f MessageFilter
	assert.Empty(t, f.ToQueryParameters())
	assert.False(t, f.MatchesNothing())
	require.NoError(t, f.Validate())

	var nilFilter *MessageFilter
	assert.Empty(t, nilFilter.ToQueryParameters())
}

func TestToQueryParameters_SingleHash(t *testing.T) {
	h := itemhash.MustParse(helloHex)
	f := MessageFilter{ItemHashes: []itemhash.ItemHash{h}}
	q := f.ToQueryParameters()
	require.Len(t, q, 1)
	assert.Equal(t, []string{helloHex}, q[ParamHashes])
}

func TestToQueryParameters_HashUsesCanonicalHex(t *testing.T) {
	upper := "2CF24DBA5FB0A30E26E83B2AC5B9E29E1B161E5C1FA7425E73043362938B9824"
	f := MessageFilter{ItemHashes: []itemhash.ItemHash{itemhash.MustParse(upper)}}
	assert.Equal(t, helloHex, f.ToQueryParameters().Get(ParamHashes))
}

func TestToQueryParameters_AllFields(t *testing.T) {
	start := types.Timestamp(1700000000)
	end := types.Timestamp(1700000100.5)
	f := MessageFilter{
		Addresses:       []types.Address{"0xA", "0xB"},
		Channels:        []types.Channel{"TEST"},
		MessageTypes:    []message.Type{message.TypePost, message.TypeStore},
		ContentTypes:    []string{"chat"},
		ContentKeys:     []string{"profile", "settings"},
		Refs:            []string{"r1"},
		Tags:            []string{"a", "b"},
		Chains:          []types.Chain{types.ChainEthereum, types.ChainSolana},
		MessageStatuses: []message.Status{message.StatusProcessed},
		StartDate:       &start,
		EndDate:         &end,
		SortBy:          SortByTxTime,
		SortOrder:       SortDesc,
		Pagination:      Pagination{PerPage: 50, Page: 3},
	}
	require.NoError(t, f.Validate())

	q := f.ToQueryParameters()
	want := map[string]string{
		ParamAddresses:       "0xA,0xB",
		ParamChannels:        "TEST",
		ParamMessageTypes:    "POST,STORE",
		ParamContentTypes:    "chat",
		ParamContentKeys:     "profile,settings",
		ParamRefs:            "r1",
		ParamTags:            "a,b",
		ParamChains:          "ETH,SOL",
		ParamMessageStatuses: "processed",
		ParamStartDate:       "1700000000",
		ParamEndDate:         "1700000100.5",
		ParamSortBy:          "tx-time",
		ParamSortOrder:       "desc",
		ParamPerPage:         "50",
		ParamPage:            "3",
	}
	assert.Len(t, q, len(want))
	for k, v := range want {
		assert.Equal(t, []string{v}, q[k], "param %s", k)
	}
}

func TestMatchesNothing(t *testing.T) {
	f := MessageFilter{Channels: []types.Channel{}}
	assert.True(t, f.MatchesNothing())
	q := f.ToQueryParameters()
	assert.Contains(t, q, ParamChannels)
	assert.Equal(t, "", q.Get(ParamChannels))

	f = MessageFilter{Channels: []types.Channel{"x"}, Tags: []string{}}
	assert.True(t, f.MatchesNothing())
}

func TestValidate(t *testing.T) {
	start := types.Timestamp(10)
	end := types.Timestamp(5)
	bad := []MessageFilter{
		{Pagination: Pagination{PerPage: MaxPageSize + 1}},
		{Pagination: Pagination{PerPage: -1}},
		{Pagination: Pagination{Page: -2}},
		{SortBy: "size"},
		{SortOrder: "sideways"},
		{Chains: []types.Chain{"NOPE"}},
		{ItemHashes: []itemhash.ItemHash{{}}},
		{StartDate: &start, EndDate: &end},
	}
	for i, f := range bad {
		assert.Error(t, f.Validate(), "case %d", i)
	}

	ok := MessageFilter{Pagination: Pagination{PerPage: MaxPageSize, Page: 1}, SortBy: SortByTime, SortOrder: SortAsc}
	assert.NoError(t, ok.Validate())
}
