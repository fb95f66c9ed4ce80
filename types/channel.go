package types

// Channel partitions messages into independent application streams.
type Channel string

func (c Channel) String() string { return string(c) }
