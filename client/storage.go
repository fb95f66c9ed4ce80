package client

import (
	"context"
	"net/http"
	"strconv"

	"aleph.im/sdk/itemhash"
	"aleph.im/sdk/types"
)

func rawFilePath(h itemhash.ItemHash) string { return "/api/v0/storage/raw/" + h.String() }

// GetFileSize returns the size of a stored file without downloading it.
func (c *Client) GetFileSize(ctx context.Context, h itemhash.ItemHash) (types.StorageSize, error) {
	const op = "get file size"
	id := h.String()
	if h.IsZero() {
		return 0, &Error{Kind: KindConfig, Op: op, Message: "zero item hash"}
	}
	resp, err := c.do(ctx, op, id, http.MethodHead, c.endpoint(rawFilePath(h), nil))
	if err != nil {
		return 0, err
	}
	if err := checkStatus(op, id, resp); err != nil {
		return 0, err
	}
	resp.Body.Close()

	cl := resp.Header.Get("Content-Length")
	if cl == "" {
		if resp.ContentLength >= 0 {
			return types.StorageSize(resp.ContentLength), nil
		}
		return 0, &Error{Kind: KindNotFound, Op: op, ItemHash: id, StatusCode: resp.StatusCode, Message: "no Content-Length"}
	}
	n, err := strconv.ParseUint(cl, 10, 64)
	if err != nil {
		return 0, &Error{Kind: KindDecode, Op: op, ItemHash: id, StatusCode: resp.StatusCode, Message: "invalid Content-Length " + strconv.Quote(cl)}
	}
	return types.StorageSize(n), nil
}

// DownloadFile fetches a stored file and checks it against h.
func (c *Client) DownloadFile(ctx context.Context, h itemhash.ItemHash) ([]byte, error) {
	const op = "download file"
	id := h.String()
	if h.IsZero() {
		return nil, &Error{Kind: KindConfig, Op: op, Message: "zero item hash"}
	}
	b, err := c.get(ctx, op, id, c.endpoint(rawFilePath(h), nil))
	if err != nil {
		return nil, err
	}
	if !h.Matches(b) {
		return nil, &Error{Kind: KindDecode, Op: op, ItemHash: id, Message: "content does not match hash"}
	}
	return b, nil
}
