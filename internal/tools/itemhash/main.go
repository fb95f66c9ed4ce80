// Command itemhash recomputes the item hash of message records.
//
// Usage:
//
//	itemhash [-w] <record.json> [...]
//
// For each file it prints the declared hash, the computed hash and whether
// they agree. With -w, records whose declared hash is wrong are rewritten
// with the computed one (keys are re-emitted in sorted order).
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"aleph.im/sdk/itemhash"
	"aleph.im/sdk/message"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out, errOut io.Writer) int {
	fs := flag.NewFlagSet("itemhash", flag.ContinueOnError)
	fs.SetOutput(errOut)
	write := fs.Bool("w", false, "rewrite item_hash in place when it is wrong")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(errOut, "usage: itemhash [-w] <record.json> [...]")
		return 2
	}

	code := 0
	for _, path := range fs.Args() {
		declared, computed, err := check(path)
		if err != nil {
			fmt.Fprintf(errOut, "%s: %v\n", path, err)
			code = 1
			continue
		}
		if declared == computed.String() {
			fmt.Fprintf(out, "%s\t%s\tok\n", path, computed)
			continue
		}
		if *write {
			if err := rewrite(path, computed); err != nil {
				fmt.Fprintf(errOut, "%s: %v\n", path, err)
				code = 1
				continue
			}
			fmt.Fprintf(out, "%s\t%s\tfixed (was %q)\n", path, computed, declared)
			continue
		}
		fmt.Fprintf(out, "%s\t%s\tMISMATCH (declared %q)\n", path, computed, declared)
		code = 1
	}
	return code
}

func check(path string) (string, itemhash.ItemHash, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", itemhash.ItemHash{}, err
	}
	r, err := message.ParseRecord(b)
	if err != nil {
		return "", itemhash.ItemHash{}, err
	}

	it := message.ItemTypeInline
	if r.ItemType != "" {
		var ok bool
		if it, ok = message.ParseItemType(r.ItemType); !ok {
			return "", itemhash.ItemHash{}, fmt.Errorf("unknown item_type %q", r.ItemType)
		}
	}
	var inline string
	if r.ItemContent != nil {
		inline = *r.ItemContent
	}
	h, err := message.ComputeItemHash(it, inline, r.Content)
	if err != nil {
		return "", itemhash.ItemHash{}, err
	}
	return strings.TrimSpace(r.ItemHash), h, nil
}

func rewrite(path string, h itemhash.ItemHash) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var rec map[string]any
	if err := dec.Decode(&rec); err != nil {
		return err
	}
	rec["item_hash"] = h.String()

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rec); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
