package message

import (
	"encoding/json"
	"testing"

	"aleph.im/sdk/types"
)

func TestMetadata_Tolerance(t *testing.T) {
	var m Metadata
	if err := json.Unmarshal([]byte(`[]`), &m); err != nil || m == nil || len(m) != 0 {
		t.Fatalf("empty array: m=%#v err=%v", m, err)
	}
	if err := json.Unmarshal([]byte(`{"a":1}`), &m); err != nil || string(m["a"]) != "1" {
		t.Fatalf("object: m=%#v err=%v", m, err)
	}
	if err := json.Unmarshal([]byte(`[1]`), &m); err == nil {
		t.Fatalf("expected non-empty array to be rejected")
	}
	if err := json.Unmarshal([]byte(`"x"`), &m); err == nil {
		t.Fatalf("expected string to be rejected")
	}
}

func TestResources_Defaults(t *testing.T) {
	var r Resources
	if err := json.Unmarshal([]byte(`{}`), &r); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if r.VCPUs != 1 || r.Memory != 128 || r.Seconds != 1 {
		t.Fatalf("defaults = %+v", r)
	}
	b, err := r.MemorySize().Bytes()
	if err != nil || b != types.StorageSize(128<<20) {
		t.Fatalf("memory bytes = %d err=%v", b, err)
	}
}

func TestVolume_KindSelection(t *testing.T) {
	cases := []struct {
		in   string
		kind string
	}{
		{`{"ref":"c0d93ea09e20eb4c5ca5b8f26dead01bd67c5599fadc8ceb44ba7e24d48722fc","mount":"/a"}`, "immutable"},
		{`{"ephemeral":true,"size_mib":10,"mount":"/b"}`, "ephemeral"},
		{`{"size_mib":10,"persistence":"store","mount":"/c"}`, "persistent"},
		{`{"name":"x","size_mib":10}`, "persistent"},
	}
	for _, tc := range cases {
		var v Volume
		if err := json.Unmarshal([]byte(tc.in), &v); err != nil {
			t.Fatalf("Unmarshal(%s): %v", tc.in, err)
		}
		got := ""
		switch {
		case v.Immutable != nil:
			got = "immutable"
		case v.Ephemeral != nil:
			got = "ephemeral"
		case v.Persistent != nil:
			got = "persistent"
		}
		if got != tc.kind {
			t.Fatalf("%s decoded as %q want %q", tc.in, got, tc.kind)
		}
		out, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		var again Volume
		if err := json.Unmarshal(out, &again); err != nil {
			t.Fatalf("Unmarshal(Marshal): %v", err)
		}
		if again.ReadOnly() != v.ReadOnly() {
			t.Fatalf("volume kind changed across re-encoding: %s", out)
		}
	}
}

func TestVolumeBounds(t *testing.T) {
	if PersistentVolumeMaxMiB != types.GigabyteToMebibyte(2048) {
		t.Fatalf("persistent max = %d want %d", PersistentVolumeMaxMiB, types.GigabyteToMebibyte(2048))
	}
}
