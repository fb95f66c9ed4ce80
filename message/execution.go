package message

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"aleph.im/sdk/itemhash"
	"aleph.im/sdk/types"
)

// Volume size bounds, in MiB.
const (
	EphemeralVolumeMinMiB  = 1
	EphemeralVolumeMaxMiB  = 1000
	PersistentVolumeMinMiB = 1
	// PersistentVolumeMaxMiB is GigabyteToMebibyte(2048).
	PersistentVolumeMaxMiB = 1953125
)

// Executable holds the fields shared by program and instance messages.
type Executable struct {
	AllowAmend     bool               `json:"allow_amend"`
	Metadata       Metadata           `json:"metadata,omitempty"`
	Variables      map[string]string  `json:"variables,omitempty"`
	Resources      *Resources         `json:"resources" validate:"required"`
	Payment        *Payment           `json:"payment,omitempty"`
	Requirements   *HostRequirements  `json:"requirements,omitempty"`
	Volumes        []Volume           `json:"volumes,omitempty" validate:"dive"`
	Replaces       *itemhash.ItemHash `json:"replaces,omitempty"`
	AuthorizedKeys []string           `json:"authorized_keys,omitempty"`
}

func (e *Executable) checkHashes() error {
	if err := presentHash("replaces", e.Replaces); err != nil {
		return err
	}
	if e.Requirements != nil && e.Requirements.Node != nil {
		if err := presentHash("requirements.node.terms_and_conditions", e.Requirements.Node.TermsAndConditions); err != nil {
			return err
		}
	}
	for i, v := range e.Volumes {
		if v.Immutable != nil {
			if err := presentHash(fmt.Sprintf("volumes[%d].ref", i), v.Immutable.Ref); err != nil {
				return err
			}
		}
	}
	return nil
}

// Metadata is a free-form object. An empty JSON array is accepted as an
// empty object, since older clients emitted one.
type Metadata map[string]json.RawMessage

func (m *Metadata) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*m = nil
		return nil
	case len(b) > 0 && b[0] == '[':
		var arr []json.RawMessage
		if err := json.Unmarshal(b, &arr); err != nil {
			return err
		}
		if len(arr) != 0 {
			return errors.New("metadata must be an object or an empty array")
		}
		*m = Metadata{}
		return nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(b, &obj); err != nil {
		return fmt.Errorf("metadata must be an object: %w", err)
	}
	*m = obj
	return nil
}

// Resources are the compute limits of a VM. Defaults: 1 vCPU, 128 MiB, 1 second.
type Resources struct {
	VCPUs          uint32          `json:"vcpus" validate:"min=1"`
	Memory         uint64          `json:"memory" validate:"min=1"` // MiB
	Seconds        uint32          `json:"seconds"`
	PublishedPorts []PublishedPort `json:"published_ports,omitempty" validate:"omitempty,dive"`
}

func (r *Resources) UnmarshalJSON(b []byte) error {
	type plain Resources
	p := plain{VCPUs: 1, Memory: 128, Seconds: 1}
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*r = Resources(p)
	return nil
}

// MemorySize returns Memory with its unit.
func (r *Resources) MemorySize() types.MemorySize { return types.Size(r.Memory, types.MiB) }

type PublishedPort struct {
	Protocol string `json:"protocol" validate:"oneof=tcp udp"`
	Port     uint16 `json:"port" validate:"required"`
}

func (p *PublishedPort) UnmarshalJSON(b []byte) error {
	type plain PublishedPort
	v := plain{Protocol: "tcp"}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*p = PublishedPort(v)
	return nil
}

type Payment struct {
	Chain    types.Chain   `json:"chain,omitempty"`
	Receiver types.Address `json:"receiver,omitempty"`
	Type     string        `json:"type" validate:"oneof=hold superfluid credit"`
}

type HostRequirements struct {
	CPU  *CPUProperties    `json:"cpu,omitempty"`
	Node *NodeRequirements `json:"node,omitempty"`
	GPU  []GPUProperties   `json:"gpu,omitempty" validate:"omitempty,dive"`
}

type CPUProperties struct {
	Architecture string   `json:"architecture" validate:"oneof=x86_64 arm64"`
	Vendor       string   `json:"vendor,omitempty" validate:"omitempty,oneof=AuthenticAMD GenuineIntel"`
	Features     []string `json:"features"`
}

type NodeRequirements struct {
	Owner              types.Address      `json:"owner,omitempty"`
	AddressRegex       string             `json:"address_regex,omitempty"`
	NodeHash           string             `json:"node_hash,omitempty"`
	TermsAndConditions *itemhash.ItemHash `json:"terms_and_conditions,omitempty"`
}

type GPUProperties struct {
	Vendor      string `json:"vendor" validate:"required"`
	DeviceName  string `json:"device_name" validate:"required"`
	DeviceClass string `json:"device_class" validate:"oneof=0300 0302"`
	DeviceID    string `json:"device_id" validate:"required"`
}

// Volume is one of the three attachable volume kinds. Exactly one field is set.
type Volume struct {
	Immutable  *ImmutableVolume
	Ephemeral  *EphemeralVolume
	Persistent *PersistentVolume
}

// UnmarshalJSON picks the volume kind from the keys present: "ephemeral"
// marks an ephemeral volume, "size_mib" (or persistence fields) a persistent
// one, anything else an immutable one.
func (v *Volume) UnmarshalJSON(b []byte) error {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(b, &keys); err != nil {
		return fmt.Errorf("volume must be an object: %w", err)
	}
	*v = Volume{}
	if _, ok := keys["ephemeral"]; ok {
		v.Ephemeral = new(EphemeralVolume)
		return json.Unmarshal(b, v.Ephemeral)
	}
	for _, k := range []string{"size_mib", "persistence", "parent", "name"} {
		if _, ok := keys[k]; ok {
			v.Persistent = new(PersistentVolume)
			return json.Unmarshal(b, v.Persistent)
		}
	}
	v.Immutable = new(ImmutableVolume)
	return json.Unmarshal(b, v.Immutable)
}

func (v Volume) MarshalJSON() ([]byte, error) {
	switch {
	case v.Ephemeral != nil:
		return json.Marshal(v.Ephemeral)
	case v.Persistent != nil:
		return json.Marshal(v.Persistent)
	case v.Immutable != nil:
		return json.Marshal(v.Immutable)
	default:
		return []byte("null"), nil
	}
}

// ReadOnly reports whether the volume cannot be written by the VM.
func (v Volume) ReadOnly() bool { return v.Immutable != nil }

type ImmutableVolume struct {
	Comment   string             `json:"comment,omitempty"`
	Mount     string             `json:"mount,omitempty"`
	Ref       *itemhash.ItemHash `json:"ref,omitempty"`
	UseLatest bool               `json:"use_latest"`
}

func (v *ImmutableVolume) UnmarshalJSON(b []byte) error {
	type plain ImmutableVolume
	p := plain{UseLatest: true}
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*v = ImmutableVolume(p)
	return nil
}

type EphemeralVolume struct {
	Comment   string `json:"comment,omitempty"`
	Mount     string `json:"mount,omitempty"`
	Ephemeral bool   `json:"ephemeral"`
	SizeMiB   uint64 `json:"size_mib" validate:"min=1,max=1000"`
}

type ParentVolume struct {
	Ref       itemhash.ItemHash `json:"ref" validate:"required"`
	UseLatest bool              `json:"use_latest"`
}

func (v *ParentVolume) UnmarshalJSON(b []byte) error {
	type plain ParentVolume
	p := plain{UseLatest: true}
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*v = ParentVolume(p)
	return nil
}

type PersistentVolume struct {
	Comment     string        `json:"comment,omitempty"`
	Mount       string        `json:"mount,omitempty"`
	Parent      *ParentVolume `json:"parent,omitempty"`
	Persistence string        `json:"persistence,omitempty" validate:"omitempty,oneof=host store"`
	Name        string        `json:"name,omitempty"`
	SizeMiB     uint64        `json:"size_mib" validate:"min=1,max=1953125"`
}

// RootfsVolume is an instance's root filesystem.
type RootfsVolume struct {
	Parent      ParentVolume        `json:"parent"`
	Persistence string              `json:"persistence" validate:"oneof=host store"`
	SizeMiB     uint64              `json:"size_mib" validate:"min=1,max=1953125"`
	ForgottenBy []itemhash.ItemHash `json:"forgotten_by,omitempty"`
}

type CodeContent struct {
	Encoding   string            `json:"encoding" validate:"oneof=plain zip squashfs"`
	Entrypoint string            `json:"entrypoint" validate:"required"`
	Ref        itemhash.ItemHash `json:"ref" validate:"required"`
	Interface  string            `json:"interface,omitempty" validate:"omitempty,oneof=asgi binary"`
	Args       []string          `json:"args,omitempty"`
	UseLatest  bool              `json:"use_latest"`
}

type FunctionRuntime struct {
	Ref       itemhash.ItemHash `json:"ref" validate:"required"`
	UseLatest bool              `json:"use_latest"`
	Comment   string            `json:"comment"`
}

func (r *FunctionRuntime) UnmarshalJSON(b []byte) error {
	type plain FunctionRuntime
	p := plain{UseLatest: true}
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*r = FunctionRuntime(p)
	return nil
}

type DataContent struct {
	Encoding  string             `json:"encoding" validate:"oneof=plain zip squashfs"`
	Mount     string             `json:"mount" validate:"required"`
	Ref       *itemhash.ItemHash `json:"ref,omitempty"`
	UseLatest bool               `json:"use_latest"`
}

type Export struct {
	Encoding string `json:"encoding" validate:"oneof=plain zip squashfs"`
	Mount    string `json:"mount" validate:"required"`
}

type FunctionEnvironment struct {
	Reproducible bool `json:"reproducible"`
	Internet     bool `json:"internet"`
	AlephAPI     bool `json:"aleph_api"`
	SharedCache  bool `json:"shared_cache"`
}

type FunctionTriggers struct {
	HTTP       bool  `json:"http"`
	Persistent *bool `json:"persistent,omitempty"`
}

// Program is a function-style VM triggered by HTTP or kept persistent.
type Program struct {
	Executable
	Code        CodeContent         `json:"code"`
	Runtime     FunctionRuntime     `json:"runtime"`
	Data        *DataContent        `json:"data,omitempty"`
	Environment FunctionEnvironment `json:"environment"`
	Export      *Export             `json:"export,omitempty"`
	On          FunctionTriggers    `json:"on"`
}

func (*Program) MessageType() Type { return TypeProgram }
func (*Program) isPayload()        {}

func (p *Program) check() error {
	if err := p.checkHashes(); err != nil {
		return err
	}
	if p.Data != nil {
		return presentHash("data.ref", p.Data.Ref)
	}
	return nil
}

// AMD SEV policy bits.
const (
	SEVPolicyNoDebug      uint32 = 1 << 0
	SEVPolicyNoKeySharing uint32 = 1 << 1
	SEVPolicySEVES        uint32 = 1 << 2
	SEVPolicyNoSend       uint32 = 1 << 3
	SEVPolicyDomain       uint32 = 1 << 4
	SEVPolicySEV          uint32 = 1 << 5
)

type TrustedExecution struct {
	Firmware *itemhash.ItemHash `json:"firmware,omitempty"`
	Policy   uint32             `json:"policy"`
}

func (t *TrustedExecution) UnmarshalJSON(b []byte) error {
	type plain TrustedExecution
	p := plain{Policy: SEVPolicyNoDebug}
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*t = TrustedExecution(p)
	return nil
}

type InstanceEnvironment struct {
	Internet         bool              `json:"internet"`
	AlephAPI         bool              `json:"aleph_api"`
	Hypervisor       string            `json:"hypervisor,omitempty" validate:"omitempty,oneof=firecracker qemu"`
	TrustedExecution *TrustedExecution `json:"trusted_execution,omitempty"`
	Reproducible     bool              `json:"reproducible"`
	SharedCache      bool              `json:"shared_cache"`
}

// Instance is a persistent VM with its own root filesystem.
type Instance struct {
	Executable
	Environment InstanceEnvironment `json:"environment"`
	Rootfs      RootfsVolume        `json:"rootfs"`
}

func (*Instance) MessageType() Type { return TypeInstance }
func (*Instance) isPayload()        {}

func (i *Instance) check() error {
	if err := i.checkHashes(); err != nil {
		return err
	}
	if te := i.Environment.TrustedExecution; te != nil {
		if err := presentHash("environment.trusted_execution.firmware", te.Firmware); err != nil {
			return err
		}
	}
	return hashList("rootfs.forgotten_by", i.Rootfs.ForgottenBy)
}

// Confidential reports whether the instance requests trusted execution.
func (i *Instance) Confidential() bool { return i.Environment.TrustedExecution != nil }
