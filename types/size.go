package types

import (
	"errors"
	"math/bits"

	humanize "github.com/dustin/go-humanize"
)

// StorageSize is a byte count.
type StorageSize uint64

// String renders s with SI units (kB, MB, GB).
func (s StorageSize) String() string { return humanize.Bytes(uint64(s)) }

// IEC renders s with binary units (KiB, MiB, GiB).
func (s StorageSize) IEC() string { return humanize.IBytes(uint64(s)) }

// ParseStorageSize accepts forms like "297", "1.5 MB" or "2GiB".
func ParseStorageSize(str string) (StorageSize, error) {
	n, err := humanize.ParseBytes(str)
	if err != nil {
		return 0, err
	}
	return StorageSize(n), nil
}

// Unit is a memory unit expressed as bytes per unit.
type Unit uint64

const (
	Bytes Unit = 1
	KiB   Unit = 1 << 10
	MiB   Unit = 1 << 20
	GiB   Unit = 1 << 30
	KB    Unit = 1000
	MB    Unit = 1000 * KB
	GB    Unit = 1000 * MB
)

func (u Unit) String() string {
	switch u {
	case Bytes:
		return "B"
	case KiB:
		return "KiB"
	case MiB:
		return "MiB"
	case GiB:
		return "GiB"
	case KB:
		return "kB"
	case MB:
		return "MB"
	case GB:
		return "GB"
	default:
		return humanize.Comma(int64(u)) + "B"
	}
}

// Rounding selects how inexact conversions resolve.
type Rounding int

const (
	Floor Rounding = iota
	Ceil
	// Nearest rounds half to even.
	Nearest
)

var (
	ErrOverflow = errors.New("types: memory size overflows uint64")
	ErrInexact  = errors.New("types: memory size is not an exact multiple of the target unit")
)

// MemorySize is a count of some Unit, e.g. {Count: 5, Unit: MiB}.
type MemorySize struct {
	Count uint64
	Unit  Unit
}

// Size constructs a MemorySize.
func Size(count uint64, unit Unit) MemorySize { return MemorySize{Count: count, Unit: unit} }

// Bytes converts m to a byte count, failing on overflow.
func (m MemorySize) Bytes() (StorageSize, error) {
	hi, lo := bits.Mul64(m.Count, uint64(m.Unit))
	if hi != 0 {
		return 0, ErrOverflow
	}
	return StorageSize(lo), nil
}

// Convert expresses m in unit, rounding as requested.
func (m MemorySize) Convert(unit Unit, mode Rounding) (MemorySize, error) {
	if unit == 0 {
		return MemorySize{}, errors.New("types: zero unit")
	}
	b, err := m.Bytes()
	if err != nil {
		return MemorySize{}, err
	}
	d := uint64(unit)
	q, r := uint64(b)/d, uint64(b)%d
	var add uint64
	switch mode {
	case Ceil:
		if r > 0 {
			add = 1
		}
	case Nearest:
		twice := r * 2
		if twice > d || (twice == d && q%2 == 1) {
			add = 1
		}
	}
	sum, carry := bits.Add64(q, add, 0)
	if carry != 0 {
		return MemorySize{}, ErrOverflow
	}
	return MemorySize{Count: sum, Unit: unit}, nil
}

// Exact converts m into unit only when no remainder is left.
func (m MemorySize) Exact(unit Unit) (MemorySize, error) {
	b, err := m.Bytes()
	if err != nil {
		return MemorySize{}, err
	}
	if unit == 0 || uint64(b)%uint64(unit) != 0 {
		return MemorySize{}, ErrInexact
	}
	return MemorySize{Count: uint64(b) / uint64(unit), Unit: unit}, nil
}

func (m MemorySize) String() string {
	return humanize.Comma(int64(m.Count)) + " " + m.Unit.String()
}

// GigabyteToMebibyte converts decimal gigabytes to mebibytes, rounding up so
// that data of the given size fits in the allocated volume.
func GigabyteToMebibyte(gb uint64) uint64 {
	n, err := Size(gb, GB).Convert(MiB, Ceil)
	if err != nil {
		return 0
	}
	return n.Count
}
