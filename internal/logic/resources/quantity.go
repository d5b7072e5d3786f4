package resources

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
)

var (
	// ErrNotANumber means the quantity had no leading decimal digits.
	ErrNotANumber = errors.New("quantity is not a number")

	// ErrUnknownSuffix means the quantity carried a suffix outside the unit table.
	ErrUnknownSuffix = errors.New("unknown quantity suffix")
)

// Cpu is a CPU amount in millicores.
type Cpu uint64

// Memory is a memory amount in bytes.
type Memory uint64

// parseAmount turns a quantity string into a unit-less integer. The leading
// run of decimal digits is the number; everything from the first non-digit
// character on is the suffix ("1k2" is digits "1" with suffix "k2").
//
// A missing suffix multiplies by 1000. That is correct for bare CPU
// quantities (cores to millicores) and wrong for bare memory quantities,
// which come out scaled by 1000 instead of in bytes. The behavior is kept
// as-is; callers declaring memory should always use a unit suffix.
func parseAmount(input string) (uint64, error) {
	i := 0
	for i < len(input) && input[i] >= '0' && input[i] <= '9' {
		i++
	}

	digits, suffix := input[:i], input[i:]

	number, err := strconv.ParseUint(digits, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrNotANumber, input)
	}

	switch suffix {
	case "":
		return number * 1000, nil
	case "n":
		return number / 1000 / 1000, nil
	case "m":
		return number, nil
	case "k":
		return number * 1000 * 1000, nil
	case "Ki":
		return number * 1024, nil
	case "Mi":
		return number * 1024 * 1024, nil
	case "Gi":
		return number * 1024 * 1024 * 1024, nil
	}

	return 0, fmt.Errorf("%w: %q in %q", ErrUnknownSuffix, suffix, input)
}

// ParseCPU parses a quantity string as a CPU amount in millicores.
func ParseCPU(input string) (Cpu, error) {
	n, err := parseAmount(input)
	if err != nil {
		return 0, err
	}

	return Cpu(n), nil
}

// ParseMemory parses a quantity string as a memory amount in bytes.
func ParseMemory(input string) (Memory, error) {
	n, err := parseAmount(input)
	if err != nil {
		return 0, err
	}

	return Memory(n), nil
}

// Add returns the sum of two CPU amounts.
func (c Cpu) Add(rhs Cpu) Cpu {
	return c + rhs
}

// SaturatingSub subtracts rhs, clamping at zero.
func (c Cpu) SaturatingSub(rhs Cpu) Cpu {
	if rhs >= c {
		return 0
	}

	return c - rhs
}

func (c Cpu) String() string {
	return strconv.FormatUint(uint64(c), 10) + "m"
}

func (c Cpu) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c Cpu) MarshalYAML() (any, error) {
	return c.String(), nil
}

// Add returns the sum of two memory amounts.
func (m Memory) Add(rhs Memory) Memory {
	return m + rhs
}

// SaturatingSub subtracts rhs, clamping at zero.
func (m Memory) SaturatingSub(rhs Memory) Memory {
	if rhs >= m {
		return 0
	}

	return m - rhs
}

// String renders the amount in binary-scaled (IEC) units, e.g. "512 MiB".
func (m Memory) String() string {
	return humanize.IBytes(uint64(m))
}

func (m Memory) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

func (m Memory) MarshalYAML() (any, error) {
	return m.String(), nil
}
