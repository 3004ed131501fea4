// Package config holds the per-hart parameter set ingested at
// construction. Parameters arrive from a YAML file; every boolean
// defaults to the conservative, trapping choice.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/riscv-software-src/riscv-unified-db-sub002/pkg/version"
)

// Extension names an implemented ISA extension and its version.
type Extension struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

// Config is the immutable hart descriptor.
type Config struct {
	MXLEN        int         `yaml:"mxlen"`
	Extensions   []Extension `yaml:"extensions"`
	PhysAddrBits uint        `yaml:"phys_addr_bits"`

	// MBigEndian selects big-endian data accesses in M-mode.
	MBigEndian bool `yaml:"m_big_endian"`

	// AllowMisaligned permits misaligned loads and stores instead of
	// raising an address-misaligned exception.
	AllowMisaligned bool `yaml:"allow_misaligned"`

	// AllowMisalignedFetch treats a misaligned branch target as
	// unpredictable behavior instead of trapping when set.
	AllowMisalignedFetch bool `yaml:"allow_misaligned_fetch"`

	// TrapVectorAlign is the required alignment of the trap vector base,
	// in bytes.
	TrapVectorAlign uint64 `yaml:"trap_vector_align"`
}

// Load reads and validates a YAML configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return Parse(data)
}

// Parse reads a YAML document.
func Parse(data []byte) (*Config, error) {
	c := &Config{}
	if err := yaml.UnmarshalStrict(data, c); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Default returns the conservative baseline configuration: RV64I only,
// everything that can trap does.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.MXLEN == 0 {
		c.MXLEN = 64
	}
	if c.PhysAddrBits == 0 {
		c.PhysAddrBits = 56
	}
	if c.TrapVectorAlign == 0 {
		c.TrapVectorAlign = 4
	}
}

// Validate rejects parameter combinations the model cannot honor.
func (c *Config) Validate() error {
	if c.MXLEN != 32 && c.MXLEN != 64 {
		return fmt.Errorf("config: MXLEN must be 32 or 64, got %d", c.MXLEN)
	}
	if c.PhysAddrBits < 12 || c.PhysAddrBits > 64 {
		return fmt.Errorf("config: phys_addr_bits %d out of range", c.PhysAddrBits)
	}
	if c.TrapVectorAlign&(c.TrapVectorAlign-1) != 0 {
		return fmt.Errorf("config: trap_vector_align %d is not a power of two", c.TrapVectorAlign)
	}
	for _, e := range c.Extensions {
		if e.Name == "" {
			return fmt.Errorf("config: extension with empty name")
		}
		if _, err := version.Parse(e.Version); err != nil {
			return fmt.Errorf("config: extension %s: %w", e.Name, err)
		}
	}
	return nil
}

// Extension looks up an implemented extension by name.
func (c *Config) Extension(name string) (Extension, bool) {
	for _, e := range c.Extensions {
		if e.Name == name {
			return e, true
		}
	}
	return Extension{}, false
}

// ExtensionSatisfies reports whether the named extension is implemented
// at a version satisfying the requirement.
func (c *Config) ExtensionSatisfies(name, requirement string) bool {
	e, ok := c.Extension(name)
	if !ok {
		return false
	}
	req, err := version.ParseRequirement(requirement)
	if err != nil {
		return false
	}
	v, err := version.Parse(e.Version)
	if err != nil {
		return false
	}
	return req.SatisfiedBy(v)
}
