// Package geometry implements the fixed NAND address arithmetic the FTL
// translates against: decomposing a linear physical page index into a
// (package, die, plane, block, page) tuple, and computing the identity
// logical-to-physical mapping before any log-block offset is applied.
package geometry

import "fmt"

// Geometry holds the fixed constants that describe a simulated NAND device,
// plus the values derived from them at load time.
type Geometry struct {
	SSDSize          uint64 `yaml:"ssd_size" validate:"gte=1"`
	PackageSize      uint64 `yaml:"package_size" validate:"gte=1"`
	DieSize          uint64 `yaml:"die_size" validate:"gte=1"`
	PlaneSize        uint64 `yaml:"plane_size" validate:"gte=1"`
	BlockSize        uint64 `yaml:"block_size" validate:"gte=1"`
	BlockErases      uint32 `yaml:"block_erases" validate:"gte=1"`
	Overprovisioning uint64 `yaml:"overprovisioning" validate:"gte=0,lte=100"`

	// Derived, computed by New.
	Raw               uint64 // total physical pages
	OP                uint64 // pages reserved for the log/scratch pool
	Usable            uint64 // logical address space size
	NumLogicalBlocks  uint64
	NumPhysicalBlocks uint64
}

// New validates the configured geometry constants and returns a Geometry
// with all derived fields populated.
func New(ssdSize, packageSize, dieSize, planeSize, blockSize uint64, blockErases uint32, overprovisioning uint64) (*Geometry, error) {
	g := &Geometry{
		SSDSize:          ssdSize,
		PackageSize:      packageSize,
		DieSize:          dieSize,
		PlaneSize:        planeSize,
		BlockSize:        blockSize,
		BlockErases:      blockErases,
		Overprovisioning: overprovisioning,
	}
	if err := g.derive(); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *Geometry) derive() error {
	if g.SSDSize == 0 || g.PackageSize == 0 || g.DieSize == 0 || g.PlaneSize == 0 || g.BlockSize == 0 {
		return fmt.Errorf("geometry: all dimensions must be >= 1")
	}
	if g.Overprovisioning > 100 {
		return fmt.Errorf("geometry: overprovisioning %d must be in [0,100]", g.Overprovisioning)
	}
	g.Raw = g.SSDSize * g.PackageSize * g.DieSize * g.PlaneSize * g.BlockSize
	g.OP = g.Raw * g.Overprovisioning / 100
	if g.OP >= g.Raw {
		return fmt.Errorf("geometry: overprovisioning leaves no usable address space")
	}
	g.Usable = g.Raw - g.OP
	g.NumLogicalBlocks = g.Usable / g.BlockSize
	g.NumPhysicalBlocks = g.Raw / g.BlockSize
	return nil
}

// PhysicalAddress is the decomposed hierarchy address of a physical page.
type PhysicalAddress struct {
	Package uint64
	Die     uint64
	Plane   uint64
	Block   uint64
	Page    uint64
}

// Decompose converts a linear physical page index into its hierarchy
// address.
func (g *Geometry) Decompose(p uint64) PhysicalAddress {
	page := p % g.BlockSize
	rest := p / g.BlockSize
	block := rest % g.PlaneSize
	rest /= g.PlaneSize
	plane := rest % g.DieSize
	rest /= g.DieSize
	die := rest % g.PackageSize
	rest /= g.PackageSize
	pkg := rest % g.SSDSize
	return PhysicalAddress{Package: pkg, Die: die, Plane: plane, Block: block, Page: page}
}

// LogicalBlockOf returns the logical block index L/BlockSize for a logical
// address, and its page offset within that block (L mod BlockSize).
func (g *Geometry) LogicalBlockOf(logicalAddr uint64) (block uint64, pageOffset uint64) {
	return logicalAddr / g.BlockSize, logicalAddr % g.BlockSize
}

// DataPage computes the physical page that the identity mapping, shifted by
// blockOffset, assigns to logicalAddr:
// P = (L mod BLOCK_SIZE) + BLOCK_SIZE*((L/BLOCK_SIZE) + offset[L/BLOCK_SIZE]).
func (g *Geometry) DataPage(logicalAddr uint64, blockOffset int64) uint64 {
	block, pageOffset := g.LogicalBlockOf(logicalAddr)
	physBlock := int64(block) + blockOffset
	return pageOffset + g.BlockSize*uint64(physBlock)
}

// BlockBase returns the first physical page of physical block b.
func (g *Geometry) BlockBase(b uint64) uint64 {
	return b * g.BlockSize
}
