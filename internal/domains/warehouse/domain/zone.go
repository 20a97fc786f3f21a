package domain

import (
	"errors"
	"fmt"
	"slices"
)

var (
	ErrInvalidZone     = errors.New("zone id is required")
	ErrInvalidCapacity = errors.New("zone capacity must be greater than zero")
	ErrOverCapacity    = errors.New("zone utilization exceeds capacity")
	ErrInvalidBin      = errors.New("zone bin is out of range or held twice")
)

// Zone is a storage section with a bounded number of bins. Each active task holds one bin.
type Zone struct {
	ID       string
	Name     string
	Capacity int
	// Utilization always equals len(OccupiedBins).
	Utilization int
	// OccupiedBins holds the 1-based bin numbers in use, ascending.
	OccupiedBins []int
}

// Validate enforces 0 <= utilization <= capacity and a distinct, in-range bin set.
func (z Zone) Validate() error {
	if z.ID == "" {
		return ErrInvalidZone
	}
	if z.Capacity <= 0 {
		return ErrInvalidCapacity
	}
	if z.Utilization < 0 || z.Utilization > z.Capacity || len(z.OccupiedBins) > z.Capacity {
		return ErrOverCapacity
	}
	if z.Utilization != len(z.OccupiedBins) {
		return ErrInvalidBin
	}
	seen := make(map[int]struct{}, len(z.OccupiedBins))
	for _, bin := range z.OccupiedBins {
		if bin < 1 || bin > z.Capacity {
			return ErrInvalidBin
		}
		if _, dup := seen[bin]; dup {
			return ErrInvalidBin
		}
		seen[bin] = struct{}{}
	}
	return nil
}

// HasCapacity reports whether another task fits.
func (z Zone) HasCapacity() bool {
	return z.Utilization < z.Capacity
}

// Claim takes the lowest free bin.
func (z *Zone) Claim() (int, error) {
	if !z.HasCapacity() {
		return 0, ErrOverCapacity
	}
	bin := 1
	for _, held := range z.OccupiedBins {
		if held != bin {
			break
		}
		bin++
	}
	if bin > z.Capacity {
		return 0, ErrOverCapacity
	}
	z.OccupiedBins = append(z.OccupiedBins, bin)
	slices.Sort(z.OccupiedBins)
	z.Utilization = len(z.OccupiedBins)
	return bin, nil
}

// Free gives bin back. It reports false when the bin was not held.
func (z *Zone) Free(bin int) bool {
	idx := slices.Index(z.OccupiedBins, bin)
	if idx < 0 {
		return false
	}
	z.OccupiedBins = slices.Delete(z.OccupiedBins, idx, idx+1)
	z.Utilization = len(z.OccupiedBins)
	return true
}

// Clone returns a copy that does not share the bin slice.
func (z Zone) Clone() Zone {
	z.OccupiedBins = slices.Clone(z.OccupiedBins)
	return z
}

// BinFor names a 1-based bin in the zone, e.g. "Section B7".
func (z Zone) BinFor(bin int) string {
	return fmt.Sprintf("Section %s%d", z.ID, bin)
}

// DefaultZones returns sections A, B and C with twenty bins each.
func DefaultZones() []Zone {
	return []Zone{
		{ID: "A", Name: "Section A", Capacity: 20},
		{ID: "B", Name: "Section B", Capacity: 20},
		{ID: "C", Name: "Section C", Capacity: 20},
	}
}
