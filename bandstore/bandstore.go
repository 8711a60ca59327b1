package bandstore

import (
	"fmt"
	"sort"
)

// CompositeKey is the reserved band identifier marking the true-colour
// composite raster. It is stored under this literal key, unprefixed.
const CompositeKey = "triband"

// bandKeyPrefix reconstructs the conventional band-code form from a
// bare identifier, e.g. identifier "03" becomes key "B03".
const bandKeyPrefix = "B"

// Band holds one spectral channel as a flat row-major float64 array.
type Band struct {
	Name          string
	Data          []float64
	Height, Width int
}

// Composite holds the true-colour display raster with the channel axis
// last: Data[(y*Width+x)*Channels+c].
type Composite struct {
	Data          []float64
	Height, Width int
	Channels      int
}

// Store maps band keys to their pixel arrays. It is populated once at
// startup and read-only afterwards.
type Store struct {
	bands     map[string]*Band
	composite *Composite
}

// NewStore validates the shape invariant over the supplied bands: every
// single-channel band shares the same (Height, Width), and the
// composite, when present, matches those spatial dimensions.
func NewStore(bands map[string]*Band, composite *Composite) (*Store, error) {
	if len(bands) == 0 {
		return nil, fmt.Errorf("band store is empty")
	}

	var height, width int
	for _, key := range sortedKeys(bands) {
		b := bands[key]
		if len(b.Data) != b.Height*b.Width {
			return nil, fmt.Errorf("band %s: data length %d does not match %dx%d", key, len(b.Data), b.Height, b.Width)
		}
		if height == 0 && width == 0 {
			height, width = b.Height, b.Width
			continue
		}
		if b.Height != height || b.Width != width {
			return nil, fmt.Errorf("band %s: dimensions %dx%d differ from %dx%d", key, b.Height, b.Width, height, width)
		}
	}

	if composite != nil {
		if composite.Height != height || composite.Width != width {
			return nil, fmt.Errorf("composite dimensions %dx%d differ from band dimensions %dx%d", composite.Height, composite.Width, height, width)
		}
		if len(composite.Data) != composite.Height*composite.Width*composite.Channels {
			return nil, fmt.Errorf("composite data length %d does not match %dx%dx%d", len(composite.Data), composite.Height, composite.Width, composite.Channels)
		}
	}

	return &Store{bands: bands, composite: composite}, nil
}

// Band returns the named band or a lookup error.
func (s *Store) Band(name string) (*Band, error) {
	b, found := s.bands[name]
	if !found {
		return nil, fmt.Errorf("band %s not found in store", name)
	}
	return b, nil
}

// HasBand reports whether the named band was loaded.
func (s *Store) HasBand(name string) bool {
	_, found := s.bands[name]
	return found
}

// Composite returns the true-colour composite, or nil if the data
// directory carried none.
func (s *Store) Composite() *Composite {
	return s.composite
}

// BandNames returns the loaded band keys in sorted order.
func (s *Store) BandNames() []string {
	return sortedKeys(s.bands)
}

func sortedKeys(bands map[string]*Band) []string {
	keys := make([]string, 0, len(bands))
	for k := range bands {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
