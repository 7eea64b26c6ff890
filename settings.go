package subdiv

import (
	"fmt"
	"io"

	"github.com/BurntSushi/toml"
)

// MaxLevel is the deepest isolation level the refiner accepts.
const MaxLevel = 10

// VtxBoundaryInterpolation controls how boundary vertices are refined.
type VtxBoundaryInterpolation int

const (
	// VtxBoundaryNone does not interpolate boundaries.
	VtxBoundaryNone VtxBoundaryInterpolation = iota
	// VtxBoundaryEdgeOnly sharpens boundary edges.
	VtxBoundaryEdgeOnly
	// VtxBoundaryEdgeAndCorner sharpens boundary edges and corners.
	VtxBoundaryEdgeAndCorner
)

var vtxBoundaryNames = [...]string{"none", "edge_only", "edge_and_corner"}

func (b VtxBoundaryInterpolation) String() string {
	if b < 0 || int(b) >= len(vtxBoundaryNames) {
		return fmt.Sprintf("VtxBoundaryInterpolation(%d)", int(b))
	}
	return vtxBoundaryNames[b]
}

func (b VtxBoundaryInterpolation) MarshalText() ([]byte, error) {
	if b < 0 || int(b) >= len(vtxBoundaryNames) {
		return nil, fmt.Errorf("%w: boundary interpolation %d", ErrInvalidSettings, int(b))
	}
	return []byte(vtxBoundaryNames[b]), nil
}

func (b *VtxBoundaryInterpolation) UnmarshalText(text []byte) error {
	for i, name := range vtxBoundaryNames {
		if name == string(text) {
			*b = VtxBoundaryInterpolation(i)
			return nil
		}
	}
	return fmt.Errorf("%w: unknown boundary interpolation %q", ErrInvalidSettings, text)
}

// FVarLinearInterpolation controls which parts of face-varying data (UVs)
// are interpolated linearly instead of smoothed.
type FVarLinearInterpolation int

const (
	FVarLinearNone FVarLinearInterpolation = iota
	FVarLinearCornersOnly
	FVarLinearCornersAndJunctions
	FVarLinearCornersJunctionsAndConcave
	FVarLinearBoundaries
	FVarLinearAll
)

var fvarLinearNames = [...]string{
	"none",
	"corners_only",
	"corners_and_junctions",
	"corners_junctions_and_concave",
	"boundaries",
	"all",
}

func (f FVarLinearInterpolation) String() string {
	if f < 0 || int(f) >= len(fvarLinearNames) {
		return fmt.Sprintf("FVarLinearInterpolation(%d)", int(f))
	}
	return fvarLinearNames[f]
}

func (f FVarLinearInterpolation) MarshalText() ([]byte, error) {
	if f < 0 || int(f) >= len(fvarLinearNames) {
		return nil, fmt.Errorf("%w: face-varying interpolation %d", ErrInvalidSettings, int(f))
	}
	return []byte(fvarLinearNames[f]), nil
}

func (f *FVarLinearInterpolation) UnmarshalText(text []byte) error {
	for i, name := range fvarLinearNames {
		if name == string(text) {
			*f = FVarLinearInterpolation(i)
			return nil
		}
	}
	return fmt.Errorf("%w: unknown face-varying interpolation %q", ErrInvalidSettings, text)
}

// Settings describes the subdivision surface a descriptor is built for.
//
// IsSimple selects the linear scheme: new vertices are placed on the
// existing surface without smoothing. Otherwise Catmull-Clark is used.
//
// IsAdaptive evaluates the limit surface regardless of Level. When false a
// fixed uniform depth is used, so level 2 equals level 1 applied twice.
//
// Level is the isolation depth (the "quality" of the surface).
type Settings struct {
	IsSimple                 bool                     `toml:"is_simple"`
	IsAdaptive               bool                     `toml:"is_adaptive"`
	Level                    int                      `toml:"level"`
	UseCreases               bool                     `toml:"use_creases"`
	VtxBoundaryInterpolation VtxBoundaryInterpolation `toml:"vtx_boundary_interpolation"`
	FVarLinearInterpolation  FVarLinearInterpolation  `toml:"fvar_linear_interpolation"`
}

// DefaultSettings matches the defaults of a freshly added subdivision
// modifier.
func DefaultSettings() Settings {
	return Settings{
		IsSimple:                 false,
		IsAdaptive:               false,
		Level:                    3,
		UseCreases:               true,
		VtxBoundaryInterpolation: VtxBoundaryEdgeOnly,
		FVarLinearInterpolation:  FVarLinearBoundaries,
	}
}

// SettingsEqual reports whether a descriptor built for a can be reused for b.
func SettingsEqual(a, b Settings) bool {
	return a.IsSimple == b.IsSimple &&
		a.IsAdaptive == b.IsAdaptive &&
		a.Level == b.Level &&
		a.UseCreases == b.UseCreases &&
		a.VtxBoundaryInterpolation == b.VtxBoundaryInterpolation &&
		a.FVarLinearInterpolation == b.FVarLinearInterpolation
}

// Validate checks that all fields are in range.
func (s Settings) Validate() error {
	if s.Level < 0 || s.Level > MaxLevel {
		return fmt.Errorf("%w: level %d out of range [0, %d]", ErrInvalidSettings, s.Level, MaxLevel)
	}
	if s.VtxBoundaryInterpolation < VtxBoundaryNone || s.VtxBoundaryInterpolation > VtxBoundaryEdgeAndCorner {
		return fmt.Errorf("%w: boundary interpolation %d", ErrInvalidSettings, int(s.VtxBoundaryInterpolation))
	}
	if s.FVarLinearInterpolation < FVarLinearNone || s.FVarLinearInterpolation > FVarLinearAll {
		return fmt.Errorf("%w: face-varying interpolation %d", ErrInvalidSettings, int(s.FVarLinearInterpolation))
	}
	return nil
}

// UVSmooth is the UV smoothing option of the subdivision modifier.
type UVSmooth int

const (
	UVSmoothNone UVSmooth = iota
	UVSmoothPreserveCorners
	UVSmoothPreserveCornersAndJunctions
	UVSmoothPreserveCornersJunctionsAndConcave
	UVSmoothPreserveBoundaries
	UVSmoothAll
)

// FVarInterpolationFromUVSmooth converts the modifier UV smoothing option.
// Unknown values fall back to fully linear UVs.
func FVarInterpolationFromUVSmooth(uvSmooth UVSmooth) FVarLinearInterpolation {
	switch uvSmooth {
	case UVSmoothNone:
		return FVarLinearAll
	case UVSmoothPreserveCorners:
		return FVarLinearCornersOnly
	case UVSmoothPreserveCornersAndJunctions:
		return FVarLinearCornersAndJunctions
	case UVSmoothPreserveCornersJunctionsAndConcave:
		return FVarLinearCornersJunctionsAndConcave
	case UVSmoothPreserveBoundaries:
		return FVarLinearBoundaries
	case UVSmoothAll:
		return FVarLinearNone
	}
	Logger().Warn("unknown uv smooth option", "value", int(uvSmooth))
	return FVarLinearAll
}

// BoundarySmooth is the boundary smoothing option of the subdivision modifier.
type BoundarySmooth int

const (
	BoundarySmoothAll BoundarySmooth = iota
	BoundarySmoothPreserveCorners
)

// VtxBoundaryInterpolationFromSubsurf converts the modifier boundary option.
func VtxBoundaryInterpolationFromSubsurf(boundarySmooth BoundarySmooth) VtxBoundaryInterpolation {
	switch boundarySmooth {
	case BoundarySmoothPreserveCorners:
		return VtxBoundaryEdgeAndCorner
	case BoundarySmoothAll:
		return VtxBoundaryEdgeOnly
	}
	Logger().Warn("unknown boundary smooth option", "value", int(boundarySmooth))
	return VtxBoundaryEdgeOnly
}

// DecodeSettings reads TOML settings. Missing keys keep their
// DefaultSettings value.
func DecodeSettings(r io.Reader) (Settings, error) {
	s := DefaultSettings()
	if _, err := toml.NewDecoder(r).Decode(&s); err != nil {
		return Settings{}, fmt.Errorf("could not decode settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// LoadSettingsFile reads TOML settings from a file.
func LoadSettingsFile(fileName string) (Settings, error) {
	s := DefaultSettings()
	if _, err := toml.DecodeFile(fileName, &s); err != nil {
		return Settings{}, fmt.Errorf("could not read settings file %s: %w", fileName, err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, fmt.Errorf("settings file %s: %w", fileName, err)
	}
	return s, nil
}

// EncodeSettings writes settings as TOML.
func EncodeSettings(w io.Writer, s Settings) error {
	if err := toml.NewEncoder(w).Encode(s); err != nil {
		return fmt.Errorf("could not encode settings: %w", err)
	}
	return nil
}
