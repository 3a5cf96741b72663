package estimator

import "math"

// Mode selects which surfaces of a job are measured and priced.
type Mode string

const (
	ModeBuilding Mode = "building"
	ModeWalls    Mode = "walls"
	ModeFlat     Mode = "flat"
)

// Valid reports whether m is a known geometry mode.
func (m Mode) Valid() bool {
	switch m {
	case ModeBuilding, ModeWalls, ModeFlat:
		return true
	}
	return false
}

// pitchRun is the horizontal run a roof pitch is expressed against ("X in 12").
const pitchRun = 12.0

// Geometry produces the sprayable wall and roof areas, in square feet, of one job.
type Geometry interface {
	Mode() Mode
	Areas() (wall, roof float64)
}

// Building is a rectangular box with a pitched roof.
type Building struct {
	Length     float64 `json:"length"`
	Width      float64 `json:"width"`
	WallHeight float64 `json:"wallHeight"`
	RoofPitch  float64 `json:"roofPitch"`
	Gable      bool    `json:"isGable"`
}

// Mode implements Geometry.
func (b Building) Mode() Mode { return ModeBuilding }

// Areas implements Geometry. Gable triangles are added to the wall area, one per end.
func (b Building) Areas() (float64, float64) {
	wall := (b.Length + b.Width) * 2 * b.WallHeight
	roof := b.Length * b.Width * PitchFactor(b.RoofPitch)

	if b.Gable {
		rise := (b.RoofPitch / pitchRun) * (b.Width / 2)
		wall += 2 * (0.5 * b.Width * rise)
	}

	return wall, roof
}

// WallsOnly is a run of straight wall with no roof.
type WallsOnly struct {
	LinearFeet float64 `json:"linearFeet"`
	WallHeight float64 `json:"wallHeight"`
}

// Mode implements Geometry.
func (w WallsOnly) Mode() Mode { return ModeWalls }

// Areas implements Geometry.
func (w WallsOnly) Areas() (float64, float64) {
	return w.LinearFeet * w.WallHeight, 0
}

// FlatArea is a single flat ceiling or roof deck.
type FlatArea struct {
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
}

// Mode implements Geometry.
func (f FlatArea) Mode() Mode { return ModeFlat }

// Areas implements Geometry.
func (f FlatArea) Areas() (float64, float64) {
	return 0, f.Length * f.Width
}

// PitchFactor is the slope-length multiplier for a roof rising pitch units per 12 of run.
func PitchFactor(pitch float64) float64 {
	return math.Sqrt(pitchRun*pitchRun+pitch*pitch) / pitchRun
}

// Dimensions is the flat, mode-independent form of a job's measurements.
// In walls mode Length is the linear wall footage and Width carries the wall height.
type Dimensions struct {
	Length     float64 `json:"length"`
	Width      float64 `json:"width"`
	WallHeight float64 `json:"wallHeight"`
	RoofPitch  float64 `json:"roofPitch"`
	IsGable    bool    `json:"isGable"`
}

// DefaultDimensions returns the measurements a new estimate starts from.
func DefaultDimensions() Dimensions {
	return Dimensions{WallHeight: 8, IsGable: true}
}

// Geometry converts d into the variant for mode. It returns nil for an unknown mode.
func (d Dimensions) Geometry(mode Mode) Geometry {
	switch mode {
	case ModeBuilding:
		return Building{
			Length:     d.Length,
			Width:      d.Width,
			WallHeight: d.WallHeight,
			RoofPitch:  d.RoofPitch,
			Gable:      d.IsGable,
		}
	case ModeWalls:
		return WallsOnly{LinearFeet: d.Length, WallHeight: d.Width}
	case ModeFlat:
		return FlatArea{Length: d.Length, Width: d.Width}
	}
	return nil
}
