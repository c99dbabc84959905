package environment

import "fmt"

// ObsMode selects how observations are assembled. Modes are resolved
// once at construction; unknown names are rejected there rather than
// at call time.
type ObsMode int

const (
	ObsNone ObsMode = iota
	ObsState
	ObsStateDict
	ObsSensorData
	ObsRGB
	ObsRGBD
	ObsPointCloud
)

var obsModes = map[string]ObsMode{
	"none":        ObsNone,
	"state":       ObsState,
	"state_dict":  ObsStateDict,
	"sensor_data": ObsSensorData,
	"rgb":         ObsRGB,
	"rgbd":        ObsRGBD,
	"pointcloud":  ObsPointCloud,
}

// ParseObsMode resolves an observation mode name. The empty name
// selects the default, "state".
func ParseObsMode(name string) (ObsMode, error) {
	if name == "" {
		return ObsState, nil
	}
	m, ok := obsModes[name]
	if !ok {
		return 0, fmt.Errorf("%w: unsupported obs mode %q", ErrConfiguration,
			name)
	}
	return m, nil
}

func (m ObsMode) String() string {
	for name, mode := range obsModes {
		if mode == m {
			return name
		}
	}
	return "unknown"
}

// visual returns whether the mode requires a sensor capture pass
func (m ObsMode) visual() bool {
	return m == ObsSensorData || m == ObsRGB || m == ObsRGBD ||
		m == ObsPointCloud
}

// RewardMode selects how rewards are computed
type RewardMode int

const (
	RewardNormalizedDense RewardMode = iota
	RewardDense
	RewardSparse
	RewardNone
)

var rewardModes = map[string]RewardMode{
	"normalized_dense": RewardNormalizedDense,
	"dense":            RewardDense,
	"sparse":           RewardSparse,
	"none":             RewardNone,
}

// ParseRewardMode resolves a reward mode name. The empty name selects
// the default, "normalized_dense".
func ParseRewardMode(name string) (RewardMode, error) {
	if name == "" {
		return RewardNormalizedDense, nil
	}
	m, ok := rewardModes[name]
	if !ok {
		return 0, fmt.Errorf("%w: unsupported reward mode %q",
			ErrConfiguration, name)
	}
	return m, nil
}

func (m RewardMode) String() string {
	for name, mode := range rewardModes {
		if mode == m {
			return name
		}
	}
	return "unknown"
}

// RenderMode selects the output of Render
type RenderMode int

const (
	// RenderOff disables rendering
	RenderOff RenderMode = iota
	// RenderHuman writes a terminal-readable view
	RenderHuman
	// RenderRGBArray returns a batched image tensor from the human
	// render cameras
	RenderRGBArray
	// RenderSensors returns a tiled composite of all sensor outputs
	RenderSensors
)

var renderModes = map[string]RenderMode{
	"":          RenderOff,
	"human":     RenderHuman,
	"rgb_array": RenderRGBArray,
	"sensors":   RenderSensors,
}

// ParseRenderMode resolves a render mode name. The empty name
// disables rendering.
func ParseRenderMode(name string) (RenderMode, error) {
	m, ok := renderModes[name]
	if !ok {
		return 0, fmt.Errorf("%w: unsupported render mode %q",
			ErrConfiguration, name)
	}
	return m, nil
}

// Backend selects the simulation backend family
type Backend int

const (
	// BackendAuto picks the host backend for one replica and the
	// batched backend otherwise
	BackendAuto Backend = iota
	// BackendHost is the single-replica host backend
	BackendHost
	// BackendBatched is the accelerator-style backend with staged
	// writes and snapshot reads
	BackendBatched
	// BackendPlanar is the Box2D tabletop backend
	BackendPlanar
)

var backends = map[string]Backend{
	"":        BackendAuto,
	"auto":    BackendAuto,
	"host":    BackendHost,
	"batched": BackendBatched,
	"planar":  BackendPlanar,
}

// ParseBackend resolves a backend name
func ParseBackend(name string) (Backend, error) {
	b, ok := backends[name]
	if !ok {
		return 0, fmt.Errorf("%w: unsupported backend %q", ErrConfiguration,
			name)
	}
	return b, nil
}
