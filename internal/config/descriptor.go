package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang/geo/r3"

	"github.com/banshee-data/pointfeature/internal/search"
)

// DefaultConfigPath is the path to the canonical descriptor defaults file.
const DefaultConfigPath = "config/descriptor.defaults.json"

// DescriptorConfig holds the neighbourhood and pipeline settings for a
// descriptor run. Nil fields fall back to the Get* defaults, so partial
// files are safe.
type DescriptorConfig struct {
	// Normal estimation
	EstimateNormals *bool    `json:"estimate_normals,omitempty"`
	NormalRadius    *float64 `json:"normal_radius,omitempty"`
	NormalMaxNN     *int     `json:"normal_max_nn,omitempty"`
	OrientNormals   *string  `json:"orient_normals,omitempty"` // "", "centroid", "+x", "-x", "+y", "-y", "+z" or "-z"

	// Descriptor neighbourhood
	SearchMode    *string  `json:"search_mode,omitempty"` // "knn", "radius" or "hybrid"
	FeatureRadius *float64 `json:"feature_radius,omitempty"`
	FeatureMaxNN  *int     `json:"feature_max_nn,omitempty"`

	ColorDescriptor *bool `json:"color_descriptor,omitempty"`
	Workers         *int  `json:"workers,omitempty"` // 0 means all CPUs
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyDescriptorConfig returns a DescriptorConfig with all fields nil.
func EmptyDescriptorConfig() *DescriptorConfig {
	return &DescriptorConfig{}
}

// DefaultDescriptorConfig returns a config with every field set to its
// default value.
func DefaultDescriptorConfig() *DescriptorConfig {
	return &DescriptorConfig{
		EstimateNormals: ptrBool(true),
		NormalRadius:    ptrFloat64(3.1),
		NormalMaxNN:     ptrInt(471),
		OrientNormals:   ptrString(""),
		SearchMode:      ptrString("hybrid"),
		FeatureRadius:   ptrFloat64(3.1),
		FeatureMaxNN:    ptrInt(135),
		ColorDescriptor: ptrBool(true),
		Workers:         ptrInt(0),
	}
}

// LoadDescriptorConfig loads a DescriptorConfig from a JSON file.
// The file must have a .json extension and be under 1MB.
func LoadDescriptorConfig(path string) (*DescriptorConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyDescriptorConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical defaults from DefaultConfigPath,
// searching the current directory and its parents. Panics if the file cannot
// be loaded, intended for test setup.
func MustLoadDefaultConfig() *DescriptorConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath, // from internal/config/
		"../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadDescriptorConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *DescriptorConfig) Validate() error {
	if c.NormalRadius != nil && *c.NormalRadius <= 0 {
		return fmt.Errorf("normal_radius must be positive, got %f", *c.NormalRadius)
	}
	if c.NormalMaxNN != nil && *c.NormalMaxNN < 3 {
		return fmt.Errorf("normal_max_nn must be at least 3, got %d", *c.NormalMaxNN)
	}
	if c.FeatureRadius != nil && *c.FeatureRadius <= 0 {
		return fmt.Errorf("feature_radius must be positive, got %f", *c.FeatureRadius)
	}
	if c.FeatureMaxNN != nil && *c.FeatureMaxNN < 2 {
		return fmt.Errorf("feature_max_nn must be at least 2, got %d", *c.FeatureMaxNN)
	}
	if c.SearchMode != nil {
		if _, err := search.ParseKind(*c.SearchMode); err != nil {
			return fmt.Errorf("invalid search_mode: %w", err)
		}
	}
	if c.OrientNormals != nil && *c.OrientNormals != OrientCentroid {
		if _, _, err := parseDirection(*c.OrientNormals); err != nil {
			return fmt.Errorf("invalid orient_normals: %w", err)
		}
	}
	if c.Workers != nil && *c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", *c.Workers)
	}
	return nil
}

// GetEstimateNormals returns the estimate_normals value or the default.
func (c *DescriptorConfig) GetEstimateNormals() bool {
	if c.EstimateNormals == nil {
		return true
	}
	return *c.EstimateNormals
}

// GetNormalRadius returns the normal_radius value or the default.
func (c *DescriptorConfig) GetNormalRadius() float64 {
	if c.NormalRadius == nil {
		return 3.1
	}
	return *c.NormalRadius
}

// GetNormalMaxNN returns the normal_max_nn value or the default.
func (c *DescriptorConfig) GetNormalMaxNN() int {
	if c.NormalMaxNN == nil {
		return 471
	}
	return *c.NormalMaxNN
}

// GetSearchMode returns the parsed search_mode or the default (hybrid).
func (c *DescriptorConfig) GetSearchMode() search.Kind {
	if c.SearchMode == nil {
		return search.KindHybrid
	}
	k, err := search.ParseKind(*c.SearchMode)
	if err != nil {
		return search.KindHybrid
	}
	return k
}

// GetFeatureRadius returns the feature_radius value or the default.
func (c *DescriptorConfig) GetFeatureRadius() float64 {
	if c.FeatureRadius == nil {
		return 3.1
	}
	return *c.FeatureRadius
}

// GetFeatureMaxNN returns the feature_max_nn value or the default.
func (c *DescriptorConfig) GetFeatureMaxNN() int {
	if c.FeatureMaxNN == nil {
		return 135
	}
	return *c.FeatureMaxNN
}

// GetColorDescriptor returns the color_descriptor value or the default.
func (c *DescriptorConfig) GetColorDescriptor() bool {
	if c.ColorDescriptor == nil {
		return true
	}
	return *c.ColorDescriptor
}

// GetWorkers returns the workers value or the default (0, all CPUs).
func (c *DescriptorConfig) GetWorkers() int {
	if c.Workers == nil {
		return 0
	}
	return *c.Workers
}

// OrientCentroid is the orient_normals value that points every normal at
// the centroid of the cloud.
const OrientCentroid = "centroid"

// GetOrientTowardsCentroid reports whether orient_normals is "centroid".
func (c *DescriptorConfig) GetOrientTowardsCentroid() bool {
	return c.OrientNormals != nil && *c.OrientNormals == OrientCentroid
}

// GetOrientDirection returns the axis normals should be flipped towards,
// and false when no orientation is configured.
func (c *DescriptorConfig) GetOrientDirection() (r3.Vector, bool) {
	if c.OrientNormals == nil {
		return r3.Vector{}, false
	}
	dir, ok, err := parseDirection(*c.OrientNormals)
	if err != nil {
		return r3.Vector{}, false
	}
	return dir, ok
}

// SearchParam builds the descriptor neighbourhood query.
func (c *DescriptorConfig) SearchParam() search.Param {
	switch c.GetSearchMode() {
	case search.KindKNN:
		return search.KNN(c.GetFeatureMaxNN())
	case search.KindRadius:
		return search.Radius(c.GetFeatureRadius())
	default:
		return search.Hybrid(c.GetFeatureRadius(), c.GetFeatureMaxNN())
	}
}

// NormalSearchParam builds the normal estimation query. Normals always use
// a hybrid search.
func (c *DescriptorConfig) NormalSearchParam() search.Param {
	return search.Hybrid(c.GetNormalRadius(), c.GetNormalMaxNN())
}

func parseDirection(s string) (r3.Vector, bool, error) {
	switch s {
	case "":
		return r3.Vector{}, false, nil
	case "+x":
		return r3.Vector{X: 1}, true, nil
	case "-x":
		return r3.Vector{X: -1}, true, nil
	case "+y":
		return r3.Vector{Y: 1}, true, nil
	case "-y":
		return r3.Vector{Y: -1}, true, nil
	case "+z":
		return r3.Vector{Z: 1}, true, nil
	case "-z":
		return r3.Vector{Z: -1}, true, nil
	}
	return r3.Vector{}, false, fmt.Errorf("unknown direction %q", s)
}
