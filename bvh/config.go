package bvh

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// SplitPolicy chooses how an interior node's faces are divided between its two children.
type SplitPolicy int

const (
	// SplitMidpoint splits at the middle of the node's widest axis, trying the other two axes
	// when every face centroid lands on one side.
	SplitMidpoint SplitPolicy = iota
	// SplitMedian splits the face list in half by position.
	SplitMedian
	// SplitSortedMedian sorts faces by centroid along the widest axis, then splits in half.
	SplitSortedMedian
)

func (p SplitPolicy) String() string {
	switch p {
	case SplitMidpoint:
		return "midpoint"
	case SplitMedian:
		return "median"
	case SplitSortedMedian:
		return "sorted_median"
	}
	return fmt.Sprintf("SplitPolicy(%d)", int(p))
}

// MarshalText encodes the policy by name.
func (p SplitPolicy) MarshalText() ([]byte, error) {
	switch p {
	case SplitMidpoint, SplitMedian, SplitSortedMedian:
		return []byte(p.String()), nil
	}
	return nil, errors.Errorf("unknown split policy %d", int(p))
}

// UnmarshalText decodes a policy name.
func (p *SplitPolicy) UnmarshalText(text []byte) error {
	for _, candidate := range []SplitPolicy{SplitMidpoint, SplitMedian, SplitSortedMedian} {
		if candidate.String() == string(text) {
			*p = candidate
			return nil
		}
	}
	return errors.Errorf("unknown split policy %q", string(text))
}

const (
	defaultLeafSize        = 8
	defaultMedianThreshold = 30000
	defaultPoolChunkSize   = 50
	defaultPoolInitialSize = 50
)

// Config controls how a hierarchy is built and queried.
type Config struct {
	SplitPolicy SplitPolicy `json:"split_policy"`
	// LeafSize is the largest face count a node may hold without being split.
	LeafSize int `json:"leaf_size"`
	// MedianThreshold forces SplitMedian for meshes with more faces than this. Zero disables it.
	MedianThreshold int `json:"median_threshold"`
	// PoolChunkSize is how many result records the allocator adds when it runs dry.
	PoolChunkSize int `json:"pool_chunk_size"`
	// PoolInitialSize is how many result records the allocator starts with.
	PoolInitialSize int `json:"pool_initial_size"`
	// FullSAT tests all 15 separating axes between node boxes instead of the 6 face normals.
	FullSAT bool `json:"full_sat"`
}

// DefaultConfig returns the configuration used when Build is given nil.
func DefaultConfig() *Config {
	return &Config{
		SplitPolicy:     SplitMidpoint,
		LeafSize:        defaultLeafSize,
		MedianThreshold: defaultMedianThreshold,
		PoolChunkSize:   defaultPoolChunkSize,
		PoolInitialSize: defaultPoolInitialSize,
	}
}

// Validate ensures all parts of the config are valid.
func (cfg *Config) Validate() error {
	var err error
	switch cfg.SplitPolicy {
	case SplitMidpoint, SplitMedian, SplitSortedMedian:
	default:
		err = multierr.Append(err, errors.Errorf("unknown split policy %d", int(cfg.SplitPolicy)))
	}
	if cfg.LeafSize < 1 {
		err = multierr.Append(err, errors.Errorf("leaf_size must be at least 1, got %d", cfg.LeafSize))
	}
	if cfg.MedianThreshold < 0 {
		err = multierr.Append(err, errors.Errorf("median_threshold must not be negative, got %d", cfg.MedianThreshold))
	}
	if cfg.PoolChunkSize < 1 {
		err = multierr.Append(err, errors.Errorf("pool_chunk_size must be at least 1, got %d", cfg.PoolChunkSize))
	}
	if cfg.PoolInitialSize < 0 {
		err = multierr.Append(err, errors.Errorf("pool_initial_size must not be negative, got %d", cfg.PoolInitialSize))
	}
	return err
}

// ParseConfig decodes an attribute map, keyed by the json field names, over the defaults.
func ParseConfig(attributes map[string]interface{}) (*Config, error) {
	cfg := DefaultConfig()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           cfg,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.TextUnmarshallerHookFunc(),
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(attributes); err != nil {
		return nil, errors.Wrap(err, "cannot decode hierarchy config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
