// Package conf defines the service configuration, loaded from YAML through
// the kratos config stack.
package conf

import (
	"fmt"

	"github.com/go-kratos/kratos/v2/config"
	"github.com/go-kratos/kratos/v2/config/file"
)

// Bootstrap is the root configuration object.
type Bootstrap struct {
	Server *Server `json:"server"`
	Data   *Data   `json:"data"`
	Dedup  *Dedup  `json:"dedup"`
	Assess *Assess `json:"assess"`
}

// Server holds transport configuration.
type Server struct {
	HTTP *HTTPServer `json:"http"`
}

// HTTPServer holds the HTTP listener configuration.
type HTTPServer struct {
	Network string `json:"network"`
	Addr    string `json:"addr"`
	Timeout int64  `json:"timeout"` // seconds
}

// Data holds storage backends.
type Data struct {
	Database *Database `json:"database"`
	Redis    *Redis    `json:"redis"`
}

// Database holds the postgres catalog configuration.
type Database struct {
	Driver string `json:"driver"`
	Source string `json:"source"`
	Pool   *Pool  `json:"pool"`
}

// Pool holds pgx pool sizing.
type Pool struct {
	MaxOpenConns    int32 `json:"max_open_conns"`
	MinIdleConns    int32 `json:"min_idle_conns"`
	MaxConnLifetime int64 `json:"max_conn_lifetime"` // minutes
	MaxConnIdleTime int64 `json:"max_conn_idle_time"` // minutes
}

// Redis holds the cache/bloom backend configuration.
type Redis struct {
	Addr         string `json:"addr"`
	Network      string `json:"network"`
	ReadTimeout  int64  `json:"read_timeout"`  // seconds
	WriteTimeout int64  `json:"write_timeout"` // seconds
}

// Dedup holds the duplicate-index tuning surface.
type Dedup struct {
	// NumBands is the LSH band count; must evenly divide the fingerprint
	// hex length. More bands, higher recall, bigger candidate sets.
	NumBands int `json:"num_bands"`
	// SimilarityThreshold is the maximum Hamming distance in bits still
	// considered a duplicate. A pointer so an explicit 0 (exact match
	// only) survives defaulting.
	SimilarityThreshold *int `json:"similarity_threshold"`
	// IndexPath is the JSON snapshot location.
	IndexPath string `json:"index_path"`
	// SaveEvery is the number of registrations between checkpoint saves.
	// A pointer so an explicit 0 (checkpointing off) survives defaulting.
	SaveEvery *int `json:"save_every"`

	BloomKey       string `json:"bloom_key"`
	BloomBits      uint   `json:"bloom_bits"`
	BloomHashFuncs uint   `json:"bloom_hash_funcs"`
}

// Threshold returns the similarity threshold, defaulted when unset.
func (d *Dedup) Threshold() int {
	if d.SimilarityThreshold == nil {
		return defaultSimilarityThreshold
	}
	return *d.SimilarityThreshold
}

// CheckpointEvery returns the checkpoint interval, defaulted when unset.
func (d *Dedup) CheckpointEvery() int {
	if d.SaveEvery == nil {
		return defaultSaveEvery
	}
	return *d.SaveEvery
}

// Assess holds the downstream visual-assessment boundary configuration.
type Assess struct {
	Endpoints  []string `json:"endpoints"`
	HealthAddr string   `json:"health_addr"`
	Timeout    int64    `json:"timeout"` // seconds
	Workers    int      `json:"workers"`
}

// Load reads and decodes the bootstrap configuration from path.
func Load(path string) (*Bootstrap, error) {
	c := config.New(config.WithSource(file.NewSource(path)))
	defer c.Close()

	if err := c.Load(); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}

	var bc Bootstrap
	if err := c.Scan(&bc); err != nil {
		return nil, fmt.Errorf("scan config %s: %w", path, err)
	}
	bc.applyDefaults()
	return &bc, nil
}

const (
	defaultSimilarityThreshold = 10
	defaultSaveEvery           = 100
)

func (bc *Bootstrap) applyDefaults() {
	if bc.Dedup == nil {
		bc.Dedup = &Dedup{}
	}
	if bc.Dedup.NumBands == 0 {
		bc.Dedup.NumBands = 4
	}
	if bc.Dedup.SimilarityThreshold == nil {
		threshold := defaultSimilarityThreshold
		bc.Dedup.SimilarityThreshold = &threshold
	}
	if bc.Dedup.IndexPath == "" {
		bc.Dedup.IndexPath = "dupindex.json"
	}
	if bc.Dedup.SaveEvery == nil {
		saveEvery := defaultSaveEvery
		bc.Dedup.SaveEvery = &saveEvery
	}
	if bc.Dedup.BloomKey == "" {
		bc.Dedup.BloomKey = "imagedup:bloom:phash"
	}
	if bc.Dedup.BloomBits == 0 {
		bc.Dedup.BloomBits = 1 << 20
	}
	if bc.Dedup.BloomHashFuncs == 0 {
		bc.Dedup.BloomHashFuncs = 7
	}
	if bc.Assess != nil && bc.Assess.Workers == 0 {
		bc.Assess.Workers = 4
	}
}
