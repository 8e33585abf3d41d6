package biz

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/bananahana720/PHX-houses-Dec-2025-sub010/internal/conf"
	"github.com/bananahana720/PHX-houses-Dec-2025-sub010/internal/pkg/assess"
	"github.com/bananahana720/PHX-houses-Dec-2025-sub010/internal/pkg/hash"
	"github.com/bananahana720/PHX-houses-Dec-2025-sub010/internal/pkg/redis"
)

// ErrMissingID indicates an ingest request without an image or property ID.
var ErrMissingID = errors.New("image_id and property_id are required")

// IngestItem is one photo handed to the ingest pipeline.
type IngestItem struct {
	ImageID    string
	PropertyID string
	Source     string
	Data       []byte
}

// IngestResult reports what the pipeline decided for one photo.
type IngestResult struct {
	ImageID     string        `json:"image_id"`
	Status      ImageStatus   `json:"status"`
	DuplicateOf string        `json:"duplicate_of,omitempty"`
	Hashes      hash.HashPair `json:"-"`
	PHash       string        `json:"phash"`
	DHash       string        `json:"dhash"`
}

// IngestUsecase runs the full ingest flow: exact content-hash short-circuit,
// perceptual hashing, duplicate query, registration, catalog upsert and
// downstream forwarding.
type IngestUsecase struct {
	hasher   *hash.PerceptualHasher
	dedup    *DedupUsecase
	repo     PropertyImageRepo
	assessor *assess.Client
	workers  int

	// decide serializes the query-then-register window so two copies of the
	// same photo in one batch cannot both pass the duplicate check.
	decide sync.Mutex

	saveEvery int
	unsaved   int
	saveMu    sync.Mutex

	log *log.Helper
}

// NewIngestUsecase builds the pipeline. The assessment client is optional;
// without endpoints accepted images are simply not forwarded.
func NewIngestUsecase(
	cd *conf.Dedup,
	ca *conf.Assess,
	dedupUc *DedupUsecase,
	repo PropertyImageRepo,
	cache redis.Cache,
	logger log.Logger,
) (*IngestUsecase, error) {
	helper := log.NewHelper(logger)

	uc := &IngestUsecase{
		hasher:    hash.NewPerceptualHasher(),
		dedup:     dedupUc,
		repo:      repo,
		workers:   4,
		saveEvery: cd.CheckpointEvery(),
		log:       helper,
	}

	if ca != nil && len(ca.Endpoints) > 0 {
		client, err := assess.NewClient(assess.Config{
			Endpoints: ca.Endpoints,
			Timeout:   time.Duration(ca.Timeout) * time.Second,
			Cache:     cache,
		})
		if err != nil {
			return nil, fmt.Errorf("build assessment client: %w", err)
		}
		uc.assessor = client
		if ca.Workers > 0 {
			uc.workers = ca.Workers
		}
		if ca.HealthAddr != "" {
			uc.probeAssessment(ca.HealthAddr)
		}
	}

	return uc, nil
}

// probeAssessment checks the downstream tier once at startup. A failure is
// logged, not fatal; ingest still works, forwarding just fails later.
func (uc *IngestUsecase) probeAssessment(addr string) {
	cfg := assess.DefaultGRPCConfig(addr)
	conn, err := assess.Dial(cfg)
	if err != nil {
		uc.log.Warnf("assessment tier unreachable: %v", err)
		return
	}
	defer conn.Close()

	if err := assess.Ping(context.Background(), conn, cfg); err != nil {
		uc.log.Warnf("assessment tier not serving: %v", err)
		return
	}
	uc.log.Infof("assessment tier healthy at %s", addr)
}

// Ingest runs the pipeline for one photo.
func (uc *IngestUsecase) Ingest(ctx context.Context, item IngestItem) (*IngestResult, error) {
	if item.ImageID == "" || item.PropertyID == "" {
		return nil, ErrMissingID
	}
	source := NormalizeSource(item.Source)

	// Byte-identical re-hosts are common across listing sites; catch them
	// before perceptual hashing.
	contentHash := hash.ContentHash(item.Data)
	if existing, err := uc.repo.GetByContentHash(ctx, contentHash); err != nil {
		uc.log.Warnf("content-hash lookup failed for %s: %v", item.ImageID, err)
	} else if existing != nil && existing.ImageID != item.ImageID {
		return uc.recordDuplicate(ctx, item, source, contentHash, hash.HashPair{}, existing.ImageID)
	}

	pair, err := uc.hasher.ComputeHashesFromBytes(item.Data)
	if err != nil {
		return nil, err
	}

	uc.decide.Lock()
	dupID, isDup := uc.dedup.CheckDuplicate(ctx, pair)
	if isDup && dupID != item.ImageID {
		uc.decide.Unlock()
		return uc.recordDuplicate(ctx, item, source, contentHash, pair, dupID)
	}
	uc.dedup.Register(ctx, item.ImageID, item.PropertyID, source, pair)
	uc.decide.Unlock()

	now := time.Now().UTC()
	if err := uc.repo.Upsert(ctx, &PropertyImage{
		ImageID:      item.ImageID,
		PropertyID:   item.PropertyID,
		Source:       source,
		PHash:        pair.PHash,
		DHash:        pair.DHash,
		ContentHash:  contentHash,
		Status:       ImageStatusAccepted,
		RegisteredAt: now,
		UpdatedAt:    now,
	}); err != nil {
		uc.log.Warnf("catalog upsert failed for %s: %v", item.ImageID, err)
	}

	uc.forward(ctx, item)
	uc.checkpoint()

	return &IngestResult{
		ImageID: item.ImageID,
		Status:  ImageStatusAccepted,
		Hashes:  pair,
		PHash:   pair.PHash.String(),
		DHash:   pair.DHash.String(),
	}, nil
}

// IngestBatch hashes photos on a bounded worker pool; results keep the
// input order. Items that fail keep a nil slot and a logged warning.
func (uc *IngestUsecase) IngestBatch(ctx context.Context, items []IngestItem) []*IngestResult {
	workerCount := uc.workers
	if workerCount <= 0 {
		workerCount = 4
	}
	type job struct {
		index int
		item  IngestItem
	}
	jobs := make(chan job)
	results := make([]*IngestResult, len(items))
	var wg sync.WaitGroup
	worker := func() {
		defer wg.Done()
		for j := range jobs {
			select {
			case <-ctx.Done():
				return
			default:
			}
			res, err := uc.Ingest(ctx, j.item)
			if err != nil {
				uc.log.Warnf("failed to ingest image %s: %v", j.item.ImageID, err)
				continue
			}
			results[j.index] = res
		}
	}
	wg.Add(workerCount)
	for i := 0; i < workerCount; i++ {
		go worker()
	}
	for i, item := range items {
		// Workers bail out on cancellation; never block on a channel
		// nobody reads anymore.
		select {
		case jobs <- job{index: i, item: item}:
		case <-ctx.Done():
		}
	}
	close(jobs)
	wg.Wait()
	return results
}

func (uc *IngestUsecase) recordDuplicate(ctx context.Context, item IngestItem, source, contentHash string, pair hash.HashPair, dupID string) (*IngestResult, error) {
	now := time.Now().UTC()
	if err := uc.repo.Upsert(ctx, &PropertyImage{
		ImageID:      item.ImageID,
		PropertyID:   item.PropertyID,
		Source:       source,
		PHash:        pair.PHash,
		DHash:        pair.DHash,
		ContentHash:  contentHash,
		Status:       ImageStatusDuplicate,
		DuplicateOf:  dupID,
		RegisteredAt: now,
		UpdatedAt:    now,
	}); err != nil {
		uc.log.Warnf("catalog upsert failed for duplicate %s: %v", item.ImageID, err)
	}
	uc.log.Infof("image %s is a duplicate of %s", item.ImageID, dupID)
	return &IngestResult{
		ImageID:     item.ImageID,
		Status:      ImageStatusDuplicate,
		DuplicateOf: dupID,
		Hashes:      pair,
		PHash:       pair.PHash.String(),
		DHash:       pair.DHash.String(),
	}, nil
}

// forward hands an accepted photo to the downstream assessment tier.
// Best effort: assessment failures never undo a registration.
func (uc *IngestUsecase) forward(ctx context.Context, item IngestItem) {
	if uc.assessor == nil {
		return
	}
	if _, err := uc.assessor.Submit(ctx, item.ImageID, item.Data); err != nil {
		uc.log.Warnf("assessment forward failed for %s: %v", item.ImageID, err)
	}
}

// checkpoint saves the index every saveEvery registrations, bounding write
// amplification under batch load.
func (uc *IngestUsecase) checkpoint() {
	if uc.saveEvery <= 0 {
		return
	}
	uc.saveMu.Lock()
	uc.unsaved++
	due := uc.unsaved >= uc.saveEvery
	if due {
		uc.unsaved = 0
	}
	uc.saveMu.Unlock()

	if due {
		if err := uc.dedup.Save(); err != nil {
			uc.log.Errorf("index checkpoint failed: %v", err)
		}
	}
}
