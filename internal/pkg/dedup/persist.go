package dedup

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/bananahana720/PHX-houses-Dec-2025-sub010/internal/pkg/hash"
)

// persistedRecord is the on-disk form of an ImageRecord. The bucket map and
// banding configuration are never persisted; buckets are rebuilt at load
// time under whatever band count is then configured.
type persistedRecord struct {
	ImageID      string    `json:"image_id"`
	PropertyID   string    `json:"property_id"`
	Source       string    `json:"source"`
	PHash        string    `json:"phash"`
	DHash        string    `json:"dhash"`
	RegisteredAt time.Time `json:"registered_at"`
}

// Save serializes the flat record collection to path. The write goes to a
// temporary file in the same directory, is synced, then renamed over the
// target, so the on-disk file is always either the previous or the new
// complete state. The temp file is removed on failure.
func (idx *Index) Save(path string) error {
	idx.mu.RLock()
	records := make([]persistedRecord, 0, len(idx.records))
	order := make(map[string]uint64, len(idx.records))
	for _, rec := range idx.records {
		dhash := ""
		if rec.hasDHash {
			dhash = rec.DHash.String()
		}
		records = append(records, persistedRecord{
			ImageID:      rec.ImageID,
			PropertyID:   rec.PropertyID,
			Source:       rec.Source,
			PHash:        rec.PHash.String(),
			DHash:        dhash,
			RegisteredAt: rec.RegisteredAt,
		})
		order[rec.ImageID] = rec.seq
	}
	idx.mu.RUnlock()

	sort.Slice(records, func(i, j int) bool {
		return order[records[i].ImageID] < order[records[j].ImageID]
	})

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal index: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".dupindex-*")
	if err != nil {
		return fmt.Errorf("create temp index file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write index: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("sync index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close index: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename index: %w", err)
	}
	return nil
}

// Load builds an index from a previously saved file. A missing file yields
// an empty index; a corrupt file is logged and yields an empty index rather
// than failing the caller, since the index can be rebuilt from the images
// themselves. Buckets are always rebuilt from scratch, so changing numBands
// between runs simply rebands the records on next load.
func Load(path string, numBands, threshold int, logger log.Logger) (*Index, error) {
	helper := log.NewHelper(logger)

	idx, err := NewIndex(numBands, threshold)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			helper.Warnf("index file %s unreadable, starting empty: %v", path, err)
		}
		return idx, nil
	}

	var records []persistedRecord
	if err := json.Unmarshal(data, &records); err != nil {
		helper.Warnf("index file %s corrupt, starting empty: %v", path, err)
		return idx, nil
	}

	for _, pr := range records {
		if pr.ImageID == "" {
			helper.Warnf("skipping persisted record with empty image_id")
			continue
		}
		phash, err := hash.ParseFingerprint(pr.PHash)
		if err != nil {
			helper.Warnf("skipping record %s: %v", pr.ImageID, err)
			continue
		}
		rec := &ImageRecord{
			ImageID:      pr.ImageID,
			PropertyID:   pr.PropertyID,
			Source:       pr.Source,
			PHash:        phash,
			RegisteredAt: pr.RegisteredAt,
		}
		// A record that lost its dhash is still bucketed by phash, but it is
		// never confirmed as a duplicate until re-registered.
		if dhash, err := hash.ParseFingerprint(pr.DHash); err == nil {
			rec.DHash = dhash
			rec.hasDHash = true
		} else {
			helper.Warnf("record %s has no usable dhash, kept as incomplete", pr.ImageID)
		}
		idx.mu.Lock()
		idx.insertLocked(rec)
		idx.mu.Unlock()
	}
	return idx, nil
}
