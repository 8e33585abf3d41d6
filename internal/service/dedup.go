package service

import (
	stderrors "errors"
	"io"
	"strconv"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	khttp "github.com/go-kratos/kratos/v2/transport/http"

	"github.com/bananahana720/PHX-houses-Dec-2025-sub010/internal/biz"
	"github.com/bananahana720/PHX-houses-Dec-2025-sub010/internal/pkg/hash"
	"github.com/bananahana720/PHX-houses-Dec-2025-sub010/internal/pkg/pagination"
)

// maxUploadBytes bounds a single photo upload.
const maxUploadBytes = 32 << 20

// DedupService exposes the ingest pipeline and the duplicate index over HTTP.
type DedupService struct {
	ingest *biz.IngestUsecase
	dedup  *biz.DedupUsecase
	repo   biz.PropertyImageRepo
	log    *log.Helper
}

// NewDedupService creates a new DedupService.
func NewDedupService(ingest *biz.IngestUsecase, dedup *biz.DedupUsecase, repo biz.PropertyImageRepo, logger log.Logger) *DedupService {
	return &DedupService{
		ingest: ingest,
		dedup:  dedup,
		repo:   repo,
		log:    log.NewHelper(logger),
	}
}

// UploadImage ingests one photo from a multipart form: image_id,
// property_id, source fields plus the file part.
func (s *DedupService) UploadImage(ctx khttp.Context) error {
	req := ctx.Request()
	if err := req.ParseMultipartForm(maxUploadBytes); err != nil {
		return errors.BadRequest("INVALID_UPLOAD", "malformed multipart form: "+err.Error())
	}

	file, _, err := req.FormFile("file")
	if err != nil {
		return errors.BadRequest("INVALID_UPLOAD", "missing file part")
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		return errors.BadRequest("INVALID_UPLOAD", "unreadable file part")
	}

	result, err := s.ingest.Ingest(req.Context(), biz.IngestItem{
		ImageID:    req.FormValue("image_id"),
		PropertyID: req.FormValue("property_id"),
		Source:     req.FormValue("source"),
		Data:       data,
	})
	switch {
	case stderrors.Is(err, biz.ErrMissingID):
		return errors.BadRequest("MISSING_ID", err.Error())
	case stderrors.Is(err, hash.ErrInvalidImage):
		return errors.BadRequest("INVALID_IMAGE", err.Error())
	case err != nil:
		return err
	}

	return ctx.Result(200, result)
}

type checkRequest struct {
	PHash string `json:"phash"`
	DHash string `json:"dhash"`
}

type checkReply struct {
	Duplicate bool   `json:"duplicate"`
	ImageID   string `json:"image_id,omitempty"`
}

// CheckDuplicate runs a dry-run duplicate query against submitted hex
// fingerprints, registering nothing.
func (s *DedupService) CheckDuplicate(ctx khttp.Context) error {
	var req checkRequest
	if err := ctx.Bind(&req); err != nil {
		return errors.BadRequest("INVALID_REQUEST", err.Error())
	}
	phash, err := hash.ParseFingerprint(req.PHash)
	if err != nil {
		return errors.BadRequest("MALFORMED_FINGERPRINT", err.Error())
	}
	dhash, err := hash.ParseFingerprint(req.DHash)
	if err != nil {
		return errors.BadRequest("MALFORMED_FINGERPRINT", err.Error())
	}

	id, dup := s.dedup.CheckDuplicate(ctx.Request().Context(), hash.HashPair{PHash: phash, DHash: dhash})
	return ctx.Result(200, &checkReply{Duplicate: dup, ImageID: id})
}

type removeReply struct {
	Removed bool `json:"removed"`
}

// RemoveImage drops an image from the index and the catalog.
func (s *DedupService) RemoveImage(ctx khttp.Context) error {
	id := ctx.Vars().Get("id")
	if id == "" {
		return errors.BadRequest("MISSING_ID", "image id is required")
	}

	removed := s.dedup.Remove(id)
	if err := s.repo.Delete(ctx.Request().Context(), id); err != nil {
		s.log.Warnf("catalog delete failed for %s: %v", id, err)
	}
	return ctx.Result(200, &removeReply{Removed: removed})
}

// ListImages returns a page of catalog records.
func (s *DedupService) ListImages(ctx khttp.Context) error {
	query := ctx.Query()
	limit := 0
	if l := query.Get("limit"); l != "" {
		limit, _ = strconv.Atoi(l)
	}
	req := pagination.NewCursorRequest(query.Get("cursor"), limit)

	resp, err := s.repo.List(ctx.Request().Context(), req)
	if err != nil {
		if stderrors.Is(err, pagination.ErrInvalidCursor) {
			return errors.BadRequest("INVALID_CURSOR", err.Error())
		}
		return err
	}
	return ctx.Result(200, resp)
}

// Stats returns the read-only aggregate view of the index.
func (s *DedupService) Stats(ctx khttp.Context) error {
	return ctx.Result(200, s.dedup.Stats())
}

// SaveIndex checkpoints the index to disk on demand.
func (s *DedupService) SaveIndex(ctx khttp.Context) error {
	if err := s.dedup.Save(); err != nil {
		return errors.InternalServer("SAVE_FAILED", err.Error())
	}
	return ctx.Result(200, map[string]string{"status": "saved"})
}

type rebuildReply struct {
	Registered int `json:"registered"`
}

// RebuildIndex clears the index and re-registers every accepted catalog
// record, e.g. after retuning num_bands or recovering from index loss.
func (s *DedupService) RebuildIndex(ctx khttp.Context) error {
	reqCtx := ctx.Request().Context()
	if err := s.dedup.Reset(reqCtx); err != nil {
		return errors.InternalServer("RESET_FAILED", err.Error())
	}

	images, err := s.repo.ListAccepted(reqCtx)
	if err != nil {
		return errors.InternalServer("REBUILD_FAILED", err.Error())
	}
	for _, img := range images {
		s.dedup.Register(reqCtx, img.ImageID, img.PropertyID, img.Source, hash.HashPair{
			PHash: img.PHash,
			DHash: img.DHash,
		})
	}
	s.log.Infof("index rebuilt from catalog: %d records", len(images))
	return ctx.Result(200, &rebuildReply{Registered: len(images)})
}
