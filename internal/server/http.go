package server

import (
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware/logging"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	khttp "github.com/go-kratos/kratos/v2/transport/http"

	"github.com/bananahana720/PHX-houses-Dec-2025-sub010/internal/conf"
	"github.com/bananahana720/PHX-houses-Dec-2025-sub010/internal/service"
)

// NewHTTPServer creates the HTTP server and registers the dedup routes.
func NewHTTPServer(c *conf.Server, svc *service.DedupService, logger log.Logger) *khttp.Server {
	opts := []khttp.ServerOption{
		khttp.Middleware(
			recovery.Recovery(),
			logging.Server(logger),
		),
	}
	if c != nil && c.HTTP != nil {
		if c.HTTP.Network != "" {
			opts = append(opts, khttp.Network(c.HTTP.Network))
		}
		if c.HTTP.Addr != "" {
			opts = append(opts, khttp.Address(c.HTTP.Addr))
		}
		if c.HTTP.Timeout > 0 {
			opts = append(opts, khttp.Timeout(time.Duration(c.HTTP.Timeout)*time.Second))
		}
	}
	srv := khttp.NewServer(opts...)

	r := srv.Route("/v1")
	r.POST("/images", svc.UploadImage)
	r.POST("/images/check", svc.CheckDuplicate)
	r.GET("/images", svc.ListImages)
	r.DELETE("/images/{id}", svc.RemoveImage)
	r.GET("/stats", svc.Stats)
	r.POST("/index/save", svc.SaveIndex)
	r.POST("/index/rebuild", svc.RebuildIndex)

	return srv
}
