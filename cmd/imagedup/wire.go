//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package main

import (
	"github.com/go-kratos/kratos/v2"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"

	"github.com/bananahana720/PHX-houses-Dec-2025-sub010/internal/biz"
	"github.com/bananahana720/PHX-houses-Dec-2025-sub010/internal/conf"
	"github.com/bananahana720/PHX-houses-Dec-2025-sub010/internal/data"
	"github.com/bananahana720/PHX-houses-Dec-2025-sub010/internal/server"
	"github.com/bananahana720/PHX-houses-Dec-2025-sub010/internal/service"
)

// wireApp init kratos application.
func wireApp(*conf.Server, *conf.Data, *conf.Dedup, *conf.Assess, log.Logger) (*kratos.App, func(), error) {
	panic(wire.Build(server.ProviderSet, data.ProviderSet, biz.ProviderSet, service.ProviderSet, newApp))
}
