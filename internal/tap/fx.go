package tap

import (
	"github.com/openbar/tapflow/internal/tap/repository"
	"github.com/openbar/tapflow/internal/tap/service"
	"go.uber.org/fx"
)

var Module = fx.Module("tap.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
