package dispenser

import (
	"github.com/openbar/tapflow/internal/dispenser/repository"
	"github.com/openbar/tapflow/internal/dispenser/service"
	"go.uber.org/fx"
)

var Module = fx.Module("dispenser.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
