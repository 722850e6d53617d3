package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/openbar/tapflow/internal/clock"
	"github.com/openbar/tapflow/internal/config"
	"github.com/openbar/tapflow/internal/migration"
	"github.com/openbar/tapflow/internal/observability"
	"github.com/openbar/tapflow/internal/server"
	"github.com/openbar/tapflow/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
