package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/skolahq/skola/internal/config"
	"github.com/skolahq/skola/internal/migration"
	"github.com/skolahq/skola/internal/observability"
	"github.com/skolahq/skola/internal/server"
	"github.com/skolahq/skola/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
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
