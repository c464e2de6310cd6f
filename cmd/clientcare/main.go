package main

import (
	"log"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"github.com/clientcare/crm/internal/clock"
	"github.com/clientcare/crm/internal/config"
	leaddomain "github.com/clientcare/crm/internal/lead/domain"
	"github.com/clientcare/crm/internal/migration"
	"github.com/clientcare/crm/internal/observability"
	organizationdomain "github.com/clientcare/crm/internal/organization/domain"
	"github.com/clientcare/crm/internal/server"
	"github.com/clientcare/crm/pkg/db"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(newSnowflakeNode),
		db.Module,
		clock.Module,
		migration.Module,
		server.Module,
		fx.Provide(func(svc leaddomain.Service) organizationdomain.LeadCounter {
			return svc
		}),
	)
	app.Run()
}

func newSnowflakeNode() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		log.Fatalf("snowflake node: %v", err)
	}
	return node
}
