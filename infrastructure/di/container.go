package di

import (
	"net/http"

	"go.uber.org/zap"

	"salesadmin/application/commands/bus"
	"salesadmin/application/ports"
	querybus "salesadmin/application/queries/bus"
	"salesadmin/infrastructure/config"
	"salesadmin/pkg/observability"
)

// Container holds all application dependencies
type Container struct {
	Config     *config.Config
	Logger     *zap.Logger
	Store      ports.DocumentStore
	CommandBus *bus.CommandBus
	QueryBus   *querybus.QueryBus
	Metrics    *observability.Metrics
	Handler    http.Handler
}
