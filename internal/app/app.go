package app

import (
	"go.uber.org/fx"

	"github.com/campuscode/canteen/internal/cache"
	"github.com/campuscode/canteen/internal/config"
	"github.com/campuscode/canteen/internal/database"
	"github.com/campuscode/canteen/internal/logger"
	"github.com/campuscode/canteen/internal/messaging"
	"github.com/campuscode/canteen/internal/mirror"
	"github.com/campuscode/canteen/internal/observability"
	"github.com/campuscode/canteen/internal/payment"
	repositorycatalog "github.com/campuscode/canteen/internal/repository/catalog"
	repositoryorder "github.com/campuscode/canteen/internal/repository/order"
	grpcserver "github.com/campuscode/canteen/internal/server/grpc"
	httpserver "github.com/campuscode/canteen/internal/server/http"
	serviceorder "github.com/campuscode/canteen/internal/service/order"
	"github.com/campuscode/canteen/internal/store"
	transporthttp "github.com/campuscode/canteen/internal/transport/http"
	"github.com/campuscode/canteen/internal/watch"
	"github.com/campuscode/canteen/internal/worker"
	workerorder "github.com/campuscode/canteen/internal/worker/order"
)

// Core provides the foundational modules shared across executables.
var Core = fx.Options(
	config.Module,
	cache.Module,
	logger.Module,
	messaging.Module,
	observability.Module,
	store.Module,
	payment.Module,
	repositoryorder.Module,
	repositorycatalog.Module,
	serviceorder.Module,
	watch.Module,
)

// HTTP wires the HTTP transport on top of the core modules.
var HTTP = fx.Options(
	Core,
	httpserver.Module,
	transporthttp.Module,
)

// Worker exposes background notification processing.
var Worker = fx.Options(
	Core,
	worker.Module,
	workerorder.Module,
)

// MirrorCore provides the mirror's database-backed foundation without any
// servers, for one-shot commands like migrations.
var MirrorCore = fx.Options(
	config.Module,
	logger.Module,
	observability.Module,
	database.Module,
)

// Mirror wires the parallel SQL mirror service. It replicates schema only
// and is never invoked by the lifecycle engine.
var Mirror = fx.Options(
	MirrorCore,
	httpserver.Module,
	grpcserver.Module,
	mirror.Module,
)

// Module is the default application wiring (HTTP only).
var Module = HTTP
