package fx

import (
	"cricket-tracker/internal/api"
	"cricket-tracker/internal/config"
	"cricket-tracker/internal/database"
	"cricket-tracker/internal/logger"
	"cricket-tracker/internal/repository"
	"cricket-tracker/internal/server"
	"cricket-tracker/internal/service"

	"go.uber.org/fx"
)

func ProvideFeedFetcher(client *api.CricbuzzClient) service.FeedFetcher {
	return client
}

func ProvideSnapshotStore(repo *repository.SnapshotRepository) service.SnapshotStore {
	return repo
}

var Module = fx.Options(
	fx.Provide(logger.New),
	fx.Provide(config.Load),
	fx.Provide(database.New),
	// repos
	fx.Provide(repository.NewSnapshotRepository),
	fx.Provide(ProvideSnapshotStore),
	// api client
	fx.Provide(api.NewCricbuzzClient),
	fx.Provide(ProvideFeedFetcher),
	// svc
	fx.Provide(service.NewMatchService),
	// server
	fx.Provide(server.NewHandler),
	fx.Provide(server.NewFeedServer),
	fx.Provide(server.NewRouter),
)
