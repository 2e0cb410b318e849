package server

import (
	"context"
	"fmt"

	"collab-go/app/config"
	"collab-go/app/store"
	"collab-go/app/store/mongostore"
	"collab-go/app/store/neo4jstore"
	"collab-go/app/store/sqlitestore"
)

// OpenStore connects the backend named by cfg.Driver.
func OpenStore(ctx context.Context, cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		return sqlitestore.New(ctx, cfg.SQLite.Path)
	case config.DriverNeo4j:
		driver, err := config.InitNeo4j(cfg.Neo4j)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Neo4j connection: %w", err)
		}
		if err := driver.VerifyConnectivity(ctx); err != nil {
			driver.Close(ctx)
			return nil, fmt.Errorf("neo4j unreachable at %s: %w", cfg.Neo4j.URI, err)
		}
		return neo4jstore.New(driver, cfg.Neo4j.Database), nil
	case config.DriverMongo:
		client, err := config.InitMongo(ctx, cfg.Mongo)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize MongoDB connection: %w", err)
		}
		if err := client.Ping(ctx, nil); err != nil {
			client.Disconnect(ctx)
			return nil, fmt.Errorf("mongodb unreachable: %w", err)
		}
		return mongostore.New(client, cfg.Mongo.Database), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
