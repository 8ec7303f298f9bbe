package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	mopt "go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/pkg/options"
)

const (
	collectionVehicles     = "vehicles"
	collectionCompanies    = "companies"
	collectionTrajectories = "trajectories"
)

// Store bundles the MongoDB-backed adapters behind one connection.
type Store struct {
	client    *mongo.Client
	db        *mongo.Database
	opTimeout time.Duration

	Vehicles     *VehicleDirectory
	Companies    *CompanyDirectory
	Trajectories *TrajectoryStore
}

// Connect dials MongoDB, verifies the connection with a ping, and builds
// the adapters.
func Connect(ctx context.Context, opts *options.MongoOptions) (*Store, error) {
	dialCtx, cancel := context.WithTimeout(ctx, opts.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(dialCtx, mopt.Client().ApplyURI(opts.URI))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(dialCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	db := client.Database(opts.Database)
	s := &Store{
		client:    client,
		db:        db,
		opTimeout: opts.OperationTimeout,
	}
	s.Vehicles = &VehicleDirectory{coll: db.Collection(collectionVehicles), timeout: s.opTimeout}
	s.Companies = &CompanyDirectory{coll: db.Collection(collectionCompanies), timeout: s.opTimeout}
	s.Trajectories = &TrajectoryStore{coll: db.Collection(collectionTrajectories), timeout: s.opTimeout}
	return s, nil
}

// Ping checks the connection, for readiness probes.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()
	return s.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the underlying client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
