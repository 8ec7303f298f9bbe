package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	mopt "go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/internal/hub/core/model"
)

// TrajectoryStore persists location reports to the trajectories collection,
// one document per point.
type TrajectoryStore struct {
	coll    *mongo.Collection
	timeout time.Duration
}

func (s *TrajectoryStore) Insert(ctx context.Context, point *model.TrajectoryPoint) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.coll.InsertOne(ctx, point); err != nil {
		return fmt.Errorf("insert trajectory point: %w", err)
	}
	return nil
}

// FindBySession returns a session's points in report order.
func (s *TrajectoryStore) FindBySession(ctx context.Context, vehicleID, sessionID string) ([]model.TrajectoryPoint, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cursor, err := s.coll.Find(ctx,
		bson.M{"vehicleId": vehicleID, "sessionId": sessionID},
		mopt.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("find trajectory: %w", err)
	}
	defer cursor.Close(ctx)

	var points []model.TrajectoryPoint
	if err := cursor.All(ctx, &points); err != nil {
		return nil, fmt.Errorf("decode trajectory: %w", err)
	}
	return points, nil
}
