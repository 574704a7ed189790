// README: Worker presence store backed by a MongoDB 2dsphere index.
package matching

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoStore struct {
	col *mongo.Collection
}

func NewMongoStore(db *mongo.Database, collection string) *MongoStore {
	if collection == "" {
		collection = "drivers"
	}
	return &MongoStore{col: db.Collection(collection)}
}

// EnsureIndexes creates the geospatial index $near depends on.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "current_location", Value: "2dsphere"}},
	})
	return err
}

// Nearby returns online workers with enough capacity within the radius, closest first.
func (s *MongoStore) Nearby(ctx context.Context, q NearbyQuery) ([]Worker, error) {
	opts := options.Find()
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}
	cur, err := s.col.Find(ctx, nearbyFilter(q), opts)
	if err != nil {
		return nil, fmt.Errorf("find nearby workers: %w", err)
	}
	defer cur.Close(ctx)

	var out []Worker
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode workers: %w", err)
	}
	return out, nil
}

// Upsert writes a presence record; used to seed local environments and probes.
func (s *MongoStore) Upsert(ctx context.Context, w Worker) error {
	_, err := s.col.UpdateOne(ctx,
		bson.M{"user_id": w.UserID},
		bson.M{"$set": w},
		options.Update().SetUpsert(true),
	)
	return err
}

func nearbyFilter(q NearbyQuery) bson.M {
	return bson.M{
		"is_online": true,
		"available_capacity": bson.M{
			"$gte": q.MinCapacity,
			"$gt":  0,
		},
		"current_location": bson.M{
			"$near": bson.M{
				"$geometry": bson.M{
					"type":        "Point",
					"coordinates": bson.A{q.Origin.Lng, q.Origin.Lat},
				},
				"$maxDistance": q.RadiusMeters,
			},
		},
	}
}
