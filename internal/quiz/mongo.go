package quiz

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// LoadMongoSource reads the question list once at startup from a MongoDB
// collection, ordered by the "index" field. The match engine treats the list
// as immutable for the process lifetime, so there is no live connection kept.
func LoadMongoSource(ctx context.Context, uri, dbName, colName string) (*StaticSource, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to question database: %w", err)
	}
	defer client.Disconnect(context.Background())

	col := client.Database(dbName).Collection(colName)
	cur, err := col.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "index", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("fetch questions: %w", err)
	}
	defer cur.Close(ctx)

	var questions []Question
	if err := cur.All(ctx, &questions); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}
	if len(questions) == 0 {
		return nil, errors.New("question collection is empty")
	}
	return NewStaticSource(questions), nil
}
