package storage

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/Sathvik-Nagesh/GeoSnap/model"
)

// RecordDB persists location records.
type RecordDB interface {
	Connect(ctx context.Context, connectionString, databaseName, collectionName string) error
	Close(ctx context.Context) error
	// SaveRecord upserts by image ID: a re-upload fully replaces the
	// previous record rather than patching it.
	SaveRecord(ctx context.Context, rec model.LocationRecord) error
	GetRecord(ctx context.Context, imageID string) (*model.LocationRecord, error)
	SearchNear(ctx context.Context, long, lat float64, maxMeters int) ([]model.LocationRecord, error)
}

// MongoRecordDB stores records in a MongoDB collection with a 2dsphere
// index over the GeoJSON mirror of each record's coordinate.
type MongoRecordDB struct {
	Log *zap.Logger

	mongoClient *mongo.Client
	collection  *mongo.Collection
}

func (db *MongoRecordDB) Connect(ctx context.Context, connectionString, databaseName, collectionName string) error {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(connectionString))
	if err != nil {
		return err
	}

	if err := client.Ping(ctx, nil); err != nil {
		return err
	}

	db.mongoClient = client
	db.collection = client.Database(databaseName).Collection(collectionName)

	// $near queries require the geo index.
	_, err = db.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "lonlat", Value: "2dsphere"}},
	})
	if err != nil {
		return err
	}

	db.Log.Info("connected to MongoDB",
		zap.String("database", databaseName),
		zap.String("collection", collectionName),
	)
	return nil
}

func (db *MongoRecordDB) Close(ctx context.Context) error {
	if db.mongoClient != nil {
		if err := db.mongoClient.Disconnect(ctx); err != nil {
			return err
		}
		db.Log.Info("disconnected from MongoDB")
	}
	return nil
}

func (db *MongoRecordDB) SaveRecord(ctx context.Context, rec model.LocationRecord) error {
	filter := bson.D{{Key: "_id", Value: rec.ImageID}}
	_, err := db.collection.ReplaceOne(ctx, filter, rec, options.Replace().SetUpsert(true))
	if err != nil {
		return err
	}
	db.Log.Info("record saved", zap.String("image_id", rec.ImageID))
	return nil
}

func (db *MongoRecordDB) GetRecord(ctx context.Context, imageID string) (*model.LocationRecord, error) {
	var rec model.LocationRecord

	filter := bson.D{{Key: "_id", Value: imageID}}
	err := db.collection.FindOne(ctx, filter).Decode(&rec)
	if err != nil {
		if err != mongo.ErrNoDocuments {
			db.Log.Error("error reading record", zap.String("image_id", imageID), zap.Error(err))
		}
		return nil, err
	}

	return &rec, nil
}

func (db *MongoRecordDB) SearchNear(ctx context.Context, long, lat float64, maxMeters int) ([]model.LocationRecord, error) {
	var records []model.LocationRecord

	geoPoint := model.GeoPoint{
		Type:        "Point",
		Coordinates: []float64{long, lat},
	}

	filter := bson.D{
		{Key: "lonlat", Value: bson.D{
			{Key: "$near", Value: bson.D{
				{Key: "$geometry", Value: geoPoint},
				{Key: "$maxDistance", Value: maxMeters},
			}},
		}},
	}

	cursor, err := db.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	if err = cursor.All(ctx, &records); err != nil {
		return nil, err
	}

	return records, nil
}
