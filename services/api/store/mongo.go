package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"pest-alert-system/services/api/models"
)

const reportCollection = "reports"

// MongoStore implements ReportStore on a Mongo collection. Status updates
// are single-document writes, so the database's own atomicity is the only
// coordination used.
type MongoStore struct {
	db *mongo.Database
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{db: db}
}

func (s *MongoStore) collection() *mongo.Collection {
	return s.db.Collection(reportCollection)
}

func (s *MongoStore) Insert(ctx context.Context, report *models.Report) error {
	if report.ID.IsZero() {
		report.ID = primitive.NewObjectID()
	}
	_, err := s.collection().InsertOne(ctx, report)
	return err
}

func (s *MongoStore) FindByID(ctx context.Context, id string) (*models.Report, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidID
	}

	var report models.Report
	err = s.collection().FindOne(ctx, bson.M{"_id": objID}).Decode(&report)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &report, nil
}

func (s *MongoStore) FindAll(ctx context.Context) ([]models.Report, error) {
	return s.find(ctx, bson.M{})
}

func (s *MongoStore) FindByFarmer(ctx context.Context, farmerName string) ([]models.Report, error) {
	return s.find(ctx, bson.M{"farmer_name": farmerName})
}

func (s *MongoStore) find(ctx context.Context, filter bson.M) ([]models.Report, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := s.collection().Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	reports := []models.Report{}
	if err := cursor.All(ctx, &reports); err != nil {
		return nil, err
	}
	return reports, nil
}

func (s *MongoStore) UpdateStatus(ctx context.Context, id string, status string) (*models.Report, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidID
	}

	update := bson.M{
		"$set": bson.M{
			"status":     status,
			"updated_at": time.Now(),
		},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var report models.Report
	err = s.collection().FindOneAndUpdate(ctx, bson.M{"_id": objID}, update, opts).Decode(&report)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &report, nil
}

func (s *MongoStore) CountByStatus(ctx context.Context, status string) (int64, error) {
	return s.collection().CountDocuments(ctx, bson.M{"status": status})
}
