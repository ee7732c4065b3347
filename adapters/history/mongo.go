package history

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/vocaloop/server/domain/entities"
	"github.com/vocaloop/server/domain/repositories"
)

// MongoHistoryRepository stores one document per session, keyed by the
// caller-supplied session id. Appends are a single $push of the turn pair,
// so concurrent turns on the same session cannot lose each other's entries.
type MongoHistoryRepository struct {
	collection *mongo.Collection
	logger     *zap.Logger
}

var _ repositories.HistoryRepository = (*MongoHistoryRepository)(nil)

type sessionDocument struct {
	ID      string           `bson:"_id"`
	Entries []entities.Entry `bson:"entries"`
}

// NewMongoHistoryRepository creates a Mongo-backed history repository
func NewMongoHistoryRepository(db *mongo.Database, logger *zap.Logger) *MongoHistoryRepository {
	return &MongoHistoryRepository{
		collection: db.Collection("chat_history"),
		logger:     logger,
	}
}

// Load returns the stored history for a session, oldest first
func (r *MongoHistoryRepository) Load(ctx context.Context, sessionID string) ([]entities.Entry, error) {
	var doc sessionDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": sessionID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return []entities.Entry{}, nil
		}
		r.logger.Error("Failed to load history",
			zap.String("session_id", sessionID),
			zap.Error(err))
		return nil, err
	}

	if doc.Entries == nil {
		return []entities.Entry{}, nil
	}
	return doc.Entries, nil
}

// Append pushes one (user, model) turn pair onto the session's document,
// creating the document if this is the session's first turn
func (r *MongoHistoryRepository) Append(ctx context.Context, sessionID, userText, modelText string) error {
	filter := bson.M{"_id": sessionID}
	update := bson.M{
		"$push": bson.M{
			"entries": bson.M{
				"$each": []entities.Entry{
					entities.NewUserEntry(userText),
					entities.NewModelEntry(modelText),
				},
			},
		},
	}

	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		r.logger.Error("Failed to append history",
			zap.String("session_id", sessionID),
			zap.Error(err))
		return err
	}

	r.logger.Debug("Saved chat history", zap.String("session_id", sessionID))
	return nil
}
