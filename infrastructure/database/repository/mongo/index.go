package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"prism.io/infrastructure/logger"
)

var ErrModelUnavailable = errors.New("mongo collection has not been initialised")

func (repo *MongoRepository[T]) opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 10*time.Second)
}

func (repo *MongoRepository[T]) CreateOne(payload T) (*T, error) {
	if repo.Model == nil {
		return nil, ErrModelUnavailable
	}
	ctx, cancel := repo.opContext()
	defer cancel()

	parsed := payload.ParseModel().(*T)
	_, err := repo.Model.InsertOne(ctx, parsed)
	if err != nil {
		logger.Error("mongo error occured while running CreateOne", logger.LoggerOptions{
			Key:  "error",
			Data: err,
		}, logger.LoggerOptions{
			Key:  "collection",
			Data: repo.Model.Name(),
		})
		return nil, err
	}
	return parsed, nil
}

func (repo *MongoRepository[T]) FindByID(id string) (*T, error) {
	return repo.FindOneByFilter(map[string]interface{}{"_id": id})
}

func (repo *MongoRepository[T]) FindOneByFilter(filter map[string]interface{}) (*T, error) {
	if repo.Model == nil {
		return nil, ErrModelUnavailable
	}
	ctx, cancel := repo.opContext()
	defer cancel()

	var result T
	err := repo.Model.FindOne(ctx, normalizeFilter(filter)).Decode(&result)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		logger.Error("mongo error occured while running FindOneByFilter", logger.LoggerOptions{
			Key:  "error",
			Data: err,
		}, logger.LoggerOptions{
			Key:  "collection",
			Data: repo.Model.Name(),
		})
		return nil, err
	}
	return &result, nil
}

func (repo *MongoRepository[T]) FindManyByFilter(filter map[string]interface{}, opts ...FindOptions) (*[]T, error) {
	if repo.Model == nil {
		return nil, ErrModelUnavailable
	}
	ctx, cancel := repo.opContext()
	defer cancel()

	findOpts := options.Find()
	if len(opts) > 0 {
		if opts[0].Sort != nil {
			findOpts.SetSort(*opts[0].Sort)
		}
		if opts[0].Projection != nil {
			findOpts.SetProjection(*opts[0].Projection)
		}
		if opts[0].Skip != nil {
			findOpts.SetSkip(*opts[0].Skip)
		}
		if opts[0].Limit != nil {
			findOpts.SetLimit(*opts[0].Limit)
		}
	}

	cursor, err := repo.Model.Find(ctx, normalizeFilter(filter), findOpts)
	if err != nil {
		logger.Error("mongo error occured while running FindManyByFilter", logger.LoggerOptions{
			Key:  "error",
			Data: err,
		}, logger.LoggerOptions{
			Key:  "collection",
			Data: repo.Model.Name(),
		})
		return nil, err
	}
	results := []T{}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	return &results, nil
}

func (repo *MongoRepository[T]) UpdatePartialByID(id string, fields map[string]interface{}) (int64, error) {
	if repo.Model == nil {
		return 0, ErrModelUnavailable
	}
	ctx, cancel := repo.opContext()
	defer cancel()

	fields["updatedAt"] = time.Now()
	result, err := repo.Model.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		logger.Error("mongo error occured while running UpdatePartialByID", logger.LoggerOptions{
			Key:  "error",
			Data: err,
		}, logger.LoggerOptions{
			Key:  "collection",
			Data: repo.Model.Name(),
		})
		return 0, err
	}
	return result.ModifiedCount, nil
}

func (repo *MongoRepository[T]) DeleteByID(id string) (int64, error) {
	if repo.Model == nil {
		return 0, ErrModelUnavailable
	}
	ctx, cancel := repo.opContext()
	defer cancel()

	result, err := repo.Model.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		logger.Error("mongo error occured while running DeleteByID", logger.LoggerOptions{
			Key:  "error",
			Data: err,
		}, logger.LoggerOptions{
			Key:  "collection",
			Data: repo.Model.Name(),
		})
		return 0, err
	}
	return result.DeletedCount, nil
}

func (repo *MongoRepository[T]) CountDocs(filter map[string]interface{}) (int64, error) {
	if repo.Model == nil {
		return 0, ErrModelUnavailable
	}
	ctx, cancel := repo.opContext()
	defer cancel()

	count, err := repo.Model.CountDocuments(ctx, normalizeFilter(filter))
	if err != nil {
		logger.Error("mongo error occured while running CountDocs", logger.LoggerOptions{
			Key:  "error",
			Data: err,
		}, logger.LoggerOptions{
			Key:  "collection",
			Data: repo.Model.Name(),
		})
		return 0, err
	}
	return count, nil
}

func normalizeFilter(filter map[string]interface{}) bson.M {
	normalized := bson.M{}
	for key, value := range filter {
		normalized[key] = value
	}
	return normalized
}
