package providers

import (
	"careflow-service/internal/app/contracts"
	"careflow-service/internal/app/models"
	"careflow-service/internal/pkg/constvars"
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ProviderMongoRepository struct {
	Collection *mongo.Collection
}

func NewProviderMongoRepository(db *mongo.Client, dbName string) contracts.ProviderRepository {
	return &ProviderMongoRepository{
		Collection: db.Database(dbName).Collection(constvars.MongoCollectionProviders),
	}
}

func (repo *ProviderMongoRepository) UpsertProvider(ctx context.Context, provider *models.Provider) error {
	filter := bson.M{"_id": provider.ID}
	_, err := repo.Collection.ReplaceOne(ctx, filter, provider, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("%w: upserting provider %s: %v", models.ErrPersistence, provider.ID, err)
	}
	return nil
}

func (repo *ProviderMongoRepository) FindProviderByID(ctx context.Context, providerID string) (*models.Provider, error) {
	var provider models.Provider
	err := repo.Collection.FindOne(ctx, bson.M{"_id": providerID}).Decode(&provider)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: finding provider %s: %v", models.ErrPersistence, providerID, err)
	}
	return &provider, nil
}

func (repo *ProviderMongoRepository) FindActiveProviders(ctx context.Context) ([]models.Provider, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := repo.Collection.Find(ctx, bson.M{"active": true}, findOptions)
	if err != nil {
		return nil, fmt.Errorf("%w: finding active providers: %v", models.ErrPersistence, err)
	}
	defer cursor.Close(ctx)

	var active []models.Provider
	if err := cursor.All(ctx, &active); err != nil {
		return nil, fmt.Errorf("%w: iterating active providers: %v", models.ErrPersistence, err)
	}
	return active, nil
}
