package risk

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

// RiskAssessmentMongoRepository only ever inserts and reads; the collection
// is an append-only history and no update path exists.
type RiskAssessmentMongoRepository struct {
	Collection *mongo.Collection
}

func NewRiskAssessmentMongoRepository(db *mongo.Client, dbName string) contracts.RiskAssessmentRepository {
	return &RiskAssessmentMongoRepository{
		Collection: db.Database(dbName).Collection(constvars.MongoCollectionRiskAssessments),
	}
}

func (repo *RiskAssessmentMongoRepository) CreateAssessment(ctx context.Context, assessment *models.RiskAssessment) (string, error) {
	_, err := repo.Collection.InsertOne(ctx, assessment)
	if err != nil {
		return "", fmt.Errorf("%w: inserting risk assessment for flow %s: %v", models.ErrPersistence, assessment.SourceFlowID, err)
	}
	return assessment.ID, nil
}

func (repo *RiskAssessmentMongoRepository) FindAssessmentsByFlowID(ctx context.Context, flowID string) ([]models.RiskAssessment, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "computedAt", Value: -1}})
	cursor, err := repo.Collection.Find(ctx, bson.M{"sourceFlowId": flowID}, findOptions)
	if err != nil {
		return nil, fmt.Errorf("%w: finding risk assessments for flow %s: %v", models.ErrPersistence, flowID, err)
	}
	defer cursor.Close(ctx)

	var assessments []models.RiskAssessment
	if err := cursor.All(ctx, &assessments); err != nil {
		return nil, fmt.Errorf("%w: iterating risk assessments for flow %s: %v", models.ErrPersistence, flowID, err)
	}
	return assessments, nil
}
