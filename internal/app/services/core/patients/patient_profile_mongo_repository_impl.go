package patients

import (
	"careflow-service/internal/app/contracts"
	"careflow-service/internal/app/models"
	"careflow-service/internal/pkg/constvars"
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type PatientProfileMongoRepository struct {
	Collection *mongo.Collection
}

func NewPatientProfileMongoRepository(db *mongo.Client, dbName string) contracts.PatientProfileRepository {
	return &PatientProfileMongoRepository{
		Collection: db.Database(dbName).Collection(constvars.MongoCollectionPatientProfiles),
	}
}

// FindProfileByPatientID returns (nil, nil) for an unknown patient: a
// missing clinical history is an expected state, the risk scorer simply
// runs without profile factors.
func (repo *PatientProfileMongoRepository) FindProfileByPatientID(ctx context.Context, patientID string) (*models.PatientProfile, error) {
	var profile models.PatientProfile
	err := repo.Collection.FindOne(ctx, bson.M{"_id": patientID}).Decode(&profile)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: finding patient profile %s: %v", models.ErrPersistence, patientID, err)
	}
	return &profile, nil
}
