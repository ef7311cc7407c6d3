package flows

import (
	"careflow-service/internal/app/contracts"
	"careflow-service/internal/app/models"
	"careflow-service/internal/pkg/constvars"
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type FlowMongoRepository struct {
	FlowCollection       *mongo.Collection
	TransitionCollection *mongo.Collection
}

func NewFlowMongoRepository(db *mongo.Client, dbName string) contracts.FlowRepository {
	return &FlowMongoRepository{
		FlowCollection:       db.Database(dbName).Collection(constvars.MongoCollectionFlows),
		TransitionCollection: db.Database(dbName).Collection(constvars.MongoCollectionTransitionRecords),
	}
}

func (repo *FlowMongoRepository) CreateFlow(ctx context.Context, flow *models.Flow) (string, error) {
	_, err := repo.FlowCollection.InsertOne(ctx, flow)
	if err != nil {
		// The partial unique index on (patientId, categoryId, active) is the
		// authoritative guard: two racing creates both pass the existence
		// check, but only one insert survives.
		if mongo.IsDuplicateKeyError(err) {
			return "", fmt.Errorf("%w: patient %s already has an active flow in category %s", models.ErrActiveFlowExists, flow.PatientID, flow.CategoryID)
		}
		return "", fmt.Errorf("%w: inserting flow: %v", models.ErrPersistence, err)
	}
	return flow.ID, nil
}

func (repo *FlowMongoRepository) FindFlowByID(ctx context.Context, flowID string) (*models.Flow, error) {
	var flow models.Flow
	err := repo.FlowCollection.FindOne(ctx, bson.M{"_id": flowID}).Decode(&flow)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("%w: flow %s", models.ErrFlowNotFound, flowID)
		}
		return nil, fmt.Errorf("%w: finding flow %s: %v", models.ErrPersistence, flowID, err)
	}
	return &flow, nil
}

func (repo *FlowMongoRepository) FindActiveFlowByPatientAndCategory(ctx context.Context, patientID, categoryID string) (*models.Flow, error) {
	filter := bson.M{
		"patientId":  patientID,
		"categoryId": categoryID,
		"active":     true,
	}

	var flow models.Flow
	err := repo.FlowCollection.FindOne(ctx, filter).Decode(&flow)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: finding active flow for patient %s: %v", models.ErrPersistence, patientID, err)
	}
	return &flow, nil
}

// UpdateFlowWithVersion is the optimistic concurrency gate: the filter
// matches only while the stored version still equals expectedVersion, so of
// two racing writers exactly one sees MatchedCount 1.
func (repo *FlowMongoRepository) UpdateFlowWithVersion(ctx context.Context, flow *models.Flow, expectedVersion int64) error {
	filter := bson.M{
		"_id":     flow.ID,
		"version": expectedVersion,
	}
	update := bson.M{"$set": flow}

	result, err := repo.FlowCollection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(false))
	if err != nil {
		return fmt.Errorf("%w: updating flow %s: %v", models.ErrPersistence, flow.ID, err)
	}
	if result.MatchedCount == 0 {
		count, countErr := repo.FlowCollection.CountDocuments(ctx, bson.M{"_id": flow.ID})
		if countErr != nil {
			return fmt.Errorf("%w: verifying flow %s after stale update: %v", models.ErrPersistence, flow.ID, countErr)
		}
		if count == 0 {
			return fmt.Errorf("%w: flow %s", models.ErrFlowNotFound, flow.ID)
		}
		return fmt.Errorf("%w: flow %s moved past version %d", models.ErrConcurrentModification, flow.ID, expectedVersion)
	}
	return nil
}

func (repo *FlowMongoRepository) AppendTransitionRecord(ctx context.Context, record *models.TransitionRecord) (string, error) {
	_, err := repo.TransitionCollection.InsertOne(ctx, record)
	if err != nil {
		return "", fmt.Errorf("%w: appending transition record for flow %s: %v", models.ErrPersistence, record.FlowID, err)
	}
	return record.ID, nil
}

func (repo *FlowMongoRepository) FindTransitionsByFlowID(ctx context.Context, flowID string) ([]models.TransitionRecord, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "flowVersion", Value: 1}})
	cursor, err := repo.TransitionCollection.Find(ctx, bson.M{"flowId": flowID}, findOptions)
	if err != nil {
		return nil, fmt.Errorf("%w: finding transitions for flow %s: %v", models.ErrPersistence, flowID, err)
	}
	defer cursor.Close(ctx)

	var records []models.TransitionRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("%w: iterating transitions for flow %s: %v", models.ErrPersistence, flowID, err)
	}
	return records, nil
}

// FindStuckFlows surfaces flows whose newest transition record outran the
// flow document. Records are committed before the document, so this shape
// only exists when a commit was interrupted between the two writes.
func (repo *FlowMongoRepository) FindStuckFlows(ctx context.Context) ([]models.Flow, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$lookup", Value: bson.M{
			"from":         constvars.MongoCollectionTransitionRecords,
			"localField":   "_id",
			"foreignField": "flowId",
			"as":           "trail",
		}}},
		{{Key: "$addFields", Value: bson.M{
			"latestRecordedVersion": bson.M{"$max": "$trail.flowVersion"},
		}}},
		{{Key: "$match", Value: bson.M{
			"$expr": bson.M{"$gt": bson.A{"$latestRecordedVersion", "$version"}},
		}}},
		{{Key: "$project", Value: bson.M{
			"trail":                 0,
			"latestRecordedVersion": 0,
		}}},
	}

	cursor, err := repo.FlowCollection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("%w: finding stuck flows: %v", models.ErrPersistence, err)
	}
	defer cursor.Close(ctx)

	var flows []models.Flow
	if err := cursor.All(ctx, &flows); err != nil {
		return nil, fmt.Errorf("%w: iterating stuck flows: %v", models.ErrPersistence, err)
	}
	return flows, nil
}

func (repo *FlowMongoRepository) FindFlowsInactiveSince(ctx context.Context, cutoff time.Time) ([]models.Flow, error) {
	filter := bson.M{
		"lastActivityAt": bson.M{"$lt": cutoff},
		"status": bson.M{"$nin": []models.FlowStatus{
			models.FlowStatusCompleted,
			models.FlowStatusAbandoned,
		}},
	}

	cursor, err := repo.FlowCollection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%w: finding inactive flows: %v", models.ErrPersistence, err)
	}
	defer cursor.Close(ctx)

	var flows []models.Flow
	if err := cursor.All(ctx, &flows); err != nil {
		return nil, fmt.Errorf("%w: iterating inactive flows: %v", models.ErrPersistence, err)
	}
	return flows, nil
}
