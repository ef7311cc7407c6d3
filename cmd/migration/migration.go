package main

import (
	"careflow-service/internal/app/config"
	"careflow-service/internal/app/drivers/database"
	"careflow-service/internal/pkg/constvars"
	"context"
	"log"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	driverConfig := config.NewDriverConfig()
	mongoDB := database.NewMongoDB(driverConfig)
	defer func() {
		if err := mongoDB.Disconnect(context.Background()); err != nil {
			log.Printf("Error disconnecting from mongo database: %v", err)
		}
	}()

	db := mongoDB.Database(driverConfig.MongoDB.DbName)

	indexes := map[string][]mongo.IndexModel{
		constvars.MongoCollectionFlows: {
			{
				// Enforces one active flow per patient and category: the index
				// only covers documents with active=true, so terminal flows
				// never collide and a racing duplicate create fails at insert.
				Keys: bson.D{{Key: "patientId", Value: 1}, {Key: "categoryId", Value: 1}},
				Options: options.Index().
					SetUnique(true).
					SetPartialFilterExpression(bson.M{"active": true}),
			},
			{
				// Abandonment sweep scan.
				Keys: bson.D{{Key: "lastActivityAt", Value: 1}, {Key: "status", Value: 1}},
			},
		},
		constvars.MongoCollectionTransitionRecords: {
			{
				Keys:    bson.D{{Key: "flowId", Value: 1}, {Key: "flowVersion", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		constvars.MongoCollectionRiskAssessments: {
			{
				Keys: bson.D{{Key: "sourceFlowId", Value: 1}, {Key: "computedAt", Value: 1}},
			},
		},
		constvars.MongoCollectionProviders: {
			{
				Keys: bson.D{{Key: "active", Value: 1}},
			},
		},
	}

	total := 0
	for collection, models := range indexes {
		names, err := db.Collection(collection).Indexes().CreateMany(context.Background(), models)
		if err != nil {
			log.Fatalf("Error creating indexes on %s: %v", collection, err)
		}
		total += len(names)
	}

	log.Printf("Applied %d indexes!\n", total)
}
