// config/db.go
package config

import (
	"context"
	"log"
	"os"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ConnectDB establishes connection to MongoDB
func ConnectDB() *mongo.Client {
	mongoURI := os.Getenv("MONGO_URI")
	if mongoURI == "" {
		mongoURI = os.Getenv("MONGODB_URI")
	}

	// Only use a local fallback in development
	if mongoURI == "" {
		env := os.Getenv("ENV")
		if env == "development" || env == "dev" {
			mongoURI = "mongodb://localhost:27017"
		} else {
			log.Fatal("MONGO_URI or MONGODB_URI environment variable is required for production")
		}
	}

	// Log connection URI (without password for security)
	log.Printf("Connecting to MongoDB at: %s", maskMongoURI(mongoURI))

	clientOptions := options.Client().ApplyURI(mongoURI)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		log.Fatal("MongoDB connection error:", err)
	}

	err = client.Ping(ctx, nil)
	if err != nil {
		log.Fatal("MongoDB ping error:", err)
	}

	log.Println("Connected to MongoDB")

	setupCollections(client)

	return client
}

// GetCollection returns MongoDB collection
func GetCollection(client *mongo.Client, collectionName string) *mongo.Collection {
	return client.Database(DatabaseName()).Collection(collectionName)
}

// DatabaseName returns the configured database name.
func DatabaseName() string {
	dbName := os.Getenv("DB_NAME")
	if dbName == "" {
		dbName = "refpay"
	}
	return dbName
}

// setupCollections ensures all necessary collections and indexes exist.
// The unique indexes back the at-most-once contracts: one account per
// Telegram id, one account per referral code, one referral per
// (referrer, referred) pair.
func setupCollections(client *mongo.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db := client.Database(DatabaseName())

	collections := []string{"users", "referrals", "payments", "withdrawals", "admins"}
	for _, collName := range collections {
		db.CreateCollection(ctx, collName)
	}

	userColl := db.Collection("users")
	codeIndexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "referralCode", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	_, err := userColl.Indexes().CreateOne(ctx, codeIndexModel)
	if err != nil {
		log.Printf("Error creating referralCode index: %v", err)
	}

	referralColl := db.Collection("referrals")
	pairIndexModel := mongo.IndexModel{
		Keys: bson.D{
			{Key: "referrerId", Value: 1},
			{Key: "referredId", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	}
	_, err = referralColl.Indexes().CreateOne(ctx, pairIndexModel)
	if err != nil {
		log.Printf("Error creating referral pair index: %v", err)
	}

	// Pending work items are listed in arrival order
	for collName, field := range map[string]string{
		"payments":    "submittedAt",
		"withdrawals": "requestedAt",
	} {
		coll := db.Collection(collName)
		statusIndexModel := mongo.IndexModel{
			Keys: bson.D{
				{Key: "status", Value: 1},
				{Key: field, Value: 1},
			},
		}
		_, err = coll.Indexes().CreateOne(ctx, statusIndexModel)
		if err != nil {
			log.Printf("Error creating status index for %s: %v", collName, err)
		}
	}

	adminColl := db.Collection("admins")
	usernameIndexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	_, err = adminColl.Indexes().CreateOne(ctx, usernameIndexModel)
	if err != nil {
		log.Printf("Error creating admin username index: %v", err)
	}

	log.Println("Database collections and indexes setup complete")
}

// maskMongoURI masks the password in MongoDB URI for logging
func maskMongoURI(uri string) string {
	if idx := strings.Index(uri, "@"); idx > 0 {
		if colonIdx := strings.LastIndex(uri[:idx], ":"); colonIdx > 0 {
			return uri[:colonIdx+1] + "***" + uri[idx:]
		}
	}
	return uri
}
