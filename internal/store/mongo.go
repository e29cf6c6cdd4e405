package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/BEASTY2K3/marathon-registration/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	paymentsCollection     = "payments"
	participantsCollection = "users"
)

// MongoStore keeps payments and participants as documents
type MongoStore struct {
	client       *mongo.Client
	payments     *mongo.Collection
	participants *mongo.Collection
}

// NewMongoStore connects and pings the primary
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	db := client.Database(database)
	return &MongoStore{
		client:       client,
		payments:     db.Collection(paymentsCollection),
		participants: db.Collection(participantsCollection),
	}, nil
}

// EnsureIndexes creates the unique indexes the registration flow relies on
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.participants.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "chestNumber", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_chest_number"),
	})
	if err != nil {
		return fmt.Errorf("failed to create chest number index: %w", err)
	}

	_, err = s.payments.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "orderId", Value: 1}, {Key: "paymentId", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_order_payment"),
	})
	if err != nil {
		return fmt.Errorf("failed to create payment index: %w", err)
	}
	return nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *MongoStore) SavePayment(ctx context.Context, payment *models.Payment) error {
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = time.Now().UTC()
	}

	filter := bson.M{"orderId": payment.OrderID, "paymentId": payment.PaymentID}
	update := bson.M{"$setOnInsert": bson.M{
		"status":    payment.Status,
		"createdAt": payment.CreatedAt,
	}}

	_, err := s.payments.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

func (s *MongoStore) FindPayment(ctx context.Context, orderID, paymentID string) (*models.Payment, error) {
	var payment models.Payment
	err := s.payments.FindOne(ctx, bson.M{"orderId": orderID, "paymentId": paymentID}).Decode(&payment)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (s *MongoStore) MaxChestNumber(ctx context.Context) (int64, error) {
	opts := options.FindOne().
		SetSort(bson.D{{Key: "chestNumber", Value: -1}}).
		SetProjection(bson.M{"chestNumber": 1})

	var last models.Participant
	err := s.participants.FindOne(ctx, bson.D{}, opts).Decode(&last)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return last.ChestNumber, nil
}

func (s *MongoStore) InsertParticipant(ctx context.Context, p *models.Participant) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	_, err := s.participants.InsertOne(ctx, p)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %d", ErrDuplicateChestNumber, p.ChestNumber)
	}
	return err
}
