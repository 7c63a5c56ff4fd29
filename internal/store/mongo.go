package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ayush/lms-accounts/backend/internal/models"
)

// accountDoc is the BSON shape of an account in the users collection.
type accountDoc struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	Name       string             `bson:"name"`
	Email      string             `bson:"email"`
	Password   string             `bson:"password,omitempty"`
	Avatar     *models.Avatar     `bson:"avatar,omitempty"`
	Role       string             `bson:"role"`
	IsVerified bool               `bson:"isVerified"`
	Courses    []models.CourseRef `bson:"courses"`
	CreatedAt  time.Time          `bson:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt"`
}

func (d *accountDoc) toModel() *models.Account {
	courses := d.Courses
	if courses == nil {
		courses = []models.CourseRef{}
	}
	return &models.Account{
		ID:         d.ID.Hex(),
		Name:       d.Name,
		Email:      d.Email,
		Password:   d.Password,
		Avatar:     d.Avatar,
		Role:       d.Role,
		IsVerified: d.IsVerified,
		Courses:    courses,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
}

// withoutPassword is the default projection for account reads.
var withoutPassword = bson.M{"password": 0}

// MongoStore handles account persistence in MongoDB.
type MongoStore struct {
	col *mongo.Collection
	now func() time.Time
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{col: db.Collection("users"), now: time.Now}
}

// EnsureIndexes creates the unique email index.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("email_unique"),
	})
	if err != nil {
		return fmt.Errorf("mongo email index: %w", err)
	}
	return nil
}

// Create inserts a new account. acc.Password must already be hashed.
func (s *MongoStore) Create(ctx context.Context, acc *models.Account) error {
	now := s.now().UTC()
	doc := accountDoc{
		ID:         primitive.NewObjectID(),
		Name:       acc.Name,
		Email:      acc.Email,
		Password:   acc.Password,
		Avatar:     acc.Avatar,
		Role:       acc.Role,
		IsVerified: acc.IsVerified,
		Courses:    acc.Courses,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if doc.Role == "" {
		doc.Role = models.DefaultRole
	}
	if doc.Courses == nil {
		doc.Courses = []models.CourseRef{}
	}
	if _, err := s.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("mongo insert: %w", ErrDuplicateEmail)
		}
		return fmt.Errorf("mongo insert: %w", err)
	}
	acc.ID = doc.ID.Hex()
	acc.Role = doc.Role
	acc.Courses = doc.Courses
	acc.CreatedAt = now
	acc.UpdatedAt = now
	return nil
}

// GetByEmail returns the account without its password hash.
func (s *MongoStore) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	return s.findOne(ctx, bson.M{"email": email}, options.FindOne().SetProjection(withoutPassword))
}

// GetCredentials returns the account including its password hash.
func (s *MongoStore) GetCredentials(ctx context.Context, email string) (*models.Account, error) {
	return s.findOne(ctx, bson.M{"email": email}, options.FindOne())
}

func (s *MongoStore) GetByID(ctx context.Context, id string) (*models.Account, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidID, id)
	}
	return s.findOne(ctx, bson.M{"_id": oid}, options.FindOne().SetProjection(withoutPassword))
}

// UpdateAvatar replaces the avatar reference and returns the updated account.
func (s *MongoStore) UpdateAvatar(ctx context.Context, id string, avatar models.Avatar) (*models.Account, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidID, id)
	}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(withoutPassword)
	update := bson.M{"$set": bson.M{"avatar": avatar, "updatedAt": s.now().UTC()}}

	var doc accountDoc
	if err := s.col.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("mongo update avatar: %w", err)
	}
	return doc.toModel(), nil
}

func (s *MongoStore) findOne(ctx context.Context, filter bson.M, opts *options.FindOneOptions) (*models.Account, error) {
	var doc accountDoc
	if err := s.col.FindOne(ctx, filter, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("mongo find: %w", err)
	}
	return doc.toModel(), nil
}

// ConnectMongo connects and pings MongoDB, retrying until it succeeds or
// ctx is done.
func ConnectMongo(ctx context.Context, uri string, logger *slog.Logger) (*mongo.Client, error) {
	var client *mongo.Client
	err := retryConnect(ctx, logger, "mongo", func(ctx context.Context) error {
		c, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
		if err != nil {
			return err
		}
		if err := c.Ping(ctx, nil); err != nil {
			_ = c.Disconnect(ctx)
			return err
		}
		client = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}
