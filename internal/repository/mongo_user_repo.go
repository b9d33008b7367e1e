package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fathima-sithara/edu-auth-service/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const defaultOpTimeout = 5 * time.Second

type MongoUserRepo struct {
	col     *mongo.Collection
	timeout time.Duration
}

func NewMongoUserRepo(db *mongo.Database, collection string, timeout time.Duration) *MongoUserRepo {
	if timeout <= 0 {
		timeout = defaultOpTimeout
	}
	return &MongoUserRepo{col: db.Collection(collection), timeout: timeout}
}

// EnsureIndexes creates the unique email index. Emails are stored lowercased,
// so the index is effectively case-insensitive.
func (r *MongoUserRepo) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("email_unique"),
	})
	if err != nil {
		return fmt.Errorf("create email index: %w", err)
	}
	return nil
}

func (r *MongoUserRepo) Create(ctx context.Context, u *models.User) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := r.col.InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *MongoUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *MongoUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"_id": objID})
}

func (r *MongoUserRepo) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var u models.User
	err := r.col.FindOne(ctx, filter).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &u, nil
}

func (r *MongoUserRepo) SaveOTP(ctx context.Context, u *models.User) error {
	if !u.HasPendingOTP() {
		return ErrPartialOTP
	}
	if u.IsVerified {
		return ErrAlreadyVerified
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	u.UpdatedAt = time.Now().UTC()
	filter := bson.M{"_id": u.ID, "isVerified": false}
	update := bson.M{"$set": bson.M{
		"emailVerificationOtp":     *u.EmailVerificationOTP,
		"emailVerificationExpires": *u.EmailVerificationExpires,
		"updatedAt":                u.UpdatedAt,
	}}

	res, err := r.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("update user otp: %w", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	state, err := r.verificationState(ctx, u.ID)
	if err != nil {
		return err
	}
	if state.IsVerified {
		return ErrAlreadyVerified
	}
	// matched nothing yet unverified: the document changed under us
	return fmt.Errorf("update user otp: no document matched %s", u.ID.Hex())
}

func (r *MongoUserRepo) MarkVerified(ctx context.Context, u *models.User, code string) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	now := time.Now().UTC()
	filter := bson.M{"_id": u.ID, "isVerified": false, "emailVerificationOtp": code}
	update := bson.M{
		"$set":   bson.M{"isVerified": true, "updatedAt": now},
		"$unset": bson.M{"emailVerificationOtp": "", "emailVerificationExpires": ""},
	}

	res, err := r.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("mark user verified: %w", err)
	}
	if res.MatchedCount > 0 {
		u.MarkVerified()
		u.UpdatedAt = now
		return nil
	}

	state, err := r.verificationState(ctx, u.ID)
	if err != nil {
		return err
	}
	if state.IsVerified {
		return ErrAlreadyVerified
	}
	return ErrOTPSuperseded
}

type verificationState struct {
	IsVerified bool `bson:"isVerified"`
}

func (r *MongoUserRepo) verificationState(ctx context.Context, id primitive.ObjectID) (verificationState, error) {
	var st verificationState
	err := r.col.FindOne(ctx, bson.M{"_id": id}, options.FindOne().SetProjection(bson.M{"isVerified": 1})).Decode(&st)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return st, ErrUserNotFound
	}
	if err != nil {
		return st, fmt.Errorf("find user: %w", err)
	}
	return st, nil
}
