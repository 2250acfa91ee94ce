package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/eparriel/pfe-backend/internal/core/domain"
)

const (
	usersCollection    = "users"
	rolesCollection    = "roles"
	countersCollection = "counters"
)

// MongoUserRepository stores users and roles with integer ids allocated from
// a counters collection.
type MongoUserRepository struct {
	users    *mongo.Collection
	roles    *mongo.Collection
	counters *mongo.Collection
	client   *mongo.Client
	now      func() time.Time
}

func NewUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{
		users:    db.Collection(usersCollection),
		roles:    db.Collection(rolesCollection),
		counters: db.Collection(countersCollection),
		client:   db.Client(),
		now:      time.Now,
	}
}

type mongoUser struct {
	ID           int64  `bson:"_id"`
	Email        string `bson:"email"`
	PasswordHash string `bson:"password_hash"`
	FirstName    string `bson:"first_name"`
	LastName     string `bson:"last_name"`
	Name         string `bson:"name"`
	RoleID       int64  `bson:"role_id"`
	CreatedAt    int64  `bson:"created_at"`
	UpdatedAt    int64  `bson:"updated_at"`
}

type mongoRole struct {
	ID   int64  `bson:"_id"`
	Name string `bson:"name"`
}

// EnsureIndexes creates the unique indexes the store relies on.
func (r *MongoUserRepository) EnsureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)
	if _, err := r.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "email", Value: 1}}, Options: unique,
	}); err != nil {
		return fmt.Errorf("create users index: %w", err)
	}
	if _, err := r.roles.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "name", Value: 1}}, Options: unique,
	}); err != nil {
		return fmt.Errorf("create roles index: %w", err)
	}
	return nil
}

func (r *MongoUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findUser(ctx, bson.M{"email": email})
}

func (r *MongoUserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.findUser(ctx, bson.M{"_id": id})
}

func (r *MongoUserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	id, err := r.nextID(ctx, usersCollection)
	if err != nil {
		return nil, err
	}

	now := r.now().UTC()
	doc := mongoUser{
		ID:           id,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		Name:         user.DisplayName,
		RoleID:       user.Role.ID,
		CreatedAt:    now.UnixMilli(),
		UpdatedAt:    now.UnixMilli(),
	}

	if _, err := r.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrEmailTaken
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	return r.FindByID(ctx, id)
}

func (r *MongoUserRepository) Update(ctx context.Context, id int64, patch domain.UserPatch) (*domain.User, error) {
	if patch.IsEmpty() {
		return r.FindByID(ctx, id)
	}

	set := bson.M{"updated_at": r.now().UTC().UnixMilli()}
	put := func(field string, v *string) {
		if v != nil {
			set[field] = *v
		}
	}
	put("email", patch.Email)
	put("first_name", patch.FirstName)
	put("last_name", patch.LastName)
	put("name", patch.DisplayName)
	put("password_hash", patch.PasswordHash)

	res, err := r.users.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrEmailTaken
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return nil, domain.ErrUserNotFound
	}

	return r.FindByID(ctx, id)
}

func (r *MongoUserRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.users.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// FindOrCreateRole looks the role up and inserts it when missing. Losing an
// insert race to another caller surfaces as a duplicate key, after which the
// winner's document is read back.
func (r *MongoUserRepository) FindOrCreateRole(ctx context.Context, name string) (*domain.Role, error) {
	role, err := r.findRole(ctx, bson.M{"name": name})
	if err == nil {
		return role, nil
	}
	if !errors.Is(err, domain.ErrRoleNotFound) {
		return nil, err
	}

	id, err := r.nextID(ctx, rolesCollection)
	if err != nil {
		return nil, err
	}
	if _, err := r.roles.InsertOne(ctx, mongoRole{ID: id, Name: name}); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return r.findRole(ctx, bson.M{"name": name})
		}
		return nil, fmt.Errorf("insert role: %w", err)
	}
	return &domain.Role{ID: id, Name: name}, nil
}

func (r *MongoUserRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, nil)
}

func (r *MongoUserRepository) findUser(ctx context.Context, filter bson.M) (*domain.User, error) {
	var mu mongoUser
	if err := r.users.FindOne(ctx, filter).Decode(&mu); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	role, err := r.findRole(ctx, bson.M{"_id": mu.RoleID})
	if err != nil {
		return nil, err
	}

	return &domain.User{
		ID:           mu.ID,
		Email:        mu.Email,
		PasswordHash: mu.PasswordHash,
		FirstName:    mu.FirstName,
		LastName:     mu.LastName,
		DisplayName:  mu.Name,
		Role:         *role,
		CreatedAt:    millisToTime(mu.CreatedAt),
		UpdatedAt:    millisToTime(mu.UpdatedAt),
	}, nil
}

func (r *MongoUserRepository) findRole(ctx context.Context, filter bson.M) (*domain.Role, error) {
	var mr mongoRole
	if err := r.roles.FindOne(ctx, filter).Decode(&mr); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrRoleNotFound
		}
		return nil, fmt.Errorf("find role: %w", err)
	}
	return &domain.Role{ID: mr.ID, Name: mr.Name}, nil
}

// nextID atomically increments the named sequence and returns its new value.
func (r *MongoUserRepository) nextID(ctx context.Context, sequence string) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := r.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": sequence},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("next %s id: %w", sequence, err)
	}
	return counter.Seq, nil
}

func millisToTime(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
