package mongo

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/eparriel/pfe-backend/internal/core/domain"
)

var createdAt = time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)

func counterResponse(seq int64) bson.D {
	return mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
		{Key: "_id", Value: "seq"},
		{Key: "seq", Value: seq},
	}})
}

func duplicateKeyResponse() bson.D {
	return mtest.CreateWriteErrorsResponse(mtest.WriteError{
		Index:   0,
		Code:    11000,
		Message: "E11000 duplicate key error",
	})
}

func userDocResponse(id int64, email string, roleID int64) bson.D {
	return mtest.CreateCursorResponse(0, "pfe.users", mtest.FirstBatch, bson.D{
		{Key: "_id", Value: id},
		{Key: "email", Value: email},
		{Key: "password_hash", Value: "hash"},
		{Key: "first_name", Value: "A"},
		{Key: "last_name", Value: "B"},
		{Key: "name", Value: "A B"},
		{Key: "role_id", Value: roleID},
		{Key: "created_at", Value: createdAt.UnixMilli()},
		{Key: "updated_at", Value: createdAt.UnixMilli()},
	})
}

func roleDocResponse(id int64, name string) bson.D {
	return mtest.CreateCursorResponse(0, "pfe.roles", mtest.FirstBatch, bson.D{
		{Key: "_id", Value: id},
		{Key: "name", Value: name},
	})
}

func emptyCursor(ns string) bson.D {
	return mtest.CreateCursorResponse(0, ns, mtest.FirstBatch)
}

func TestMongoUserRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("create returns the stored user with its role", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(
			counterResponse(7),
			mtest.CreateSuccessResponse(),
			userDocResponse(7, "a@x.com", 2),
			roleDocResponse(2, domain.RoleUser),
		)

		user, err := repo.Create(ctx, &domain.User{
			Email: "a@x.com", PasswordHash: "hash", FirstName: "A", LastName: "B",
			DisplayName: "A B", Role: domain.Role{ID: 2, Name: domain.RoleUser},
		})
		if err != nil {
			mt.Fatalf("Create returned error: %v", err)
		}
		if user.ID != 7 || user.Role.Name != domain.RoleUser || user.DisplayName != "A B" {
			mt.Fatalf("unexpected user %+v", user)
		}
		if !user.CreatedAt.Equal(createdAt) {
			mt.Fatalf("expected created_at %s, got %s", createdAt, user.CreatedAt)
		}
	})

	mt.Run("create with a taken email is a conflict", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(counterResponse(8), duplicateKeyResponse())

		_, err := repo.Create(ctx, &domain.User{Email: "a@x.com", Role: domain.Role{ID: 2}})
		if !errors.Is(err, domain.ErrEmailTaken) {
			mt.Fatalf("expected ErrEmailTaken, got %v", err)
		}
	})

	mt.Run("update to a taken email is a conflict", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(duplicateKeyResponse())

		email := "b@x.com"
		_, err := repo.Update(ctx, 7, domain.UserPatch{Email: &email})
		if !errors.Is(err, domain.ErrEmailTaken) {
			mt.Fatalf("expected ErrEmailTaken, got %v", err)
		}
	})

	mt.Run("update of an unknown id is not found", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))

		name := "C"
		_, err := repo.Update(ctx, 99, domain.UserPatch{FirstName: &name})
		if !errors.Is(err, domain.ErrUserNotFound) {
			mt.Fatalf("expected ErrUserNotFound, got %v", err)
		}
	})

	mt.Run("delete of an unknown id is not found", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		if err := repo.Delete(ctx, 99); !errors.Is(err, domain.ErrUserNotFound) {
			mt.Fatalf("expected ErrUserNotFound, got %v", err)
		}
	})

	mt.Run("delete removes an existing user", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		if err := repo.Delete(ctx, 7); err != nil {
			mt.Fatalf("Delete returned error: %v", err)
		}
	})

	mt.Run("find by email of an unknown user is not found", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(emptyCursor("pfe.users"))

		if _, err := repo.FindByEmail(ctx, "nobody@x.com"); !errors.Is(err, domain.ErrUserNotFound) {
			mt.Fatalf("expected ErrUserNotFound, got %v", err)
		}
	})

	mt.Run("role created when missing", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(
			emptyCursor("pfe.roles"),
			counterResponse(3),
			mtest.CreateSuccessResponse(),
		)

		role, err := repo.FindOrCreateRole(ctx, domain.RoleAdmin)
		if err != nil {
			mt.Fatalf("FindOrCreateRole returned error: %v", err)
		}
		if role.ID != 3 || role.Name != domain.RoleAdmin {
			mt.Fatalf("unexpected role %+v", role)
		}
	})

	mt.Run("role insert race returns the winner", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(
			emptyCursor("pfe.roles"),
			counterResponse(4),
			duplicateKeyResponse(),
			roleDocResponse(1, domain.RoleUser),
		)

		role, err := repo.FindOrCreateRole(ctx, domain.RoleUser)
		if err != nil {
			mt.Fatalf("FindOrCreateRole returned error: %v", err)
		}
		if role.ID != 1 || role.Name != domain.RoleUser {
			mt.Fatalf("expected the existing role, got %+v", role)
		}
	})

	mt.Run("ids follow the counter sequence", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(counterResponse(1), counterResponse(2))

		for want := int64(1); want <= 2; want++ {
			got, err := repo.nextID(ctx, usersCollection)
			if err != nil {
				mt.Fatalf("nextID returned error: %v", err)
			}
			if got != want {
				mt.Fatalf("expected id %d, got %d", want, got)
			}
		}
	})
}

func TestMillisToTime(t *testing.T) {
	if got := millisToTime(0); !got.IsZero() {
		t.Fatalf("expected zero time for 0, got %s", got)
	}

	ts := time.Date(2024, 3, 1, 12, 30, 0, 5_000_000, time.UTC)
	if got := millisToTime(ts.UnixMilli()); !got.Equal(ts) {
		t.Fatalf("expected %s, got %s", ts, got)
	}
}
