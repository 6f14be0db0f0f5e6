package mongostore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"company-admin/internal/shared/model"
)

// ============================================================================
// AdminStore
// ============================================================================

func (s *Store) CreateAdmin(ctx context.Context, admin *model.Admin) error {
	return insertOne(ctx, s.col(ColAdmins), admin)
}

func (s *Store) GetAdminByID(ctx context.Context, id string) (*model.Admin, error) {
	return findOne[model.Admin](ctx, s.col(ColAdmins), bson.D{{Key: "_id", Value: id}})
}

func (s *Store) GetAdminByEmail(ctx context.Context, email string) (*model.Admin, error) {
	return findOne[model.Admin](ctx, s.col(ColAdmins), bson.D{{Key: "email", Value: email}})
}

func (s *Store) UpdateAdminProfile(ctx context.Context, id, fullName, email string) error {
	return updateFields(ctx, s.col(ColAdmins), id, bson.D{
		{Key: "full_name", Value: fullName},
		{Key: "email", Value: email},
		{Key: "updated_at", Value: time.Now()},
	})
}

func (s *Store) UpdateAdminPassword(ctx context.Context, id, passwordHash string) error {
	return updateFields(ctx, s.col(ColAdmins), id, bson.D{
		{Key: "password_hash", Value: passwordHash},
		{Key: "updated_at", Value: time.Now()},
	})
}

func (s *Store) UpdateAdminLastLogin(ctx context.Context, id string, at time.Time) error {
	return updateFields(ctx, s.col(ColAdmins), id, bson.D{
		{Key: "last_login", Value: at},
	})
}
