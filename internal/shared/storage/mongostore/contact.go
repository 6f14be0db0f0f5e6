package mongostore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"company-admin/internal/shared/model"
	"company-admin/internal/shared/storage"
)

// ============================================================================
// ContactStore
// ============================================================================

func (s *Store) CreateContact(ctx context.Context, c *model.Contact) error {
	return insertOne(ctx, s.col(ColContacts), c)
}

func (s *Store) GetContact(ctx context.Context, id string) (*model.Contact, error) {
	return findOne[model.Contact](ctx, s.col(ColContacts), bson.D{{Key: "_id", Value: id}})
}

func (s *Store) UpdateContactStatus(ctx context.Context, id string, status model.ContactStatus) error {
	return updateFields(ctx, s.col(ColContacts), id, bson.D{
		{Key: "status", Value: status},
		{Key: "updated_at", Value: time.Now()},
	})
}

// DeleteContact 物理删除，联系记录无软删除
func (s *Store) DeleteContact(ctx context.Context, id string) error {
	return deleteByID(ctx, s.col(ColContacts), id)
}

func (s *Store) ListContacts(ctx context.Context, opts storage.ListOptions) ([]*model.Contact, int64, error) {
	filter := bson.D{}
	if opts.Search != "" {
		filter = append(filter, searchOr(opts.Search, "full_name", "email_address", "subject", "message"))
	}
	if status := opts.Filter("status"); status != "" {
		filter = append(filter, bson.E{Key: "status", Value: status})
	}

	contacts, err := findMany[model.Contact](ctx, s.col(ColContacts), filter, findOptions(opts))
	if err != nil {
		return nil, 0, err
	}
	total, err := count(ctx, s.col(ColContacts), filter)
	if err != nil {
		return nil, 0, err
	}
	return contacts, total, nil
}

// ContactStats 状态分布 + 近 6 个月月度提交量
func (s *Store) ContactStats(ctx context.Context) (*storage.ContactStats, error) {
	col := s.col(ColContacts)

	total, err := count(ctx, col, bson.D{})
	if err != nil {
		return nil, err
	}

	statusBuckets, err := groupCount(ctx, col, "$status", bson.D{})
	if err != nil {
		return nil, err
	}
	breakdown := make(map[model.ContactStatus]int64, len(model.ContactStatuses))
	for _, st := range model.ContactStatuses {
		breakdown[st] = 0
	}
	for _, b := range statusBuckets {
		breakdown[model.ContactStatus(b.Key)] = b.Count
	}

	monthly, err := monthBuckets(ctx, col, time.Now().AddDate(0, -6, 0), bson.D{})
	if err != nil {
		return nil, err
	}

	return &storage.ContactStats{
		Total:           total,
		StatusBreakdown: breakdown,
		MonthlyStats:    monthly,
	}, nil
}
