package mongostore

import (
	"context"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"company-admin/internal/shared/model"
	"company-admin/internal/shared/storage"
)

// ============================================================================
// ProductStore
// ============================================================================

func (s *Store) CreateProduct(ctx context.Context, p *model.Product) error {
	return insertOne(ctx, s.col(ColProducts), p)
}

func (s *Store) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	p, err := findOne[model.Product](ctx, s.col(ColProducts), bson.D{{Key: "_id", Value: id}})
	if err != nil || p == nil {
		return p, err
	}
	if err := s.populateProducts(ctx, []*model.Product{p}); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Store) UpdateProduct(ctx context.Context, p *model.Product) error {
	return updateFields(ctx, s.col(ColProducts), p.ID, bson.D{
		{Key: "product_name", Value: p.ProductName},
		{Key: "product_features", Value: p.ProductFeatures},
		{Key: "main_image", Value: p.MainImage},
		{Key: "additional_images", Value: p.AdditionalImages},
		{Key: "description", Value: p.Description},
		{Key: "price", Value: p.Price},
		{Key: "category", Value: p.Category},
		{Key: "updated_at", Value: time.Now()},
	})
}

func (s *Store) SoftDeleteProduct(ctx context.Context, id string) error {
	return updateFields(ctx, s.col(ColProducts), id, bson.D{
		{Key: "is_active", Value: false},
		{Key: "updated_at", Value: time.Now()},
	})
}

func (s *Store) ListProducts(ctx context.Context, opts storage.ListOptions) ([]*model.Product, int64, error) {
	filter := bson.D{activeOnly}
	if opts.Search != "" {
		// 产品搜索走 product_name+description 的文本索引
		filter = append(filter, bson.E{Key: "$text", Value: bson.D{{Key: "$search", Value: opts.Search}}})
	}
	if cat := opts.Filter("category"); cat != "" {
		filter = append(filter, bson.E{Key: "category", Value: cat})
	}

	products, err := findMany[model.Product](ctx, s.col(ColProducts), filter, findOptions(opts))
	if err != nil {
		return nil, 0, err
	}
	total, err := count(ctx, s.col(ColProducts), filter)
	if err != nil {
		return nil, 0, err
	}
	if err := s.populateProducts(ctx, products); err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// ListProductCategories 激活产品的去重分类（去掉空串，升序）
func (s *Store) ListProductCategories(ctx context.Context) ([]string, error) {
	raw := s.col(ColProducts).Distinct(ctx, "category", bson.D{activeOnly})
	if err := raw.Err(); err != nil {
		return nil, wrapError(err)
	}
	var values []bson.RawValue
	if err := raw.Decode(&values); err != nil {
		return nil, err
	}
	categories := []string{}
	for _, v := range values {
		if s, ok := v.StringValueOK(); ok && s != "" {
			categories = append(categories, s)
		}
	}
	sort.Strings(categories)
	return categories, nil
}

// populateProducts 回填创建者子集
func (s *Store) populateProducts(ctx context.Context, products []*model.Product) error {
	ids := make([]string, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.CreatedByID)
	}
	admins, err := s.adminRefs(ctx, ids)
	if err != nil {
		return err
	}
	for _, p := range products {
		p.CreatedBy = admins[p.CreatedByID]
	}
	return nil
}
