// Package mongostore 实现基于 MongoDB 的 storage.Store
//
// 使用 mongo-go-driver v2，通过 bson tag 实现 model 结构体的序列化/反序列化。
// 所有 Collection 名称和索引在 ensureIndexes 中统一管理；唯一索引是重复数据
// 的最终权威，handler 侧的预检查仅用于提前返回更友好的错误。
package mongostore

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Collection 名称常量
const (
	ColAdmins       = "admins"
	ColDepartments  = "departments"
	ColDesignations = "designations"
	ColIdCards      = "id_cards"
	ColProducts     = "products"
	ColContacts     = "contacts"
)

// Store 实现 storage.Store 接口的 MongoDB 驱动
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewStore 创建 MongoDB 存储实例
//
// uri: MongoDB 连接 URI，如 "mongodb://localhost:27017"
// dbName: 数据库名称，如 "company_admin"
func NewStore(uri, dbName string) (*Store, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongostore: connect failed: %w", err)
	}

	// 验证连接
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongostore: ping failed: %w", err)
	}

	db := client.Database(dbName)
	s := &Store{client: client, db: db}

	// 创建索引
	if err := s.ensureIndexes(ctx); err != nil {
		log.Printf("WARNING: mongostore: ensure indexes failed: %v", err)
	}

	return s, nil
}

// Ping 数据库连通性检查
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close 关闭 MongoDB 连接
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// col 获取指定 Collection
func (s *Store) col(name string) *mongo.Collection {
	return s.db.Collection(name)
}

// ensureIndexes 创建所有必要的索引
func (s *Store) ensureIndexes(ctx context.Context) error {
	type idx struct {
		col    string
		keys   bson.D
		unique bool
		text   bool
	}

	indexes := []idx{
		// admins
		{col: ColAdmins, keys: bson.D{{Key: "email", Value: 1}}, unique: true},
		{col: ColAdmins, keys: bson.D{{Key: "last_login", Value: -1}}},

		// departments
		{col: ColDepartments, keys: bson.D{{Key: "name", Value: 1}}, unique: true},
		{col: ColDepartments, keys: bson.D{{Key: "code", Value: 1}}, unique: true},
		{col: ColDepartments, keys: bson.D{{Key: "is_active", Value: 1}, {Key: "created_at", Value: -1}}},

		// designations
		{col: ColDesignations, keys: bson.D{{Key: "title", Value: 1}}, unique: true},
		{col: ColDesignations, keys: bson.D{{Key: "department", Value: 1}, {Key: "is_active", Value: 1}}},

		// id_cards
		{col: ColIdCards, keys: bson.D{{Key: "id_card_number", Value: 1}}, unique: true},
		{col: ColIdCards, keys: bson.D{{Key: "email", Value: 1}}, unique: true},
		{col: ColIdCards, keys: bson.D{{Key: "employee_type", Value: 1}, {Key: "is_active", Value: 1}}},
		{col: ColIdCards, keys: bson.D{{Key: "department", Value: 1}, {Key: "is_active", Value: 1}}},
		{col: ColIdCards, keys: bson.D{{Key: "designation", Value: 1}, {Key: "is_active", Value: 1}}},

		// products：全文索引支撑列表搜索
		{col: ColProducts, keys: bson.D{{Key: "product_name", Value: "text"}, {Key: "description", Value: "text"}}, text: true},
		{col: ColProducts, keys: bson.D{{Key: "category", Value: 1}, {Key: "is_active", Value: 1}}},
		{col: ColProducts, keys: bson.D{{Key: "created_at", Value: -1}}},

		// contacts
		{col: ColContacts, keys: bson.D{{Key: "status", Value: 1}}},
		{col: ColContacts, keys: bson.D{{Key: "created_at", Value: -1}}},
	}

	for _, i := range indexes {
		model := mongo.IndexModel{Keys: i.keys}
		if i.unique {
			model.Options = options.Index().SetUnique(true)
		}
		if _, err := s.col(i.col).Indexes().CreateOne(ctx, model); err != nil {
			return fmt.Errorf("create index on %s: %w", i.col, err)
		}
	}

	return nil
}
