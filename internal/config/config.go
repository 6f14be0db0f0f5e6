// Package config 统一配置管理
//
// 配置加载策略：
//  1. 从 .env 加载敏感信息（JWT 密钥、数据库密码）和 APP_ENV
//  2. 加载 configs/common.yaml，再用 configs/{env}.yaml 覆盖
//  3. 环境变量可覆盖 YAML 配置
//
// 凭据单一数据源：密码/密钥只存在 .env 中，YAML 不存储任何密码。
//
// 使用方式：
//   - 开发环境: APP_ENV=dev (默认)
//   - 测试环境: APP_ENV=test
//   - 生产环境: APP_ENV=prod
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment 环境类型
type Environment string

const (
	EnvProduction  Environment = "prod"
	EnvTest        Environment = "test" // 测试环境（集成测试 + E2E 共用）
	EnvDevelopment Environment = "dev"
)

// YAMLConfig YAML 配置文件结构
type YAMLConfig struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Upload   UploadConfig   `yaml:"upload"`
	MinIO    MinIOConfig    `yaml:"minio"`
	CORS     CORSConfig     `yaml:"cors"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

type DatabaseConfig struct {
	URI  string `yaml:"uri"` // MongoDB 连接 URI，如 mongodb://localhost:27017
	Name string `yaml:"name"`
}

// AuthConfig 认证配置
// JWTSecret / AdminEmail / AdminPassword 只从环境变量读取，不存储在 YAML 中
type AuthConfig struct {
	JWTSecret     string `yaml:"-"` // 只从 JWT_SECRET 环境变量读取
	AdminEmail    string `yaml:"-"` // 只从 ADMIN_EMAIL 环境变量读取（引导超管）
	AdminPassword string `yaml:"-"` // 只从 ADMIN_PASSWORD 环境变量读取
}

// UploadConfig 文件上传配置
type UploadConfig struct {
	Backend string `yaml:"backend"` // "local"（默认）或 "minio"
	Dir     string `yaml:"dir"`     // 本地上传根目录
}

// MinIOConfig MinIO 对象存储配置（upload.backend=minio 时使用）
type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"` // 例如 localhost:9000
	AccessKey string `yaml:"-"`        // 只从 MINIO_ROOT_USER 环境变量读取
	SecretKey string `yaml:"-"`        // 只从 MINIO_ROOT_PASSWORD 环境变量读取
	UseSSL    bool   `yaml:"use_ssl"`
	Bucket    string `yaml:"bucket"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Config 应用配置（最终使用的配置）
type Config struct {
	Env      Environment
	MongoURI string
	DBName   string
	APIPort  string
	Auth     AuthConfig
	Upload   UploadConfig
	MinIO    MinIOConfig
	CORS     CORSConfig
}

var configPaths = []string{
	"configs",
	"../configs",
	"../../configs",
	"../../../configs",
}

var envPaths = []string{
	".env",
	"../.env",
	"../../.env",
	"../../../.env",
}

// Load 加载配置
// 1. 加载 .env（敏感信息 + APP_ENV）
// 2. 加载 configs/common.yaml + configs/{env}.yaml
// 3. 环境变量覆盖，构建最终配置
func Load() (*Config, error) {
	// 加载 .env
	for _, p := range envPaths {
		if err := godotenv.Load(p); err == nil {
			break
		}
	}

	// 解析环境
	env := parseEnv(getEnv("APP_ENV", "dev"))

	// 加载 YAML 配置
	yamlCfg := loadYAMLConfig(env)

	cfg := &Config{
		Env:      env,
		MongoURI: getEnv("MONGO_URI", yamlCfg.Database.URI),
		DBName:   getEnv("MONGO_DB_NAME", yamlCfg.Database.Name),
		APIPort:  getEnv("API_PORT", yamlCfg.Server.Port),
		Auth: AuthConfig{
			JWTSecret:     os.Getenv("JWT_SECRET"),
			AdminEmail:    os.Getenv("ADMIN_EMAIL"),
			AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		},
		Upload: UploadConfig{
			Backend: getEnv("UPLOAD_BACKEND", yamlCfg.Upload.Backend),
			Dir:     getEnv("UPLOAD_DIR", yamlCfg.Upload.Dir),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", yamlCfg.MinIO.Endpoint),
			AccessKey: os.Getenv("MINIO_ROOT_USER"),
			SecretKey: os.Getenv("MINIO_ROOT_PASSWORD"),
			UseSSL:    yamlCfg.MinIO.UseSSL,
			Bucket:    getEnv("MINIO_BUCKET", yamlCfg.MinIO.Bucket),
		},
		CORS: yamlCfg.CORS,
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate 校验配置并填充安全默认值
//
// 生产环境拒绝空 JWT 密钥启动；开发/测试环境回落到固定弱密钥以便本地调试。
func (c *Config) validate() error {
	if c.Auth.JWTSecret == "" {
		if c.Env == EnvProduction {
			return fmt.Errorf("config: JWT_SECRET is required in production")
		}
		c.Auth.JWTSecret = "dev-insecure-secret"
	}
	if c.Upload.Backend != "minio" {
		c.Upload.Backend = "local"
	}
	if c.Upload.Backend == "minio" && c.MinIO.Endpoint == "" {
		return fmt.Errorf("config: minio endpoint is required when upload.backend=minio")
	}
	return nil
}

// loadYAMLConfig 加载 YAML 配置文件
// 加载顺序：默认值 → common.yaml → {env}.yaml
func loadYAMLConfig(env Environment) *YAMLConfig {
	// 1. 初始化默认值
	cfg := &YAMLConfig{
		Server:   ServerConfig{Port: "8080"},
		Database: DatabaseConfig{URI: "mongodb://localhost:27017", Name: "company_admin"},
		Upload:   UploadConfig{Backend: "local", Dir: "uploads"},
		MinIO:    MinIOConfig{Endpoint: "localhost:9000", Bucket: "company-admin"},
		CORS:     CORSConfig{AllowedOrigins: []string{"*"}},
	}

	// 2. 加载 common.yaml（公共配置）
	for _, base := range configPaths {
		path := filepath.Join(base, "common.yaml")
		if data, err := os.ReadFile(path); err == nil {
			yaml.Unmarshal(data, cfg)
			break
		}
	}

	// 3. 加载 {env}.yaml（环境特定配置，覆盖公共配置）
	filename := fmt.Sprintf("%s.yaml", env)
	for _, base := range configPaths {
		path := filepath.Join(base, filename)
		if data, err := os.ReadFile(path); err == nil {
			yaml.Unmarshal(data, cfg)
			break
		}
	}

	return cfg
}

func parseEnv(env string) Environment {
	switch strings.ToLower(env) {
	case "test":
		return EnvTest
	case "prod", "production":
		return EnvProduction
	default:
		return EnvDevelopment
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// IsProduction 是否为生产环境
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// IsTest 是否为测试环境
func (c *Config) IsTest() bool {
	return c.Env == EnvTest
}

// String 返回配置摘要（隐藏密码）
func (c *Config) String() string {
	return fmt.Sprintf("Config{Env: %s, DB: %s/%s, Port: %s, Upload: %s}",
		c.Env, maskPassword(c.MongoURI), c.DBName, c.APIPort, c.Upload.Backend)
}

// maskPassword 隐藏 URI 中的密码
func maskPassword(uri string) string {
	re := regexp.MustCompile(`(://[^:/]+:)([^@]+)(@)`)
	return re.ReplaceAllString(uri, "${1}***${3}")
}
