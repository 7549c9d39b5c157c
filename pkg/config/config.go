package config

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Tenant   TenantConfig
	Storage  StorageConfig
	Fleet    FleetConfig
	Seed     SeedConfig
	JWT      JWTConfig `mapstructure:"jwt"`
	Log      LogConfig
	Redis    RedisConfig
	CORS     CORSConfig
}

type ServerConfig struct {
	Port string
	Mode string
}

// DatabaseConfig 控制面数据库，同时也是创建租户库时使用的服务器
type DatabaseConfig struct {
	Driver   string // postgres 或 mysql
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// TenantConfig 租户物理库配置
type TenantConfig struct {
	StorePrefix  string // 物理库名前缀
	MaxOpenConns int
	MaxIdleConns int
}

type StorageConfig struct {
	UploadsRoot string // 租户上传目录根路径
	ThemesRoot  string // 主题模板根路径
}

// FleetConfig 全量同步配置
type FleetConfig struct {
	Concurrency         int           // 同时迁移的租户数上限
	TenantTimeout       time.Duration // 单个租户迁移超时
	SyncCron            string        // 定时同步表达式，为空则不启用
	IncludeControlPlane bool          // 是否同时同步控制面库
}

// SeedConfig 新租户默认管理员凭证（仅在调用方未提供时使用）
type SeedConfig struct {
	AdminEmail    string
	AdminPassword string
	ActiveTheme   string
}

type JWTConfig struct {
	SecretKey     string `mapstructure:"secret_key"`     // JWT密钥
	TokenDuration string `mapstructure:"token_duration"` // 令牌有效期，如 "24h"
}

type LogConfig struct {
	Level      string
	FilePath   string
	MaxSize    int    // MB
	MaxBackups int    // 保留的备份文件数
	MaxAge     int    // 保留天数
	Compress   bool   // 是否压缩
	Format     string // json 或 text
}

type RedisConfig struct {
	Enabled  bool
	Host     string        // Redis主机地址
	Port     int           // Redis端口
	Password string        // Redis密码
	DB       int           // Redis数据库编号
	Prefix   string        // 缓存键前缀
	CacheTTL time.Duration // 模板元数据缓存有效期
}

type CORSConfig struct {
	AllowOrigins     []string // 允许的源
	AllowMethods     []string // 允许的HTTP方法
	AllowHeaders     []string // 允许的请求头
	ExposeHeaders    []string // 暴露的响应头
	AllowCredentials bool     // 是否允许携带凭证
	MaxAge           int      // 预检请求缓存时间（小时）
}

// 全局配置实例和同步锁
var (
	globalConfig *Config
	once         sync.Once
)

func GetConfig() *Config {
	once.Do(func() {
		var err error
		globalConfig, err = LoadConfig()
		if err != nil {
			panic("Failed to load config: " + err.Error())
		}
	})
	return globalConfig
}

// 获取环境变量，如果不存在则使用默认值
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// 获取环境变量转换为int
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// 获取环境变量转换为bool
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true"
	}
	return defaultValue
}

// 获取环境变量转换为时长，格式同 time.ParseDuration
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// 获取环境变量转换为字符串数组（逗号分隔）
func getEnvAsStringArray(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		result := make([]string, 0, len(parts))
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return defaultValue
}

func LoadConfig() (*Config, error) {
	// .env 不存在时直接使用环境变量
	_ = godotenv.Load()

	driver := strings.ToLower(getEnv("DB_DRIVER", "postgres"))
	defaultPort := "5432"
	if driver == "mysql" {
		defaultPort = "3306"
	}

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Mode: getEnv("SERVER_MODE", "debug"),
		},
		Database: DatabaseConfig{
			Driver:   driver,
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", defaultPort),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "sitehub"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Tenant: TenantConfig{
			StorePrefix:  getEnv("TENANT_STORE_PREFIX", "site_"),
			MaxOpenConns: getEnvAsInt("TENANT_MAX_OPEN_CONNS", 5),
			MaxIdleConns: getEnvAsInt("TENANT_MAX_IDLE_CONNS", 2),
		},
		Storage: StorageConfig{
			UploadsRoot: getEnv("UPLOADS_ROOT", "data/uploads"),
			ThemesRoot:  getEnv("THEMES_ROOT", "themes"),
		},
		Fleet: FleetConfig{
			Concurrency:         getEnvAsInt("FLEET_CONCURRENCY", 4),
			TenantTimeout:       getEnvAsDuration("FLEET_TENANT_TIMEOUT", 5*time.Minute),
			SyncCron:            getEnv("FLEET_SYNC_CRON", ""),
			IncludeControlPlane: getEnvAsBool("FLEET_INCLUDE_CONTROL_PLANE", true),
		},
		Seed: SeedConfig{
			AdminEmail:    getEnv("SEED_ADMIN_EMAIL", "admin@example.com"),
			AdminPassword: getEnv("SEED_ADMIN_PASSWORD", "Admin@123"),
			ActiveTheme:   getEnv("SEED_ACTIVE_THEME", "default"),
		},
		JWT: JWTConfig{
			SecretKey:     getEnv("JWT_SECRET_KEY", "default-secret-change-me"),
			TokenDuration: getEnv("JWT_TOKEN_DURATION", "24h"),
		},
		Log: LogConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			FilePath:   getEnv("LOG_FILE_PATH", "logs/app.log"),
			MaxSize:    getEnvAsInt("LOG_MAX_SIZE", 100),
			MaxBackups: getEnvAsInt("LOG_MAX_BACKUPS", 7),
			MaxAge:     getEnvAsInt("LOG_MAX_AGE", 30),
			Compress:   getEnvAsBool("LOG_COMPRESS", true),
			Format:     getEnv("LOG_FORMAT", "json"),
		},
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Prefix:   getEnv("REDIS_PREFIX", "sitehub"),
			CacheTTL: getEnvAsDuration("REDIS_CACHE_TTL", 24*time.Hour),
		},
		CORS: CORSConfig{
			AllowOrigins:     getEnvAsStringArray("CORS_ALLOW_ORIGINS", []string{"*"}),
			AllowMethods:     getEnvAsStringArray("CORS_ALLOW_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
			AllowHeaders:     getEnvAsStringArray("CORS_ALLOW_HEADERS", []string{"Origin", "Content-Type", "Authorization", "Accept"}),
			ExposeHeaders:    getEnvAsStringArray("CORS_EXPOSE_HEADERS", []string{"Content-Length", "Content-Type"}),
			AllowCredentials: getEnvAsBool("CORS_ALLOW_CREDENTIALS", false),
			MaxAge:           getEnvAsInt("CORS_MAX_AGE", 12),
		},
	}

	if config.Fleet.Concurrency < 1 {
		config.Fleet.Concurrency = 1
	}

	return config, nil
}
