package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

// Config 应用配置
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Gemini    GeminiConfig    `mapstructure:"gemini"`
	Google    GoogleConfig    `mapstructure:"google"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port   string `mapstructure:"port"`
	Mode   string `mapstructure:"mode"`
	AppURL string `mapstructure:"app_url"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	Charset  string `mapstructure:"charset"`
}

// GeminiConfig 推理服务配置（走 Gemini 的 OpenAI 兼容接口）
type GeminiConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

// GoogleConfig Google OAuth 配置
// AuthURL / TokenURL / UserInfoURL 为空时使用 Google 官方地址
type GoogleConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	AuthURL      string `mapstructure:"auth_url"`
	TokenURL     string `mapstructure:"token_url"`
	UserInfoURL  string `mapstructure:"userinfo_url"`
}

// DefaultJWTSecret 内置配置中的会话密钥，仅用于本地开发
const DefaultJWTSecret = "change-me-in-production"

// JWTConfig 会话令牌配置
type JWTConfig struct {
	Secret      string        `mapstructure:"secret"`
	ExpireHours int           `mapstructure:"expire_hours"`
	ExpireTime  time.Duration `mapstructure:"-"`
}

// UsesDefaultSecret 是否仍在使用内置密钥
func (j JWTConfig) UsesDefaultSecret() bool {
	return j.Secret == DefaultJWTSecret
}

// RateLimitConfig 分析接口限流配置
type RateLimitConfig struct {
	AnalyzeMax           int           `mapstructure:"analyze_max"`
	AnalyzeWindowSeconds int           `mapstructure:"analyze_window_seconds"`
	AnalyzeWindow        time.Duration `mapstructure:"-"`
}

// Configured 数据库是否配置了连接信息
func (d DatabaseConfig) Configured() bool {
	return d.Host != "" && d.DBName != ""
}

// DSN 构建 MySQL DSN 连接字符串
func (d DatabaseConfig) DSN() string {
	charset := d.Charset
	if charset == "" {
		charset = "utf8mb4"
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=%s&parseTime=True&loc=UTC",
		d.Username, d.Password, d.Host, d.Port, d.DBName, charset)
}

// RedirectURI OAuth 回调地址，AppURL 未配置时为空
func (s ServerConfig) RedirectURI() string {
	if s.AppURL == "" {
		return ""
	}
	return strings.TrimRight(s.AppURL, "/") + "/auth/google/callback"
}

var (
	// GlobalConfig 全局配置实例
	GlobalConfig *Config
)

// envAliases 常见部署环境变量名到配置键的映射
var envAliases = map[string][]string{
	"server.port":          {"DATALENS_SERVER_PORT", "PORT"},
	"server.app_url":       {"DATALENS_SERVER_APP_URL", "APP_URL"},
	"google.client_id":     {"DATALENS_GOOGLE_CLIENT_ID", "GOOGLE_CLIENT_ID"},
	"google.client_secret": {"DATALENS_GOOGLE_CLIENT_SECRET", "GOOGLE_CLIENT_SECRET"},
	"jwt.secret":           {"DATALENS_JWT_SECRET", "SESSION_SECRET"},
}

// LoadConfig 加载配置
// 优先级: 环境变量 > 外部配置文件 > 嵌入的默认配置
// configPath: 可选的外部配置文件路径
func LoadConfig(configPath string) (*Config, error) {
	log := Logger()

	// .env 不存在不算错误
	if err := godotenv.Load(); err == nil {
		log.Debug("已加载 .env")
	}

	v := viper.New()
	v.SetConfigType("yaml")

	// 1. 首先加载嵌入的默认配置
	if err := v.ReadConfig(bytes.NewReader(DefaultConfigYAML)); err != nil {
		return nil, fmt.Errorf("读取内置配置失败: %w", err)
	}

	// 2. 尝试加载外部配置文件（可选，用于覆盖默认配置）
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.MergeInConfig(); err != nil {
			log.Warnf("无法读取指定配置文件 %s: %v", configPath, err)
		} else {
			log.Infof("已合并外部配置文件: %s", configPath)
		}
	} else {
		externalViper := viper.New()
		externalViper.SetConfigName("config")
		externalViper.SetConfigType("yaml")
		externalViper.AddConfigPath(".")
		externalViper.AddConfigPath("./config")
		externalViper.AddConfigPath("/etc/datalens")
		externalViper.AddConfigPath("$HOME/.datalens")

		if err := externalViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(externalViper.AllSettings()); err != nil {
				log.Warnf("合并外部配置失败: %v", err)
			} else {
				log.Infof("已合并外部配置文件: %s", externalViper.ConfigFileUsed())
			}
		}
	}

	// 3. 环境变量覆盖
	v.SetEnvPrefix("DATALENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range envAliases {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, fmt.Errorf("绑定环境变量失败: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if cfg.Server.Port != "" && !strings.HasPrefix(cfg.Server.Port, ":") {
		cfg.Server.Port = ":" + cfg.Server.Port
	}
	if cfg.JWT.ExpireHours <= 0 {
		cfg.JWT.ExpireHours = 24 * 7
	}
	cfg.JWT.ExpireTime = time.Duration(cfg.JWT.ExpireHours) * time.Hour
	if cfg.RateLimit.AnalyzeWindowSeconds <= 0 {
		cfg.RateLimit.AnalyzeWindowSeconds = 60
	}
	cfg.RateLimit.AnalyzeWindow = time.Duration(cfg.RateLimit.AnalyzeWindowSeconds) * time.Second

	GlobalConfig = &cfg
	SetLogLevel(cfg.Server.Mode)

	return &cfg, nil
}

// PrintConfig 打印当前配置（隐藏敏感信息）
func PrintConfig() {
	if GlobalConfig == nil {
		return
	}
	key := ResolveGeminiKey(GlobalConfig)
	log := Logger()
	log.Info("当前配置:")
	log.Infof("  服务器: %s (模式: %s)", GlobalConfig.Server.Port, GlobalConfig.Server.Mode)
	log.Infof("  应用地址: %s", GlobalConfig.Server.AppURL)
	log.Infof("  数据库: %s@%s:%s/%s",
		GlobalConfig.Database.Username,
		GlobalConfig.Database.Host,
		GlobalConfig.Database.Port,
		GlobalConfig.Database.DBName)
	log.Infof("  推理模型: %s (密钥来源: %s)", GlobalConfig.Gemini.Model, key.DisplayName())
	log.Infof("  Google 登录: %v", GlobalConfig.Google.ClientID != "")
	if GlobalConfig.Server.Mode == "release" && GlobalConfig.JWT.UsesDefaultSecret() {
		log.Warn("jwt.secret 仍为内置默认值，请通过 SESSION_SECRET 或 DATALENS_JWT_SECRET 设置")
	}
}
