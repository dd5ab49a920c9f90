package config

import (
	"os"
	"strings"
)

// GeminiKeyConfigSource 配置文件中的密钥来源名
const GeminiKeyConfigSource = "config:gemini.api_key"

// geminiKeyEnvNames 按优先级排列的密钥环境变量
var geminiKeyEnvNames = []string{"GEMINI_API_KEY", "API_KEY"}

// GeminiKey 解析出的推理服务密钥及其来源
type GeminiKey struct {
	Value  string
	Source string
}

// Configured 是否找到了密钥
func (k GeminiKey) Configured() bool {
	return k.Value != ""
}

// DisplayName 来源名，未配置时返回 "none"
func (k GeminiKey) DisplayName() string {
	if k.Source == "" {
		return "none"
	}
	return k.Source
}

// ResolveGeminiKey 按 gemini.api_key > GEMINI_API_KEY > API_KEY 的顺序解析密钥
func ResolveGeminiKey(cfg *Config) GeminiKey {
	if cfg != nil {
		if v := strings.TrimSpace(cfg.Gemini.APIKey); v != "" {
			return GeminiKey{Value: v, Source: GeminiKeyConfigSource}
		}
	}
	for _, name := range geminiKeyEnvNames {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return GeminiKey{Value: v, Source: name}
		}
	}
	return GeminiKey{}
}
