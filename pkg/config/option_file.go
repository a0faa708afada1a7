package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// LoadOptionFile 从文件加载弹幕配置并应用到默认配置上
//
// 支持的格式（按扩展名判断）：
//   - .yaml / .yml / .json：使用 yaml 解析（JSON 是 YAML 的子集）
//   - .toml：使用 toml 解析
//
// 文件中的值与 updateOption 走同一套夹紧规则，未识别的键被忽略
func LoadOptionFile(filePath string) (DanmakuOption, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return DefaultDanmakuOption(), fmt.Errorf("failed to read option file: %w", err)
	}

	options, err := ParseOptions(data, filepath.Ext(filePath))
	if err != nil {
		return DefaultDanmakuOption(), fmt.Errorf("failed to parse option file %s: %w", filePath, err)
	}

	return DefaultDanmakuOption().Apply(options), nil
}

// ParseOptions 把原始配置数据解析为键值映射
//
// 参数:
//   - data: 原始数据
//   - ext: 文件扩展名（如 ".toml"），为空时按 YAML 解析
func ParseOptions(data []byte, ext string) (map[string]any, error) {
	options := make(map[string]any)

	switch strings.ToLower(ext) {
	case ".toml":
		if _, err := toml.Decode(string(data), &options); err != nil {
			return nil, fmt.Errorf("failed to parse TOML: %w", err)
		}
	case "", ".yaml", ".yml", ".json":
		if err := yaml.Unmarshal(data, &options); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported option file extension: %q", ext)
	}

	return options, nil
}

// ParseOptionJSON 解析宿主传入的 JSON 配置字符串（移动端绑定使用）
func ParseOptionJSON(s string) (map[string]any, error) {
	if strings.TrimSpace(s) == "" {
		return map[string]any{}, nil
	}
	return ParseOptions([]byte(s), ".json")
}
