package config

import (
	"math"
	"strconv"
	"strings"
)

// 弹幕配置取值范围与默认值
// 所有字段在任何时刻都必须落在范围内，越界输入被夹紧，无效输入被忽略
const (
	OpacityMin     = 0.1
	OpacityMax     = 1.0
	OpacityDefault = 0.6

	FontSizeMin     = 8.0
	FontSizeMax     = 64.0
	FontSizeDefault = 17.0

	AreaRatioMin     = 0.1
	AreaRatioMax     = 1.0
	AreaRatioDefault = 0.25

	// DurationSecondsMin 弹幕横穿整个行程的最短时间（秒），无上限
	DurationSecondsMin     = 3.0
	DurationSecondsDefault = 10.0

	LineHeightMin     = 1.0
	LineHeightMax     = 2.2
	LineHeightDefault = 1.6

	StrokeWidthMin     = 0.0
	StrokeWidthMax     = 2.0
	StrokeWidthDefault = 0.8
)

// 配置键名（与宿主侧 updateOption 参数一致）
const (
	KeyOpacity         = "opacity"
	KeyFontSize        = "fontSize"
	KeyAreaRatio       = "areaRatio"
	KeyArea            = "area" // KeyAreaRatio 的别名
	KeyDurationSeconds = "durationSeconds"
	KeyDuration        = "duration" // KeyDurationSeconds 的别名
	KeyLineHeight      = "lineHeight"
	KeyStrokeWidth     = "strokeWidth"
	KeyHideScroll      = "hideScroll"
)

// DanmakuOption 弹幕运行时可调参数
//
// 只能通过 Apply 整体替换，调用方持有的是值拷贝，不会看到半更新状态
type DanmakuOption struct {
	Opacity         float64 `yaml:"opacity" toml:"opacity"`                 // 不透明度 0.1 ~ 1.0
	FontSize        float64 `yaml:"fontSize" toml:"fontSize"`               // 逻辑字号 8 ~ 64
	AreaRatio       float64 `yaml:"areaRatio" toml:"areaRatio"`             // 可用于轨道的高度占比 0.1 ~ 1.0
	DurationSeconds float64 `yaml:"durationSeconds" toml:"durationSeconds"` // 横穿时长（秒）>= 3
	LineHeight      float64 `yaml:"lineHeight" toml:"lineHeight"`           // 行高倍数 1.0 ~ 2.2
	StrokeWidth     float64 `yaml:"strokeWidth" toml:"strokeWidth"`         // 描边宽度 0 ~ 2.0
	HideScroll      bool    `yaml:"hideScroll" toml:"hideScroll"`           // 隐藏滚动弹幕
}

// DefaultDanmakuOption 返回默认弹幕配置
func DefaultDanmakuOption() DanmakuOption {
	return DanmakuOption{
		Opacity:         OpacityDefault,
		FontSize:        FontSizeDefault,
		AreaRatio:       AreaRatioDefault,
		DurationSeconds: DurationSecondsDefault,
		LineHeight:      LineHeightDefault,
		StrokeWidth:     StrokeWidthDefault,
		HideScroll:      false,
	}
}

// Apply 将部分配置应用到当前配置上，返回新的配置
//
// 规则：
//   - 识别的键：校验并夹紧到合法范围
//   - 未识别的键：忽略
//   - 缺失的键、类型错误或非有限数值：保留原值
//
// 该操作永远成功，不返回错误
func (o DanmakuOption) Apply(options map[string]any) DanmakuOption {
	next := o
	if len(options) == 0 {
		return next
	}

	if v, ok := lookupNumber(options, KeyOpacity); ok {
		next.Opacity = clamp(v, OpacityMin, OpacityMax)
	}
	if v, ok := lookupNumber(options, KeyFontSize); ok {
		next.FontSize = clamp(v, FontSizeMin, FontSizeMax)
	}
	if v, ok := lookupNumber(options, KeyAreaRatio, KeyArea); ok {
		next.AreaRatio = clamp(v, AreaRatioMin, AreaRatioMax)
	}
	if v, ok := lookupNumber(options, KeyDurationSeconds, KeyDuration); ok {
		next.DurationSeconds = math.Max(v, DurationSecondsMin)
	}
	if v, ok := lookupNumber(options, KeyLineHeight); ok {
		next.LineHeight = clamp(v, LineHeightMin, LineHeightMax)
	}
	if v, ok := lookupNumber(options, KeyStrokeWidth); ok {
		next.StrokeWidth = clamp(v, StrokeWidthMin, StrokeWidthMax)
	}
	if v, ok := lookupBool(options, KeyHideScroll); ok {
		next.HideScroll = v
	}

	return next
}

// Clamp 把所有字段夹紧到合法范围（用于从持久化数据恢复的配置）
func (o DanmakuOption) Clamp() DanmakuOption {
	return DefaultDanmakuOption().Apply(o.Map())
}

// Map 返回规范键名的配置映射
func (o DanmakuOption) Map() map[string]any {
	return map[string]any{
		KeyOpacity:         o.Opacity,
		KeyFontSize:        o.FontSize,
		KeyAreaRatio:       o.AreaRatio,
		KeyDurationSeconds: o.DurationSeconds,
		KeyLineHeight:      o.LineHeight,
		KeyStrokeWidth:     o.StrokeWidth,
		KeyHideScroll:      o.HideScroll,
	}
}

// DurationMillis 返回用于速度计算的时长（毫秒），最低 1000ms
func (o DanmakuOption) DurationMillis() float64 {
	return math.Max(o.DurationSeconds*1000, 1000)
}

// Alpha 返回描边与填充共用的 alpha 通道值 [20, 255]
//
// 下限 20 保证最低不透明度时弹幕仍然可见
func (o DanmakuOption) Alpha() uint8 {
	a := math.Round(o.Opacity * 255)
	if math.IsNaN(a) {
		return 255
	}
	return uint8(clamp(a, 20, 255))
}

// lookupNumber 按顺序查找第一个存在的键并转换为有限浮点数
// 键存在但值无效时视为缺失
func lookupNumber(options map[string]any, keys ...string) (float64, bool) {
	for _, key := range keys {
		raw, exists := options[key]
		if !exists {
			continue
		}
		v, ok := toFloat(raw)
		if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return v, true
	}
	return 0, false
}

func lookupBool(options map[string]any, key string) (bool, bool) {
	raw, exists := options[key]
	if !exists {
		return false, false
	}
	switch v := raw.(type) {
	case bool:
		return v, true
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return false, false
		}
		return b, true
	}
	return false, false
}

// toFloat 把宿主传入的各种数值类型统一转换为 float64
func toFloat(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
