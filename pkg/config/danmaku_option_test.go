package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

// TestDefaultDanmakuOption 测试默认配置
func TestDefaultDanmakuOption(t *testing.T) {
	opt := DefaultDanmakuOption()

	if opt.Opacity != 0.6 {
		t.Errorf("Opacity: got %v, want 0.6", opt.Opacity)
	}
	if opt.FontSize != 17 {
		t.Errorf("FontSize: got %v, want 17", opt.FontSize)
	}
	if opt.AreaRatio != 0.25 {
		t.Errorf("AreaRatio: got %v, want 0.25", opt.AreaRatio)
	}
	if opt.DurationSeconds != 10 {
		t.Errorf("DurationSeconds: got %v, want 10", opt.DurationSeconds)
	}
	if opt.LineHeight != 1.6 {
		t.Errorf("LineHeight: got %v, want 1.6", opt.LineHeight)
	}
	if opt.StrokeWidth != 0.8 {
		t.Errorf("StrokeWidth: got %v, want 0.8", opt.StrokeWidth)
	}
	if opt.HideScroll {
		t.Error("HideScroll: got true, want false")
	}
}

// TestApplyClamp 测试越界值被夹紧
func TestApplyClamp(t *testing.T) {
	tests := []struct {
		name    string
		options map[string]any
		check   func(DanmakuOption) bool
	}{
		{"不透明度上限", map[string]any{"opacity": 5.0}, func(o DanmakuOption) bool { return o.Opacity == 1.0 }},
		{"不透明度下限", map[string]any{"opacity": 0.0}, func(o DanmakuOption) bool { return o.Opacity == 0.1 }},
		{"字号上限", map[string]any{"fontSize": 100}, func(o DanmakuOption) bool { return o.FontSize == 64 }},
		{"字号下限", map[string]any{"fontSize": int64(2)}, func(o DanmakuOption) bool { return o.FontSize == 8 }},
		{"区域下限", map[string]any{"areaRatio": 0.01}, func(o DanmakuOption) bool { return o.AreaRatio == 0.1 }},
		{"区域别名", map[string]any{"area": 0.5}, func(o DanmakuOption) bool { return o.AreaRatio == 0.5 }},
		{"时长下限", map[string]any{"durationSeconds": 1}, func(o DanmakuOption) bool { return o.DurationSeconds == 3 }},
		{"时长无上限", map[string]any{"duration": 120.0}, func(o DanmakuOption) bool { return o.DurationSeconds == 120 }},
		{"行高上限", map[string]any{"lineHeight": float32(3)}, func(o DanmakuOption) bool { return o.LineHeight == 2.2 }},
		{"描边上限", map[string]any{"strokeWidth": 2.5}, func(o DanmakuOption) bool { return o.StrokeWidth == 2.0 }},
		{"描边下限", map[string]any{"strokeWidth": -1}, func(o DanmakuOption) bool { return o.StrokeWidth == 0 }},
		{"数字字符串", map[string]any{"fontSize": " 20 "}, func(o DanmakuOption) bool { return o.FontSize == 20 }},
		{"隐藏开关", map[string]any{"hideScroll": true}, func(o DanmakuOption) bool { return o.HideScroll }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DefaultDanmakuOption().Apply(tt.options)
			if !tt.check(got) {
				t.Errorf("Apply(%v) = %+v", tt.options, got)
			}
		})
	}
}

// TestApplyIgnoresInvalid 测试无效输入保留原值
func TestApplyIgnoresInvalid(t *testing.T) {
	base := DefaultDanmakuOption()
	got := base.Apply(map[string]any{
		"opacity":     math.NaN(),
		"fontSize":    math.Inf(1),
		"lineHeight":  "tall",
		"hideScroll":  "maybe",
		"strokeWidth": []int{1},
		"unknownKey":  42,
	})

	if got != base {
		t.Errorf("invalid input should leave option untouched, got %+v, want %+v", got, base)
	}
}

// TestApplyAbsentKeysUntouched 测试缺失的键不影响原值
func TestApplyAbsentKeysUntouched(t *testing.T) {
	base := DefaultDanmakuOption().Apply(map[string]any{"strokeWidth": 1.5, "opacity": 0.3})
	got := base.Apply(map[string]any{"fontSize": 30})

	if got.StrokeWidth != 1.5 {
		t.Errorf("StrokeWidth: got %v, want 1.5", got.StrokeWidth)
	}
	if got.Opacity != 0.3 {
		t.Errorf("Opacity: got %v, want 0.3", got.Opacity)
	}
	if got.FontSize != 30 {
		t.Errorf("FontSize: got %v, want 30", got.FontSize)
	}
}

// TestApplyIdempotentClamp 测试应用结果已在范围内：Clamp(Apply(x)) == Apply(x)
func TestApplyIdempotentClamp(t *testing.T) {
	inputs := []map[string]any{
		{"opacity": -3, "fontSize": 1e9, "area": 7, "duration": -10, "lineHeight": 0, "strokeWidth": 99},
		{"opacity": 0.55, "fontSize": 12.5, "areaRatio": 0.33, "durationSeconds": 4.2, "lineHeight": 1.1},
		{},
	}

	for i, in := range inputs {
		applied := DefaultDanmakuOption().Apply(in)
		if applied.Clamp() != applied {
			t.Errorf("case %d: Clamp(Apply(x)) = %+v, want %+v", i, applied.Clamp(), applied)
		}
	}
}

// TestAlpha 测试 alpha 计算与下限
func TestAlpha(t *testing.T) {
	tests := []struct {
		opacity float64
		want    uint8
	}{
		{1.0, 255},
		{0.6, 153},
		{0.1, 26},
		{0.05, 20}, // 绕过 Apply 直接构造，验证下限
	}

	for _, tt := range tests {
		opt := DefaultDanmakuOption()
		opt.Opacity = tt.opacity
		if got := opt.Alpha(); got != tt.want {
			t.Errorf("Alpha(opacity=%v) = %d, want %d", tt.opacity, got, tt.want)
		}
	}
}

// TestDurationMillis 测试时长换算与 1000ms 下限
func TestDurationMillis(t *testing.T) {
	opt := DefaultDanmakuOption()
	if got := opt.DurationMillis(); got != 10000 {
		t.Errorf("DurationMillis: got %v, want 10000", got)
	}

	opt.DurationSeconds = 0.5
	if got := opt.DurationMillis(); got != 1000 {
		t.Errorf("DurationMillis floor: got %v, want 1000", got)
	}
}

// TestLoadOptionFile 测试从 YAML / TOML / JSON 文件加载配置
func TestLoadOptionFile(t *testing.T) {
	dir := t.TempDir()

	files := map[string]string{
		"danmaku.yaml": "opacity: 0.8\nfontSize: 24\narea: 0.5\nunknown: true\n",
		"danmaku.toml": "opacity = 0.8\nfontSize = 24\nareaRatio = 0.5\n",
		"danmaku.json": `{"opacity": 0.8, "fontSize": 24, "area": 0.5}`,
	}

	for name, content := range files {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			if err := os.WriteFile(path, []byte(content), 0644); err != nil {
				t.Fatalf("write file: %v", err)
			}

			opt, err := LoadOptionFile(path)
			if err != nil {
				t.Fatalf("LoadOptionFile() error: %v", err)
			}
			if opt.Opacity != 0.8 || opt.FontSize != 24 || opt.AreaRatio != 0.5 {
				t.Errorf("loaded option mismatch: %+v", opt)
			}
			if opt.DurationSeconds != DurationSecondsDefault {
				t.Errorf("DurationSeconds: got %v, want default", opt.DurationSeconds)
			}
		})
	}
}

// TestLoadOptionFileErrors 测试加载失败时返回错误与默认配置
func TestLoadOptionFileErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := LoadOptionFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(dir, "bad.ini")
	if err := os.WriteFile(bad, []byte("opacity=1"), 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	opt, err := LoadOptionFile(bad)
	if err == nil {
		t.Error("expected error for unsupported extension")
	}
	if opt != DefaultDanmakuOption() {
		t.Errorf("expected default option on error, got %+v", opt)
	}
}

// TestParseOptionJSON 测试移动端 JSON 配置解析
func TestParseOptionJSON(t *testing.T) {
	options, err := ParseOptionJSON(`{"hideScroll": true, "strokeWidth": 1}`)
	if err != nil {
		t.Fatalf("ParseOptionJSON() error: %v", err)
	}

	opt := DefaultDanmakuOption().Apply(options)
	if !opt.HideScroll || opt.StrokeWidth != 1 {
		t.Errorf("unexpected option: %+v", opt)
	}

	empty, err := ParseOptionJSON("  ")
	if err != nil || len(empty) != 0 {
		t.Errorf("empty input: got %v, %v", empty, err)
	}
}
