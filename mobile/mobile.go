//go:build mobile

// Package mobile 提供 ebitenmobile 绑定入口
//
// 此包用于构建 Android (.aar) 和 iOS (.xcframework) 包。
// 使用 ebitenmobile 工具构建时会自动调用 init() 函数。
//
// 此文件仅在使用 -tags mobile 构建时编译：
//
//	# Android
//	ebitenmobile bind -target android -tags mobile -androidapi 23 -javapkg com.decker.danmaku -o build/android/danmaku.aar -v ./mobile
//
//	# iOS (仅 macOS)
//	ebitenmobile bind -target ios -tags mobile -o build/ios/Danmaku.xcframework -v ./mobile
//
// 导出函数可以在任意线程调用，操作会排队到渲染线程执行。
package mobile

import (
	"log"

	"github.com/hajimehoshi/ebiten/v2/mobile"

	"github.com/decker502/danmaku/pkg/app"
	"github.com/decker502/danmaku/pkg/config"
	"github.com/decker502/danmaku/pkg/overlay"
)

var overlayApp *app.App

func init() {
	// 创建叠加层应用，使用默认配置
	cfg := app.Config{
		Verbose:      true, // Enable verbose logging for debugging
		LaneStrategy: "random",
		Persist:      true,
	}

	var err error
	overlayApp, err = app.NewApp(cfg)
	if err != nil {
		log.Fatalf("弹幕叠加层初始化失败: %v", err)
	}

	// 注册到 ebitenmobile
	mobile.SetGame(overlayApp)
}

// AddDanmaku 添加一条弹幕
//
// 参数:
//   - text: 弹幕文本，空白文本被忽略
//   - color: ARGB 颜色（Java 的有符号 int 亦可）
func AddDanmaku(text string, color int64) {
	overlayApp.Queue().Enqueue(overlay.MethodAddDanmaku, map[string]any{
		"text":  text,
		"color": color,
	})
}

// UpdateOption 应用部分配置
//
// 参数:
//   - optionJSON: JSON 对象，如 {"opacity":0.8,"hideScroll":true}
//
// 只有 JSON 本身无法解析时返回错误；值越界或类型不对会被夹紧或忽略
func UpdateOption(optionJSON string) error {
	options, err := config.ParseOptionJSON(optionJSON)
	if err != nil {
		return err
	}
	overlayApp.Queue().Enqueue(overlay.MethodUpdateOption, options)
	return nil
}

// Clear 清空所有弹幕
func Clear() {
	overlayApp.Queue().Enqueue(overlay.MethodClear, nil)
}

// Pause 暂停弹幕动画
func Pause() {
	overlayApp.Queue().Enqueue(overlay.MethodPause, nil)
}

// Resume 恢复弹幕动画
func Resume() {
	overlayApp.Queue().Enqueue(overlay.MethodResume, nil)
}

// Dispose 销毁叠加层，之后的调用都是空操作
func Dispose() {
	overlayApp.Queue().Enqueue(overlay.MethodDispose, nil)
}

// Dummy 是一个空导出函数，确保包被 ebitenmobile 正确识别
func Dummy() {}
