package main

import (
	"image/color"
	"testing"

	"github.com/gdamore/tcell/v2"

	"github.com/decker502/danmaku/pkg/config"
	"github.com/decker502/danmaku/pkg/overlay"
	"github.com/decker502/danmaku/pkg/systems"
)

// newSimScreen 创建 80x24 的模拟终端
func newSimScreen(t *testing.T) tcell.SimulationScreen {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("screen.Init() error: %v", err)
	}
	t.Cleanup(screen.Fini)
	screen.SetSize(80, 24)
	return screen
}

// rowText 读取一行中 [from, to) 列的字符
func rowText(screen tcell.Screen, row, from, to int) string {
	var out []rune
	for x := from; x < to; x++ {
		r, _, _, width := screen.GetContent(x, row)
		if width == 0 {
			continue
		}
		out = append(out, r)
	}
	return string(out)
}

// TestCellCanvasDrawText 测试虚拟像素到字符格的映射
func TestCellCanvasDrawText(t *testing.T) {
	screen := newSimScreen(t)
	canvas := NewCellCanvas(screen, 23)

	// 基线 32 → 第 1 行；x = 20 → 第 2 列
	canvas.DrawText("hi", 20, 32, color.NRGBA{R: 255, G: 255, B: 255, A: 255})

	if got := rowText(screen, 1, 2, 4); got != "hi" {
		t.Errorf("row 1 = %q, want %q", got, "hi")
	}

	_, _, style, _ := screen.GetContent(2, 1)
	fg, _, _ := style.Decompose()
	if r, g, b := fg.RGB(); r != 255 || g != 255 || b != 255 {
		t.Errorf("foreground = (%d, %d, %d), want white", r, g, b)
	}
}

// TestCellCanvasClipping 测试左右边界与行范围裁剪
func TestCellCanvasClipping(t *testing.T) {
	screen := newSimScreen(t)
	canvas := NewCellCanvas(screen, 23)
	white := color.White

	// 从 -2 列开始：前两个字符被裁掉
	canvas.DrawText("abcd", -16, 16, white)
	if got := rowText(screen, 0, 0, 2); got != "cd" {
		t.Errorf("left clip = %q, want %q", got, "cd")
	}

	// 从 78 列开始：只有前两个字符可见
	canvas.DrawText("wxyz", 78*cellWidthPx, 16, white)
	if got := rowText(screen, 0, 78, 80); got != "wx" {
		t.Errorf("right clip = %q, want %q", got, "wx")
	}

	// 状态栏所在行不绘制
	canvas.DrawText("status", 0, 24*cellHeightPx, white)
	if got := rowText(screen, 23, 0, 6); got == "status" {
		t.Error("text must not be drawn on the status row")
	}
}

// TestCellCanvasWideRunes 测试宽字符占两列
func TestCellCanvasWideRunes(t *testing.T) {
	screen := newSimScreen(t)
	canvas := NewCellCanvas(screen, 23)

	canvas.DrawText("弹幕a", 0, 16, color.White)

	if r, _, _, _ := screen.GetContent(0, 0); r != '弹' {
		t.Errorf("cell 0 = %q, want '弹'", r)
	}
	if r, _, _, _ := screen.GetContent(2, 0); r != '幕' {
		t.Errorf("cell 2 = %q, want '幕'", r)
	}
	if r, _, _, _ := screen.GetContent(4, 0); r != 'a' {
		t.Errorf("cell 4 = %q, want 'a'", r)
	}

	if w := (cellMeasurer{}).MeasureText("弹幕a", 16); w != 5*cellWidthPx {
		t.Errorf("MeasureText = %v, want %v", w, 5*cellWidthPx)
	}
}

// TestBlendTowardBlack 测试不透明度映射为亮度
func TestBlendTowardBlack(t *testing.T) {
	got := blendTowardBlack(color.NRGBA{R: 200, G: 100, B: 0, A: 153})
	r, g, b := got.RGB()
	if r != 120 || g != 60 || b != 0 {
		t.Errorf("blend = (%d, %d, %d), want (120, 60, 0)", r, g, b)
	}
}

// TestTTYHostStep 测试宿主帧循环把弹幕画到终端上
func TestTTYHostStep(t *testing.T) {
	screen := newSimScreen(t)
	host := newTTYHost(screen, config.DefaultDanmakuOption(), systems.LaneStrategyTrack)

	// 23 行弹幕区，areaRatio 0.25 → 6 条轨道
	if vp := host.overlay.Viewport(); vp.Width != 80*cellWidthPx || vp.Height != 23*cellHeightPx {
		t.Fatalf("viewport = %+v", vp)
	}

	host.queue.Enqueue(overlay.MethodAddDanmaku, map[string]any{"text": "hello", "color": "#FFFFFF"})
	if !host.step() {
		t.Fatal("step() should keep running")
	}

	// 刚出生的弹幕位于右边界之外，状态栏应已绘制
	if got := rowText(screen, 23, 1, 8); got != "running" {
		t.Errorf("status = %q, want %q", got, "running")
	}
	if host.overlay.ItemCount() != 1 {
		t.Errorf("ItemCount() = %d, want 1", host.overlay.ItemCount())
	}

	host.queue.Enqueue(overlay.MethodDispose, nil)
	if host.step() {
		t.Error("step() should stop after dispose")
	}
}

// TestTTYHostKeys 测试按键映射到叠加层命令
func TestTTYHostKeys(t *testing.T) {
	screen := newSimScreen(t)
	host := newTTYHost(screen, config.DefaultDanmakuOption(), systems.LaneStrategyRandom)

	if !host.handleInput(tcell.NewEventKey(tcell.KeyRune, ' ', tcell.ModNone)) {
		t.Fatal("space should not quit")
	}
	host.handleInput(tcell.NewEventKey(tcell.KeyRune, 'h', tcell.ModNone))
	host.step()

	if host.overlay.IsRunning() {
		t.Error("space should pause")
	}
	if !host.overlay.Option().HideScroll {
		t.Error("h should toggle hideScroll")
	}

	if host.handleInput(tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone)) {
		t.Error("escape should quit")
	}
}

// TestTTYHostPinsCellMetrics 测试后续配置更新不能改变字号和行高
func TestTTYHostPinsCellMetrics(t *testing.T) {
	screen := newSimScreen(t)
	host := newTTYHost(screen, config.DefaultDanmakuOption(), systems.LaneStrategyTrack)

	cmd, err := overlay.ParseConsoleLine("/set fontSize 40")
	if err != nil {
		t.Fatalf("ParseConsoleLine() error: %v", err)
	}
	host.queue.Enqueue(cmd.Method, cmd.Args)
	host.queue.Enqueue(overlay.MethodUpdateOption, map[string]any{
		config.KeyLineHeight: 2.0,
		config.KeyOpacity:    0.5,
	})
	host.step()

	opt := host.overlay.Option()
	if opt.FontSize != cellHeightPx || opt.LineHeight != config.LineHeightMin {
		t.Errorf("fontSize=%v lineHeight=%v, want %v and %v", opt.FontSize, opt.LineHeight, cellHeightPx, config.LineHeightMin)
	}
	if opt.Opacity != 0.5 {
		t.Errorf("Opacity = %v, other keys should still apply", opt.Opacity)
	}
}
