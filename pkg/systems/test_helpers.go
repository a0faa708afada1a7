package systems

import (
	"image/color"
	"time"
)

// 本文件中的辅助类型仅供测试使用，但放在非 _test 文件中以便其他包的测试复用

// FakeTime 可手动推进的时间源
type FakeTime struct {
	t time.Time
}

// NewFakeTime 创建从固定时刻开始的时间源
func NewFakeTime() *FakeTime {
	return &FakeTime{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

// Now 返回当前时刻
func (f *FakeTime) Now() time.Time {
	return f.t
}

// Advance 推进时间
func (f *FakeTime) Advance(d time.Duration) {
	f.t = f.t.Add(d)
}

// CanvasCall 记录一次画布调用
type CanvasCall struct {
	Op          string // "clear" / "size" / "stroke" / "text"
	Text        string
	X, Y        float64
	StrokeWidth float64
	Size        float64
	Color       color.NRGBA
}

// RecordingCanvas 记录所有调用的画布
type RecordingCanvas struct {
	Calls []CanvasCall
	// PanicOn 非空时，绘制该文本会 panic（模拟后端故障）
	PanicOn string
}

// Clear 记录清屏
func (c *RecordingCanvas) Clear() {
	c.Calls = append(c.Calls, CanvasCall{Op: "clear"})
}

// SetTextSize 记录字号
func (c *RecordingCanvas) SetTextSize(px float64) {
	c.Calls = append(c.Calls, CanvasCall{Op: "size", Size: px})
}

// DrawStroke 记录描边
func (c *RecordingCanvas) DrawStroke(s string, x, baselineY, strokeWidth float64, clr color.Color) {
	c.Calls = append(c.Calls, CanvasCall{Op: "stroke", Text: s, X: x, Y: baselineY, StrokeWidth: strokeWidth, Color: toNRGBA(clr)})
}

// DrawText 记录填充
func (c *RecordingCanvas) DrawText(s string, x, baselineY float64, clr color.Color) {
	if c.PanicOn != "" && s == c.PanicOn {
		panic("canvas backend failure")
	}
	c.Calls = append(c.Calls, CanvasCall{Op: "text", Text: s, X: x, Y: baselineY, Color: toNRGBA(clr)})
}

// TextCalls 返回所有填充调用
func (c *RecordingCanvas) TextCalls() []CanvasCall {
	return c.filter("text")
}

// StrokeCalls 返回所有描边调用
func (c *RecordingCanvas) StrokeCalls() []CanvasCall {
	return c.filter("stroke")
}

// Reset 清空记录
func (c *RecordingCanvas) Reset() {
	c.Calls = c.Calls[:0]
}

func (c *RecordingCanvas) filter(op string) []CanvasCall {
	var out []CanvasCall
	for _, call := range c.Calls {
		if call.Op == op {
			out = append(out, call)
		}
	}
	return out
}

func toNRGBA(clr color.Color) color.NRGBA {
	return color.NRGBAModel.Convert(clr).(color.NRGBA)
}
