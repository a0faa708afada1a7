package app

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"

	"github.com/decker502/danmaku/pkg/config"
)

// strokeDirections 描边偏移方向（8 个方向）
var strokeDirections = []struct{ dx, dy float64 }{
	{-1, -1}, {0, -1}, {1, -1}, // 上
	{-1, 0}, {1, 0}, // 左右
	{-1, 1}, {0, 1}, {1, 1}, // 下
}

// EbitenCanvas 使用 ebiten text/v2 绘制到图像上
type EbitenCanvas struct {
	dst  *ebiten.Image
	face *text.GoTextFace
}

// NewEbitenCanvas 创建 ebiten 画布
//
// 参数:
//   - dst: 绘制目标图像（通常是离屏图层）
//   - source: 字体源
func NewEbitenCanvas(dst *ebiten.Image, source *text.GoTextFaceSource) *EbitenCanvas {
	return &EbitenCanvas{
		dst: dst,
		face: &text.GoTextFace{
			Source: source,
			Size:   config.FontSizeDefault, // 每帧由 SetTextSize 覆盖
		},
	}
}

// SetTarget 切换绘制目标（视口尺寸变化重建图层后调用）
func (c *EbitenCanvas) SetTarget(dst *ebiten.Image) {
	c.dst = dst
}

// Clear 清空画布
func (c *EbitenCanvas) Clear() {
	c.dst.Clear()
}

// SetTextSize 设置字号
func (c *EbitenCanvas) SetTextSize(px float64) {
	c.face.Size = px
}

// DrawStroke 在 8 个方向偏移 strokeWidth 像素绘制文本，形成描边
func (c *EbitenCanvas) DrawStroke(s string, x, baselineY, strokeWidth float64, clr color.Color) {
	top := baselineY - c.face.Metrics().HAscent
	for _, dir := range strokeDirections {
		op := &text.DrawOptions{}
		op.GeoM.Translate(x+dir.dx*strokeWidth, top+dir.dy*strokeWidth)
		op.ColorScale.ScaleWithColor(clr)
		text.Draw(c.dst, s, c.face, op)
	}
}

// DrawText 绘制文本主体
func (c *EbitenCanvas) DrawText(s string, x, baselineY float64, clr color.Color) {
	op := &text.DrawOptions{}
	op.GeoM.Translate(x, baselineY-c.face.Metrics().HAscent)
	op.ColorScale.ScaleWithColor(clr)
	text.Draw(c.dst, s, c.face, op)
}
