package systems

import "image/color"

// Canvas 弹幕绘制目标
//
// 坐标单位与视口一致，Y 为文本基线
type Canvas interface {
	// Clear 清空画布
	Clear()
	// SetTextSize 设置本帧使用的字号（像素）
	SetTextSize(px float64)
	// DrawStroke 绘制文本描边
	DrawStroke(s string, x, baselineY, strokeWidth float64, clr color.Color)
	// DrawText 绘制文本填充
	DrawText(s string, x, baselineY float64, clr color.Color)
}
