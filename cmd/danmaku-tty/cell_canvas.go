package main

import (
	"image/color"
	"math"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
)

// 每个终端字符格对应的虚拟像素尺寸
const (
	cellWidthPx  = 8.0
	cellHeightPx = 16.0
)

// CellCanvas 把弹幕绘制到终端字符格上
//
// 虚拟像素坐标按 cellWidthPx x cellHeightPx 映射到字符格；
// 终端没有 alpha 通道，颜色按不透明度向黑色混合。描边在字符格上无法表达，直接忽略
type CellCanvas struct {
	screen tcell.Screen
	rows   int // 可用于弹幕的行数（底部状态栏除外）
}

// NewCellCanvas 创建终端画布
func NewCellCanvas(screen tcell.Screen, rows int) *CellCanvas {
	return &CellCanvas{screen: screen, rows: rows}
}

// SetRows 更新可用行数（终端尺寸变化后调用）
func (c *CellCanvas) SetRows(rows int) {
	c.rows = rows
}

// Clear 清空弹幕区域
func (c *CellCanvas) Clear() {
	width, _ := c.screen.Size()
	for y := 0; y < c.rows; y++ {
		for x := 0; x < width; x++ {
			c.screen.SetContent(x, y, ' ', nil, tcell.StyleDefault)
		}
	}
}

// SetTextSize 终端字号固定
func (c *CellCanvas) SetTextSize(px float64) {}

// DrawStroke 终端不支持描边
func (c *CellCanvas) DrawStroke(s string, x, baselineY, strokeWidth float64, clr color.Color) {}

// DrawText 从 (x, baselineY) 所在的字符格开始逐个写入字符，超出屏幕的部分被裁掉
func (c *CellCanvas) DrawText(s string, x, baselineY float64, clr color.Color) {
	row := int(math.Ceil(baselineY/cellHeightPx)) - 1
	if row < 0 || row >= c.rows {
		return
	}

	width, _ := c.screen.Size()
	style := tcell.StyleDefault.Foreground(blendTowardBlack(clr))
	col := int(math.Floor(x / cellWidthPx))

	for _, r := range s {
		w := runewidth.RuneWidth(r)
		if w == 0 {
			continue
		}
		if col >= width {
			return
		}
		// 宽字符必须整个落在屏幕内
		if col >= 0 && col+w <= width {
			c.screen.SetContent(col, row, r, nil, style)
		}
		col += w
	}
}

// blendTowardBlack 按 alpha 把颜色向黑色混合
func blendTowardBlack(clr color.Color) tcell.Color {
	c := color.NRGBAModel.Convert(clr).(color.NRGBA)
	scale := func(v uint8) int32 {
		return int32(math.Round(float64(v) * float64(c.A) / 255))
	}
	return tcell.NewRGBColor(scale(c.R), scale(c.G), scale(c.B))
}

// cellMeasurer 按终端显示宽度测量文本
type cellMeasurer struct{}

// MeasureText 返回文本占用的虚拟像素宽度，与字号无关
func (cellMeasurer) MeasureText(text string, sizePx float64) float64 {
	return float64(runewidth.StringWidth(text)) * cellWidthPx
}
