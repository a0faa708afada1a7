package utils

import (
	"bytes"
	"fmt"
	"os"

	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/gofont/goregular"
)

// LoadFontSource 加载字体源
//
// 参数:
//   - fontPath: TTF/OTF 字体文件路径，为空时使用内置的 Go Regular 字体
//
// 返回:
//   - *text.GoTextFaceSource: 字体源
//   - error: 读取或解析失败时返回错误
func LoadFontSource(fontPath string) (*text.GoTextFaceSource, error) {
	if fontPath == "" {
		return DefaultFontSource()
	}

	fontData, err := os.ReadFile(fontPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read font %s: %w", fontPath, err)
	}

	source, err := text.NewGoTextFaceSource(bytes.NewReader(fontData))
	if err != nil {
		return nil, fmt.Errorf("failed to parse font %s: %w", fontPath, err)
	}
	return source, nil
}

// DefaultFontSource 返回内置的 Go Regular 字体源
func DefaultFontSource() (*text.GoTextFaceSource, error) {
	source, err := text.NewGoTextFaceSource(bytes.NewReader(goregular.TTF))
	if err != nil {
		return nil, fmt.Errorf("failed to parse built-in font: %w", err)
	}
	return source, nil
}

// FaceMeasurer 使用字体源按指定字号测量文本宽度
type FaceMeasurer struct {
	face *text.GoTextFace
}

// NewFaceMeasurer 创建文本测量器
func NewFaceMeasurer(source *text.GoTextFaceSource) *FaceMeasurer {
	return &FaceMeasurer{
		face: &text.GoTextFace{Source: source},
	}
}

// MeasureText 测量文本在 sizePx 字号下的宽度（像素）
func (m *FaceMeasurer) MeasureText(textStr string, sizePx float64) float64 {
	m.face.Size = sizePx
	return measureTextWidth(textStr, m.face)
}

// measureTextWidth 测量文本宽度
func measureTextWidth(textStr string, font *text.GoTextFace) float64 {
	if textStr == "" || font == nil {
		return 0
	}

	// 使用 Measure 方法测量文本尺寸
	width, _ := text.Measure(textStr, font, 0)
	return width
}
