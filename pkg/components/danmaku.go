package components

import "time"

// DanmakuComponent 单条滚动弹幕
//
// 创建后除位置外不再变化；位置每帧由出生时间推导，不存储
type DanmakuComponent struct {
	Text       string        // 显示文本（非空白）
	Color      uint32        // 打包颜色 0xAARRGGBB，alpha 由全局不透明度决定
	Width      float64       // 创建时按当前字体测量的文本宽度（像素）
	TrackIndex int           // 轨道索引（从 0 开始）
	Y          float64       // 文本基线 Y 坐标，生命周期内固定
	BornAt     time.Duration // 出生时刻（动画时钟时间）
}
