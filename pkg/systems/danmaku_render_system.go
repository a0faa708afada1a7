package systems

import (
	"image/color"
	"log"
	"time"

	"github.com/decker502/danmaku/pkg/components"
	"github.com/decker502/danmaku/pkg/config"
	"github.com/decker502/danmaku/pkg/ecs"
)

// Viewport 叠加层视口尺寸（像素）
type Viewport struct {
	Width  float64
	Height float64
}

// IsEmpty 视口宽或高不为正
func (v Viewport) IsEmpty() bool {
	return v.Width <= 0 || v.Height <= 0
}

// FrameResult 一次绘制的结果
type FrameResult struct {
	Drawn   int  // 本帧绘制的弹幕数
	Expired int  // 本帧移出屏幕被回收的弹幕数
	Dropped bool // 绘制后端出错，本帧被丢弃
}

// DanmakuRenderSystem 弹幕合成器
//
// 每次重绘请求调用一次 Draw：按插入顺序计算每条弹幕的横坐标，
// 绘制仍在屏幕内的弹幕，并回收完全驶出左边界的弹幕
type DanmakuRenderSystem struct {
	entityManager *ecs.EntityManager

	framesDrawn   uint64
	framesDropped uint64
}

// NewDanmakuRenderSystem 创建弹幕合成器
func NewDanmakuRenderSystem(em *ecs.EntityManager) *DanmakuRenderSystem {
	return &DanmakuRenderSystem{
		entityManager: em,
	}
}

// ScrollX 计算弹幕在动画时间 now 时的横坐标
//
// 公式:
//   - 总行程 = 视口宽度 + 文本宽度
//   - x = 视口宽度 - 已用时间 × 总行程 / 时长
func ScrollX(item *components.DanmakuComponent, viewportWidth, durationMillis float64, now time.Duration) float64 {
	elapsedMs := float64(now-item.BornAt) / float64(time.Millisecond)
	totalDistance := viewportWidth + item.Width
	return viewportWidth - elapsedMs*totalDistance/durationMillis
}

// IsOffscreen 弹幕尾部是否已到达或越过左边界
func IsOffscreen(item *components.DanmakuComponent, x float64) bool {
	return x+item.Width <= 0
}

// Draw 合成一帧
//
// 参数:
//   - canvas: 绘制目标
//   - viewport: 当前视口
//   - opt: 本帧使用的配置快照
//   - textSizePx: 字号（像素）
//   - now: 当前动画时间
//
// 隐藏滚动弹幕或视口宽度为 0 时，既不绘制也不回收，弹幕原样保留。
// 绘制后端 panic 会在此处被吞掉，只丢弃当前帧
func (s *DanmakuRenderSystem) Draw(canvas Canvas, viewport Viewport, opt config.DanmakuOption, textSizePx float64, now time.Duration) (result FrameResult) {
	defer func() {
		if r := recover(); r != nil {
			s.framesDropped++
			result.Dropped = true
			log.Printf("[DanmakuRenderSystem] WARNING: frame dropped: %v", r)
		}
	}()

	canvas.Clear()
	if opt.HideScroll || viewport.Width <= 0 {
		return result
	}

	canvas.SetTextSize(textSizePx)

	alpha := opt.Alpha()
	strokeColor := color.NRGBA{A: alpha}
	durationMs := opt.DurationMillis()

	for _, id := range ecs.GetEntitiesWith1[*components.DanmakuComponent](s.entityManager) {
		if s.entityManager.IsMarkedForDestroy(id) {
			continue
		}
		item, ok := ecs.GetComponent[*components.DanmakuComponent](s.entityManager, id)
		if !ok {
			continue
		}

		x := ScrollX(item, viewport.Width, durationMs, now)
		if IsOffscreen(item, x) {
			s.entityManager.DestroyEntity(id)
			result.Expired++
			continue
		}

		if opt.StrokeWidth > 0 {
			canvas.DrawStroke(item.Text, x, item.Y, opt.StrokeWidth, strokeColor)
		}
		canvas.DrawText(item.Text, x, item.Y, FillColor(item.Color, alpha))
		result.Drawn++
	}

	s.entityManager.RemoveMarkedEntities()
	s.framesDrawn++
	return result
}

// FillColor 取打包颜色的 RGB 分量，alpha 使用全局不透明度
func FillColor(packed uint32, alpha uint8) color.NRGBA {
	return color.NRGBA{
		R: uint8(packed >> 16),
		G: uint8(packed >> 8),
		B: uint8(packed),
		A: alpha,
	}
}

// FramesDrawn 返回已完成的帧数
func (s *DanmakuRenderSystem) FramesDrawn() uint64 {
	return s.framesDrawn
}

// FramesDropped 返回因后端错误丢弃的帧数
func (s *DanmakuRenderSystem) FramesDropped() uint64 {
	return s.framesDropped
}
