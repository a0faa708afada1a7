// Package overlay 提供弹幕叠加层的上下文对象
//
// Overlay 持有全部弹幕状态（配置、弹幕集合、运行标志、帧时钟），
// 生命周期为：New → 各项操作 → Dispose。
//
// 所有方法都必须在同一个渲染 goroutine 上调用；其他 goroutine
// 需要通过 CommandQueue 把操作投递到渲染 goroutine。
package overlay

import (
	"log"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/decker502/danmaku/pkg/components"
	"github.com/decker502/danmaku/pkg/config"
	"github.com/decker502/danmaku/pkg/ecs"
	"github.com/decker502/danmaku/pkg/systems"
)

// TextMeasurer 文本测量服务（由宿主提供，只读查询）
type TextMeasurer interface {
	MeasureText(text string, sizePx float64) float64
}

// Config 叠加层构造参数
type Config struct {
	// Option 初始弹幕配置（会被夹紧），零值表示默认配置
	Option config.DanmakuOption
	// LaneStrategy 轨道分配策略，为空时使用 random
	LaneStrategy systems.LaneStrategy
	// FontScale 逻辑字号到像素的换算系数（屏幕缩放密度），<= 0 时为 1
	FontScale float64
	// Rand 轨道随机源，可为 nil
	Rand *rand.Rand
	// Now 单调时间源，可为 nil
	Now func() time.Time
}

// Item 批量添加时的一条弹幕
type Item struct {
	Text  string
	Color uint32
}

// Stats 叠加层运行统计
type Stats struct {
	ActiveItems        int
	Lanes              int
	DroppedByTrackBusy uint64
	FramesDrawn        uint64
	FramesDropped      uint64
	Ticks              uint64
}

// Overlay 弹幕叠加层
type Overlay struct {
	entityManager *ecs.EntityManager
	laneAllocator *systems.LaneAllocator
	renderSystem  *systems.DanmakuRenderSystem
	clock         *systems.FrameClock
	measurer      TextMeasurer

	option    config.DanmakuOption
	viewport  systems.Viewport
	fontScale float64
	running   bool
	disposed  bool

	optionListener func(config.DanmakuOption)
}

// New 创建叠加层，时钟随之注册
func New(cfg Config, measurer TextMeasurer) *Overlay {
	strategy := cfg.LaneStrategy
	if strategy == "" {
		strategy = systems.LaneStrategyRandom
	}
	fontScale := cfg.FontScale
	if fontScale <= 0 || math.IsNaN(fontScale) || math.IsInf(fontScale, 0) {
		fontScale = 1
	}

	option := cfg.Option
	if option == (config.DanmakuOption{}) {
		option = config.DefaultDanmakuOption()
	}

	em := ecs.NewEntityManager()
	o := &Overlay{
		entityManager: em,
		laneAllocator: systems.NewLaneAllocator(em, strategy, cfg.Rand),
		renderSystem:  systems.NewDanmakuRenderSystem(em),
		clock:         systems.NewFrameClock(cfg.Now),
		measurer:      measurer,
		option:        option.Clamp(),
		fontScale:     fontScale,
		running:       true,
	}
	o.syncClock()

	log.Printf("[Overlay] Created (lane strategy: %s, font scale: %.2f)", strategy, fontScale)
	return o
}

// SetOptionListener 设置配置变更回调（用于持久化），回调在渲染 goroutine 上执行
func (o *Overlay) SetOptionListener(listener func(config.DanmakuOption)) {
	o.optionListener = listener
}

// AddDanmaku 添加一条弹幕
//
// 以下情况静默忽略：已销毁、已暂停、隐藏滚动弹幕、视口为空、文本为空白、
// 测量失败、track 策略下轨道全部繁忙。返回是否实际添加
func (o *Overlay) AddDanmaku(text string, color uint32) bool {
	if o.disposed || !o.running || o.option.HideScroll || o.viewport.IsEmpty() {
		return false
	}
	if strings.TrimSpace(text) == "" {
		return false
	}

	textSizePx := o.TextSizePx()
	width, ok := o.measure(text, textSizePx)
	if !ok {
		return false
	}

	now := o.clock.Elapsed()
	trackIndex, y, ok := o.laneAllocator.Allocate(systems.LaneRequest{
		ViewportWidth:  o.viewport.Width,
		ViewportHeight: o.viewport.Height,
		TextSizePx:     textSizePx,
		TextWidth:      width,
		Now:            now,
	}, o.option)
	if !ok {
		return false
	}

	entity := o.entityManager.CreateEntity()
	ecs.AddComponent(o.entityManager, entity, &components.DanmakuComponent{
		Text:       text,
		Color:      color,
		Width:      width,
		TrackIndex: trackIndex,
		Y:          y,
		BornAt:     now,
	})
	o.clock.RequestRedraw()
	return true
}

// AddDanmakuBatch 批量添加弹幕，返回实际添加的条数
func (o *Overlay) AddDanmakuBatch(items []Item) int {
	added := 0
	for _, item := range items {
		if o.AddDanmaku(item.Text, item.Color) {
			added++
		}
	}
	return added
}

// UpdateOption 应用部分配置，永远成功
func (o *Overlay) UpdateOption(options map[string]any) {
	if o.disposed {
		return
	}
	o.option = o.option.Apply(options)
	o.syncClock()
	o.clock.RequestRedraw()

	if o.optionListener != nil {
		o.optionListener(o.option)
	}
}

// Clear 清空所有弹幕（不论是否暂停）
func (o *Overlay) Clear() {
	if o.disposed {
		return
	}
	o.entityManager.DestroyAll()
	o.laneAllocator.Reset()
	o.clock.RequestRedraw()
}

// Pause 停止请求重绘，弹幕保留且位置冻结
func (o *Overlay) Pause() {
	if o.disposed {
		return
	}
	o.running = false
	o.syncClock()
}

// Resume 恢复动画
func (o *Overlay) Resume() {
	if o.disposed {
		return
	}
	o.running = true
	o.syncClock()
	o.clock.RequestRedraw()
}

// Dispose 注销时钟并清空所有弹幕，之后所有操作均为空操作
func (o *Overlay) Dispose() {
	if o.disposed {
		return
	}
	o.clock.Detach()
	o.entityManager.DestroyAll()
	o.laneAllocator.Reset()
	o.running = false
	o.disposed = true
	log.Printf("[Overlay] Disposed")
}

// Tick 帧时钟回调，每个显示刷新周期调用一次
func (o *Overlay) Tick() {
	o.clock.Tick(o.running, o.HasItems())
}

// ConsumeRedraw 取走重绘请求
func (o *Overlay) ConsumeRedraw() bool {
	return o.clock.ConsumeRedraw()
}

// RequestRedraw 强制下一帧重绘（如宿主重建了绘制图层）
func (o *Overlay) RequestRedraw() {
	o.clock.RequestRedraw()
}

// Render 执行一次合成
func (o *Overlay) Render(canvas systems.Canvas) systems.FrameResult {
	if o.disposed {
		return systems.FrameResult{}
	}
	return o.renderSystem.Draw(canvas, o.viewport, o.option, o.TextSizePx(), o.clock.Elapsed())
}

// SetViewport 更新视口尺寸，尺寸变化时请求重绘
func (o *Overlay) SetViewport(width, height float64) {
	next := systems.Viewport{Width: width, Height: height}
	if next == o.viewport {
		return
	}
	o.viewport = next
	o.clock.RequestRedraw()
}

// Viewport 返回当前视口
func (o *Overlay) Viewport() systems.Viewport {
	return o.viewport
}

// Option 返回当前配置快照
func (o *Overlay) Option() config.DanmakuOption {
	return o.option
}

// TextSizePx 返回当前字号（像素）
func (o *Overlay) TextSizePx() float64 {
	return o.option.FontSize * o.fontScale
}

// IsRunning 返回是否处于运行状态
func (o *Overlay) IsRunning() bool {
	return o.running
}

// IsDisposed 返回是否已销毁
func (o *Overlay) IsDisposed() bool {
	return o.disposed
}

// HasItems 返回是否存在存活弹幕
func (o *Overlay) HasItems() bool {
	return o.ItemCount() > 0
}

// ItemCount 返回存活弹幕数量
func (o *Overlay) ItemCount() int {
	return ecs.CountEntitiesWith1[*components.DanmakuComponent](o.entityManager)
}

// Items 返回存活弹幕的快照（按插入顺序）
func (o *Overlay) Items() []components.DanmakuComponent {
	ids := ecs.GetEntitiesWith1[*components.DanmakuComponent](o.entityManager)
	items := make([]components.DanmakuComponent, 0, len(ids))
	for _, id := range ids {
		if o.entityManager.IsMarkedForDestroy(id) {
			continue
		}
		if item, ok := ecs.GetComponent[*components.DanmakuComponent](o.entityManager, id); ok {
			items = append(items, *item)
		}
	}
	return items
}

// Positions 返回每条存活弹幕在当前动画时间的横坐标（按插入顺序）
func (o *Overlay) Positions() []float64 {
	now := o.clock.Elapsed()
	durationMs := o.option.DurationMillis()
	items := o.Items()
	xs := make([]float64, len(items))
	for i := range items {
		xs[i] = systems.ScrollX(&items[i], o.viewport.Width, durationMs, now)
	}
	return xs
}

// Stats 返回运行统计
func (o *Overlay) Stats() Stats {
	return Stats{
		ActiveItems:        o.ItemCount(),
		Lanes:              o.laneCount(),
		DroppedByTrackBusy: o.laneAllocator.DroppedByTrackBusy(),
		FramesDrawn:        o.renderSystem.FramesDrawn(),
		FramesDropped:      o.renderSystem.FramesDropped(),
		Ticks:              o.clock.Ticks(),
	}
}

// laneCount 返回当前视口与配置下的轨道数，视口未设置时为 0
func (o *Overlay) laneCount() int {
	if o.viewport.Height <= 0 {
		return 0
	}
	_, lanes := systems.LaneGeometry(o.viewport.Height, o.TextSizePx(), o.option.AreaRatio, o.option.LineHeight)
	return lanes
}

// syncClock 暂停或隐藏时冻结动画时间
func (o *Overlay) syncClock() {
	o.clock.SetHalted(!o.running || o.option.HideScroll)
}

// measure 调用宿主测量服务，出错时返回 ok=false 而不是中断调用方
func (o *Overlay) measure(text string, sizePx float64) (width float64, ok bool) {
	if o.measurer == nil {
		return 0, false
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Overlay] WARNING: text measurement failed: %v", r)
			width, ok = 0, false
		}
	}()

	width = o.measurer.MeasureText(text, sizePx)
	if math.IsNaN(width) || math.IsInf(width, 0) {
		return 0, false
	}
	return math.Max(width, 0), true
}
