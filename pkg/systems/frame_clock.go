package systems

import "time"

// FrameClock 帧时钟
//
// 宿主每个显示刷新周期调用一次 Tick。时钟本身从不直接绘制，
// 只设置"需要重绘"标记，由绘制阶段通过 ConsumeRedraw 取走。
//
// 时钟同时维护动画时间：暂停或隐藏期间动画时间停止前进，
// 因此弹幕位置在暂停/恢复前后是连续的。
type FrameClock struct {
	now func() time.Time

	origin      time.Time
	halted      bool
	haltedAt    time.Time
	haltedTotal time.Duration

	attached        bool
	redrawRequested bool
	ticks           uint64
}

// NewFrameClock 创建帧时钟
//
// 参数:
//   - now: 单调时间源，为 nil 时使用 time.Now
func NewFrameClock(now func() time.Time) *FrameClock {
	if now == nil {
		now = time.Now
	}
	return &FrameClock{
		now:      now,
		origin:   now(),
		attached: true,
	}
}

// Elapsed 返回当前动画时间
func (c *FrameClock) Elapsed() time.Duration {
	ref := c.now()
	if c.halted {
		ref = c.haltedAt
	}
	return ref.Sub(c.origin) - c.haltedTotal
}

// SetHalted 停止或恢复动画时间
func (c *FrameClock) SetHalted(halted bool) {
	if halted == c.halted {
		return
	}
	if halted {
		c.haltedAt = c.now()
	} else {
		c.haltedTotal += c.now().Sub(c.haltedAt)
	}
	c.halted = halted
}

// IsHalted 返回动画时间是否停止
func (c *FrameClock) IsHalted() bool {
	return c.halted
}

// Tick 处理一个刷新周期
//
// 运行中且有存活弹幕时请求重绘；时钟已注销时什么也不做。
// 返回本次是否请求了重绘
func (c *FrameClock) Tick(running, hasItems bool) bool {
	if !c.attached {
		return false
	}
	c.ticks++
	if running && hasItems {
		c.redrawRequested = true
		return true
	}
	return false
}

// RequestRedraw 请求在下一帧重绘
func (c *FrameClock) RequestRedraw() {
	if c.attached {
		c.redrawRequested = true
	}
}

// ConsumeRedraw 取走重绘请求
func (c *FrameClock) ConsumeRedraw() bool {
	requested := c.redrawRequested
	c.redrawRequested = false
	return requested
}

// Detach 注销时钟，之后的 Tick 都是空操作
func (c *FrameClock) Detach() {
	c.attached = false
	c.redrawRequested = false
}

// Attached 返回时钟是否仍在运行
func (c *FrameClock) Attached() bool {
	return c.attached
}

// Ticks 返回已处理的刷新周期数
func (c *FrameClock) Ticks() uint64 {
	return c.ticks
}
