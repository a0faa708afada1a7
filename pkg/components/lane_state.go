package components

import "time"

// LaneStateComponent 轨道状态组件
//
// 仅在 track 分配策略下使用，记录每条轨道何时可以再次发射弹幕
type LaneStateComponent struct {
	LaneIndex   int           // 轨道索引（从 0 开始）
	NextSpawnAt time.Duration // 下一次可发射的动画时钟时间
}
