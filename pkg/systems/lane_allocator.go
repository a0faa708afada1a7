package systems

import (
	"fmt"
	"log"
	"math"
	"math/rand"
	"time"

	"github.com/decker502/danmaku/pkg/components"
	"github.com/decker502/danmaku/pkg/config"
	"github.com/decker502/danmaku/pkg/ecs"
)

// LaneStrategy 轨道分配策略
type LaneStrategy string

const (
	// LaneStrategyRandom 在所有轨道中均匀随机选取，不追踪占用（默认）
	LaneStrategyRandom LaneStrategy = "random"
	// LaneStrategyTrack 追踪每条轨道的下次可发射时间，优先选择空闲轨道，全部繁忙时丢弃
	LaneStrategyTrack LaneStrategy = "track"
)

const (
	// trackBusyTolerance 轨道繁忙容忍度：最早空闲的轨道仍需等待超过该时间则丢弃弹幕
	trackBusyTolerance = 80 * time.Millisecond
	// trackMinGapPx 同轨道相邻弹幕的最小间距（像素），实际取 max(字号, 该值)
	trackMinGapPx = 42.0
)

// ParseLaneStrategy 解析轨道分配策略名称
func ParseLaneStrategy(name string) (LaneStrategy, error) {
	switch LaneStrategy(name) {
	case "", LaneStrategyRandom:
		return LaneStrategyRandom, nil
	case LaneStrategyTrack:
		return LaneStrategyTrack, nil
	}
	return LaneStrategyRandom, fmt.Errorf("unknown lane strategy: %q", name)
}

// LaneRequest 一次轨道分配请求
type LaneRequest struct {
	ViewportWidth  float64       // 视口宽度（像素）
	ViewportHeight float64       // 视口高度（像素），必须为正
	TextSizePx     float64       // 字号（像素），必须为正
	TextWidth      float64       // 弹幕文本宽度（像素）
	Now            time.Duration // 当前动画时间
}

// LaneAllocator 轨道分配器系统
//
// random 策略 O(1) 分配，不依赖当前占用情况，允许同轨道发生可控的重叠；
// track 策略把每条轨道的状态存为实体，换取更紧凑的间距
type LaneAllocator struct {
	entityManager *ecs.EntityManager
	strategy      LaneStrategy
	rng           *rand.Rand
	laneEntities  []ecs.EntityID // track 策略下的轨道实体（长度 = 当前轨道数）

	droppedByTrackBusy uint64
}

// NewLaneAllocator 创建新的轨道分配器系统
//
// 参数:
//   - em: 实体管理器（track 策略的轨道状态实体存放于此）
//   - strategy: 分配策略
//   - rng: 随机数源，为 nil 时使用当前时间作为种子
func NewLaneAllocator(em *ecs.EntityManager, strategy LaneStrategy, rng *rand.Rand) *LaneAllocator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &LaneAllocator{
		entityManager: em,
		strategy:      strategy,
		rng:           rng,
		laneEntities:  make([]ecs.EntityID, 0),
	}
}

// LaneGeometry 计算轨道行高与轨道数
//
// 公式:
//   - 绘制带高度 = max(视口高度 × 区域占比, 字号 × 行高)
//   - 行高 = max(字号 × 行高倍数, 1)
//   - 轨道数 = max(ceil(绘制带高度 / 行高), 1)
func LaneGeometry(viewportHeight, textSizePx, areaRatio, lineHeight float64) (rowHeight float64, laneCount int) {
	band := math.Max(viewportHeight*areaRatio, textSizePx*lineHeight)
	rowHeight = math.Max(textSizePx*lineHeight, 1)
	laneCount = int(math.Ceil(band / rowHeight))
	if laneCount < 1 {
		laneCount = 1
	}
	return rowHeight, laneCount
}

// PickLane 均匀随机选取一条轨道
//
// 返回:
//   - 轨道索引（从 0 开始）
//   - 文本基线 Y 坐标 = (索引 + 1) × 行高
func (la *LaneAllocator) PickLane(viewportHeight, textSizePx float64, opt config.DanmakuOption) (int, float64) {
	rowHeight, lanes := LaneGeometry(viewportHeight, textSizePx, opt.AreaRatio, opt.LineHeight)
	index := la.rng.Intn(lanes)
	return index, float64(index+1) * rowHeight
}

// Allocate 按当前策略为新弹幕分配轨道
//
// 返回 ok=false 表示 track 策略下所有轨道繁忙，该弹幕应被丢弃
func (la *LaneAllocator) Allocate(req LaneRequest, opt config.DanmakuOption) (index int, y float64, ok bool) {
	if la.strategy != LaneStrategyTrack {
		index, y = la.PickLane(req.ViewportHeight, req.TextSizePx, opt)
		return index, y, true
	}

	rowHeight, lanes := LaneGeometry(req.ViewportHeight, req.TextSizePx, opt.AreaRatio, opt.LineHeight)
	la.ensureLaneCount(lanes)

	lane := la.pickFreeLane(req.Now)
	if lane == nil {
		return 0, 0, false
	}
	if lane.NextSpawnAt > req.Now+trackBusyTolerance {
		la.droppedByTrackBusy++
		return 0, 0, false
	}

	// 下一次可发射时间 = 当前弹幕完整驶入并留出最小间距所需的时间
	speed := (req.ViewportWidth + req.TextWidth) / opt.DurationMillis()
	minGap := math.Max(req.TextSizePx, trackMinGapPx)
	waitMs := math.Ceil((req.TextWidth + minGap) / math.Max(speed, 0.001))
	lane.NextSpawnAt = req.Now + time.Duration(waitMs)*time.Millisecond

	return lane.LaneIndex, float64(lane.LaneIndex+1) * rowHeight, true
}

// pickFreeLane 返回第一条已空闲的轨道；都不空闲时返回最早空闲的轨道
func (la *LaneAllocator) pickFreeLane(now time.Duration) *components.LaneStateComponent {
	var best *components.LaneStateComponent
	for _, entity := range la.laneEntities {
		state, ok := ecs.GetComponent[*components.LaneStateComponent](la.entityManager, entity)
		if !ok {
			continue
		}
		if state.NextSpawnAt <= now {
			return state
		}
		if best == nil || state.NextSpawnAt < best.NextSpawnAt {
			best = state
		}
	}
	return best
}

// ensureLaneCount 让轨道实体数量与当前几何一致（视口或字号变化时增减）
func (la *LaneAllocator) ensureLaneCount(count int) {
	for len(la.laneEntities) < count {
		entity := la.entityManager.CreateEntity()
		ecs.AddComponent(la.entityManager, entity, &components.LaneStateComponent{
			LaneIndex: len(la.laneEntities),
		})
		la.laneEntities = append(la.laneEntities, entity)
	}
	if len(la.laneEntities) > count {
		for _, entity := range la.laneEntities[count:] {
			la.entityManager.DestroyEntity(entity)
		}
		la.laneEntities = la.laneEntities[:count]
		log.Printf("[LaneAllocator] Lane count shrunk to %d", count)
	}
}

// Reset 清空轨道状态（清屏时调用，轨道实体本身由调用方一并销毁）
func (la *LaneAllocator) Reset() {
	la.laneEntities = la.laneEntities[:0]
	la.droppedByTrackBusy = 0
}

// Strategy 返回当前分配策略
func (la *LaneAllocator) Strategy() LaneStrategy {
	return la.strategy
}

// LaneCount 返回 track 策略下已建立的轨道数
func (la *LaneAllocator) LaneCount() int {
	return len(la.laneEntities)
}

// DroppedByTrackBusy 返回因轨道繁忙被丢弃的弹幕数
func (la *LaneAllocator) DroppedByTrackBusy() uint64 {
	return la.droppedByTrackBusy
}
