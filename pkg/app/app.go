// Package app 提供弹幕叠加层的 ebiten 宿主包装器
//
// 该包将叠加层初始化逻辑从 main 包提取出来，使其可以被桌面端和移动端共用。
// 桌面端通过 main.go 调用 NewApp()，移动端通过 mobile/mobile.go 调用。
package app

import (
	"fmt"
	"io"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/quasilyte/gdata/v2"

	"github.com/decker502/danmaku/pkg/config"
	"github.com/decker502/danmaku/pkg/overlay"
	"github.com/decker502/danmaku/pkg/systems"
	"github.com/decker502/danmaku/pkg/utils"
)

// DefaultAppName gdata 存储使用的应用名
const DefaultAppName = "danmaku_overlay"

// Config 定义应用启动配置
type Config struct {
	// Verbose 启用详细日志输出
	Verbose bool
	// Debug 在画面左上角显示运行统计
	Debug bool
	// OptionFile 启动时加载的配置文件（yaml/json/toml），为空则不加载
	OptionFile string
	// FontPath 字体文件路径，为空则使用内置字体
	FontPath string
	// LaneStrategy 轨道分配策略（random / track）
	LaneStrategy string
	// FontScale 逻辑字号到像素的换算系数，<= 0 时为 1
	FontScale float64
	// Persist 是否用 gdata 持久化最近一次的配置
	Persist bool
	// AppName gdata 应用名，为空时使用 DefaultAppName
	AppName string
}

// App 是弹幕叠加层的宿主包装器，实现 ebiten.Game 接口
type App struct {
	overlay *overlay.Overlay
	queue   *overlay.CommandQueue
	store   *overlay.OptionStore

	canvas *EbitenCanvas
	layer  *ebiten.Image // 离屏图层，只在需要重绘时重新合成

	lastFrame systems.FrameResult
	debug     bool
	verbose   bool
	closed    bool
}

// NewApp 创建并初始化叠加层应用
//
// 配置来源优先级（后者覆盖前者）：默认配置 → gdata 中保存的配置 → OptionFile
func NewApp(cfg Config) (*App, error) {
	// 配置日志输出
	if !cfg.Verbose {
		log.SetOutput(io.Discard)
		log.SetFlags(0)
	}

	strategy, err := systems.ParseLaneStrategy(cfg.LaneStrategy)
	if err != nil {
		return nil, fmt.Errorf("轨道策略无效: %w", err)
	}

	fontSource, err := utils.LoadFontSource(cfg.FontPath)
	if err != nil {
		return nil, fmt.Errorf("字体加载失败: %w", err)
	}

	store := overlay.NewOptionStore(openGdata(cfg))
	if path := store.Path(); path != "" {
		log.Printf("[App] Option storage: %s", path)
	}
	option := store.Option()

	if cfg.OptionFile != "" {
		fileOption, err := config.LoadOptionFile(cfg.OptionFile)
		if err != nil {
			return nil, fmt.Errorf("配置文件加载失败: %w", err)
		}
		option = fileOption
		log.Printf("[App] Option file loaded: %s", cfg.OptionFile)
	}
	store.SetOption(option)

	ov := overlay.New(overlay.Config{
		Option:       option,
		LaneStrategy: strategy,
		FontScale:    cfg.FontScale,
	}, utils.NewFaceMeasurer(fontSource))
	ov.SetOptionListener(store.Commit)

	return &App{
		overlay: ov,
		queue:   overlay.NewCommandQueue(),
		store:   store,
		canvas:  NewEbitenCanvas(nil, fontSource),
		debug:   cfg.Debug,
		verbose: cfg.Verbose,
	}, nil
}

// openGdata 打开 gdata 存储，失败时返回 nil（降级为仅内存配置）
func openGdata(cfg Config) *gdata.Manager {
	if !cfg.Persist {
		return nil
	}

	appName := cfg.AppName
	if appName == "" {
		appName = DefaultAppName
	}
	manager, err := gdata.Open(gdata.Config{AppName: appName})
	if err != nil {
		log.Printf("[App] Warning: gdata unavailable: %v (options will not persist)", err)
		return nil
	}
	return manager
}

// Queue 返回命令队列，其他 goroutine 通过它向叠加层投递操作
func (a *App) Queue() *overlay.CommandQueue {
	return a.queue
}

// Overlay 返回叠加层（只能在 ebiten 的 Update/Draw 中访问）
func (a *App) Overlay() *overlay.Overlay {
	return a.overlay
}

// Update 执行排队的命令并推进帧时钟
// 每个 tick 调用一次（SyncWithFPS 时与显示刷新同步）
func (a *App) Update() error {
	a.overlay.ApplyPending(a.queue)
	if a.overlay.IsDisposed() {
		if err := a.Close(); err != nil {
			log.Printf("[App] Warning: %v", err)
		}
		return ebiten.Termination
	}

	a.overlay.Tick()
	return nil
}

// Draw 绘制叠加层
//
// 只有帧时钟请求了重绘才重新合成离屏图层，否则直接贴上一帧的图层
func (a *App) Draw(screen *ebiten.Image) {
	w, h := screen.Bounds().Dx(), screen.Bounds().Dy()
	if a.layer == nil || a.layer.Bounds().Dx() != w || a.layer.Bounds().Dy() != h {
		if a.layer != nil {
			a.layer.Deallocate()
		}
		a.layer = ebiten.NewImage(w, h)
		a.canvas.SetTarget(a.layer)
		a.overlay.RequestRedraw()
	}

	if a.overlay.ConsumeRedraw() {
		a.lastFrame = a.overlay.Render(a.canvas)
	}
	screen.DrawImage(a.layer, nil)

	if a.debug {
		ebitenutil.DebugPrint(screen, a.debugText())
	}
}

// debugText 返回调试信息
func (a *App) debugText() string {
	stats := a.overlay.Stats()
	return fmt.Sprintf("TPS: %.0f FPS: %.0f\nItems: %d Lanes: %d Dropped(busy): %d\nFrames: %d Dropped(error): %d\nLast frame: drawn=%d expired=%d",
		ebiten.ActualTPS(), ebiten.ActualFPS(),
		stats.ActiveItems, stats.Lanes, stats.DroppedByTrackBusy,
		stats.FramesDrawn, stats.FramesDropped,
		a.lastFrame.Drawn, a.lastFrame.Expired)
}

// Layout 使用窗口实际尺寸作为视口
func (a *App) Layout(outsideWidth, outsideHeight int) (int, int) {
	a.overlay.SetViewport(float64(outsideWidth), float64(outsideHeight))
	return outsideWidth, outsideHeight
}

// Close 销毁叠加层并保存尚未写入的配置，可重复调用
func (a *App) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true

	a.overlay.Dispose()
	if a.layer != nil {
		a.layer.Deallocate()
		a.layer = nil
	}

	if err := a.store.Save(); err != nil {
		return fmt.Errorf("配置保存失败: %w", err)
	}
	return nil
}

// IsVerbose 返回是否启用了详细日志
func (a *App) IsVerbose() bool {
	return a.verbose
}
