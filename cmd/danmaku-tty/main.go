// danmaku-tty 在终端中运行弹幕叠加层
//
// 弹幕从 --input 指定的文件（可以是命名管道）逐行读取，格式与桌面版的标准输入相同。
//
// 按键：
//
//	Space   暂停 / 恢复
//	c       清空
//	h       隐藏 / 显示滚动弹幕
//	Esc     退出
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/decker502/danmaku/pkg/config"
	"github.com/decker502/danmaku/pkg/overlay"
	"github.com/decker502/danmaku/pkg/systems"
)

var (
	// 命令行参数
	inputPath  = flag.String("input", "", "弹幕输入文件或命名管道")
	configFile = flag.String("config", "", "弹幕配置文件（yaml/json/toml）")
	laneFlag   = flag.String("lane", "track", "轨道分配策略：random 或 track")
	demo       = flag.Bool("demo", false, "自动发送演示弹幕")
	logFile    = flag.String("log", "", "日志文件（终端被占用，默认不输出日志）")
)

// frameInterval 约 60 FPS
const frameInterval = 16 * time.Millisecond

// ttyHost 终端宿主
type ttyHost struct {
	screen  tcell.Screen
	overlay *overlay.Overlay
	queue   *overlay.CommandQueue
	canvas  *CellCanvas
	rng     *rand.Rand
}

// newTTYHost 创建终端宿主
//
// 终端字号固定为一个字符格高，行高为 1，使每条轨道正好对应一行
func newTTYHost(screen tcell.Screen, option config.DanmakuOption, strategy systems.LaneStrategy) *ttyHost {
	option.FontSize = cellHeightPx
	option.LineHeight = config.LineHeightMin

	h := &ttyHost{
		screen: screen,
		overlay: overlay.New(overlay.Config{
			Option:       option,
			LaneStrategy: strategy,
		}, cellMeasurer{}),
		queue:  overlay.NewCommandQueue(),
		canvas: NewCellCanvas(screen, 0),
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	h.handleResize()
	return h
}

// handleResize 按终端尺寸更新视口，最后一行留给状态栏
func (h *ttyHost) handleResize() {
	width, height := h.screen.Size()
	rows := height - 1
	if rows < 0 {
		rows = 0
	}
	h.canvas.SetRows(rows)
	h.overlay.SetViewport(float64(width)*cellWidthPx, float64(rows)*cellHeightPx)
}

// handleInput 处理终端事件，返回 false 表示退出
func (h *ttyHost) handleInput(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
			return false
		}
		if ev.Key() != tcell.KeyRune {
			return true
		}
		switch ev.Rune() {
		case ' ':
			if h.overlay.IsRunning() {
				h.queue.Enqueue(overlay.MethodPause, nil)
			} else {
				h.queue.Enqueue(overlay.MethodResume, nil)
			}
		case 'c':
			h.queue.Enqueue(overlay.MethodClear, nil)
		case 'h':
			h.queue.Enqueue(overlay.MethodUpdateOption, map[string]any{
				config.KeyHideScroll: !h.overlay.Option().HideScroll,
			})
		case 'q':
			return false
		}

	case *tcell.EventResize:
		h.screen.Sync()
		h.handleResize()
	}

	return true
}

// applyPending 执行排队命令
//
// 配置更新里的字号和行高被改回固定值，保证一条轨道始终对应一行
func (h *ttyHost) applyPending() {
	for _, cmd := range h.queue.Drain() {
		args := cmd.Args
		if cmd.Method == overlay.MethodUpdateOption {
			args = pinCellMetrics(args)
		}
		if err := h.overlay.Dispatch(cmd.Method, args); err != nil {
			log.Printf("[TTY] %v", err)
		}
	}
}

// pinCellMetrics 返回字号和行高固定为字符格尺寸的配置副本
func pinCellMetrics(options map[string]any) map[string]any {
	_, hasSize := options[config.KeyFontSize]
	_, hasLine := options[config.KeyLineHeight]
	if !hasSize && !hasLine {
		return options
	}

	pinned := make(map[string]any, len(options))
	for k, v := range options {
		pinned[k] = v
	}
	pinned[config.KeyFontSize] = float64(cellHeightPx)
	pinned[config.KeyLineHeight] = config.LineHeightMin
	return pinned
}

// step 执行一帧：排队命令 → 帧时钟 → 按需合成。返回 false 表示叠加层已销毁
func (h *ttyHost) step() bool {
	h.applyPending()
	if h.overlay.IsDisposed() {
		return false
	}

	h.overlay.Tick()
	if h.overlay.ConsumeRedraw() {
		h.overlay.Render(h.canvas)
		h.drawStatus()
		h.screen.Show()
	}
	return true
}

// drawStatus 在最后一行显示运行状态
func (h *ttyHost) drawStatus() {
	width, height := h.screen.Size()
	if height == 0 {
		return
	}

	stats := h.overlay.Stats()
	state := "running"
	if !h.overlay.IsRunning() {
		state = "paused"
	}
	if h.overlay.Option().HideScroll {
		state += " (hidden)"
	}
	status := fmt.Sprintf(" %s | items %d | lanes %d | dropped %d | [space] pause [c] clear [h] hide [esc] quit",
		state, stats.ActiveItems, stats.Lanes, stats.DroppedByTrackBusy)

	style := tcell.StyleDefault.Reverse(true)
	col := 0
	for _, r := range status {
		if col >= width {
			break
		}
		h.screen.SetContent(col, height-1, r, nil, style)
		col++
	}
	for ; col < width; col++ {
		h.screen.SetContent(col, height-1, ' ', nil, style)
	}
}

// run 主循环
func (h *ttyHost) run() {
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	eventChan := make(chan tcell.Event, 100)
	go func() {
		for {
			eventChan <- h.screen.PollEvent()
		}
	}()

	// 首帧即使没有弹幕也要画出状态栏
	h.overlay.RequestRedraw()

	for {
		select {
		case ev := <-eventChan:
			if ev == nil || !h.handleInput(ev) {
				return
			}

		case <-ticker.C:
			if !h.step() {
				return
			}
		}
	}
}

// runDemo 周期性投递演示弹幕
func (h *ttyHost) runDemo() {
	texts := []string{"前方高能", "哈哈哈哈", "awsl", "第一！", "terminal danmaku", "23333"}
	colors := []uint32{0xFFFFFFFF, 0xFFFF5555, 0xFF55FF55, 0xFF66CCFF, 0xFFFFFF55}

	ticker := time.NewTicker(400 * time.Millisecond)
	defer ticker.Stop()
	for range ticker.C {
		h.queue.Enqueue(overlay.MethodAddDanmaku, map[string]any{
			"text":  texts[h.rng.Intn(len(texts))],
			"color": colors[h.rng.Intn(len(colors))],
		})
	}
}

func main() {
	flag.Parse()

	// 终端被 tcell 占用，日志只能写文件
	log.SetOutput(io.Discard)
	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		log.SetOutput(f)
	}

	strategy, err := systems.ParseLaneStrategy(*laneFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	option := config.DefaultDanmakuOption()
	if *configFile != "" {
		option, err = config.LoadOptionFile(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer screen.Fini()

	host := newTTYHost(screen, option, strategy)

	if *inputPath != "" {
		go func() {
			f, err := os.Open(*inputPath)
			if err != nil {
				log.Printf("[TTY] Failed to open input: %v", err)
				return
			}
			defer f.Close()
			if _, err := overlay.ReadConsole(f, host.queue); err != nil {
				log.Printf("[TTY] Input error: %v", err)
			}
		}()
	}
	if *demo {
		go host.runDemo()
	}

	host.run()
	host.overlay.Dispose()
}
