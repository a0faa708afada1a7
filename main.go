package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/decker502/danmaku/pkg/app"
	"github.com/decker502/danmaku/pkg/overlay"
)

var (
	// 命令行参数
	configFile  = flag.String("config", "", "弹幕配置文件（yaml/json/toml）")
	fontPath    = flag.String("font", "", "字体文件路径（默认使用内置字体）")
	laneFlag    = flag.String("lane", "random", "轨道分配策略：random 或 track")
	fontScale   = flag.Float64("scale", 1.0, "字号缩放系数（屏幕密度）")
	verbose     = flag.Bool("verbose", false, "显示详细调试信息")
	debug       = flag.Bool("debug", false, "在画面左上角显示运行统计")
	demo        = flag.Bool("demo", false, "自动发送演示弹幕")
	transparent = flag.Bool("transparent", true, "透明无边框置顶窗口（鼠标穿透）")
	noPersist   = flag.Bool("no-persist", false, "不保存/恢复弹幕配置")
	width       = flag.Int("width", 1280, "窗口宽度")
	height      = flag.Int("height", 720, "窗口高度")
)

// demoTexts 演示弹幕
var demoTexts = []string{
	"前方高能",
	"哈哈哈哈哈哈",
	"awsl",
	"第一！",
	"This is a danmaku overlay",
	"弹幕护体",
	"23333",
	"高能预警！！！",
}

// demoColors 演示弹幕颜色
var demoColors = []uint32{0xFFFFFFFF, 0xFFFF5555, 0xFF55FF55, 0xFF66CCFF, 0xFFFFFF55}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "用法: %s [选项]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "从标准输入逐行读取弹幕；以 / 开头的行是控制命令：\n")
		fmt.Fprintf(os.Stderr, "  /pause /resume /clear /quit /set <键> <值> /color <颜色> <文本> /load <文件>\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	overlayApp, err := app.NewApp(app.Config{
		Verbose:      *verbose,
		Debug:        *debug,
		OptionFile:   *configFile,
		FontPath:     *fontPath,
		LaneStrategy: *laneFlag,
		FontScale:    *fontScale,
		Persist:      !*noPersist,
	})
	if err != nil {
		// NewApp 可能已关闭日志输出，错误直接写到 stderr
		fmt.Fprintf(os.Stderr, "初始化失败: %v\n", err)
		os.Exit(1)
	}

	queue := overlayApp.Queue()
	go func() {
		n, err := overlay.ReadConsole(os.Stdin, queue)
		if err != nil {
			log.Printf("[Main] stdin error: %v", err)
		}
		log.Printf("[Main] stdin closed after %d commands", n)
	}()

	if *demo {
		go runDemo(queue)
	}

	ebiten.SetWindowSize(*width, *height)
	ebiten.SetWindowTitle("Danmaku Overlay")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(ebiten.SyncWithFPS)

	op := &ebiten.RunGameOptions{}
	if *transparent {
		op.ScreenTransparent = true
		ebiten.SetWindowDecorated(false)
		ebiten.SetWindowFloating(true)
		ebiten.SetWindowMousePassthrough(true)
	}

	if err := ebiten.RunGameWithOptions(overlayApp, op); err != nil {
		log.Fatal(err)
	}

	if err := overlayApp.Close(); err != nil {
		log.Printf("[Main] %v", err)
	}
}

// runDemo 周期性投递演示弹幕
func runDemo(queue *overlay.CommandQueue) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	ticker := time.NewTicker(300 * time.Millisecond)
	defer ticker.Stop()

	for range ticker.C {
		queue.Enqueue(overlay.MethodAddDanmaku, map[string]any{
			"text":  demoTexts[rng.Intn(len(demoTexts))],
			"color": demoColors[rng.Intn(len(demoColors))],
		})
	}
}
