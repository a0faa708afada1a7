package overlay

import (
	"errors"
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"
	"sync"
)

// 宿主方法名（与平台通道上的方法名一致）
const (
	MethodAddDanmaku      = "addDanmaku"
	MethodAddDanmakuBatch = "addDanmakuBatch"
	MethodUpdateOption    = "updateOption"
	MethodClear           = "clear"
	MethodPause           = "pause"
	MethodResume          = "resume"
	MethodDispose         = "dispose"
)

// DefaultColor 未指定颜色时的弹幕颜色（不透明白色）
const DefaultColor uint32 = 0xFFFFFFFF

// ErrUnknownMethod 宿主调用了未实现的方法
var ErrUnknownMethod = errors.New("unknown overlay method")

// Command 一条待执行的宿主调用
type Command struct {
	Method string
	Args   map[string]any
}

// CommandQueue 单写者命令队列
//
// 任意 goroutine 可以 Enqueue；渲染 goroutine 在每个 tick 开始时
// 一次性取走全部命令并按到达顺序执行
type CommandQueue struct {
	mu      sync.Mutex
	pending []Command
}

// NewCommandQueue 创建命令队列
func NewCommandQueue() *CommandQueue {
	return &CommandQueue{
		pending: make([]Command, 0, 16),
	}
}

// Enqueue 投递一条命令（goroutine 安全）
func (q *CommandQueue) Enqueue(method string, args map[string]any) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = append(q.pending, Command{Method: method, Args: args})
}

// Drain 原子地取走并清空所有待执行命令
func (q *CommandQueue) Drain() []Command {
	q.mu.Lock()
	defer q.mu.Unlock()

	commands := q.pending
	q.pending = make([]Command, 0, cap(commands))
	return commands
}

// Len 返回待执行命令数
func (q *CommandQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// ApplyPending 在渲染 goroutine 上执行队列中的全部命令
//
// 单条命令出错只记录日志，不影响后续命令。返回执行的命令数
func (o *Overlay) ApplyPending(q *CommandQueue) int {
	commands := q.Drain()
	for _, cmd := range commands {
		if err := o.Dispatch(cmd.Method, cmd.Args); err != nil {
			log.Printf("[Overlay] WARNING: %v", err)
		}
	}
	return len(commands)
}

// Dispatch 把宿主方法调用映射到叠加层操作
//
// 核心操作本身从不出错；只有未知方法名会返回 ErrUnknownMethod
func (o *Overlay) Dispatch(method string, args map[string]any) error {
	switch method {
	case MethodAddDanmaku:
		text, _ := args["text"].(string)
		o.AddDanmaku(text, ParseColor(args["color"]))
	case MethodAddDanmakuBatch:
		o.AddDanmakuBatch(parseBatch(args["items"]))
	case MethodUpdateOption:
		o.UpdateOption(args)
	case MethodClear:
		o.Clear()
	case MethodPause:
		o.Pause()
	case MethodResume:
		o.Resume()
	case MethodDispose:
		o.Dispose()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}
	return nil
}

// ParseColor 解析宿主传入的颜色
//
// 支持：
//   - 整数（含 Java 侧的有符号 int，如 -1 表示 0xFFFFFFFF）
//   - 字符串 "#RRGGBB" / "#AARRGGBB" / "0xAARRGGBB"
//
// 无法解析时返回 DefaultColor
func ParseColor(raw any) uint32 {
	switch v := raw.(type) {
	case int:
		return uint32(v)
	case int32:
		return uint32(v)
	case int64:
		return uint32(v)
	case uint32:
		return v
	case uint64:
		return uint32(v)
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return DefaultColor
		}
		return uint32(int64(v))
	case string:
		s := strings.TrimSpace(v)
		switch {
		case strings.HasPrefix(s, "#"):
			s = s[1:]
		case strings.HasPrefix(s, "0x"), strings.HasPrefix(s, "0X"):
			s = s[2:]
		}
		hasAlpha := len(s) == 8
		n, err := strconv.ParseUint(s, 16, 32)
		if err != nil || (len(s) != 6 && len(s) != 8) {
			return DefaultColor
		}
		if !hasAlpha {
			n |= 0xFF000000
		}
		return uint32(n)
	}
	return DefaultColor
}

// parseBatch 解析 addDanmakuBatch 的 items 参数，跳过格式错误的条目
func parseBatch(raw any) []Item {
	switch list := raw.(type) {
	case []Item:
		return list
	case []any:
		items := make([]Item, 0, len(list))
		for _, entry := range list {
			m, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			text, ok := m["text"].(string)
			if !ok {
				continue
			}
			items = append(items, Item{Text: text, Color: ParseColor(m["color"])})
		}
		return items
	case []map[string]any:
		items := make([]Item, 0, len(list))
		for _, m := range list {
			text, ok := m["text"].(string)
			if !ok {
				continue
			}
			items = append(items, Item{Text: text, Color: ParseColor(m["color"])})
		}
		return items
	}
	return nil
}
