package overlay

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/decker502/danmaku/pkg/config"
)

// ErrEmptyLine 空行没有对应的命令
var ErrEmptyLine = errors.New("empty console line")

// ParseConsoleLine 把一行控制台输入解析为叠加层命令
//
// 支持的格式：
//   - 普通文本：以默认颜色添加一条弹幕
//   - /color <颜色> <文本>：以指定颜色添加弹幕（颜色格式同 ParseColor）
//   - /set <键> <值>：更新一项配置
//   - /load <文件>：从配置文件读取并应用全部配置
//   - /pause /resume /clear /dispose（/quit 为 /dispose 的别名）
//
// 以 "//" 开头的行按普通文本处理（去掉一个 "/"）
func ParseConsoleLine(line string) (Command, error) {
	line = strings.TrimRight(line, "\r\n")
	if strings.TrimSpace(line) == "" {
		return Command{}, ErrEmptyLine
	}

	if !strings.HasPrefix(line, "/") {
		return addCommand(line, DefaultColor), nil
	}
	if strings.HasPrefix(line, "//") {
		return addCommand(line[1:], DefaultColor), nil
	}

	name, rest, _ := strings.Cut(strings.TrimSpace(line[1:]), " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(name) {
	case "pause":
		return Command{Method: MethodPause}, nil
	case "resume":
		return Command{Method: MethodResume}, nil
	case "clear":
		return Command{Method: MethodClear}, nil
	case "dispose", "quit":
		return Command{Method: MethodDispose}, nil
	case "color":
		colorArg, text, ok := strings.Cut(rest, " ")
		if !ok || strings.TrimSpace(text) == "" {
			return Command{}, fmt.Errorf("usage: /color <color> <text>")
		}
		return addCommand(text, ParseColor(colorArg)), nil
	case "set":
		key, value, ok := strings.Cut(rest, " ")
		if !ok || key == "" {
			return Command{}, fmt.Errorf("usage: /set <key> <value>")
		}
		return Command{
			Method: MethodUpdateOption,
			Args:   map[string]any{key: strings.TrimSpace(value)},
		}, nil
	case "load":
		if rest == "" {
			return Command{}, fmt.Errorf("usage: /load <file>")
		}
		option, err := config.LoadOptionFile(rest)
		if err != nil {
			return Command{}, err
		}
		return Command{Method: MethodUpdateOption, Args: option.Map()}, nil
	}

	return Command{}, fmt.Errorf("unknown console command: /%s", name)
}

func addCommand(text string, color uint32) Command {
	return Command{
		Method: MethodAddDanmaku,
		Args:   map[string]any{"text": text, "color": color},
	}
}

// ReadConsole 逐行读取输入并投递到命令队列，直到输入结束
//
// 在独立 goroutine 中运行；解析失败的行只记录日志。返回投递的命令数
func ReadConsole(r io.Reader, q *CommandQueue) (int, error) {
	scanner := bufio.NewScanner(r)
	count := 0
	for scanner.Scan() {
		cmd, err := ParseConsoleLine(scanner.Text())
		if errors.Is(err, ErrEmptyLine) {
			continue
		}
		if err != nil {
			log.Printf("[Console] %v", err)
			continue
		}
		q.Enqueue(cmd.Method, cmd.Args)
		count++
	}
	return count, scanner.Err()
}
