package overlay

import (
	"fmt"
	"log"

	"github.com/quasilyte/gdata/v2"
	"gopkg.in/yaml.v3"

	"github.com/decker502/danmaku/pkg/config"
)

// 存储路径常量
const (
	optionObject   = "danmaku"
	optionProperty = "option"
)

// OptionStore 弹幕配置存储
//
// 负责把最近一次应用的弹幕配置保存到 gdata，下次启动时恢复。
// 只持久化配置，不持久化弹幕本身
type OptionStore struct {
	gdataManager *gdata.Manager // gdata 跨平台存储管理器，可为 nil（降级模式）
	option       config.DanmakuOption
	dirty        bool
}

// NewOptionStore 创建配置存储并尝试加载已保存的配置
//
// 参数：
//   - gdataManager: gdata 跨平台存储管理器，可为 nil（降级模式，仅内存配置）
//
// 加载失败不是致命错误，回退到默认配置
func NewOptionStore(gdataManager *gdata.Manager) *OptionStore {
	s := &OptionStore{
		gdataManager: gdataManager,
		option:       config.DefaultDanmakuOption(),
	}

	if err := s.Load(); err != nil {
		log.Printf("[OptionStore] Warning: Failed to load option: %v (using defaults)", err)
	}

	return s
}

// Load 从 gdata 加载配置
//
// 保存的数据按 updateOption 同样的规则夹紧，损坏或越界的值不会进入运行时
func (s *OptionStore) Load() error {
	if s.gdataManager == nil {
		s.option = config.DefaultDanmakuOption()
		return nil
	}

	if !s.gdataManager.ObjectPropExists(optionObject, optionProperty) {
		s.option = config.DefaultDanmakuOption()
		return nil
	}

	data, err := s.gdataManager.LoadObjectProp(optionObject, optionProperty)
	if err != nil {
		s.option = config.DefaultDanmakuOption()
		return fmt.Errorf("failed to load option: %w", err)
	}

	options, err := config.ParseOptions(data, ".yaml")
	if err != nil {
		s.option = config.DefaultDanmakuOption()
		return fmt.Errorf("failed to unmarshal option: %w", err)
	}

	s.option = config.DefaultDanmakuOption().Apply(options)
	s.dirty = false
	log.Printf("[OptionStore] Option loaded successfully")
	return nil
}

// Save 保存配置到 gdata
//
// gdataManager 为 nil 或配置未变化时直接返回 nil
func (s *OptionStore) Save() error {
	if s.gdataManager == nil || !s.dirty {
		return nil
	}

	data, err := yaml.Marshal(s.option)
	if err != nil {
		return fmt.Errorf("failed to marshal option: %w", err)
	}

	if err := s.gdataManager.SaveObjectProp(optionObject, optionProperty, data); err != nil {
		return fmt.Errorf("failed to save option: %w", err)
	}

	s.dirty = false
	log.Printf("[OptionStore] Option saved successfully")
	return nil
}

// Option 返回当前配置
func (s *OptionStore) Option() config.DanmakuOption {
	return s.option
}

// SetOption 更新内存中的配置，需调用 Save() 持久化
func (s *OptionStore) SetOption(option config.DanmakuOption) {
	if option == s.option {
		return
	}
	s.option = option
	s.dirty = true
}

// Commit 更新配置并立即写入 gdata
//
// 作为叠加层的配置监听器使用。移动端进程随时可能被系统杀掉，不能只在退出时保存
func (s *OptionStore) Commit(option config.DanmakuOption) {
	s.SetOption(option)
	if err := s.Save(); err != nil {
		log.Printf("[OptionStore] Warning: %v", err)
	}
}

// Path 返回配置在 gdata 中的存储位置（仅用于日志），降级模式下为空字符串
func (s *OptionStore) Path() string {
	if s.gdataManager == nil {
		return ""
	}
	return s.gdataManager.ObjectPropPath(optionObject, optionProperty)
}

// IsDirty 返回是否有未保存的修改
func (s *OptionStore) IsDirty() bool {
	return s.dirty
}
