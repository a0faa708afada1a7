package overlay

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/quasilyte/gdata/v2"

	"github.com/decker502/danmaku/pkg/config"
)

// createTestGdataManager 在临时 HOME 下创建 gdata 管理器
func createTestGdataManager(t *testing.T, appName string) *gdata.Manager {
	t.Helper()
	tempDir := t.TempDir()
	originalHome := os.Getenv("HOME")
	os.Setenv("HOME", tempDir)
	t.Cleanup(func() { os.Setenv("HOME", originalHome) })

	manager, err := gdata.Open(gdata.Config{
		AppName: appName,
	})
	if err != nil {
		t.Fatalf("Failed to create gdata manager: %v", err)
	}
	return manager
}

// TestOptionStoreNilGdata 测试 gdataManager 为 nil 时的降级场景
func TestOptionStoreNilGdata(t *testing.T) {
	s := NewOptionStore(nil)
	if s.Option() != config.DefaultDanmakuOption() {
		t.Errorf("Option() = %+v, want defaults", s.Option())
	}

	s.SetOption(config.DefaultDanmakuOption().Apply(map[string]any{"opacity": 0.2}))
	if !s.IsDirty() {
		t.Error("SetOption should mark the store dirty")
	}
	if err := s.Save(); err != nil {
		t.Errorf("Save() in degraded mode error: %v", err)
	}
}

// TestOptionStoreLoadSave 测试保存后重新加载
func TestOptionStoreLoadSave(t *testing.T) {
	manager := createTestGdataManager(t, "test_danmaku_option")

	s1 := NewOptionStore(manager)
	if s1.Option() != config.DefaultDanmakuOption() {
		t.Fatalf("fresh store should use defaults, got %+v", s1.Option())
	}

	want := config.DefaultDanmakuOption().Apply(map[string]any{
		"opacity":    0.4,
		"fontSize":   24,
		"hideScroll": true,
	})
	s1.SetOption(want)
	if err := s1.Save(); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if s1.IsDirty() {
		t.Error("store should be clean after Save")
	}

	s2 := NewOptionStore(manager)
	if s2.Option() != want {
		t.Errorf("reloaded option = %+v, want %+v", s2.Option(), want)
	}
}

// TestOptionStoreClampsSavedData 测试越界的保存数据在加载时被夹紧
func TestOptionStoreClampsSavedData(t *testing.T) {
	manager := createTestGdataManager(t, "test_danmaku_option_clamp")

	raw := []byte("opacity: 9\nfontSize: 2\nlineHeight: bogus\n")
	if err := manager.SaveObjectProp(optionObject, optionProperty, raw); err != nil {
		t.Fatalf("SaveObjectProp() error: %v", err)
	}

	s := NewOptionStore(manager)
	got := s.Option()
	if got.Opacity != 1.0 || got.FontSize != 8 || got.LineHeight != config.LineHeightDefault {
		t.Errorf("loaded option = %+v, want clamped values", got)
	}
}

// TestOptionStoreCorruptData 测试损坏数据回退到默认配置
func TestOptionStoreCorruptData(t *testing.T) {
	manager := createTestGdataManager(t, "test_danmaku_option_corrupt")

	if err := manager.SaveObjectProp(optionObject, optionProperty, []byte(":\n\t- [")); err != nil {
		t.Fatalf("SaveObjectProp() error: %v", err)
	}

	s := &OptionStore{gdataManager: manager}
	if err := s.Load(); err == nil {
		t.Error("Load() should fail on corrupt data")
	}
	if s.Option() != config.DefaultDanmakuOption() {
		t.Errorf("Option() = %+v, want defaults after failed load", s.Option())
	}
}

// TestOptionStoreSetSameOption 测试设置相同配置不会标记为脏
func TestOptionStoreSetSameOption(t *testing.T) {
	s := NewOptionStore(nil)
	s.SetOption(config.DefaultDanmakuOption())
	if s.IsDirty() {
		t.Error("setting identical option should not mark dirty")
	}
}

// TestOptionStoreCommitWithoutClose 测试配置变更立即落盘，不依赖退出时保存
func TestOptionStoreCommitWithoutClose(t *testing.T) {
	manager := createTestGdataManager(t, "test_danmaku_option_commit")
	store := NewOptionStore(manager)

	o := New(Config{}, &fixedMeasurer{width: 10})
	o.SetOptionListener(store.Commit)
	o.UpdateOption(map[string]any{"opacity": 0.9})

	if store.IsDirty() {
		t.Error("Commit should leave the store clean")
	}

	// 模拟进程被杀后重启：不调用 Save，直接重新打开
	restored := NewOptionStore(manager)
	if restored.Option().Opacity != 0.9 {
		t.Errorf("restored opacity = %v, want 0.9", restored.Option().Opacity)
	}
}

// TestOptionStorePath 测试存储位置指向 gdata 实际写入的文件
func TestOptionStorePath(t *testing.T) {
	if got := NewOptionStore(nil).Path(); got != "" {
		t.Errorf("degraded Path() = %q, want empty", got)
	}

	manager := createTestGdataManager(t, "test_danmaku_option_path")
	s := NewOptionStore(manager)
	s.Commit(config.DefaultDanmakuOption().Apply(map[string]any{"fontSize": 30}))

	path := s.Path()
	if !strings.HasSuffix(path, filepath.Join(optionObject, optionProperty)) {
		t.Errorf("Path() = %q, want suffix %q", path, filepath.Join(optionObject, optionProperty))
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("committed option file missing: %v", err)
	}
}
