package config_test

import (
	"os"
	"sync"
	"testing"
	"time"

	"github.com/artpar/cmscore/config"
	"github.com/rs/zerolog"
)

func validConfig() string {
	return `
logging:
  level: info
themes:
  cache_ttl: 30s
`
}

func TestHolder_Get(t *testing.T) {
	h, err := config.NewHolder(writeConfig(t, validConfig()), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	defer h.Stop()

	got := h.Get()
	if got == nil {
		t.Fatal("Get returned nil")
	}
	if got.Themes.CacheTTL != 30*time.Second {
		t.Errorf("Themes.CacheTTL = %v, want 30s", got.Themes.CacheTTL)
	}
}

func TestHolder_ReloadNotifies(t *testing.T) {
	path := writeConfig(t, validConfig())

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	defer h.Stop()

	var mu sync.Mutex
	var received *config.Config
	h.OnChange(func(cfg *config.Config) {
		mu.Lock()
		received = cfg
		mu.Unlock()
	})

	newContent := `
logging:
  level: debug
themes:
  cache_ttl: 5s
`
	if err := os.WriteFile(path, []byte(newContent), 0644); err != nil {
		t.Fatalf("write new config: %v", err)
	}
	changes, err := h.Reload()
	if err != nil {
		t.Fatalf("Reload error: %v", err)
	}
	if len(changes) != 2 {
		t.Errorf("changes = %+v, want logging.level and themes.cache_ttl", changes)
	}

	mu.Lock()
	defer mu.Unlock()
	if received == nil {
		t.Fatal("OnChange callback was not called")
	}
	if received.Logging.Level != "debug" {
		t.Errorf("callback Logging.Level = %s, want debug", received.Logging.Level)
	}
	if h.Get().Themes.CacheTTL != 5*time.Second {
		t.Errorf("Themes.CacheTTL = %v, want 5s", h.Get().Themes.CacheTTL)
	}
}

func TestHolder_ReloadInvalidConfigKeepsOld(t *testing.T) {
	path := writeConfig(t, validConfig())

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	defer h.Stop()

	if err := os.WriteFile(path, []byte("logging:\n  level: loud\n"), 0644); err != nil {
		t.Fatalf("write invalid config: %v", err)
	}
	var reported error
	h.OnError(func(err error) { reported = err })

	if _, err := h.Reload(); err == nil {
		t.Error("Reload should fail for invalid config")
	}
	if reported == nil {
		t.Error("OnError callback was not called")
	}
	if h.Get().Logging.Level != "info" {
		t.Errorf("should keep old config, got Logging.Level = %s", h.Get().Logging.Level)
	}
}

func TestHolder_WatchFile(t *testing.T) {
	path := writeConfig(t, validConfig())

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	defer h.Stop()

	reloaded := make(chan *config.Config, 4)
	h.OnChange(func(cfg *config.Config) {
		select {
		case reloaded <- cfg:
		default:
		}
	})

	if err := h.WatchFile(); err != nil {
		t.Fatalf("WatchFile error: %v", err)
	}

	if err := os.WriteFile(path, []byte("logging:\n  level: warn\n"), 0644); err != nil {
		t.Fatalf("write new config: %v", err)
	}

	select {
	case cfg := <-reloaded:
		if cfg.Logging.Level != "warn" {
			t.Errorf("after file watch, Logging.Level = %s, want warn", cfg.Logging.Level)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("file watcher did not trigger reload")
	}
}

func TestHolder_ConcurrentAccess(t *testing.T) {
	h, err := config.NewHolder(writeConfig(t, validConfig()), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	defer h.Stop()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if h.Get() == nil {
					t.Error("concurrent Get returned nil")
				}
			}
		}()
	}
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = h.Reload()
		}()
	}
	wg.Wait()
}

func TestReloadableFields(t *testing.T) {
	contains := func(list []string, s string) bool {
		for _, x := range list {
			if x == s {
				return true
			}
		}
		return false
	}

	for _, f := range []string{"logging.level", "themes.cache_ttl"} {
		if !contains(config.ReloadableFields(), f) {
			t.Errorf("%s not in ReloadableFields", f)
		}
	}
	for _, f := range []string{"server.port", "database.dsn", "hooks.listener_timeout"} {
		if !contains(config.NonReloadableFields(), f) {
			t.Errorf("%s not in NonReloadableFields", f)
		}
	}
}

func TestDiff(t *testing.T) {
	old := &config.Config{}
	old.Logging.Level = "info"
	old.Server.Port = 8080
	old.Admin.Token = "secret-a"

	next := &config.Config{}
	next.Logging.Level = "debug"
	next.Server.Port = 9090
	next.Admin.Token = "secret-a"

	changes := config.Diff(old, next)
	if len(changes) != 2 {
		t.Fatalf("Diff = %+v, want 2 changes", changes)
	}

	byField := map[string]config.Change{}
	for _, c := range changes {
		byField[c.Field] = c
	}
	if c := byField["logging.level"]; !c.Reloadable || c.Old != "info" || c.New != "debug" {
		t.Errorf("logging.level change = %+v", c)
	}
	if c := byField["server.port"]; c.Reloadable || c.New != "9090" {
		t.Errorf("server.port change = %+v", c)
	}

	if got := config.Diff(next, next); len(got) != 0 {
		t.Errorf("Diff of identical configs = %+v, want none", got)
	}
}

func TestHolder_StopTwice(t *testing.T) {
	h, err := config.NewHolder(writeConfig(t, validConfig()), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	if err := h.WatchFile(); err != nil {
		t.Fatalf("WatchFile error: %v", err)
	}
	h.WatchSignals()
	h.Stop()
	h.Stop()
}
