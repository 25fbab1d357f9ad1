// Package presencewatcher keeps the client's presence in sync with the
// status key of the TOML config file. Editing the file while the client
// runs pushes the new status to the live gateway session.
package presencewatcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pelletier/go-toml/v2"

	"github.com/why-shiro/J4Fluxer/pkg/entity"
	"github.com/why-shiro/J4Fluxer/pkg/fluxer"
	"github.com/why-shiro/J4Fluxer/pkg/log"
)

// StatusSetter applies a presence status. *fluxer.Client satisfies it.
type StatusSetter interface {
	SetStatus(status entity.OnlineStatus) error
}

// Plugin watches the config file and forwards status changes.
type Plugin struct {
	mu sync.Mutex

	retryInterval time.Duration
	debounceDelay time.Duration

	path     string
	setter   StatusSetter
	logger   fluxer.Logger
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	debounce *time.Timer
	applied  entity.OnlineStatus
}

// Config holds configuration options for the presence watcher plugin.
type Config struct {
	// RetryInterval is the delay between attempts while the gateway is
	// not connected.
	// Default: 2 seconds
	RetryInterval time.Duration

	// DebounceDelay is the delay to wait after a file change before reading it.
	// Default: 100 milliseconds
	DebounceDelay time.Duration

	// Setter overrides the client taken from PluginConfig.
	Setter StatusSetter
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		RetryInterval: 2 * time.Second,
		DebounceDelay: 100 * time.Millisecond,
	}
}

// New creates a presence watcher plugin.
func New(cfg Config) *Plugin {
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 2 * time.Second
	}
	if cfg.DebounceDelay <= 0 {
		cfg.DebounceDelay = 100 * time.Millisecond
	}
	return &Plugin{
		retryInterval: cfg.RetryInterval,
		debounceDelay: cfg.DebounceDelay,
		setter:        cfg.Setter,
	}
}

// Name returns the plugin identifier.
func (p *Plugin) Name() string {
	return "presencewatcher"
}

// Initialize records the current status in the file and starts watching it.
func (p *Plugin) Initialize(ctx context.Context, cfg fluxer.PluginConfig) error {
	p.mu.Lock()
	p.path = cfg.ConfigFile
	p.logger = cfg.Logger
	if p.logger == nil {
		p.logger = log.NewNoopLogger()
	}
	if p.setter == nil && cfg.Client != nil {
		p.setter = cfg.Client
	}
	p.mu.Unlock()

	if p.path == "" || p.setter == nil {
		p.logger.Warn("Presence watcher disabled: no config file or client")
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("presence watcher: create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(p.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("presence watcher: watch %s: %w", filepath.Dir(p.path), err)
	}

	if status, err := readStatus(p.path); err == nil {
		p.mu.Lock()
		p.applied = status
		p.mu.Unlock()
	}

	watchCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.logger.Info("Presence watcher plugin initialized", log.String("path", p.path))

	p.wg.Add(1)
	go p.watchLoop(watchCtx, watcher)

	return nil
}

// Shutdown stops the watcher and waits for pending work.
func (p *Plugin) Shutdown(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}
	p.mu.Lock()
	if p.debounce != nil && p.debounce.Stop() {
		p.wg.Done()
	}
	p.mu.Unlock()
	p.wg.Wait()
	return nil
}

// Applied returns the last status pushed to the session, or the status
// found in the file at startup.
func (p *Plugin) Applied() entity.OnlineStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.applied
}

func (p *Plugin) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer p.wg.Done()
	defer watcher.Close()

	name := filepath.Base(p.path)
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			p.debounceApply(ctx)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			p.logger.Error("Presence watcher: watcher error", log.Err(err))
		}
	}
}

func (p *Plugin) debounceApply(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	// A stopped timer never runs its func, so release its slot here.
	if p.debounce != nil && p.debounce.Stop() {
		p.wg.Done()
	}
	// Shutdown may already have checked the timer.
	if ctx.Err() != nil {
		p.debounce = nil
		return
	}

	p.wg.Add(1)
	p.debounce = time.AfterFunc(p.debounceDelay, func() {
		defer p.wg.Done()
		p.apply(ctx)
	})
}

// apply reads the file and pushes a changed status, retrying while the
// gateway is not connected.
func (p *Plugin) apply(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	status, err := readStatus(p.path)
	if err != nil {
		p.logger.Warn("Presence watcher: cannot read status", log.Err(err))
		return
	}
	if status == p.Applied() {
		return
	}

	retryCount := 0
	for {
		err := p.setter.SetStatus(status)
		if err == nil {
			p.mu.Lock()
			p.applied = status
			p.mu.Unlock()
			p.logger.Info("Presence watcher: status updated",
				log.String(log.KeyStatus, string(status)), log.Int(log.KeyAttempt, retryCount+1))
			return
		}
		if !errors.Is(err, fluxer.ErrNotConnected) {
			p.logger.Error("Presence watcher: status rejected", log.Err(err))
			return
		}

		retryCount++
		select {
		case <-ctx.Done():
			return
		case <-time.After(p.retryInterval):
		}
	}
}

type statusFile struct {
	Status string `toml:"status"`
}

func readStatus(path string) (entity.OnlineStatus, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	var f statusFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return "", fmt.Errorf("parse %s: %w", path, err)
	}
	if f.Status == "" {
		return "", fmt.Errorf("%s: no status key", path)
	}
	return entity.ParseOnlineStatus(f.Status)
}

// Ensure Plugin implements fluxer.Plugin.
var _ fluxer.Plugin = (*Plugin)(nil)
