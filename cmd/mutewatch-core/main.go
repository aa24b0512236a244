package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/tiroq/mutewatch/internal/diaglog"
	"github.com/tiroq/mutewatch/internal/ipc"
	"github.com/tiroq/mutewatch/internal/monitor"
	"github.com/tiroq/mutewatch/internal/pidfile"
	"github.com/tiroq/mutewatch/internal/probe"
	"github.com/tiroq/mutewatch/internal/settings"
	"github.com/tiroq/mutewatch/internal/statusws"
)

const logPrefix = "[mutewatch-core]"

var (
	// Version is set at build time via -ldflags "-X main.Version=..."
	Version = "dev"

	outLog *log.Logger
	errLog *log.Logger
)

func main() {
	// Recover from any panics and log them
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "PANIC in mutewatch-core: %v\n", r)
			if errLog != nil {
				errLog.Printf("PANIC: %v", r)
			}
			os.Exit(1)
		}
	}()

	if err := initLogging(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logging: %v\n", err)
		os.Exit(1)
	}

	outLog.Println("===========================================")
	outLog.Println("Starting MuteWatch Core v" + Version + "...")
	outLog.Printf("PID: %d", os.Getpid())
	outLog.Printf("Timestamp: %s", time.Now().Format(time.RFC3339))
	outLog.Println("===========================================")

	pidPath := pidfile.PathFor("mutewatch-core")
	pf, err := pidfile.New(pidPath)
	if err != nil {
		errLog.Printf("Failed to create PID file: %v", err)
		errLog.Println("Another instance of mutewatch-core may already be running.")
		errLog.Printf("If you're sure no other instance is running, remove: %s", pidPath)
		os.Exit(1)
	}
	defer func() {
		outLog.Println("[SHUTDOWN] Removing PID file...")
		if err := pf.Remove(); err != nil {
			errLog.Printf("Warning: failed to remove PID file: %v", err)
		}
	}()
	outLog.Printf("[STARTUP] PID file created: %s (PID %d)", pidPath, os.Getpid())

	diagLogger, diagErr := diaglog.New(filepath.Join(os.TempDir(), "mutewatch-debug.log"))
	if diagErr != nil {
		errLog.Printf("[STARTUP] WARNING: could not open diagnostic log: %v (continuing)", diagErr)
		diagLogger = diaglog.NewNoOp()
	}
	defer func() { _ = diagLogger.Close() }()

	store := settings.NewStore()
	cfg := store.Get()
	outLog.Printf("[STARTUP] Settings loaded: interval=%dms, icon_size=%dpx", cfg.CheckIntervalMS, cfg.IconSize)

	prober := probe.New(probe.NewOsascriptRunner(), func() probe.Keywords {
		s := store.Get()
		return probe.Keywords{Muted: s.MutedKeyword, Unmuted: s.UnmutedKeyword}
	})

	// Optional WebSocket status feed for local integrations.
	var wsServer *statusws.Server
	if addr := cfg.ListenAddr; addr != "" {
		wsServer = statusws.New()
		wsServer.SetLogger(diagLogger)
		if err := wsServer.Start(addr); err != nil {
			errLog.Printf("[STARTUP] Status WebSocket disabled: %v", err)
			wsServer = nil
		} else {
			outLog.Printf("[STARTUP] Status WebSocket listening on %s", wsServer.Addr())
			defer func() { _ = wsServer.Stop() }()
		}
	}

	publish := func(out probe.Outcome) {
		s := store.Get()
		snapshot := &ipc.StatusSnapshot{
			State:      out.State.String(),
			Detail:     out.Detail,
			IntervalMS: s.CheckIntervalMS,
			IconSize:   s.IconSize,
			Timestamp:  time.Now(),
		}
		if err := ipc.WriteStatus(snapshot); err != nil {
			errLog.Printf("Failed to write status: %v", err)
		}
		if wsServer != nil {
			wsServer.Broadcast(snapshot)
		}
	}

	mon := monitor.New(prober, time.Duration(cfg.CheckIntervalMS)*time.Millisecond, publish)
	mon.SetLogger(diagLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	outLog.Println("[STARTUP] Starting command file watcher...")
	go watchCommands(ctx, store, mon, diagLogger, cancel)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		outLog.Printf("[SHUTDOWN] Received signal %v", sig)
		cancel()
	}()
	outLog.Println("[STARTUP] Signal handlers registered (SIGINT, SIGTERM)")

	outLog.Printf("[STARTUP] Starting poll loop (every %dms)...", cfg.CheckIntervalMS)
	outLog.Println("===========================================")
	outLog.Println("[RUNNING] MuteWatch Core is running and monitoring")

	mon.Run(ctx)

	outLog.Println("[SHUTDOWN] Shutting down gracefully")
}

// watchCommands monitors cmd.txt for UI commands, preferring fsnotify
// with a polling safety net.
func watchCommands(ctx context.Context, store *settings.Store, mon *monitor.Monitor, diag *diaglog.Logger, quit context.CancelFunc) {
	cmdPath := ipc.CommandPath()
	cmdDir := filepath.Dir(cmdPath)

	if err := os.MkdirAll(cmdDir, 0755); err != nil {
		errLog.Printf("Failed to create command directory: %v", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		errLog.Printf("fsnotify not available, falling back to polling: %v", err)
		watchCommandsWithPolling(ctx, cmdPath, store, mon, diag, quit)
		return
	}
	defer func() {
		if err := watcher.Close(); err != nil {
			errLog.Printf("Failed to close watcher: %v", err)
		}
	}()

	if err := watcher.Add(cmdDir); err != nil {
		errLog.Printf("Failed to watch command directory, falling back to polling: %v", err)
		watchCommandsWithPolling(ctx, cmdPath, store, mon, diag, quit)
		return
	}

	outLog.Println("Command watcher started (using fsnotify)")

	// Fallback ticker in case fsnotify misses events.
	pollTicker := time.NewTicker(1 * time.Second)
	defer pollTicker.Stop()

	lastCheckTime := time.Now()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				outLog.Println("fsnotify watcher closed, switching to polling")
				watchCommandsWithPolling(ctx, cmdPath, store, mon, diag, quit)
				return
			}
			if event.Name == cmdPath && (event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create) {
				// Small delay to ensure write is complete
				time.Sleep(50 * time.Millisecond)
				if cmd, err := ipc.ReadCommand(); err == nil && cmd.Kind != ipc.KindNone {
					handleCommand(cmd, store, mon, diag, quit)
					lastCheckTime = time.Now()
				}
			}

		case <-pollTicker.C:
			if info, err := os.Stat(cmdPath); err == nil && info.ModTime().After(lastCheckTime) {
				time.Sleep(50 * time.Millisecond)
				if cmd, err := ipc.ReadCommand(); err == nil && cmd.Kind != ipc.KindNone {
					handleCommand(cmd, store, mon, diag, quit)
				}
				lastCheckTime = time.Now()
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				outLog.Println("fsnotify error channel closed, switching to polling")
				watchCommandsWithPolling(ctx, cmdPath, store, mon, diag, quit)
				return
			}
			errLog.Printf("File watcher error: %v", err)
		}
	}
}

// watchCommandsWithPolling is the pure polling fallback.
func watchCommandsWithPolling(ctx context.Context, cmdPath string, store *settings.Store, mon *monitor.Monitor, diag *diaglog.Logger, quit context.CancelFunc) {
	outLog.Println("Command watcher started (using polling fallback, 1s interval)")

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	lastCheckTime := time.Now()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			info, err := os.Stat(cmdPath)
			if err != nil {
				continue
			}
			if info.ModTime().After(lastCheckTime) {
				time.Sleep(50 * time.Millisecond)
				if cmd, err := ipc.ReadCommand(); err == nil && cmd.Kind != ipc.KindNone {
					handleCommand(cmd, store, mon, diag, quit)
				}
				lastCheckTime = time.Now()
			}
		}
	}
}

// handleCommand applies one UI command. Settings changes persist through
// the store; the monitor is nudged only where the poll cadence changes.
func handleCommand(cmd ipc.Command, store *settings.Store, mon *monitor.Monitor, diag *diaglog.Logger, quit context.CancelFunc) {
	diag.Log(diaglog.LogEntry{
		Component: diaglog.ComponentCore,
		Event:     diaglog.EventCommandDispatch,
		Payload:   map[string]interface{}{"kind": int(cmd.Kind)},
	})

	switch cmd.Kind {
	case ipc.KindSetInterval:
		if err := store.Update(func(s *settings.Settings) { s.CheckIntervalMS = cmd.IntervalMS }); err != nil {
			errLog.Printf("Failed to save interval: %v", err)
		}
		// Normalize may have snapped the value; use what actually stuck.
		applied := store.Get().CheckIntervalMS
		mon.SetInterval(time.Duration(applied) * time.Millisecond)
		outLog.Printf("Poll interval set to %dms", applied)
		diag.Log(diaglog.LogEntry{
			Component: diaglog.ComponentMonitor,
			Event:     diaglog.EventIntervalChange,
			Payload:   map[string]interface{}{"interval_ms": applied},
		})

	case ipc.KindSetIconSize:
		if err := store.Update(func(s *settings.Settings) { s.IconSize = cmd.Size }); err != nil {
			errLog.Printf("Failed to save icon size: %v", err)
		}
		outLog.Printf("Icon size set to %dpx", store.Get().IconSize)
		diag.Log(diaglog.LogEntry{
			Component: diaglog.ComponentCore,
			Event:     diaglog.EventIconSizeChange,
			Payload:   map[string]interface{}{"size": store.Get().IconSize},
		})
		republish(store, mon)

	case ipc.KindSetMutedKeyword:
		if err := store.Update(func(s *settings.Settings) { s.MutedKeyword = cmd.Keyword }); err != nil {
			errLog.Printf("Failed to save muted keyword: %v", err)
		}
		outLog.Printf("Muted keyword updated (%q)", cmd.Keyword)
		diag.Log(diaglog.LogEntry{
			Component: diaglog.ComponentCore,
			Event:     diaglog.EventKeywordChange,
			Payload:   map[string]interface{}{"which": "muted"},
		})

	case ipc.KindSetUnmutedKeyword:
		if err := store.Update(func(s *settings.Settings) { s.UnmutedKeyword = cmd.Keyword }); err != nil {
			errLog.Printf("Failed to save unmuted keyword: %v", err)
		}
		outLog.Printf("Unmuted keyword updated (%q)", cmd.Keyword)
		diag.Log(diaglog.LogEntry{
			Component: diaglog.ComponentCore,
			Event:     diaglog.EventKeywordChange,
			Payload:   map[string]interface{}{"which": "unmuted"},
		})

	case ipc.KindSavePosition:
		x, y := cmd.X, cmd.Y
		if err := store.Update(func(s *settings.Settings) {
			s.WindowX, s.WindowY = &x, &y
		}); err != nil {
			errLog.Printf("Failed to save window position: %v", err)
		}
		diag.Log(diaglog.LogEntry{
			Component: diaglog.ComponentCore,
			Event:     diaglog.EventPositionSave,
			Payload:   map[string]interface{}{"x": x, "y": y},
		})

	case ipc.KindQuit:
		outLog.Println("Quit command received - shutting down")
		quit()

	default:
		errLog.Printf("Unknown command kind: %d", cmd.Kind)
	}
}

// republish rewrites status.json from the last outcome so the UI picks
// up settings-only changes without waiting for the next poll.
func republish(store *settings.Store, mon *monitor.Monitor) {
	s := store.Get()
	last := mon.LastOutcome()
	snapshot := &ipc.StatusSnapshot{
		State:      last.State.String(),
		Detail:     last.Detail,
		IntervalMS: s.CheckIntervalMS,
		IconSize:   s.IconSize,
		Timestamp:  time.Now(),
	}
	if err := ipc.WriteStatus(snapshot); err != nil {
		errLog.Printf("Failed to write status: %v", err)
	}
}

// initLogging sets up the out/err log pair with size-based rotation.
func initLogging() error {
	logDir := os.TempDir()

	outLogPath := filepath.Join(logDir, "mutewatch-core.out.log")
	errLogPath := filepath.Join(logDir, "mutewatch-core.err.log")

	if err := rotateLogIfNeeded(outLogPath, 10*1024*1024); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to rotate out log: %v\n", err)
	}
	if err := rotateLogIfNeeded(errLogPath, 10*1024*1024); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to rotate err log: %v\n", err)
	}

	outFile, err := os.OpenFile(outLogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	errFile, err := os.OpenFile(errLogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}

	outLog = log.New(outFile, logPrefix+" ", log.LstdFlags)
	errLog = log.New(errFile, logPrefix+" ERROR: ", log.LstdFlags)
	return nil
}

// rotateLogIfNeeded renames the log to .old once it exceeds maxSize.
func rotateLogIfNeeded(logPath string, maxSize int64) error {
	info, err := os.Stat(logPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if info.Size() < maxSize {
		return nil
	}

	oldPath := logPath + ".old"
	if err := os.Remove(oldPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove old log: %w", err)
	}
	return os.Rename(logPath, oldPath)
}
