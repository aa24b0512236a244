//go:build darwin

package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/progrium/darwinkit/dispatch"
	"github.com/progrium/darwinkit/macos/appkit"

	"github.com/tiroq/mutewatch/internal/ipc"
	"github.com/tiroq/mutewatch/internal/loginitem"
	"github.com/tiroq/mutewatch/internal/pidfile"
	"github.com/tiroq/mutewatch/internal/probe"
	"github.com/tiroq/mutewatch/internal/settings"
	"github.com/tiroq/mutewatch/pkg/macui"
)

var (
	// Version is set at build time via -ldflags "-X main.Version=..."
	Version = "dev"

	pf        *pidfile.PIDFile
	overlay   *macui.Overlay
	statusBar *macui.StatusBar

	// snap is the UI's current view. Only touched on the main thread;
	// background goroutines mutate it through applyOnMain.
	snap macui.Snapshot
)

func main() {
	// AppKit requires all GUI operations on the main thread.
	runtime.LockOSThread()

	defer func() {
		if r := recover(); r != nil {
			log.Printf("PANIC: mutewatch-ui crashed: %v", r)
			fmt.Fprintf(os.Stderr, "FATAL: mutewatch-ui panicked: %v\n", r)
			os.Exit(1)
		}
	}()

	log.SetPrefix("[mutewatch-ui] ")

	log.Println("===========================================")
	log.Println("MuteWatch UI starting (version " + Version + ")...")
	log.Printf("PID: %d", os.Getpid())
	log.Println("===========================================")

	pidPath := pidfile.PathFor("mutewatch-ui")
	var err error
	pf, err = pidfile.New(pidPath)
	if err != nil {
		log.Printf("Failed to create PID file: %v", err)
		log.Println("Another instance of mutewatch-ui may already be running.")
		log.Printf("If you're sure no other instance is running, remove: %s", pidPath)
		os.Exit(1)
	}
	defer func() {
		if err := pf.Remove(); err != nil {
			log.Printf("Warning: failed to remove PID file: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Printf("[SHUTDOWN] Received signal %v, cleaning up...", sig)
		if err := pf.Remove(); err != nil {
			log.Printf("Warning: failed to remove PID file: %v", err)
		}
		os.Exit(0)
	}()

	log.Println("[STARTUP] Initializing macOS application...")
	app := appkit.Application_SharedApplication()
	app.SetActivationPolicy(appkit.ApplicationActivationPolicyAccessory)

	snap.Settings = settings.Load()
	overlay = macui.NewOverlay(float64(snap.Settings.IconSize), snap.Settings.WindowX, snap.Settings.WindowY)
	statusBar = macui.NewStatusBar(Version, callbacks())
	statusBar.AttachOverlay(overlay)
	statusBar.Refresh(snap)
	log.Println("[STARTUP] Overlay and status bar created")

	if err := updateStatus(); err != nil {
		log.Printf("Failed to load initial status: %v", err)
	}

	go watchStatusFile()
	go watchOverlayPosition()
	go refreshLoginItemState()

	log.Println("===========================================")
	log.Println("[RUNNING] MuteWatch UI is running")
	log.Println("===========================================")

	app.Run()
}

// applyOnMain schedules a UI mutation on the AppKit main thread.
func applyOnMain(fn func()) {
	dispatch.MainQueue().DispatchAsync(fn)
}

func callbacks() macui.Callbacks {
	return macui.Callbacks{
		SetIconSize: func(size int) {
			sendCommand(ipc.Command{Kind: ipc.KindSetIconSize, Size: size})
			applyOnMain(func() {
				snap.Settings.IconSize = size
				overlay.SetIconSize(float64(size))
				statusBar.Refresh(snap)
			})
		},
		SetInterval: func(ms int) {
			sendCommand(ipc.Command{Kind: ipc.KindSetInterval, IntervalMS: ms})
			applyOnMain(func() {
				snap.Settings.CheckIntervalMS = ms
				statusBar.Refresh(snap)
			})
		},
		SetMutedKeyword: func(keyword string) {
			sendCommand(ipc.Command{Kind: ipc.KindSetMutedKeyword, Keyword: keyword})
			applyOnMain(func() {
				snap.Settings.MutedKeyword = keyword
				statusBar.Refresh(snap)
			})
		},
		SetUnmutedKeyword: func(keyword string) {
			sendCommand(ipc.Command{Kind: ipc.KindSetUnmutedKeyword, Keyword: keyword})
			applyOnMain(func() {
				snap.Settings.UnmutedKeyword = keyword
				statusBar.Refresh(snap)
			})
		},
		ToggleLoginItem: func(install bool) {
			go func() {
				var err error
				if install {
					err = loginitem.Install()
				} else {
					err = loginitem.Remove()
				}
				if err != nil {
					log.Printf("Login item change failed: %v", err)
					return
				}
				applyOnMain(func() {
					snap.LoginItem = install
					statusBar.Refresh(snap)
				})
			}()
		},
		Quit: func() {
			log.Println("[SHUTDOWN] Quit selected from menu")
			sendCommand(ipc.Command{Kind: ipc.KindQuit})
			go func() {
				// Give the daemon a moment to pick up the quit command.
				time.Sleep(200 * time.Millisecond)
				if err := pf.Remove(); err != nil {
					log.Printf("Warning: failed to remove PID file: %v", err)
				}
				os.Exit(0)
			}()
		},
	}
}

// sendCommand writes a command to the command file.
func sendCommand(cmd ipc.Command) {
	if err := ipc.WriteCommand(cmd); err != nil {
		log.Printf("Error sending command: %v", err)
	}
}

// updateStatus reads status.json and updates the overlay and menu.
func updateStatus() error {
	status, err := ipc.ReadStatus()
	if err != nil {
		if os.IsNotExist(err) {
			applyOnMain(func() {
				snap.Outcome = probe.Outcome{
					State:  probe.StateUnknown,
					Detail: "Waiting for mutewatch-core to start...",
				}
				overlay.SetState(probe.StateUnknown)
				statusBar.Refresh(snap)
			})
			return nil
		}
		return err
	}

	applyOnMain(func() {
		snap.Outcome = probe.Outcome{
			State:  probe.StateFromString(status.State),
			Detail: status.Detail,
		}
		if status.IconSize != 0 {
			snap.Settings.IconSize = status.IconSize
			overlay.SetIconSize(float64(status.IconSize))
		}
		if status.IntervalMS != 0 {
			snap.Settings.CheckIntervalMS = status.IntervalMS
		}
		overlay.SetState(snap.Outcome.State)
		statusBar.Refresh(snap)
	})
	return nil
}

// watchStatusFile monitors status.json for changes.
func watchStatusFile() {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Fatal(err)
	}
	defer func() {
		if err := watcher.Close(); err != nil {
			log.Printf("Failed to close watcher: %v", err)
		}
	}()

	statusDir := ipc.CacheDir()
	statusPath := ipc.StatusPath()

	if err := os.MkdirAll(statusDir, 0755); err != nil {
		log.Printf("Warning: failed to create status directory: %v", err)
	}

	// Watch the directory, not the file: atomic writes replace the inode.
	if err := watcher.Add(statusDir); err != nil {
		log.Fatal(err)
	}

	log.Println("Watching status file for changes...")

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Name == statusPath && (event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create || event.Op&fsnotify.Rename == fsnotify.Rename) {
				// Small delay to ensure write is complete
				time.Sleep(50 * time.Millisecond)
				if err := updateStatus(); err != nil {
					log.Printf("Failed to update status: %v", err)
				}
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Printf("Watcher error: %v", err)
		}
	}
}

// watchOverlayPosition notices when the user drags the overlay and asks
// the daemon to persist the new origin.
func watchOverlayPosition() {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	var lastX, lastY float64
	have := false

	for range ticker.C {
		applyOnMain(func() {
			x, y := overlay.Position()
			if !have {
				lastX, lastY, have = x, y, true
				return
			}
			if x != lastX || y != lastY {
				lastX, lastY = x, y
				go sendCommand(ipc.Command{Kind: ipc.KindSavePosition, X: x, Y: y})
			}
		})
	}
}

// refreshLoginItemState queries System Events once at startup.
func refreshLoginItemState() {
	installed, err := loginitem.Installed()
	if err != nil {
		log.Printf("Could not determine login item state: %v", err)
		return
	}
	applyOnMain(func() {
		snap.LoginItem = installed
		statusBar.Refresh(snap)
	})
}
