package game

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pthm-cable/drift/snapshot"
)

// saveSnapshot writes the current configuration to the snapshot directory.
func (g *Game) saveSnapshot() {
	dir := g.snapshotDir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		slog.Error("failed to create snapshot directory", "dir", dir, "error", err)
		return
	}
	name := fmt.Sprintf("drift-%s-tick%d.json", time.Now().Format("20060102-150405"), g.tick)
	path := filepath.Join(dir, name)

	snap := snapshot.Capture(g.engine, g.mods)
	if err := snapshot.Save(snap, path); err != nil {
		slog.Error("failed to save snapshot", "path", path, "error", err)
		return
	}
	slog.Info("saved snapshot", "path", path)
}

// loadLatestSnapshot restores the newest snapshot in the snapshot directory.
func (g *Game) loadLatestSnapshot() {
	dir := g.snapshotDir
	if dir == "" {
		dir = "."
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		slog.Error("failed to read snapshot directory", "dir", dir, "error", err)
		return
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), "drift-") && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		slog.Warn("no snapshots found", "dir", dir)
		return
	}
	sort.Strings(names)
	path := filepath.Join(dir, names[len(names)-1])
	if err := g.loadSnapshotFile(path); err != nil {
		slog.Error("failed to restore snapshot", "path", path, "error", err)
		return
	}
	slog.Info("restored snapshot", "path", path)
}

// loadSnapshotFile restores a snapshot. Species-indexed parameters are
// aligned to the snapshot's pool size before Apply so restored modulations
// can validate against them.
func (g *Game) loadSnapshotFile(path string) error {
	snap, err := snapshot.Load(path)
	if err != nil {
		return err
	}
	prev := g.engine.Registry().Count()
	g.ensureSpeciesParameters(len(snap.Species))
	if err := snapshot.Apply(snap, g.engine, g.mods, g.simTimeMs); err != nil {
		g.ensureSpeciesParameters(prev)
		return err
	}
	return nil
}
