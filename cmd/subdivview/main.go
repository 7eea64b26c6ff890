// Command subdivview shows the subdivision surface of a PLY file, or of a
// cube when no file is given.
//
// Usage:
//
//	subdivview [-ply mesh.ply] [-settings subdiv.toml] [-level 3] [-resolution 5] [-adaptive]
package main

import (
	"errors"
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	subdiv "github.com/smasonuk/gosubdiv"
)

const (
	screenWidth  = 800
	screenHeight = 600
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run shows the viewer for the command line args and returns the exit
// code. Errors are logged rather than fatal so that the descriptor is
// always freed.
func run(args []string) int {
	fs := flag.NewFlagSet("subdivview", flag.ContinueOnError)
	plyFile := fs.String("ply", "", "ASCII PLY mesh to subdivide (default: a cube)")
	settingsFile := fs.String("settings", "", "TOML settings file")
	level := fs.Int("level", -1, "subdivision level, overrides the settings file")
	resolution := fs.Int("resolution", 5, "samples per ptex face edge")
	adaptive := fs.Bool("adaptive", false, "evaluate the limit surface")
	verbose := fs.Bool("v", false, "log subdivision phases")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if *verbose {
		subdiv.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	settings := subdiv.DefaultSettings()
	if *settingsFile != "" {
		var err error
		if settings, err = subdiv.LoadSettingsFile(*settingsFile); err != nil {
			log.Println(err)
			return 1
		}
	}
	if *level >= 0 {
		settings.Level = *level
	}
	if *adaptive {
		settings.IsAdaptive = true
	}

	base := subdiv.NewCubeMesh(100)
	if *plyFile != "" {
		m, err := subdiv.LoadMeshFromPLYFile(*plyFile)
		if err != nil {
			log.Println(err)
			return 1
		}
		base = m
	}

	log.Println("Building subdivision surface...")
	g, err := NewGame(base, settings, *resolution)
	if err != nil {
		log.Println(err)
		return 1
	}
	defer g.Close()
	log.Println("Initialization Complete.")

	ebiten.SetWindowSize(screenWidth, screenHeight)
	ebiten.SetWindowTitle("subdivview")
	if err := ebiten.RunGame(g); err != nil && err != ebiten.Termination {
		log.Println(err)
		return 1
	}
	if err := g.stats().Print(os.Stdout); err != nil {
		log.Println(err)
		return 1
	}
	return 0
}
