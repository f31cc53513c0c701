package cli

import (
	"context"

	"github.com/gdamore/tcell/v2"

	"github.com/nightwalk/server/internal/config"
	"github.com/nightwalk/server/internal/viewer"
)

// runViewer steps the world in the background and draws it until the
// viewer quits or ctx is cancelled.
func runViewer(ctx context.Context, cfg *config.Config, screen tcell.Screen, fps int) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w, err := openWorld(ctx, cfg)
	if err != nil {
		return err
	}
	defer w.Close()

	loopDone := make(chan error, 1)
	go func() { loopDone <- w.loop.Run(ctx) }()

	err = viewer.New(screen, cfg.World.TileSize).Run(ctx, w.loop, fps)
	cancel()
	if loopErr := <-loopDone; err == nil {
		err = loopErr
	}
	return err
}
