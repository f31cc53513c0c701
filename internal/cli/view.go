package cli

import (
	"fmt"
	"io"
	"log"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"
)

var fpsFlag int

func init() {
	cmd := &cobra.Command{
		Use:   "view",
		Short: "Run the world in real time and draw it in the terminal",
		Args:  cobra.NoArgs,
		RunE:  runView,
	}
	cmd.Flags().IntVar(&fpsFlag, "fps", 30, "Terminal redraw rate")

	RootCmd.AddCommand(cmd)
}

func runView(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("failed to create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("failed to init screen: %w", err)
	}
	defer screen.Fini()

	// log lines would corrupt the screen
	log.SetOutput(io.Discard)
	defer log.SetOutput(cmd.ErrOrStderr())

	return runViewer(cmd.Context(), cfg, screen, fpsFlag)
}
