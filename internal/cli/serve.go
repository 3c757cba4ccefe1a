package cli

import (
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/perspectives/pkg/config"
	"github.com/matzehuels/perspectives/pkg/server"
)

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	port    int    // TCP port
	dir     string // static file directory
	bindAll bool   // listen on all interfaces instead of loopback
	noCache bool   // disable the artifact cache
}

// serveCommand creates the serve command for the browser front end.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the front end and the render API",
		Long: `Serve static files and the render API over HTTP.

Files are served from --dir; when it does not exist a built-in page is
served instead. Images are rendered at /api/render?text=...&size=...`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.Config.Server
			flags := cmd.Flags()
			if flags.Changed("port") {
				c.Config.Server.Port = opts.port
			}
			if flags.Changed("dir") {
				c.Config.Server.Dir = opts.dir
			}
			if flags.Changed("all") {
				c.Config.Server.BindAll = opts.bindAll
			}
			if err := c.Config.Validate(); err != nil {
				c.Config.Server = cfg
				return err
			}
			return c.runServe(cmd, opts.noCache)
		},
	}

	cmd.Flags().IntVarP(&opts.port, "port", "p", config.DefaultPort, "port to listen on")
	cmd.Flags().StringVarP(&opts.dir, "dir", "d", config.DefaultDir, "static file directory")
	cmd.Flags().BoolVar(&opts.bindAll, "all", false, "listen on all interfaces (default: 127.0.0.1 only)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the artifact cache")

	return cmd
}

func (c *CLI) runServe(cmd *cobra.Command, noCache bool) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	addr := c.Config.ServerAddr()
	srv := server.New(runner, server.Options{
		Dir:      c.Config.Server.Dir,
		Defaults: c.Config.RenderOptions(""),
		Logger:   logger,
	})

	printInfo("Serving at %s", StyleLink.Render("http://"+addr))
	printFile(c.Config.Server.Dir)

	prog := newProgress(logger, log.InfoLevel)
	if err := srv.ListenAndServe(ctx, addr); err != nil {
		return err
	}
	prog.done("server stopped", "addr", addr)
	return nil
}
