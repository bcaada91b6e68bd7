package main

import (
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/productd/app/controllers"
	"github.com/shashiranjanraj/productd/config"
	"github.com/shashiranjanraj/productd/internal/kernel"
	"github.com/shashiranjanraj/productd/internal/server"
)

var portFlag string

// productd serve
var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"run", "start"},
	Short:   "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if portFlag != "" {
			config.Set("APP_PORT", portFlag)
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return server.Start(ctx)
	},
}

// productd route:list
var routeListCmd = &cobra.Command{
	Use:     "route:list",
	Aliases: []string{"routes"},
	Short:   "List all registered named routes",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printRoutes(cmd.OutOrStdout())
	},
}

func init() {
	serveCmd.Flags().StringVarP(&portFlag, "port", "p", "", "listen port (overrides APP_PORT)")
}

func printRoutes(out io.Writer) error {
	// Only the route table is needed; no store is dialled.
	k := kernel.NewHTTPKernel(controllers.NewProductController(nil), nil)

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "METHOD\tPATH\tNAME")
	fmt.Fprintln(w, "------\t----\t----")
	for _, ri := range k.Router().Routes() {
		fmt.Fprintf(w, "%s\t%s\t%s\n", ri.Method, ri.Path, ri.Name)
	}
	return w.Flush()
}
