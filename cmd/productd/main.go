// Command productd is the product catalogue service.
//
//	productd serve        # connect to MongoDB and serve HTTP on APP_PORT
//	productd seed         # insert the sample products
//	productd route:list   # print the named routes
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/productd/internal/server"
)

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		var serr *server.StartupError
		if errors.As(err, &serr) {
			fmt.Fprintln(os.Stderr, "productd failed to start:", err)
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "productd",
	Short:         "productd: product catalogue REST API over MongoDB",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(routeListCmd)
	rootCmd.AddCommand(seedCmd)
}
