package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/productd/database/seeders"
	"github.com/shashiranjanraj/productd/internal/server"
)

// productd seed
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert the sample products",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := server.Boot(cmd.Context())
		if err != nil {
			return err
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = app.Close(ctx)
		}()

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Running seeders…")
		return seeders.RunAll(cmd.Context(), app.Products, out)
	},
}
