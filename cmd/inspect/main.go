package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sharecircle/domain"
	"sharecircle/domain/geo"
	"sharecircle/repositories"
	"sharecircle/services"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var (
	dbPath string
	limit  int
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "inspect",
		Short:        "Read only view of the sharecircle store",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&dbPath, "db", "./data/badger", "Path to badger DB")
	cmd.AddCommand(itemsCmd(), usersCmd(), nearCmd())
	return cmd
}

func itemsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "items",
		Short: "List items, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withItems(func(items repositories.IItemRepository) error {
				list, err := items.Recent(cmd.Context(), limit, 0)
				if err != nil {
					return err
				}
				renderItems(cmd.OutOrStdout(), list)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of items")
	return cmd
}

func nearCmd() *cobra.Command {
	var longitude, latitude, radius float64
	cmd := &cobra.Command{
		Use:   "near",
		Short: "List items within a radius (km) of a point",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withItems(func(items repositories.IItemRepository) error {
				engine := services.NewGeoQueryEngine(items, nil, logs.GetLoggerFromLevel(slog.LevelWarn))
				list, err := engine.FindWithinRadius(cmd.Context(), geo.NewPoint(longitude, latitude), radius)
				if err != nil {
					return err
				}
				renderItems(cmd.OutOrStdout(), list)
				return nil
			})
		},
	}
	cmd.Flags().Float64Var(&longitude, "lon", 0, "Longitude of the center")
	cmd.Flags().Float64Var(&latitude, "lat", 0, "Latitude of the center")
	cmd.Flags().Float64Var(&radius, "radius", 10, "Radius in kilometres")
	return cmd
}

func usersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List registered users",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB(dbPath)
			if err != nil {
				return err
			}
			defer db.Close()

			users, err := repositories.NewUserRepository(db).ListUsers()
			if err != nil {
				return err
			}

			table := newTable(cmd.OutOrStdout(), []string{"ID", "Username", "Email", "Avatar", "Created"})
			for _, user := range users {
				table.Append([]string{shortID(user.ID), user.Username, user.Email, user.Avatar, user.CreatedAt.Format(time.DateTime)})
			}
			table.Render()
			return nil
		},
	}
}

func withItems(fn func(items repositories.IItemRepository) error) error {
	db, err := openDB(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(repositories.NewItemRepository(db, nil, logs.GetLoggerFromLevel(slog.LevelWarn)))
}

func renderItems(w io.Writer, items []domain.Item) {
	table := newTable(w, []string{"ID", "Name", "Category", "Owner", "Location", "Images", "Created"})
	for _, item := range items {
		table.Append([]string{
			shortID(item.ID),
			item.Name,
			item.Category,
			shortID(item.Owner),
			fmt.Sprintf("%.4f,%.4f", item.Location.Longitude, item.Location.Latitude),
			fmt.Sprint(len(item.Images)),
			item.CreatedAt.Format(time.DateTime),
		})
	}
	table.Render()
}

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	return table
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true)

	db, err := badger.Open(opts)
	if err != nil && strings.Contains(err.Error(), "Log truncate required") {
		return nil, fmt.Errorf("database needs recovery, start the server once: %w", err)
	}
	return db, err
}
