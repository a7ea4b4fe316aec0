package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"route-board-service/internal/adapters/repositories"
	"route-board-service/internal/config"
	"route-board-service/internal/platform/db"
	"route-board-service/internal/platform/logging"
	"route-board-service/internal/ports"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	cfgPath  string
	seedPath string
	routeID  string
	log      zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "dbtool",
	Short: "Route board database maintenance",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log = logging.New("dbtool", config.Get("ROUTEBOARD_LOGGING__LEVEL", "info"))
	},
	SilenceUsage: true,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the SQLite schema, and the Postgres schema when configured",
	RunE:  runInit,
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load routes from a JSON seed file into the SQLite catalog",
	RunE:  runSeed,
}

var commandsCmd = &cobra.Command{
	Use:   "commands",
	Short: "List persisted assignment commands",
	RunE:  runCommands,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", config.Get("ROUTEBOARD_CONFIG", ""), "configuration file")
	seedCmd.Flags().StringVar(&seedPath, "path", "", "seed file (defaults to database.seed_path)")
	commandsCmd.Flags().StringVar(&routeID, "route", "", "only list commands for this route id")

	rootCmd.AddCommand(initCmd, seedCmd, commandsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadDatabase(cfgPath)
	if err != nil {
		return err
	}

	conn, err := db.OpenSqlite(cfg.SqlitePath)
	if err != nil {
		return err
	}
	defer conn.Close()

	log.Info().Str("path", cfg.SqlitePath).Msg("initializing sqlite schema")
	if err := repositories.InitSchema(conn); err != nil {
		return fmt.Errorf("schema initialization failed: %w", err)
	}

	if cfg.PostgresURL != "" {
		pg, err := db.Open(cfg.PostgresURL)
		if err != nil {
			return err
		}
		defer pg.Close()

		log.Info().Msg("initializing postgres schema")
		if err := repositories.InitPostgresSchema(ctx, pg); err != nil {
			return fmt.Errorf("postgres schema initialization failed: %w", err)
		}
	}

	log.Info().Msg("schema ready")
	return nil
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadDatabase(cfgPath)
	if err != nil {
		return err
	}
	path := strings.TrimSpace(seedPath)
	if path == "" {
		path = cfg.SeedPath
	}

	conn, err := db.OpenSqlite(cfg.SqlitePath)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := repositories.InitSchema(conn); err != nil {
		return fmt.Errorf("schema initialization failed: %w", err)
	}

	log.Info().Str("seed_path", path).Msg("seeding routes")
	if err := repositories.SeedFromJSON(conn, path); err != nil {
		return fmt.Errorf("seeding failed: %w", err)
	}

	routes, err := repositories.NewSqliteRouteCatalog(conn).ListRoutes(cmd.Context())
	if err != nil {
		return err
	}
	log.Info().Int("routes", len(routes)).Msg("seeding complete")
	return nil
}

func runCommands(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadDatabase(cfgPath)
	if err != nil {
		return err
	}

	var conn *sql.DB
	var history ports.AssignmentHistory
	if cfg.PostgresURL != "" {
		conn, err = db.Open(cfg.PostgresURL)
		if err != nil {
			return err
		}
		history = repositories.NewSQLAssignmentStore(conn)
	} else {
		conn, err = db.OpenSqlite(cfg.SqlitePath)
		if err != nil {
			return err
		}
		history = repositories.NewSqliteAssignmentStore(conn)
	}
	defer conn.Close()

	cmds, err := history.ListCommands(cmd.Context(), routeID)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ISSUED AT\tCOMMAND\tROUTE\tVENDOR\tBOOKINGS")
	for _, c := range cmds {
		bookings := make([]string, 0, len(c.SelectedBookingIDs))
		for _, id := range c.SelectedBookingIDs {
			t := c.PerBookingTime[id]
			bookings = append(bookings, fmt.Sprintf("%s@%02d:%02d", id, t.Hour, t.Minute))
		}
		sort.Strings(bookings)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			c.IssuedAt.Format(time.RFC3339), c.ID, c.RouteID, c.VendorID, strings.Join(bookings, ","))
	}
	return tw.Flush()
}
