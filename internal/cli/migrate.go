package cli

import (
	"fmt"

	"classroom/internal/repository/db"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	conn, err := db.Open(cfg.DB.Path)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	if err := db.Migrate(conn); err != nil {
		return err
	}
	version, err := db.Version(conn)
	if err != nil {
		return err
	}
	appLogger.Infow("migrations applied", "db", cfg.DB.Path, "version", version)
	fmt.Fprintf(cmd.OutOrStdout(), "%s is at schema version %d\n", cfg.DB.Path, version)
	return nil
}
