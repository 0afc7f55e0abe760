package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/truckwise/fleet-server/pkg/users"
)

func newDeactivateCommand() *Command {
	return &Command{
		Name:        "deactivate",
		Description: "Deactivate a user account so their next token verification fails at login",
		Flags:       flag.NewFlagSet("deactivate", flag.ExitOnError),
		Run:         runDeactivate,
	}
}

func runDeactivate(args []string) error {
	flags := flag.NewFlagSet("deactivate", flag.ExitOnError)
	id := flags.Int64("id", 0, "User id (required)")
	dbURL := flags.String("db", "", "Database URL (defaults to FLEET_POSTGRES_URL)")
	if err := flags.Parse(args); err != nil {
		return err
	}

	db, err := openDB(*dbURL)
	if err != nil {
		return err
	}
	defer db.Close()

	return deactivateUser(context.Background(), users.NewPostgresStore(db), newLogger(), *id)
}

func deactivateUser(ctx context.Context, store users.Store, logger *logrus.Logger, id int64) error {
	if id == 0 {
		return fmt.Errorf("--id is required")
	}

	if err := store.Deactivate(ctx, id); err != nil {
		if err == users.ErrNotFound {
			return fmt.Errorf("no user with id %d", id)
		}
		return fmt.Errorf("failed to deactivate user: %w", err)
	}

	logger.WithField("id", id).Info("User deactivated")
	logger.Warn("Server identity caches may serve the old profile until their TTL expires")
	return nil
}
