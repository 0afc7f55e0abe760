package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/truckwise/fleet-server/pkg/users"
)

func newListUsersCommand() *Command {
	return &Command{
		Name:        "list-users",
		Description: "List user accounts, optionally filtered by company",
		Flags:       flag.NewFlagSet("list-users", flag.ExitOnError),
		Run:         runListUsers,
	}
}

func runListUsers(args []string) error {
	flags := flag.NewFlagSet("list-users", flag.ExitOnError)
	companyID := flags.Int64("company", 0, "Only show users of this company")
	dbURL := flags.String("db", "", "Database URL (defaults to FLEET_POSTGRES_URL)")
	if err := flags.Parse(args); err != nil {
		return err
	}

	db, err := openDB(*dbURL)
	if err != nil {
		return err
	}
	defer db.Close()

	var scope *int64
	if *companyID != 0 {
		scope = companyID
	}
	return listUsers(context.Background(), users.NewPostgresStore(db), os.Stdout, scope)
}

func listUsers(ctx context.Context, store users.Store, out io.Writer, companyID *int64) error {
	list, err := store.List(ctx, companyID)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tEMAIL\tROLE\tCOMPANY\tACTIVE")
	for _, u := range list {
		company := "-"
		if u.CompanyID != nil {
			company = fmt.Sprintf("%d", *u.CompanyID)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%t\n", u.ID, u.Email, u.Role, company, u.Active)
	}
	return w.Flush()
}
