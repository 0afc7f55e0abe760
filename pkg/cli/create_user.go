package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/truckwise/fleet-server/pkg/auth"
	"github.com/truckwise/fleet-server/pkg/users"
)

func newCreateUserCommand() *Command {
	return &Command{
		Name:        "create-user",
		Description: "Create a user account, including the initial super admin",
		Flags:       flag.NewFlagSet("create-user", flag.ExitOnError),
		Run:         runCreateUser,
	}
}

type createUserParams struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      string
	CompanyID int64
}

func runCreateUser(args []string) error {
	flags := flag.NewFlagSet("create-user", flag.ExitOnError)
	email := flags.String("email", "", "Email address (required)")
	password := flags.String("password", "", "Password (required)")
	firstName := flags.String("first-name", "", "First name")
	lastName := flags.String("last-name", "", "Last name")
	role := flags.String("role", "user", "Role: user, manager, company_admin or super_admin")
	companyID := flags.Int64("company", 0, "Company id (required for every role except super_admin)")
	dbURL := flags.String("db", "", "Database URL (defaults to FLEET_POSTGRES_URL)")
	if err := flags.Parse(args); err != nil {
		return err
	}

	db, err := openDB(*dbURL)
	if err != nil {
		return err
	}
	defer db.Close()

	return createUser(context.Background(), users.NewPostgresStore(db), newLogger(), createUserParams{
		Email:     *email,
		Password:  *password,
		FirstName: *firstName,
		LastName:  *lastName,
		Role:      *role,
		CompanyID: *companyID,
	})
}

func createUser(ctx context.Context, store users.Store, logger *logrus.Logger, params createUserParams) error {
	if params.Email == "" || params.Password == "" {
		return fmt.Errorf("--email and --password are required")
	}

	role := auth.Role(params.Role).Normalize()
	if !role.Valid() {
		return fmt.Errorf("invalid role %q", params.Role)
	}

	var companyID *int64
	if role == auth.RoleSuperAdmin {
		if params.CompanyID != 0 {
			return fmt.Errorf("super admins are not scoped to a company, drop --company")
		}
	} else {
		if params.CompanyID == 0 {
			return fmt.Errorf("--company is required for role %s", role)
		}
		companyID = &params.CompanyID
	}

	hash, err := auth.HashPassword(params.Password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user := &users.User{
		FirstName:    params.FirstName,
		LastName:     params.LastName,
		Email:        params.Email,
		PasswordHash: hash,
		Role:         role,
		CompanyID:    companyID,
	}
	if err := store.Create(ctx, user); err != nil {
		if err == users.ErrDuplicateEmail {
			return fmt.Errorf("a user with email %s already exists", params.Email)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"id":    user.ID,
		"email": user.Email,
		"role":  user.Role,
	}).Info("User created")
	return nil
}
