package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/truckwise/fleet-server/pkg/settings"
)

func newSetSettingCommand() *Command {
	return &Command{
		Name:        "set-setting",
		Description: "Create or update a platform setting for a company",
		Flags:       flag.NewFlagSet("set-setting", flag.ExitOnError),
		Run:         runSetSetting,
	}
}

func runSetSetting(args []string) error {
	flags := flag.NewFlagSet("set-setting", flag.ExitOnError)
	companyID := flags.Int64("company", 0, "Company id (required)")
	category := flags.String("category", "", "Setting category (required)")
	key := flags.String("key", "", "Setting key (required)")
	value := flags.String("value", "", "Setting value")
	settingType := flags.String("type", settings.TypeString, "Value type: string, boolean, number, json or array")
	dbURL := flags.String("db", "", "Database URL (defaults to FLEET_POSTGRES_URL)")
	if err := flags.Parse(args); err != nil {
		return err
	}

	db, err := openDB(*dbURL)
	if err != nil {
		return err
	}
	defer db.Close()

	return setSetting(context.Background(), settings.NewPostgresStore(db), newLogger(), settings.Setting{
		CompanyID: *companyID,
		Category:  *category,
		Key:       *key,
		Value:     *value,
		Type:      *settingType,
	})
}

func setSetting(ctx context.Context, store settings.Store, logger *logrus.Logger, setting settings.Setting) error {
	if setting.CompanyID == 0 {
		return fmt.Errorf("--company is required")
	}
	if setting.Category == "" || setting.Key == "" {
		return fmt.Errorf("--category and --key are required")
	}
	switch setting.Type {
	case settings.TypeString, settings.TypeBoolean, settings.TypeNumber, settings.TypeJSON, settings.TypeArray:
	default:
		return fmt.Errorf("invalid setting type %q", setting.Type)
	}

	if err := store.Upsert(ctx, setting); err != nil {
		return fmt.Errorf("failed to store setting: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"company":  setting.CompanyID,
		"category": setting.Category,
		"key":      setting.Key,
	}).Info("Setting stored")
	return nil
}
