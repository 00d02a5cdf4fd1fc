package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"estatehub_backend/internal/account"
	"estatehub_backend/internal/model"
	"estatehub_backend/pkg/database"
	"estatehub_backend/pkg/utils/jwt"
)

// superuserPasswordEnv lets scripts pass the password without a flag.
const superuserPasswordEnv = "ESTATEHUB_SUPERUSER_PASSWORD"

func newCreateSuperuserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create-superuser",
		Short: "Create a staff superuser account",
		Args:  cobra.NoArgs,
		RunE:  runCreateSuperuser,
	}
	cmd.Flags().String("email", "", "account email (required)")
	cmd.Flags().String("username", "", "account username (required)")
	cmd.Flags().String("password", "", "account password (default: $"+superuserPasswordEnv+")")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func runCreateSuperuser(cmd *cobra.Command, args []string) error {
	email, _ := cmd.Flags().GetString("email")
	username, _ := cmd.Flags().GetString("username")
	password, _ := cmd.Flags().GetString("password")
	if password == "" {
		password = os.Getenv(superuserPasswordEnv)
	}
	if password == "" {
		return fmt.Errorf("password is required (--password or %s)", superuserPasswordEnv)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer closeDB(cmd, db)

	if err := database.Migrate(db, model.All()...); err != nil {
		return err
	}
	tokens := jwt.NewIssuer(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpiryHours)*time.Hour)
	svc := account.NewService(db, tokens, nil)
	user, err := svc.CreateSuperuser(cmd.Context(), account.RegisterInput{
		Email:    email,
		Username: username,
		Password: password,
	})
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(cmd.OutOrStdout(), map[string]interface{}{
			"id":       user.ID,
			"email":    user.Email,
			"username": user.Username,
		})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Superuser %s (#%d) created\n", user.Username, user.ID)
	return nil
}
