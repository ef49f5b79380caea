package cli

import (
	"errors"
	"fmt"

	"classroom/internal/repository"
	"classroom/internal/repository/db"
	"classroom/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
)

var createUserCmd = &cobra.Command{
	Use:   "create-user",
	Short: "Register an account from the command line",
	Long: `Create a user with the same rules as the registration form.

Example:
  classroom create-user --name saif --email saif@gmail.com --password 123456`,
	RunE: runCreateUser,
}

var newUser struct {
	Name     string `validate:"required,max=255"`
	Email    string `validate:"required,email,max=255"`
	Password string `validate:"required,min=6"`
}

func init() {
	rootCmd.AddCommand(createUserCmd)

	createUserCmd.Flags().StringVar(&newUser.Name, "name", "", "display name")
	createUserCmd.Flags().StringVar(&newUser.Email, "email", "", "login email")
	createUserCmd.Flags().StringVar(&newUser.Password, "password", "", "password, at least 6 characters")
	_ = createUserCmd.MarkFlagRequired("email")
	_ = createUserCmd.MarkFlagRequired("password")
}

func runCreateUser(cmd *cobra.Command, args []string) error {
	if newUser.Name == "" {
		newUser.Name = newUser.Email
	}
	if err := validator.New().Struct(&newUser); err != nil {
		return fmt.Errorf("invalid user: %w", err)
	}

	conn, err := db.InitDB(cfg.DB.Path)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	services := service.NewService(repository.NewRepository(conn), serviceOptions(cfg, appLogger))
	u, err := services.Authorization.Register(cmd.Context(), service.RegisterParams{
		Name:     newUser.Name,
		Email:    newUser.Email,
		Password: newUser.Password,
	})
	if errors.Is(err, service.ErrEmailTaken) {
		return fmt.Errorf("%s is already registered", service.NormalizeEmail(newUser.Email))
	}
	if err != nil {
		return err
	}

	appLogger.Infow("user created", "user_id", u.ID, "email", u.Email)
	fmt.Fprintf(cmd.OutOrStdout(), "created user %d <%s>\n", u.ID, u.Email)
	return nil
}
