package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sefazor/events-backend/internal/models"
	"github.com/sefazor/events-backend/internal/repository"
	"github.com/sefazor/events-backend/internal/service"
	"github.com/sefazor/events-backend/pkg/database"
	"github.com/sefazor/events-backend/pkg/utils"
)

var (
	moderatorUsername string
	moderatorEmail    string
	moderatorPassword string

	createModeratorCmd = &cobra.Command{
		Use:   "create-moderator",
		Short: "Create a user with the moderator flag set",
		RunE:  runCreateModerator,
	}
)

func init() {
	createModeratorCmd.Flags().StringVar(&moderatorUsername, "username", "", "username (required)")
	createModeratorCmd.Flags().StringVar(&moderatorEmail, "email", "", "email address (required)")
	createModeratorCmd.Flags().StringVar(&moderatorPassword, "password", "", "password, at least 8 characters (required)")
	_ = createModeratorCmd.MarkFlagRequired("username")
	_ = createModeratorCmd.MarkFlagRequired("email")
	_ = createModeratorCmd.MarkFlagRequired("password")
}

func runCreateModerator(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	db, err := openDatabase(cfg, logger)
	if err != nil {
		return err
	}
	defer closeDatabase(db, logger)

	if err := database.RunMigrations(db); err != nil {
		return err
	}

	files, err := newFileStorage(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}

	users := service.NewUserService(
		repository.NewUserRepository(db),
		repository.NewReviewRepository(db),
		files,
		utils.NewValidator(),
		logger,
	)
	user, err := users.CreateModerator(cmd.Context(), models.CreateUserRequest{
		Username: moderatorUsername,
		Email:    moderatorEmail,
		Password: moderatorPassword,
	})
	if err != nil {
		if fields := utils.FieldErrors(err); fields != nil {
			return fmt.Errorf("invalid moderator: %v", fields)
		}
		return err
	}

	logger.Info("moderator created", zap.Uint("user_id", user.ID), zap.String("username", user.Username))
	return nil
}
