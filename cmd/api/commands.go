package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"membership-api/internal/client"
	"membership-api/internal/config"
	"membership-api/internal/invoice"
	authmw "membership-api/internal/middleware"
	"membership-api/internal/model"
	"membership-api/internal/notify"
	"membership-api/internal/repository"
	"membership-api/internal/server"
	"membership-api/internal/service"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the invoice workers",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if cfg.Razorpay.KeySecret == "" {
		return errors.New("RAZORPAY_KEY_SECRET is required")
	}

	db, err := openAndMigrate(cfg.Database)
	if err != nil {
		return err
	}

	razorpayClient := client.NewRazorpayClient(&cfg.Razorpay)
	mailClient := client.NewMailClient(&cfg.SMTP)

	dispatcher := notify.NewDispatcher(
		invoice.NewPDFRenderer(cfg.Invoice),
		mailClient,
		cfg.Dispatch,
		cfg.SMTP.SenderName,
	)

	srv := server.NewServer(
		server.NewServices(db, razorpayClient, cfg.Razorpay.KeySecret),
		authmw.NewAuth(cfg.Auth.JWTSecret),
		dispatcher,
		cfg.RateLimit,
	)

	serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port

	go func() {
		if err := srv.Start(serverAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	<-sigChan
	slog.Info("signal received, starting graceful shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	slog.Info("server stopped")
	return nil
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			_, err = openAndMigrate(cfg.Database)
			return err
		},
	}
}

func seedPlansCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed-plans",
		Short: "Insert the default Silver, Gold and Platinum plans if missing",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := openAndMigrate(cfg.Database)
			if err != nil {
				return err
			}

			planService := service.NewPlanService(
				db,
				repository.NewPlanRepository(db),
				repository.NewMembershipRepository(db),
				repository.NewChatRepository(db),
			)
			inserted, err := planService.Seed(cmd.Context(), service.DefaultPlans())
			if err != nil {
				return fmt.Errorf("seed plans: %w", err)
			}
			fmt.Printf("Seeded %d plan(s)\n", inserted)
			return nil
		},
	}
}

func issueTokenCmd() *cobra.Command {
	var (
		email string
		name  string
		role  string
		ttl   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "issue-token [user-id]",
		Short: "Print a signed bearer token for local testing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Auth.JWTSecret == "" {
				return errors.New("JWT_SECRET is required")
			}

			token, err := authmw.NewAuth(cfg.Auth.JWTSecret).IssueToken(&model.Principal{
				UserID: args[0],
				Email:  email,
				Name:   name,
				Role:   role,
			}, ttl)
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email claim")
	cmd.Flags().StringVar(&name, "name", "", "display name claim")
	cmd.Flags().StringVar(&role, "role", authmw.RoleUser, "role claim (user, admin)")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")

	return cmd
}

func openAndMigrate(cfg config.Database) (*gorm.DB, error) {
	db, err := client.OpenDatabase(cfg)
	if err != nil {
		return nil, err
	}
	if err := client.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}
