package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/logging"
	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// bootDB loads config, sets up logging and opens a migrated database.
func bootDB() (*gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logging.Init(cfg.LogLevel)
	db, err := openDatabase(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		closeDatabase(db)
		return nil, err
	}
	return db, nil
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := bootDB()
		if err != nil {
			return err
		}
		defer closeDatabase(db)
		slog.Info("schema up to date")
		return nil
	},
}

var seedFlags struct {
	adminEmail    string
	adminName     string
	adminPassword string
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert the default categories and, optionally, an admin account",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := bootDB()
		if err != nil {
			return err
		}
		defer closeDatabase(db)
		return seed(cmd.Context(), db, seedFlags.adminEmail, seedFlags.adminName, seedFlags.adminPassword)
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedFlags.adminEmail, "admin-email", "", "email of the admin account to create")
	seedCmd.Flags().StringVar(&seedFlags.adminName, "admin-name", "Administrator", "display name of the admin account")
	seedCmd.Flags().StringVar(&seedFlags.adminPassword, "admin-password", "", "password of the admin account (min 6 characters)")
}

var defaultCategories = []model.Category{
	{Name: "Miere și produse apicole", Slug: "miere-si-produse-apicole", SortOrder: 1},
	{Name: "Fructe uscate", Slug: "fructe-uscate", SortOrder: 2},
	{Name: "Nuci și semințe", Slug: "nuci-si-seminte", SortOrder: 3},
	{Name: "Ceaiuri", Slug: "ceaiuri", SortOrder: 4},
	{Name: "Uleiuri presate la rece", Slug: "uleiuri-presate-la-rece", SortOrder: 5},
	{Name: "Cereale și făinuri", Slug: "cereale-si-fainuri", SortOrder: 6},
}

// seed is idempotent: existing categories and accounts are left untouched.
func seed(ctx context.Context, db *gorm.DB, adminEmail, adminName, adminPassword string) error {
	categories := repository.NewCategoryRepository(db)
	for _, c := range defaultCategories {
		c := c
		_, err := categories.FindBySlug(ctx, c.Slug)
		if err == nil {
			continue
		}
		if !repository.IsNotFound(err) {
			return fmt.Errorf("lookup category %s: %w", c.Slug, err)
		}
		if err := categories.Create(ctx, &c); err != nil {
			return fmt.Errorf("create category %s: %w", c.Slug, err)
		}
		slog.Info("category created", "slug", c.Slug)
	}

	adminEmail = strings.ToLower(strings.TrimSpace(adminEmail))
	if adminEmail == "" {
		return nil
	}
	users := repository.NewUserRepository(db)
	if existing, err := users.GetByEmail(ctx, adminEmail); err == nil {
		if existing.Role != model.RoleAdmin {
			existing.Role = model.RoleAdmin
			if err := users.Update(ctx, existing); err != nil {
				return fmt.Errorf("promote %s: %w", adminEmail, err)
			}
			slog.Info("existing account promoted to admin", "email", adminEmail)
		}
		return nil
	} else if !repository.IsNotFound(err) {
		return fmt.Errorf("lookup %s: %w", adminEmail, err)
	}

	if len(adminPassword) < 6 {
		return errors.New("--admin-password must have at least 6 characters")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	admin := &model.User{
		Email:    adminEmail,
		Name:     adminName,
		Password: string(hashed),
		Role:     model.RoleAdmin,
		Provider: model.ProviderCredentials,
	}
	if err := users.Create(ctx, admin); err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	slog.Info("admin account created", "email", adminEmail)
	return nil
}
