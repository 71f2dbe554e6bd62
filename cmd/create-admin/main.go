package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/anhnhh24/DriverLicenseTest/internal/config"
	"github.com/anhnhh24/DriverLicenseTest/internal/database"
	"github.com/anhnhh24/DriverLicenseTest/internal/logger"
	"github.com/anhnhh24/DriverLicenseTest/internal/model"
	"github.com/anhnhh24/DriverLicenseTest/internal/repository"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	users := repository.NewUserRepository(pool)

	// ─── CLI Input ─────────────────────────────────────────────────────
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("=== Create Admin Account ===")

	fmt.Print("Enter Username: ")
	username, _ := reader.ReadString('\n')
	username = strings.TrimSpace(username)
	if len(username) < 3 {
		fmt.Println("Error: Username must be at least 3 characters")
		return
	}

	// An existing account is promoted instead of duplicated.
	if existing, err := users.GetByUsername(ctx, username); err == nil {
		if err := users.UpdateRole(ctx, existing.ID, model.UserRoleAdmin); err != nil {
			log.Fatal().Err(err).Msg("Failed to promote user")
		}
		if !existing.EmailConfirmed {
			if err := users.ConfirmEmail(ctx, existing.ID); err != nil {
				log.Fatal().Err(err).Msg("Failed to confirm email")
			}
		}
		fmt.Printf("\nUser '%s' promoted to admin.\n", existing.Username)
		return
	} else if !errors.Is(err, pgx.ErrNoRows) {
		log.Fatal().Err(err).Msg("Failed to look up user")
	}

	fmt.Print("Enter Email: ")
	email, _ := reader.ReadString('\n')
	email = strings.TrimSpace(email)
	if !strings.Contains(email, "@") {
		fmt.Println("Error: A valid email is required")
		return
	}

	fmt.Print("Enter Full Name (optional): ")
	fullName, _ := reader.ReadString('\n')
	fullName = strings.TrimSpace(fullName)

	fmt.Print("Enter Password: ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println() // Newline after password input
	if err != nil {
		fmt.Println("Error reading password")
		return
	}
	password := string(bytePassword)
	if len(password) < 6 {
		fmt.Println("Error: Password must be at least 6 characters")
		return
	}

	// ─── Logic ─────────────────────────────────────────────────────────
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), cfg.BcryptCost)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash password")
	}

	admin := &model.User{
		Username:       username,
		Email:          email,
		PasswordHash:   string(hashedPassword),
		Role:           model.UserRoleAdmin,
		EmailConfirmed: true,
	}
	if fullName != "" {
		admin.FullName = &fullName
	}

	if err := users.Create(ctx, admin); err != nil {
		if errors.Is(err, repository.ErrDuplicateUser) {
			fmt.Println("Error: Username or email already in use")
			return
		}
		log.Fatal().Err(err).Msg("Failed to create admin")
	}

	fmt.Printf("\nSuccess! Admin '%s' (%s) created with ID: %s\n", admin.Username, admin.Email, admin.ID)
}
