package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"github.com/ultracrew/ultracrew/internal/auth"
	"github.com/ultracrew/ultracrew/internal/config"
	"github.com/ultracrew/ultracrew/internal/crypto"
	"github.com/ultracrew/ultracrew/internal/invitation"
	"github.com/ultracrew/ultracrew/internal/ratelimit"
	"github.com/ultracrew/ultracrew/internal/relationship"
	"github.com/ultracrew/ultracrew/internal/user"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed a demo coach, runner, pairing, and pending invitation",
	RunE:  runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

const (
	demoCoachEmail  = "coach@ultracrew.demo"
	demoRunnerEmail = "runner@ultracrew.demo"
	demoPacerEmail  = "pacer@ultracrew.demo"
	demoPassword    = "trail-mix-2024"
)

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	cipher, err := crypto.NewCipher(cfg.Encryption.Key)
	if err != nil {
		return err
	}

	userStore := user.NewStore(pool, cfg.Auth.SessionDuration)
	relStore := relationship.NewStore(pool, cipher)
	relService := relationship.NewService(relStore, userStore)
	invStore := invitation.NewStore(pool, cipher)
	invService, err := invitation.NewService(invStore, relStore, userStore, cfg.Invitations.Expiry, cfg.Invitations.LinkTemplate)
	if err != nil {
		return err
	}
	overrides := ratelimit.NewOverrideStore(pool)

	// Check if seed has already run.
	if _, err := userStore.GetByEmail(ctx, demoCoachEmail); err == nil {
		slog.Info("demo data already exists, skipping seed")
		return nil
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("checking existing demo data: %w", err)
	}

	coach, err := userStore.Create(ctx, user.CreateUserInput{
		Email:    demoCoachEmail,
		Password: demoPassword,
		Name:     "Dana",
		FullName: "Dana Ridgeway",
		UserType: auth.RoleCoach,
	})
	if err != nil {
		return fmt.Errorf("creating demo coach: %w", err)
	}
	slog.Info("created demo coach", "id", coach.ID, "email", coach.Email)

	runner, err := userStore.Create(ctx, user.CreateUserInput{
		Email:    demoRunnerEmail,
		Password: demoPassword,
		Name:     "Miles",
		FullName: "Miles Forrest",
		UserType: auth.RoleRunner,
	})
	if err != nil {
		return fmt.Errorf("creating demo runner: %w", err)
	}
	slog.Info("created demo runner", "id", runner.ID, "email", runner.Email)

	coachCaller := &auth.User{ID: coach.ID, Email: coach.Email, Name: coach.Name, Role: coach.UserType}

	rel, err := relService.Create(ctx, coachCaller, relationship.CreateRelationshipInput{
		TargetUserID: runner.ID,
		Notes:        "Training block for a first 100k. Long runs on Saturdays.",
	})
	if err != nil {
		return fmt.Errorf("pairing demo coach and runner: %w", err)
	}
	slog.Info("created demo relationship", "id", rel.ID)

	inv, rawToken, inviteURL, err := invService.Invite(ctx, coachCaller, invitation.CreateInvitationInput{
		InviteeEmail: demoPacerEmail,
	})
	if err != nil {
		return fmt.Errorf("creating demo invitation: %w", err)
	}
	slog.Info("created demo invitation", "id", inv.ID, "invitee_email", inv.InviteeEmail)

	// Give the demo coach generous invite headroom for experimenting.
	if err := overrides.Set(ctx, coach.ID, 100); err != nil {
		return fmt.Errorf("setting invite rate override: %w", err)
	}

	fmt.Printf("\n=== Demo Data Seeded ===\n")
	fmt.Printf("Coach:      %s / %s\n", demoCoachEmail, demoPassword)
	fmt.Printf("Runner:     %s / %s\n", demoRunnerEmail, demoPassword)
	fmt.Printf("Pairing:    %s\n", rel.ID)
	fmt.Printf("Invitation: pending for %s\n", demoPacerEmail)
	fmt.Printf("Token:      %s\n", rawToken)
	if inviteURL != "" {
		fmt.Printf("Invite URL: %s\n", inviteURL)
	}
	fmt.Printf("\nTry it:\n")
	fmt.Printf("  curl -X POST http://localhost:8080/api/v1/auth/login -d '{\"email\":%q,\"password\":%q}'\n", demoCoachEmail, demoPassword)
	fmt.Printf("  # sign up as %s, then redeem the invite:\n", demoPacerEmail)
	fmt.Printf("  curl -X POST http://localhost:8080/api/v1/auth/signup -d '{\"email\":%q,\"password\":%q,\"name\":\"Pace\",\"user_type\":\"runner\"}'\n", demoPacerEmail, demoPassword)
	fmt.Printf("  curl -X POST http://localhost:8080/api/v1/invitations/accept/%s\n", rawToken)

	return nil
}
