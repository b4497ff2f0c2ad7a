package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"

	"github.com/latihanku/latihanku-backend/internal/config"
	"github.com/latihanku/latihanku-backend/internal/database"
	"github.com/latihanku/latihanku-backend/internal/logger"
	"github.com/latihanku/latihanku-backend/internal/model"
	"github.com/latihanku/latihanku-backend/internal/repository"
)

// seed-demo provisions a demo learner with an active membership, a published
// tryout with a small question bank, and the default block settings.
func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	learnerRepo := repository.NewLearnerRepository(pool)
	settingRepo := repository.NewSettingRepository(pool)

	reader := bufio.NewReader(os.Stdin)

	fmt.Println("=== Seed Demo Data ===")

	fmt.Print("Demo learner email (default demo@latihanku.id): ")
	email, _ := reader.ReadString('\n')
	email = strings.TrimSpace(email)
	if email == "" {
		email = "demo@latihanku.id"
	}

	fmt.Print("Demo learner password: ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		fmt.Println("\nError reading password")
		return
	}
	fmt.Println()
	password := string(bytePassword)
	if len(password) < 6 {
		fmt.Println("Error: Password must be at least 6 characters")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cfg.BcryptCost)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash password")
	}

	learner := &model.Learner{
		Name:         "Demo Learner",
		Email:        email,
		PasswordHash: string(hashed),
	}
	if err := learnerRepo.Create(ctx, learner); err != nil {
		log.Fatal().Err(err).Msg("Failed to create learner")
	}
	fmt.Printf("Learner '%s' ready with ID: %d\n", learner.Email, learner.ID)

	// Membership: all features, 5 tryouts, unlimited practice.
	_, err = pool.Exec(ctx,
		`INSERT INTO membership_grants
		   (learner_id, is_active, tryout_allowed, practice_allowed, cermat_allowed,
		    tryout_quota, tryout_used, practice_quota, practice_used, expires_at)
		 VALUES ($1, TRUE, TRUE, TRUE, TRUE, 5, 0, 0, 0, NOW() + INTERVAL '30 days')
		 ON CONFLICT (learner_id) DO UPDATE SET
		   is_active = TRUE, tryout_allowed = TRUE, practice_allowed = TRUE,
		   cermat_allowed = TRUE, tryout_quota = 5, tryout_used = 0,
		   expires_at = NOW() + INTERVAL '30 days'`,
		learner.ID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create membership grant")
	}
	fmt.Println("Membership grant created (30 days, 5 tryouts)")

	// Demo tryout with three questions.
	assessmentID := uuid.New()
	_, err = pool.Exec(ctx,
		`INSERT INTO assessments (id, type, slug, title, duration_minutes, is_free, is_published)
		 VALUES ($1, 'TRYOUT', 'tryout-demo', 'Tryout Demo SKD', 30, FALSE, TRUE)
		 ON CONFLICT (slug) DO NOTHING`,
		assessmentID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create assessment")
	}

	err = pool.QueryRow(ctx,
		`SELECT id FROM assessments WHERE slug = 'tryout-demo'`).Scan(&assessmentID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to look up assessment")
	}

	for i := 1; i <= 3; i++ {
		questionID := uuid.New()
		_, err = pool.Exec(ctx,
			`INSERT INTO questions (id, assessment_id, prompt, order_num)
			 VALUES ($1, $2, $3, $4)`,
			questionID, assessmentID, fmt.Sprintf("Contoh soal nomor %d", i), i)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create question")
		}
		for j := 1; j <= 4; j++ {
			_, err = pool.Exec(ctx,
				`INSERT INTO options (id, question_id, label, is_correct, order_num)
				 VALUES ($1, $2, $3, $4, $5)`,
				uuid.New(), questionID, fmt.Sprintf("Pilihan %d", j), j == 1, j)
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to create option")
			}
		}
	}
	fmt.Println("Assessment 'tryout-demo' seeded with 3 questions")

	// Default block settings: everything enabled.
	for _, key := range []string{
		config.SettingBlockPracticeEnabled,
		config.SettingBlockTryoutEnabled,
		config.SettingBlockExamEnabled,
	} {
		if err := settingRepo.Upsert(ctx, key, "true"); err != nil {
			log.Fatal().Err(err).Msg("Failed to write setting")
		}
	}
	fmt.Println("Block settings enabled")

	fmt.Println("\nDone.")
}
