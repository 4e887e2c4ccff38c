package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/learnhub-backend/internal/config"
	"github.com/stemsi/learnhub-backend/internal/database"
	"github.com/stemsi/learnhub-backend/internal/logger"
	"github.com/stemsi/learnhub-backend/internal/model"
	"github.com/stemsi/learnhub-backend/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// Demo accounts all share this password.
const demoPassword = "learnhub-demo"

func main() {
	var students int
	flag.IntVar(&students, "students", 20, "Number of demo students to enroll")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	userRepo := repository.NewUserRepository(pool)
	courseRepo := repository.NewCourseRepository(pool)
	moduleRepo := repository.NewModuleRepository(pool)
	lessonRepo := repository.NewLessonRepository(pool)
	enrollmentRepo := repository.NewEnrollmentRepository(pool)

	hash, err := bcrypt.GenerateFromPassword([]byte(demoPassword), cfg.BcryptCost)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash password")
	}

	fmt.Println("=== Seeding Demo Course ===")

	instructor, err := findOrCreateUser(ctx, userRepo, &model.User{
		Email:         "instructor@learnhub.local",
		Name:          "Demo Instructor",
		PasswordHash:  string(hash),
		Role:          model.RoleInstructor,
		EmailVerified: true,
		IsActive:      true,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create instructor")
	}

	course := &model.Course{
		InstructorID: instructor.ID,
		Title:        "Getting Started with Go",
		Slug:         "getting-started-with-go-" + strings.Split(uuid.NewString(), "-")[0],
		Description:  "A short tour of the Go language for backend developers.",
		Category:     "programming",
		Level:        model.CourseLevelBeginner,
		Currency:     "USD",
		Status:       model.CourseStatusDraft,
	}
	if err := courseRepo.Create(ctx, course); err != nil {
		log.Fatal().Err(err).Msg("Failed to create course")
	}
	fmt.Printf("Created course %q (%s)\n", course.Title, course.ID)

	outline := map[string][]string{
		"Basics":      {"Installing Go", "Packages and modules", "Types and zero values"},
		"Concurrency": {"Goroutines", "Channels", "Context cancellation"},
	}
	for _, title := range []string{"Basics", "Concurrency"} {
		m := &model.Module{CourseID: course.ID, Title: title, Position: -1}
		if err := moduleRepo.Create(ctx, m); err != nil {
			log.Fatal().Err(err).Str("module", title).Msg("Failed to create module")
		}
		for i, lessonTitle := range outline[title] {
			l := &model.Lesson{
				ModuleID:        m.ID,
				CourseID:        course.ID,
				Title:           lessonTitle,
				Content:         "# " + lessonTitle + "\n\nLesson notes go here.",
				DurationMinutes: 10,
				Position:        -1,
				IsPreview:       title == "Basics" && i == 0,
			}
			if err := lessonRepo.Create(ctx, l); err != nil {
				log.Fatal().Err(err).Str("lesson", lessonTitle).Msg("Failed to create lesson")
			}
		}
	}

	if err := courseRepo.UpdateStatus(ctx, course.ID, model.CourseStatusPublished); err != nil {
		log.Fatal().Err(err).Msg("Failed to publish course")
	}

	successCount := 0
	for i := 0; i < students; i++ {
		student, err := findOrCreateUser(ctx, userRepo, &model.User{
			Email:         fmt.Sprintf("student%02d@learnhub.local", i+1),
			Name:          fmt.Sprintf("Demo Student %02d", i+1),
			PasswordHash:  string(hash),
			Role:          model.RoleStudent,
			EmailVerified: true,
			IsActive:      true,
		})
		if err != nil {
			fmt.Printf("Error creating student %d: %v\n", i+1, err)
			continue
		}
		if _, err := enrollmentRepo.Upsert(ctx, student.ID, course.ID, nil); err != nil {
			fmt.Printf("Error enrolling %s: %v\n", student.Email, err)
			continue
		}
		successCount++
		if (i+1)%10 == 0 {
			fmt.Printf("Enrolled %d students...\n", i+1)
		}
	}

	fmt.Printf("\nSeed completed! Enrolled %d/%d students. Password for all demo accounts: %s\n", successCount, students, demoPassword)
}

func findOrCreateUser(ctx context.Context, users *repository.UserRepository, u *model.User) (*model.User, error) {
	existing, err := users.GetByEmail(ctx, u.Email)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if err := users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}
