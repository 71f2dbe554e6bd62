package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/anhnhh24/DriverLicenseTest/internal/config"
	"github.com/anhnhh24/DriverLicenseTest/internal/database"
	"github.com/anhnhh24/DriverLicenseTest/internal/logger"
	"github.com/anhnhh24/DriverLicenseTest/internal/model"
	"github.com/anhnhh24/DriverLicenseTest/internal/repository"
	"github.com/jackc/pgx/v5"
	"golang.org/x/sync/errgroup"
)

type seedCounts struct {
	categories, licenses, questions, skipped, signs int
}

func main() {
	flag.Parse()
	paths := flag.Args()
	if len(paths) == 0 {
		paths = []string{"seeds/catalog.yaml"}
	}

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	// ─── Load Seed Files ───────────────────────────────────────────────
	files := make([]*catalogFile, len(paths))
	g, _ := errgroup.WithContext(ctx)
	for i, path := range paths {
		g.Go(func() error {
			f, err := loadCatalogFile(path)
			files[i] = f
			return err
		})
	}
	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("Failed to load seed files")
	}

	catalog := mergeCatalogs(files)
	if err := catalog.validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid seed data")
	}

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	var counts seedCounts
	err = database.NewTxManager(pool).WithTx(ctx, func(ctx context.Context) error {
		var err error
		counts, err = seed(ctx, pool, catalog)
		return err
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Seeding failed, nothing was written")
	}

	log.Info().
		Int("categories", counts.categories).
		Int("license_types", counts.licenses).
		Int("questions", counts.questions).
		Int("questions_skipped", counts.skipped).
		Int("traffic_signs", counts.signs).
		Msg("Catalog seeded")
}

// seed writes the catalog. It must run inside a transaction.
func seed(ctx context.Context, db database.DBTX, c *catalogFile) (seedCounts, error) {
	var counts seedCounts
	categoryRepo := repository.NewCategoryRepository(db)
	licenseRepo := repository.NewLicenseTypeRepository(db)
	questionRepo := repository.NewQuestionRepository(db)
	signRepo := repository.NewTrafficSignRepository(db)

	categoryIDs := make(map[string]int64, len(c.Categories))
	for _, sc := range c.Categories {
		cat := &model.Category{Name: sc.Name, Description: optional(sc.Description), OrderIndex: sc.OrderIndex}
		if err := categoryRepo.Upsert(ctx, cat); err != nil {
			return counts, fmt.Errorf("category %q: %w", sc.Name, err)
		}
		categoryIDs[sc.Name] = cat.ID
		counts.categories++
	}

	licenseIDs := make(map[string]int64, len(c.LicenseTypes))
	for _, sl := range c.LicenseTypes {
		lt := &model.LicenseType{
			Code:                strings.ToUpper(strings.TrimSpace(sl.Code)),
			Name:                sl.Name,
			VehicleType:         optional(sl.VehicleType),
			TotalQuestions:      sl.TotalQuestions,
			TimeLimit:           sl.TimeLimit,
			PassingScore:        sl.PassingScore,
			RequiredElimination: sl.RequiredElimination,
		}
		if err := licenseRepo.Upsert(ctx, lt); err != nil {
			return counts, fmt.Errorf("license type %s: %w", lt.Code, err)
		}
		licenseIDs[lt.Code] = lt.ID
		counts.licenses++
	}

	for _, sq := range c.Questions {
		// Existing questions may already be referenced by exams; leave them.
		if _, err := questionRepo.GetByNumber(ctx, sq.Number); err == nil {
			counts.skipped++
			continue
		} else if !errors.Is(err, pgx.ErrNoRows) {
			return counts, fmt.Errorf("question %d: %w", sq.Number, err)
		}

		ids := make([]int64, 0, len(sq.Licenses))
		for _, code := range sq.Licenses {
			ids = append(ids, licenseIDs[strings.ToUpper(code)])
		}
		if err := questionRepo.Create(ctx, sq.toQuestion(categoryIDs[sq.Category], ids)); err != nil {
			return counts, fmt.Errorf("question %d: %w", sq.Number, err)
		}
		counts.questions++
	}

	for _, ss := range c.TrafficSigns {
		st, _ := signType(ss.Type)
		sign := &model.TrafficSign{
			Code:        ss.Code,
			Name:        ss.Name,
			Description: optional(ss.Description),
			ImageURL:    optional(ss.ImageURL),
			SignType:    st,
			Meaning:     optional(ss.Meaning),
			IsActive:    true,
		}
		if ss.Category != "" {
			id := categoryIDs[ss.Category]
			sign.CategoryID = &id
		}
		if err := signRepo.Upsert(ctx, sign); err != nil {
			return counts, fmt.Errorf("traffic sign %s: %w", ss.Code, err)
		}
		counts.signs++
	}
	return counts, nil
}
