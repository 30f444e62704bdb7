package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hackgods/medischedule/internal/appointment"
	"github.com/hackgods/medischedule/internal/catalog"
	"github.com/hackgods/medischedule/internal/config"
	"github.com/hackgods/medischedule/internal/db"
	"github.com/hackgods/medischedule/pkg/logger"
)

// catalogWriter is the write side of *catalog.PgDirectory.
type catalogWriter interface {
	UpsertPatient(ctx context.Context, p catalog.Patient) error
	UpsertSpecialty(ctx context.Context, s catalog.Specialty) error
	UpsertProfessional(ctx context.Context, p catalog.Professional) error
}

func main() {
	cmd := &cobra.Command{
		Use:          "seed",
		Short:        "Load the demo clinic into Postgres",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			extra, _ := cmd.Flags().GetInt("patients")
			return run(extra)
		},
	}
	cmd.Flags().Int("patients", 0, "extra fake patients to add on top of the demo clinic")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(extra int) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync()

	if !cfg.UsePostgres() {
		return errors.New("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN, cfg.PostgresMaxConn)
	if err != nil {
		return err
	}
	defer pool.Close()

	now := time.Now()
	dir := catalog.NewPgDirectory(pool)
	repo := appointment.NewPgRepository(pool)

	if err := seedCatalog(ctx, dir, catalog.Seed(now), log); err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}
	n, err := seedAppointments(ctx, repo, appointment.Seed(now))
	if err != nil {
		return fmt.Errorf("seed appointments: %w", err)
	}
	log.Info("appointments seeded", zap.Int("inserted", n))

	if extra > 0 {
		if err := seedFakePatients(ctx, dir, gofakeit.New(uint64(now.UnixNano())), extra); err != nil {
			return fmt.Errorf("seed fake patients: %w", err)
		}
		log.Info("fake patients seeded", zap.Int("count", extra))
	}

	log.Info("seed complete")
	return nil
}

// seedCatalog upserts, so running it twice leaves one copy of each row.
func seedCatalog(ctx context.Context, dir catalogWriter, data catalog.Data, log *zap.Logger) error {
	for _, s := range data.Specialties {
		if err := dir.UpsertSpecialty(ctx, s); err != nil {
			return err
		}
	}
	for _, p := range data.Professionals {
		if err := dir.UpsertProfessional(ctx, p); err != nil {
			return err
		}
	}
	for _, p := range data.Patients {
		if err := dir.UpsertPatient(ctx, p); err != nil {
			return err
		}
	}
	log.Info("catalog seeded",
		zap.Int("specialties", len(data.Specialties)),
		zap.Int("professionals", len(data.Professionals)),
		zap.Int("patients", len(data.Patients)),
	)
	return nil
}

// seedAppointments skips ids already stored; seed ids are stable across runs.
func seedAppointments(ctx context.Context, repo appointment.Repository, appts []appointment.Appointment) (int, error) {
	inserted := 0
	for _, a := range appts {
		_, err := repo.GetByID(ctx, a.ID)
		if err == nil {
			continue
		}
		if !errors.Is(err, appointment.ErrAppointmentNotFound) {
			return inserted, err
		}
		if err := appointment.Load(ctx, repo, []appointment.Appointment{a}); err != nil {
			return inserted, err
		}
		inserted++
	}
	return inserted, nil
}

func seedFakePatients(ctx context.Context, dir catalogWriter, faker *gofakeit.Faker, count int) error {
	for i := 0; i < count; i++ {
		email := faker.Email()
		phone := faker.Phone()
		doc := fmt.Sprintf("%08d%s", faker.Number(0, 99999999), faker.LetterN(1))
		p := catalog.Patient{
			ID:       fmt.Sprintf("fake-%s", faker.UUID()),
			Name:     faker.Name(),
			Document: &doc,
			Email:    &email,
			Phone:    &phone,
		}
		if err := dir.UpsertPatient(ctx, p); err != nil {
			return err
		}
	}
	return nil
}
