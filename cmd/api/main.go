package main

import (
	"context"
	"log"
	"time"

	"streamapi/internal/config"
	"streamapi/internal/database"
	"streamapi/internal/domain/credential"
	"streamapi/internal/domain/email"
	"streamapi/internal/domain/upload"
	"streamapi/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	if err := database.Migrate(db, &credential.ApplicationPassword{}, &upload.Upload{}); err != nil {
		log.Fatalf("migrate failed: %v", err)
	}

	credentialService := credential.NewService(credential.NewRepository(db), cfg.BcryptCost)

	storage, staticRoot, err := newStorage(cfg)
	if err != nil {
		log.Fatal(err)
	}
	uploadService := upload.NewService(storage, upload.NewRepository(db), cfg.Storage.BlockedExtensions)
	uploadHandler := upload.NewHandler(uploadService, cfg.Storage.MaxUploadBytes, cfg.Storage.MaxMemoryBytes)

	emailService := email.NewService(newMailer(cfg))
	emailHandler := email.NewHandler(emailService, email.NewPipeline(cfg.SiteHost()))

	deps := server.Deps{
		APIPrefix:   cfg.APIPrefix,
		CORSOrigins: cfg.CORSAllowedOrigins,
		Credentials: credentialService,
		Upload:      uploadHandler,
		Email:       emailHandler,
	}
	if staticRoot != "" {
		deps.StaticPath = server.StaticPath(cfg.Storage.PublicURL)
		deps.StaticRoot = staticRoot
	}

	r := server.New(deps)

	log.Printf("stream api listening on :%s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}

// newStorage returns the configured backend and, for local storage, the
// directory to serve publicly.
func newStorage(cfg *config.Config) (upload.Storage, string, error) {
	if cfg.Storage.Driver == config.StorageS3 {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		s3Storage, err := upload.NewS3Storage(ctx, upload.S3Options{
			Endpoint:   cfg.Storage.S3.Endpoint,
			Region:     cfg.Storage.S3.Region,
			Bucket:     cfg.Storage.S3.Bucket,
			AccessKey:  cfg.Storage.S3.AccessKey,
			SecretKey:  cfg.Storage.S3.SecretKey,
			PublicBase: cfg.Storage.PublicURL,
		})
		if err != nil {
			return nil, "", err
		}
		return s3Storage, "", nil
	}

	local := upload.NewLocalStorage(cfg.Storage.Root, cfg.Storage.PublicURL)
	return local, local.Root(), nil
}

func newMailer(cfg *config.Config) email.Mailer {
	if cfg.Mail.Host == "" {
		log.Printf("SMTP_HOST is empty, emails will be logged instead of sent")
		return email.LogMailer{}
	}
	return email.NewSMTPMailer(email.SMTPConfig{
		Host:     cfg.Mail.Host,
		Port:     cfg.Mail.Port,
		Username: cfg.Mail.Username,
		Password: cfg.Mail.Password,
		TLS:      email.TLSMode(cfg.Mail.TLS),
		From:     cfg.Mail.From,
		FromName: cfg.Mail.FromName,
		Timeout:  cfg.Mail.Timeout,
	})
}
