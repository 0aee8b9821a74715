package main

import "github.com/ilyakaznacheev/cleanenv"

type (
	ServiceConfig struct {
		Environment string `env:"ENVIRONMENT" env-default:"development"`
		Port        int    `env:"PORT" env-default:"8080"`

		SentryDSN string `env:"SENTRY_DSN"`

		// At most one archive backend is used: a bucket URL wins over a
		// local badger path, and with neither set archiving is disabled.
		ArchiveBucketURL  string `env:"ARCHIVE_BUCKET_URL"`
		ArchiveBadgerPath string `env:"ARCHIVE_BADGER_PATH"`
	}
)

func readConfig() (ServiceConfig, error) {
	var c ServiceConfig
	err := cleanenv.ReadEnv(&c)
	return c, err
}
