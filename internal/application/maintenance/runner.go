// Package maintenance applies one-off data corrections read from CSV files in object storage.
package maintenance

import (
	"context"
	"errors"
	"fmt"

	"datahub-backend/internal/infrastructure/storage"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Options control a run.
type Options struct {
	// Simulate performs every change and then rolls it back.
	Simulate bool
	// Overwrite lets commands replace values that are already set.
	Overwrite bool
}

// Command processes one CSV row inside its own transaction.
// It reports whether the row changed anything.
type Command struct {
	Name    string
	Process func(tx *gorm.DB, row storage.Row, opts Options) (bool, error)
}

// Result counts the rows of a run.
type Result struct {
	Rows    int `json:"rows"`
	Updated int `json:"updated"`
	Failed  int `json:"failed"`
}

type Runner struct {
	DB     *gorm.DB
	Reader storage.ObjectReader
}

var errSimulated = errors.New("simulated")

// Run reads bucket/key and processes every row independently. Failing rows are
// logged and skipped.
func (r *Runner) Run(ctx context.Context, cmd Command, bucket, key string, opts Options) (Result, error) {
	rows, err := storage.ReadCSV(ctx, r.Reader, bucket, key)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", cmd.Name, err)
	}

	var res Result
	for _, row := range rows {
		res.Rows++
		var changed bool
		err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var err error
			if changed, err = cmd.Process(tx, row, opts); err != nil {
				return err
			}
			if opts.Simulate {
				return errSimulated
			}
			return nil
		})
		if err != nil && !errors.Is(err, errSimulated) {
			res.Failed++
			log.Error().Err(err).Str("command", cmd.Name).Str("id", row["id"]).Msg("row failed")
			continue
		}
		if changed {
			res.Updated++
		}
	}

	log.Info().
		Str("command", cmd.Name).
		Bool("simulate", opts.Simulate).
		Int("rows", res.Rows).
		Int("updated", res.Updated).
		Int("failed", res.Failed).
		Msg("maintenance run finished")
	return res, nil
}
