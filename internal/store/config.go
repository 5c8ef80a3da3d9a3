package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/crombie/crombieversario/pkg/validator"
)

// DefaultTemplate seeds the configuration row on first access.
const DefaultTemplate = `---
subject: ¡Feliz aniversario, {{nombre}}!
---
¡Hola {{nombre}}!

Hoy cumplimos un año más trabajando juntos. Gracias por todo lo que aportás al equipo de Crombie.

¡Que sean muchos más!`

// ImagePath is the image mailed for one anniversary number.
type ImagePath struct {
	AnniversaryYear int    `json:"anniversaryYear" validate:"gte=1"`
	URL             string `json:"url" validate:"required,url"`
	// Key is the object key in the bucket; empty for external URLs.
	Key string `json:"key,omitempty"`
}

// FileName is the last path segment of URL.
func (p ImagePath) FileName() string {
	raw := p.URL
	if i := strings.IndexAny(raw, "?#"); i >= 0 {
		raw = raw[:i]
	}
	return path.Base(raw)
}

// Config is the singleton dashboard configuration.
type Config struct {
	UpdatedAt       time.Time   `json:"updatedAt"`
	MessageTemplate string      `json:"messageTemplate" validate:"required,max=20000"`
	ImagePaths      []ImagePath `json:"imagePaths" validate:"dive"`
}

// named reports whether the URL file is "<AnniversaryYear>.<ext>".
func (p ImagePath) named() bool {
	name := p.FileName()
	ext := path.Ext(name)
	return ext != "" && strings.TrimSuffix(name, ext) == strconv.Itoa(p.AnniversaryYear)
}

// Image returns the entry for anniversary n. Its file is named "<n>.<ext>".
func (c Config) Image(n int) (ImagePath, bool) {
	for _, p := range c.ImagePaths {
		if p.AnniversaryYear == n && p.named() {
			return p, true
		}
	}
	return ImagePath{}, false
}

// Validate checks c before it is written. Besides the struct rules, every
// image file must be named after its anniversary and each anniversary may
// have one image.
func (c Config) Validate() error {
	if err := validator.ValidateStruct(c); err != nil {
		return errors.Join(ErrInvalid, err)
	}
	var verrs validator.ValidationErrors
	seen := make(map[int]bool, len(c.ImagePaths))
	for i, p := range c.ImagePaths {
		field := fmt.Sprintf("imagePaths[%d].", i)
		if !p.named() {
			verrs = append(verrs, validator.FieldError{
				Field:   field + "url",
				Message: fmt.Sprintf("file must be named %d.<ext>", p.AnniversaryYear),
				Tag:     "filename",
			})
		}
		if seen[p.AnniversaryYear] {
			verrs = append(verrs, validator.FieldError{
				Field:   field + "anniversaryYear",
				Message: "duplicate anniversary",
				Tag:     "unique",
			})
		}
		seen[p.AnniversaryYear] = true
	}
	if len(verrs) > 0 {
		return errors.Join(ErrInvalid, verrs)
	}
	return nil
}

const (
	seedConfigSQL = `INSERT INTO app_config (id, message_template) VALUES (true, $1) ON CONFLICT (id) DO NOTHING`

	selectConfigSQL = `SELECT message_template, image_paths, updated_at FROM app_config WHERE id`

	upsertConfigSQL = `INSERT INTO app_config (id, message_template, image_paths, updated_at)
VALUES (true, $1, $2, $3)
ON CONFLICT (id) DO UPDATE
SET message_template = EXCLUDED.message_template,
    image_paths = EXCLUDED.image_paths,
    updated_at = EXCLUDED.updated_at
RETURNING message_template, image_paths, updated_at`
)

// GetConfig returns the configuration, creating it with defaults first if the
// row does not exist yet.
func (s *Store) GetConfig(ctx context.Context) (Config, error) {
	return s.loadConfig(ctx, false)
}

func (s *Store) loadConfig(ctx context.Context, forUpdate bool) (Config, error) {
	q := s.q(ctx)
	if _, err := q.Exec(ctx, seedConfigSQL, DefaultTemplate); err != nil {
		return Config{}, fmt.Errorf("store: seed config: %w", err)
	}
	query := selectConfigSQL
	if forUpdate {
		query += " FOR UPDATE"
	}
	cfg, err := scanConfig(q.QueryRow(ctx, query))
	if err != nil {
		return Config{}, fmt.Errorf("store: load config: %w", translate(err, nil))
	}
	return cfg, nil
}

// SaveConfig validates and replaces the configuration.
func (s *Store) SaveConfig(ctx context.Context, cfg Config) (Config, error) {
	if cfg.ImagePaths == nil {
		cfg.ImagePaths = []ImagePath{}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	images, err := json.Marshal(cfg.ImagePaths)
	if err != nil {
		return Config{}, fmt.Errorf("store: encode image paths: %w", err)
	}
	saved, err := scanConfig(s.q(ctx).QueryRow(ctx, upsertConfigSQL, cfg.MessageTemplate, string(images), s.now().UTC()))
	if err != nil {
		return Config{}, fmt.Errorf("store: save config: %w", translate(err, nil))
	}
	return saved, nil
}

// SetImage stores img, replacing any entry for the same anniversary number.
func (s *Store) SetImage(ctx context.Context, img ImagePath) (Config, error) {
	var saved Config
	err := s.InTx(ctx, func(ctx context.Context) error {
		cfg, err := s.loadConfig(ctx, true)
		if err != nil {
			return err
		}
		cfg.ImagePaths = slices.DeleteFunc(cfg.ImagePaths, func(p ImagePath) bool {
			return p.AnniversaryYear == img.AnniversaryYear
		})
		cfg.ImagePaths = append(cfg.ImagePaths, img)
		saved, err = s.SaveConfig(ctx, cfg)
		return err
	})
	return saved, err
}

// RemoveImage drops the entry whose URL is url and returns it.
func (s *Store) RemoveImage(ctx context.Context, url string) (ImagePath, Config, error) {
	var (
		removed ImagePath
		saved   Config
	)
	err := s.InTx(ctx, func(ctx context.Context) error {
		cfg, err := s.loadConfig(ctx, true)
		if err != nil {
			return err
		}
		i := slices.IndexFunc(cfg.ImagePaths, func(p ImagePath) bool { return p.URL == url })
		if i < 0 {
			return ErrNotFound
		}
		removed = cfg.ImagePaths[i]
		cfg.ImagePaths = slices.Delete(cfg.ImagePaths, i, i+1)
		saved, err = s.SaveConfig(ctx, cfg)
		return err
	})
	if err != nil {
		return ImagePath{}, Config{}, err
	}
	return removed, saved, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanConfig(row scanner) (Config, error) {
	var (
		cfg    Config
		images []byte
	)
	if err := row.Scan(&cfg.MessageTemplate, &images, &cfg.UpdatedAt); err != nil {
		return Config{}, err
	}
	cfg.ImagePaths = []ImagePath{}
	if len(images) > 0 {
		if err := json.Unmarshal(images, &cfg.ImagePaths); err != nil {
			return Config{}, fmt.Errorf("decode image paths: %w", err)
		}
	}
	return cfg, nil
}
