// Package sqlstore implements the card layout storage contracts over
// database/sql. The SQLite and Postgres backends share it and differ only in
// bind parameters and constraint error detection.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/louisbranch/tablecards/internal/layout/badge"
	"github.com/louisbranch/tablecards/internal/layout/domain"
	"github.com/louisbranch/tablecards/internal/platform/otel"
	"github.com/louisbranch/tablecards/internal/platform/storage/migrate"
	"github.com/louisbranch/tablecards/internal/services/cardlayout/storage"
)

// Store persists card layout service state in a SQL database.
type Store struct {
	sqlDB           *sql.DB
	dialect         migrate.Dialect
	uniqueViolation func(error) bool
}

// New wraps an open, migrated database. uniqueViolation reports whether an
// error is a unique or primary key constraint failure.
func New(sqlDB *sql.DB, dialect migrate.Dialect, uniqueViolation func(error) bool) *Store {
	if uniqueViolation == nil {
		uniqueViolation = func(error) bool { return false }
	}
	return &Store{sqlDB: sqlDB, dialect: dialect, uniqueViolation: uniqueViolation}
}

// DB returns the underlying database handle.
func (s *Store) DB() *sql.DB {
	return s.sqlDB
}

// Close closes the database handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// bind rewrites ? placeholders for the store dialect.
func (s *Store) bind(query string) string {
	if s.dialect.Name != migrate.Postgres.Name {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return nil
}

func stamps(createdAt, updatedAt time.Time) (time.Time, time.Time) {
	createdAt = createdAt.UTC()
	updatedAt = updatedAt.UTC()
	switch {
	case createdAt.IsZero() && updatedAt.IsZero():
		createdAt = time.Now().UTC()
		updatedAt = createdAt
	case createdAt.IsZero():
		createdAt = updatedAt
	case updatedAt.IsZero():
		updatedAt = createdAt
	}
	return createdAt, updatedAt
}

type scanner interface {
	Scan(dest ...any) error
}

// CreateCampaign inserts one campaign.
func (s *Store) CreateCampaign(ctx context.Context, c domain.Campaign) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	ctx, span := otel.Start(ctx, "storage.CreateCampaign")
	defer span.End()

	c.ID = strings.TrimSpace(c.ID)
	c.Slug = strings.TrimSpace(c.Slug)
	if c.ID == "" || c.Slug == "" {
		return fmt.Errorf("campaign id and slug are required")
	}
	createdAt, updatedAt := stamps(c.CreatedAt, c.UpdatedAt)
	_, err := s.sqlDB.ExecContext(ctx, s.bind(
		`INSERT INTO campaigns (id, name, slug, description, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`),
		c.ID, c.Name, c.Slug, c.Description, toMillis(createdAt), toMillis(updatedAt),
	)
	if err != nil {
		if s.uniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("create campaign: %w", err)
	}
	return nil
}

const campaignColumns = `id, name, slug, description, created_at, updated_at`

func scanCampaign(row scanner) (domain.Campaign, error) {
	var c domain.Campaign
	var createdAt, updatedAt int64
	if err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &createdAt, &updatedAt); err != nil {
		return domain.Campaign{}, err
	}
	c.CreatedAt = fromMillis(createdAt)
	c.UpdatedAt = fromMillis(updatedAt)
	return c, nil
}

// GetCampaign returns one campaign by ID.
func (s *Store) GetCampaign(ctx context.Context, campaignID string) (domain.Campaign, error) {
	return s.getCampaign(ctx, "storage.GetCampaign", "id", campaignID)
}

// GetCampaignBySlug returns one campaign by its public slug.
func (s *Store) GetCampaignBySlug(ctx context.Context, slug string) (domain.Campaign, error) {
	return s.getCampaign(ctx, "storage.GetCampaignBySlug", "slug", slug)
}

func (s *Store) getCampaign(ctx context.Context, spanName, column, value string) (domain.Campaign, error) {
	if err := s.ready(ctx); err != nil {
		return domain.Campaign{}, err
	}
	ctx, span := otel.Start(ctx, spanName)
	defer span.End()

	value = strings.TrimSpace(value)
	if value == "" {
		return domain.Campaign{}, fmt.Errorf("campaign %s is required", column)
	}
	row := s.sqlDB.QueryRowContext(ctx, s.bind(
		`SELECT `+campaignColumns+` FROM campaigns WHERE `+column+` = ?`), value)
	c, err := scanCampaign(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Campaign{}, storage.ErrNotFound
		}
		return domain.Campaign{}, fmt.Errorf("get campaign: %w", err)
	}
	return c, nil
}

// ListCampaigns returns every campaign ordered by name.
func (s *Store) ListCampaigns(ctx context.Context) ([]domain.Campaign, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	ctx, span := otel.Start(ctx, "storage.ListCampaigns")
	defer span.End()

	rows, err := s.sqlDB.QueryContext(ctx, `SELECT `+campaignColumns+` FROM campaigns ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	defer rows.Close()

	out := []domain.Campaign{}
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("list campaigns: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	return out, nil
}

// PutCharacter inserts or replaces one character.
func (s *Store) PutCharacter(ctx context.Context, ch domain.Character) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	ctx, span := otel.Start(ctx, "storage.PutCharacter")
	defer span.End()

	ch.ID = strings.TrimSpace(ch.ID)
	ch.CampaignID = strings.TrimSpace(ch.CampaignID)
	if ch.ID == "" || ch.CampaignID == "" {
		return fmt.Errorf("character id and campaign id are required")
	}
	stats := ch.Stats
	if stats == nil {
		stats = map[string]int{}
	}
	statsJSON, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("encode character stats: %w", err)
	}
	var overrideJSON sql.NullString
	if ch.ThemeOverride != nil {
		data, err := json.Marshal(ch.ThemeOverride)
		if err != nil {
			return fmt.Errorf("encode theme override: %w", err)
		}
		overrideJSON = sql.NullString{String: string(data), Valid: true}
	}
	createdAt, updatedAt := stamps(ch.CreatedAt, ch.UpdatedAt)

	res, err := s.sqlDB.ExecContext(ctx, s.bind(
		`INSERT INTO characters (
		   id, campaign_id, name, slug, class_name, race, player_name,
		   level, is_active, image_url, stats_json, theme_override_json,
		   created_at, updated_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		   name = excluded.name,
		   slug = excluded.slug,
		   class_name = excluded.class_name,
		   race = excluded.race,
		   player_name = excluded.player_name,
		   level = excluded.level,
		   is_active = excluded.is_active,
		   image_url = excluded.image_url,
		   stats_json = excluded.stats_json,
		   theme_override_json = excluded.theme_override_json,
		   updated_at = excluded.updated_at
		 WHERE characters.campaign_id = excluded.campaign_id`),
		ch.ID, ch.CampaignID, ch.Name, ch.Slug, ch.ClassName, ch.Race, ch.PlayerName,
		ch.Level, ch.IsActive, ch.ImageURL, string(statsJSON), overrideJSON,
		toMillis(createdAt), toMillis(updatedAt),
	)
	if err != nil {
		if s.uniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("put character: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

const characterColumns = `id, campaign_id, name, slug, class_name, race, player_name,
	level, is_active, image_url, stats_json, theme_override_json, created_at, updated_at`

func scanCharacter(row scanner) (domain.Character, error) {
	var ch domain.Character
	var statsJSON string
	var overrideJSON sql.NullString
	var createdAt, updatedAt int64
	if err := row.Scan(
		&ch.ID, &ch.CampaignID, &ch.Name, &ch.Slug, &ch.ClassName, &ch.Race, &ch.PlayerName,
		&ch.Level, &ch.IsActive, &ch.ImageURL, &statsJSON, &overrideJSON, &createdAt, &updatedAt,
	); err != nil {
		return domain.Character{}, err
	}
	ch.Stats = map[string]int{}
	if err := json.Unmarshal([]byte(statsJSON), &ch.Stats); err != nil {
		return domain.Character{}, fmt.Errorf("decode character stats: %w", err)
	}
	if overrideJSON.Valid && overrideJSON.String != "" {
		var override domain.ColorTheme
		if err := json.Unmarshal([]byte(overrideJSON.String), &override); err != nil {
			return domain.Character{}, fmt.Errorf("decode theme override: %w", err)
		}
		ch.ThemeOverride = &override
	}
	ch.CreatedAt = fromMillis(createdAt)
	ch.UpdatedAt = fromMillis(updatedAt)
	return ch, nil
}

// GetCharacter returns one character of a campaign.
func (s *Store) GetCharacter(ctx context.Context, campaignID, characterID string) (domain.Character, error) {
	if err := s.ready(ctx); err != nil {
		return domain.Character{}, err
	}
	ctx, span := otel.Start(ctx, "storage.GetCharacter")
	defer span.End()

	row := s.sqlDB.QueryRowContext(ctx, s.bind(
		`SELECT `+characterColumns+` FROM characters WHERE campaign_id = ? AND id = ?`),
		strings.TrimSpace(campaignID), strings.TrimSpace(characterID))
	ch, err := scanCharacter(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Character{}, storage.ErrNotFound
		}
		return domain.Character{}, fmt.Errorf("get character: %w", err)
	}
	return ch, nil
}

// ListCharacters returns the characters of a campaign ordered by name.
func (s *Store) ListCharacters(ctx context.Context, campaignID string) ([]domain.Character, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	ctx, span := otel.Start(ctx, "storage.ListCharacters")
	defer span.End()

	rows, err := s.sqlDB.QueryContext(ctx, s.bind(
		`SELECT `+characterColumns+` FROM characters WHERE campaign_id = ? ORDER BY name ASC, id ASC`),
		strings.TrimSpace(campaignID))
	if err != nil {
		return nil, fmt.Errorf("list characters: %w", err)
	}
	defer rows.Close()

	out := []domain.Character{}
	for rows.Next() {
		ch, err := scanCharacter(rows)
		if err != nil {
			return nil, fmt.Errorf("list characters: %w", err)
		}
		out = append(out, ch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list characters: %w", err)
	}
	return out, nil
}

// PutLayout inserts or replaces one layout. Saving a default layout clears
// the default flag of every other layout in the campaign in the same
// transaction.
func (s *Store) PutLayout(ctx context.Context, l domain.CardLayout) (err error) {
	if err := s.ready(ctx); err != nil {
		return err
	}
	ctx, span := otel.Start(ctx, "storage.PutLayout")
	defer span.End()

	l.ID = strings.TrimSpace(l.ID)
	l.CampaignID = strings.TrimSpace(l.CampaignID)
	if l.ID == "" || l.CampaignID == "" {
		return fmt.Errorf("layout id and campaign id are required")
	}
	statsJSON, err := json.Marshal(nonNilStats(l.Stats))
	if err != nil {
		return fmt.Errorf("encode layout stats: %w", err)
	}
	badgesJSON, err := json.Marshal(badge.CloneBadges(l.Badges))
	if err != nil {
		return fmt.Errorf("encode layout badges: %w", err)
	}
	themeJSON, err := json.Marshal(l.ColorTheme)
	if err != nil {
		return fmt.Errorf("encode layout theme: %w", err)
	}
	createdAt, updatedAt := stamps(l.CreatedAt, l.UpdatedAt)

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin put layout: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if l.IsDefault {
		if _, err = tx.ExecContext(ctx, s.bind(
			`UPDATE card_layouts SET is_default = ? WHERE campaign_id = ? AND id <> ?`),
			false, l.CampaignID, l.ID); err != nil {
			return fmt.Errorf("clear default layout: %w", err)
		}
	}
	res, err := tx.ExecContext(ctx, s.bind(
		`INSERT INTO card_layouts (
		   id, campaign_id, name, is_default, card_type, image_width_percent,
		   image_aspect_ratio, background_image_url, border_color_count, color_preset,
		   stats_json, badges_json, theme_json, created_at, updated_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		   name = excluded.name,
		   is_default = excluded.is_default,
		   card_type = excluded.card_type,
		   image_width_percent = excluded.image_width_percent,
		   image_aspect_ratio = excluded.image_aspect_ratio,
		   background_image_url = excluded.background_image_url,
		   border_color_count = excluded.border_color_count,
		   color_preset = excluded.color_preset,
		   stats_json = excluded.stats_json,
		   badges_json = excluded.badges_json,
		   theme_json = excluded.theme_json,
		   updated_at = excluded.updated_at
		 WHERE card_layouts.campaign_id = excluded.campaign_id`),
		l.ID, l.CampaignID, l.Name, l.IsDefault, string(l.CardType), l.ImageWidthPercent,
		string(l.ImageAspectRatio), l.BackgroundImageURL, l.BorderColorCount, l.ColorPreset,
		string(statsJSON), string(badgesJSON), string(themeJSON),
		toMillis(createdAt), toMillis(updatedAt),
	)
	if err != nil {
		if s.uniqueViolation(err) {
			err = storage.ErrAlreadyExists
			return err
		}
		return fmt.Errorf("put layout: %w", err)
	}
	if n, rowsErr := res.RowsAffected(); rowsErr == nil && n == 0 {
		err = storage.ErrNotFound
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit put layout: %w", err)
	}
	return nil
}

func nonNilStats(stats []badge.Stat) []badge.Stat {
	if stats == nil {
		return []badge.Stat{}
	}
	return stats
}

const layoutColumns = `id, campaign_id, name, is_default, card_type, image_width_percent,
	image_aspect_ratio, background_image_url, border_color_count, color_preset,
	stats_json, badges_json, theme_json, created_at, updated_at`

func scanLayout(row scanner) (domain.CardLayout, error) {
	var l domain.CardLayout
	var cardType, aspect string
	var statsJSON, badgesJSON, themeJSON string
	var createdAt, updatedAt int64
	if err := row.Scan(
		&l.ID, &l.CampaignID, &l.Name, &l.IsDefault, &cardType, &l.ImageWidthPercent,
		&aspect, &l.BackgroundImageURL, &l.BorderColorCount, &l.ColorPreset,
		&statsJSON, &badgesJSON, &themeJSON, &createdAt, &updatedAt,
	); err != nil {
		return domain.CardLayout{}, err
	}
	l.CardType = domain.CardType(cardType)
	l.ImageAspectRatio = domain.AspectRatio(aspect)
	if err := json.Unmarshal([]byte(statsJSON), &l.Stats); err != nil {
		return domain.CardLayout{}, fmt.Errorf("decode layout stats: %w", err)
	}
	if err := json.Unmarshal([]byte(badgesJSON), &l.Badges); err != nil {
		return domain.CardLayout{}, fmt.Errorf("decode layout badges: %w", err)
	}
	if err := json.Unmarshal([]byte(themeJSON), &l.ColorTheme); err != nil {
		return domain.CardLayout{}, fmt.Errorf("decode layout theme: %w", err)
	}
	l.Stats = nonNilStats(l.Stats)
	l.Badges = badge.CloneBadges(l.Badges)
	l.CreatedAt = fromMillis(createdAt)
	l.UpdatedAt = fromMillis(updatedAt)
	return l, nil
}

// GetLayout returns one layout of a campaign.
func (s *Store) GetLayout(ctx context.Context, campaignID, layoutID string) (domain.CardLayout, error) {
	if err := s.ready(ctx); err != nil {
		return domain.CardLayout{}, err
	}
	ctx, span := otel.Start(ctx, "storage.GetLayout")
	defer span.End()

	row := s.sqlDB.QueryRowContext(ctx, s.bind(
		`SELECT `+layoutColumns+` FROM card_layouts WHERE campaign_id = ? AND id = ?`),
		strings.TrimSpace(campaignID), strings.TrimSpace(layoutID))
	return s.layoutResult(row, "get layout")
}

// GetDefaultLayout returns the default layout of a campaign.
func (s *Store) GetDefaultLayout(ctx context.Context, campaignID string) (domain.CardLayout, error) {
	if err := s.ready(ctx); err != nil {
		return domain.CardLayout{}, err
	}
	ctx, span := otel.Start(ctx, "storage.GetDefaultLayout")
	defer span.End()

	row := s.sqlDB.QueryRowContext(ctx, s.bind(
		`SELECT `+layoutColumns+` FROM card_layouts WHERE campaign_id = ? AND is_default = ?`),
		strings.TrimSpace(campaignID), true)
	return s.layoutResult(row, "get default layout")
}

func (s *Store) layoutResult(row *sql.Row, op string) (domain.CardLayout, error) {
	l, err := scanLayout(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.CardLayout{}, storage.ErrNotFound
		}
		return domain.CardLayout{}, fmt.Errorf("%s: %w", op, err)
	}
	return l, nil
}

// ListLayouts returns the layouts of a campaign, default first, then by name.
func (s *Store) ListLayouts(ctx context.Context, campaignID string) ([]domain.CardLayout, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	ctx, span := otel.Start(ctx, "storage.ListLayouts")
	defer span.End()

	rows, err := s.sqlDB.QueryContext(ctx, s.bind(
		`SELECT `+layoutColumns+` FROM card_layouts WHERE campaign_id = ?
		 ORDER BY is_default DESC, name ASC, id ASC`),
		strings.TrimSpace(campaignID))
	if err != nil {
		return nil, fmt.Errorf("list layouts: %w", err)
	}
	defer rows.Close()

	out := []domain.CardLayout{}
	for rows.Next() {
		l, err := scanLayout(rows)
		if err != nil {
			return nil, fmt.Errorf("list layouts: %w", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list layouts: %w", err)
	}
	return out, nil
}

// DeleteLayout removes one layout of a campaign.
func (s *Store) DeleteLayout(ctx context.Context, campaignID, layoutID string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	ctx, span := otel.Start(ctx, "storage.DeleteLayout")
	defer span.End()

	res, err := s.sqlDB.ExecContext(ctx, s.bind(
		`DELETE FROM card_layouts WHERE campaign_id = ? AND id = ?`),
		strings.TrimSpace(campaignID), strings.TrimSpace(layoutID))
	if err != nil {
		return fmt.Errorf("delete layout: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete layout: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

var _ storage.Store = (*Store)(nil)
