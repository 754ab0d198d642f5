package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/tablecards/internal/layout/domain"
	"github.com/louisbranch/tablecards/internal/platform/otel"
	"github.com/louisbranch/tablecards/internal/services/cardlayout/storage"
)

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func intFromNull(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

// PutEpisode inserts or replaces one episode.
func (s *Store) PutEpisode(ctx context.Context, ep domain.Episode) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	ctx, span := otel.Start(ctx, "storage.PutEpisode")
	defer span.End()

	ep.ID = strings.TrimSpace(ep.ID)
	ep.CampaignID = strings.TrimSpace(ep.CampaignID)
	if ep.ID == "" || ep.CampaignID == "" {
		return fmt.Errorf("episode id and campaign id are required")
	}
	createdAt, updatedAt := stamps(ep.CreatedAt, ep.UpdatedAt)

	res, err := s.sqlDB.ExecContext(ctx, s.bind(
		`INSERT INTO episodes (
		   id, campaign_id, name, slug, episode_number, season, description,
		   air_date, runtime, is_published, created_at, updated_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		   name = excluded.name,
		   slug = excluded.slug,
		   episode_number = excluded.episode_number,
		   season = excluded.season,
		   description = excluded.description,
		   air_date = excluded.air_date,
		   runtime = excluded.runtime,
		   is_published = excluded.is_published,
		   updated_at = excluded.updated_at
		 WHERE episodes.campaign_id = excluded.campaign_id`),
		ep.ID, ep.CampaignID, ep.Name, ep.Slug, nullInt(ep.EpisodeNumber), nullInt(ep.Season), ep.Description,
		ep.AirDate, nullInt(ep.Runtime), ep.IsPublished, toMillis(createdAt), toMillis(updatedAt),
	)
	if err != nil {
		if s.uniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("put episode: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

const episodeColumns = `id, campaign_id, name, slug, episode_number, season, description,
	air_date, runtime, is_published, created_at, updated_at`

func scanEpisode(row scanner) (domain.Episode, error) {
	var ep domain.Episode
	var number, season, runtime sql.NullInt64
	var createdAt, updatedAt int64
	if err := row.Scan(
		&ep.ID, &ep.CampaignID, &ep.Name, &ep.Slug, &number, &season, &ep.Description,
		&ep.AirDate, &runtime, &ep.IsPublished, &createdAt, &updatedAt,
	); err != nil {
		return domain.Episode{}, err
	}
	ep.EpisodeNumber = intFromNull(number)
	ep.Season = intFromNull(season)
	ep.Runtime = intFromNull(runtime)
	ep.CreatedAt = fromMillis(createdAt)
	ep.UpdatedAt = fromMillis(updatedAt)
	return ep, nil
}

// GetEpisode returns one episode of a campaign.
func (s *Store) GetEpisode(ctx context.Context, campaignID, episodeID string) (domain.Episode, error) {
	if err := s.ready(ctx); err != nil {
		return domain.Episode{}, err
	}
	ctx, span := otel.Start(ctx, "storage.GetEpisode")
	defer span.End()

	row := s.sqlDB.QueryRowContext(ctx, s.bind(
		`SELECT `+episodeColumns+` FROM episodes WHERE campaign_id = ? AND id = ?`),
		strings.TrimSpace(campaignID), strings.TrimSpace(episodeID))
	ep, err := scanEpisode(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Episode{}, storage.ErrNotFound
		}
		return domain.Episode{}, fmt.Errorf("get episode: %w", err)
	}
	return ep, nil
}

// ListEpisodes returns the episodes of a campaign in season and episode
// order.
func (s *Store) ListEpisodes(ctx context.Context, campaignID string) ([]domain.Episode, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	ctx, span := otel.Start(ctx, "storage.ListEpisodes")
	defer span.End()

	rows, err := s.sqlDB.QueryContext(ctx, s.bind(
		`SELECT `+episodeColumns+` FROM episodes WHERE campaign_id = ? ORDER BY created_at ASC, id ASC`),
		strings.TrimSpace(campaignID))
	if err != nil {
		return nil, fmt.Errorf("list episodes: %w", err)
	}
	defer rows.Close()

	out := []domain.Episode{}
	for rows.Next() {
		ep, err := scanEpisode(rows)
		if err != nil {
			return nil, fmt.Errorf("list episodes: %w", err)
		}
		out = append(out, ep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list episodes: %w", err)
	}
	return domain.SortEpisodes(out), nil
}

// DeleteEpisode removes one episode and its events.
func (s *Store) DeleteEpisode(ctx context.Context, campaignID, episodeID string) (err error) {
	if err := s.ready(ctx); err != nil {
		return err
	}
	ctx, span := otel.Start(ctx, "storage.DeleteEpisode")
	defer span.End()

	campaignID = strings.TrimSpace(campaignID)
	episodeID = strings.TrimSpace(episodeID)
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete episode: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, s.bind(
		`DELETE FROM episodes WHERE campaign_id = ? AND id = ?`), campaignID, episodeID)
	if err != nil {
		return fmt.Errorf("delete episode: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete episode: %w", err)
	}
	if n == 0 {
		err = storage.ErrNotFound
		return err
	}
	if _, err = tx.ExecContext(ctx, s.bind(
		`DELETE FROM episode_events WHERE episode_id = ?`), episodeID); err != nil {
		return fmt.Errorf("delete episode events: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit delete episode: %w", err)
	}
	return nil
}

// PutEvent inserts or replaces one event.
func (s *Store) PutEvent(ctx context.Context, ev domain.Event) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	ctx, span := otel.Start(ctx, "storage.PutEvent")
	defer span.End()

	ev.ID = strings.TrimSpace(ev.ID)
	ev.EpisodeID = strings.TrimSpace(ev.EpisodeID)
	if ev.ID == "" || ev.EpisodeID == "" {
		return fmt.Errorf("event id and episode id are required")
	}
	involved := ev.CharactersInvolved
	if involved == nil {
		involved = []string{}
	}
	charactersJSON, err := json.Marshal(involved)
	if err != nil {
		return fmt.Errorf("encode involved characters: %w", err)
	}
	createdAt, updatedAt := stamps(ev.CreatedAt, ev.UpdatedAt)

	res, err := s.sqlDB.ExecContext(ctx, s.bind(
		`INSERT INTO episode_events (
		   id, episode_id, name, description, timestamp_in_episode, event_type,
		   characters_json, created_at, updated_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		   name = excluded.name,
		   description = excluded.description,
		   timestamp_in_episode = excluded.timestamp_in_episode,
		   event_type = excluded.event_type,
		   characters_json = excluded.characters_json,
		   updated_at = excluded.updated_at
		 WHERE episode_events.episode_id = excluded.episode_id`),
		ev.ID, ev.EpisodeID, ev.Name, ev.Description, nullInt(ev.TimestampInEpisode), ev.EventType,
		string(charactersJSON), toMillis(createdAt), toMillis(updatedAt),
	)
	if err != nil {
		if s.uniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("put event: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

const eventColumns = `id, episode_id, name, description, timestamp_in_episode, event_type,
	characters_json, created_at, updated_at`

func scanEvent(row scanner) (domain.Event, error) {
	var ev domain.Event
	var offset sql.NullInt64
	var charactersJSON string
	var createdAt, updatedAt int64
	if err := row.Scan(
		&ev.ID, &ev.EpisodeID, &ev.Name, &ev.Description, &offset, &ev.EventType,
		&charactersJSON, &createdAt, &updatedAt,
	); err != nil {
		return domain.Event{}, err
	}
	ev.CharactersInvolved = []string{}
	if charactersJSON != "" {
		if err := json.Unmarshal([]byte(charactersJSON), &ev.CharactersInvolved); err != nil {
			return domain.Event{}, fmt.Errorf("decode involved characters: %w", err)
		}
	}
	ev.TimestampInEpisode = intFromNull(offset)
	ev.CreatedAt = fromMillis(createdAt)
	ev.UpdatedAt = fromMillis(updatedAt)
	return ev, nil
}

// GetEvent returns one event of an episode.
func (s *Store) GetEvent(ctx context.Context, episodeID, eventID string) (domain.Event, error) {
	if err := s.ready(ctx); err != nil {
		return domain.Event{}, err
	}
	ctx, span := otel.Start(ctx, "storage.GetEvent")
	defer span.End()

	row := s.sqlDB.QueryRowContext(ctx, s.bind(
		`SELECT `+eventColumns+` FROM episode_events WHERE episode_id = ? AND id = ?`),
		strings.TrimSpace(episodeID), strings.TrimSpace(eventID))
	ev, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Event{}, storage.ErrNotFound
		}
		return domain.Event{}, fmt.Errorf("get event: %w", err)
	}
	return ev, nil
}

// ListEvents returns the events of an episode ordered by their offset, untimed
// events last.
func (s *Store) ListEvents(ctx context.Context, episodeID string) ([]domain.Event, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	ctx, span := otel.Start(ctx, "storage.ListEvents")
	defer span.End()

	rows, err := s.sqlDB.QueryContext(ctx, s.bind(
		`SELECT `+eventColumns+` FROM episode_events WHERE episode_id = ? ORDER BY created_at ASC, id ASC`),
		strings.TrimSpace(episodeID))
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	out := []domain.Event{}
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("list events: %w", err)
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return domain.SortEvents(out), nil
}

// DeleteEvent removes one event of an episode.
func (s *Store) DeleteEvent(ctx context.Context, episodeID, eventID string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	ctx, span := otel.Start(ctx, "storage.DeleteEvent")
	defer span.End()

	res, err := s.sqlDB.ExecContext(ctx, s.bind(
		`DELETE FROM episode_events WHERE episode_id = ? AND id = ?`),
		strings.TrimSpace(episodeID), strings.TrimSpace(eventID))
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}
