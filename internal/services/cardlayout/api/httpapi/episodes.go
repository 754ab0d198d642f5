package httpapi

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/louisbranch/tablecards/internal/layout/domain"
	apperrors "github.com/louisbranch/tablecards/internal/platform/errors"
	"github.com/louisbranch/tablecards/internal/services/cardlayout/feed"
)

// episodeError reports a missing name with the episode specific code.
func episodeError(err error) error {
	if errors.Is(err, domain.ErrEmptyName) {
		return apperrors.Wrap(apperrors.CodeEpisodeNameEmpty, err.Error(), err)
	}
	return err
}

// eventError reports a missing name with the event specific code.
func eventError(err error) error {
	if errors.Is(err, domain.ErrEmptyName) {
		return apperrors.Wrap(apperrors.CodeEventNameEmpty, err.Error(), err)
	}
	return err
}

func (h *Handler) listEpisodes(w http.ResponseWriter, r *http.Request) {
	campaign, err := h.campaign(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	episodes, err := h.store.ListEpisodes(r.Context(), campaign.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, episodes)
}

func (h *Handler) createEpisode(w http.ResponseWriter, r *http.Request) {
	campaign, err := h.campaign(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var input domain.Episode
	if err := decodeJSON(r, &input); err != nil {
		h.writeError(w, r, err)
		return
	}
	input.CampaignID = campaign.ID
	episode, err := domain.CreateEpisode(input, h.now, h.newID)
	if err != nil {
		h.writeError(w, r, episodeError(err))
		return
	}
	if err := h.store.PutEpisode(r.Context(), episode); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.publish(r.Context(), feed.EpisodeUpdated, campaign, episode.ID)
	writeJSON(w, http.StatusCreated, episode)
}

// episode loads the episode named by the {episodeID} path parameter within
// the campaign.
func (h *Handler) episode(r *http.Request) (domain.Campaign, domain.Episode, error) {
	campaign, err := h.campaign(r)
	if err != nil {
		return domain.Campaign{}, domain.Episode{}, err
	}
	episode, err := h.store.GetEpisode(r.Context(), campaign.ID, chi.URLParam(r, "episodeID"))
	if err != nil {
		return domain.Campaign{}, domain.Episode{}, err
	}
	return campaign, episode, nil
}

func (h *Handler) getEpisode(w http.ResponseWriter, r *http.Request) {
	_, episode, err := h.episode(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, episode)
}

func (h *Handler) updateEpisode(w http.ResponseWriter, r *http.Request) {
	campaign, existing, err := h.episode(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var input domain.Episode
	if err := decodeJSON(r, &input); err != nil {
		h.writeError(w, r, err)
		return
	}
	input.ID = existing.ID
	input.CampaignID = existing.CampaignID
	episode, err := domain.NormalizeEpisode(input)
	if err != nil {
		h.writeError(w, r, episodeError(err))
		return
	}
	episode.CreatedAt = existing.CreatedAt
	episode.UpdatedAt = h.now().UTC()
	if err := h.store.PutEpisode(r.Context(), episode); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.publish(r.Context(), feed.EpisodeUpdated, campaign, episode.ID)
	writeJSON(w, http.StatusOK, episode)
}

func (h *Handler) deleteEpisode(w http.ResponseWriter, r *http.Request) {
	campaign, episode, err := h.episode(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.store.DeleteEpisode(r.Context(), campaign.ID, episode.ID); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.publish(r.Context(), feed.EpisodeUpdated, campaign, episode.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listEvents(w http.ResponseWriter, r *http.Request) {
	_, episode, err := h.episode(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	events, err := h.store.ListEvents(r.Context(), episode.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (h *Handler) createEvent(w http.ResponseWriter, r *http.Request) {
	campaign, episode, err := h.episode(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var input domain.Event
	if err := decodeJSON(r, &input); err != nil {
		h.writeError(w, r, err)
		return
	}
	input.EpisodeID = episode.ID
	event, err := domain.CreateEvent(input, h.now, h.newID)
	if err != nil {
		h.writeError(w, r, eventError(err))
		return
	}
	if err := h.store.PutEvent(r.Context(), event); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.publish(r.Context(), feed.EpisodeUpdated, campaign, episode.ID)
	writeJSON(w, http.StatusCreated, event)
}

func (h *Handler) updateEvent(w http.ResponseWriter, r *http.Request) {
	campaign, episode, err := h.episode(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	existing, err := h.store.GetEvent(r.Context(), episode.ID, chi.URLParam(r, "eventID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var input domain.Event
	if err := decodeJSON(r, &input); err != nil {
		h.writeError(w, r, err)
		return
	}
	input.ID = existing.ID
	input.EpisodeID = existing.EpisodeID
	event, err := domain.NormalizeEvent(input)
	if err != nil {
		h.writeError(w, r, eventError(err))
		return
	}
	event.CreatedAt = existing.CreatedAt
	event.UpdatedAt = h.now().UTC()
	if err := h.store.PutEvent(r.Context(), event); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.publish(r.Context(), feed.EpisodeUpdated, campaign, episode.ID)
	writeJSON(w, http.StatusOK, event)
}

func (h *Handler) deleteEvent(w http.ResponseWriter, r *http.Request) {
	campaign, episode, err := h.episode(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.store.DeleteEvent(r.Context(), episode.ID, chi.URLParam(r, "eventID")); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.publish(r.Context(), feed.EpisodeUpdated, campaign, episode.ID)
	w.WriteHeader(http.StatusNoContent)
}
