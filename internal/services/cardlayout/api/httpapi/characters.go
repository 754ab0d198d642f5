package httpapi

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/louisbranch/tablecards/internal/layout/domain"
	apperrors "github.com/louisbranch/tablecards/internal/platform/errors"
	"github.com/louisbranch/tablecards/internal/services/cardlayout/feed"
)

// characterError reports a missing name with the character specific code.
func characterError(err error) error {
	if errors.Is(err, domain.ErrEmptyName) {
		return apperrors.Wrap(apperrors.CodeCharacterNameEmpty, err.Error(), err)
	}
	return err
}

func (h *Handler) listCharacters(w http.ResponseWriter, r *http.Request) {
	campaign, err := h.campaign(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	characters, err := h.store.ListCharacters(r.Context(), campaign.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, characters)
}

func (h *Handler) createCharacter(w http.ResponseWriter, r *http.Request) {
	campaign, err := h.campaign(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var input domain.Character
	if err := decodeJSON(r, &input); err != nil {
		h.writeError(w, r, err)
		return
	}
	input.CampaignID = campaign.ID
	character, err := domain.CreateCharacter(input, h.now, h.newID)
	if err != nil {
		h.writeError(w, r, characterError(err))
		return
	}
	if err := h.store.PutCharacter(r.Context(), character); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.characterSaved(r, campaign, character)
	writeJSON(w, http.StatusCreated, character)
}

func (h *Handler) getCharacter(w http.ResponseWriter, r *http.Request) {
	character, err := h.store.GetCharacter(r.Context(), chi.URLParam(r, "campaignID"), chi.URLParam(r, "characterID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, character)
}

func (h *Handler) updateCharacter(w http.ResponseWriter, r *http.Request) {
	campaign, err := h.campaign(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	existing, err := h.store.GetCharacter(r.Context(), campaign.ID, chi.URLParam(r, "characterID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var input domain.Character
	if err := decodeJSON(r, &input); err != nil {
		h.writeError(w, r, err)
		return
	}
	input.ID = existing.ID
	input.CampaignID = existing.CampaignID
	character, err := domain.NormalizeCharacter(input)
	if err != nil {
		h.writeError(w, r, characterError(err))
		return
	}
	character.CreatedAt = existing.CreatedAt
	character.UpdatedAt = h.now().UTC()
	if err := h.store.PutCharacter(r.Context(), character); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.characterSaved(r, campaign, character)
	writeJSON(w, http.StatusOK, character)
}

func (h *Handler) characterSaved(r *http.Request, campaign domain.Campaign, character domain.Character) {
	if h.search != nil && h.search.Loaded(campaign.ID) {
		if err := h.search.Put(character); err != nil {
			log.Printf("index character %s: %v", character.ID, err)
		}
	}
	h.publish(r.Context(), feed.CharacterUpdated, campaign, character.ID)
}
