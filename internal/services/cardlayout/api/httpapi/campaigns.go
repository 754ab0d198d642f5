package httpapi

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/louisbranch/tablecards/internal/layout/domain"
	"github.com/louisbranch/tablecards/internal/platform/otel"
	"github.com/louisbranch/tablecards/internal/services/cardlayout/overlay"
	"github.com/louisbranch/tablecards/internal/services/cardlayout/search"
)

func (h *Handler) listCampaigns(w http.ResponseWriter, r *http.Request) {
	campaigns, err := h.store.ListCampaigns(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, campaigns)
}

func (h *Handler) createCampaign(w http.ResponseWriter, r *http.Request) {
	var input domain.CreateCampaignInput
	if err := decodeJSON(r, &input); err != nil {
		h.writeError(w, r, err)
		return
	}
	campaign, err := domain.CreateCampaign(input, h.now, h.newID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.store.CreateCampaign(r.Context(), campaign); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, campaign)
}

// campaign loads the campaign named by the {campaignID} path parameter.
func (h *Handler) campaign(r *http.Request) (domain.Campaign, error) {
	return h.store.GetCampaign(r.Context(), chi.URLParam(r, "campaignID"))
}

func (h *Handler) getCampaign(w http.ResponseWriter, r *http.Request) {
	campaign, err := h.campaign(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, campaign)
}

func (h *Handler) getOverlay(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	snap, err := h.overlay.Load(r.Context(), chi.URLParam(r, "slug"), overlay.Options{
		FeaturedSlug: q.Get("character"),
		Events:       q.Get("events") != "false",
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *Handler) searchCharacters(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Start(r.Context(), "httpapi.searchCharacters")
	defer span.End()

	campaign, err := h.store.GetCampaignBySlug(ctx, chi.URLParam(r, "slug"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if h.search == nil {
		h.writeError(w, r, fmt.Errorf("search index is not configured"))
		return
	}
	if err := h.search.EnsureLoaded(ctx, campaign.ID, h.store.ListCharacters); err != nil {
		h.writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	results, err := h.search.Search(ctx, search.Query{
		CampaignID: campaign.ID,
		Text:       q.Get("q"),
		Class:      q.Get("class"),
		Race:       q.Get("race"),
		Sort:       search.ParseSort(q.Get("sort")),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}
