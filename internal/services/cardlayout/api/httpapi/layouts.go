package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/louisbranch/tablecards/internal/layout/badge"
	"github.com/louisbranch/tablecards/internal/layout/domain"
	"github.com/louisbranch/tablecards/internal/services/cardlayout/feed"
	"github.com/louisbranch/tablecards/internal/services/cardlayout/storage"
)

// AddBadgeRequest names the stat a new badge is bound to.
type AddBadgeRequest struct {
	Stat string `json:"stat"`
}

func (h *Handler) listLayouts(w http.ResponseWriter, r *http.Request) {
	campaign, err := h.campaign(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	layouts, err := h.store.ListLayouts(r.Context(), campaign.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, layouts)
}

func (h *Handler) createLayout(w http.ResponseWriter, r *http.Request) {
	campaign, err := h.campaign(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var input domain.CardLayout
	if err := decodeJSON(r, &input); err != nil {
		h.writeError(w, r, err)
		return
	}
	input.CampaignID = campaign.ID
	layout, err := domain.CreateLayout(input, h.now, h.newID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.store.PutLayout(r.Context(), layout); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.publish(r.Context(), feed.LayoutUpdated, campaign, layout.ID)
	writeJSON(w, http.StatusCreated, layout)
}

// getDefaultLayout returns the saved default layout, or the unsaved
// DefaultLayout for campaigns that never saved one.
func (h *Handler) getDefaultLayout(w http.ResponseWriter, r *http.Request) {
	campaign, err := h.campaign(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	layout, err := h.store.GetDefaultLayout(r.Context(), campaign.ID)
	if errors.Is(err, storage.ErrNotFound) {
		layout = domain.DefaultLayout(campaign.ID)
	} else if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, layout)
}

// layout loads the campaign and layout named by the path parameters.
func (h *Handler) layout(r *http.Request) (domain.Campaign, domain.CardLayout, error) {
	campaign, err := h.campaign(r)
	if err != nil {
		return domain.Campaign{}, domain.CardLayout{}, err
	}
	layout, err := h.store.GetLayout(r.Context(), campaign.ID, chi.URLParam(r, "layoutID"))
	if err != nil {
		return domain.Campaign{}, domain.CardLayout{}, err
	}
	return campaign, layout, nil
}

func (h *Handler) getLayout(w http.ResponseWriter, r *http.Request) {
	_, layout, err := h.layout(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, layout)
}

func (h *Handler) updateLayout(w http.ResponseWriter, r *http.Request) {
	campaign, existing, err := h.layout(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var input domain.CardLayout
	if err := decodeJSON(r, &input); err != nil {
		h.writeError(w, r, err)
		return
	}
	input.ID = existing.ID
	input.CampaignID = existing.CampaignID
	input.CreatedAt = existing.CreatedAt
	h.saveLayout(w, r, campaign, input)
}

func (h *Handler) deleteLayout(w http.ResponseWriter, r *http.Request) {
	campaign, err := h.campaign(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	layoutID := chi.URLParam(r, "layoutID")
	if err := h.store.DeleteLayout(r.Context(), campaign.ID, layoutID); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.publish(r.Context(), feed.LayoutUpdated, campaign, layoutID)
	w.WriteHeader(http.StatusNoContent)
}

// addBadge places a badge for a configured, optional stat at the default
// position.
func (h *Handler) addBadge(w http.ResponseWriter, r *http.Request) {
	campaign, layout, err := h.layout(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req AddBadgeRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	key := strings.TrimSpace(req.Stat)
	if key == "" {
		h.writeError(w, r, badge.ErrEmptyStatKey)
		return
	}
	stat, ok := badge.FindStat(layout.Stats, key)
	if !ok {
		h.writeError(w, r, fmt.Errorf("%w: %q", domain.ErrStatNotFound, key))
		return
	}
	if stat.Required {
		h.writeError(w, r, fmt.Errorf("%w: %q is always drawn by the card", domain.ErrInvalidBadge, key))
		return
	}

	canvas := badge.New(layout.Stats, layout.Badges, func(updated []badge.Badge) {
		layout.Badges = updated
	})
	defer canvas.Close()
	if err := canvas.Add(stat); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.saveLayout(w, r, campaign, layout)
}

// removeBadge drops the badge bound to {stat}. Removing a stat without a
// badge leaves the layout unchanged.
func (h *Handler) removeBadge(w http.ResponseWriter, r *http.Request) {
	campaign, layout, err := h.layout(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	canvas := badge.New(layout.Stats, layout.Badges, func(updated []badge.Badge) {
		layout.Badges = updated
	})
	defer canvas.Close()
	canvas.Remove(chi.URLParam(r, "stat"))
	h.saveLayout(w, r, campaign, layout)
}

func (h *Handler) cyclePreset(w http.ResponseWriter, r *http.Request) {
	campaign, layout, err := h.layout(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	next, err := domain.ApplyPreset(layout, domain.CyclePreset(layout.ColorPreset))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.saveLayout(w, r, campaign, next)
}

// saveLayout normalizes, stores and announces layout, then writes it back.
func (h *Handler) saveLayout(w http.ResponseWriter, r *http.Request, campaign domain.Campaign, layout domain.CardLayout) {
	normalized, err := domain.NormalizeLayout(layout)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	normalized.UpdatedAt = h.now().UTC()
	if err := h.store.PutLayout(r.Context(), normalized); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.publish(r.Context(), feed.LayoutUpdated, campaign, normalized.ID)
	writeJSON(w, http.StatusOK, normalized)
}
