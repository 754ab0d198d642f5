package httpapi

import (
	"errors"
	"log"
	"net/http"

	"github.com/louisbranch/tablecards/internal/layout/badge"
	"github.com/louisbranch/tablecards/internal/layout/domain"
	apperrors "github.com/louisbranch/tablecards/internal/platform/errors"
	"github.com/louisbranch/tablecards/internal/services/cardlayout/storage"
)

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	Code    apperrors.Code `json:"code"`
	Message string         `json:"message"`
}

func badRequest(err error) error {
	return apperrors.Wrap(apperrors.CodeInvalidArgument, err.Error(), err)
}

var sentinelCodes = []struct {
	err  error
	code apperrors.Code
}{
	{storage.ErrNotFound, apperrors.CodeNotFound},
	{storage.ErrAlreadyExists, apperrors.CodeAlreadyExists},
	{domain.ErrEmptyName, apperrors.CodeCampaignNameEmpty},
	{domain.ErrInvalidSlug, apperrors.CodeSlugInvalid},
	{domain.ErrInvalidLevel, apperrors.CodeCharacterInvalidLevel},
	{domain.ErrEmptyCampaignID, apperrors.CodeLayoutCampaignMissing},
	{domain.ErrInvalidCardType, apperrors.CodeLayoutInvalidCardType},
	{domain.ErrInvalidAspectRatio, apperrors.CodeLayoutInvalidAspectRatio},
	{domain.ErrInvalidImageWidth, apperrors.CodeLayoutInvalidImageWidth},
	{domain.ErrInvalidBorderColorCount, apperrors.CodeLayoutInvalidBorderCount},
	{domain.ErrInvalidColor, apperrors.CodeLayoutInvalidColor},
	{domain.ErrInvalidStats, apperrors.CodeLayoutInvalidStats},
	{domain.ErrInvalidBadge, apperrors.CodeLayoutInvalidBadge},
	{domain.ErrUnknownPreset, apperrors.CodeLayoutUnknownPreset},
	{domain.ErrStatNotFound, apperrors.CodeBadgeStatUnknown},
	{domain.ErrStatExists, apperrors.CodeAlreadyExists},
	{badge.ErrDuplicateBadge, apperrors.CodeBadgeDuplicate},
	{badge.ErrEmptyStatKey, apperrors.CodeInvalidArgument},
	{domain.ErrInvalidEpisodeNumber, apperrors.CodeEpisodeInvalidNumber},
	{domain.ErrEmptyEpisodeID, apperrors.CodeEventEpisodeMissing},
	{domain.ErrInvalidEventTimestamp, apperrors.CodeEventInvalidTimestamp},
}

// codeFor maps an error to its API code. Coded errors win over sentinels.
func codeFor(err error) apperrors.Code {
	if code := apperrors.CodeOf(err); code != apperrors.CodeUnknown {
		return code
	}
	for _, s := range sentinelCodes {
		if errors.Is(err, s.err) {
			return s.code
		}
	}
	return apperrors.CodeUnknown
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := codeFor(err)
	status := code.HTTPStatus()
	if status >= http.StatusInternalServerError {
		log.Printf("%s %s: %v", r.Method, r.URL.Path, err)
	}
	printer := h.messages.Printer(r.Header.Get("Accept-Language"))
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: apperrors.Localize(printer, code),
	})
}
