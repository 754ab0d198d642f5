// Package errors provides coded domain errors with localized messages.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Generic request and storage errors
	CodeNotFound        Code = "NOT_FOUND"
	CodeAlreadyExists   Code = "ALREADY_EXISTS"
	CodeInvalidArgument Code = "INVALID_ARGUMENT"

	// Campaign and character errors
	CodeCampaignNameEmpty     Code = "CAMPAIGN_NAME_EMPTY"
	CodeCharacterNameEmpty    Code = "CHARACTER_NAME_EMPTY"
	CodeCharacterInvalidLevel Code = "CHARACTER_INVALID_LEVEL"
	CodeSlugInvalid           Code = "SLUG_INVALID"

	// Layout errors
	CodeLayoutCampaignMissing    Code = "LAYOUT_CAMPAIGN_MISSING"
	CodeLayoutInvalidCardType    Code = "LAYOUT_INVALID_CARD_TYPE"
	CodeLayoutInvalidAspectRatio Code = "LAYOUT_INVALID_ASPECT_RATIO"
	CodeLayoutInvalidImageWidth  Code = "LAYOUT_INVALID_IMAGE_WIDTH"
	CodeLayoutInvalidBorderCount Code = "LAYOUT_INVALID_BORDER_COUNT"
	CodeLayoutInvalidColor       Code = "LAYOUT_INVALID_COLOR"
	CodeLayoutInvalidStats       Code = "LAYOUT_INVALID_STATS"
	CodeLayoutInvalidBadge       Code = "LAYOUT_INVALID_BADGE"
	CodeLayoutUnknownPreset      Code = "LAYOUT_UNKNOWN_PRESET"

	// Badge errors
	CodeBadgeDuplicate   Code = "BADGE_DUPLICATE"
	CodeBadgeStatUnknown Code = "BADGE_STAT_UNKNOWN"

	// Episode and event errors
	CodeEpisodeNameEmpty      Code = "EPISODE_NAME_EMPTY"
	CodeEpisodeInvalidNumber  Code = "EPISODE_INVALID_NUMBER"
	CodeEventNameEmpty        Code = "EVENT_NAME_EMPTY"
	CodeEventEpisodeMissing   Code = "EVENT_EPISODE_MISSING"
	CodeEventInvalidTimestamp Code = "EVENT_INVALID_TIMESTAMP"
)

// HTTPStatus maps domain codes to HTTP status codes.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeInvalidArgument,
		CodeCampaignNameEmpty,
		CodeCharacterNameEmpty,
		CodeCharacterInvalidLevel,
		CodeSlugInvalid,
		CodeLayoutCampaignMissing,
		CodeLayoutInvalidCardType,
		CodeLayoutInvalidAspectRatio,
		CodeLayoutInvalidImageWidth,
		CodeLayoutInvalidBorderCount,
		CodeLayoutInvalidColor,
		CodeLayoutInvalidStats,
		CodeLayoutInvalidBadge,
		CodeLayoutUnknownPreset,
		CodeBadgeStatUnknown,
		CodeEpisodeNameEmpty,
		CodeEpisodeInvalidNumber,
		CodeEventNameEmpty,
		CodeEventEpisodeMissing,
		CodeEventInvalidTimestamp:
		return http.StatusBadRequest

	case CodeNotFound:
		return http.StatusNotFound

	case CodeAlreadyExists, CodeBadgeDuplicate:
		return http.StatusConflict

	default:
		return http.StatusInternalServerError
	}
}
