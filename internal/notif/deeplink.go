package notif

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"soundbridge/internal/common"
	"soundbridge/internal/dbmysql"
)

type gigMetadata struct {
	GigID string `json:"gig_id"`
}

type projectMetadata struct {
	ProjectID string `json:"project_id"`
}

type disputeMetadata struct {
	DisputeID string `json:"dispute_id"`
}

type ratingMetadata struct {
	ProjectID string `json:"project_id"`
	RateeID   string `json:"ratee_id"`
	RateeName string `json:"ratee_name"`
}

// ResolveURL maps a notification to its in-app route. Types without a
// route return the empty string and the caller shows no link.
func ResolveURL(n *dbmysql.Notification) string {
	switch n.Type {
	case common.UrgentGigType,
		common.GigConfirmedType,
		common.GigStartingSoonType:
		var meta gigMetadata
		if !decodeMetadata(n.Metadata, &meta) || meta.GigID == "" {
			return ""
		}
		return fmt.Sprintf("/gigs/%s/detail", meta.GigID)

	case common.GigAcceptedType:
		var meta gigMetadata
		if !decodeMetadata(n.Metadata, &meta) || meta.GigID == "" {
			return ""
		}
		return fmt.Sprintf("/gigs/%s/responses", meta.GigID)

	case common.ConfirmCompletionType,
		common.ProjectCompletedType:
		projectID := projectIDFor(n)
		if projectID == "" {
			return ""
		}
		return fmt.Sprintf("/projects/%s", projectID)

	case common.ProjectDisputedType:
		var meta disputeMetadata
		if !decodeMetadata(n.Metadata, &meta) || meta.DisputeID == "" {
			return ""
		}
		return fmt.Sprintf("/dispute/view/%s", meta.DisputeID)

	case common.RatingPromptType:
		var meta ratingMetadata
		// The rating screen needs both the project and the person to
		// rate; without either there is nowhere to land.
		if !decodeMetadata(n.Metadata, &meta) || meta.ProjectID == "" || meta.RateeID == "" {
			return ""
		}
		params := url.Values{}
		params.Set("rateeId", meta.RateeID)
		if meta.RateeName != "" {
			params.Set("rateeName", meta.RateeName)
		}
		return fmt.Sprintf("/rate/%s?%s", meta.ProjectID, encodeQuery(params))
	}

	return ""
}

// projectIDFor prefers metadata but accepts the legacy related_id slot
// that older rows used for the project reference.
func projectIDFor(n *dbmysql.Notification) string {
	var meta projectMetadata
	if decodeMetadata(n.Metadata, &meta) && meta.ProjectID != "" {
		return meta.ProjectID
	}
	if n.RelatedID != nil {
		return *n.RelatedID
	}
	return ""
}

func decodeMetadata(meta common.NotificationMetadata, out interface{}) bool {
	if len(meta) == 0 {
		return false
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return false
	}
	return json.Unmarshal(raw, out) == nil
}

// encodeQuery renders query params with spaces as %20 rather than '+',
// matching how mobile router links are generated.
func encodeQuery(params url.Values) string {
	return strings.ReplaceAll(params.Encode(), "+", "%20")
}
