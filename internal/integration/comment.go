package integration

import (
	"encoding/json"

	"github.com/surveycrm/pollbridge/internal/types"
)

type commentAnalytics struct {
	IP       string `json:"ip"`
	URL      string `json:"url"`
	Date     string `json:"date"`
	TimeZone string `json:"timeZone"`
}

type dealComment struct {
	Cookies                 map[string]any              `json:"cookies,omitempty"`
	AdditionalFields        map[string]types.ExtraValue `json:"additional_fields,omitempty"`
	Analytics               *commentAnalytics           `json:"analytics,omitempty"`
	MailingListSubscription *bool                       `json:"mailingListSubscription,omitempty"`
}

// buildDealComment renders the structured metadata blob written into the
// deal's free-text field: cookies, the open additional-field bag, and an
// analytics snapshot.
func buildDealComment(analytics *types.Analytics, additional map[string]types.ExtraValue) (string, error) {
	comment := dealComment{}
	if analytics != nil {
		if !analytics.Cookies.IsEmpty() {
			comment.Cookies = analytics.Cookies.Map()
		}
		comment.Analytics = &commentAnalytics{
			IP:       analytics.IP,
			URL:      analytics.URL,
			Date:     analytics.Date,
			TimeZone: analytics.TimeZone,
		}
		comment.MailingListSubscription = analytics.MailingListSubscription
	}
	if len(additional) > 0 {
		comment.AdditionalFields = additional
	}

	raw, err := json.MarshalIndent(comment, "", "  ")
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
