package seed

import "encoding/json"

// Report counts what one seed run did. It is the machine-parseable summary
// the invoking automation consumes; Render emits it as a single JSON line.
type Report struct {
	UsersCreated       int      `json:"users_created"`
	UsersUpdated       int      `json:"users_updated"`
	GroupsCreated      int      `json:"groups_created"`
	GroupsReused       int      `json:"groups_reused"`
	MembershipsCreated int      `json:"memberships_created"`
	MembershipsSkipped int      `json:"memberships_skipped"`
	MetricDays         int      `json:"metric_days"`
	AnomalyRows        int      `json:"anomaly_rows"`
	QuestionnaireRows  int      `json:"questionnaire_rows"`
	UnitsFailed        int      `json:"units_failed"`
	FailedUnits        []string `json:"failed_units,omitempty"`
}

// Render returns the report as one JSON line.
func (r *Report) Render() string {
	data, err := json.Marshal(r)
	if err != nil {
		return "{}"
	}
	return string(data)
}
