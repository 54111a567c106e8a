package compliance

import (
	"github.com/RaaSaaR-org/robot-management-system-sub004/internal/domain"
)

// RulesVersion identifies the deployed rule matrix. Bumped on any rules
// change; changing the matrix is a deployment, never a user action.
const RulesVersion = "2025.1"

// NotificationRule is one required legal notification for an incident type.
type NotificationRule struct {
	Authority        domain.Authority
	Regulation       domain.Regulation
	NotificationType domain.NotificationType
	DeadlineHours    int
}

// aiActSeriousIncident encodes the AI Act Art. 73 serious-incident cadence:
// early warning within 2 days, initial report within 10, final within 15.
// The cardinality per regulation is data here, not control flow; adding an
// intermediate report is a new row.
var aiActSeriousIncident = []NotificationRule{
	{domain.AuthorityAIAct, domain.RegulationAIAct, domain.NotificationEarlyWarning, 48},
	{domain.AuthorityAIAct, domain.RegulationAIAct, domain.NotificationInitial, 240},
	{domain.AuthorityAIAct, domain.RegulationAIAct, domain.NotificationFinal, 360},
}

// ruleMatrix maps incident type to the notifications it requires. Deadlines
// depend only on type and regulation, never on severity, in the four regimes
// encoded here (AI Act Art. 73, GDPR Art. 33, NIS2 Art. 23, CRA Art. 14).
var ruleMatrix = map[domain.IncidentType][]NotificationRule{
	domain.IncidentSafety:        aiActSeriousIncident,
	domain.IncidentAIMalfunction: aiActSeriousIncident,
	domain.IncidentDataBreach: {
		{domain.AuthorityDPA, domain.RegulationGDPR, domain.NotificationInitial, 72},
	},
	domain.IncidentSecurity: {
		{domain.AuthorityCSIRT, domain.RegulationNIS2, domain.NotificationEarlyWarning, 24},
		{domain.AuthorityCSIRT, domain.RegulationNIS2, domain.NotificationInitial, 72},
	},
	domain.IncidentVulnerability: {
		{domain.AuthorityENISA, domain.RegulationCRA, domain.NotificationEarlyWarning, 24},
	},
}

// RulesFor returns the required notifications for an incident type. The
// returned slice is a copy; the matrix itself is read-only at runtime.
func RulesFor(t domain.IncidentType) []NotificationRule {
	rules, ok := ruleMatrix[t]
	if !ok {
		return nil
	}
	out := make([]NotificationRule, len(rules))
	copy(out, rules)
	return out
}
