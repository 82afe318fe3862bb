package research

import (
	"strings"

	"github.com/skillprobe/skillprobe/internal/assessment"
)

// knownEmployers answers research for companies whose public profile is
// stable and widely known, skipping the external call. Keyed by lowercase
// company name.
var knownEmployers = map[string]assessment.CompanyProfile{
	"stripe": {
		Name:            "Stripe",
		Description:     "Stripe builds financial infrastructure for the internet, processing payments for millions of businesses.",
		Industry:        "fintech",
		GrowthStage:     assessment.StageLate,
		Products:        []string{"Payments", "Billing", "Connect", "Radar"},
		TargetCustomers: []string{"online businesses", "platforms and marketplaces", "enterprise commerce teams"},
		Values:          []string{"users first", "rigorous thinking", "move with urgency"},
		Competitors:     []string{"Adyen", "PayPal", "Square"},
		Stakeholders:    []string{"merchants", "platform partners", "financial regulators"},
		Metrics:         []string{"payment volume", "authorization rate", "net revenue retention"},
	},
	"shopify": {
		Name:            "Shopify",
		Description:     "Shopify provides a commerce platform that lets anyone start, run, and grow an online or retail business.",
		Industry:        "e-commerce",
		GrowthStage:     assessment.StagePublic,
		Products:        []string{"online store builder", "Shopify Payments", "POS", "fulfillment network"},
		TargetCustomers: []string{"independent merchants", "direct-to-consumer brands", "enterprise retailers"},
		Values:          []string{"merchant obsession", "act like an owner", "build for the long term"},
		Competitors:     []string{"WooCommerce", "BigCommerce", "Squarespace"},
		Stakeholders:    []string{"merchants", "app developers", "logistics partners"},
		Metrics:         []string{"gross merchandise volume", "monthly recurring revenue", "merchant churn"},
	},
	"salesforce": {
		Name:            "Salesforce",
		Description:     "Salesforce is the leading customer relationship management platform for sales, service, and marketing teams.",
		Industry:        "enterprise software",
		GrowthStage:     assessment.StagePublic,
		Products:        []string{"Sales Cloud", "Service Cloud", "Marketing Cloud", "Slack"},
		TargetCustomers: []string{"enterprise sales organizations", "customer service teams", "mid-market businesses"},
		Values:          []string{"trust", "customer success", "innovation", "equality"},
		Competitors:     []string{"Microsoft Dynamics", "HubSpot", "Oracle"},
		Stakeholders:    []string{"account executives", "system integrators", "platform administrators"},
		Metrics:         []string{"annual recurring revenue", "pipeline coverage", "customer attrition"},
	},
	"hubspot": {
		Name:            "HubSpot",
		Description:     "HubSpot makes an integrated CRM platform covering marketing, sales, and customer service for scaling companies.",
		Industry:        "marketing software",
		GrowthStage:     assessment.StagePublic,
		Products:        []string{"Marketing Hub", "Sales Hub", "Service Hub", "CMS Hub"},
		TargetCustomers: []string{"small and mid-market businesses", "marketing agencies", "inbound sales teams"},
		Values:          []string{"solve for the customer", "transparency", "use good judgment"},
		Competitors:     []string{"Salesforce", "Marketo", "Zoho"},
		Stakeholders:    []string{"marketing managers", "sales reps", "solution partners"},
		Metrics:         []string{"qualified leads", "customer acquisition cost", "net revenue retention"},
	},
	"datadog": {
		Name:            "Datadog",
		Description:     "Datadog is the observability and security platform for cloud applications, unifying metrics, traces, and logs.",
		Industry:        "developer tools",
		GrowthStage:     assessment.StagePublic,
		Products:        []string{"infrastructure monitoring", "APM", "log management", "cloud SIEM"},
		TargetCustomers: []string{"devops teams", "site reliability engineers", "security engineers"},
		Values:          []string{"pragmatism", "ship fast", "customer empathy"},
		Competitors:     []string{"New Relic", "Splunk", "Grafana Labs"},
		Stakeholders:    []string{"engineering leads", "platform teams", "procurement"},
		Metrics:         []string{"host count growth", "net revenue retention", "time to detection"},
	},
	"zendesk": {
		Name:            "Zendesk",
		Description:     "Zendesk builds customer service software that helps companies manage support conversations across every channel.",
		Industry:        "customer support software",
		GrowthStage:     assessment.StageLate,
		Products:        []string{"Support Suite", "Guide", "Talk", "Sunshine platform"},
		TargetCustomers: []string{"support organizations", "e-commerce companies", "SaaS vendors"},
		Values:          []string{"empathy", "simplicity", "being humblident"},
		Competitors:     []string{"Freshworks", "Intercom", "Salesforce Service Cloud"},
		Stakeholders:    []string{"support agents", "customer experience leaders", "IT admins"},
		Metrics:         []string{"first reply time", "customer satisfaction score", "ticket backlog"},
	},
}

// KnownEmployer returns the static profile for a well-known company name.
func KnownEmployer(name string) (assessment.CompanyProfile, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	profile, ok := knownEmployers[key]
	return profile, ok
}
