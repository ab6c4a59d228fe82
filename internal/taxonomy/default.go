package taxonomy

import "sync"

// Payments is the category whose generic tokens are down-weighted.
const Payments = "Payments"

// genericPaymentsTokens appear on many non-payments sites (cloud billing
// pages and the like), so they count for less toward Payments.
var genericPaymentsTokens = map[string]struct{}{
	"payment":      {},
	"payments":     {},
	"billing":      {},
	"checkout":     {},
	"transaction":  {},
	"transactions": {},
	"merchant":     {},
	"card":         {},
	"refund":       {},
	"chargeback":   {},
}

// IsGenericPaymentsToken reports whether token is one of the generic
// payments tokens.
func IsGenericPaymentsToken(token string) bool {
	_, ok := genericPaymentsTokens[token]
	return ok
}

// Default returns the built-in taxonomy. It is built once and shared.
func Default() *Taxonomy {
	return defaultTaxonomy()
}

var defaultTaxonomy = sync.OnceValue(func() *Taxonomy {
	t, err := New(DefaultCategories(), DefaultWeights())
	if err != nil {
		panic(err)
	}
	return t
})

// DefaultCategories returns a fresh copy of the built-in categories in
// tie-break order.
func DefaultCategories() []Category {
	return []Category{
		{
			ID: "Payments",
			Keywords: []string{
				"payment", "payments", "checkout", "billing", "subscription billing",
				"invoicing", "stripe", "stripe-like", "payment gateway", "payment processing",
				"recurring revenue", "merchant", "transaction", "refund", "chargeback",
				"payment method", "card", "ach", "wire", "fintech", "payments api",
			},
			MetadataTriggers: []string{"payments", "fintech", "billing", "checkout", "payment"},
			NegativeSignals:  []string{"payroll", "salary", "hr payroll"},
		},
		{
			ID: "Analytics",
			Keywords: []string{
				"analytics", "dashboard", "metrics", "kpi", "reporting", "data visualization",
				"bi ", "business intelligence", "insights", "funnel", "conversion",
				"tracking", "events", "segmentation", "cohort", "attribution",
			},
			MetadataTriggers: []string{"analytics", "bi", "reporting", "metrics", "insights"},
			NegativeSignals:  []string{},
		},
		{
			ID: "CRM",
			Keywords: []string{
				"crm", "customer relationship", "sales pipeline", "lead", "contact",
				"deal", "opportunity", "sales force", "sales automation", "contact management",
				"account management", "sales engagement", "revenue operations",
			},
			MetadataTriggers: []string{"crm", "sales", "lead", "pipeline", "contact"},
			NegativeSignals:  []string{},
		},
		{
			ID: "DevTools",
			Keywords: []string{
				"developer", "devtools", "api", "sdk", "cli", "ide", "code",
				"ci/cd", "cicd", "continuous integration", "deployment", "git",
				"debug", "logging", "monitoring", "observability", "infrastructure as code",
				"container", "kubernetes", "docker", "serverless", "sre",
			},
			MetadataTriggers: []string{"devtools", "developer", "api", "sdk", "ci/cd", "dev"},
			NegativeSignals:  []string{"marketing automation", "crm"},
		},
		{
			ID: "Marketing Automation",
			Keywords: []string{
				"marketing automation", "email marketing", "campaign", "automation",
				"lead nurturing", "drip", "landing page", "ab test", "a/b test",
				"marketing ops", "demand gen", "content marketing", "seo",
			},
			MetadataTriggers: []string{"marketing", "automation", "email", "campaign", "demand gen"},
			NegativeSignals:  []string{"crm", "sales pipeline"},
		},
		{
			ID: "HRTech",
			Keywords: []string{
				"hr", "human resources", "recruiting", "recruitment", "hiring",
				"payroll", "benefits", "onboarding", "performance", "ats",
				"applicant tracking", "workforce", "employee", "hrms", "hris",
			},
			MetadataTriggers: []string{"hr", "hrtech", "recruiting", "payroll", "hiring", "hrms"},
			NegativeSignals:  []string{},
		},
		{
			ID: "Cybersecurity",
			Keywords: []string{
				"security", "cybersecurity", "sso", "identity", "auth", "mfa",
				"compliance", "soc", "threat", "vulnerability", "pentest",
				"zero trust", "dlp", "siem", "endpoint", "vpn",
			},
			MetadataTriggers: []string{"security", "cybersecurity", "sso", "compliance", "identity"},
			NegativeSignals:  []string{},
		},
		{
			ID: "Infrastructure",
			Keywords: []string{
				"infrastructure", "cloud", "hosting", "cdn", "database", "storage",
				"compute", "server", "edge", "serverless", "iaas", "paas",
				"backup", "disaster recovery", "scaling", "load balancer",
			},
			MetadataTriggers: []string{"infrastructure", "cloud", "hosting", "database", "storage"},
			NegativeSignals:  []string{},
		},
		{
			ID: "Collaboration",
			Keywords: []string{
				"collaboration", "team", "chat", "messaging", "video call",
				"meeting", "slack", "document", "wiki", "project management",
				"async", "remote", "workspace", "whiteboard",
			},
			MetadataTriggers: []string{"collaboration", "team", "chat", "messaging", "meeting"},
			NegativeSignals:  []string{},
		},
	}
}
