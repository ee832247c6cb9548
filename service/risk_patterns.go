package service

// Risk detection patterns grouped by severity and semantic category. Matching
// is case-insensitive regex search against lowercased clause text. The tables
// are fixed: the detector must produce identical output for identical input.

// highRiskPatterns produce red flags
var highRiskPatterns = map[string][]string{
	"dataPrivacy": {
		`sell your data`,
		`sell your information`,
		`monetize.*data`,
		`share.*third.{0,10}part`,
		`disclose.*personal information`,
		`transfer.*data.*affiliate`,
	},
	"arbitration": {
		`forced arbitration`,
		`binding arbitration`,
		`waive.*right.*class action`,
		`waive.*right.*jury trial`,
		`mandatory arbitration`,
	},
	"payment": {
		`non-refundable`,
		`no refund`,
		`cannot cancel`,
		`auto.{0,5}renew`,
		`automatically.*renew`,
		`renewal.*automatic`,
	},
	"rights": {
		`waive.*right`,
		`surrender.*right`,
		`forfeit.*right`,
		`relinquish.*claim`,
		`irrevocable.*license`,
	},
	"liability": {
		`unlimited liability`,
		`no warranty`,
		`disclaim.*all.*warrant`,
		`not responsible.*loss`,
		`assume.*all.*risk`,
	},
	"changes": {
		`change.*without notice`,
		`modify.*sole discretion`,
		`alter.*any time`,
		`unilateral.*change`,
	},
}

// mediumRiskPatterns produce yellow flags
var mediumRiskPatterns = map[string][]string{
	"dataRetention": {
		`retain.*indefinitely`,
		`store.*data.*period`,
		`keep.*information`,
		`data retention`,
	},
	"termination": {
		`terminate.*access`,
		`suspend.*account`,
		`disable.*service`,
		`close.*account.*discretion`,
	},
	"liability": {
		`limited liability`,
		`as-is basis`,
		`with all faults`,
		`no guarantee`,
		`best effort`,
	},
	"changes": {
		`may change`,
		`reserve.*right.*modify`,
		`update.*time to time`,
		`subject to change`,
	},
	"thirdParty": {
		`third.{0,5}party`,
		`partner.*service`,
		`affiliate.*share`,
		`vendor.*access`,
	},
}

// lowRiskPatterns produce green flags (positive indicators)
var lowRiskPatterns = map[string][]string{
	"transparency": {
		`will notify you`,
		`notice.*change`,
		`inform.*advance`,
		`prior.*notification`,
	},
	"rights": {
		`right to cancel`,
		`opt.{0,5}out`,
		`unsubscribe`,
		`delete.*account`,
		`access.*data`,
	},
	"compliance": {
		`gdpr`,
		`ccpa`,
		`privacy.*compliance`,
		`data protection`,
		`security measures`,
	},
}

// flagReasons maps well-known patterns to human-readable explanations.
// Unmapped patterns fall back to a generic "{severity} risk detected" reason.
var flagReasons = map[string]string{
	`sell your data`:          "Your personal data may be sold to third parties",
	`share.*third.{0,10}part`: "Information may be shared with third parties",
	`auto.{0,5}renew`:         "Automatic renewal without easy cancellation",
	`non-refundable`:          "You cannot get your money back",
	`forced arbitration`:      "You give up your right to sue in court",
	`terminate.*access`:       "They can terminate your access at any time",
	`gdpr`:                    "Complies with GDPR data protection",
	`right to cancel`:         "You have the right to cancel",
}

// patternCategoryAliases maps the pattern-table category names onto the
// closed clause-category vocabulary where one exists
var patternCategoryAliases = map[string]string{
	"dataPrivacy":   "data-privacy",
	"dataRetention": "data-privacy",
	"thirdParty":    "data-privacy",
	"payment":       "payment",
	"arbitration":   "arbitration",
	"liability":     "liability",
	"termination":   "termination",
	"changes":       "modification",
	"rights":        "rights",
	"transparency":  "transparency",
	"compliance":    "compliance",
}

// categoryKeywords scores clause text against the closed category set
var categoryKeywords = map[string][]string{
	"data-privacy":          {"data", "information", "privacy", "personal", "collect", "process", "store"},
	"payment":               {"payment", "fee", "charge", "price", "subscription", "billing", "refund"},
	"cancellation":          {"cancel", "terminate", "end", "close", "discontinue", "withdrawal"},
	"arbitration":           {"arbitration", "dispute", "resolution", "mediation", "litigation", "court"},
	"liability":             {"liability", "responsible", "warranty", "guarantee", "damages", "indemnify"},
	"intellectual-property": {"intellectual property", "copyright", "trademark", "patent", "license", "ownership"},
	"termination":           {"termination", "suspension", "account", "access", "disable", "revoke"},
	"modification":          {"modification", "change", "update", "amend", "revise", "alter"},
}
