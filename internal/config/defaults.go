package config

import "git.home.luguber.info/inful/contentsync/internal/content"

// Locale defaults. The primary locale gets default synthesis; secondary
// locales only ever mirror documents that actually exist.
const DefaultPrimaryLocale = "en"

var DefaultSecondaryLocales = []string{"zh-hans", "zh-hant"}

// News defaults substituted during normalization.
const (
	DefaultArticleAuthor   = "Editorial Team"
	DefaultArticleCategory = "company-news"
	DefaultArticleStatus   = "published"
	DefaultSummaryLength   = 120
)

func defaultPublishedStatuses() []string {
	return content.DefaultPublishedStatuses()
}

// Entity describes one logical content unit in the fixed entity table.
type Entity struct {
	// Name is the logical entity name (glossary: Entity).
	Name string
	// Group is the manifest collection the artifact is filed under.
	Group string
	// Artifact is the output path relative to the content-API root.
	Artifact string
	// Source is the primary-locale document path relative to the content dir.
	// Locale variants live next to it as <base>.<locale>.md.
	Source string
	// RequiredList names a metadata key that must hold a non-empty array for
	// a loaded document to count as found. Guards against partially filled
	// documents (team rosters in particular).
	RequiredList string
	// Defaults is the entity-specific record synthesized when no
	// primary-locale document exists.
	Defaults map[string]any
}

// Entities returns the fixed entity table. Each call returns fresh default
// maps so callers can mutate merged copies safely.
func Entities() []Entity {
	return []Entity{
		{
			Name:     "company-basic-info",
			Group:    "company",
			Artifact: "company/basic-info.json",
			Source:   "company/basic-info.md",
			Defaults: map[string]any{
				"name":         "Orient Crest Trading Co., Ltd.",
				"founded":      "2008",
				"headquarters": "Singapore",
				"employees":    "50+",
				"markets":      []any{"Southeast Asia", "Greater China", "EU"},
				"content":      "Orient Crest sources, inspects and ships industrial goods across Asia-Pacific trade lanes.",
			},
		},
		{
			Name:         "team-members",
			Group:        "company",
			Artifact:     "company/team-members.json",
			Source:       "company/team-members.md",
			RequiredList: "members",
			Defaults: map[string]any{
				"members": []any{
					map[string]any{"name": "Wei Chen", "role": "Managing Director", "bio": "Twenty years in cross-border commodity trading."},
					map[string]any{"name": "Mei Lin", "role": "Head of Operations", "bio": "Runs sourcing, QA and freight coordination."},
				},
				"content": "",
			},
		},
		{
			Name:     "contact-info",
			Group:    "contact",
			Artifact: "contact/info.json",
			Source:   "contact/info.md",
			Defaults: map[string]any{
				"email":   "trade@orientcrest.example",
				"phone":   "+65 6000 0000",
				"address": "10 Harbourfront Ave, Singapore",
				"hours":   "Mon-Fri 09:00-18:00 SGT",
				"content": "",
			},
		},
		{
			Name:     "home-page-block",
			Group:    "pages",
			Artifact: "pages/home-content.json",
			Source:   "pages/home-content.md",
			Defaults: map[string]any{
				"headline": "Trade further, worry less.",
				"tagline":  "Sourcing, inspection and logistics under one roof.",
				"highlights": []any{
					map[string]any{"title": "Verified suppliers", "text": "Factory-audited partner network."},
					map[string]any{"title": "Door-to-door freight", "text": "Sea, air and rail forwarding."},
					map[string]any{"title": "Local expertise", "text": "Teams in Singapore, Shenzhen and Taipei."},
				},
				"content": "",
			},
		},
		{
			Name:     "footer-block",
			Group:    "pages",
			Artifact: "pages/footer-content.json",
			Source:   "pages/footer-content.md",
			Defaults: map[string]any{
				"copyright": "© Orient Crest Trading Co., Ltd.",
				"links": []any{
					map[string]any{"label": "About", "href": "/about"},
					map[string]any{"label": "Services", "href": "/services"},
					map[string]any{"label": "Contact", "href": "/contact"},
				},
				"content": "",
			},
		},
	}
}

// ServicesSourceDir is the services document directory relative to the
// content dir; ServicesGroup files aggregate artifacts in the manifest.
const (
	ServicesSourceDir = "services"
	ServicesGroup     = "services"
)

// DefaultServices returns the fixed two-item service list used when zero
// service documents exist.
func DefaultServices() []content.ServiceEntity {
	return []content.ServiceEntity{
		{
			ID:      "global-sourcing",
			Order:   1,
			Enabled: true,
			Fields: map[string]any{
				"title":       "Global Sourcing",
				"description": "Supplier discovery, factory audits and price negotiation.",
				"content":     "",
			},
		},
		{
			ID:      "export-logistics",
			Order:   2,
			Enabled: true,
			Fields: map[string]any{
				"title":       "Export Logistics",
				"description": "Consolidation, customs clearance and multimodal freight.",
				"content":     "",
			},
		},
	}
}

// FallbackArticles returns the fixed article set substituted when the news
// index cannot be generated or fetched. The published filter and date sort
// still apply to it, for consistency with generated indexes.
func FallbackArticles() []content.NewsArticle {
	return []content.NewsArticle{
		{
			ID:       "welcome",
			Title:    "Orient Crest opens its new trade desk",
			Date:     "2025-01-06",
			Category: DefaultArticleCategory,
			Summary:  "A new regional trade desk now coordinates sourcing across Southeast Asia.",
			Content:  "A new regional trade desk now coordinates sourcing across Southeast Asia.",
			Status:   DefaultArticleStatus,
			Author:   DefaultArticleAuthor,
			Keywords: []string{"company", "trade-desk"},
			Slug:     "orient-crest-opens-its-new-trade-desk",
		},
		{
			ID:       "certification",
			Title:    "ISO 9001 certification renewed",
			Date:     "2024-11-18",
			Category: DefaultArticleCategory,
			Summary:  "Quality management certification renewed for another three-year cycle.",
			Content:  "Quality management certification renewed for another three-year cycle.",
			Status:   DefaultArticleStatus,
			Author:   DefaultArticleAuthor,
			Keywords: []string{"quality", "certification"},
			Slug:     "iso-9001-certification-renewed",
		},
	}
}
