package secrets

import (
	"regexp"
	"strings"
)

// DefaultIconSlug is the icon used when no index term matches a key.
const DefaultIconSlug = "lucide:key-round"

var (
	iconSlugPattern  = regexp.MustCompile(`^[a-z0-9-]+:[a-z0-9][a-z0-9-]*$`)
	iconTokenPattern = regexp.MustCompile(`[^a-z0-9]+`)
)

// iconStopTokens are generic words that never identify a vendor.
var iconStopTokens = map[string]struct{}{
	"key": {}, "value": {}, "secret": {}, "token": {}, "url": {}, "uri": {},
	"id": {}, "name": {}, "host": {}, "port": {}, "unknown": {},
	"vendor": {}, "custom": {}, "default": {}, "service": {},
}

// iconIndex maps key tokens to brand icons. A trimmed-down index; unknown
// tokens fall back to DefaultIconSlug.
var iconIndex = map[string]string{
	"aws":      "simple-icons:amazonaws",
	"s3":       "simple-icons:amazons3",
	"stripe":   "simple-icons:stripe",
	"github":   "simple-icons:github",
	"gitlab":   "simple-icons:gitlab",
	"slack":    "simple-icons:slack",
	"google":   "simple-icons:google",
	"gcp":      "simple-icons:googlecloud",
	"azure":    "simple-icons:microsoftazure",
	"postgres": "simple-icons:postgresql",
	"mysql":    "simple-icons:mysql",
	"redis":    "simple-icons:redis",
	"mongo":    "simple-icons:mongodb",
	"kafka":    "simple-icons:apachekafka",
	"sentry":   "simple-icons:sentry",
	"datadog":  "simple-icons:datadog",
	"twilio":   "simple-icons:twilio",
	"sendgrid": "simple-icons:sendgrid",
	"openai":   "simple-icons:openai",
	"database": "lucide:database",
	"db":       "lucide:database",
	"smtp":     "lucide:mail",
	"email":    "lucide:mail",
	"api":      "lucide:plug",
	"webhook":  "lucide:webhook",
	"password": "lucide:lock",
	"cert":     "lucide:shield-check",
	"tls":      "lucide:shield-check",
	"ssl":      "lucide:shield-check",
}

// ValidIconSlug reports whether value looks like "<set>:<icon>".
func ValidIconSlug(value string) bool {
	return value != "" && iconSlugPattern.MatchString(value)
}

// GuessIconSlug derives an icon from the tokens of a secret key.
func GuessIconSlug(key string) string {
	tokens := iconTokenPattern.Split(strings.ToLower(key), -1)
	for _, token := range tokens {
		if token == "" {
			continue
		}
		if _, stop := iconStopTokens[token]; stop {
			continue
		}
		if slug, ok := iconIndex[token]; ok {
			return slug
		}
	}
	return DefaultIconSlug
}

// ResolveIconSlug prefers a valid caller override over the guess.
func ResolveIconSlug(key, override string) string {
	normalized := strings.ToLower(strings.TrimSpace(override))
	if ValidIconSlug(normalized) {
		return normalized
	}
	return GuessIconSlug(key)
}
