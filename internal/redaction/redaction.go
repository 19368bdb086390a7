// Package redaction scrubs credentials out of text before it is logged.
package redaction

import "regexp"

const replacement = "[REDACTED]"

// userinfoRe matches the user:password part of a URL such as a private
// registry address.
var userinfoRe = regexp.MustCompile(`(://)[^/@\s:]+:[^/@\s]+@`)

// sensitivePatterns are applied after userinfo.
var sensitivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`npm_[A-Za-z0-9]{36}`),                            // npm access tokens
	regexp.MustCompile(`gh[pousr]_[A-Za-z0-9]{20,}`),                     // GitHub tokens
	regexp.MustCompile(`github_pat_[A-Za-z0-9_]{20,}`),                   // GitHub fine-grained PATs
	regexp.MustCompile(`eyJ[a-zA-Z0-9_-]+\.eyJ[a-zA-Z0-9_-]+`),           // JWTs
	regexp.MustCompile(`(?i)(bearer\s+)[A-Za-z0-9._~+/=-]+`),             // Authorization: Bearer ...
	regexp.MustCompile(`(?i)(_authToken\s*=\s*)\S+`),                     // .npmrc style
	regexp.MustCompile(`(?i)\b((?:token|password|secret)\s*[:=]\s*)\S+`), // token=..., password: ...
}

// Redact replaces credentials in text with [REDACTED]. Keys such as
// "token=" or "Bearer " are kept so the line stays readable.
func Redact(text string) string {
	text = userinfoRe.ReplaceAllString(text, "${1}"+replacement+"@")
	for _, re := range sensitivePatterns {
		if re.NumSubexp() > 0 {
			text = re.ReplaceAllString(text, "${1}"+replacement)
			continue
		}
		text = re.ReplaceAllString(text, replacement)
	}
	return text
}
