package prompt

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/ernissmal/image-generator-app/pkg/domain"
)

var placeholderRe = regexp.MustCompile(`\{[^{}]+\}`)

// Render replaces every {key} occurrence of each variable in text and
// returns the result together with any placeholder tokens left unresolved.
// Replacement is literal and order-independent across keys. There is no
// escaping mechanism for literal braces in source text.
func Render(text string, vars map[string]string) (string, []string) {
	for key, value := range vars {
		text = strings.ReplaceAll(text, "{"+key+"}", value)
	}
	return text, placeholderRe.FindAllString(text, -1)
}

// Substitute resolves a template against the supplied variables. All three
// prompt segments are scanned for placeholders. Remaining {...} tokens are
// reported (and logged) as a warning; generation still proceeds with them
// in place.
func Substitute(tmpl domain.Template, vars map[string]string) (domain.ResolvedPrompt, []string) {
	var unresolved []string

	system, leftover := Render(tmpl.Prompt.System, vars)
	unresolved = append(unresolved, leftover...)
	user, leftover := Render(tmpl.Prompt.User, vars)
	unresolved = append(unresolved, leftover...)
	negative, leftover := Render(tmpl.Prompt.Negative, vars)
	unresolved = append(unresolved, leftover...)

	unresolved = dedupe(unresolved)
	if len(unresolved) > 0 {
		slog.Warn("unsubstituted variables in template",
			"template", tmpl.ID, "tokens", strings.Join(unresolved, ", "))
	}

	return domain.ResolvedPrompt{
		System:     system,
		User:       user,
		Negative:   negative,
		Parameters: tmpl.Parameters,
	}, unresolved
}

// FormatForAPI merges the three segments of a resolved prompt into the
// single text the provider receives: system context first, then the user
// prompt, then the negative prompt as an avoid-instruction.
func FormatForAPI(rp domain.ResolvedPrompt) string {
	var parts []string
	if rp.System != "" {
		parts = append(parts, "System Context: "+rp.System, "")
	}
	parts = append(parts, rp.User)
	if rp.Negative != "" {
		parts = append(parts, "", "IMPORTANT - Avoid: "+rp.Negative)
	}
	return strings.Join(parts, "\n")
}

func dedupe(tokens []string) []string {
	if len(tokens) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(tokens))
	out := tokens[:0]
	for _, tok := range tokens {
		if !seen[tok] {
			seen[tok] = true
			out = append(out, tok)
		}
	}
	return out
}
