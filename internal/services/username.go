package services

import (
	"context"
	"fmt"
	"strings"
)

// Username length bounds.
const (
	MinUsernameLength = 3
	MaxUsernameLength = 30
)

// maxUsernameAttempts bounds the numeric suffix search.
const maxUsernameAttempts = 1000

// SanitizeUsername derives a username candidate from an email address: the
// local part lower-cased with anything outside [a-z0-9_] replaced by '_',
// padded or trimmed to the allowed length.
func SanitizeUsername(email string) string {
	local := strings.ToLower(strings.TrimSpace(email))
	if at := strings.Index(local, "@"); at >= 0 {
		local = local[:at]
	}

	var b strings.Builder
	for _, r := range local {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}

	name := strings.Trim(b.String(), "_")
	if name == "" {
		name = "user"
	}
	for len(name) < MinUsernameLength {
		name += "_"
	}
	if len(name) > MaxUsernameLength {
		name = name[:MaxUsernameLength]
	}
	return name
}

// uniqueUsername appends the smallest numeric suffix that makes base free.
func uniqueUsername(ctx context.Context, base string, exists func(context.Context, string) (bool, error)) (string, error) {
	candidate := base
	for i := 1; i <= maxUsernameAttempts; i++ {
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}

		suffix := fmt.Sprintf("%d", i)
		stem := base
		if len(stem)+len(suffix) > MaxUsernameLength {
			stem = stem[:MaxUsernameLength-len(suffix)]
		}
		candidate = stem + suffix
	}
	return "", fmt.Errorf("no free username for %q", base)
}
