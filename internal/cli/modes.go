package cli

import (
	"strings"
)

const (
	ModeUser    = "user-service"
	ModeProduct = "product-service"
	ModeHub     = "notification-hub"
)

// isKnownMode checks if the provided mode name is known.
func isKnownMode(s string) (string, bool) {
	switch s {
	case ModeUser, "user", "users":
		return ModeUser, true
	case ModeProduct, "product", "products", "orders":
		return ModeProduct, true
	case ModeHub, "hub", "notify", "notification-subscriber":
		return ModeHub, true
	default:
		return "", false
	}
}

// NormalizeArgs rewrites the legacy forms
//
//	--mode=<value>
//	--mode <value>
//	<alias> (e.g. `hub --port=3003`)
//
// into `<subcommand> [flags]` so cobra can dispatch them. Unknown modes are
// passed through for cobra to reject.
func NormalizeArgs(args []string) []string {
	var mode string
	out := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case strings.HasPrefix(arg, "--mode="):
			mode = strings.TrimPrefix(arg, "--mode=")
			continue
		case arg == "--mode" && i+1 < len(args):
			mode = args[i+1]
			i++
			continue
		}

		if mode == "" && len(out) == 0 {
			if m, ok := isKnownMode(arg); ok {
				mode = m
				continue
			}
		}
		out = append(out, arg)
	}

	if mode == "" {
		return out
	}
	if m, ok := isKnownMode(mode); ok {
		mode = m
	}
	return append([]string{mode}, out...)
}
