// Package registry answers the "is this a supported asset" question the
// lifecycle engine asks before accepting a deposit.
package registry

type Registry interface {
	Supported(token string) bool
}

// Static is a fixed allow-list, typically loaded from configuration.
type Static struct {
	tokens map[string]struct{}
}

func NewStatic(tokens []string) *Static {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		if t == "" {
			continue
		}
		set[t] = struct{}{}
	}
	return &Static{tokens: set}
}

func (s *Static) Supported(token string) bool {
	_, ok := s.tokens[token]
	return ok
}
