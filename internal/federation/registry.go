package federation

// Provider tags. These are the only values accepted by the login initiation
// endpoint.
const (
	ProviderGoogle    = "google"
	ProviderMicrosoft = "microsoft"
	ProviderGitHub    = "github"
	ProviderApple     = "apple"
	ProviderOkta      = "okta"
	// ProviderSAML is recognized but rejected at Get: no assertion verifier
	// exists, and accepting unverified assertions is worse than refusing.
	ProviderSAML = "saml"
)

// KnownProvider reports whether name is part of the provider enumeration.
func KnownProvider(name string) bool {
	switch name {
	case ProviderGoogle, ProviderMicrosoft, ProviderGitHub, ProviderApple, ProviderOkta, ProviderSAML:
		return true
	}
	return false
}

// Registry maps provider tags to initialized Provider implementations.
// Providers whose credentials are absent from configuration are not
// registered, so Get fails closed for them.
type Registry struct {
	providers map[string]Provider
}

// NewRegistry builds the registry from per-provider configuration, keyed by
// provider tag.
func NewRegistry(configs map[string]ProviderConfig) *Registry {
	r := &Registry{providers: make(map[string]Provider)}
	for name, cfg := range configs {
		if !cfg.Configured() {
			continue
		}
		switch name {
		case ProviderGoogle:
			r.providers[name] = NewGoogleProvider(cfg)
		case ProviderMicrosoft:
			r.providers[name] = NewMicrosoftProvider(cfg)
		case ProviderGitHub:
			r.providers[name] = NewGitHubProvider(cfg)
		case ProviderApple:
			r.providers[name] = NewAppleProvider(cfg)
		case ProviderOkta:
			if cfg.BaseURL == "" {
				continue
			}
			r.providers[name] = NewOktaProvider(cfg)
		}
	}
	return r
}

// Register adds or replaces a provider. Mostly useful for tests.
func (r *Registry) Register(p Provider) {
	r.providers[p.Name()] = p
}

// Get returns the provider for the given tag. ErrUnknownProvider means the
// tag is outside the enumeration (client misuse); ErrProviderNotConfigured
// means the tag is valid but this deployment carries no credentials for it.
func (r *Registry) Get(name string) (Provider, error) {
	if !KnownProvider(name) {
		return nil, ErrUnknownProvider
	}
	p, ok := r.providers[name]
	if !ok {
		return nil, ErrProviderNotConfigured
	}
	return p, nil
}
