package provider

// BaseProvider provides credential handling for provider implementations.
// Embed this in concrete providers to simplify implementation.
type BaseProvider struct {
	info        ProviderInfo
	credentials map[string]string
}

// NewBaseProvider creates a base provider.
func NewBaseProvider(name, description, website string, creds []ProviderCredential) BaseProvider {
	return BaseProvider{
		info: ProviderInfo{
			Name:        name,
			Description: description,
			Website:     website,
			Credentials: creds,
		},
		credentials: make(map[string]string),
	}
}

func (bp *BaseProvider) Info() ProviderInfo { return bp.info }

// Init validates and stores credentials.
func (bp *BaseProvider) Init(credentials map[string]string) error {
	if err := ValidateCredentials(bp.info, credentials); err != nil {
		return err
	}
	bp.credentials = make(map[string]string, len(credentials))
	for k, v := range credentials {
		bp.credentials[k] = v
	}
	return nil
}

// Credential returns a stored credential value.
func (bp *BaseProvider) Credential(name string) string {
	return bp.credentials[name]
}

// SetRateLimit records a human-readable rate limit in the provider info.
func (bp *BaseProvider) SetRateLimit(desc string) {
	bp.info.RateLimit = desc
}
