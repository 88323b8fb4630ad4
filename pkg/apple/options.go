package apple

// RequestOptions carries the per-request overrides read from the inbound
// request. All fields are optional; empty means "use the configured value".
// The client credential pair is honored only when both fields are set.
type RequestOptions struct {
	Scope        string
	Prompt       string
	AccessType   string
	ResponseMode string

	ClientID     string
	ClientSecret string
}

// pick resolves a value over the two ordered config sources: the
// request-scoped override first, then the static default.
func pick(override, configured string) string {
	if override != "" {
		return override
	}
	return configured
}
