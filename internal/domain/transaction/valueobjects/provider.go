package valueobjects

type Provider string

const (
	ProviderYooKassa   Provider = "yookassa"
	ProviderTribute    Provider = "tribute"
	ProviderPortalFree Provider = "portal_free"
)

func (p Provider) IsValid() bool {
	switch p {
	case ProviderYooKassa, ProviderTribute, ProviderPortalFree:
		return true
	default:
		return false
	}
}

func (p Provider) String() string {
	return string(p)
}
