package common

//go:generate go run github.com/dmarkham/enumer -json -type ProviderTag -trimprefix Provider

// ProviderTag identifies the URL lifecycle convention of a catalog provider
type ProviderTag int

const (
	// ProviderSigned hands out short-lived signed URLs that must be refreshed on expiry
	ProviderSigned ProviderTag = iota
	// ProviderOpen hands out permanent, publicly accessible URLs
	ProviderOpen
	// ProviderGeneric is any other STAC endpoint; URLs are taken as-is
	ProviderGeneric
)

// SigningCapable returns whether assets of this provider go through the signing lifecycle
func (p ProviderTag) SigningCapable() bool {
	return p == ProviderSigned
}
