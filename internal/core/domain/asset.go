package domain

// AssetID names a decorative response asset such as a mascot image.
type AssetID string

// AssetRule maps keywords in the previous user message to an asset.
// Rules are evaluated in order; the first match wins.
type AssetRule struct {
	Keywords []string
	Asset    AssetID
}
