package services

import (
	"hash/fnv"
	"strings"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

// Well-known mascot assets.
const (
	AssetGreeting domain.AssetID = "mascot_hello"
	AssetGraduate domain.AssetID = "mascot_graduate"
	AssetDefault  domain.AssetID = "mascot"
	AssetLove     domain.AssetID = "mascot_love"
	AssetAlarm    domain.AssetID = "mascot_alarm"
)

// DefaultAssetRules returns the ordered keyword rules.
func DefaultAssetRules() []domain.AssetRule {
	return []domain.AssetRule{
		{
			Keywords: []string{"졸업", "졸업요건", "졸업논문", "졸업학점", "학위"},
			Asset:    AssetGraduate,
		},
	}
}

// DefaultFallbackAssets returns the assets picked from when no rule matches.
func DefaultFallbackAssets() []domain.AssetID {
	return []domain.AssetID{AssetDefault, AssetLove, AssetAlarm}
}

// SelectAsset picks the decorative asset for a response.
//
// Turn 0 is the greeting. Otherwise the first rule with a keyword contained in
// previousUserText wins. Without a match the fallback is chosen by an FNV hash
// of the text, so the same text always gets the same asset.
func SelectAsset(rules []domain.AssetRule, fallback []domain.AssetID, turn int, previousUserText string) domain.AssetID {
	if turn == 0 {
		return AssetGreeting
	}
	for _, rule := range rules {
		for _, kw := range rule.Keywords {
			if kw != "" && strings.Contains(previousUserText, kw) {
				return rule.Asset
			}
		}
	}
	if len(fallback) == 0 {
		return AssetDefault
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(previousUserText))
	return fallback[h.Sum32()%uint32(len(fallback))]
}
