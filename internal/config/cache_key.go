package config

import (
	"fmt"
	"strings"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// UserSessionKey returns the cache key holding the active token id for a user.
func (r *CacheKeyStruct) UserSessionKey(userID string) string {
	return fmt.Sprintf("login:%s", userID)
}

// UsedResetTokenKey marks a password reset token as consumed.
func (r *CacheKeyStruct) UsedResetTokenKey(tokenID string) string {
	return fmt.Sprintf("auth:reset:used:%s", tokenID)
}

// LicenseTypesKey caches the full license type list.
func (r *CacheKeyStruct) LicenseTypesKey() string {
	return "catalog:license_types"
}

// CategoriesKey caches the category list with question counts.
func (r *CacheKeyStruct) CategoriesKey() string {
	return "catalog:categories"
}

// LeaderboardKey returns the sorted set holding best scores for a license code.
func (r *CacheKeyStruct) LeaderboardKey(licenseCode string) string {
	return fmt.Sprintf("leaderboard:%s:score", strings.ToUpper(licenseCode))
}

var CacheKey = NewCacheKeyStruct()
