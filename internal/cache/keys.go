package cache

import (
	"strings"
	"time"
)

// Default TTLs for the logical caches kept by the application.
const (
	QueryTTL  = 300 * time.Second
	PriceTTL  = 30 * time.Second
	WalletTTL = 60 * time.Second
)

// QueryKey returns the cache key for a raw query.
func QueryKey(query string) string {
	return "query:" + query
}

// PriceKey returns the cache key for a token price. Symbols are case-insensitive.
func PriceKey(symbol string) string {
	return "price:" + strings.ToLower(symbol)
}

// WalletKey returns the cache key for a wallet address.
func WalletKey(address string) string {
	return "wallet:" + address
}
