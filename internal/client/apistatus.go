package client

import "strings"

// Environment variables inspected by CheckAPIStatus.
const (
	OpenAIKeyEnv     = "OPENAI_API_KEY"
	CoinGeckoKeyEnv  = "COINGECKO_API_KEY"
	TitanTokenEnv    = "TITAN_API_TOKEN"
	RealtimePriceEnv = "REALTIME_PRICE_ENABLED"
	realtimeDefault  = "true"
)

// CheckAPIStatus derives the APIStatus from the environment seen through lookup.
//
// A key counts as configured when it is set, even to an empty value.
// Realtime prices are on unless REALTIME_PRICE_ENABLED is set to something
// other than "true" (case-insensitive).
func CheckAPIStatus(lookup func(string) (string, bool)) APIStatus {
	has := func(name string) bool {
		_, ok := lookup(name)

		return ok
	}

	realtime, ok := lookup(RealtimePriceEnv)
	if !ok {
		realtime = realtimeDefault
	}

	openAI := has(OpenAIKeyEnv)
	coinGecko := has(CoinGeckoKeyEnv)

	return APIStatus{
		Intelligence:  openAI,
		Memory:        openAI,
		MarketData:    coinGecko,
		Websocket:     coinGecko && strings.EqualFold(realtime, "true"),
		TokenSwapping: has(TitanTokenEnv),
	}
}
