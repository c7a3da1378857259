package coingecko

import "strings"

// DefaultBaseURL is the public CoinGecko API host.
const DefaultBaseURL = "https://api.coingecko.com"

// CoinICP is the CoinGecko identifier for the Internet Computer token.
const CoinICP = "internet-computer"

// supportedCoins are the CoinGecko IDs the service advertises.
var supportedCoins = []string{
	"bitcoin",
	"ethereum",
	"internet-computer",
	"solana",
	"cardano",
	"polkadot",
	"binancecoin",
	"ripple",
	"dogecoin",
	"shiba-inu",
}

// coinAliases maps common ticker symbols to CoinGecko coin IDs.
var coinAliases = map[string]string{
	"btc":  "bitcoin",
	"eth":  "ethereum",
	"icp":  "internet-computer",
	"sol":  "solana",
	"ada":  "cardano",
	"dot":  "polkadot",
	"bnb":  "binancecoin",
	"xrp":  "ripple",
	"doge": "dogecoin",
	"shib": "shiba-inu",
}

// SupportedCoins returns the advertised coin ID list.
func SupportedCoins() []string {
	out := make([]string, len(supportedCoins))
	copy(out, supportedCoins)
	return out
}

// NormalizeCoinID lowercases the ID and resolves ticker aliases, so "BTC"
// and "bitcoin" address the same cache and ledger entries.
func NormalizeCoinID(coinID string) string {
	id := strings.ToLower(strings.TrimSpace(coinID))
	if full, ok := coinAliases[id]; ok {
		return full
	}
	return id
}
