package collectors

import "strings"

// Per-venue coin identifiers for the majors. Sources that key coins by
// slug instead of ticker symbol resolve through these maps; unmapped
// symbols fall back to the lowercased symbol, which covers most
// single-word coin names.

var coingeckoIDs = map[string]string{
	"BTC":   "bitcoin",
	"ETH":   "ethereum",
	"SOL":   "solana",
	"XRP":   "ripple",
	"BNB":   "binancecoin",
	"DOGE":  "dogecoin",
	"TRX":   "tron",
	"AVAX":  "avalanche-2",
	"ADA":   "cardano",
	"DOT":   "polkadot",
	"LINK":  "chainlink",
	"UNI":   "uniswap",
	"LTC":   "litecoin",
	"BCH":   "bitcoin-cash",
	"ATOM":  "cosmos",
	"NEAR":  "near",
	"ALGO":  "algorand",
	"FIL":   "filecoin",
	"AAVE":  "aave",
	"USDT":  "tether",
	"USDC":  "usd-coin",
	"MATIC": "matic-network",
}

var coinpaprikaIDs = map[string]string{
	"BTC":   "btc-bitcoin",
	"ETH":   "eth-ethereum",
	"SOL":   "sol-solana",
	"XRP":   "xrp-xrp",
	"BNB":   "bnb-binance-coin",
	"DOGE":  "doge-dogecoin",
	"TRX":   "trx-tron",
	"AVAX":  "avax-avalanche",
	"ADA":   "ada-cardano",
	"DOT":   "dot-polkadot",
	"LINK":  "link-chainlink",
	"UNI":   "uni-uniswap",
	"LTC":   "ltc-litecoin",
	"BCH":   "bch-bitcoin-cash",
	"ATOM":  "atom-cosmos",
	"NEAR":  "near-near-protocol",
	"ALGO":  "algo-algorand",
	"FIL":   "fil-filecoin",
	"AAVE":  "aave-new",
	"USDT":  "usdt-tether",
	"USDC":  "usdc-usd-coin",
	"MATIC": "matic-polygon",
}

func coingeckoID(symbol string) string {
	if id, ok := coingeckoIDs[strings.ToUpper(symbol)]; ok {
		return id
	}
	return strings.ToLower(symbol)
}

func coinpaprikaID(symbol string) string {
	if id, ok := coinpaprikaIDs[strings.ToUpper(symbol)]; ok {
		return id
	}
	return strings.ToLower(symbol)
}

// coincapID matches CoinGecko slugs for the majors.
func coincapID(symbol string) string {
	return coingeckoID(symbol)
}

func binancePair(symbol string) string {
	return strings.ToUpper(symbol) + "USDT"
}
