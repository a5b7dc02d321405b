package domain

// RawTicker is a venue-supplied 24h ticker reduced to the common field set.
// Price and volume fields stay strings end to end; they are decimal values on
// the wire and converting them to binary floats at the boundary loses precision.
type RawTicker struct {
	Symbol             string
	LastPrice          string
	HighPrice          string
	LowPrice           string
	BidPrice           string
	AskPrice           string
	OpenPrice          string
	PrevClosePrice     string
	QuoteVolume        string
	PriceChangePercent string
	Count              int64
}

// Ticker is the normalized, enriched record every consumer operates on.
// FundingRate/OpenInterest are nil when no derivatives record matched the
// symbol; nil and "0" are different observations.
type Ticker struct {
	RawTicker

	Exchange   string
	BaseAsset  string
	QuoteAsset string

	Spread     float64 // (ask-bid)/ask*100, 0 when ask <= 0
	Volatility float64 // (high-low)/low*100, 0 when low <= 0

	FundingRate  *string
	OpenInterest *string

	LastNum float64 // best-effort parse of LastPrice, for sorting only
	Ts      int64   // unix ms, fetch time
}

// FundingRate is one record of the secondary derivatives feed, keyed by symbol.
type FundingRate struct {
	Symbol          string
	MarkPrice       string
	IndexPrice      string
	LastFundingRate string
	NextFundingTime int64 // unix ms
	InterestRate    string
	OpenInterest    string
	Time            int64 // unix ms
}

// Kline is one candle, used for the commentary price history.
type Kline struct {
	OpenTime int64
	Open     string
	High     string
	Low      string
	Close    string
	Volume   string
}

const (
	SideBuy  = "BUY"
	SideSell = "SELL"
)

// Liquidation is a single forced-closure event from a venue push stream.
// Append-only; never mutated after creation.
type Liquidation struct {
	Symbol   string
	Side     string // BUY or SELL
	Price    string
	Qty      string
	USDValue float64 // price*qty, computed once at ingestion
	Ts       int64   // unix ms
	Exchange string
}
