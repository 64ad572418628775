// Package jupiter talks to the Jupiter price and quote APIs and exposes them as
// venue strategies.
package jupiter

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/fd1az/dex-arbitrage-scanner/business/pricing/domain"
	"github.com/fd1az/dex-arbitrage-scanner/internal/apperror"
	"github.com/fd1az/dex-arbitrage-scanner/internal/asset"
	"github.com/fd1az/dex-arbitrage-scanner/internal/httpclient"
	"github.com/fd1az/dex-arbitrage-scanner/internal/ratelimit"
)

const (
	DefaultPriceURL    = "https://price.jup.ag/v6/price"
	DefaultQuoteURL    = "https://quote-api.jup.ag/v6/quote"
	DefaultQuoteAmount = 1_000_000_000
	DefaultSlippageBps = 50
)

// Config points the client at the Jupiter APIs.
type Config struct {
	PriceURL string
	QuoteURL string
	// QuoteAmount is the raw input amount sent to the quote API.
	QuoteAmount uint64
	SlippageBps int
}

func (c Config) withDefaults() Config {
	if c.PriceURL == "" {
		c.PriceURL = DefaultPriceURL
	}
	if c.QuoteURL == "" {
		c.QuoteURL = DefaultQuoteURL
	}
	if c.QuoteAmount == 0 {
		c.QuoteAmount = DefaultQuoteAmount
	}
	if c.SlippageBps <= 0 {
		c.SlippageBps = DefaultSlippageBps
	}
	return c
}

// Route restricts the quote API's routing.
type Route struct {
	OnlyDirect   bool
	Dexes        []string
	ExcludeDexes []string
}

// Client is safe for concurrent use.
type Client struct {
	http    httpclient.Client
	limiter *ratelimit.Limiter
	cfg     Config
}

// NewClient creates a Jupiter client. limiter may be nil.
func NewClient(http httpclient.Client, limiter *ratelimit.Limiter, cfg Config) *Client {
	return &Client{http: http, limiter: limiter, cfg: cfg.withDefaults()}
}

func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return apperror.FromTransport(err, "jupiter: rate limiter")
	}
	return nil
}

// Price reads data[base].price from the price API, quoted in quote. sources
// narrows the price to one DEX when set.
func (c *Client) Price(ctx context.Context, base, quote asset.Token, sources string) (float64, error) {
	if err := c.wait(ctx); err != nil {
		return 0, err
	}

	params := map[string]string{
		"ids":     base.Address().String(),
		"vsToken": quote.Address().String(),
	}
	if sources != "" {
		params["sources"] = sources
	}

	var resp priceResponse
	_, err := c.http.NewRequestWithOptions(
		httpclient.WithResponseErrorHandler(httpclient.StatusErrorHandler("jupiter.price")),
		httpclient.WithLabels(httpclient.NewLabel("endpoint", "price")),
	).
		SetQueryParams(params).
		SetResult(&resp).
		Get(ctx, c.cfg.PriceURL)
	if err != nil {
		return 0, err
	}

	entry, ok := resp.Data[base.Address().String()]
	if !ok || entry.Price <= 0 {
		return 0, apperror.New(apperror.CodeQuoteAbsent,
			apperror.WithContext(fmt.Sprintf("jupiter.price %s/%s sources=%q", base.Symbol(), quote.Symbol(), sources)))
	}
	return float64(entry.Price), nil
}

// RouteQuote asks the quote API to swap QuoteAmount of pair.Base into pair.Quote
// and prices the pair from the amounts it returned.
func (c *Client) RouteQuote(ctx context.Context, pair domain.Pair, route Route) (float64, error) {
	if err := c.wait(ctx); err != nil {
		return 0, err
	}

	params := map[string]string{
		"inputMint":   pair.Base.Address().String(),
		"outputMint":  pair.Quote.Address().String(),
		"amount":      strconv.FormatUint(c.cfg.QuoteAmount, 10),
		"slippageBps": strconv.Itoa(c.cfg.SlippageBps),
	}
	if route.OnlyDirect {
		params["onlyDirectRoutes"] = "true"
	}
	if len(route.Dexes) > 0 {
		params["dexes"] = strings.Join(route.Dexes, ",")
	}
	if len(route.ExcludeDexes) > 0 {
		params["excludeDexes"] = strings.Join(route.ExcludeDexes, ",")
	}

	var resp quoteResponse
	_, err := c.http.NewRequestWithOptions(
		httpclient.WithResponseErrorHandler(quoteErrorHandler),
		httpclient.WithLabels(httpclient.NewLabel("endpoint", "quote")),
	).
		SetQueryParams(params).
		SetResult(&resp).
		Get(ctx, c.cfg.QuoteURL)
	if err != nil {
		return 0, err
	}

	return priceFromQuote(pair, resp)
}

// quoteErrorHandler treats "no route" 400s as an absent quote.
func quoteErrorHandler(status int, body []byte) error {
	if status == 400 && strings.Contains(strings.ToLower(string(body)), "route") {
		return apperror.New(apperror.CodeQuoteAbsent, apperror.WithContext("jupiter.quote: no route"), apperror.WithStatusCode(status))
	}
	if appErr := apperror.FromStatus(status, "jupiter.quote"); appErr != nil {
		return appErr
	}
	return nil
}

func priceFromQuote(pair domain.Pair, resp quoteResponse) (float64, error) {
	absent := func(why string) error {
		return apperror.New(apperror.CodeQuoteAbsent,
			apperror.WithContext(fmt.Sprintf("jupiter.quote %s: %s", pair, why)))
	}

	if resp.Error != "" {
		return 0, absent(resp.Error)
	}
	if resp.InAmount == "" || resp.OutAmount == "" {
		return 0, absent("missing amounts")
	}

	in, err := asset.ParseRaw(pair.Base, resp.InAmount)
	if err != nil {
		return 0, absent("inAmount " + resp.InAmount)
	}
	out, err := asset.ParseRaw(pair.Quote, resp.OutAmount)
	if err != nil {
		return 0, absent("outAmount " + resp.OutAmount)
	}

	price, err := asset.PriceOf(in, out)
	if err != nil {
		return 0, absent(err.Error())
	}
	f, _ := price.Float64()
	return f, nil
}
