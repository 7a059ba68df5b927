package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"openclaw/internal/exchange"
)

// Диагностика ключей и аккаунта: баланс основных активов и право
// торговать. Проверяет то же, что и боевой бот, но без запуска цикла.
var majorAssets = []string{"USDT", "BTC", "ETH", "BNB"}

func run() error {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("EXCHANGE_BASE_URL", "https://testnet.binance.vision")
	v.SetDefault("QUOTE_ASSET", "USDT")
	v.SetDefault("REQUEST_TIMEOUT", "10s")

	apiKey := v.GetString("BINANCE_API_KEY")
	secret := v.GetString("BINANCE_SECRET_KEY")
	if apiKey == "" || secret == "" {
		return errors.New("BINANCE_API_KEY / BINANCE_SECRET_KEY not set")
	}
	fmt.Printf("Checking keys: API_KEY %s...\n", apiKey[:min(10, len(apiKey))])

	cl := exchange.NewClient(v.GetString("EXCHANGE_BASE_URL"), v.GetString("QUOTE_ASSET"), v.GetDuration("REQUEST_TIMEOUT"))
	cl.SetCreds(apiKey, secret)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	info, err := cl.Account(ctx)
	if err != nil {
		return errors.Wrap(err, "fetch account")
	}

	fmt.Println("✅ Keys are valid.")
	if !info.CanTrade {
		fmt.Println("⚠️ Account exists but trading is disabled.")
	}

	fmt.Println("\n💰 MAJOR ASSETS:")
	found := false
	for _, asset := range majorAssets {
		for _, b := range info.Balances {
			if b.Asset != asset {
				continue
			}
			free, _ := strconv.ParseFloat(b.Free, 64)
			locked, _ := strconv.ParseFloat(b.Locked, 64)
			if free+locked > 0 {
				fmt.Printf("   - %s: Available=%.4f, In Order=%.4f, Total=%.4f\n", asset, free, locked, free+locked)
				found = true
			}
		}
	}
	if !found {
		fmt.Println("   (No major assets found)")
	}

	equity, err := cl.Equity(ctx)
	if err != nil {
		return errors.Wrap(err, "fetch equity")
	}
	fmt.Printf("\nEquity (%s free): %.2f\n", v.GetString("QUOTE_ASSET"), equity)

	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}
