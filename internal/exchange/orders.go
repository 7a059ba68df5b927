package exchange

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"openclaw/internal/helper"
	"openclaw/internal/models"
	"openclaw/pkg/logger"

	"github.com/google/uuid"
)

type orderResponse struct {
	OrderID      int64  `json:"orderId"`
	Status       string `json:"status"`
	ExecutedQty  string `json:"executedQty"`
	CumQuoteQty  string `json:"cummulativeQuoteQty"`
	TransactTime int64  `json:"transactTime"`
	Fills        []struct {
		Price string `json:"price"`
		Qty   string `json:"qty"`
	} `json:"fills"`
}

// Execute ставит рыночный ордер и защитный стоп.
// Количество приводится к точности биржи до отправки; если после
// округления осталось меньше минимума — сделка скипается, не ошибка.
func (c *Client) Execute(ctx context.Context, req models.OrderRequest) (models.ExecutionResult, error) {
	qty := helper.RoundQty(req.Quantity, req.Price)
	qty = applySymbolMin(req.Symbol, qty)
	if qty <= 0 {
		logger.Warn("[EXCHANGE] %s: qty rounded to zero, skip", req.Symbol)
		return models.ExecutionResult{Status: models.ExecSkipped}, nil
	}

	params := url.Values{}
	params.Set("symbol", req.Symbol)
	params.Set("side", string(req.Side))
	params.Set("type", "MARKET")
	params.Set("quantity", formatQty(qty))
	params.Set("newClientOrderId", "oc-"+uuid.NewString())

	var resp orderResponse
	if err := c.doSigned(ctx, http.MethodPost, "/api/v3/order", params, &resp); err != nil {
		return models.ExecutionResult{Status: models.ExecError}, err
	}

	filledQty, fillPrice := fillStats(resp, qty, req.Price)
	logger.Info("[EXCHANGE] 🚀 %s %s qty=%s orderId=%d", req.Side, req.Symbol, formatQty(filledQty), resp.OrderID)

	// Защитный стоп. Спот: баланс блокируется стопом, поэтому TP лимиткой
	// поверх не ставим — выход по тейку закрывает внешний контур.
	if req.SL > 0 {
		if err := c.placeStopLoss(ctx, req, filledQty); err != nil {
			logger.Warn("[EXCHANGE] ⚠️ %s: stop loss not placed: %v", req.Symbol, err)
		}
	}

	return models.ExecutionResult{
		Status:    models.ExecFilled,
		OrderID:   strconv.FormatInt(resp.OrderID, 10),
		Quantity:  filledQty,
		FillPrice: fillPrice,
	}, nil
}

func (c *Client) placeStopLoss(ctx context.Context, req models.OrderRequest, qty float64) error {
	exitSide := models.SideSell
	if req.Side == models.SideSell {
		exitSide = models.SideBuy
	}

	params := url.Values{}
	params.Set("symbol", req.Symbol)
	params.Set("side", string(exitSide))
	params.Set("type", "STOP_LOSS_LIMIT")
	params.Set("quantity", formatQty(qty))
	params.Set("price", formatPrice(req.SL))
	params.Set("stopPrice", formatPrice(req.SL))
	params.Set("timeInForce", "GTC")
	params.Set("newClientOrderId", "oc-sl-"+uuid.NewString())

	return c.doSigned(ctx, http.MethodPost, "/api/v3/order", params, nil)
}

func fillStats(resp orderResponse, fallbackQty, fallbackPrice float64) (qty, price float64) {
	qty, _ = strconv.ParseFloat(resp.ExecutedQty, 64)
	if qty <= 0 {
		qty = fallbackQty
	}

	var quoteSum, qtySum float64
	for _, f := range resp.Fills {
		p, _ := strconv.ParseFloat(f.Price, 64)
		q, _ := strconv.ParseFloat(f.Qty, 64)
		quoteSum += p * q
		qtySum += q
	}
	if qtySum > 0 {
		return qty, quoteSum / qtySum
	}
	return qty, fallbackPrice
}

// applySymbolMin — минимальные лоты крупных монет, иначе биржа режект.
func applySymbolMin(symbol string, qty float64) float64 {
	if qty <= 0 {
		return 0
	}
	switch {
	case hasBase(symbol, "BTC") && qty < 0.001:
		return 0.001
	case hasBase(symbol, "ETH") && qty < 0.01:
		return 0.01
	}
	return qty
}

func hasBase(symbol, base string) bool {
	return len(symbol) >= len(base) && symbol[:len(base)] == base
}

func formatQty(q float64) string   { return strconv.FormatFloat(q, 'f', -1, 64) }
func formatPrice(p float64) string { return strconv.FormatFloat(p, 'f', -1, 64) }
