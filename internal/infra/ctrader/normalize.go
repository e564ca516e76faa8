package ctrader

import (
	"math"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/arjunn06/the-trade-zero-sub001/internal/domain"
)

// VolumeUnitsPerLot converts broker volume (minor units) to lots.
const VolumeUnitsPerLot = 100000.0

const (
	unknownSymbol   = "UNKNOWN"
	defaultCurrency = "USD"
)

func firstOf(value gjson.Result, paths ...string) gjson.Result {
	for _, path := range paths {
		if r := value.Get(path); r.Exists() {
			return r
		}
	}
	return gjson.Result{}
}

func moneyScale(value gjson.Result) float64 {
	digits := value.Get("moneyDigits")
	if !digits.Exists() {
		return 1
	}
	return math.Pow10(int(digits.Int()))
}

func normalizeSide(value gjson.Result) string {
	switch strings.ToUpper(strings.TrimSpace(value.String())) {
	case "1", "BUY":
		return "BUY"
	case "2", "SELL":
		return "SELL"
	default:
		return strings.ToUpper(strings.TrimSpace(value.String()))
	}
}

func oppositeSide(side string) string {
	switch side {
	case "BUY":
		return "SELL"
	case "SELL":
		return "BUY"
	default:
		return side
	}
}

func millisToTime(value gjson.Result) time.Time {
	if !value.Exists() || value.Int() == 0 {
		return time.Time{}
	}
	return time.UnixMilli(value.Int()).UTC()
}

// parseTrader maps a ProtoOATraderRes payload. When the broker reports
// moneyDigits, monetary fields are scaled down accordingly.
func parseTrader(payload []byte, accountNumber string, now time.Time) domain.AccountSnapshot {
	root := gjson.ParseBytes(payload)
	trader := root.Get("trader")
	if !trader.Exists() {
		trader = root
	}

	scale := moneyScale(trader)
	balance := trader.Get("balance").Float() / scale

	equity := balance
	if v := trader.Get("equity"); v.Exists() {
		equity = v.Float() / scale
	}

	margin := trader.Get("margin").Float() / scale

	freeMargin := equity - margin
	if v := trader.Get("freeMargin"); v.Exists() {
		freeMargin = v.Float() / scale
	}

	var marginLevel float64
	if v := trader.Get("marginLevel"); v.Exists() {
		marginLevel = v.Float()
	} else if margin > 0 {
		marginLevel = equity / margin * 100
	}

	currency := strings.TrimSpace(firstOf(trader, "currency", "depositAssetCurrency", "depositCurrency").String())
	if currency == "" {
		currency = defaultCurrency
	}

	return domain.AccountSnapshot{
		AccountNumber: accountNumber,
		Balance:       balance,
		Equity:        equity,
		Margin:        margin,
		FreeMargin:    freeMargin,
		MarginLevel:   marginLevel,
		Currency:      currency,
		FetchedAt:     now,
	}
}

// parsePositions maps the position list of a ProtoOAReconcileRes payload.
func parsePositions(payload []byte, now time.Time) []domain.Position {
	list := gjson.GetBytes(payload, "position")
	if !list.IsArray() {
		return []domain.Position{}
	}

	items := list.Array()
	positions := make([]domain.Position, 0, len(items))
	for _, item := range items {
		positions = append(positions, parsePosition(item, now))
	}
	return positions
}

func parsePosition(item gjson.Result, now time.Time) domain.Position {
	symbol := strings.TrimSpace(firstOf(item, "tradeData.symbolName", "symbolName", "symbol").String())
	if symbol == "" {
		symbol = unknownSymbol
	}

	commission := item.Get("commission").Float()
	swap := item.Get("swap").Float()

	var pnl float64
	if v := firstOf(item, "pnl", "unrealizedPnl"); v.Exists() {
		pnl = v.Float()
	} else {
		pnl = swap + commission + item.Get("moneyDigits").Float()
	}

	openPrice := item.Get("price").Float()
	currentPrice := openPrice
	if v := item.Get("currentPrice"); v.Exists() {
		currentPrice = v.Float()
	}

	openTime := millisToTime(firstOf(item, "tradeData.openTimestamp", "openTimestamp"))
	if openTime.IsZero() {
		openTime = now
	}

	return domain.Position{
		ID:           firstOf(item, "positionId", "id").String(),
		Symbol:       symbol,
		Side:         normalizeSide(firstOf(item, "tradeData.tradeSide", "tradeSide")),
		Volume:       firstOf(item, "tradeData.volume", "volume").Float() / VolumeUnitsPerLot,
		OpenPrice:    openPrice,
		CurrentPrice: currentPrice,
		PnL:          pnl,
		Commission:   commission,
		Swap:         swap,
		OpenTime:     openTime,
		RawPayload:   []byte(item.Raw),
	}
}

// parseDeals keeps the closing deals of a ProtoOADealListRes payload.
// A closing deal trades against the position, so the journal side is inverted.
func parseDeals(payload []byte) []domain.Deal {
	list := gjson.GetBytes(payload, "deal")
	if !list.IsArray() {
		return []domain.Deal{}
	}

	deals := make([]domain.Deal, 0)
	for _, item := range list.Array() {
		detail := item.Get("closePositionDetail")
		if !detail.Exists() {
			continue
		}

		scale := moneyScale(detail)
		symbol := strings.TrimSpace(firstOf(item, "symbolName", "symbol").String())
		if symbol == "" {
			symbol = unknownSymbol
		}

		volume := firstOf(detail, "closedVolume").Float()
		if volume == 0 {
			volume = firstOf(item, "filledVolume", "volume").Float()
		}

		deals = append(deals, domain.Deal{
			ID:         firstOf(item, "dealId", "id").String(),
			PositionID: item.Get("positionId").String(),
			Symbol:     symbol,
			Side:       oppositeSide(normalizeSide(item.Get("tradeSide"))),
			Volume:     volume / VolumeUnitsPerLot,
			EntryPrice: detail.Get("entryPrice").Float(),
			ExitPrice:  item.Get("executionPrice").Float(),
			PnL:        detail.Get("grossProfit").Float() / scale,
			Commission: detail.Get("commission").Float() / scale,
			Swap:       detail.Get("swap").Float() / scale,
			ExecutedAt: millisToTime(firstOf(item, "executionTimestamp", "createTimestamp")),
			RawPayload: []byte(item.Raw),
		})
	}
	return deals
}
