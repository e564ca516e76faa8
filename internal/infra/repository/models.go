package repository

import (
	"time"

	"gorm.io/datatypes"

	"github.com/arjunn06/the-trade-zero-sub001/internal/domain"
)

// Models lists every table owned or read by the service, in migration order.
func Models() []interface{} {
	return []interface{}{
		&TradingAccountModel{},
		&ConnectionModel{},
		&AuthStateModel{},
		&TradeModel{},
		&PasskeyModel{},
	}
}

type TradingAccountModel struct {
	ID             string    `gorm:"column:id;primaryKey"`
	UserID         string    `gorm:"column:user_id;not null;index"`
	Name           *string   `gorm:"column:name"`
	Broker         *string   `gorm:"column:broker"`
	IsActive       bool      `gorm:"column:is_active;not null;default:true"`
	CurrentBalance float64   `gorm:"column:current_balance"`
	CurrentEquity  float64   `gorm:"column:current_equity"`
	Currency       *string   `gorm:"column:currency"`
	CreatedAt      time.Time `gorm:"column:created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at"`
}

func (TradingAccountModel) TableName() string {
	return "trading_accounts"
}

func toTradingAccountModel(account domain.TradingAccount) TradingAccountModel {
	return TradingAccountModel{
		ID:             account.ID,
		UserID:         account.UserID,
		Name:           stringPointerOrNil(account.Name),
		Broker:         stringPointerOrNil(account.Broker),
		IsActive:       account.IsActive,
		CurrentBalance: account.CurrentBalance,
		CurrentEquity:  account.CurrentEquity,
		Currency:       stringPointerOrNil(account.Currency),
	}
}

func (m TradingAccountModel) toDomain() domain.TradingAccount {
	return domain.TradingAccount{
		ID:             m.ID,
		UserID:         m.UserID,
		Name:           stringValueOrEmpty(m.Name),
		Broker:         stringValueOrEmpty(m.Broker),
		IsActive:       m.IsActive,
		CurrentBalance: m.CurrentBalance,
		CurrentEquity:  m.CurrentEquity,
		Currency:       stringValueOrEmpty(m.Currency),
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

type ConnectionModel struct {
	ID               int64      `gorm:"column:id;primaryKey;autoIncrement"`
	UserID           string     `gorm:"column:user_id;not null;index"`
	TradingAccountID string     `gorm:"column:trading_account_id;not null;uniqueIndex:idx_ctrader_connection_account,priority:1"`
	AccountNumber    string     `gorm:"column:account_number;not null;uniqueIndex:idx_ctrader_connection_account,priority:2"`
	AccessToken      string     `gorm:"column:access_token;not null"`
	RefreshToken     string     `gorm:"column:refresh_token;not null"`
	ExpiresAt        time.Time  `gorm:"column:expires_at;not null"`
	LastSync         *time.Time `gorm:"column:last_sync"`
	CreatedAt        time.Time  `gorm:"column:created_at"`
	UpdatedAt        time.Time  `gorm:"column:updated_at"`
}

func (ConnectionModel) TableName() string {
	return "ctrader_connections"
}

func toConnectionModel(conn domain.Connection) ConnectionModel {
	return ConnectionModel{
		ID:               conn.ID,
		UserID:           conn.UserID,
		TradingAccountID: conn.TradingAccountID,
		AccountNumber:    conn.AccountNumber,
		AccessToken:      conn.AccessToken,
		RefreshToken:     conn.RefreshToken,
		ExpiresAt:        conn.ExpiresAt.UTC(),
		LastSync:         conn.LastSync,
	}
}

func (m ConnectionModel) toDomain() domain.Connection {
	return domain.Connection{
		ID:               m.ID,
		UserID:           m.UserID,
		TradingAccountID: m.TradingAccountID,
		AccountNumber:    m.AccountNumber,
		AccessToken:      m.AccessToken,
		RefreshToken:     m.RefreshToken,
		ExpiresAt:        m.ExpiresAt,
		LastSync:         m.LastSync,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

type AuthStateModel struct {
	State            string    `gorm:"column:state;primaryKey"`
	UserID           string    `gorm:"column:user_id;not null"`
	TradingAccountID string    `gorm:"column:trading_account_id;not null"`
	AccountNumber    string    `gorm:"column:account_number;not null"`
	ExpiresAt        time.Time `gorm:"column:expires_at;not null;index"`
	CreatedAt        time.Time `gorm:"column:created_at"`
}

func (AuthStateModel) TableName() string {
	return "ctrader_auth_states"
}

func toAuthStateModel(state domain.AuthState) AuthStateModel {
	return AuthStateModel{
		State:            state.State,
		UserID:           state.UserID,
		TradingAccountID: state.TradingAccountID,
		AccountNumber:    state.AccountNumber,
		ExpiresAt:        state.ExpiresAt.UTC(),
	}
}

func (m AuthStateModel) toDomain() domain.AuthState {
	return domain.AuthState{
		State:            m.State,
		UserID:           m.UserID,
		TradingAccountID: m.TradingAccountID,
		AccountNumber:    m.AccountNumber,
		ExpiresAt:        m.ExpiresAt,
		CreatedAt:        m.CreatedAt,
	}
}

type TradeModel struct {
	ID               int64          `gorm:"column:id;primaryKey;autoIncrement"`
	UserID           string         `gorm:"column:user_id;not null;index"`
	TradingAccountID string         `gorm:"column:trading_account_id;not null;index:idx_trades_external,priority:1"`
	ExternalID       *string        `gorm:"column:external_id;index:idx_trades_external,priority:2"`
	Symbol           string         `gorm:"column:symbol;not null"`
	TradeType        string         `gorm:"column:trade_type;not null"`
	Quantity         float64        `gorm:"column:quantity"`
	EntryPrice       float64        `gorm:"column:entry_price"`
	ExitPrice        *float64       `gorm:"column:exit_price"`
	EntryDate        time.Time      `gorm:"column:entry_date"`
	ExitDate         *time.Time     `gorm:"column:exit_date"`
	PnL              float64        `gorm:"column:pnl"`
	Commission       float64        `gorm:"column:commission"`
	Swap             float64        `gorm:"column:swap"`
	Status           string         `gorm:"column:status;not null;index:idx_trades_external,priority:3"`
	Source           *string        `gorm:"column:source"`
	RawPayload       datatypes.JSON `gorm:"column:raw_payload"`
	CreatedAt        time.Time      `gorm:"column:created_at"`
	UpdatedAt        time.Time      `gorm:"column:updated_at"`
}

func (TradeModel) TableName() string {
	return "trades"
}

func toTradeModel(trade domain.Trade) TradeModel {
	var exitPrice *float64
	if trade.ExitDate != nil {
		price := trade.ExitPrice
		exitPrice = &price
	}
	return TradeModel{
		ID:               trade.ID,
		UserID:           trade.UserID,
		TradingAccountID: trade.TradingAccountID,
		ExternalID:       stringPointerOrNil(trade.ExternalID),
		Symbol:           trade.Symbol,
		TradeType:        trade.TradeType,
		Quantity:         trade.Quantity,
		EntryPrice:       trade.EntryPrice,
		ExitPrice:        exitPrice,
		EntryDate:        trade.EntryDate,
		ExitDate:         trade.ExitDate,
		PnL:              trade.PnL,
		Commission:       trade.Commission,
		Swap:             trade.Swap,
		Status:           string(trade.Status),
		Source:           stringPointerOrNil(trade.Source),
		RawPayload:       jsonOrEmpty(trade.RawPayload),
	}
}

func (m TradeModel) toDomain() domain.Trade {
	var exitPrice float64
	if m.ExitPrice != nil {
		exitPrice = *m.ExitPrice
	}
	return domain.Trade{
		ID:               m.ID,
		UserID:           m.UserID,
		TradingAccountID: m.TradingAccountID,
		ExternalID:       stringValueOrEmpty(m.ExternalID),
		Symbol:           m.Symbol,
		TradeType:        m.TradeType,
		Quantity:         m.Quantity,
		EntryPrice:       m.EntryPrice,
		ExitPrice:        exitPrice,
		EntryDate:        m.EntryDate,
		ExitDate:         m.ExitDate,
		PnL:              m.PnL,
		Commission:       m.Commission,
		Swap:             m.Swap,
		Status:           domain.TradeStatus(m.Status),
		Source:           stringValueOrEmpty(m.Source),
		RawPayload:       copyJSON(m.RawPayload),
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

type PasskeyModel struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	PasskeyID string    `gorm:"column:passkey_id;not null;uniqueIndex"`
	UserID    string    `gorm:"column:user_id;not null"`
	Enabled   bool      `gorm:"column:enabled;not null"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (PasskeyModel) TableName() string {
	return "passkeys"
}

func toPasskeyModel(passkey domain.Passkey) PasskeyModel {
	return PasskeyModel{
		PasskeyID: passkey.PasskeyID,
		UserID:    passkey.UserID,
		Enabled:   passkey.Enabled,
	}
}

func (m PasskeyModel) toDomain() domain.Passkey {
	return domain.Passkey{
		ID:        m.ID,
		PasskeyID: m.PasskeyID,
		UserID:    m.UserID,
		Enabled:   m.Enabled,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func stringPointerOrNil(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func stringValueOrEmpty(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func jsonOrEmpty(data []byte) datatypes.JSON {
	if len(data) == 0 {
		return datatypes.JSON([]byte("{}"))
	}
	return datatypes.JSON(append([]byte(nil), data...))
}

func copyJSON(data datatypes.JSON) []byte {
	if len(data) == 0 {
		return nil
	}
	cpy := make([]byte, len(data))
	copy(cpy, data)
	return cpy
}
