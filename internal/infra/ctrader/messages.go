package ctrader

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/arjunn06/the-trade-zero-sub001/internal/domain"
)

// PayloadType is the message discriminator of the Open API JSON protocol.
type PayloadType string

const (
	PayloadApplicationAuthReq PayloadType = "ProtoOAApplicationAuthReq"
	PayloadApplicationAuthRes PayloadType = "ProtoOAApplicationAuthRes"
	PayloadAccountAuthReq     PayloadType = "ProtoOAAccountAuthReq"
	PayloadAccountAuthRes     PayloadType = "ProtoOAAccountAuthRes"
	PayloadTraderReq          PayloadType = "ProtoOATraderReq"
	PayloadTraderRes          PayloadType = "ProtoOATraderRes"
	PayloadReconcileReq       PayloadType = "ProtoOAReconcileReq"
	PayloadReconcileRes       PayloadType = "ProtoOAReconcileRes"
	PayloadDealListReq        PayloadType = "ProtoOADealListReq"
	PayloadDealListRes        PayloadType = "ProtoOADealListRes"
	PayloadOAErrorRes         PayloadType = "ProtoOAErrorRes"
	PayloadErrorRes           PayloadType = "ProtoErrorRes"
	PayloadHeartbeatEvent     PayloadType = "ProtoHeartbeatEvent"
)

// payloadCodes maps the numeric discriminators sent by the JSON gateway.
var payloadCodes = map[int64]PayloadType{
	50:   PayloadErrorRes,
	51:   PayloadHeartbeatEvent,
	2100: PayloadApplicationAuthReq,
	2101: PayloadApplicationAuthRes,
	2102: PayloadAccountAuthReq,
	2103: PayloadAccountAuthRes,
	2121: PayloadTraderReq,
	2122: PayloadTraderRes,
	2124: PayloadReconcileReq,
	2125: PayloadReconcileRes,
	2133: PayloadDealListReq,
	2134: PayloadDealListRes,
	2142: PayloadOAErrorRes,
}

func (p *PayloadType) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = PayloadType(s)
		return nil
	}

	code, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return err
	}
	if name, ok := payloadCodes[code]; ok {
		*p = name
		return nil
	}
	*p = PayloadType(strconv.FormatInt(code, 10))
	return nil
}

func (p PayloadType) IsError() bool {
	return strings.Contains(string(p), "Error")
}

type envelope struct {
	ClientMsgID string          `json:"clientMsgId,omitempty"`
	PayloadType PayloadType     `json:"payloadType"`
	Payload     json.RawMessage `json:"payload,omitempty"`
}

type applicationAuthReq struct {
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret"`
}

type accountAuthReq struct {
	CtidTraderAccountID int64  `json:"ctidTraderAccountId"`
	AccessToken         string `json:"accessToken"`
}

type traderReq struct {
	CtidTraderAccountID int64 `json:"ctidTraderAccountId"`
}

type reconcileReq struct {
	CtidTraderAccountID int64 `json:"ctidTraderAccountId"`
}

type dealListReq struct {
	CtidTraderAccountID int64 `json:"ctidTraderAccountId"`
	FromTimestamp       int64 `json:"fromTimestamp"`
	ToTimestamp         int64 `json:"toTimestamp"`
}

func protocolErrorFrom(env envelope) *domain.ProtocolError {
	code := gjson.GetBytes(env.Payload, "errorCode").String()
	if code == "" {
		code = string(env.PayloadType)
	}
	return &domain.ProtocolError{
		Code:        code,
		Description: gjson.GetBytes(env.Payload, "description").String(),
	}
}
