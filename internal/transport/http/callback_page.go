package http

import (
	"bytes"
	"html/template"

	fiber "github.com/gofiber/fiber/v2"
)

type callbackPage struct {
	Status           string
	Message          string
	TradingAccountID string
	AccountNumber    string
}

// The page reports the outcome to the window that opened the popup and closes itself.
var callbackTemplate = template.Must(template.New("callback").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>cTrader connection</title>
</head>
<body>
<p>{{.Message}}</p>
<script>
(function () {
  var result = {
    type: "ctrader-oauth",
    status: {{.Status}},
    message: {{.Message}},
    tradingAccountId: {{.TradingAccountID}},
    accountNumber: {{.AccountNumber}}
  };
  if (window.opener) {
    window.opener.postMessage(result, "*");
  }
  setTimeout(function () { window.close(); }, 1500);
})();
</script>
</body>
</html>
`))

func renderCallback(c *fiber.Ctx, status int, page callbackPage) error {
	var buf bytes.Buffer
	if err := callbackTemplate.Execute(&buf, page); err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Status(status).Send(buf.Bytes())
}
