package economic

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	commonhttp "credit-analysis-workers/internal/common/http"
	"credit-analysis-workers/internal/common/logger"

	"github.com/beevik/etree"
)

// KeyRateClient reads the policy (key) rate from a central bank SOAP endpoint.
type KeyRateClient struct {
	url    string
	client *commonhttp.Client
	logger logger.Logger
	now    func() time.Time
}

func NewKeyRateClient(url string, timeout time.Duration, log logger.Logger) *KeyRateClient {
	return &KeyRateClient{
		url:    url,
		client: commonhttp.NewClient(timeout),
		logger: log.WithFields(map[string]interface{}{"component": "key-rate-client"}),
		now:    time.Now,
	}
}

// buildSOAPRequest asks for the key rates of the last 30 days.
func (c *KeyRateClient) buildSOAPRequest() string {
	now := c.now()
	return fmt.Sprintf(`<?xml version="1.0" encoding="utf-8"?>
<soap12:Envelope xmlns:soap12="http://www.w3.org/2003/05/soap-envelope">
	<soap12:Body>
		<KeyRate xmlns="http://web.cbr.ru/">
			<fromDate>%s</fromDate>
			<ToDate>%s</ToDate>
		</KeyRate>
	</soap12:Body>
</soap12:Envelope>`, now.AddDate(0, 0, -30).Format("2006-01-02"), now.Format("2006-01-02"))
}

// KeyRate returns the most recent published rate and its date.
func (c *KeyRateClient) KeyRate(ctx context.Context) (float64, string, error) {
	body, err := c.client.Post(ctx, c.url, map[string]string{
		"Content-Type": "application/soap+xml; charset=utf-8",
		"SOAPAction":   "http://web.cbr.ru/KeyRate",
	}, []byte(c.buildSOAPRequest()))
	if err != nil {
		return 0, "", fmt.Errorf("key rate request failed: %w", err)
	}

	rate, date, err := parseKeyRate(body)
	if err != nil {
		return 0, "", err
	}

	c.logger.Debug("key rate retrieved", map[string]interface{}{
		"rate": rate,
		"date": date,
	})
	return rate, date, nil
}

// parseKeyRate picks the KR row with the latest DT.
func parseKeyRate(body []byte) (float64, string, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil {
		return 0, "", fmt.Errorf("parse key rate XML: %w", err)
	}

	rows := doc.FindElements("//KeyRate/KR")
	if len(rows) == 0 {
		return 0, "", fmt.Errorf("no key rate data found in XML")
	}

	var (
		bestRate float64
		bestDate string
		found    bool
	)
	for _, row := range rows {
		rateEl := row.FindElement("./Rate")
		if rateEl == nil {
			continue
		}
		rate, err := strconv.ParseFloat(strings.TrimSpace(rateEl.Text()), 64)
		if err != nil {
			continue
		}
		date := ""
		if dt := row.FindElement("./DT"); dt != nil {
			date = strings.TrimSpace(dt.Text())
		}
		if !found || date > bestDate {
			bestRate, bestDate, found = rate, date, true
		}
	}
	if !found {
		return 0, "", fmt.Errorf("rate element not found in XML")
	}
	if len(bestDate) >= 10 {
		bestDate = bestDate[:10]
	}
	return bestRate, bestDate, nil
}
