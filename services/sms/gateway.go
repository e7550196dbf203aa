// Package smssvc delivers SMS notifications through the provider's HTTP
// gateway.
package smssvc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"

	"github.com/pkg/errors"

	"github.com/RealCodeCrafter/ERP/core"
)

type gatewayService struct {
	apiURL string
	token  string
	from   string
	client *http.Client
	logger core.Logger
}

var _ core.SMSService = (*gatewayService)(nil)

func NewGatewayService(conf *core.Config, logger core.Logger) *gatewayService {
	return &gatewayService{
		apiURL: conf.SMS.APIURL,
		token:  conf.SMS.APIToken,
		from:   conf.SMS.From,
		client: new(http.Client),
		logger: logger,
	}
}

type gatewayPayload struct {
	MobilePhone string `json:"mobile_phone"`
	Message     string `json:"message"`
	From        string `json:"from"`
}

func (svc *gatewayService) SendSMS(ctx context.Context, phone, message string) error {
	payload, err := json.Marshal(gatewayPayload{
		MobilePhone: phone,
		Message:     message,
		From:        svc.from,
	})
	if err != nil {
		return errors.Wrap(err, "encoding SMS payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, svc.apiURL, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, "building SMS request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+svc.token)

	res, err := svc.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "calling SMS gateway")
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode >= http.StatusBadRequest {
		body, _ := ioutil.ReadAll(io.LimitReader(res.Body, 1024))
		return errors.Errorf("SMS gateway status %d: %s", res.StatusCode, body)
	}

	svc.logger.Debug(fmt.Sprintf("SMS sent to %s", phone))
	return nil
}
