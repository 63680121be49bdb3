package sms

import (
	"context"
	"time"

	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common"
	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common/profile"
	smsapi "github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/sms/v20210111"
)

// TencentConfig carries the credentials and sender identity for the
// Tencent Cloud SMS product.
type TencentConfig struct {
	SecretID  string
	SecretKey string
	Region    string        // e.g. "ap-guangzhou"
	SdkAppID  string        // SMS application ID from the console
	SignName  string        // approved signature content
	Timeout   time.Duration // per-request HTTP timeout
}

// TencentGateway implements Gateway on top of the Tencent Cloud SMS API
// (sms v20210111). One gateway instance is safe for concurrent use.
type TencentGateway struct {
	client   *smsapi.Client
	sdkAppID string
	signName string
}

// NewTencentGateway builds the API client. The request timeout is bounded
// so a stalled provider cannot hold a request handler indefinitely.
func NewTencentGateway(cfg TencentConfig) (*TencentGateway, error) {
	cred := common.NewCredential(cfg.SecretID, cfg.SecretKey)

	cpf := profile.NewClientProfile()
	if cfg.Timeout > 0 {
		cpf.HttpProfile.ReqTimeout = int(cfg.Timeout / time.Second)
	}

	client, err := smsapi.NewClient(cred, cfg.Region, cpf)
	if err != nil {
		return nil, err
	}

	return &TencentGateway{
		client:   client,
		sdkAppID: cfg.SdkAppID,
		signName: cfg.SignName,
	}, nil
}

// Send delivers one templated message to every phone in the list and maps
// the provider's SendStatusSet to per-recipient statuses.
func (g *TencentGateway) Send(ctx context.Context, phones []string, templateID string, params []string) ([]SendStatus, error) {
	req := smsapi.NewSendSmsRequest()
	req.SmsSdkAppId = common.StringPtr(g.sdkAppID)
	req.SignName = common.StringPtr(g.signName)
	req.TemplateId = common.StringPtr(templateID)
	req.TemplateParamSet = common.StringPtrs(params)
	req.PhoneNumberSet = common.StringPtrs(phones)

	resp, err := g.client.SendSmsWithContext(ctx, req)
	if err != nil {
		return nil, err
	}

	set := resp.Response.SendStatusSet
	out := make([]SendStatus, 0, len(set))
	for _, st := range set {
		if st == nil {
			continue
		}
		out = append(out, SendStatus{
			Phone:    deref(st.PhoneNumber),
			Code:     deref(st.Code),
			Message:  deref(st.Message),
			SerialNo: deref(st.SerialNo),
		})
	}
	return out, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
