package model

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/mchmarny/riskctl/pkg/net"
	"github.com/mchmarny/riskctl/pkg/risk"
)

const remoteTimeout = 10 * time.Second

// Remote delegates scoring to an external model-serving endpoint.
type Remote struct {
	ctx     context.Context
	url     string
	client  *http.Client
	timeout time.Duration
}

type remoteRequest struct {
	risk.LoanApplication
	LoanToIncome string `json:"loan_to_income"`
}

// NewRemote returns a scorer posting applications to url. A non-empty token
// is sent as a bearer credential. Calls are bound to ctx and time out after
// ten seconds.
func NewRemote(ctx context.Context, url, token string) (*Remote, error) {
	if url == "" {
		return nil, errors.New("scorer URL required")
	}
	return &Remote{
		ctx:     ctx,
		url:     url,
		client:  net.GetOAuthClient(ctx, token),
		timeout: remoteTimeout,
	}, nil
}

// Score implements risk.Scorer. Failures are returned as is; the caller
// decides how to surface them.
func (r *Remote) Score(app risk.LoanApplication) (risk.RiskAssessment, error) {
	req := remoteRequest{
		LoanApplication: app,
		LoanToIncome:    risk.FormatRatio(app.LoanToIncome()),
	}

	ctx, cancel := context.WithTimeout(r.ctx, r.timeout)
	defer cancel()

	var out risk.RiskAssessment
	if err := net.PostJSON(ctx, r.client, r.url, req, &out); err != nil {
		return risk.RiskAssessment{}, err
	}
	return out, nil
}

// Pull downloads a model document from url and validates it.
func Pull(ctx context.Context, url string) (*Document, []byte, error) {
	b, err := net.Fetch(ctx, net.GetHTTPClient(), url)
	if err != nil {
		return nil, nil, err
	}
	d, err := Parse(b)
	if err != nil {
		return nil, nil, err
	}
	return d, b, nil
}
