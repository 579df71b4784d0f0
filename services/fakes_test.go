package services

import (
	"context"
	"time"

	"go-storefront/utils"
)

type stubVerifier struct {
	identity utils.FederatedIdentity
	err      error
}

func (s stubVerifier) Verify(context.Context, string) (utils.FederatedIdentity, error) {
	return s.identity, s.err
}

type sentCode struct {
	to   string
	code string
}

type recordingNotifier struct {
	sent []sentCode
	err  error
}

func (n *recordingNotifier) SendPasswordResetCode(_ context.Context, to, _, code string, _ time.Duration) error {
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, sentCode{to: to, code: code})
	return nil
}

func (n *recordingNotifier) last() string {
	if len(n.sent) == 0 {
		return ""
	}
	return n.sent[len(n.sent)-1].code
}
