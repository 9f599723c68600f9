package smtp

import (
	"bytes"
	"fmt"

	gosmtp "github.com/emersion/go-smtp"
)

// RelayForwarder 通过出站 SMTP 中继转发原始邮件，实现 service.Forwarder。
type RelayForwarder struct {
	relayAddr string // "host:port"
}

// NewRelayForwarder 创建转发器。relayAddr 为空时返回 nil，表示禁用转发。
func NewRelayForwarder(relayAddr string) *RelayForwarder {
	if relayAddr == "" {
		return nil
	}
	return &RelayForwarder{relayAddr: relayAddr}
}

// Forward 把原始邮件原样投递到外部地址。
func (f *RelayForwarder) Forward(from, to string, raw []byte) error {
	if err := gosmtp.SendMail(f.relayAddr, nil, from, []string{to}, bytes.NewReader(raw)); err != nil {
		return fmt.Errorf("relay to %s: %w", f.relayAddr, err)
	}
	return nil
}
