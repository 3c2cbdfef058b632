// internal/gateway/gateway.go
package gateway

import "context"

// SourceVcard is the source tag attached to every reminder dispatch.
const SourceVcard = "vcard"

// SendResult reports the provider's verdict on a single send.
type SendResult struct {
	Success         bool
	ProviderMessage string
}

// Gateway delivers one text message to one phone number. Implementations
// return an error for transport-level failures and a SendResult with
// Success=false for provider-reported failures.
type Gateway interface {
	Send(ctx context.Context, phoneNumber, message, source string) (*SendResult, error)
	Name() string
}
