package smssvc

import (
	"context"
	"log"
	"sync"

	"github.com/RealCodeCrafter/ERP/core"
)

// SentMessage is one message captured by the console service.
type SentMessage struct {
	Phone   string
	Message string
}

var (
	SentMessages = make([]SentMessage, 0)
	mu           sync.Mutex
)

// ClearSentMessages resets the capture buffer between tests.
func ClearSentMessages() {
	mu.Lock()
	SentMessages = SentMessages[:0]
	mu.Unlock()
}

// GetSentMessages returns a snapshot of the capture buffer.
func GetSentMessages() []SentMessage {
	mu.Lock()
	defer mu.Unlock()
	return append([]SentMessage(nil), SentMessages...)
}

// consoleService logs messages instead of delivering them. Used for local
// runs and tests.
type consoleService struct {
	disableOutput bool
}

var _ core.SMSService = (*consoleService)(nil)

func NewConsoleService(disableOutput bool) core.SMSService {
	return &consoleService{disableOutput: disableOutput}
}

func (svc *consoleService) SendSMS(_ context.Context, phone, message string) error {
	mu.Lock()
	SentMessages = append(SentMessages, SentMessage{Phone: phone, Message: message})
	mu.Unlock()

	if !svc.disableOutput {
		log.Printf("SMS to %s: %s\n", phone, message)
	}
	return nil
}
