package notifier

import (
	"context"
	"fmt"
	"net/smtp"

	"goloja/internal/domain"
	"goloja/internal/pkg/logger"
)

// Notifier define o contrato das notificações transacionais do pedido.
// Todas as operações são best-effort: o chamador registra a falha em log e
// nunca propaga o erro para a operação principal.
type Notifier interface {
	SendOrderConfirmation(ctx context.Context, order domain.Order, user domain.User) error
	SendStatusUpdate(ctx context.Context, order domain.Order, user domain.User) error
	SendShippingConfirmation(ctx context.Context, order domain.Order, user domain.User, trackingCode string) error
}

// SMTPNotifier envia as notificações por e-mail via SMTP simples.
type SMTPNotifier struct {
	addr   string // host:porta do servidor SMTP
	from   string
	logger logger.Logger
}

// NewSMTPNotifier cria um notificador SMTP. Chamado no main.go.
func NewSMTPNotifier(addr, from string, log logger.Logger) *SMTPNotifier {
	return &SMTPNotifier{addr: addr, from: from, logger: log}
}

func (n *SMTPNotifier) send(to, subject, body string) error {
	if to == "" {
		// Pedido de visitante sem cadastro: não há para quem notificar.
		return nil
	}
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n", n.from, to, subject, body)
	return smtp.SendMail(n.addr, nil, n.from, []string{to}, []byte(msg))
}

// SendOrderConfirmation envia a confirmação de criação do pedido.
func (n *SMTPNotifier) SendOrderConfirmation(ctx context.Context, order domain.Order, user domain.User) error {
	subject := fmt.Sprintf("Pedido %s recebido", order.OrderNumber)
	body := fmt.Sprintf("Olá %s,\n\nRecebemos o seu pedido %s no valor de R$ %.2f.\n", user.Name, order.OrderNumber, order.Total)
	return n.send(user.Email, subject, body)
}

// SendStatusUpdate envia a notificação de mudança de status do pedido.
func (n *SMTPNotifier) SendStatusUpdate(ctx context.Context, order domain.Order, user domain.User) error {
	subject := fmt.Sprintf("Pedido %s atualizado", order.OrderNumber)
	body := fmt.Sprintf("Olá %s,\n\nO status do seu pedido %s agora é: %s.\n", user.Name, order.OrderNumber, order.Status)
	return n.send(user.Email, subject, body)
}

// SendShippingConfirmation envia a confirmação de envio com o código de rastreio.
func (n *SMTPNotifier) SendShippingConfirmation(ctx context.Context, order domain.Order, user domain.User, trackingCode string) error {
	subject := fmt.Sprintf("Pedido %s enviado", order.OrderNumber)
	body := fmt.Sprintf("Olá %s,\n\nO seu pedido %s foi enviado. Código de rastreio: %s (%s).\n",
		user.Name, order.OrderNumber, trackingCode, order.ShippingCarrier)
	return n.send(user.Email, subject, body)
}

// NoopNotifier descarta todas as notificações. Usado em testes e em ambientes
// sem servidor SMTP configurado.
type NoopNotifier struct{}

func (NoopNotifier) SendOrderConfirmation(ctx context.Context, order domain.Order, user domain.User) error {
	return nil
}

func (NoopNotifier) SendStatusUpdate(ctx context.Context, order domain.Order, user domain.User) error {
	return nil
}

func (NoopNotifier) SendShippingConfirmation(ctx context.Context, order domain.Order, user domain.User, trackingCode string) error {
	return nil
}
