package orderservice

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// GenerateOrderNumber gera o número legível do pedido: prefixo de data (UTC)
// no formato YYYYMMDD seguido de um sufixo pseudo-aleatório de 6 dígitos.
// A unicidade é probabilística; a garantia real vem do índice único no banco
// combinado com a retentativa de geração no serviço.
func GenerateOrderNumber() string {
	datePart := time.Now().UTC().Format("20060102")

	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		// Fallback: entropia baseada no relógio
		n = big.NewInt(time.Now().UnixNano() % 1000000)
	}

	return fmt.Sprintf("%s%06d", datePart, n.Int64())
}
