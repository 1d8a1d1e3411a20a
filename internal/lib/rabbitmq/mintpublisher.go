package rabbitmq

import (
	"github.com/streadway/amqp"

	"github.com/car-dano/inspection-backend/internal/models"
)

// MintRoutingKey ключ маршрутизации заданий минтинга.
const MintRoutingKey = "mint"

// MintJobPublisher публикует задания минтинга в exchange минтинга.
type MintJobPublisher struct {
	ch *amqp.Channel
}

// NewMintJobPublisher создает новый экземпляр MintJobPublisher.
func NewMintJobPublisher(ch *amqp.Channel) *MintJobPublisher {
	return &MintJobPublisher{ch: ch}
}

// PublishMintJob отправляет задание минтинга в очередь.
func (p *MintJobPublisher) PublishMintJob(job models.MintJob) error {
	return PublishMessage(p.ch, MintExchange, MintRoutingKey, job)
}
