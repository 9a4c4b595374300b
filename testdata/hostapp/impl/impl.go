package impl

import "example.com/hostapp/services"

type MailService struct{}

func (MailService) Serve() string { return "mail" }

type QueueService struct {
	topic string
}

func (q *QueueService) Serve() string { return q.topic }

type AuditService struct {
	services.Base
}

type Settings struct {
	Addr string
}
