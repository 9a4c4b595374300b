package main

import (
	"example.com/hostapp/impl"
	"example.com/hostapp/services"
)

func main() {
	var s services.IService = impl.MailService{}
	_ = s.Serve()
}
