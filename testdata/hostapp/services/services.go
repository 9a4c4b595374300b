package services

// IService is implemented by every host service.
type IService interface {
	Serve() string
}

// Base carries the fields shared by services.
//
//typefinder:abstract
type Base struct {
	Name string
}

func (b Base) Serve() string { return b.Name }
