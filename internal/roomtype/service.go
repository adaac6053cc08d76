package roomtype

import "context"

type Service interface {
	GetByID(ctx context.Context, hotelID, id string) (*RoomType, error)
	List(ctx context.Context, filter Filter) ([]*RoomType, int, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) GetByID(ctx context.Context, hotelID, id string) (*RoomType, error) {
	return s.repo.GetByID(ctx, hotelID, id)
}

func (s *service) List(ctx context.Context, filter Filter) ([]*RoomType, int, error) {
	return s.repo.List(ctx, filter)
}
