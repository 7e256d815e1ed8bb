package services

import (
	"errors"
	"strings"
	"time"

	"github.com/agrifleet/agrifleet-backend/internal/models"
	repo "github.com/agrifleet/agrifleet-backend/internal/repository"
)

type MarketService struct{ r repo.MarketPrices }

func NewMarketService(r repo.MarketPrices) *MarketService { return &MarketService{r: r} }

func (s *MarketService) Latest() ([]models.MarketPrice, error) { return s.r.Latest() }

func (s *MarketService) Publish(p models.MarketPrice) (models.MarketPrice, error) {
	p.Commodity = strings.TrimSpace(strings.ToLower(p.Commodity))
	if p.Commodity == "" {
		return models.MarketPrice{}, errors.New("commodity required")
	}
	if p.Price <= 0 {
		return models.MarketPrice{}, errors.New("price must be > 0")
	}
	if p.QuotedAt.IsZero() {
		p.QuotedAt = time.Now()
	}
	return s.r.Upsert(p)
}
