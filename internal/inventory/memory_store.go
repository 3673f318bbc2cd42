package inventory

import (
	"context"
	"sync"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	ReservationTTL  = 5 * time.Minute
	CleanupInterval = 30 * time.Second
)

// MemoryStore keeps stock per SKU. Reserve validates and holds under one
// lock, so two settlements racing for the same SKU serialize here.
type MemoryStore struct {
	mu           sync.RWMutex
	stocks       map[int64]*StockInfo
	reservations map[string]*Reservation
	ttl          time.Duration
	logger       *zap.Logger

	stopCleanup chan struct{}
	wg          sync.WaitGroup
}

func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	return newMemoryStore(logger, ReservationTTL, CleanupInterval)
}

func newMemoryStore(logger *zap.Logger, ttl, cleanup time.Duration) *MemoryStore {
	s := &MemoryStore{
		stocks:       make(map[int64]*StockInfo),
		reservations: make(map[string]*Reservation),
		ttl:          ttl,
		logger:       logger,
		stopCleanup:  make(chan struct{}),
	}

	s.wg.Add(1)
	go s.cleanupLoop(cleanup)

	return s
}

func (s *MemoryStore) cleanupLoop(interval time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.expireReservations()
		case <-s.stopCleanup:
			return
		}
	}
}

// expireReservations returns held stock of expired reservations and drops
// finished reservations once they are a full TTL past their expiry.
func (s *MemoryStore) expireReservations() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, reservation := range s.reservations {
		if reservation.Status != StatusReserved {
			if now.After(reservation.ExpiresAt.Add(s.ttl)) {
				delete(s.reservations, id)
			}
			continue
		}
		if reservation.IsExpired() {
			reservation.Status = StatusExpired
			for _, item := range reservation.Items {
				s.stocks[item.SkuID].Reserved -= item.Quantity
			}
			s.logger.Info("reservation expired",
				zap.String("reservation_id", id),
				zap.String("reference", reservation.Reference))
		}
	}
}

func (s *MemoryStore) GetStock(_ context.Context, skuIDs []int64) ([]StockInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]StockInfo, 0, len(skuIDs))
	for _, id := range skuIDs {
		if stock, exists := s.stocks[id]; exists {
			result = append(result, *stock)
		}
	}
	return result, nil
}

func (s *MemoryStore) Reserve(_ context.Context, reference string, items []Item) (*Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// the same SKU may appear on several lines
	wanted := make(map[int64]int, len(items))
	for _, item := range items {
		if !domain.ValidQuantity(item.Quantity) {
			return nil, domain.InvalidQuantity(item.Quantity)
		}
		wanted[item.SkuID] += item.Quantity
	}

	for _, item := range items {
		stock, exists := s.stocks[item.SkuID]
		if !exists {
			return nil, domain.SkuNotFound(item.SkuID)
		}
		if stock.Available() < wanted[item.SkuID] {
			return nil, domain.InsufficientStock(item.SkuID, wanted[item.SkuID], stock.Available())
		}
	}

	for _, item := range items {
		s.stocks[item.SkuID].Reserved += item.Quantity
	}

	now := time.Now()
	reservation := &Reservation{
		ID:        uuid.New().String(),
		Reference: reference,
		Items:     append([]Item(nil), items...),
		Status:    StatusReserved,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	s.reservations[reservation.ID] = reservation
	return reservation, nil
}

func (s *MemoryStore) Confirm(_ context.Context, reservationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	reservation, exists := s.reservations[reservationID]
	if !exists {
		return ErrReservationNotFound
	}

	if reservation.Status != StatusReserved {
		return ErrInvalidStatus
	}

	if reservation.IsExpired() {
		return ErrReservationExpired
	}

	for _, item := range reservation.Items {
		stock := s.stocks[item.SkuID]
		stock.Total -= item.Quantity
		stock.Reserved -= item.Quantity
	}

	reservation.Status = StatusConfirmed
	return nil
}

func (s *MemoryStore) Release(_ context.Context, reservationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	reservation, exists := s.reservations[reservationID]
	if !exists {
		return ErrReservationNotFound
	}

	if reservation.Status != StatusReserved {
		return ErrInvalidStatus
	}

	for _, item := range reservation.Items {
		s.stocks[item.SkuID].Reserved -= item.Quantity
	}

	reservation.Status = StatusReleased
	return nil
}

func (s *MemoryStore) Restock(_ context.Context, items []Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range items {
		if _, exists := s.stocks[item.SkuID]; !exists {
			return domain.SkuNotFound(item.SkuID)
		}
	}
	for _, item := range items {
		s.stocks[item.SkuID].Total += item.Quantity
	}
	return nil
}

func (s *MemoryStore) SetStock(_ context.Context, skuID int64, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if quantity < 0 {
		return domain.InvalidQuantity(quantity)
	}
	s.stocks[skuID] = &StockInfo{
		SkuID: skuID,
		Total: quantity,
	}
	return nil
}

// Close stops the background cleanup and waits for it to finish.
func (s *MemoryStore) Close() error {
	close(s.stopCleanup)
	s.wg.Wait()
	return nil
}
