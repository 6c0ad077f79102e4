package service

import (
	"context"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/candlecraft/storefront/internal/domain"
	"github.com/candlecraft/storefront/internal/repository"
)

const (
	recentSalesLimit = 10
	topProductsLimit = 5
)

type statsService struct {
	repos  *repository.Repositories
	logger *zap.Logger
}

// NewStatsService creates the admin dashboard service
func NewStatsService(repos *repository.Repositories, logger *zap.Logger) *statsService {
	return &statsService{
		repos:  repos,
		logger: logger,
	}
}

// Compute builds the dashboard summary from the current orders and catalog
func (s *statsService) Compute(ctx context.Context) (*domain.AdminStats, error) {
	var (
		orders   []*domain.Order
		products []*domain.Product
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		orders, err = s.repos.Order.List(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		products, err = s.repos.Product.List(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("Failed to load stats inputs", zap.Error(err))
		return nil, err
	}

	stats := Summarize(orders)
	stats.TotalProducts = len(products)
	return stats, nil
}

// Summarize computes the order-derived figures. orders must be newest first.
func Summarize(orders []*domain.Order) *domain.AdminStats {
	stats := &domain.AdminStats{
		TotalOrders: len(orders),
		RecentSales: []*domain.Order{},
		TopProducts: []domain.ProductSales{},
	}

	users := make(map[string]struct{})
	sales := make(map[domain.ProductID]*domain.ProductSales)
	for _, order := range orders {
		users[order.UserID.String()] = struct{}{}
		if order.PaymentStatus == domain.PaymentStatusCompleted {
			stats.TotalRevenue += order.OrderTotal
		}
		for _, item := range order.Items {
			ps, ok := sales[item.ProductID]
			if !ok {
				ps = &domain.ProductSales{ProductID: item.ProductID, ProductName: item.ProductName}
				sales[item.ProductID] = ps
			}
			ps.TotalSold += item.Quantity
			ps.Revenue += item.Total
		}
	}
	stats.ActiveUsers = len(users)

	if len(orders) > recentSalesLimit {
		stats.RecentSales = orders[:recentSalesLimit]
	} else {
		stats.RecentSales = append(stats.RecentSales, orders...)
	}

	for _, ps := range sales {
		stats.TopProducts = append(stats.TopProducts, *ps)
	}
	sort.Slice(stats.TopProducts, func(i, j int) bool {
		a, b := stats.TopProducts[i], stats.TopProducts[j]
		if a.TotalSold != b.TotalSold {
			return a.TotalSold > b.TotalSold
		}
		return a.ProductID < b.ProductID
	})
	if len(stats.TopProducts) > topProductsLimit {
		stats.TopProducts = stats.TopProducts[:topProductsLimit]
	}

	return stats
}
