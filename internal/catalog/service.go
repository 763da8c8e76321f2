package catalog

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"golang.org/x/sync/singleflight"

	"github.com/mmeshcher/storefront-core/internal/apperror"
	"github.com/mmeshcher/storefront-core/internal/model"
	"github.com/mmeshcher/storefront-core/internal/repository"
)

// Repository выполняет скомпилированные запросы к каталогу.
type Repository interface {
	QueryProducts(ctx context.Context, query string, args []any) ([]model.Product, error)
	CategoryBySlug(ctx context.Context, slug string) (model.Category, error)
}

// Service выполняет поиск по каталогу.
type Service struct {
	repo  Repository
	group singleflight.Group
}

// NewService создаёт сервис каталога.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Search возвращает товары, удовлетворяющие всем фильтрам, в порядке q.Sort.
// Одинаковые одновременные запросы выполняются одним обращением к хранилищу.
func (s *Service) Search(ctx context.Context, q Query) ([]model.Product, error) {
	query, args, err := Compile(q)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%s|%v", query, args)
	v, err, _ := s.group.Do(key, func() (any, error) {
		return s.repo.QueryProducts(ctx, query, args)
	})
	if err != nil {
		return nil, apperror.Persistence("query products", err)
	}

	products := slices.Clone(v.([]model.Product))
	slices.SortStableFunc(products, q.Sort.Compare)
	return products, nil
}

// CategoryBySlug возвращает категорию по её slug.
func (s *Service) CategoryBySlug(ctx context.Context, slug string) (model.Category, error) {
	c, err := s.repo.CategoryBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return model.Category{}, err
		}
		return model.Category{}, apperror.Persistence("get category", err)
	}
	return c, nil
}
