package service

import (
	"context"
	"fmt"

	"data-collection-system/internal/crawler"
	"data-collection-system/internal/model"
	"data-collection-system/internal/repository"
	"data-collection-system/pkg/logger"
)

// GetMonthlyRevenue implements get_monthly_revenue (§6). force_refresh
// always re-crawls and replaces the stored page's rows for that
// (market, year, month) atomically; a plain read serves straight from
// C9 when present.
func (s *Service) GetMonthlyRevenue(ctx context.Context, market string, year, month int, forceRefresh bool) ([]model.RevenueRow, error) {
	key := fmt.Sprintf("revenue:%s:%d:%d", market, year, month)

	if !forceRefresh {
		if rows, err := s.repo.GetRevenueRows(ctx, repository.RevenueQuery{Year: year, Month: month, Market: market}); err == nil && len(rows) > 0 {
			return rows, nil
		}
	}

	v, err, _ := s.crawls.Do(key, func() (interface{}, error) {
		rows, err := s.revenue.Fetch(ctx, crawler.RevenueQuery{Market: market, Year: year, Month: month, Type: "0"})
		if err != nil {
			return nil, err
		}
		if err := s.repo.SaveRevenueRows(ctx, market, rows); err != nil {
			logger.WithField("key", key).Warnf("save_crawl_rows failed, returning unpersisted result: %v", err)
		}
		return rows, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]model.RevenueRow), nil
}

// GetSharePledging implements get_share_pledging (§6).
func (s *Service) GetSharePledging(ctx context.Context, stockID string, year, month int, market string, forceRefresh bool) ([]model.PledgeRow, error) {
	key := fmt.Sprintf("pledge:%s:%d:%d:%s", stockID, year, month, market)

	if !forceRefresh {
		if rows, err := s.repo.GetPledgeRows(ctx, repository.PledgeQuery{StockID: stockID, Year: year, Month: month}); err == nil && len(rows) > 0 {
			return rows, nil
		}
	}

	v, err, _ := s.crawls.Do(key, func() (interface{}, error) {
		rows, err := s.pledge.Fetch(ctx, crawler.PledgeQuery{Year: year, Month: month, TypeK: market, CoID: stockID})
		if err != nil {
			return nil, err
		}
		if err := s.repo.SavePledgeRows(ctx, rows); err != nil {
			logger.WithField("key", key).Warnf("save_crawl_rows failed, returning unpersisted result: %v", err)
		}
		return rows, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]model.PledgeRow), nil
}

// GetDividend implements get_dividend (§6).
func (s *Service) GetDividend(ctx context.Context, stockID string, yearStart, yearEnd, queryType int, forceRefresh bool) ([]model.DividendRow, error) {
	key := fmt.Sprintf("dividend:%s:%d:%d:%d", stockID, yearStart, yearEnd, queryType)

	if !forceRefresh {
		if rows, err := s.repo.GetDividendRows(ctx, repository.DividendQuery{StockID: stockID, YearStart: yearStart, YearEnd: yearEnd}); err == nil && len(rows) > 0 {
			return rows, nil
		}
	}

	v, err, _ := s.crawls.Do(key, func() (interface{}, error) {
		rows, err := s.dividend.Fetch(ctx, crawler.DividendQuery{YearStart: yearStart, YearEnd: yearEnd, QueryType: queryType, CoID: stockID})
		if err != nil {
			return nil, err
		}
		if err := s.repo.SaveDividendRows(ctx, rows); err != nil {
			logger.WithField("key", key).Warnf("save_crawl_rows failed, returning unpersisted result: %v", err)
		}
		return rows, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]model.DividendRow), nil
}

// GetDisclosure implements get_disclosure (§6).
func (s *Service) GetDisclosure(ctx context.Context, stockID string, year, month int, market string, forceRefresh bool) (*model.DisclosureResult, error) {
	key := fmt.Sprintf("disclosure:%s:%d:%d:%s", stockID, year, month, market)

	if !forceRefresh {
		if result, err := s.repo.GetDisclosureRows(ctx, repository.DisclosureQuery{StockID: stockID, Year: year, Month: month}); err == nil && result != nil {
			return result, nil
		}
	}

	v, err, _ := s.crawls.Do(key, func() (interface{}, error) {
		result, err := s.disclosure.Fetch(ctx, crawler.DisclosureQuery{Year: year, Month: month, TypeK: market, CoID: stockID})
		if err != nil {
			return nil, err
		}
		if err := s.repo.SaveDisclosureRows(ctx, stockID, year, month, result); err != nil {
			logger.WithField("key", key).Warnf("save_crawl_rows failed, returning unpersisted result: %v", err)
		}
		return result, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.DisclosureResult), nil
}

