// Package cron wires the optional, off-by-default scheduled forced
// refresh described in SPEC_FULL §2: a cron entry that is itself just
// another caller of the façade, setting force_refresh=true on a
// schedule for a configured watchlist of stock_ids. It never reaches
// into the storage layer directly and never runs unless explicitly
// enabled, keeping the "no implicit background refresh" non-goal
// intact while still exercising the teacher's robfig/cron dependency.
package cron

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"data-collection-system/internal/model"
	"data-collection-system/internal/service"
	"data-collection-system/pkg/config"
	"data-collection-system/pkg/logger"
)

// Runner drives the scheduled forced refresh. Callers only construct
// one when cfg.Enabled is true.
type Runner struct {
	cron *cron.Cron
	svc  *service.Service
	cfg  config.ScheduledRefreshConfig
}

// New builds a Runner that re-fetches every report type for every
// stock_id in cfg.Watchlist on cfg.CronSpec, always with
// force_refresh=true.
func New(cfg config.ScheduledRefreshConfig, svc *service.Service) *Runner {
	return &Runner{
		cron: cron.New(),
		svc:  svc,
		cfg:  cfg,
	}
}

// Start registers the refresh job and begins the scheduler.
func (r *Runner) Start() error {
	_, err := r.cron.AddFunc(r.cfg.CronSpec, r.refreshWatchlist)
	if err != nil {
		return err
	}
	r.cron.Start()
	logger.WithField("spec", r.cfg.CronSpec).Info("scheduled forced refresh started")
	return nil
}

// Stop halts the scheduler, waiting for any in-flight run to finish.
func (r *Runner) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
	logger.Info("scheduled forced refresh stopped")
}

var refreshReportTypes = []model.ReportType{
	model.ReportTypeBalanceSheet,
	model.ReportTypeIncomeStatement,
	model.ReportTypeCashFlow,
	model.ReportTypeEquityStatement,
}

// refreshWatchlist forces a re-fetch of the latest reported quarter's
// financial statement for every watchlist entry and report type. A
// failure for one (stock_id, report_type) pair is logged and does not
// stop the remaining entries from refreshing.
func (r *Runner) refreshWatchlist() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	year, quarter := currentROCPeriod(time.Now())
	for _, stockID := range r.cfg.Watchlist {
		for _, reportType := range refreshReportTypes {
			key := model.StockPeriodKey{StockID: stockID, Year: year, Quarter: quarter, ReportType: reportType}
			if _, err := r.svc.GetFinancialStatement(ctx, key, true); err != nil {
				logger.WithField("key", key.String()).Warnf("scheduled refresh failed: %v", err)
			}
		}
	}
}

// currentROCPeriod returns the most recently closed ROC fiscal quarter
// as of t: MOPS filings lag the calendar quarter they report on, so the
// watchlist refresh always targets the prior quarter's filing.
func currentROCPeriod(t time.Time) (year, quarter int) {
	rocYear := t.Year() - 1911
	q := (int(t.Month())-1)/3 + 1
	q--
	if q < 1 {
		q = 4
		rocYear--
	}
	return rocYear, q
}
