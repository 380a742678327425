package repository

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"data-collection-system/internal/model"
	"data-collection-system/pkg/errors"
)

// Repository is C9: the relational system of record for parsed
// statements and crawl rows. Every save is one transaction, atomic
// upsert by the endpoint's natural key, last-write-wins, fetched_at
// always advanced (§4.9). Reads are non-transactional.
//
// Grounded on the teacher's repo/mysql/financial_data_dao.go: same
// db *gorm.DB + context.Context + wrapped-error shape, generalized
// from one symbol-keyed table to the seven natural-keyed tables this
// spec's persisted schema (§6) defines.
type Repository struct {
	db *gorm.DB
}

// New wraps an already-open *gorm.DB. The composition root owns the
// DB's lifecycle (pkg/database.Open/Close); Repository never opens or
// closes it itself (design note 9: no global singletons).
func New(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Migrate provisions every table this repository persists to. Called
// once at startup by the composition root.
func (r *Repository) Migrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(allModels()...); err != nil {
		return errors.StorageError(err, "auto-migrate failed")
	}
	return nil
}

// GetReport implements get_report(key) → statement or absent (§4.9).
func (r *Repository) GetReport(ctx context.Context, key model.StockPeriodKey) (*model.FinancialStatement, error) {
	var row financialStatementRow
	err := r.db.WithContext(ctx).
		Where("stock_id = ? AND year = ? AND quarter = ? AND report_type = ?",
			key.StockID, key.Year, key.Quarter, string(key.ReportType)).
		First(&row).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, errors.StorageError(err, "get_report")
	}
	return rowToStatement(row)
}

// SaveReport implements save_report(statement) → void: one transaction,
// atomic upsert by (stock_id, year, quarter, report_type) (§4.9).
func (r *Repository) SaveReport(ctx context.Context, stmt *model.FinancialStatement) error {
	row, err := statementToRow(stmt)
	if err != nil {
		return errors.StorageError(err, "marshal statement items")
	}
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "stock_id"}, {Name: "year"}, {Name: "quarter"}, {Name: "report_type"}},
			DoUpdates: clause.AssignmentColumns([]string{"currency", "unit_scale", "report_date", "empty", "flat", "items_json", "fetched_at"}),
		}).Create(row).Error
	})
	if err != nil {
		return errors.StorageError(err, "save_report")
	}
	return nil
}

func statementToRow(stmt *model.FinancialStatement) (*financialStatementRow, error) {
	itemsJSON, err := json.Marshal(stmt.Items)
	if err != nil {
		return nil, err
	}
	return &financialStatementRow{
		StockID:    stmt.StockID,
		Year:       stmt.Year,
		Quarter:    stmt.Quarter,
		ReportType: string(stmt.ReportType),
		Currency:   stmt.Currency,
		UnitScale:  stmt.UnitScale,
		ReportDate: stmt.ReportDate,
		Empty:      stmt.Empty,
		Flat:       stmt.Flat,
		ItemsJSON:  string(itemsJSON),
		FetchedAt:  stmt.FetchedAt,
	}, nil
}

func rowToStatement(row financialStatementRow) (*model.FinancialStatement, error) {
	var items []*model.StatementItem
	if row.ItemsJSON != "" {
		if err := json.Unmarshal([]byte(row.ItemsJSON), &items); err != nil {
			return nil, errors.StorageError(err, "unmarshal statement items")
		}
	}
	return &model.FinancialStatement{
		StockID:    row.StockID,
		Year:       row.Year,
		Quarter:    row.Quarter,
		ReportType: model.ReportType(row.ReportType),
		Currency:   row.Currency,
		UnitScale:  row.UnitScale,
		ReportDate: row.ReportDate,
		Items:      items,
		Empty:      row.Empty,
		Flat:       row.Flat,
		FetchedAt:  row.FetchedAt,
	}, nil
}

// RevenueQuery identifies one get_crawl_rows lookup against revenue_rows.
type RevenueQuery struct {
	StockID string
	Year    int
	Month   int
	Market  string
}

// GetRevenueRows implements get_crawl_rows for the revenue endpoint.
func (r *Repository) GetRevenueRows(ctx context.Context, q RevenueQuery) ([]model.RevenueRow, error) {
	var rows []revenueRow
	db := r.db.WithContext(ctx).Where("year = ? AND month = ? AND market = ?", q.Year, q.Month, q.Market)
	if q.StockID != "" {
		db = db.Where("stock_id = ?", q.StockID)
	}
	if err := db.Find(&rows).Error; err != nil {
		return nil, errors.StorageError(err, "get_crawl_rows revenue")
	}
	out := make([]model.RevenueRow, len(rows))
	for i, rr := range rows {
		out[i] = model.RevenueRow{
			StockID: rr.StockID, CompanyName: rr.CompanyName, Year: rr.Year, Month: rr.Month, Market: rr.Market,
			Revenue: rr.Revenue, RevenueLastMonth: rr.RevenueLastMonth, RevenueLastYear: rr.RevenueLastYear,
			MomChange: rr.MomChange, YoyChange: rr.YoyChange, AccumulatedRevenue: rr.AccumulatedRevenue,
			AccumulatedLastYear: rr.AccumulatedLastYear, AccumulatedYoyChange: rr.AccumulatedYoyChange,
			Comment: rr.Comment, FetchedAt: rr.FetchedAt,
		}
	}
	return out, nil
}

// SaveRevenueRows implements save_crawl_rows for the revenue endpoint:
// one transaction, atomic upsert by (stock_id, year, month, market).
func (r *Repository) SaveRevenueRows(ctx context.Context, market string, rows []model.RevenueRow) error {
	if len(rows) == 0 {
		return nil
	}
	dbRows := make([]revenueRow, len(rows))
	for i, rr := range rows {
		dbRows[i] = revenueRow{
			StockID: rr.StockID, CompanyName: rr.CompanyName, Year: rr.Year, Month: rr.Month, Market: market,
			Revenue: rr.Revenue, RevenueLastMonth: rr.RevenueLastMonth, RevenueLastYear: rr.RevenueLastYear,
			MomChange: rr.MomChange, YoyChange: rr.YoyChange, AccumulatedRevenue: rr.AccumulatedRevenue,
			AccumulatedLastYear: rr.AccumulatedLastYear, AccumulatedYoyChange: rr.AccumulatedYoyChange,
			Comment: rr.Comment, FetchedAt: rr.FetchedAt,
		}
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "stock_id"}, {Name: "year"}, {Name: "month"}, {Name: "market"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"company_name", "revenue", "revenue_last_month", "revenue_last_year", "mom_change", "yoy_change",
				"accumulated_revenue", "accumulated_last_year", "accumulated_yoy_change", "comment", "fetched_at",
			}),
		}).CreateInBatches(dbRows, 500).Error
	})
	if err != nil {
		return errors.StorageError(err, "save_crawl_rows revenue")
	}
	return nil
}

// PledgeQuery identifies one get_crawl_rows lookup against pledge_rows.
type PledgeQuery struct {
	StockID string
	Year    int
	Month   int
}

func (r *Repository) GetPledgeRows(ctx context.Context, q PledgeQuery) ([]model.PledgeRow, error) {
	var rows []pledgeRow
	db := r.db.WithContext(ctx).Where("year = ? AND month = ?", q.Year, q.Month)
	if q.StockID != "" {
		db = db.Where("stock_id = ?", q.StockID)
	}
	if err := db.Find(&rows).Error; err != nil {
		return nil, errors.StorageError(err, "get_crawl_rows pledge")
	}
	out := make([]model.PledgeRow, len(rows))
	for i, pr := range rows {
		out[i] = model.PledgeRow{
			StockID: pr.StockID, CompanyName: pr.CompanyName, Year: pr.Year, Month: pr.Month,
			Title: pr.Title, Name: pr.Name, CurrentShares: pr.CurrentShares, PledgedShares: pr.PledgedShares,
			PledgeRatio: pr.PledgeRatio, FetchedAt: pr.FetchedAt,
		}
	}
	return out, nil
}

func (r *Repository) SavePledgeRows(ctx context.Context, rows []model.PledgeRow) error {
	if len(rows) == 0 {
		return nil
	}
	dbRows := make([]pledgeRow, len(rows))
	for i, pr := range rows {
		dbRows[i] = pledgeRow{
			StockID: pr.StockID, CompanyName: pr.CompanyName, Year: pr.Year, Month: pr.Month,
			Title: pr.Title, Name: pr.Name, CurrentShares: pr.CurrentShares, PledgedShares: pr.PledgedShares,
			PledgeRatio: pr.PledgeRatio, FetchedAt: pr.FetchedAt,
		}
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "stock_id"}, {Name: "year"}, {Name: "month"}, {Name: "title"}, {Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"company_name", "current_shares", "pledged_shares", "pledge_ratio", "fetched_at",
			}),
		}).CreateInBatches(dbRows, 500).Error
	})
	if err != nil {
		return errors.StorageError(err, "save_crawl_rows pledge")
	}
	return nil
}

// DividendQuery identifies one get_crawl_rows lookup against dividend_rows.
type DividendQuery struct {
	StockID   string
	YearStart int
	YearEnd   int
}

func (r *Repository) GetDividendRows(ctx context.Context, q DividendQuery) ([]model.DividendRow, error) {
	var rows []dividendRow
	db := r.db.WithContext(ctx).Where("year >= ? AND year <= ?", q.YearStart, q.YearEnd)
	if q.StockID != "" {
		db = db.Where("stock_id = ?", q.StockID)
	}
	if err := db.Order("year ASC, quarter_key ASC").Find(&rows).Error; err != nil {
		return nil, errors.StorageError(err, "get_crawl_rows dividend")
	}
	out := make([]model.DividendRow, len(rows))
	for i, dr := range rows {
		out[i] = model.DividendRow{
			StockID: dr.StockID, Year: dr.Year, Quarter: dr.Quarter,
			CashDividend: dr.CashDividend, StockDividend: dr.StockDividend,
			BoardResolutionDate: dr.BoardResolutionDate, FetchedAt: dr.FetchedAt,
		}
	}
	return out, nil
}

func (r *Repository) SaveDividendRows(ctx context.Context, rows []model.DividendRow) error {
	if len(rows) == 0 {
		return nil
	}
	dbRows := make([]dividendRow, len(rows))
	for i, dr := range rows {
		qk := dividendAnnualSentinel
		if dr.Quarter != nil {
			qk = *dr.Quarter
		}
		dbRows[i] = dividendRow{
			StockID: dr.StockID, Year: dr.Year, Quarter: dr.Quarter, QuarterKey: qk,
			CashDividend: dr.CashDividend, StockDividend: dr.StockDividend,
			BoardResolutionDate: dr.BoardResolutionDate, FetchedAt: dr.FetchedAt,
		}
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "stock_id"}, {Name: "year"}, {Name: "quarter_key"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"quarter", "cash_dividend", "stock_dividend", "board_resolution_date", "fetched_at",
			}),
		}).CreateInBatches(dbRows, 500).Error
	})
	if err != nil {
		return errors.StorageError(err, "save_crawl_rows dividend")
	}
	return nil
}

// DisclosureQuery identifies one get_crawl_rows lookup against the
// disclosure-family tables (funds_lending_rows, endorsement_rows,
// disclosure_rollup_rows).
type DisclosureQuery struct {
	StockID string
	Year    int
	Month   int
}

func (r *Repository) GetDisclosureRows(ctx context.Context, q DisclosureQuery) (*model.DisclosureResult, error) {
	var fl []fundsLendingRow
	var eo []endorsementRow
	var ru []disclosureRollupRow

	base := r.db.WithContext(ctx).Where("year = ? AND month = ?", q.Year, q.Month)
	if q.StockID != "" {
		base = base.Where("stock_id = ?", q.StockID)
	}
	if err := base.Find(&fl).Error; err != nil {
		return nil, errors.StorageError(err, "get_crawl_rows disclosure funds_lending")
	}
	if err := base.Find(&eo).Error; err != nil {
		return nil, errors.StorageError(err, "get_crawl_rows disclosure endorsement")
	}
	if err := base.Find(&ru).Error; err != nil {
		return nil, errors.StorageError(err, "get_crawl_rows disclosure rollup")
	}
	if len(fl) == 0 && len(eo) == 0 && len(ru) == 0 {
		return nil, nil
	}

	result := &model.DisclosureResult{}
	for _, r := range fl {
		result.FundsLending = append(result.FundsLending, model.FundsLendingRow{
			StockID: r.StockID, Year: r.Year, Month: r.Month, Entity: model.DisclosureEntity(r.Entity),
			HasBalance: r.HasBalance, CurrentMonth: r.CurrentMonth, PreviousMonth: r.PreviousMonth,
			MaxLimit: r.MaxLimit, AccumulatedBalance: r.AccumulatedBalance, FetchedAt: r.FetchedAt,
		})
	}
	for _, r := range eo {
		result.EndorsementGuarantee = append(result.EndorsementGuarantee, model.EndorsementRow{
			StockID: r.StockID, Year: r.Year, Month: r.Month, Entity: model.DisclosureEntity(r.Entity),
			HasBalance: r.HasBalance, CurrentMonth: r.CurrentMonth, PreviousMonth: r.PreviousMonth,
			MaxLimit: r.MaxLimit, AccumulatedBalance: r.AccumulatedBalance, FetchedAt: r.FetchedAt,
		})
	}
	if len(ru) > 0 {
		result.CrossCompanyRollup = ru[0].Rollup
	}
	return result, nil
}

func (r *Repository) SaveDisclosureRows(ctx context.Context, stockID string, year, month int, result *model.DisclosureResult) error {
	now := time.Now()
	flRows := make([]fundsLendingRow, len(result.FundsLending))
	for i, fr := range result.FundsLending {
		flRows[i] = fundsLendingRow{
			StockID: stockID, Year: year, Month: month, Entity: string(fr.Entity), HasBalance: fr.HasBalance,
			CurrentMonth: fr.CurrentMonth, PreviousMonth: fr.PreviousMonth, MaxLimit: fr.MaxLimit,
			AccumulatedBalance: fr.AccumulatedBalance, FetchedAt: fr.FetchedAt,
		}
	}
	eoRows := make([]endorsementRow, len(result.EndorsementGuarantee))
	for i, er := range result.EndorsementGuarantee {
		eoRows[i] = endorsementRow{
			StockID: stockID, Year: year, Month: month, Entity: string(er.Entity), HasBalance: er.HasBalance,
			CurrentMonth: er.CurrentMonth, PreviousMonth: er.PreviousMonth, MaxLimit: er.MaxLimit,
			AccumulatedBalance: er.AccumulatedBalance, FetchedAt: er.FetchedAt,
		}
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(flRows) > 0 {
			if err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "stock_id"}, {Name: "year"}, {Name: "month"}, {Name: "entity"}},
				DoUpdates: clause.AssignmentColumns([]string{
					"has_balance", "current_month", "previous_month", "max_limit", "accumulated_balance", "fetched_at",
				}),
			}).CreateInBatches(flRows, 500).Error; err != nil {
				return err
			}
		}
		if len(eoRows) > 0 {
			if err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "stock_id"}, {Name: "year"}, {Name: "month"}, {Name: "entity"}},
				DoUpdates: clause.AssignmentColumns([]string{
					"has_balance", "current_month", "previous_month", "max_limit", "accumulated_balance", "fetched_at",
				}),
			}).CreateInBatches(eoRows, 500).Error; err != nil {
				return err
			}
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "stock_id"}, {Name: "year"}, {Name: "month"}},
			DoUpdates: clause.AssignmentColumns([]string{"rollup", "fetched_at"}),
		}).Create(&disclosureRollupRow{
			StockID: stockID, Year: year, Month: month, Rollup: result.CrossCompanyRollup, FetchedAt: now,
		}).Error
	})
	if err != nil {
		return errors.StorageError(err, "save_crawl_rows disclosure")
	}
	return nil
}
