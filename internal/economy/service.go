package economy

import (
	"context"
	"errors"

	"github.com/StudyVaultLab/studyvault/backend/internal/apperr"
	"github.com/StudyVaultLab/studyvault/backend/internal/users"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Coin credit awarded at note-creation time.
const (
	UploadBonusPremium int64 = 10
	UploadBonusFree    int64 = 5
)

const (
	opServiceNew = "economy.service.new"
	opAward      = "economy.award_upload_bonus"
	opCharge     = "economy.charge_premium_download"
	opBalance    = "economy.balance"
)

var errMissingDatabase = errors.New("database handle is required")

// ServiceConfig describes the dependencies of the coin engine.
type ServiceConfig struct {
	Database *gorm.DB
	Logger   *zap.Logger
}

// Service applies atomic coin balance adjustments. All read-then-write paths run
// inside a single transaction so concurrent charges for the same account cannot
// interleave between the balance check and the debit.
type Service struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewService constructs the coin engine.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, apperr.Wrap(apperr.KindInternal, opServiceNew, "missing_database", errMissingDatabase)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{db: cfg.Database, logger: logger}, nil
}

// AwardUploadBonus credits the uploader for a new note: 10 coins for premium,
// 5 for free. A credit needs no funding check and always succeeds for an
// existing account.
func (s *Service) AwardUploadBonus(ctx context.Context, userID uint, isPremium bool) (int64, error) {
	return s.AwardUploadBonusTx(ctx, s.db, userID, isPremium)
}

// AwardUploadBonusTx is the transactional form used when the credit must commit
// together with the note insert.
func (s *Service) AwardUploadBonusTx(ctx context.Context, db *gorm.DB, userID uint, isPremium bool) (int64, error) {
	bonus := UploadBonusFree
	if isPremium {
		bonus = UploadBonusPremium
	}
	txErr := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return creditAccount(tx, userID, bonus, opAward)
	})
	if txErr != nil {
		return 0, txErr
	}
	s.logger.Info("upload bonus awarded",
		zap.Uint("user_id", userID),
		zap.Int64("coins", bonus),
		zap.Bool("premium", isPremium))
	return bonus, nil
}

// ChargeForPremiumDownload moves price coins from buyer to seller as one atomic
// transaction. When the buyer balance is short the charge fails with an
// InsufficientFundsError and neither balance changes. A self-purchase debits and
// re-credits the same account, leaving it unchanged.
func (s *Service) ChargeForPremiumDownload(ctx context.Context, buyerID, sellerID uint, price int64) error {
	if price < 0 {
		return apperr.New(apperr.KindValidation, opCharge, "negative_price")
	}
	return s.ChargeForPremiumDownloadTx(ctx, s.db, buyerID, sellerID, price)
}

// ChargeForPremiumDownloadTx is the transactional form used when the charge must
// commit together with other writes (e.g. the download event record).
func (s *Service) ChargeForPremiumDownloadTx(ctx context.Context, db *gorm.DB, buyerID, sellerID uint, price int64) error {
	if price < 0 {
		return apperr.New(apperr.KindValidation, opCharge, "negative_price")
	}
	txErr := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var buyer users.User
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", buyerID).
			Take(&buyer).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.New(apperr.KindNotFound, opCharge, "buyer_missing")
		}
		if err != nil {
			return apperr.Wrap(apperr.KindInternal, opCharge, "buyer_select_failed", err)
		}

		if buyer.Coins < price {
			return apperr.Wrap(apperr.KindInsufficientFunds, opCharge, "insufficient_funds",
				&apperr.InsufficientFundsError{Required: price, Available: buyer.Coins})
		}

		if buyerID == sellerID {
			return nil
		}

		result := tx.Model(&users.User{}).
			Where("id = ? AND coins >= ?", buyerID, price).
			Update("coins", gorm.Expr("coins - ?", price))
		if result.Error != nil {
			return apperr.Wrap(apperr.KindInternal, opCharge, "debit_failed", result.Error)
		}
		if result.RowsAffected == 0 {
			return apperr.Wrap(apperr.KindInsufficientFunds, opCharge, "insufficient_funds",
				&apperr.InsufficientFundsError{Required: price, Available: buyer.Coins})
		}

		return creditAccount(tx, sellerID, price, opCharge)
	})
	if txErr != nil {
		s.logger.Warn("premium charge rejected",
			zap.Uint("buyer_id", buyerID),
			zap.Uint("seller_id", sellerID),
			zap.Int64("price", price),
			zap.Error(txErr))
		return txErr
	}
	s.logger.Info("premium charge settled",
		zap.Uint("buyer_id", buyerID),
		zap.Uint("seller_id", sellerID),
		zap.Int64("price", price))
	return nil
}

// Balance reports the current coin balance for the account.
func (s *Service) Balance(ctx context.Context, userID uint) (int64, error) {
	var user users.User
	err := s.db.WithContext(ctx).Where("id = ?", userID).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, apperr.New(apperr.KindNotFound, opBalance, "user_missing")
	}
	if err != nil {
		return 0, apperr.Wrap(apperr.KindInternal, opBalance, "query_failed", err)
	}
	return user.Coins, nil
}

func creditAccount(tx *gorm.DB, userID uint, amount int64, operation string) error {
	result := tx.Model(&users.User{}).
		Where("id = ?", userID).
		Update("coins", gorm.Expr("coins + ?", amount))
	if result.Error != nil {
		return apperr.Wrap(apperr.KindInternal, operation, "credit_failed", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.New(apperr.KindNotFound, operation, "user_missing")
	}
	return nil
}
