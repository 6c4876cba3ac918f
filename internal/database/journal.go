package database

import (
	"context"

	"mintflow/internal/models"
)

// RecordOutcome journals a terminal operation outcome
func (db *DB) RecordOutcome(ctx context.Context, rec *models.OperationRecord) error {
	query := `
		INSERT INTO operations (
			item_id, kind, operation_id, wallet_address, signature,
			nft_mint, status, error_message
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	return db.QueryRowContext(
		ctx, query,
		rec.ItemID,
		rec.Kind,
		rec.OperationID,
		rec.WalletAddress,
		rec.Signature,
		rec.NFTMint,
		rec.Status,
		rec.ErrorMessage,
	).Scan(&rec.ID)
}

// OutcomesByAddress retrieves journaled outcomes for a wallet address
func (db *DB) OutcomesByAddress(ctx context.Context, walletAddress string, limit, offset int) ([]models.OperationRecord, error) {
	var records []models.OperationRecord
	query := `
		SELECT id, item_id, kind, operation_id, wallet_address, signature,
		       nft_mint, status, error_message
		FROM operations
		WHERE wallet_address = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	err := db.SelectContext(ctx, &records, query, walletAddress, limit, offset)
	return records, err
}

// OutcomesByItem retrieves journaled outcomes for an item
func (db *DB) OutcomesByItem(ctx context.Context, itemID string, limit, offset int) ([]models.OperationRecord, error) {
	var records []models.OperationRecord
	query := `
		SELECT id, item_id, kind, operation_id, wallet_address, signature,
		       nft_mint, status, error_message
		FROM operations
		WHERE item_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	err := db.SelectContext(ctx, &records, query, itemID, limit, offset)
	return records, err
}
