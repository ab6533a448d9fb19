package lots

import (
	"time"

	"fundledger-backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultPageSize is how many open lots a cursor fetches per query.
const DefaultPageSize = 50

const fifoKey = "COALESCE(pricing_date, request_date)"

func openLotsQuery(tx *gorm.DB, holdingID uuid.UUID) *gorm.DB {
	return tx.Model(&domain.Lot{}).
		Where("holding_id = ? AND remaining_quotas > 0", holdingID).
		Order(fifoKey + " ASC").
		Order("lot_id ASC")
}

// OpenLots returns every lot of the holding with quotas left, oldest pricing
// date first, ties broken by lot id.
func OpenLots(tx *gorm.DB, holdingID uuid.UUID) ([]domain.Lot, error) {
	var out []domain.Lot
	err := openLotsQuery(tx, holdingID).Find(&out).Error
	return out, err
}

// OpenLotCursor walks the same ordering as OpenLots one page at a time, so a
// withdrawal only reads as many lots as it consumes. Pages are keyed on the
// last (fifo date, lot id) seen rather than offsets.
type OpenLotCursor struct {
	tx        *gorm.DB
	holdingID uuid.UUID
	pageSize  int

	page     []domain.Lot
	pos      int
	lastDate time.Time
	lastID   uuid.UUID
	started  bool
	done     bool
}

func NewOpenLotCursor(tx *gorm.DB, holdingID uuid.UUID, pageSize int) *OpenLotCursor {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &OpenLotCursor{tx: tx, holdingID: holdingID, pageSize: pageSize}
}

// Next returns the next open lot, or nil once the holding has none left.
func (c *OpenLotCursor) Next() (*domain.Lot, error) {
	if c.pos >= len(c.page) {
		if c.done {
			return nil, nil
		}
		if err := c.fetch(); err != nil {
			return nil, err
		}
		if len(c.page) == 0 {
			return nil, nil
		}
	}
	lot := &c.page[c.pos]
	c.pos++
	c.lastDate = lot.FIFODate()
	c.lastID = lot.LotID
	return lot, nil
}

func (c *OpenLotCursor) fetch() error {
	q := openLotsQuery(c.tx, c.holdingID)
	if c.started {
		q = q.Where("("+fifoKey+" > ? OR ("+fifoKey+" = ? AND lot_id > ?))", c.lastDate, c.lastDate, c.lastID)
	}
	var page []domain.Lot
	if err := q.Limit(c.pageSize).Find(&page).Error; err != nil {
		return err
	}
	c.started = true
	c.page = page
	c.pos = 0
	if len(page) < c.pageSize {
		c.done = true
	}
	return nil
}
