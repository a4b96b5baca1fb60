package models

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"bitbucket.org/mmdatafocus/stocks_backend/config"
	"bitbucket.org/mmdatafocus/stocks_backend/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const invoiceModuleName = "models/invoice"

// Invoice is a purchase, sale or return document. The header carries both
// date representations: DateGregorian drives valuation and the ledger,
// DateJalali is derived from it for display and is never stored independently.
type Invoice struct {
	ID            int            `gorm:"primary_key" json:"id"`
	InvoiceType   InvoiceType    `gorm:"size:30;not null;uniqueIndex:idx_invoice_type_serial" json:"invoice_type"`
	Serial        *string        `gorm:"size:20" json:"serial"`
	Number        string         `gorm:"size:30;not null" json:"number"`
	SerialFull    string         `gorm:"size:50;not null;uniqueIndex:idx_invoice_type_serial" json:"serial_full"`
	PartyId       int            `gorm:"not null;index" json:"party_id"`
	DateGregorian time.Time      `gorm:"not null;index" json:"date_gregorian"`
	DateJalali    string         `gorm:"size:10;not null" json:"date_jalali"`
	Subtotal      int64          `gorm:"not null" json:"subtotal"`
	Tax           int64          `gorm:"not null;default:0" json:"tax"`
	Discount      int64          `gorm:"not null;default:0" json:"discount"`
	Shipping      int64          `gorm:"not null;default:0" json:"shipping"`
	Total         int64          `gorm:"not null" json:"total"`
	Status        InvoiceStatus  `gorm:"size:20;not null" json:"status"`
	PostedAt      *time.Time     `json:"posted_at"`
	Note          *string        `gorm:"size:1000" json:"note"`
	CreatedBy     int            `json:"created_by"`
	Lines         []*InvoiceLine `gorm:"foreignKey:InvoiceId" json:"lines"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

// InvoiceLine is one priced row of a document. Lines are owned by the header
// and replaced wholesale on update; the ledger, not the lines, is the durable
// history.
type InvoiceLine struct {
	ID        int             `gorm:"primary_key" json:"id"`
	InvoiceId int             `gorm:"not null;index" json:"invoice_id"`
	ItemId    int             `gorm:"not null;index" json:"item_id"`
	Qty       decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"qty"`
	UnitId    int             `gorm:"not null" json:"unit_id"`
	UnitPrice int64           `gorm:"not null" json:"unit_price"`
	Discount  int64           `gorm:"not null;default:0" json:"discount"`
	Tax       int64           `gorm:"not null;default:0" json:"tax"`
	LineTotal int64           `gorm:"not null" json:"line_total"`
	Notes     *string         `gorm:"size:500" json:"notes"`
}

type NewInvoiceLine struct {
	ItemId    int             `json:"item_id"`
	Qty       decimal.Decimal `json:"qty"`
	UnitId    int             `json:"unit_id"`
	UnitPrice int64           `json:"unit_price" validate:"gte=0"`
	Discount  int64           `json:"discount" validate:"gte=0"`
	Tax       int64           `json:"tax" validate:"gte=0"`
	Notes     *string         `json:"notes"`
}

// empty reports a row the user left blank in the entry grid.
func (l *NewInvoiceLine) empty() bool {
	return l.ItemId == 0 && l.Qty.IsZero()
}

type NewInvoice struct {
	InvoiceType InvoiceType       `json:"invoice_type" validate:"required"`
	Serial      *string           `json:"serial"`
	Number      string            `json:"number"`
	PartyId     int               `json:"party_id" validate:"required,gt=0"`
	DateJalali  string            `json:"date_jalali"`
	Tax         int64             `json:"tax" validate:"gte=0"`
	Discount    int64             `json:"discount" validate:"gte=0"`
	Shipping    int64             `json:"shipping" validate:"gte=0"`
	Note        *string           `json:"note"`
	Lines       []*NewInvoiceLine `json:"lines" validate:"required,min=1"`
}

// linePlan is a fully validated, fully priced line waiting to be written.
type linePlan struct {
	input     *NewInvoiceLine
	item      *Item
	unitId    int
	qtyBase   decimal.Decimal
	lineTotal int64
}

type invoicePlan struct {
	date     time.Time
	jalali   string
	lines    []*linePlan
	subtotal int64
	total    int64
}

// planInvoice validates the input against an open transaction and prices
// every line. No writes happen here. When excludeInvoiceId is non-nil the
// stock sufficiency check pretends that invoice's movements do not exist,
// which is how updates are validated against the replacement picture.
func planInvoice(ctx context.Context, tx *gorm.DB, input *NewInvoice, excludeInvoiceId *int) (*invoicePlan, error) {
	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}
	if !input.InvoiceType.Valid() {
		return nil, fmt.Errorf("invalid invoice type %q", input.InvoiceType)
	}
	if _, err := GetParty(ctx, tx, input.PartyId); err != nil {
		return nil, err
	}

	date := time.Now().UTC().Truncate(24 * time.Hour)
	if input.DateJalali != "" {
		var err error
		date, err = utils.JalaliStringToGregorian(input.DateJalali)
		if err != nil {
			return nil, err
		}
	}

	plan := invoicePlan{
		date:   date,
		jalali: utils.GregorianToJalaliString(date),
	}

	for _, lineInput := range input.Lines {
		if lineInput.empty() {
			continue
		}
		if err := utils.ValidateStruct(lineInput); err != nil {
			return nil, err
		}
		item, err := GetItem(ctx, tx, lineInput.ItemId)
		if err != nil {
			return nil, err
		}
		unitId := lineInput.UnitId
		if unitId == 0 {
			unitId = item.BaseUnitId
		}
		qtyBase, err := ConvertQtyToBase(ctx, tx, item, lineInput.Qty, unitId)
		if err != nil {
			return nil, err
		}
		gross, err := CalculateLineTotal(item, lineInput.Qty, lineInput.UnitPrice)
		if err != nil {
			return nil, err
		}
		if lineInput.Discount > gross {
			return nil, &InvalidPricingInputError{Field: "discount", Reason: "exceeds line amount"}
		}
		lineTotal := gross - lineInput.Discount + lineInput.Tax

		plan.lines = append(plan.lines, &linePlan{
			input:     lineInput,
			item:      item,
			unitId:    unitId,
			qtyBase:   qtyBase,
			lineTotal: lineTotal,
		})
		plan.subtotal += lineTotal
	}
	if len(plan.lines) == 0 {
		return nil, errors.New("invoice requires at least one non-empty line")
	}

	plan.total = plan.subtotal + input.Tax + input.Shipping - input.Discount
	if plan.total < 0 {
		return nil, &InvalidPricingInputError{Field: "discount", Reason: "exceeds invoice amount"}
	}

	if err := checkStockForPlan(tx, input.InvoiceType, plan.lines, excludeInvoiceId); err != nil {
		return nil, err
	}
	return &plan, nil
}

// checkStockForPlan verifies that the planned document leaves no item with
// negative stock. An in-request reservation map accumulates quantities across
// lines so two lines of the same item cannot each pass against the same
// balance.
func checkStockForPlan(tx *gorm.DB, invoiceType InvoiceType, lines []*linePlan, excludeInvoiceId *int) error {
	movementType, err := MovementTypeForInvoice(invoiceType)
	if err != nil {
		return err
	}

	net := map[int]decimal.Decimal{}
	names := map[int]string{}
	for _, line := range lines {
		delta := line.qtyBase
		if !movementType.Inbound() {
			delta = delta.Neg()
		}
		net[line.item.ID] = netOrZero(net, line.item.ID).Add(delta)
		names[line.item.ID] = line.item.Name
	}

	for itemId, delta := range net {
		var available decimal.Decimal
		var err error
		if excludeInvoiceId != nil {
			available, err = CurrentStockExcluding(tx, itemId, ReferenceTypeInvoice, *excludeInvoiceId)
		} else {
			available, err = CurrentStock(tx, itemId)
		}
		if err != nil {
			return err
		}
		if available.Add(delta).IsNegative() {
			return &InsufficientStockError{
				ItemId:    itemId,
				ItemName:  names[itemId],
				Requested: delta.Abs(),
				Available: available,
			}
		}
	}
	return nil
}

func netOrZero(m map[int]decimal.Decimal, itemId int) decimal.Decimal {
	if v, ok := m[itemId]; ok {
		return v
	}
	return decimal.Zero
}

// writeLines persists the planned lines, their ledger movements and the item
// last-price caches inside the caller's transaction. Returns the valuation
// periods touched.
func writeLines(ctx context.Context, tx *gorm.DB, invoice *Invoice, plan *invoicePlan, correlationId string) (map[periodKey]bool, error) {
	movementType, err := MovementTypeForInvoice(invoice.InvoiceType)
	if err != nil {
		return nil, err
	}

	touched := map[periodKey]bool{}
	for _, line := range plan.lines {
		row := InvoiceLine{
			InvoiceId: invoice.ID,
			ItemId:    line.item.ID,
			Qty:       line.input.Qty,
			UnitId:    line.unitId,
			UnitPrice: line.input.UnitPrice,
			Discount:  line.input.Discount,
			Tax:       line.input.Tax,
			LineTotal: line.lineTotal,
			Notes:     line.input.Notes,
		}
		if err := tx.Create(&row).Error; err != nil {
			return nil, err
		}

		_, err := RecordMovement(tx, &RecordMovementInput{
			ItemId:        line.item.ID,
			ItemName:      line.item.Name,
			MovementType:  movementType,
			Qty:           line.qtyBase,
			UnitId:        line.item.BaseUnitId,
			CostPerUnit:   line.input.UnitPrice,
			ReferenceType: ReferenceTypeInvoice,
			ReferenceId:   invoice.ID,
			Date:          plan.date,
			CorrelationId: correlationId,
			CreatedBy:     invoice.CreatedBy,
		})
		if err != nil {
			return nil, err
		}

		err = UpdateItemLastPrice(tx, line.item.ID, invoice.InvoiceType, line.input.UnitPrice)
		if err != nil {
			return nil, err
		}
		touched[periodKey{line.item.ID, plan.date.Year(), int(plan.date.Month())}] = true
	}
	return touched, nil
}

type periodKey struct {
	itemId int
	year   int
	month  int
}

func recomputeTouchedPeriods(ctx context.Context, tx *gorm.DB, touched map[periodKey]bool) error {
	for key := range touched {
		if _, err := RecomputePeriod(ctx, tx, key.itemId, key.year, key.month); err != nil {
			return err
		}
	}
	return nil
}

func lockItems(ctx context.Context, itemIds map[int]bool, funcName string) (func(), error) {
	ids := make([]int, 0, len(itemIds))
	for id := range itemIds {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	releases := make([]func(), 0, len(ids))
	releaseAll := func() {
		for i := len(releases) - 1; i >= 0; i-- {
			releases[i]()
		}
	}
	for _, id := range ids {
		release, err := utils.ItemStockLock(ctx, id, invoiceModuleName, funcName)
		if err != nil {
			releaseAll()
			return nil, err
		}
		releases = append(releases, release)
	}
	return releaseAll, nil
}

func itemIdsOfLines(lines []*NewInvoiceLine) map[int]bool {
	ids := map[int]bool{}
	for _, line := range lines {
		if !line.empty() {
			ids[line.ItemId] = true
		}
	}
	return ids
}

// nextInvoiceNumber allocates a sequential document number per type as the
// highest surviving numeric number plus one. Counting rows instead would
// reissue a number after any deletion and collide with the unique
// (invoice_type, serial_full) index. Caller-supplied non-numeric numbers are
// ignored by the scan.
func nextInvoiceNumber(tx *gorm.DB, invoiceType InvoiceType) (string, error) {
	var numbers []string
	err := tx.Model(&Invoice{}).Where("invoice_type = ?", invoiceType).Pluck("number", &numbers).Error
	if err != nil {
		return "", err
	}
	var highest int64
	for _, s := range numbers {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil && n > highest {
			highest = n
		}
	}
	return strconv.FormatInt(highest+1, 10), nil
}

func buildSerialFull(serial *string, number string) string {
	if serial != nil && *serial != "" {
		return *serial + "-" + number
	}
	return number
}

// CreateInvoice validates, prices and posts a new document in one
// transaction: header, lines, ledger movements, last-price caches and the
// valuation rows of every touched month.
func CreateInvoice(ctx context.Context, db *gorm.DB, input *NewInvoice) (*Invoice, error) {
	logger := config.GetLogger()

	releaseLocks, err := lockItems(ctx, itemIdsOfLines(input.Lines), "CreateInvoice")
	if err != nil {
		return nil, err
	}
	defer releaseLocks()

	correlationId, ok := utils.GetCorrelationIdFromContext(ctx)
	if !ok {
		correlationId = uuid.NewString()
	}
	createdBy, _ := utils.GetUserIdFromContext(ctx)

	var invoice *Invoice
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		plan, err := planInvoice(ctx, tx, input, nil)
		if err != nil {
			return err
		}

		number := input.Number
		if number == "" {
			number, err = nextInvoiceNumber(tx, input.InvoiceType)
			if err != nil {
				return err
			}
		}

		now := time.Now().UTC()
		header := Invoice{
			InvoiceType:   input.InvoiceType,
			Serial:        input.Serial,
			Number:        number,
			SerialFull:    buildSerialFull(input.Serial, number),
			PartyId:       input.PartyId,
			DateGregorian: plan.date,
			DateJalali:    plan.jalali,
			Subtotal:      plan.subtotal,
			Tax:           input.Tax,
			Discount:      input.Discount,
			Shipping:      input.Shipping,
			Total:         plan.total,
			Status:        InvoiceStatusPosted,
			PostedAt:      &now,
			Note:          input.Note,
			CreatedBy:     createdBy,
		}
		if err := tx.Create(&header).Error; err != nil {
			return err
		}

		touched, err := writeLines(ctx, tx, &header, plan, correlationId)
		if err != nil {
			return err
		}
		if err := recomputeTouchedPeriods(ctx, tx, touched); err != nil {
			return err
		}
		invoice = &header
		return nil
	})
	if err != nil {
		var insufficient *InsufficientStockError
		if !errors.As(err, &insufficient) {
			config.LogError(logger, invoiceModuleName, "CreateInvoice", "failed to create invoice", input, err)
		}
		return nil, err
	}
	return GetInvoice(ctx, db, invoice.ID)
}

// UpdateInvoice replaces a document wholesale: prior ledger movements are
// reversed, lines are rewritten and the header is updated, all in one
// transaction. Validation runs against the stock picture without the old
// document, so shrinking a purchase below what has already been sold fails
// before anything is written.
func UpdateInvoice(ctx context.Context, db *gorm.DB, id int, input *NewInvoice) (*Invoice, error) {
	logger := config.GetLogger()

	existing, err := GetInvoice(ctx, db, id)
	if err != nil {
		return nil, err
	}

	itemIds := itemIdsOfLines(input.Lines)
	oldMovements, err := MovementsForReference(db.WithContext(ctx), ReferenceTypeInvoice, id)
	if err != nil {
		return nil, err
	}
	for _, m := range oldMovements {
		itemIds[m.ItemId] = true
	}

	releaseLocks, err := lockItems(ctx, itemIds, "UpdateInvoice")
	if err != nil {
		return nil, err
	}
	defer releaseLocks()

	correlationId, ok := utils.GetCorrelationIdFromContext(ctx)
	if !ok {
		correlationId = uuid.NewString()
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		plan, err := planInvoice(ctx, tx, input, &id)
		if err != nil {
			return err
		}

		// checkStockForPlan only sees items on the new lines. An item dropped
		// from the document still loses its old inbound movements to the
		// reversal below, so it needs the same non-negativity check a delete
		// runs.
		planned := map[int]bool{}
		for _, line := range plan.lines {
			planned[line.item.ID] = true
		}
		for itemId := range itemIds {
			if planned[itemId] {
				continue
			}
			remaining, err := CurrentStockExcluding(tx, itemId, ReferenceTypeInvoice, id)
			if err != nil {
				return err
			}
			if remaining.IsNegative() {
				current, err := CurrentStock(tx, itemId)
				if err != nil {
					return err
				}
				return &InsufficientStockError{
					ItemId:    itemId,
					Requested: current.Sub(remaining),
					Available: current,
				}
			}
		}

		touched := map[periodKey]bool{}
		reversed, err := ReverseMovementsForReference(tx, ReferenceTypeInvoice, id, correlationId, existing.CreatedBy)
		if err != nil {
			return err
		}
		for _, m := range reversed {
			touched[periodKey{m.ItemId, m.CreatedAt.Year(), int(m.CreatedAt.Month())}] = true
		}

		err = tx.Where("invoice_id = ?", id).Delete(&InvoiceLine{}).Error
		if err != nil {
			return err
		}

		number := input.Number
		if number == "" {
			number = existing.Number
		}
		err = tx.Model(existing).Updates(map[string]interface{}{
			"InvoiceType":   input.InvoiceType,
			"Serial":        input.Serial,
			"Number":        number,
			"SerialFull":    buildSerialFull(input.Serial, number),
			"PartyId":       input.PartyId,
			"DateGregorian": plan.date,
			"DateJalali":    plan.jalali,
			"Subtotal":      plan.subtotal,
			"Tax":           input.Tax,
			"Discount":      input.Discount,
			"Shipping":      input.Shipping,
			"Total":         plan.total,
			"Note":          input.Note,
		}).Error
		if err != nil {
			return err
		}
		existing.InvoiceType = input.InvoiceType

		moreTouched, err := writeLines(ctx, tx, existing, plan, correlationId)
		if err != nil {
			return err
		}
		for key := range moreTouched {
			touched[key] = true
		}
		return recomputeTouchedPeriods(ctx, tx, touched)
	})
	if err != nil {
		var insufficient *InsufficientStockError
		if !errors.As(err, &insufficient) {
			config.LogError(logger, invoiceModuleName, "UpdateInvoice", "failed to update invoice", id, err)
		}
		return nil, err
	}
	return GetInvoice(ctx, db, id)
}

// DeleteInvoice removes a document. Its ledger movements are reversed, not
// erased, so stock returns to the pre-document state while the ledger keeps
// the full story. Refused when reversing would drive any item's stock
// negative, e.g. deleting a purchase whose goods have already been sold.
func DeleteInvoice(ctx context.Context, db *gorm.DB, id int) error {
	logger := config.GetLogger()

	invoice, err := GetInvoice(ctx, db, id)
	if err != nil {
		return err
	}

	movements, err := MovementsForReference(db.WithContext(ctx), ReferenceTypeInvoice, id)
	if err != nil {
		return err
	}
	itemIds := map[int]bool{}
	for _, m := range movements {
		itemIds[m.ItemId] = true
	}

	releaseLocks, err := lockItems(ctx, itemIds, "DeleteInvoice")
	if err != nil {
		return err
	}
	defer releaseLocks()

	correlationId, ok := utils.GetCorrelationIdFromContext(ctx)
	if !ok {
		correlationId = uuid.NewString()
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for itemId := range itemIds {
			remaining, err := CurrentStockExcluding(tx, itemId, ReferenceTypeInvoice, id)
			if err != nil {
				return err
			}
			if remaining.IsNegative() {
				current, err := CurrentStock(tx, itemId)
				if err != nil {
					return err
				}
				return &InsufficientStockError{
					ItemId:    itemId,
					Requested: current.Sub(remaining),
					Available: current,
				}
			}
		}

		touched := map[periodKey]bool{}
		reversed, err := ReverseMovementsForReference(tx, ReferenceTypeInvoice, id, correlationId, invoice.CreatedBy)
		if err != nil {
			return err
		}
		for _, m := range reversed {
			touched[periodKey{m.ItemId, m.CreatedAt.Year(), int(m.CreatedAt.Month())}] = true
		}

		err = tx.Where("invoice_id = ?", id).Delete(&InvoiceLine{}).Error
		if err != nil {
			return err
		}
		if err := tx.Delete(&Invoice{}, id).Error; err != nil {
			return err
		}
		return recomputeTouchedPeriods(ctx, tx, touched)
	})
	if err != nil {
		var insufficient *InsufficientStockError
		if !errors.As(err, &insufficient) {
			config.LogError(logger, invoiceModuleName, "DeleteInvoice", "failed to delete invoice", id, err)
		}
		return err
	}
	return nil
}

func GetInvoice(ctx context.Context, db *gorm.DB, id int) (*Invoice, error) {
	var invoice Invoice
	err := db.WithContext(ctx).Preload("Lines").First(&invoice, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "invoice", Id: id}
		}
		return nil, err
	}
	return &invoice, nil
}

func GetInvoiceLine(ctx context.Context, db *gorm.DB, id int) (*InvoiceLine, error) {
	var line InvoiceLine
	if err := db.WithContext(ctx).First(&line, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "invoice line", Id: id}
		}
		return nil, err
	}
	return &line, nil
}

func ListInvoices(ctx context.Context, db *gorm.DB, invoiceType *InvoiceType) ([]*Invoice, error) {
	var invoices []*Invoice
	query := db.WithContext(ctx).Preload("Lines").Order("id DESC")
	if invoiceType != nil {
		query = query.Where("invoice_type = ?", *invoiceType)
	}
	if err := query.Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}
