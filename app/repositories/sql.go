package repositories

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shashiranjanraj/fashioncraft/app/models"
)

// SQLStore keeps accounts and orders in a relational database through GORM.
type SQLStore struct {
	db       *gorm.DB
	driver   string
	accounts *SQLAccountRepository
	orders   *SQLOrderRepository
}

// NewSQLStore returns a store over db. driver names the dialect for logs
// and metrics.
func NewSQLStore(db *gorm.DB, driver string) *SQLStore {
	return &SQLStore{
		db:       db,
		driver:   driver,
		accounts: &SQLAccountRepository{db: db},
		orders:   &SQLOrderRepository{db: db},
	}
}

func (s *SQLStore) Driver() string { return s.driver }

func (s *SQLStore) Accounts() AccountRepository { return s.accounts }

func (s *SQLStore) Orders() OrderRepository { return s.orders }

func (s *SQLStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Migrate creates or alters the accounts and orders tables.
func (s *SQLStore) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&accountRow{}, &orderRow{}); err != nil {
		return fmt.Errorf("repositories: automigrate: %w", err)
	}
	return nil
}

// fold is the case-insensitive form used for client name search.
func fold(s string) string {
	return cases.Fold().String(s)
}

// ─── Accounts ────────────────────────────────────────────────────────────────

type accountRow struct {
	ID                 string `gorm:"primaryKey;size:36"`
	Email              string `gorm:"uniqueIndex;size:254;not null"`
	PasswordHash       string `gorm:"size:100;not null"`
	WorkshopName       string `gorm:"size:120"`
	FontSizePreference int    `gorm:"not null;default:16"`
	CreatedAt          time.Time
}

func (accountRow) TableName() string { return "accounts" }

func (r accountRow) model() *models.Account {
	return &models.Account{
		ID:                 r.ID,
		Email:              r.Email,
		PasswordHash:       r.PasswordHash,
		WorkshopName:       r.WorkshopName,
		FontSizePreference: r.FontSizePreference,
	}
}

type SQLAccountRepository struct {
	db *gorm.DB
}

func (r *SQLAccountRepository) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *SQLAccountRepository) FindByID(ctx context.Context, id string) (*models.Account, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *SQLAccountRepository) first(ctx context.Context, query string, arg string) (*models.Account, error) {
	var row accountRow
	err := r.db.WithContext(ctx).Where(query, arg).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("repositories: find account: %w", err)
	}
	return row.model(), nil
}

func (r *SQLAccountRepository) Create(ctx context.Context, acc models.Account) (*models.Account, error) {
	row := accountRow{
		ID:                 uuid.NewString(),
		Email:              acc.Email,
		PasswordHash:       acc.PasswordHash,
		WorkshopName:       acc.WorkshopName,
		FontSizePreference: acc.FontSizePreference,
	}
	if row.FontSizePreference == 0 {
		row.FontSizePreference = models.DefaultFontSize
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("repositories: insert account: %w", err)
	}
	return row.model(), nil
}

// isDuplicateKey recognises unique violations. Dialects without GORM error
// translation are matched on their message.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "duplicate entry")
}

// ─── Orders ──────────────────────────────────────────────────────────────────

// measurementsColumn stores measurements as a JSON object in a text column.
type measurementsColumn models.Measurements

func (m measurementsColumn) Value() (driver.Value, error) {
	b, err := json.Marshal(models.Measurements(m))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (m *measurementsColumn) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*m = measurementsColumn{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("measurements: unsupported column type %T", src)
	}
	var out models.Measurements
	if err := json.Unmarshal(raw, &out); err != nil {
		return err
	}
	*m = measurementsColumn(out)
	return nil
}

type orderRow struct {
	ID               string             `gorm:"primaryKey;size:36"`
	OwnerID          string             `gorm:"size:36;not null;index:idx_orders_owner_intake,priority:1"`
	ClientName       string             `gorm:"size:200"`
	ClientNameFold   string             `gorm:"size:200"`
	ClientPhone      string             `gorm:"size:40"`
	GarmentType      string             `gorm:"size:120"`
	Measurements     measurementsColumn `gorm:"type:text"`
	Description      string             `gorm:"type:text"`
	PreviewReference string             `gorm:"size:2048"`
	Value            float64            `gorm:"not null;default:0"`
	Status           string             `gorm:"size:20;not null"`
	IntakeDate       time.Time          `gorm:"not null;index:idx_orders_owner_intake,priority:2"`
}

func (orderRow) TableName() string { return "orders" }

func (r orderRow) model() models.Order {
	return models.Order{
		ID:      r.ID,
		OwnerID: r.OwnerID,
		Client:  models.Client{Name: r.ClientName, Phone: r.ClientPhone},
		Garment: models.Garment{
			Type:             r.GarmentType,
			Measurements:     models.Measurements(r.Measurements),
			Description:      r.Description,
			PreviewReference: r.PreviewReference,
		},
		Management: models.Management{
			Value:      r.Value,
			Status:     models.Status(r.Status),
			IntakeDate: r.IntakeDate.UTC(),
		},
	}
}

// orderColumns maps patch paths to order columns.
var orderColumns = map[string]string{
	models.PathClientName:       "client_name",
	models.PathClientPhone:      "client_phone",
	models.PathGarmentType:      "garment_type",
	models.PathGarmentMeasures:  "measurements",
	models.PathGarmentDesc:      "description",
	models.PathGarmentPreview:   "preview_reference",
	models.PathManagementValue:  "value",
	models.PathManagementStatus: "status",
	models.PathManagementIntake: "intake_date",
}

type SQLOrderRepository struct {
	db *gorm.DB
}

func (r *SQLOrderRepository) List(ctx context.Context, ownerID, search string) ([]models.Order, error) {
	q := r.db.WithContext(ctx).Where("owner_id = ?", ownerID)
	if search != "" {
		q = q.Where("client_name_fold LIKE ? ESCAPE '!'", "%"+escapeLike(fold(search))+"%")
	}

	var rows []orderRow
	if err := q.Order("intake_date DESC").Order("id DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("repositories: list orders: %w", err)
	}

	out := make([]models.Order, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.model())
	}
	return out, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer("!", "!!", "%", "!%", "_", "!_").Replace(s)
}

func (r *SQLOrderRepository) Create(ctx context.Context, o models.Order) (*models.Order, error) {
	row := orderRow{
		ID:               uuid.NewString(),
		OwnerID:          o.OwnerID,
		ClientName:       o.Client.Name,
		ClientNameFold:   fold(o.Client.Name),
		ClientPhone:      o.Client.Phone,
		GarmentType:      o.Garment.Type,
		Measurements:     measurementsColumn(o.Garment.Measurements),
		Description:      o.Garment.Description,
		PreviewReference: o.Garment.PreviewReference,
		Value:            o.Management.Value,
		Status:           string(o.Management.Status),
		IntakeDate:       models.StoreTime(o.Management.IntakeDate),
	}
	if row.Measurements == nil {
		row.Measurements = measurementsColumn{}
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, fmt.Errorf("repositories: insert order: %w", err)
	}
	created := row.model()
	return &created, nil
}

func (r *SQLOrderRepository) Get(ctx context.Context, ownerID, id string) (*models.Order, error) {
	return r.get(r.db.WithContext(ctx), ownerID, id)
}

func (r *SQLOrderRepository) get(tx *gorm.DB, ownerID, id string) (*models.Order, error) {
	var row orderRow
	err := tx.Where("id = ? AND owner_id = ?", id, ownerID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("repositories: get order: %w", err)
	}
	o := row.model()
	return &o, nil
}

// Update runs a single UPDATE ... WHERE id AND owner_id, then reads the row
// back inside the same transaction. Single-measurement fields are merged
// into the stored set, read under a row lock where the dialect has one.
func (r *SQLOrderRepository) Update(ctx context.Context, ownerID, id string, patch models.OrderPatch) (*models.Order, error) {
	fields := patch.Fields()
	if len(fields) == 0 {
		return r.Get(ctx, ownerID, id)
	}

	set := make(map[string]interface{}, len(fields)+1)
	var perKey []models.Field
	for _, f := range fields {
		if _, ok := models.MeasurementName(f.Path); ok {
			perKey = append(perKey, f)
			continue
		}
		switch v := f.Value.(type) {
		case models.Measurements:
			set[orderColumns[f.Path]] = measurementsColumn(v)
		case models.Status:
			set[orderColumns[f.Path]] = string(v)
		default:
			set[orderColumns[f.Path]] = v
		}
		if f.Path == models.PathClientName {
			set["client_name_fold"] = fold(f.Value.(string))
		}
	}

	var updated *models.Order
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(perKey) > 0 {
			current, err := r.get(lockRow(tx), ownerID, id)
			if err != nil || current == nil {
				return err
			}
			m := current.Garment.Measurements.Clone()
			for _, f := range perKey {
				name, _ := models.MeasurementName(f.Path)
				m.Set(name, f.Value)
			}
			set["measurements"] = measurementsColumn(m)
		}

		res := tx.Model(&orderRow{}).Where("id = ? AND owner_id = ?", id, ownerID).Updates(set)
		if res.Error != nil {
			return res.Error
		}
		var err error
		updated, err = r.get(tx, ownerID, id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("repositories: update order: %w", err)
	}
	return updated, nil
}

// lockRow adds SELECT ... FOR UPDATE on dialects that support it.
func lockRow(tx *gorm.DB) *gorm.DB {
	switch tx.Dialector.Name() {
	case "postgres", "mysql":
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

func (r *SQLOrderRepository) Delete(ctx context.Context, ownerID, id string) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ? AND owner_id = ?", id, ownerID).Delete(&orderRow{})
	if res.Error != nil {
		return false, fmt.Errorf("repositories: delete order: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}
