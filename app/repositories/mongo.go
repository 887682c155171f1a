package repositories

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/shashiranjanraj/fashioncraft/app/models"
)

// Collection names.
const (
	AccountsCollection = "users"
	OrdersCollection   = "orders"
)

// MongoStore keeps accounts and orders in one MongoDB database.
type MongoStore struct {
	db       *mongo.Database
	accounts *MongoAccountRepository
	orders   *MongoOrderRepository
}

// NewMongoStore returns a store over db.
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		db:       db,
		accounts: &MongoAccountRepository{col: db.Collection(AccountsCollection)},
		orders:   &MongoOrderRepository{col: db.Collection(OrdersCollection)},
	}
}

func (s *MongoStore) Driver() string { return "mongo" }

func (s *MongoStore) Accounts() AccountRepository { return s.accounts }

func (s *MongoStore) Orders() OrderRepository { return s.orders }

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.db.Client().Ping(ctx, readpref.Primary())
}

// Migrate creates the unique email index and the owner listing index.
func (s *MongoStore) Migrate(ctx context.Context) error {
	_, err := s.accounts.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("email_unique"),
	})
	if err != nil {
		return fmt.Errorf("repositories: accounts index: %w", err)
	}

	_, err = s.orders.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "ownerId", Value: 1}, {Key: "management.intakeDate", Value: -1}},
		Options: options.Index().SetName("owner_intake"),
	})
	if err != nil {
		return fmt.Errorf("repositories: orders index: %w", err)
	}
	return nil
}

// ─── Accounts ────────────────────────────────────────────────────────────────

type accountDoc struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty"`
	Email              string             `bson:"email"`
	PasswordHash       string             `bson:"passwordHash"`
	WorkshopName       string             `bson:"workshopName"`
	FontSizePreference int                `bson:"fontSizePreference"`
}

func (d accountDoc) model() *models.Account {
	return &models.Account{
		ID:                 d.ID.Hex(),
		Email:              d.Email,
		PasswordHash:       d.PasswordHash,
		WorkshopName:       d.WorkshopName,
		FontSizePreference: d.FontSizePreference,
	}
}

type MongoAccountRepository struct {
	col *mongo.Collection
}

func (r *MongoAccountRepository) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	return r.findOne(ctx, bson.D{{Key: "email", Value: email}})
}

func (r *MongoAccountRepository) FindByID(ctx context.Context, id string) (*models.Account, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	return r.findOne(ctx, bson.D{{Key: "_id", Value: oid}})
}

func (r *MongoAccountRepository) findOne(ctx context.Context, filter bson.D) (*models.Account, error) {
	var doc accountDoc
	err := r.col.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("repositories: find account: %w", err)
	}
	return doc.model(), nil
}

func (r *MongoAccountRepository) Create(ctx context.Context, acc models.Account) (*models.Account, error) {
	doc := accountDoc{
		ID:                 primitive.NewObjectID(),
		Email:              acc.Email,
		PasswordHash:       acc.PasswordHash,
		WorkshopName:       acc.WorkshopName,
		FontSizePreference: acc.FontSizePreference,
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("repositories: insert account: %w", err)
	}
	return doc.model(), nil
}

// ─── Orders ──────────────────────────────────────────────────────────────────

type orderDoc struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	OwnerID    primitive.ObjectID `bson:"ownerId"`
	Client     clientDoc          `bson:"client"`
	Garment    garmentDoc         `bson:"garment"`
	Management managementDoc      `bson:"management"`
}

type clientDoc struct {
	Name  string `bson:"name"`
	Phone string `bson:"phone"`
}

type garmentDoc struct {
	Type             string `bson:"type"`
	Measurements     bson.D `bson:"measurements"`
	Description      string `bson:"description"`
	PreviewReference string `bson:"previewReference"`
}

type managementDoc struct {
	Value      float64   `bson:"value"`
	Status     string    `bson:"status"`
	IntakeDate time.Time `bson:"intakeDate"`
}

func measurementsToBSON(m models.Measurements) bson.D {
	out := make(bson.D, 0, len(m))
	for _, e := range m {
		out = append(out, bson.E{Key: e.Name, Value: e.Value})
	}
	return out
}

func measurementsFromBSON(d bson.D) models.Measurements {
	out := make(models.Measurements, 0, len(d))
	for _, e := range d {
		out = append(out, models.Measurement{Name: e.Key, Value: models.NormalizeValue(e.Value)})
	}
	return out
}

func (d orderDoc) model() models.Order {
	status := models.Status(d.Management.Status)
	if parsed, err := models.ParseStatus(d.Management.Status); err == nil {
		status = parsed
	}
	return models.Order{
		ID:      d.ID.Hex(),
		OwnerID: d.OwnerID.Hex(),
		Client:  models.Client{Name: d.Client.Name, Phone: d.Client.Phone},
		Garment: models.Garment{
			Type:             d.Garment.Type,
			Measurements:     measurementsFromBSON(d.Garment.Measurements),
			Description:      d.Garment.Description,
			PreviewReference: d.Garment.PreviewReference,
		},
		Management: models.Management{
			Value:      d.Management.Value,
			Status:     status,
			IntakeDate: d.Management.IntakeDate.UTC(),
		},
	}
}

type MongoOrderRepository struct {
	col *mongo.Collection
}

// scope builds the {_id, ownerId} filter. ok is false when either id cannot
// be an ObjectID, in which case no document can match.
func scope(ownerID, id string) (bson.D, bool) {
	owner, err := primitive.ObjectIDFromHex(ownerID)
	if err != nil {
		return nil, false
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, false
	}
	return bson.D{{Key: "_id", Value: oid}, {Key: "ownerId", Value: owner}}, true
}

func (r *MongoOrderRepository) List(ctx context.Context, ownerID, search string) ([]models.Order, error) {
	owner, err := primitive.ObjectIDFromHex(ownerID)
	if err != nil {
		return []models.Order{}, nil
	}

	filter := bson.D{{Key: "ownerId", Value: owner}}
	if search != "" {
		filter = append(filter, bson.E{
			Key:   "client.name",
			Value: primitive.Regex{Pattern: regexp.QuoteMeta(search), Options: "i"},
		})
	}
	opts := options.Find().SetSort(bson.D{
		{Key: "management.intakeDate", Value: -1},
		{Key: "_id", Value: -1},
	})

	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("repositories: list orders: %w", err)
	}
	var docs []orderDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("repositories: decode orders: %w", err)
	}

	out := make([]models.Order, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.model())
	}
	return out, nil
}

func (r *MongoOrderRepository) Create(ctx context.Context, o models.Order) (*models.Order, error) {
	owner, err := primitive.ObjectIDFromHex(o.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("repositories: invalid owner id %q: %w", o.OwnerID, err)
	}

	doc := orderDoc{
		ID:      primitive.NewObjectID(),
		OwnerID: owner,
		Client:  clientDoc{Name: o.Client.Name, Phone: o.Client.Phone},
		Garment: garmentDoc{
			Type:             o.Garment.Type,
			Measurements:     measurementsToBSON(o.Garment.Measurements),
			Description:      o.Garment.Description,
			PreviewReference: o.Garment.PreviewReference,
		},
		Management: managementDoc{
			Value:      o.Management.Value,
			Status:     string(o.Management.Status),
			IntakeDate: models.StoreTime(o.Management.IntakeDate),
		},
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("repositories: insert order: %w", err)
	}
	created := doc.model()
	return &created, nil
}

func (r *MongoOrderRepository) Get(ctx context.Context, ownerID, id string) (*models.Order, error) {
	filter, ok := scope(ownerID, id)
	if !ok {
		return nil, nil
	}
	var doc orderDoc
	err := r.col.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("repositories: get order: %w", err)
	}
	o := doc.model()
	return &o, nil
}

func (r *MongoOrderRepository) Update(ctx context.Context, ownerID, id string, patch models.OrderPatch) (*models.Order, error) {
	filter, ok := scope(ownerID, id)
	if !ok {
		return nil, nil
	}

	fields := patch.Fields()
	if len(fields) == 0 {
		return r.Get(ctx, ownerID, id)
	}
	set := make(bson.D, 0, len(fields))
	for _, f := range fields {
		set = append(set, bson.E{Key: f.Path, Value: bsonValue(f.Value)})
	}

	var doc orderDoc
	err := r.col.FindOneAndUpdate(ctx, filter,
		bson.D{{Key: "$set", Value: set}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("repositories: update order: %w", err)
	}
	o := doc.model()
	return &o, nil
}

func bsonValue(v interface{}) interface{} {
	switch x := v.(type) {
	case models.Measurements:
		return measurementsToBSON(x)
	case models.Status:
		return string(x)
	default:
		return v
	}
}

func (r *MongoOrderRepository) Delete(ctx context.Context, ownerID, id string) (bool, error) {
	filter, ok := scope(ownerID, id)
	if !ok {
		return false, nil
	}
	res, err := r.col.DeleteOne(ctx, filter)
	if err != nil {
		return false, fmt.Errorf("repositories: delete order: %w", err)
	}
	return res.DeletedCount > 0, nil
}
