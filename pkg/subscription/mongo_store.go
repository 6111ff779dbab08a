package subscription

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/visitdesk/visitdesk/pkg/plan"
)

const (
	collSubscriptions = "subscriptions"
	collHistory       = "subscription_history"
	collAddons        = "addon_subscriptions"
	collProfiles      = "billing_profiles"
	collTenants       = "tenants"
)

// MongoStores bundles the MongoDB-backed store implementations over one
// database handle.
type MongoStores struct {
	Records  *MongoRecordStore
	History  *MongoHistoryStore
	Addons   *MongoAddonStore
	Profiles *MongoProfileStore
	Tenants  *MongoTenantStore
}

// NewMongoStores builds all five stores over db.
func NewMongoStores(db *mongo.Database) *MongoStores {
	return &MongoStores{
		Records:  &MongoRecordStore{col: db.Collection(collSubscriptions)},
		History:  &MongoHistoryStore{col: db.Collection(collHistory)},
		Addons:   &MongoAddonStore{col: db.Collection(collAddons)},
		Profiles: &MongoProfileStore{col: db.Collection(collProfiles)},
		Tenants:  &MongoTenantStore{col: db.Collection(collTenants)},
	}
}

// EnsureIndexes creates the indexes the engine's invariants depend on, most
// importantly the unique partial indexes on external payment identifiers
// that close the lookup-then-insert race under concurrent webhook delivery.
func (s *MongoStores) EnsureIndexes(ctx context.Context) error {
	paymentIDUnique := options.Index().
		SetUnique(true).
		SetPartialFilterExpression(bson.M{"payment_id": bson.M{"$gt": ""}})

	if _, err := s.Records.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "payment_id", Value: 1}}, Options: paymentIDUnique},
		{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "end_date", Value: -1}}},
	}); err != nil {
		return err
	}

	if _, err := s.Addons.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "payment_id", Value: 1}}, Options: paymentIDUnique},
		{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "created_at", Value: -1}}},
	}); err != nil {
		return err
	}

	_, err := s.History.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "purchased_at", Value: -1}}},
		{Keys: bson.D{{Key: "invoice_number", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	return err
}

type recordDoc struct {
	ID            string     `bson:"_id"`
	TenantID      string     `bson:"tenant_id"`
	PlanType      string     `bson:"plan_type"`
	StartDate     time.Time  `bson:"start_date"`
	EndDate       time.Time  `bson:"end_date"`
	IsActive      bool       `bson:"is_active"`
	PaymentStatus string     `bson:"payment_status"`
	TrialDays     int        `bson:"trial_days"`
	OrderID       string     `bson:"order_id,omitempty"`
	PaymentID     string     `bson:"payment_id,omitempty"`
	CreatedAt     time.Time  `bson:"created_at"`
	UpdatedAt     time.Time  `bson:"updated_at"`
	DeletedAt     *time.Time `bson:"deleted_at,omitempty"`
}

func toRecordDoc(r *Record) recordDoc {
	return recordDoc{
		ID:            r.ID.String(),
		TenantID:      r.TenantID.String(),
		PlanType:      string(r.PlanType),
		StartDate:     r.StartDate,
		EndDate:       r.EndDate,
		IsActive:      r.IsActive,
		PaymentStatus: string(r.PaymentStatus),
		TrialDays:     r.TrialDays,
		OrderID:       r.OrderID,
		PaymentID:     r.PaymentID,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
		DeletedAt:     r.DeletedAt,
	}
}

func (d recordDoc) toRecord() (*Record, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, err
	}
	tenantID, err := uuid.Parse(d.TenantID)
	if err != nil {
		return nil, err
	}
	return &Record{
		ID:            id,
		TenantID:      tenantID,
		PlanType:      plan.Type(d.PlanType),
		StartDate:     d.StartDate,
		EndDate:       d.EndDate,
		IsActive:      d.IsActive,
		PaymentStatus: PaymentStatus(d.PaymentStatus),
		TrialDays:     d.TrialDays,
		OrderID:       d.OrderID,
		PaymentID:     d.PaymentID,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
		DeletedAt:     d.DeletedAt,
	}, nil
}

// MongoRecordStore persists subscription segments in the subscriptions
// collection.
type MongoRecordStore struct {
	col *mongo.Collection
}

func (s *MongoRecordStore) Insert(ctx context.Context, rec *Record) error {
	_, err := s.col.InsertOne(ctx, toRecordDoc(rec))
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicatePayment
	}
	return err
}

func (s *MongoRecordStore) Update(ctx context.Context, rec *Record) error {
	res, err := s.col.ReplaceOne(ctx, bson.M{"_id": rec.ID.String()}, toRecordDoc(rec))
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicatePayment
	}
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (s *MongoRecordStore) Applicable(ctx context.Context, tenantID uuid.UUID, at time.Time) (*Record, error) {
	filter := bson.M{
		"tenant_id":  tenantID.String(),
		"is_active":  true,
		"start_date": bson.M{"$lte": at},
		"end_date":   bson.M{"$gte": at},
		"deleted_at": nil,
	}
	return s.findOne(ctx, filter, options.FindOne().SetSort(bson.D{{Key: "start_date", Value: -1}}))
}

func (s *MongoRecordStore) Latest(ctx context.Context, tenantID uuid.UUID) (*Record, error) {
	filter := bson.M{"tenant_id": tenantID.String()}
	sort := bson.D{{Key: "end_date", Value: -1}, {Key: "created_at", Value: -1}}
	return s.findOne(ctx, filter, options.FindOne().SetSort(sort))
}

func (s *MongoRecordStore) ByPaymentID(ctx context.Context, paymentID string) (*Record, error) {
	if paymentID == "" {
		return nil, ErrRecordNotFound
	}
	return s.findOne(ctx, bson.M{"payment_id": paymentID})
}

func (s *MongoRecordStore) ExpireLapsed(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.col.UpdateMany(ctx,
		bson.M{"is_active": true, "end_date": bson.M{"$lte": now}},
		bson.M{"$set": bson.M{
			"is_active":      false,
			"payment_status": string(StatusFailed),
			"updated_at":     now,
		}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (s *MongoRecordStore) findOne(ctx context.Context, filter bson.M, opts ...options.Lister[options.FindOneOptions]) (*Record, error) {
	var doc recordDoc
	err := s.col.FindOne(ctx, filter, opts...).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.toRecord()
}

type billingSnapshotDoc struct {
	CompanyName string `bson:"company_name,omitempty"`
	Address     string `bson:"address,omitempty"`
	City        string `bson:"city,omitempty"`
	Country     string `bson:"country,omitempty"`
	VATNumber   string `bson:"vat_number,omitempty"`
	BankName    string `bson:"bank_name,omitempty"`
	BankAccount string `bson:"bank_account,omitempty"`
}

func toSnapshotDoc(s BillingSnapshot) billingSnapshotDoc {
	return billingSnapshotDoc(s)
}

type historyDoc struct {
	ID            string             `bson:"_id"`
	TenantID      string             `bson:"tenant_id"`
	RecordID      string             `bson:"record_id"`
	PlanType      string             `bson:"plan_type"`
	InvoiceNumber string             `bson:"invoice_number"`
	PurchasedAt   time.Time          `bson:"purchased_at"`
	StartDate     time.Time          `bson:"start_date"`
	EndDate       time.Time          `bson:"end_date"`
	Amount        int64              `bson:"amount"`
	Currency      string             `bson:"currency,omitempty"`
	TaxAmount     int64              `bson:"tax_amount"`
	TaxPercent    float64            `bson:"tax_percent"`
	PaymentStatus string             `bson:"payment_status"`
	OrderID       string             `bson:"order_id,omitempty"`
	PaymentID     string             `bson:"payment_id,omitempty"`
	Source        string             `bson:"source"`
	Billing       billingSnapshotDoc `bson:"billing"`
}

// MongoHistoryStore persists the append-only history ledger. It exposes no
// update or delete operations.
type MongoHistoryStore struct {
	col *mongo.Collection
}

func (s *MongoHistoryStore) Append(ctx context.Context, e *HistoryEntry) error {
	_, err := s.col.InsertOne(ctx, historyDoc{
		ID:            e.ID.String(),
		TenantID:      e.TenantID.String(),
		RecordID:      e.RecordID.String(),
		PlanType:      string(e.PlanType),
		InvoiceNumber: e.InvoiceNumber,
		PurchasedAt:   e.PurchasedAt,
		StartDate:     e.StartDate,
		EndDate:       e.EndDate,
		Amount:        e.Amount,
		Currency:      e.Currency,
		TaxAmount:     e.TaxAmount,
		TaxPercent:    e.TaxPercent,
		PaymentStatus: string(e.PaymentStatus),
		OrderID:       e.OrderID,
		PaymentID:     e.PaymentID,
		Source:        string(e.Source),
		Billing:       toSnapshotDoc(e.Billing),
	})
	return err
}

func (s *MongoHistoryStore) List(ctx context.Context, tenantID uuid.UUID, page Page) ([]HistoryEntry, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "purchased_at", Value: -1}}).
		SetSkip(page.Offset).
		SetLimit(page.Limit)

	cur, err := s.col.Find(ctx, bson.M{"tenant_id": tenantID.String()}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var entries []HistoryEntry
	for cur.Next(ctx) {
		var doc historyDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		entry, err := doc.toEntry()
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, cur.Err()
}

func (d historyDoc) toEntry() (*HistoryEntry, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, err
	}
	tenantID, err := uuid.Parse(d.TenantID)
	if err != nil {
		return nil, err
	}
	recordID, err := uuid.Parse(d.RecordID)
	if err != nil {
		return nil, err
	}
	return &HistoryEntry{
		ID:            id,
		TenantID:      tenantID,
		RecordID:      recordID,
		PlanType:      plan.Type(d.PlanType),
		InvoiceNumber: d.InvoiceNumber,
		PurchasedAt:   d.PurchasedAt,
		StartDate:     d.StartDate,
		EndDate:       d.EndDate,
		Amount:        d.Amount,
		Currency:      d.Currency,
		TaxAmount:     d.TaxAmount,
		TaxPercent:    d.TaxPercent,
		PaymentStatus: PaymentStatus(d.PaymentStatus),
		OrderID:       d.OrderID,
		PaymentID:     d.PaymentID,
		Source:        Source(d.Source),
		Billing:       BillingSnapshot(d.Billing),
	}, nil
}

type addonDoc struct {
	ID            string    `bson:"_id"`
	TenantID      string    `bson:"tenant_id"`
	AddonID       string    `bson:"addon_id"`
	Resource      string    `bson:"resource"`
	Quantity      int64     `bson:"quantity"`
	PaymentStatus string    `bson:"payment_status"`
	OrderID       string    `bson:"order_id,omitempty"`
	PaymentID     string    `bson:"payment_id,omitempty"`
	IsActive      bool      `bson:"is_active"`
	CreatedAt     time.Time `bson:"created_at"`
}

// MongoAddonStore persists the add-on ledger.
type MongoAddonStore struct {
	col *mongo.Collection
}

func (s *MongoAddonStore) Insert(ctx context.Context, rec *AddonRecord) error {
	_, err := s.col.InsertOne(ctx, addonDoc{
		ID:            rec.ID.String(),
		TenantID:      rec.TenantID.String(),
		AddonID:       rec.AddonID,
		Resource:      string(rec.Resource),
		Quantity:      rec.Quantity,
		PaymentStatus: string(rec.PaymentStatus),
		OrderID:       rec.OrderID,
		PaymentID:     rec.PaymentID,
		IsActive:      rec.IsActive,
		CreatedAt:     rec.CreatedAt,
	})
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicatePayment
	}
	return err
}

func (s *MongoAddonStore) ByPaymentID(ctx context.Context, paymentID string) (*AddonRecord, error) {
	if paymentID == "" {
		return nil, ErrRecordNotFound
	}
	var doc addonDoc
	err := s.col.FindOne(ctx, bson.M{"payment_id": paymentID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.toAddon()
}

func (s *MongoAddonStore) ValidBetween(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]AddonRecord, error) {
	filter := bson.M{
		"tenant_id":      tenantID.String(),
		"payment_status": string(StatusSucceeded),
		"is_active":      true,
		"created_at":     bson.M{"$gte": from, "$lte": to},
	}
	return s.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
}

func (s *MongoAddonStore) List(ctx context.Context, tenantID uuid.UUID, page Page) ([]AddonRecord, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(page.Offset).
		SetLimit(page.Limit)
	return s.find(ctx, bson.M{"tenant_id": tenantID.String()}, opts)
}

func (s *MongoAddonStore) find(ctx context.Context, filter bson.M, opts ...options.Lister[options.FindOptions]) ([]AddonRecord, error) {
	cur, err := s.col.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var records []AddonRecord
	for cur.Next(ctx) {
		var doc addonDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		rec, err := doc.toAddon()
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, cur.Err()
}

func (d addonDoc) toAddon() (*AddonRecord, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, err
	}
	tenantID, err := uuid.Parse(d.TenantID)
	if err != nil {
		return nil, err
	}
	return &AddonRecord{
		ID:            id,
		TenantID:      tenantID,
		AddonID:       d.AddonID,
		Resource:      plan.Resource(d.Resource),
		Quantity:      d.Quantity,
		PaymentStatus: PaymentStatus(d.PaymentStatus),
		OrderID:       d.OrderID,
		PaymentID:     d.PaymentID,
		IsActive:      d.IsActive,
		CreatedAt:     d.CreatedAt,
	}, nil
}

type profileDoc struct {
	ID                string             `bson:"_id"`
	Snapshot          billingSnapshotDoc `bson:"snapshot"`
	InvoicePrefix     string             `bson:"invoice_prefix"`
	NextInvoiceNumber int64              `bson:"next_invoice_number"`
}

const defaultProfileID = "default"

// MongoProfileStore reads the billing profile and allocates invoice
// sequence numbers through an atomic $inc, so concurrent purchases can
// never observe the same sequence value.
type MongoProfileStore struct {
	col *mongo.Collection
}

func (s *MongoProfileStore) Current(ctx context.Context) (*BillingProfile, error) {
	var doc profileDoc
	err := s.col.FindOne(ctx, bson.M{"_id": defaultProfileID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	return &BillingProfile{
		Snapshot:          BillingSnapshot(doc.Snapshot),
		InvoicePrefix:     doc.InvoicePrefix,
		NextInvoiceNumber: doc.NextInvoiceNumber,
	}, nil
}

func (s *MongoProfileStore) NextInvoiceSeq(ctx context.Context) (int64, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var doc profileDoc
	err := s.col.FindOneAndUpdate(ctx,
		bson.M{"_id": defaultProfileID},
		bson.M{"$inc": bson.M{"next_invoice_number": 1}},
		opts,
	).Decode(&doc)
	if err != nil {
		return 0, err
	}
	return doc.NextInvoiceNumber, nil
}

// MongoTenantStore maintains the cached active-subscription pointer on the
// tenants collection. The pointer is a hint for dashboards; access checks
// always use the date-range query.
type MongoTenantStore struct {
	col *mongo.Collection
}

func (s *MongoTenantStore) SetActiveSubscription(ctx context.Context, tenantID, recordID uuid.UUID) error {
	_, err := s.col.UpdateOne(ctx,
		bson.M{"_id": tenantID.String()},
		bson.M{"$set": bson.M{"active_subscription_id": recordID.String()}},
	)
	return err
}

func (s *MongoTenantStore) ClearActiveSubscription(ctx context.Context, tenantID uuid.UUID) error {
	_, err := s.col.UpdateOne(ctx,
		bson.M{"_id": tenantID.String()},
		bson.M{"$unset": bson.M{"active_subscription_id": ""}},
	)
	return err
}
