package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/medlink-api/internal/errs"
	"github.com/harentsoaR/medlink-api/internal/models"
	"github.com/harentsoaR/medlink-api/internal/services"
	"github.com/harentsoaR/medlink-api/internal/store"
)

// Compile-time checks that the fakes satisfy the handler contracts.
var (
	_ PartnerStore = (*fakePartners)(nil)
	_ ImageStore   = (*fakeImages)(nil)
	_ UserStore    = (*fakeUsers)(nil)
	_ OrderStore   = (*fakeOrders)(nil)
	_ ReviewStore  = (*fakeReviews)(nil)
	_ PaymentStore = (*fakePayments)(nil)
	_ MediaStore   = (*fakeMedia)(nil)
	_ Cache        = (*fakeCache)(nil)
	_ Events       = (*fakeEvents)(nil)
)

// --- fakePartners ---

type fakePartners struct {
	mu       sync.Mutex
	docs     map[primitive.ObjectID]models.Partner
	lastList models.PartnerFilter

	CreateErr  error
	ReplaceErr error
	Calls      int32
	ListCalls  int32
}

func newFakePartners() *fakePartners {
	return &fakePartners{docs: map[primitive.ObjectID]models.Partner{}}
}

func (f *fakePartners) seed(p models.Partner) models.Partner {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	f.docs[p.ID] = p
	return p
}

func (f *fakePartners) stored(id primitive.ObjectID) (models.Partner, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.docs[id]
	return p, ok
}

func (f *fakePartners) Create(_ context.Context, p *models.Partner) error {
	atomic.AddInt32(&f.Calls, 1)
	if f.CreateErr != nil {
		return f.CreateErr
	}
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	f.seed(*p)
	return nil
}

func (f *fakePartners) List(_ context.Context, filter models.PartnerFilter) ([]models.Partner, error) {
	atomic.AddInt32(&f.Calls, 1)
	atomic.AddInt32(&f.ListCalls, 1)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastList = filter

	search := strings.ToLower(filter.Search)
	out := make([]models.Partner, 0)
	for _, p := range f.docs {
		if filter.IsActive != nil && p.IsActive != *filter.IsActive {
			continue
		}
		if filter.PartnerType != "" && string(p.PartnerType) != filter.PartnerType {
			continue
		}
		if filter.Profession != "" && p.Profession != filter.Profession {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.Profession), search) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakePartners) Get(ctx context.Context, id primitive.ObjectID) (*models.Partner, error) {
	return f.FindByID(ctx, id)
}

func (f *fakePartners) FindByID(_ context.Context, id primitive.ObjectID) (*models.Partner, error) {
	atomic.AddInt32(&f.Calls, 1)
	p, ok := f.stored(id)
	if !ok {
		return nil, errs.NotFound("Partner")
	}
	return &p, nil
}

func (f *fakePartners) Replace(_ context.Context, p *models.Partner) error {
	atomic.AddInt32(&f.Calls, 1)
	if f.ReplaceErr != nil {
		return f.ReplaceErr
	}
	if _, ok := f.stored(p.ID); !ok {
		return errs.NotFound("Partner")
	}
	f.seed(*p)
	return nil
}

func (f *fakePartners) ClearImage(_ context.Context, id, imageID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.docs[id]
	if ok && p.Image.ID() == imageID {
		p.Image = models.Ref[models.Image]{}
		f.docs[id] = p
	}
	return nil
}

func (f *fakePartners) Delete(_ context.Context, id primitive.ObjectID) error {
	atomic.AddInt32(&f.Calls, 1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.docs[id]; !ok {
		return errs.NotFound("Partner")
	}
	delete(f.docs, id)
	return nil
}

func (f *fakePartners) ToggleActive(_ context.Context, id primitive.ObjectID) (*models.Partner, error) {
	atomic.AddInt32(&f.Calls, 1)
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.docs[id]
	if !ok {
		return nil, errs.NotFound("Partner")
	}
	p.IsActive = !p.IsActive
	f.docs[id] = p
	return &p, nil
}

func (f *fakePartners) Stats(_ context.Context) (models.PartnerStats, error) {
	atomic.AddInt32(&f.Calls, 1)
	f.mu.Lock()
	defer f.mu.Unlock()
	byType := map[string]*models.PartnerTypeCount{}
	for _, p := range f.docs {
		row, ok := byType[string(p.PartnerType)]
		if !ok {
			row = &models.PartnerTypeCount{PartnerType: string(p.PartnerType)}
			byType[row.PartnerType] = row
		}
		row.Count++
		if p.IsActive {
			row.Active++
		}
	}
	rows := make([]models.PartnerTypeCount, 0, len(byType))
	for _, r := range byType {
		rows = append(rows, *r)
	}
	return models.FoldPartnerStats(rows), nil
}

// --- fakeImages ---

type fakeImages struct {
	mu   sync.Mutex
	docs map[primitive.ObjectID]models.Image

	Created int32
	Deleted int32
}

func newFakeImages() *fakeImages {
	return &fakeImages{docs: map[primitive.ObjectID]models.Image{}}
}

func (f *fakeImages) Create(_ context.Context, img *models.Image) error {
	atomic.AddInt32(&f.Created, 1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if img.ID.IsZero() {
		img.ID = primitive.NewObjectID()
	}
	f.docs[img.ID] = *img
	return nil
}

func (f *fakeImages) FindByID(_ context.Context, id primitive.ObjectID) (*models.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	img, ok := f.docs[id]
	if !ok {
		return nil, errs.NotFound("Image")
	}
	return &img, nil
}

func (f *fakeImages) Delete(_ context.Context, id primitive.ObjectID) error {
	atomic.AddInt32(&f.Deleted, 1)
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.docs, id)
	return nil
}

func (f *fakeImages) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.docs)
}

// --- fakeMedia ---

type fakeMedia struct {
	mu      sync.Mutex
	seq     int
	deleted []string

	UploadErr error
	Uploads   int32
}

func (f *fakeMedia) Upload(_ context.Context, file io.Reader, folder string) (*services.UploadResult, error) {
	atomic.AddInt32(&f.Uploads, 1)
	if f.UploadErr != nil {
		return nil, f.UploadErr
	}
	if _, err := io.ReadAll(file); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	id := fmt.Sprintf("%s/upload-%d", folder, f.seq)
	return &services.UploadResult{SecureURL: "https://cdn.example.com/" + id + ".png", PublicID: id}, nil
}

func (f *fakeMedia) Delete(_ context.Context, publicID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, publicID)
	return nil
}

func (f *fakeMedia) deletedHandles() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.deleted)
}

// --- fakeCache ---

type fakeCache struct {
	mu          sync.Mutex
	entries     map[string][]byte
	Invalidated int32
}

func newFakeCache() *fakeCache { return &fakeCache{entries: map[string][]byte{}} }

func (f *fakeCache) Get(_ context.Context, key string, dst any) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.entries[key]
	return ok && json.Unmarshal(data, dst) == nil
}

func (f *fakeCache) Set(_ context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[key] = data
}

func (f *fakeCache) Invalidate(_ context.Context, keys ...string) {
	atomic.AddInt32(&f.Invalidated, 1)
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.entries, k)
	}
}

// --- fakeEvents ---

type fakeEvents struct {
	mu       sync.Mutex
	subjects []string
}

func (f *fakeEvents) Publish(subject string, _ services.PartnerEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subjects = append(f.subjects, subject)
}

func (f *fakeEvents) published() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.subjects)
}

// --- fakeUsers ---

type fakeUsers struct {
	mu   sync.Mutex
	docs map[primitive.ObjectID]models.User

	UpdateErr error
}

func newFakeUsers() *fakeUsers { return &fakeUsers{docs: map[primitive.ObjectID]models.User{}} }

func (f *fakeUsers) seed(u models.User) models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	if u.PushTokens == nil {
		u.PushTokens = []string{}
	}
	f.docs[u.ID] = u
	return u
}

func (f *fakeUsers) Create(_ context.Context, u *models.User) error {
	f.mu.Lock()
	for _, existing := range f.docs {
		if existing.Email == u.Email {
			f.mu.Unlock()
			return errs.Conflict("An account with this email already exists")
		}
	}
	f.mu.Unlock()
	if err := store.HashPasswordHook(u, models.Changed("password")); err != nil {
		return err
	}
	*u = f.seed(*u)
	return nil
}

func (f *fakeUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.docs {
		if u.Email == models.NormalizeEmail(email) {
			return &u, nil
		}
	}
	return nil, errs.NotFound("User")
}

func (f *fakeUsers) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.docs[id]
	if !ok {
		return nil, errs.NotFound("User")
	}
	u.Password = ""
	return &u, nil
}

func (f *fakeUsers) Update(_ context.Context, u *models.User, changed models.FieldSet) error {
	if f.UpdateErr != nil {
		return f.UpdateErr
	}
	if err := store.HashPasswordHook(u, changed); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.docs[u.ID]
	if !ok {
		return errs.NotFound("User")
	}
	if changed.Has("name") {
		stored.Name = u.Name
	}
	if changed.Has("phone") {
		stored.Phone = u.Phone
	}
	if changed.Has("origin") {
		stored.Origin = u.Origin
	}
	if changed.Has("password") {
		stored.Password = u.Password
	}
	if changed.Has("image") {
		stored.Image = u.Image
	}
	f.docs[u.ID] = stored
	return nil
}

func (f *fakeUsers) ClearImage(_ context.Context, id, imageID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.docs[id]
	if ok && u.Image.ID() == imageID {
		u.Image = models.Ref[models.Image]{}
		f.docs[id] = u
	}
	return nil
}

func (f *fakeUsers) AddPushToken(_ context.Context, id primitive.ObjectID, token string) ([]string, error) {
	return f.mutateTokens(id, func(tokens []string) []string {
		if slices.Contains(tokens, token) {
			return tokens
		}
		return append(tokens, token)
	})
}

func (f *fakeUsers) RemovePushToken(_ context.Context, id primitive.ObjectID, token string) ([]string, error) {
	return f.mutateTokens(id, func(tokens []string) []string {
		return slices.DeleteFunc(tokens, func(t string) bool { return t == token })
	})
}

func (f *fakeUsers) mutateTokens(id primitive.ObjectID, fn func([]string) []string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.docs[id]
	if !ok {
		return nil, errs.NotFound("User")
	}
	u.PushTokens = fn(slices.Clone(u.PushTokens))
	f.docs[id] = u
	return slices.Clone(u.PushTokens), nil
}

func (f *fakeUsers) ListByRole(_ context.Context, role models.Role) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.User, 0)
	for _, u := range f.docs {
		if u.HasRole(role) {
			u.Password = ""
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// --- fakeOrders ---

type fakeOrders struct {
	mu                sync.Mutex
	docs              map[primitive.ObjectID]models.Order
	ListByPartnerFunc func(ctx context.Context, partnerID primitive.ObjectID) ([]models.OrderSummary, error)
}

func (f *fakeOrders) seed(o models.Order) models.Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.docs == nil {
		f.docs = map[primitive.ObjectID]models.Order{}
	}
	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	f.docs[o.ID] = o
	return o
}

func (f *fakeOrders) FindByID(_ context.Context, id primitive.ObjectID) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.docs[id]
	if !ok {
		return nil, errs.NotFound("Order")
	}
	return &o, nil
}

func (f *fakeOrders) ListByPartner(ctx context.Context, partnerID primitive.ObjectID) ([]models.OrderSummary, error) {
	if f.ListByPartnerFunc != nil {
		return f.ListByPartnerFunc(ctx, partnerID)
	}
	return []models.OrderSummary{}, nil
}

// --- fakeReviews ---

type fakeReviews struct {
	mu   sync.Mutex
	docs []models.Review
}

func (f *fakeReviews) Create(_ context.Context, r *models.Review) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r.ID = primitive.NewObjectID()
	f.docs = append(f.docs, *r)
	return nil
}

func (f *fakeReviews) ListByDoctor(_ context.Context, doctorID primitive.ObjectID) ([]models.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Review, 0)
	for i := len(f.docs) - 1; i >= 0; i-- {
		if f.docs[i].Doctor == doctorID {
			out = append(out, f.docs[i])
		}
	}
	return out, nil
}

// --- fakePayments ---

type fakePayments struct {
	mu   sync.Mutex
	docs map[primitive.ObjectID]models.Payment
}

func newFakePayments() *fakePayments {
	return &fakePayments{docs: map[primitive.ObjectID]models.Payment{}}
}

func (f *fakePayments) Create(_ context.Context, p *models.Payment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	f.docs[p.ID] = *p
	return nil
}

func (f *fakePayments) FindByID(_ context.Context, id primitive.ObjectID) (*models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.docs[id]
	if !ok {
		return nil, errs.NotFound("Payment")
	}
	return &p, nil
}

func (f *fakePayments) UpdateStatus(_ context.Context, id primitive.ObjectID, status models.PaymentStatus) (*models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.docs[id]
	if !ok {
		return nil, errs.NotFound("Payment")
	}
	p.Status = status
	f.docs[id] = p
	return &p, nil
}

func (f *fakePayments) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.docs)
}
