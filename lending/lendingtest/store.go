// Package lendingtest provides an in-memory lending.Store for tests.
package lendingtest

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"material_lending/lending"
	"material_lending/models"
)

// ErrDuplicateDraft mirrors the unique violation of the one-draft-per-user index.
var ErrDuplicateDraft = errors.New("lendingtest: user already has a draft")

type data struct {
	users      map[uint]models.User
	categories map[uint]models.Category
	materials  map[uint]models.Material
	requests   map[uint]models.Request
	items      map[uint]models.RequestItem
	events     []models.RequestEvent
	nextID     uint
	fail       map[string]error
}

func (d *data) clone() *data {
	c := &data{
		users:      make(map[uint]models.User, len(d.users)),
		categories: make(map[uint]models.Category, len(d.categories)),
		materials:  make(map[uint]models.Material, len(d.materials)),
		requests:   make(map[uint]models.Request, len(d.requests)),
		items:      make(map[uint]models.RequestItem, len(d.items)),
		events:     append([]models.RequestEvent(nil), d.events...),
		nextID:     d.nextID,
		fail:       d.fail,
	}
	for k, v := range d.users {
		c.users[k] = v
	}
	for k, v := range d.categories {
		c.categories[k] = v
	}
	for k, v := range d.materials {
		c.materials[k] = v
	}
	for k, v := range d.requests {
		c.requests[k] = v
	}
	for k, v := range d.items {
		c.items[k] = v
	}
	return c
}

func (d *data) id() uint {
	d.nextID++
	return d.nextID
}

// Store keeps rows stripped of associations and rebuilds the preloads on read.
// Transaction snapshots everything and restores it when fn fails.
type Store struct {
	mu   *sync.Mutex
	d    *data
	inTx bool
	Now  func() time.Time
}

var _ lending.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		mu: &sync.Mutex{},
		d: &data{
			users:      map[uint]models.User{},
			categories: map[uint]models.Category{},
			materials:  map[uint]models.Material{},
			requests:   map[uint]models.Request{},
			items:      map[uint]models.RequestItem{},
			fail:       map[string]error{},
		},
		Now: func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// FailOn makes every later call of method return err. A nil err clears it.
func (s *Store) FailOn(method string, err error) {
	defer s.lock()()
	if err == nil {
		delete(s.d.fail, method)
		return
	}
	s.d.fail[method] = err
}

func (s *Store) failed(method string) error { return s.d.fail[method] }

func (s *Store) Transaction(ctx context.Context, fn func(tx lending.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.d.clone()
	tx := &Store{mu: s.mu, d: s.d, inTx: true, Now: s.Now}
	if err := fn(tx); err != nil {
		*s.d = *snapshot
		return err
	}
	return nil
}

// ---- seeding ----

func (s *Store) AddUser(name, email string, role models.Role) *models.User {
	defer s.lock()()
	u := models.User{ID: s.d.id(), Name: name, Email: email, Role: role, CreatedAt: s.Now()}
	s.d.users[u.ID] = u
	return &u
}

func (s *Store) AddCategory(name string) *models.Category {
	defer s.lock()()
	c := models.Category{ID: s.d.id(), Name: name, CreatedAt: s.Now()}
	s.d.categories[c.ID] = c
	return &c
}

func (s *Store) AddMaterial(categoryID uint, name string, quantity, maxDays int) *models.Material {
	defer s.lock()()
	m := models.Material{ID: s.d.id(), Name: name, Quantity: quantity, MaxDaysPerRequest: maxDays, CategoryID: categoryID, CreatedAt: s.Now()}
	s.d.materials[m.ID] = m
	return &m
}

// Events returns every audit row in insertion order.
func (s *Store) Events() []models.RequestEvent {
	defer s.lock()()
	return append([]models.RequestEvent(nil), s.d.events...)
}

// ---- lending.Store ----

func (s *Store) FindUser(ctx context.Context, id uint) (*models.User, error) {
	defer s.lock()()
	if err := s.failed("FindUser"); err != nil {
		return nil, err
	}
	u, ok := s.d.users[id]
	if !ok {
		return nil, lending.NewNotFoundError("user", id)
	}
	return &u, nil
}

func (s *Store) ListUsersByRole(ctx context.Context, role models.Role) ([]models.User, error) {
	defer s.lock()()
	if err := s.failed("ListUsersByRole"); err != nil {
		return nil, err
	}
	var out []models.User
	for _, u := range s.d.users {
		if u.Role == role {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	defer s.lock()()
	out := make([]models.Category, 0, len(s.d.categories))
	for _, c := range s.d.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) ListMaterials(ctx context.Context, f lending.MaterialFilter) ([]models.Material, error) {
	defer s.lock()()
	if err := s.failed("ListMaterials"); err != nil {
		return nil, err
	}
	q := strings.ToLower(f.Q)
	var out []models.Material
	for id, m := range s.d.materials {
		if f.CategoryID != 0 && m.CategoryID != f.CategoryID {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(m.Name), q) && !strings.Contains(strings.ToLower(m.Description), q) {
			continue
		}
		out = append(out, *s.material(id, true))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) FindMaterial(ctx context.Context, id uint, lock bool) (*models.Material, error) {
	defer s.lock()()
	if err := s.failed("FindMaterial"); err != nil {
		return nil, err
	}
	if _, ok := s.d.materials[id]; !ok {
		return nil, lending.NewNotFoundError("material", id)
	}
	return s.material(id, true), nil
}

func (s *Store) FindDraft(ctx context.Context, userID uint) (*models.Request, error) {
	defer s.lock()()
	var found uint
	for id, r := range s.d.requests {
		if r.UserID == userID && r.Status == models.StatusDraft && (found == 0 || id < found) {
			found = id
		}
	}
	if found == 0 {
		return nil, lending.NewNotFoundError("request", 0)
	}
	return s.request(found), nil
}

func (s *Store) FindRequest(ctx context.Context, id uint, lock bool) (*models.Request, error) {
	defer s.lock()()
	if err := s.failed("FindRequest"); err != nil {
		return nil, err
	}
	if _, ok := s.d.requests[id]; !ok {
		return nil, lending.NewNotFoundError("request", id)
	}
	return s.request(id), nil
}

func (s *Store) ListRequests(ctx context.Context, f lending.RequestFilter) ([]models.Request, error) {
	defer s.lock()()
	if err := s.failed("ListRequests"); err != nil {
		return nil, err
	}
	want := map[models.Status]bool{}
	for _, st := range f.Statuses {
		want[st] = true
	}
	var ids []uint
	for id, r := range s.d.requests {
		if len(want) > 0 && !want[r.Status] {
			continue
		}
		if len(want) == 0 && !f.IncludeDrafts && r.Status == models.StatusDraft {
			continue
		}
		if f.UserID != 0 && r.UserID != f.UserID {
			continue
		}
		if f.RequestedFrom != nil && (r.RequestedAt == nil || r.RequestedAt.Before(*f.RequestedFrom)) {
			continue
		}
		if f.RequestedTo != nil && (r.RequestedAt == nil || r.RequestedAt.After(*f.RequestedTo)) {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]models.Request, 0, len(ids))
	for _, id := range ids {
		out = append(out, *s.request(id))
	}
	return out, nil
}

func (s *Store) CreateRequest(ctx context.Context, r *models.Request) error {
	defer s.lock()()
	if err := s.failed("CreateRequest"); err != nil {
		return err
	}
	if r.Status == models.StatusDraft {
		for _, other := range s.d.requests {
			if other.UserID == r.UserID && other.Status == models.StatusDraft {
				return ErrDuplicateDraft
			}
		}
	}
	r.ID = s.d.id()
	r.CreatedAt, r.UpdatedAt = s.Now(), s.Now()
	s.d.requests[r.ID] = stripRequest(*r)
	return nil
}

func (s *Store) UpdateRequest(ctx context.Context, r *models.Request) error {
	defer s.lock()()
	if err := s.failed("UpdateRequest"); err != nil {
		return err
	}
	if _, ok := s.d.requests[r.ID]; !ok {
		return lending.NewNotFoundError("request", r.ID)
	}
	r.UpdatedAt = s.Now()
	s.d.requests[r.ID] = stripRequest(*r)
	return nil
}

func (s *Store) CreateItem(ctx context.Context, it *models.RequestItem) error {
	defer s.lock()()
	if err := s.failed("CreateItem"); err != nil {
		return err
	}
	it.ID = s.d.id()
	it.CreatedAt, it.UpdatedAt = s.Now(), s.Now()
	s.d.items[it.ID] = stripItem(*it)
	return nil
}

func (s *Store) UpdateItem(ctx context.Context, it *models.RequestItem) error {
	defer s.lock()()
	if err := s.failed("UpdateItem"); err != nil {
		return err
	}
	if _, ok := s.d.items[it.ID]; !ok {
		return lending.NewNotFoundError("request_item", it.ID)
	}
	it.UpdatedAt = s.Now()
	s.d.items[it.ID] = stripItem(*it)
	return nil
}

func (s *Store) DeleteItem(ctx context.Context, id uint) error {
	defer s.lock()()
	if _, ok := s.d.items[id]; !ok {
		return lending.NewNotFoundError("request_item", id)
	}
	delete(s.d.items, id)
	return nil
}

func (s *Store) AppendEvent(ctx context.Context, ev *models.RequestEvent) error {
	defer s.lock()()
	if err := s.failed("AppendEvent"); err != nil {
		return err
	}
	ev.ID = s.d.id()
	s.d.events = append(s.d.events, *ev)
	return nil
}

func (s *Store) ListEvents(ctx context.Context, requestID uint) ([]models.RequestEvent, error) {
	defer s.lock()()
	var out []models.RequestEvent
	for _, ev := range s.d.events {
		if ev.RequestID == requestID {
			out = append(out, ev)
		}
	}
	return out, nil
}

// ---- preload assembly ----

func (s *Store) material(id uint, withItems bool) *models.Material {
	m := s.d.materials[id]
	if c, ok := s.d.categories[m.CategoryID]; ok {
		m.Category = &c
	}
	if !withItems {
		return &m
	}
	for _, itemID := range s.sortedItemIDs(func(it models.RequestItem) bool { return it.MaterialID == id }) {
		it := s.d.items[itemID]
		r := s.d.requests[it.RequestID]
		it.Request = &r
		m.RequestItems = append(m.RequestItems, it)
	}
	return &m
}

func (s *Store) request(id uint) *models.Request {
	r := s.d.requests[id]
	if u, ok := s.d.users[r.UserID]; ok {
		r.User = &u
	}
	for _, itemID := range s.sortedItemIDs(func(it models.RequestItem) bool { return it.RequestID == id }) {
		it := s.d.items[itemID]
		it.Material = s.material(it.MaterialID, false)
		r.Items = append(r.Items, it)
	}
	return &r
}

func (s *Store) sortedItemIDs(keep func(models.RequestItem) bool) []uint {
	var ids []uint
	for id, it := range s.d.items {
		if keep(it) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func stripRequest(r models.Request) models.Request {
	r.User = nil
	r.Items = nil
	return r
}

func stripItem(it models.RequestItem) models.RequestItem {
	it.Request = nil
	it.Material = nil
	return it
}
