package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/techmarket/marketplace-api/internal/models"
)

// MemoryStore is an in-memory backing store shared by the Memory*
// repositories. It is used by the test suites and keeps the same locking
// contract as the MySQL store: a transaction holds the write lock for its
// whole duration, so read-check-write sequences inside one cannot interleave.
type MemoryStore struct {
	mu sync.RWMutex

	nextUserID     int64
	nextCategoryID int64
	nextProductID  int64
	nextCartID     int64
	nextItemID     int64
	nextOrderID    int64
	nextOrderItem  int64

	users      map[int64]models.User
	categories map[int64]models.Category
	products   map[int64]models.Product
	carts      map[int64]models.Cart
	cartItems  map[int64]models.CartItem
	orders     map[int64]models.Order
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextUserID:     1,
		nextCategoryID: 1,
		nextProductID:  1,
		nextCartID:     1,
		nextItemID:     1,
		nextOrderID:    1,
		nextOrderItem:  1,
		users:          make(map[int64]models.User),
		categories:     make(map[int64]models.Category),
		products:       make(map[int64]models.Product),
		carts:          make(map[int64]models.Cart),
		cartItems:      make(map[int64]models.CartItem),
		orders:         make(map[int64]models.Order),
	}
}

type memTxKey struct{}

func inMemTx(ctx context.Context) bool {
	v, ok := ctx.Value(memTxKey{}).(bool)
	return ok && v
}

func (m *MemoryStore) rlock(ctx context.Context) {
	if !inMemTx(ctx) {
		m.mu.RLock()
	}
}

func (m *MemoryStore) runlock(ctx context.Context) {
	if !inMemTx(ctx) {
		m.mu.RUnlock()
	}
}

func (m *MemoryStore) wlock(ctx context.Context) {
	if !inMemTx(ctx) {
		m.mu.Lock()
	}
}

func (m *MemoryStore) wunlock(ctx context.Context) {
	if !inMemTx(ctx) {
		m.mu.Unlock()
	}
}

// MemoryTx emulates a transaction boundary with the store-wide write lock.
// Callers are expected to perform all reads and validation before the first
// write, so an error return leaves the store unchanged.
type MemoryTx struct {
	store *MemoryStore
}

// NewMemoryTx creates a TxManager over the in-memory store
func NewMemoryTx(store *MemoryStore) *MemoryTx {
	return &MemoryTx{store: store}
}

var _ TxManager = (*MemoryTx)(nil)

func (t *MemoryTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if inMemTx(ctx) {
		return fn(ctx)
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	return fn(context.WithValue(ctx, memTxKey{}, true))
}

// MemoryUsers implements UserRepository
type MemoryUsers struct {
	store *MemoryStore
}

func NewMemoryUsers(store *MemoryStore) *MemoryUsers { return &MemoryUsers{store: store} }

var _ UserRepository = (*MemoryUsers)(nil)

func (m *MemoryUsers) List(ctx context.Context) ([]models.User, error) {
	m.store.rlock(ctx)
	defer m.store.runlock(ctx)
	out := make([]models.User, 0, len(m.store.users))
	for _, u := range m.store.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryUsers) GetByID(ctx context.Context, id int64) (*models.User, error) {
	m.store.rlock(ctx)
	defer m.store.runlock(ctx)
	u, ok := m.store.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := u
	return &cp, nil
}

func (m *MemoryUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	m.store.rlock(ctx)
	defer m.store.runlock(ctx)
	for _, u := range m.store.users {
		if u.Email == email {
			cp := u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryUsers) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	m.store.rlock(ctx)
	defer m.store.runlock(ctx)
	for _, u := range m.store.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryUsers) Count(ctx context.Context) (int64, error) {
	m.store.rlock(ctx)
	defer m.store.runlock(ctx)
	return int64(len(m.store.users)), nil
}

func (m *MemoryUsers) Create(ctx context.Context, u *models.User) error {
	m.store.wlock(ctx)
	defer m.store.wunlock(ctx)
	// email carries a unique key on the users table
	for _, existing := range m.store.users {
		if existing.Email == u.Email {
			return ErrDuplicate
		}
	}
	u.ID = m.store.nextUserID
	m.store.nextUserID++
	u.CreatedAt = time.Now()
	m.store.users[u.ID] = *u
	return nil
}

func (m *MemoryUsers) Update(ctx context.Context, u *models.User) error {
	m.store.wlock(ctx)
	defer m.store.wunlock(ctx)
	if _, ok := m.store.users[u.ID]; !ok {
		return ErrNotFound
	}
	m.store.users[u.ID] = *u
	return nil
}

func (m *MemoryUsers) Delete(ctx context.Context, id int64) error {
	m.store.wlock(ctx)
	defer m.store.wunlock(ctx)
	if _, ok := m.store.users[id]; !ok {
		return ErrNotFound
	}
	delete(m.store.users, id)
	return nil
}

// MemoryCategories implements CategoryRepository
type MemoryCategories struct {
	store *MemoryStore
}

func NewMemoryCategories(store *MemoryStore) *MemoryCategories {
	return &MemoryCategories{store: store}
}

var _ CategoryRepository = (*MemoryCategories)(nil)

func (m *MemoryCategories) List(ctx context.Context) ([]models.Category, error) {
	m.store.rlock(ctx)
	defer m.store.runlock(ctx)
	out := make([]models.Category, 0, len(m.store.categories))
	for _, c := range m.store.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryCategories) GetByID(ctx context.Context, id int64) (*models.Category, error) {
	m.store.rlock(ctx)
	defer m.store.runlock(ctx)
	c, ok := m.store.categories[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := c
	return &cp, nil
}

func (m *MemoryCategories) Create(ctx context.Context, c *models.Category) error {
	m.store.wlock(ctx)
	defer m.store.wunlock(ctx)
	c.ID = m.store.nextCategoryID
	m.store.nextCategoryID++
	m.store.categories[c.ID] = *c
	return nil
}

// MemoryProducts implements ProductRepository
type MemoryProducts struct {
	store *MemoryStore
}

func NewMemoryProducts(store *MemoryStore) *MemoryProducts {
	return &MemoryProducts{store: store}
}

var _ ProductRepository = (*MemoryProducts)(nil)

func (m *MemoryProducts) list(ctx context.Context, keep func(models.Product) bool) ([]models.Product, error) {
	m.store.rlock(ctx)
	defer m.store.runlock(ctx)
	out := make([]models.Product, 0)
	for _, p := range m.store.products {
		if keep(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryProducts) ListActive(ctx context.Context) ([]models.Product, error) {
	return m.list(ctx, func(p models.Product) bool { return p.IsActive })
}

func (m *MemoryProducts) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	m.store.rlock(ctx)
	defer m.store.runlock(ctx)
	p, ok := m.store.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := p
	return &cp, nil
}

// GetByIDForUpdate is identical to GetByID here: a memory transaction already
// holds the store-wide write lock.
func (m *MemoryProducts) GetByIDForUpdate(ctx context.Context, id int64) (*models.Product, error) {
	return m.GetByID(ctx, id)
}

func (m *MemoryProducts) Search(ctx context.Context, keyword string) ([]models.Product, error) {
	kw := strings.ToLower(keyword)
	return m.list(ctx, func(p models.Product) bool {
		if !p.IsActive {
			return false
		}
		return strings.Contains(strings.ToLower(p.Name), kw) ||
			strings.Contains(strings.ToLower(p.Description), kw)
	})
}

func (m *MemoryProducts) ListByCategory(ctx context.Context, categoryID int64) ([]models.Product, error) {
	return m.list(ctx, func(p models.Product) bool { return p.CategoryID == categoryID })
}

func (m *MemoryProducts) ListBySeller(ctx context.Context, sellerID int64) ([]models.Product, error) {
	return m.list(ctx, func(p models.Product) bool { return p.SellerID == sellerID })
}

func (m *MemoryProducts) Create(ctx context.Context, p *models.Product) error {
	m.store.wlock(ctx)
	defer m.store.wunlock(ctx)
	p.ID = m.store.nextProductID
	m.store.nextProductID++
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	m.store.products[p.ID] = *p
	return nil
}

func (m *MemoryProducts) Update(ctx context.Context, p *models.Product) error {
	m.store.wlock(ctx)
	defer m.store.wunlock(ctx)
	if _, ok := m.store.products[p.ID]; !ok {
		return ErrNotFound
	}
	p.UpdatedAt = time.Now()
	m.store.products[p.ID] = *p
	return nil
}

func (m *MemoryProducts) Deactivate(ctx context.Context, id int64) error {
	m.store.wlock(ctx)
	defer m.store.wunlock(ctx)
	p, ok := m.store.products[id]
	if !ok {
		return ErrNotFound
	}
	p.IsActive = false
	p.UpdatedAt = time.Now()
	m.store.products[id] = p
	return nil
}

// MemoryCarts implements CartRepository
type MemoryCarts struct {
	store *MemoryStore
}

func NewMemoryCarts(store *MemoryStore) *MemoryCarts { return &MemoryCarts{store: store} }

var _ CartRepository = (*MemoryCarts)(nil)

func (m *MemoryCarts) GetByUserID(ctx context.Context, userID int64) (*models.Cart, error) {
	m.store.rlock(ctx)
	defer m.store.runlock(ctx)
	for _, c := range m.store.carts {
		if c.UserID == userID {
			cp := c
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryCarts) Create(ctx context.Context, c *models.Cart) error {
	m.store.wlock(ctx)
	defer m.store.wunlock(ctx)
	// one cart per user, like the unique key on the carts table
	for _, existing := range m.store.carts {
		if existing.UserID == c.UserID {
			return ErrDuplicate
		}
	}
	c.ID = m.store.nextCartID
	m.store.nextCartID++
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now
	m.store.carts[c.ID] = *c
	return nil
}

func (m *MemoryCarts) Touch(ctx context.Context, cartID int64, at time.Time) error {
	m.store.wlock(ctx)
	defer m.store.wunlock(ctx)
	c, ok := m.store.carts[cartID]
	if !ok {
		return ErrNotFound
	}
	c.UpdatedAt = at
	m.store.carts[cartID] = c
	return nil
}

func (m *MemoryCarts) CountWithItems(ctx context.Context) (int64, error) {
	m.store.rlock(ctx)
	defer m.store.runlock(ctx)
	seen := make(map[int64]bool)
	for _, item := range m.store.cartItems {
		seen[item.CartID] = true
	}
	return int64(len(seen)), nil
}

func (m *MemoryCarts) ListItems(ctx context.Context, cartID int64) ([]models.CartItem, error) {
	m.store.rlock(ctx)
	defer m.store.runlock(ctx)
	out := make([]models.CartItem, 0)
	for _, item := range m.store.cartItems {
		if item.CartID == cartID {
			if p, ok := m.store.products[item.ProductID]; ok {
				item.UnitPrice = p.Price
			}
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryCarts) GetItem(ctx context.Context, itemID int64) (*models.CartItem, error) {
	m.store.rlock(ctx)
	defer m.store.runlock(ctx)
	item, ok := m.store.cartItems[itemID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := item
	return &cp, nil
}

func (m *MemoryCarts) FindItem(ctx context.Context, cartID, productID int64) (*models.CartItem, error) {
	m.store.rlock(ctx)
	defer m.store.runlock(ctx)
	for _, item := range m.store.cartItems {
		if item.CartID == cartID && item.ProductID == productID {
			cp := item
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryCarts) CreateItem(ctx context.Context, item *models.CartItem) error {
	m.store.wlock(ctx)
	defer m.store.wunlock(ctx)
	item.ID = m.store.nextItemID
	m.store.nextItemID++
	m.store.cartItems[item.ID] = *item
	return nil
}

func (m *MemoryCarts) UpdateItemQuantity(ctx context.Context, itemID int64, quantity int) error {
	m.store.wlock(ctx)
	defer m.store.wunlock(ctx)
	item, ok := m.store.cartItems[itemID]
	if !ok {
		return ErrNotFound
	}
	item.Quantity = quantity
	m.store.cartItems[itemID] = item
	return nil
}

func (m *MemoryCarts) DeleteItem(ctx context.Context, itemID int64) error {
	m.store.wlock(ctx)
	defer m.store.wunlock(ctx)
	if _, ok := m.store.cartItems[itemID]; !ok {
		return ErrNotFound
	}
	delete(m.store.cartItems, itemID)
	return nil
}

func (m *MemoryCarts) ClearItems(ctx context.Context, cartID int64) error {
	m.store.wlock(ctx)
	defer m.store.wunlock(ctx)
	for id, item := range m.store.cartItems {
		if item.CartID == cartID {
			delete(m.store.cartItems, id)
		}
	}
	return nil
}

// MemoryOrders implements OrderRepository
type MemoryOrders struct {
	store *MemoryStore
}

func NewMemoryOrders(store *MemoryStore) *MemoryOrders { return &MemoryOrders{store: store} }

var _ OrderRepository = (*MemoryOrders)(nil)

func sortOrdersNewestFirst(out []models.Order) {
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
}

func copyOrder(o models.Order) models.Order {
	cp := o
	cp.Items = make([]models.OrderItem, len(o.Items))
	copy(cp.Items, o.Items)
	return cp
}

func (m *MemoryOrders) List(ctx context.Context) ([]models.Order, error) {
	m.store.rlock(ctx)
	defer m.store.runlock(ctx)
	out := make([]models.Order, 0, len(m.store.orders))
	for _, o := range m.store.orders {
		out = append(out, copyOrder(o))
	}
	sortOrdersNewestFirst(out)
	return out, nil
}

func (m *MemoryOrders) GetByID(ctx context.Context, id int64) (*models.Order, error) {
	m.store.rlock(ctx)
	defer m.store.runlock(ctx)
	o, ok := m.store.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := copyOrder(o)
	return &cp, nil
}

func (m *MemoryOrders) ListByUser(ctx context.Context, userID int64) ([]models.Order, error) {
	m.store.rlock(ctx)
	defer m.store.runlock(ctx)
	out := make([]models.Order, 0)
	for _, o := range m.store.orders {
		if o.UserID == userID {
			out = append(out, copyOrder(o))
		}
	}
	sortOrdersNewestFirst(out)
	return out, nil
}

func (m *MemoryOrders) ListBySeller(ctx context.Context, sellerID int64) ([]models.Order, error) {
	m.store.rlock(ctx)
	defer m.store.runlock(ctx)
	out := make([]models.Order, 0)
	for _, o := range m.store.orders {
		for _, item := range o.Items {
			if p, ok := m.store.products[item.ProductID]; ok && p.SellerID == sellerID {
				out = append(out, copyOrder(o))
				break
			}
		}
	}
	sortOrdersNewestFirst(out)
	return out, nil
}

func (m *MemoryOrders) Create(ctx context.Context, o *models.Order) error {
	m.store.wlock(ctx)
	defer m.store.wunlock(ctx)
	o.ID = m.store.nextOrderID
	m.store.nextOrderID++
	now := time.Now()
	o.CreatedAt = now
	o.UpdatedAt = now
	for i := range o.Items {
		o.Items[i].ID = m.store.nextOrderItem
		m.store.nextOrderItem++
		o.Items[i].OrderID = o.ID
	}
	m.store.orders[o.ID] = copyOrder(*o)
	return nil
}

func (m *MemoryOrders) UpdateStatus(ctx context.Context, id int64, status models.OrderStatus, at time.Time) error {
	m.store.wlock(ctx)
	defer m.store.wunlock(ctx)
	o, ok := m.store.orders[id]
	if !ok {
		return ErrNotFound
	}
	o.Status = status
	o.UpdatedAt = at
	m.store.orders[id] = o
	return nil
}
